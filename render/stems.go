package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arl/blip/wave"
	"github.com/user-none/emspc/emu"
)

// stemRecorder writes each voice's output to its own mono WAV file. It
// receives the per-voice stream as an emu.StateReceiver.
type stemRecorder struct {
	files   [emu.NumVoices]*os.File
	writers [emu.NumVoices]*wave.Writer
	pending [emu.NumVoices][]int16
}

// newStemRecorder creates voice1.wav through voice8.wav in dir, using
// base as the file name prefix.
func newStemRecorder(dir, base string) (*stemRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create stems directory: %w", err)
	}
	s := &stemRecorder{}
	for i := range s.files {
		path := filepath.Join(dir, fmt.Sprintf("%s.voice%d.wav", base, i+1))
		f, err := os.Create(path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("create stem: %w", err)
		}
		s.files[i] = f
		s.writers[i] = wave.NewWriter(f, emu.SampleRate)
		s.pending[i] = make([]int16, 0, 1024)
	}
	return s, nil
}

// ReceiveVoiceState implements emu.StateReceiver.
func (s *stemRecorder) ReceiveVoiceState(voice int, state emu.VoiceState) {
	s.pending[voice] = append(s.pending[voice], state.Amplitude)
}

// Flush writes the samples received since the last flush.
func (s *stemRecorder) Flush() {
	for i, w := range s.writers {
		if w == nil || len(s.pending[i]) == 0 {
			continue
		}
		w.Write(s.pending[i])
		s.pending[i] = s.pending[i][:0]
	}
}

// Close flushes and finalizes every stem.
func (s *stemRecorder) Close() error {
	s.Flush()
	var first error
	for i := range s.files {
		if s.writers[i] != nil {
			s.writers[i].Close()
			s.writers[i] = nil
		}
		if s.files[i] != nil {
			if err := s.files[i].Close(); err != nil && first == nil {
				first = err
			}
			s.files[i] = nil
		}
	}
	return first
}
