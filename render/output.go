package render

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// sampleSink receives interleaved 16-bit stereo PCM.
type sampleSink interface {
	WriteSamples(samples []int16) error
	// Size returns the number of bytes written so far.
	Size() int64
	Close() error
}

// openSink creates the output file, as WAV when the extension is .wav and
// as raw little-endian PCM otherwise.
func openSink(path string, sampleRate, channels int) (sampleSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		w, err := newWAVWriter(f, sampleRate, channels)
		if err != nil {
			f.Close()
			return nil, err
		}
		return w, nil
	}
	return newRawWriter(f), nil
}

// rawWriter writes headerless s16le PCM.
type rawWriter struct {
	f    *os.File
	w    *bufio.Writer
	size int64
	buf  []byte
}

func newRawWriter(f *os.File) *rawWriter {
	return &rawWriter{f: f, w: bufio.NewWriter(f)}
}

func (r *rawWriter) WriteSamples(samples []int16) error {
	r.buf = appendPCM(r.buf[:0], samples)
	n, err := r.w.Write(r.buf)
	r.size += int64(n)
	return err
}

func (r *rawWriter) Size() int64 {
	return r.size
}

func (r *rawWriter) Close() error {
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// wavWriter writes a 16-bit PCM WAV file through a go-audio encoder,
// which patches the RIFF and data sizes on Close.
type wavWriter struct {
	f   *os.File
	enc *wav.Encoder
	buf *audio.IntBuffer
}

func newWAVWriter(f *os.File, sampleRate, channels int) (*wavWriter, error) {
	w := &wavWriter{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
	// An empty write emits the header and opens the data chunk, so even
	// a render with no frames leaves a valid file.
	if err := w.enc.Write(w.buf); err != nil {
		return nil, fmt.Errorf("write WAV header: %w", err)
	}
	return w, nil
}

func (w *wavWriter) WriteSamples(samples []int16) error {
	w.buf.Data = w.buf.Data[:0]
	for _, s := range samples {
		w.buf.Data = append(w.buf.Data, int(s))
	}
	return w.enc.Write(w.buf)
}

func (w *wavWriter) Size() int64 {
	return int64(w.enc.WrittenBytes)
}

func (w *wavWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// appendPCM appends samples to dst as little-endian bytes.
func appendPCM(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}
