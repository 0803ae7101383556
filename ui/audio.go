package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const audioSampleRate = 48000

// pcmBufferCapacity is ~170ms at 48kHz stereo 16-bit.
const pcmBufferCapacity = 32768

// AudioPlayer plays the emulator's 48 kHz stereo output through oto.
type AudioPlayer struct {
	player *oto.Player
	buffer *PCMBuffer
}

// oto context singleton
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureOtoContext initializes the oto audio context on first use.
func ensureOtoContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   audioSampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-ready
	})
	return otoCtx, otoInitErr
}

// NewAudioPlayer starts playback at the given volume.
func NewAudioPlayer(volume float64) (*AudioPlayer, error) {
	ctx, err := ensureOtoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	buf := NewPCMBuffer(pcmBufferCapacity)
	player := ctx.NewPlayer(buf)
	player.SetBufferSize(19200)
	player.SetVolume(volume)
	player.Play()

	return &AudioPlayer{player: player, buffer: buf}, nil
}

// QueueSamples queues interleaved stereo samples for playback.
func (a *AudioPlayer) QueueSamples(samples []int16) {
	a.buffer.WriteSamples(samples)
}

// GetBufferLevel returns the bytes queued in the PCM buffer and inside
// the oto player. Used for ADT pacing.
func (a *AudioPlayer) GetBufferLevel() int {
	return a.buffer.Buffered() + a.player.BufferedSize()
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// Flush drops queued audio, e.g. after a pause or a state load.
func (a *AudioPlayer) Flush() {
	a.buffer.Clear()
}

// Close stops playback.
func (a *AudioPlayer) Close() {
	if a.buffer != nil {
		a.buffer.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
