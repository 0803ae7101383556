// Package cli provides a command-line player for SPC files.
// It polls the keyboard for voice and pause controls and shows the
// visualizer in a window without the full UI.
package cli

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emubridge "github.com/user-none/emspc/bridge/ebiten"
	"github.com/user-none/emspc/ui"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

// voiceKeys toggle voices 0-7. With shift held they toggle solo.
var voiceKeys = [...]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4,
	ebiten.Key5, ebiten.Key6, ebiten.Key7, ebiten.Key8,
}

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles key polling and rendering from the shared framebuffer.
type Runner struct {
	emulator    *emubridge.Emulator
	audioPlayer *ui.AudioPlayer

	// ADT goroutine control
	playback          *ui.PlaybackControl
	voices            *ui.SharedVoiceControl
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}
}

// NewRunner creates a new Runner wrapping the given emulator.
// Audio initialization failure is non-fatal; the visualizer still runs.
func NewRunner(e *emubridge.Emulator) *Runner {
	player, err := ui.NewAudioPlayer(1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:          e,
		audioPlayer:       player,
		playback:          ui.NewPlaybackControl(),
		voices:            &ui.SharedVoiceControl{},
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
	}

	go r.emulationLoop()

	return r
}

// Voices returns the shared voice control so callers can set initial
// mute and solo state before the first frame.
func (r *Runner) Voices() *ui.SharedVoiceControl {
	return r.voices
}

// Close cleans up the runner's resources.
func (r *Runner) Close() {
	if r.playback != nil {
		r.playback.Stop()
		<-r.emuDone
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for {
		wasPaused := r.playback.IsPaused()
		if !r.playback.CheckPause() {
			return
		}
		if wasPaused {
			lastFrameTime = time.Now()
		}

		r.voices.Apply(r.emulator.Emulator)

		r.emulator.RunFrame()

		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(r.emulator.GetAudioSamples())
		}

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)

		// ADT sleep
		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	r.pollKeys()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride, height)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

// pollKeys handles 1-8 (mute), shift+1-8 (solo) and space (pause).
func (r *Runner) pollKeys() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	for i, k := range voiceKeys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		if shift {
			r.voices.ToggleSolo(i)
		} else {
			r.voices.ToggleMute(i)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		r.togglePause()
	}
}

func (r *Runner) togglePause() {
	r.playback.TogglePause()
	if r.audioPlayer != nil && r.playback.IsPaused() {
		r.audioPlayer.Flush()
	}
}
