package ui

import (
	"sync"
	"time"

	"github.com/user-none/emspc/emu"
)

// SharedVoiceControl holds the mute and solo masks set from the Ebiten
// thread and applied by the emulation goroutine between frames.
type SharedVoiceControl struct {
	mu    sync.Mutex
	muted uint8
	solo  uint8
	dirty bool
}

// ToggleMute flips a voice's mute bit.
func (vc *SharedVoiceControl) ToggleMute(voice int) {
	vc.toggle(&vc.muted, voice)
}

// ToggleSolo flips a voice's solo bit.
func (vc *SharedVoiceControl) ToggleSolo(voice int) {
	vc.toggle(&vc.solo, voice)
}

func (vc *SharedVoiceControl) toggle(mask *uint8, voice int) {
	if voice < 0 || voice >= emu.NumVoices {
		return
	}
	vc.mu.Lock()
	*mask ^= 1 << voice
	vc.dirty = true
	vc.mu.Unlock()
}

// Masks returns the current mute and solo masks.
func (vc *SharedVoiceControl) Masks() (muted, solo uint8) {
	vc.mu.Lock()
	muted, solo = vc.muted, vc.solo
	vc.mu.Unlock()
	return
}

// Apply pushes changed masks to the emulator. Called from the emulation
// goroutine only.
func (vc *SharedVoiceControl) Apply(e *emu.Emulator) {
	vc.mu.Lock()
	if !vc.dirty {
		vc.mu.Unlock()
		return
	}
	muted, solo := vc.muted, vc.solo
	vc.dirty = false
	vc.mu.Unlock()

	for i := 0; i < emu.NumVoices; i++ {
		e.SetVoiceMuted(i, muted&(1<<i) != 0)
		e.SetVoiceSolo(i, solo&(1<<i) != 0)
	}
}

// SharedFramebuffer holds pixel data written by the emulation goroutine
// and read by Ebiten's Draw() method. Uses separate write and read buffers
// so the emu goroutine can write new data while Draw uses the read copy.
type SharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte
	readPixels  []byte
	stride      int
	height      int
}

// NewSharedFramebuffer creates a framebuffer sized for the visualizer.
func NewSharedFramebuffer() *SharedFramebuffer {
	return &SharedFramebuffer{
		writePixels: make([]byte, emu.ScreenWidth*emu.MaxScreenHeight*4),
		readPixels:  make([]byte, emu.ScreenWidth*emu.MaxScreenHeight*4),
	}
}

// Update copies a rendered frame from the emulation goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte, stride, height int) {
	sf.mu.Lock()
	n := min(stride*height, len(sf.writePixels), len(pixels))
	copy(sf.writePixels[:n], pixels[:n])
	sf.stride = stride
	sf.height = height
	sf.mu.Unlock()
}

// Read returns a snapshot of the latest frame. The returned slice stays
// valid until the next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride, height int) {
	sf.mu.Lock()
	stride = sf.stride
	height = sf.height
	if n := min(stride*height, len(sf.writePixels)); n > 0 {
		copy(sf.readPixels[:n], sf.writePixels[:n])
	}
	pixels = sf.readPixels
	sf.mu.Unlock()
	return
}

// PlaybackControl coordinates pause, resume and stop between the Ebiten
// thread and the emulation goroutine.
type PlaybackControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	stopReq  bool
	ackCh    chan struct{}
}

// NewPlaybackControl creates a running playback control.
func NewPlaybackControl() *PlaybackControl {
	return &PlaybackControl{ackCh: make(chan struct{}, 1)}
}

// RequestPause asks the emulation goroutine to pause and blocks until it
// acknowledges.
func (pc *PlaybackControl) RequestPause() {
	pc.mu.Lock()
	if pc.paused || pc.pauseReq || pc.stopReq {
		pc.mu.Unlock()
		return
	}
	pc.pauseReq = true
	pc.mu.Unlock()

	<-pc.ackCh
}

// RequestResume lets a paused emulation goroutine continue.
func (pc *PlaybackControl) RequestResume() {
	pc.mu.Lock()
	pc.pauseReq = false
	pc.paused = false
	pc.mu.Unlock()
}

// TogglePause pauses a running goroutine or resumes a paused one.
func (pc *PlaybackControl) TogglePause() {
	if pc.IsPaused() {
		pc.RequestResume()
		return
	}
	pc.RequestPause()
}

// CheckPause is called by the emulation goroutine between frames. While a
// pause is requested it acknowledges and waits. Returns false when the
// goroutine should exit.
func (pc *PlaybackControl) CheckPause() bool {
	pc.mu.Lock()
	if pc.stopReq {
		pc.mu.Unlock()
		return false
	}
	if !pc.pauseReq {
		pc.mu.Unlock()
		return true
	}
	pc.paused = true
	pc.mu.Unlock()

	select {
	case pc.ackCh <- struct{}{}:
	default:
	}

	for {
		pc.mu.Lock()
		if pc.stopReq {
			pc.mu.Unlock()
			return false
		}
		if !pc.pauseReq {
			pc.paused = false
			pc.mu.Unlock()
			return true
		}
		pc.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop tells the emulation goroutine to exit.
func (pc *PlaybackControl) Stop() {
	pc.mu.Lock()
	pc.stopReq = true
	pc.pauseReq = false
	pc.mu.Unlock()
}

// IsPaused reports whether the emulation goroutine is paused.
func (pc *PlaybackControl) IsPaused() bool {
	pc.mu.Lock()
	p := pc.paused
	pc.mu.Unlock()
	return p
}
