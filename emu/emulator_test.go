package emu

import (
	"testing"

	emucore "github.com/user-none/eblitui/api"
)

func newTestEmulator(t *testing.T) *Emulator {
	t.Helper()
	e, err := NewEmulator(makeTestSPC(), RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	e.DSP().SetPitchEstimator(&fixedEstimator{freq: 1000, ok: true})
	return e
}

func TestNewEmulator_RejectsGarbage(t *testing.T) {
	if _, err := NewEmulator([]byte("garbage"), RegionNTSC); err == nil {
		t.Error("expected an error for non-SPC data")
	}
}

func TestEmulator_FramePacing(t *testing.T) {
	e := newTestEmulator(t)

	total := 0
	for i := 0; i < 3; i++ {
		e.RunFrame()
		native := e.GetNativeSamples()
		if len(native)%2 != 0 {
			t.Fatalf("frame %d: odd native sample count %d", i, len(native))
		}
		total += len(native) / 2
	}
	// 3 NTSC frames are exactly 1/20 s.
	if total != 1600 {
		t.Errorf("3 frames rendered %d native frames, want 1600", total)
	}
	if e.Frame() != 3 {
		t.Errorf("Frame = %d, want 3", e.Frame())
	}
}

func TestEmulator_PALFramePacing(t *testing.T) {
	e, err := NewEmulator(makeTestSPC(), RegionPAL)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	e.DSP().SetPitchEstimator(&fixedEstimator{freq: 1000, ok: true})

	total := 0
	for i := 0; i < 5; i++ {
		e.RunFrame()
		total += len(e.GetNativeSamples()) / 2
	}
	if total != 3200 {
		t.Errorf("5 PAL frames rendered %d native frames, want 3200", total)
	}
	if e.GetTiming().FPS != 50 {
		t.Errorf("FPS = %d, want 50", e.GetTiming().FPS)
	}
}

func TestEmulator_PlaysSnapshot(t *testing.T) {
	e := newTestEmulator(t)
	e.RunFrame()

	var loud bool
	for _, s := range e.GetNativeSamples() {
		if s != 0 {
			loud = true
			break
		}
	}
	if !loud {
		t.Error("snapshot with a keyed voice produced silence")
	}

	var out int
	for i := 0; i < 3; i++ {
		e.RunFrame()
		out += len(e.GetAudioSamples())
	}
	if out == 0 || out%2 != 0 {
		t.Errorf("host rate output: %d samples", out)
	}
}

func TestEmulator_InputTogglesMute(t *testing.T) {
	e := newTestEmulator(t)

	e.SetInput(0, 1<<4)
	if !e.VoiceMuted(0) {
		t.Fatal("voice 0 should be muted after pressing its button")
	}
	e.SetInput(0, 1<<4)
	if !e.VoiceMuted(0) {
		t.Fatal("holding the button should not toggle again")
	}
	e.SetInput(0, 0)
	e.SetInput(0, 1<<4)
	if e.VoiceMuted(0) {
		t.Error("second press should unmute")
	}

	e.SetInput(1, 1<<11)
	if e.VoiceMuted(7) {
		t.Error("player 2 input should be ignored")
	}
}

func TestEmulator_MutedVoiceIsSilent(t *testing.T) {
	e := newTestEmulator(t)
	e.SetVoiceMuted(0, true)

	e.RunFrame()
	for i, s := range e.GetNativeSamples() {
		if s != 0 {
			t.Fatalf("sample %d = %d with the only voice muted", i, s)
		}
	}
}

func TestEmulator_ResetRestartsSnapshot(t *testing.T) {
	e := newTestEmulator(t)
	e.RunFrame()
	first := append([]int16(nil), e.GetNativeSamples()...)
	e.RunFrame()

	e.Reset()
	if e.Frame() != 0 {
		t.Errorf("Frame = %d after reset", e.Frame())
	}
	e.RunFrame()
	again := e.GetNativeSamples()
	if len(again) != len(first) {
		t.Fatalf("length %d after reset, want %d", len(again), len(first))
	}
	for i := range first {
		if again[i] != first[i] {
			t.Fatalf("sample %d = %d after reset, want %d", i, again[i], first[i])
		}
	}
}

func TestEmulator_SetOptionInterpolation(t *testing.T) {
	e := newTestEmulator(t)

	e.SetOption("linear_interpolation", "true")
	if e.DSP().ResamplingMode() != ResampleLinear {
		t.Errorf("mode %v, want linear", e.DSP().ResamplingMode())
	}
	e.SetOption("cubic_interpolation", "true")
	if e.DSP().ResamplingMode() != ResampleCubic {
		t.Errorf("mode %v, want cubic to win", e.DSP().ResamplingMode())
	}
	e.SetOption("cubic_interpolation", "false")
	e.SetOption("linear_interpolation", "false")
	if e.DSP().ResamplingMode() != ResampleGaussian {
		t.Errorf("mode %v, want gaussian", e.DSP().ResamplingMode())
	}
}

func TestEmulator_IPLShadow(t *testing.T) {
	data := makeTestSPC()
	data[spcRAMOffset+controlReg] = 0x80
	data[spcRAMOffset+iplShadowAddr] = 0x11

	e, err := NewEmulator(data, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	buf := make([]byte, 1)
	e.ReadMemory(iplShadowAddr, buf)
	if buf[0] != 0xAB {
		t.Errorf("$FFC0 = $%02X, want IPL region $AB", buf[0])
	}

	data[spcRAMOffset+controlReg] = 0x00
	e, err = NewEmulator(data, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	e.ReadMemory(iplShadowAddr, buf)
	if buf[0] != 0x11 {
		t.Errorf("$FFC0 = $%02X, want RAM $11", buf[0])
	}
}

func TestEmulator_ReadMemory(t *testing.T) {
	e := newTestEmulator(t)

	buf := make([]byte, 2)
	if n := e.ReadMemory(0x0300, buf); n != 2 || buf[0] != 0xB0 || buf[1] != 0x77 {
		t.Errorf("RAM read: n=%d buf=% X", n, buf)
	}

	buf = make([]byte, 1)
	e.ReadMemory(dspRegsStart+regDIR, buf)
	if buf[0] != 0x02 {
		t.Errorf("DIR via flat map = $%02X, want $02", buf[0])
	}

	buf = make([]byte, 4)
	if n := e.ReadMemory(dspRegsEnd, buf); n != 1 {
		t.Errorf("read across the end returned %d bytes, want 1", n)
	}
}

func TestEmulator_MemoryRegions(t *testing.T) {
	e := newTestEmulator(t)

	regions := e.MemoryMap()
	if len(regions) != 1 || regions[0].Type != emucore.MemorySystemRAM || regions[0].Size != apuRAMSize {
		t.Fatalf("MemoryMap = %+v", regions)
	}

	ram := e.ReadRegion(emucore.MemorySystemRAM)
	if len(ram) != apuRAMSize || ram[0x0300] != 0xB0 {
		t.Fatalf("ReadRegion: len %d", len(ram))
	}
	ram[0x1000] = 0x42
	if buf := make([]byte, 1); e.ReadMemory(0x1000, buf) == 1 && buf[0] == 0x42 {
		t.Error("ReadRegion should return a copy")
	}

	e.WriteRegion(emucore.MemorySystemRAM, ram)
	buf := make([]byte, 1)
	e.ReadMemory(0x1000, buf)
	if buf[0] != 0x42 {
		t.Errorf("WriteRegion not applied: $%02X", buf[0])
	}
}

func TestEmulator_Framebuffer(t *testing.T) {
	e := newTestEmulator(t)
	e.RunFrame()

	if e.GetFramebufferStride() != ScreenWidth*4 {
		t.Errorf("stride %d, want %d", e.GetFramebufferStride(), ScreenWidth*4)
	}
	if e.GetActiveHeight() != ScreenHeight {
		t.Errorf("height %d, want %d", e.GetActiveHeight(), ScreenHeight)
	}
	if len(e.GetFramebuffer()) < e.GetFramebufferStride()*e.GetActiveHeight() {
		t.Errorf("framebuffer too small: %d bytes", len(e.GetFramebuffer()))
	}
}

func TestEmulator_StateReceiver(t *testing.T) {
	e := newTestEmulator(t)
	rec := &recordingReceiver{}
	e.AddStateReceiver(rec)

	e.RunFrame()
	if rec.count != NumVoices*len(e.GetNativeSamples())/2 {
		t.Errorf("received %d states for %d ticks", rec.count, len(e.GetNativeSamples())/2)
	}
	if rec.states[0].Volume == 0 {
		t.Error("playing voice reported zero volume")
	}
}
