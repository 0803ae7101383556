package emu

import "testing"

func TestGetTimingForRegion(t *testing.T) {
	ntsc := GetTimingForRegion(RegionNTSC)
	if ntsc.FPS != 60 || ntsc.Scanlines != 262 {
		t.Errorf("NTSC timing %+v", ntsc)
	}
	pal := GetTimingForRegion(RegionPAL)
	if pal.FPS != 50 || pal.Scanlines != 312 {
		t.Errorf("PAL timing %+v", pal)
	}
	if ntsc.CPUClockHz != pal.CPUClockHz || ntsc.CPUClockHz != 1024000 {
		t.Errorf("CPU clock NTSC=%d PAL=%d, want 1024000 for both", ntsc.CPUClockHz, pal.CPUClockHz)
	}
}

func TestDetectRegion(t *testing.T) {
	if DetectRegion(makeTestSPC()) != RegionNTSC {
		t.Error("SPC files should default to NTSC pacing")
	}
	if DefaultRegion() != RegionNTSC {
		t.Error("default region should be NTSC")
	}
}

func TestEmulator_SetRegion(t *testing.T) {
	e := newTestEmulator(t)
	e.SetRegion(RegionPAL)

	if e.GetRegion() != RegionPAL {
		t.Error("region not updated")
	}
	e.RunFrame()
	if n := len(e.GetNativeSamples()) / 2; n != 640 {
		t.Errorf("PAL frame rendered %d native frames, want 640", n)
	}
}
