package emu

import "testing"

func TestFilter_NewestTap(t *testing.T) {
	var f Filter
	f.Coefficients[7] = 0x7F

	if got := f.Next(1000); got != 992 {
		t.Errorf("expected 992, got %d", got)
	}
}

func TestFilter_ImpulseReachesOldestTap(t *testing.T) {
	var f Filter
	f.Coefficients[0] = 0x40

	if got := f.Next(1000); got != 0 {
		t.Fatalf("tap 0 should not see a fresh sample, got %d", got)
	}
	for i := 0; i < 6; i++ {
		if got := f.Next(0); got != 0 {
			t.Fatalf("step %d: got %d, want 0", i, got)
		}
	}
	if got := f.Next(0); got != 500 {
		t.Errorf("impulse at tap 0: got %d, want 500", got)
	}
}

func TestFilter_NegativeCoefficient(t *testing.T) {
	var f Filter
	f.Coefficients[7] = 0xC0 // -64

	if got := f.Next(1000); got != -500 {
		t.Errorf("expected -500, got %d", got)
	}
}

func TestFilter_Saturates(t *testing.T) {
	var f Filter
	for i := range f.Coefficients {
		f.Coefficients[i] = 0x7F
	}

	var got int32
	for i := 0; i < 8; i++ {
		got = f.Next(32767)
	}
	if got != 32766 {
		t.Errorf("expected saturated 32766, got %d", got)
	}
}

func TestFilter_Reset(t *testing.T) {
	var f Filter
	f.Coefficients[6] = 0x7F
	f.Next(1000)
	f.Reset()

	if got := f.Next(0); got != 0 {
		t.Errorf("history survived reset: got %d", got)
	}
}
