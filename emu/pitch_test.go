package emu

import (
	"math"
	"testing"
)

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 8000 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
	}
	return out
}

func TestYIN_Sine(t *testing.T) {
	y := NewYIN()

	for _, freq := range []float64{250, 500, 1000} {
		got, clarity, ok := y.EstimatePitch(sine(freq, 8192), SampleRate)
		if !ok {
			t.Errorf("%.0f Hz: no pitch found", freq)
			continue
		}
		if math.Abs(got-freq)/freq > 0.01 {
			t.Errorf("%.0f Hz: estimated %.2f Hz", freq, got)
		}
		if clarity < 0.9 {
			t.Errorf("%.0f Hz: clarity %.3f, want near 1", freq, clarity)
		}
	}
}

func TestYIN_Silence(t *testing.T) {
	y := NewYIN()
	if _, _, ok := y.EstimatePitch(make([]float64, 4096), SampleRate); ok {
		t.Error("silence should not produce a pitch")
	}
	if _, _, ok := y.EstimatePitch([]float64{1, 2, 3}, SampleRate); ok {
		t.Error("a too-short signal should not produce a pitch")
	}
}

func TestParabolicMinimum(t *testing.T) {
	v := []float64{4, 1, 0, 1, 4}
	if got := parabolicMinimum(v, 2); got != 2 {
		t.Errorf("symmetric minimum: got %f, want 2", got)
	}
	if got := parabolicMinimum(v, 0); got != 0 {
		t.Errorf("edge index: got %f, want 0", got)
	}
}

// fixedEstimator reports a constant pitch and counts calls.
type fixedEstimator struct {
	freq  float64
	ok    bool
	calls int
}

func (f *fixedEstimator) EstimatePitch(signal []float64, sampleRate int) (float64, float64, bool) {
	f.calls++
	return f.freq, 1, f.ok
}

func TestDSP_PitchOctaveCorrection(t *testing.T) {
	d, bus := newTestDSP()
	setupSquareVoice(d, bus)
	est := &fixedEstimator{freq: 40, ok: true}
	d.SetPitchEstimator(est)

	if got := d.detectVoicePitch(0); got != 160 {
		t.Errorf("pitch %.1f, want 160 (40 Hz raised two octaves)", got)
	}

	d.detectVoicePitch(0)
	if est.calls != 1 {
		t.Errorf("estimator called %d times, want 1 (cached)", est.calls)
	}
}

func TestDSP_PitchFallbackUsesLoopLength(t *testing.T) {
	d, bus := newTestDSP()
	setupSquareVoice(d, bus)
	d.SetPitchEstimator(&fixedEstimator{ok: false})

	// One loop pass is two blocks, 32 samples.
	if got := d.detectVoicePitch(0); got != 1000 {
		t.Errorf("fallback pitch %.1f, want 1000", got)
	}
}

func TestDSP_PitchFallbackSingleBlock(t *testing.T) {
	d, bus := newTestDSP()
	bus.LoadRAMAt(0x0200, []byte{0x00, 0x03, 0x00, 0x03})
	bus.LoadRAMAt(0x0300, []byte{0x03})
	d.SetRegister(regDIR, 0x02)
	d.SetPitchEstimator(&fixedEstimator{ok: false})

	if got := d.detectVoicePitch(0); got != 2000 {
		t.Errorf("fallback pitch %.1f, want 2000", got)
	}
}

func TestDSP_SeededPitch(t *testing.T) {
	d, bus := newTestDSP()
	setupSquareVoice(d, bus)
	est := &fixedEstimator{freq: 300, ok: true}
	d.SetPitchEstimator(est)
	d.SetSourcePitch(0, 440)

	if got := d.detectVoicePitch(0); got != 440 {
		t.Errorf("pitch %.1f, want seeded 440", got)
	}
	if est.calls != 0 {
		t.Error("seeded source should not be estimated")
	}
	if p, ok := d.SourcePitch(0); !ok || p != 440 {
		t.Errorf("SourcePitch = %.1f, %v", p, ok)
	}
}

func TestDSP_NoisePitch(t *testing.T) {
	d, _ := newTestDSP()
	d.SetRegister(regNON, 0x01)
	d.SetRegister(regFLG, flgEchoDisable|12)

	if got := d.detectVoicePitch(0); math.Abs(got-2*noteC0) > 1e-9 {
		t.Errorf("noise clock 12: pitch %f, want %f", got, 2*noteC0)
	}
}

func TestVoiceState_Frequency(t *testing.T) {
	d, bus := newTestDSP()
	setupSquareVoice(d, bus)
	d.SetSourcePitch(0, 1000)
	d.SetRegister(regPitchH, 0x20)

	rec := &recordingReceiver{}
	d.SetStateReceiver(rec)
	renderSamples(d, 1)

	if got := rec.states[0].Frequency; got != 2000 {
		t.Errorf("frequency %.1f, want 2000 at pitch $2000", got)
	}
	if rec.states[0].Timbre != 0 {
		t.Errorf("timbre %d, want 0", rec.states[0].Timbre)
	}
}

// recordingReceiver keeps the last state of each voice.
type recordingReceiver struct {
	states [NumVoices]VoiceState
	count  int
}

func (r *recordingReceiver) ReceiveVoiceState(voice int, s VoiceState) {
	r.states[voice] = s
	r.count++
}
