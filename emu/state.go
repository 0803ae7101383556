package emu

import "math"

// VoiceState is the per-voice snapshot delivered to a StateReceiver after
// every DSP tick.
type VoiceState struct {
	// Volume is a loudness estimate for drawing, roughly 0-40.
	Volume uint8
	// Amplitude is the voice's last output sample, mid/side folded for
	// inverted-phase volumes.
	Amplitude int16
	// Frequency is the estimated sounding frequency in Hz.
	Frequency float64
	// Timbre is the sample source index.
	Timbre uint8
	// Balance is the stereo position, 0 for left and 1 for right.
	Balance float64
	// Edge is set on the first tick after a key-on or source change.
	Edge bool
	// KeyOnTick is the DSP tick count at the most recent key-on.
	KeyOnTick uint64
}

// StateReceiver observes per-voice state. It is called on the DSP's
// goroutine and must not call back into the DSP.
type StateReceiver interface {
	ReceiveVoiceState(voice int, state VoiceState)
}

// StateReceivers fans voice state out to several receivers.
type StateReceivers []StateReceiver

// ReceiveVoiceState forwards the state to every receiver in order.
func (rs StateReceivers) ReceiveVoiceState(voice int, state VoiceState) {
	for _, r := range rs {
		r.ReceiveVoiceState(voice, state)
	}
}

// VisualTuning holds the empirically chosen constants behind the volume
// and balance estimates. They shape the visualizer only.
type VisualTuning struct {
	VolumeScale   float64
	VolumeDivisor float64
	EnvelopeMax   float64
	BalanceScale  float64
}

// DefaultVisualTuning returns the stock tuning.
func DefaultVisualTuning() VisualTuning {
	return VisualTuning{
		VolumeScale:   2.8,
		VolumeDivisor: 3.0,
		EnvelopeMax:   2047.0,
		BalanceScale:  128.0,
	}
}

// volume estimates perceived loudness from the channel volumes and the
// envelope level. Volumes are read as unsigned bytes so surround panned
// voices (one channel inverted) do not cancel out.
func (t VisualTuning) volume(volLeft, volRight uint8, level int32) uint8 {
	l := float64(volLeft)
	r := float64(volRight)
	v := t.VolumeScale * math.Log2(math.Abs(l/2+r/2)/t.VolumeDivisor+1) * (float64(level) / t.EnvelopeMax)
	return uint8(math.Ceil(v))
}

// balance maps the channel volume magnitudes to a 0..1 pan position.
func (t VisualTuning) balance(volLeft, volRight uint8) float64 {
	l := float64(volLeft)
	r := float64(volRight)
	b := l/-t.BalanceScale + r/t.BalanceScale + 0.5
	return math.Max(0, math.Min(1, b))
}

// amplitude folds a voice's stereo output into one drawable sample.
func amplitude(volLeft, volRight uint8, left, right int32) int16 {
	l := int8(volLeft)
	r := int8(volRight)
	switch {
	case l < 0 && r > 0:
		return int16((right - left) / 2)
	case l > 0 && r < 0:
		return int16((left - right) / 2)
	}
	return int16((left + right) / 2)
}
