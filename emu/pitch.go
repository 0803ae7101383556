package emu

import (
	"log"
	"math"
)

const (
	// noteC0 is the frequency of C0 in Hz.
	noteC0 = 16.351597831287

	// maxPitchDecodeSamples bounds how much of a looping source is
	// decoded for pitch estimation.
	maxPitchDecodeSamples = 10 * SampleRate

	// minSourcePitch is the lowest fundamental accepted from the
	// estimator. Sources rarely have a period longer than 16 BRR blocks,
	// so lower estimates are octave errors.
	minSourcePitch = 125.0

	// maxFallbackBlocks caps the block-count period estimate.
	maxFallbackBlocks = 16
)

// PitchEstimator finds the fundamental frequency of a decoded waveform.
type PitchEstimator interface {
	EstimatePitch(signal []float64, sampleRate int) (frequency, clarity float64, ok bool)
}

// SetPitchEstimator replaces the estimator used for new sources.
func (d *DSP) SetPitchEstimator(p PitchEstimator) {
	d.estimator = p
}

// SetSourcePitch seeds the pitch of a sample source, in Hz at the
// source's native rate. Seeded pitches are never re-estimated.
func (d *DSP) SetSourcePitch(source uint8, hz float64) {
	d.pitches[source] = hz
}

// SourcePitch returns the cached pitch of a source.
func (d *DSP) SourcePitch(source uint8) (float64, bool) {
	p, ok := d.pitches[source]
	return p, ok
}

// detectVoicePitch returns the base pitch of whatever a voice is playing.
// Noise voices derive it from the noise clock; sample voices use the
// cached or freshly estimated pitch of their source.
func (d *DSP) detectVoicePitch(voice int) float64 {
	v := &d.voices[voice]
	if v.noiseOn {
		return noteC0 * math.Pow(2, float64(d.noiseClock)/12)
	}
	if p, ok := d.pitches[v.source]; ok {
		return p
	}
	p := d.estimateSourcePitch(v.source)
	d.pitches[v.source] = p
	return p
}

// decodeSource decodes a source from its start address, following the
// loop point until maxPitchDecodeSamples samples are produced. It returns
// the samples and the block counts of the intro and of one loop pass.
func (d *DSP) decodeSource(source uint8) (samples []float64, startBlocks, loopBlocks int) {
	addr := sourceDirAddress(d.mem, d.dir, source, 0)
	loopAddr := sourceDirAddress(d.mem, d.dir, source, 2)

	var dec BRRDecoder
	dec.Reset(0, 0)
	var block [brrBlockSize]byte
	loops := 0

	for len(samples) < maxPitchDecodeSamples {
		for i := range block {
			block[i] = d.mem.LoadByte(uint32(addr) + uint32(i))
		}
		dec.Read(block[:])
		addr += brrBlockSize

		switch loops {
		case 0:
			startBlocks++
		case 1:
			loopBlocks++
		}

		for !dec.IsFinished() {
			samples = append(samples, float64(dec.ReadNextSample()))
		}

		if dec.IsEnd {
			if !dec.IsLooping {
				break
			}
			addr = loopAddr
			loops++
		}
	}
	return samples, startBlocks, loopBlocks
}

func (d *DSP) estimateSourcePitch(source uint8) float64 {
	samples, startBlocks, loopBlocks := d.decodeSource(source)

	if d.estimator != nil {
		if f, _, ok := d.estimator.EstimatePitch(samples, SampleRate); ok && f > 0 {
			for f < minSourcePitch {
				f *= 2
			}
			return f
		}
	}

	periodBlocks := loopBlocks
	if periodBlocks == 0 {
		periodBlocks = startBlocks
	}
	if periodBlocks < 1 {
		periodBlocks = 1
	}
	for periodBlocks > maxFallbackBlocks {
		periodBlocks /= 2
	}
	log.Printf("Warning: no pitch found for source $%02X, assuming a period of %d BRR blocks", source, periodBlocks)
	return SampleRate / float64(periodBlocks*brrSamplesPerBlock)
}

// YIN is a time-domain fundamental frequency estimator based on the
// cumulative mean normalized difference function.
type YIN struct {
	// PowerThreshold is the minimum mean signal power to attempt
	// estimation.
	PowerThreshold float64
	// ClarityThreshold is the minimum clarity (1 - normalized
	// difference) a period must reach.
	ClarityThreshold float64
	// MaxWindow bounds the analysed tail of the signal in samples.
	MaxWindow int
}

// NewYIN returns an estimator with the stock thresholds.
func NewYIN() *YIN {
	return &YIN{
		PowerThreshold:   6.0,
		ClarityThreshold: 0.5,
		MaxWindow:        8192,
	}
}

// EstimatePitch implements PitchEstimator. The tail of long signals is
// analysed since looped sources settle into their loop there.
func (y *YIN) EstimatePitch(signal []float64, sampleRate int) (float64, float64, bool) {
	if y.MaxWindow > 0 && len(signal) > y.MaxWindow {
		signal = signal[len(signal)-y.MaxWindow:]
	}
	half := len(signal) / 2
	if half < 3 {
		return 0, 0, false
	}

	var power float64
	for _, s := range signal {
		power += s * s
	}
	if power/float64(len(signal)) < y.PowerThreshold {
		return 0, 0, false
	}

	diff := make([]float64, half)
	for tau := 1; tau < half; tau++ {
		var sum float64
		for i := 0; i < half; i++ {
			delta := signal[i] - signal[i+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	cmnd := make([]float64, half)
	cmnd[0] = 1
	var running float64
	for tau := 1; tau < half; tau++ {
		running += diff[tau]
		if running == 0 {
			cmnd[tau] = 1
			continue
		}
		cmnd[tau] = diff[tau] * float64(tau) / running
	}

	threshold := 1 - y.ClarityThreshold
	tau := -1
	for t := 2; t < half; t++ {
		if cmnd[t] < threshold {
			for t+1 < half && cmnd[t+1] < cmnd[t] {
				t++
			}
			tau = t
			break
		}
	}
	if tau < 0 {
		return 0, 0, false
	}

	period := parabolicMinimum(cmnd, tau)
	if period <= 0 {
		return 0, 0, false
	}
	return float64(sampleRate) / period, 1 - cmnd[tau], true
}

// parabolicMinimum refines the position of a local minimum at index t.
func parabolicMinimum(v []float64, t int) float64 {
	if t < 1 || t+1 >= len(v) {
		return float64(t)
	}
	s0, s1, s2 := v[t-1], v[t], v[t+1]
	den := s0 + s2 - 2*s1
	if den == 0 {
		return float64(t)
	}
	return float64(t) + (s0-s2)/(2*den)
}
