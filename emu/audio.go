package emu

import "github.com/arl/blip"

// hostSampleRate is the output rate handed to frontends.
const hostSampleRate = 48000

// resampler converts the DSP's 32 kHz stereo output to hostSampleRate
// with band-limited step synthesis, one blip buffer per channel.
type resampler struct {
	left  *blip.Buffer
	right *blip.Buffer

	prevLeft  int32
	prevRight int32

	tmpLeft  []int16
	tmpRight []int16
}

func newResampler() *resampler {
	r := &resampler{
		tmpLeft:  make([]int16, 512),
		tmpRight: make([]int16, 512),
	}
	r.reset()
	return r
}

func newBlipBuffer() *blip.Buffer {
	b := blip.NewBuffer(hostSampleRate / 10)
	b.SetRates(SampleRate, hostSampleRate)
	return b
}

// process resamples interleaved native frames and appends the
// interleaved host rate result to out.
func (r *resampler) process(native []int16, out []int16) []int16 {
	frames := len(native) / 2
	if frames == 0 {
		return out
	}

	for i := 0; i < frames; i++ {
		l := int32(native[i*2])
		rt := int32(native[i*2+1])
		if d := l - r.prevLeft; d != 0 {
			r.left.AddDelta(uint64(i), d)
			r.prevLeft = l
		}
		if d := rt - r.prevRight; d != 0 {
			r.right.AddDelta(uint64(i), d)
			r.prevRight = rt
		}
	}
	r.left.EndFrame(frames)
	r.right.EndFrame(frames)

	for r.left.SamplesAvailable() > 0 {
		nl := r.left.ReadSamples(r.tmpLeft, len(r.tmpLeft), blip.Mono)
		nr := r.right.ReadSamples(r.tmpRight, nl, blip.Mono)
		if nr < nl {
			nl = nr
		}
		if nl == 0 {
			break
		}
		for i := 0; i < nl; i++ {
			out = append(out, r.tmpLeft[i], r.tmpRight[i])
		}
	}
	return out
}

// reset discards buffered output and the step baselines.
func (r *resampler) reset() {
	r.left = newBlipBuffer()
	r.right = newBlipBuffer()
	r.prevLeft = 0
	r.prevRight = 0
}

// GetAudioSamples returns the last frame's audio as 16-bit stereo PCM at
// 48 kHz.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}

// GetNativeSamples returns the last frame's audio as 16-bit stereo PCM at
// the DSP's 32 kHz rate.
func (e *Emulator) GetNativeSamples() []int16 {
	return e.nativeBuffer
}
