package emu

// ResamplingMode selects the kernel voices use between decoded samples.
type ResamplingMode int

const (
	// ResampleGaussian is the chip's 4-point Gaussian kernel.
	ResampleGaussian ResamplingMode = iota
	ResampleLinear
	ResampleCubic
)

// String returns the option name of the mode.
func (m ResamplingMode) String() string {
	switch m {
	case ResampleLinear:
		return "linear"
	case ResampleCubic:
		return "cubic"
	}
	return "gaussian"
}

// ParseResamplingMode maps an option name to a mode.
func ParseResamplingMode(s string) (ResamplingMode, bool) {
	switch s {
	case "gaussian", "":
		return ResampleGaussian, true
	case "linear":
		return ResampleLinear, true
	case "cubic":
		return ResampleCubic, true
	}
	return ResampleGaussian, false
}

// voiceContext is the shared chip state a voice reads while rendering.
// It is rebuilt by the DSP for every tick.
type voiceContext struct {
	mem        Memory
	dir        uint8
	noise      int32
	counter    int32
	ticks      uint64
	anySolo    bool
	resampling ResamplingMode
}

// sourceAddress reads a start (offset 0) or loop (offset 2) pointer from
// the sample directory.
func (c *voiceContext) sourceAddress(source uint8, offset uint32) uint16 {
	return sourceDirAddress(c.mem, c.dir, source, offset)
}

func sourceDirAddress(mem Memory, dir, source uint8, offset uint32) uint16 {
	entry := uint32(dir)<<8 + uint32(source)<<2 + offset
	lo := uint16(mem.LoadByte(entry))
	hi := uint16(mem.LoadByte(entry + 1))
	return hi<<8 | lo
}

// voiceOutput is one voice's contribution to a tick.
type voiceOutput struct {
	left  int32
	right int32
	// Post-envelope sample handed to the next voice for pitch modulation.
	last int32
}

// voice is one of the eight sample playback channels.
type voice struct {
	volLeft   uint8
	volRight  uint8
	pitchLow  uint8
	pitchHigh uint8
	source    uint8
	env       Envelope

	noiseOn    bool
	echoOn     bool
	pitchModOn bool

	muted bool
	solo  bool

	decoder   BRRDecoder
	blockAddr uint16
	// Four most recent decoded samples, oldest first.
	hist [4]int32
	// Fractional position between hist[1] and hist[2], 12-bit.
	samplePos int32

	endx    bool
	edge    bool
	konTick uint64
	outx    uint8

	lastLeft  int32
	lastRight int32
}

// pitch returns the 14-bit pitch register.
func (v *voice) pitch() int32 {
	return int32(v.pitchHigh&0x3F)<<8 | int32(v.pitchLow)
}

// keyOn restarts playback from the source's start address.
func (v *voice) keyOn(ctx *voiceContext) {
	v.blockAddr = ctx.sourceAddress(v.source, 0)
	v.decoder.Reset(0, 0)
	v.readBlock(ctx.mem)
	v.hist = [4]int32{}
	v.samplePos = 0
	v.env.KeyOn()
	v.endx = false
	v.edge = true
	v.konTick = ctx.ticks
}

// keyOff releases the envelope. Decoding continues.
func (v *voice) keyOff() {
	v.env.KeyOff()
}

func (v *voice) clearEndx() {
	v.endx = false
}

func (v *voice) endxBit() bool {
	return v.endx
}

// takeEdge returns and clears the onset flag.
func (v *voice) takeEdge() bool {
	e := v.edge
	v.edge = false
	return e
}

func (v *voice) readBlock(mem Memory) {
	var block [brrBlockSize]byte
	for i := range block {
		block[i] = mem.LoadByte(uint32(v.blockAddr) + uint32(i))
	}
	v.decoder.Read(block[:])
}

// nextSample shifts the next decoded sample into the interpolation
// window, fetching a new block when the current one is exhausted.
func (v *voice) nextSample(ctx *voiceContext) {
	if v.decoder.IsFinished() {
		if v.decoder.IsEnd {
			v.endx = true
			if !v.decoder.IsLooping {
				v.env.silence()
			}
			v.blockAddr = ctx.sourceAddress(v.source, 2)
		} else {
			v.blockAddr += brrBlockSize
		}
		v.readBlock(ctx.mem)
	}
	v.hist[0] = v.hist[1]
	v.hist[1] = v.hist[2]
	v.hist[2] = v.hist[3]
	v.hist[3] = int32(v.decoder.ReadNextSample())
}

// renderSample produces this voice's output for one tick and advances
// its decode, envelope and resampling state. prevOut is the previous
// voice's post-envelope sample.
func (v *voice) renderSample(ctx *voiceContext, prevOut int32) voiceOutput {
	pitch := v.modulatedPitch(prevOut)

	var s int32
	if v.noiseOn {
		s = int32(int16(ctx.noise * 2))
	} else {
		s = v.interpolate(ctx.resampling)
	}
	s = ((s * v.env.level) >> 11) &^ 1
	v.outx = uint8(s >> 8)

	v.env.Tick(ctx.counter)

	v.samplePos += pitch
	for v.samplePos >= 0x1000 {
		v.samplePos -= 0x1000
		v.nextSample(ctx)
	}

	left := multiplyVolume(s, v.volLeft)
	right := multiplyVolume(s, v.volRight)
	if v.muted || (ctx.anySolo && !v.solo) {
		left, right = 0, 0
	}
	v.lastLeft = left
	v.lastRight = right

	// Modulation reads the enveloped sample (OUTX), not the raw decode.
	return voiceOutput{left: left, right: right, last: s}
}

// modulatedPitch returns the pitch step for this tick, scaled by the
// previous voice's output when pitch modulation is on.
func (v *voice) modulatedPitch(prevOut int32) int32 {
	pitch := v.pitch()
	if !v.pitchModOn {
		return pitch
	}
	// The adjustment is within +-pitch, so the result can reach 15 bits.
	// The interpolation position register saturates at 0x7FFF.
	pitch += ((prevOut >> 5) * pitch) >> 10
	return clampInt32(pitch, 0, 0x7FFF)
}

// interpolate evaluates the resampling kernel at the current position.
func (v *voice) interpolate(mode ResamplingMode) int32 {
	switch mode {
	case ResampleLinear:
		return v.interpolateLinear()
	case ResampleCubic:
		return v.interpolateCubic()
	}
	return v.interpolateGaussian()
}

func (v *voice) interpolateGaussian() int32 {
	offset := (v.samplePos >> 3) & 0x1FE
	fwd := gaussTable[offset:]
	rev := gaussTable[510-offset:]

	out := (fwd[0] * v.hist[0]) >> 11
	out += (fwd[1] * v.hist[1]) >> 11
	out += (rev[1] * v.hist[2]) >> 11
	out = int32(int16(out))
	out += (rev[0] * v.hist[3]) >> 11
	return clamp16(out) &^ 1
}

func (v *voice) interpolateLinear() int32 {
	a := v.hist[1]
	b := v.hist[2]
	out := a + ((b-a)*(v.samplePos&0xFFF))>>12
	return clamp16(out) &^ 1
}

// interpolateCubic is a Catmull-Rom spline through the window.
func (v *voice) interpolateCubic() int32 {
	t := float64(v.samplePos&0xFFF) / 0x1000
	p0 := float64(v.hist[0])
	p1 := float64(v.hist[1])
	p2 := float64(v.hist[2])
	p3 := float64(v.hist[3])

	a := -0.5*p0 + 1.5*p1 - 1.5*p2 + 0.5*p3
	b := p0 - 2.5*p1 + 2*p2 - 0.5*p3
	c := -0.5*p0 + 0.5*p2
	out := ((a*t+b)*t+c)*t + p1
	if out > 32767 {
		out = 32767
	} else if out < -32768 {
		out = -32768
	}
	return int32(out) &^ 1
}
