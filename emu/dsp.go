package emu

// S-DSP timing. The chip produces one stereo sample every 64 master
// clock cycles.
const (
	NumVoices       = 8
	SampleRate      = 32000
	CyclesPerSample = 64
	MasterClockHz   = SampleRate * CyclesPerSample
)

// Memory is the 64 KiB address space the DSP reads samples from and
// uses for the echo delay line. Implementations wrap addresses to 16
// bits.
type Memory interface {
	LoadByte(addr uint32) uint8
	StoreByte(addr uint32, value uint8)
}

// DSP is the S-DSP: eight voices, the echo unit and the noise generator.
// It is driven by CyclesCallback and synthesizes lazily on Flush or on
// the next register access.
type DSP struct {
	mem    Memory
	voices [NumVoices]voice

	leftFilter  Filter
	rightFilter Filter

	// Register file as last written.
	regs [128]uint8

	volLeft      uint8
	volRight     uint8
	echoVolLeft  uint8
	echoVolRight uint8
	echoFeedback uint8
	noiseClock   uint8
	echoWrite    bool
	muteAll      bool
	softReset    bool
	dir          uint8
	echoStart    uint16
	echoDelay    uint8
	kon          uint8
	kof          uint8

	noise      int32
	counter    int32
	ticks      uint64
	echoPos    int32
	echoLength int32

	cycles   int
	flushing bool

	resampling ResamplingMode
	output     *RingBuffer

	pitches   map[uint8]float64
	estimator PitchEstimator
	receiver  StateReceiver
	tuning    VisualTuning
}

// NewDSP returns a DSP in its power-on state reading from mem.
func NewDSP(mem Memory) *DSP {
	d := &DSP{
		mem:       mem,
		output:    NewRingBuffer(outputBufferFrames),
		pitches:   make(map[uint8]float64),
		estimator: NewYIN(),
		tuning:    DefaultVisualTuning(),
	}
	d.Reset()
	return d
}

// Reset restores the power-on register state. The pitch cache and
// attached collaborators are kept.
func (d *DSP) Reset() {
	d.voices = [NumVoices]voice{}
	d.leftFilter = Filter{}
	d.rightFilter = Filter{}
	d.regs = [128]uint8{}
	d.noise = 0x4000
	d.counter = 0
	d.ticks = 0
	d.echoPos = 0
	d.echoLength = 0
	d.cycles = 0
	d.kon = 0
	d.kof = 0
	d.output.Clear()

	d.flushing = true
	d.SetRegister(regMVolL, 0x89)
	d.SetRegister(regMVolR, 0x9C)
	d.SetRegister(regEVolL, 0x9F)
	d.SetRegister(regEVolR, 0x9C)
	d.SetRegister(regFLG, 0x20)
	d.SetRegister(regESA, 0x60)
	d.SetRegister(regEDL, 0x0E)
	for i, c := range defaultFIR {
		d.SetRegister(uint8(i)<<4|regFIR, c)
	}
	d.flushing = false
}

// Output returns the buffer rendered stereo pairs are written to.
func (d *DSP) Output() *RingBuffer {
	return d.output
}

// SetResamplingMode selects the interpolation kernel for all voices.
func (d *DSP) SetResamplingMode(mode ResamplingMode) {
	d.resampling = mode
}

// ResamplingMode returns the active interpolation kernel.
func (d *DSP) ResamplingMode() ResamplingMode {
	return d.resampling
}

// SetStateReceiver attaches a voice state observer. nil detaches it.
func (d *DSP) SetStateReceiver(r StateReceiver) {
	d.receiver = r
}

// SetVisualTuning replaces the volume and balance estimate constants.
func (d *DSP) SetVisualTuning(t VisualTuning) {
	d.tuning = t
}

// SetVoiceMuted silences a voice's audible output. It keeps running.
func (d *DSP) SetVoiceMuted(voice int, muted bool) {
	if voice >= 0 && voice < NumVoices {
		d.voices[voice].muted = muted
	}
}

// SetVoiceSolo marks a voice soloed. While any voice is soloed the rest
// are silent.
func (d *DSP) SetVoiceSolo(voice int, solo bool) {
	if voice >= 0 && voice < NumVoices {
		d.voices[voice].solo = solo
	}
}

// VoiceMuted reports whether a voice is muted.
func (d *DSP) VoiceMuted(voice int) bool {
	return voice >= 0 && voice < NumVoices && d.voices[voice].muted
}

// VoiceSolo reports whether a voice is soloed.
func (d *DSP) VoiceSolo(voice int) bool {
	return voice >= 0 && voice < NumVoices && d.voices[voice].solo
}

// EnvelopeState returns a voice's envelope phase.
func (d *DSP) EnvelopeState(voice int) EnvelopeState {
	return d.voices[voice].env.State()
}

// Ticks returns the number of samples rendered since reset.
func (d *DSP) Ticks() uint64 {
	return d.ticks
}

// CyclesCallback adds elapsed master clock cycles. Synthesis happens on
// the next Flush or register access.
func (d *DSP) CyclesCallback(cycles int) {
	d.cycles += cycles
}

// Flush renders one sample for every 64 accumulated cycles.
func (d *DSP) Flush() {
	d.flushing = true
	for d.cycles >= CyclesPerSample {
		d.tick()
		d.cycles -= CyclesPerSample
	}
	d.flushing = false
}

func (d *DSP) context() voiceContext {
	ctx := voiceContext{
		mem:        d.mem,
		dir:        d.dir,
		noise:      d.noise,
		counter:    d.counter,
		ticks:      d.ticks,
		resampling: d.resampling,
	}
	for i := range d.voices {
		if d.voices[i].solo {
			ctx.anySolo = true
			break
		}
	}
	return ctx
}

// tick renders one output sample.
func (d *DSP) tick() {
	if counterFires(d.counter, int(d.noiseClock)) {
		feedback := (d.noise << 13) ^ (d.noise << 14)
		d.noise = (feedback & 0x4000) ^ (d.noise >> 1)
	}

	ctx := d.context()

	var left, right, echoLeft, echoRight, last int32
	for i := range d.voices {
		v := &d.voices[i]
		if d.softReset {
			v.env.silence()
		}
		out := v.renderSample(&ctx, last)

		left = clamp16(cast17(left + out.left))
		right = clamp16(cast17(right + out.right))
		if v.echoOn {
			echoLeft = clamp16(cast17(echoLeft + out.left))
			echoRight = clamp16(cast17(echoRight + out.right))
		}
		last = int32(int16(out.last))
	}

	left = multiplyVolume(left, d.volLeft)
	right = multiplyVolume(right, d.volRight)

	addr := uint32(d.echoStart + uint16(d.echoPos))
	echoInLeft := d.readEcho(addr)
	echoInRight := d.readEcho(addr + 2)
	echoInLeft = d.leftFilter.Next(echoInLeft)
	echoInRight = d.rightFilter.Next(echoInRight)

	outLeft := clamp16(cast17(left + multiplyVolume(echoInLeft, d.echoVolLeft)))
	outRight := clamp16(cast17(right + multiplyVolume(echoInRight, d.echoVolRight)))
	if d.muteAll {
		outLeft, outRight = 0, 0
	}
	d.output.WriteSample(int16(outLeft), int16(outRight))

	if d.echoWrite {
		fb := int32(int8(d.echoFeedback))
		echoLeft = clamp16(cast17(echoLeft+int32(int16((echoInLeft*fb)>>7)))) &^ 1
		echoRight = clamp16(cast17(echoRight+int32(int16((echoInRight*fb)>>7)))) &^ 1
		d.writeEcho(addr, echoLeft)
		d.writeEcho(addr+2, echoRight)
	}

	// The delay length is latched only at the start of the buffer.
	if d.echoPos == 0 {
		d.echoLength = int32(d.echoDelay&0x0F) * 0x800
	}
	d.echoPos += 4
	if d.echoPos >= d.echoLength {
		d.echoPos = 0
	}

	d.counter = (d.counter + 1) % counterRange
	d.ticks++

	if d.receiver != nil {
		d.emitVoiceStates()
	}
}

func (d *DSP) readEcho(addr uint32) int32 {
	lo := uint16(d.mem.LoadByte(addr))
	hi := uint16(d.mem.LoadByte(addr + 1))
	return int32(int16(hi<<8|lo)) &^ 1
}

func (d *DSP) writeEcho(addr uint32, s int32) {
	d.mem.StoreByte(addr, uint8(s))
	d.mem.StoreByte(addr+1, uint8(s>>8))
}

// emitVoiceStates reports every voice to the attached receiver.
func (d *DSP) emitVoiceStates() {
	for i := range d.voices {
		sourcePitch := d.detectVoicePitch(i)
		v := &d.voices[i]

		var volume uint8
		if !v.muted {
			volume = d.tuning.volume(v.volLeft, v.volRight, v.env.level)
		}
		frequency := sourcePitch
		if !v.noiseOn {
			frequency = sourcePitch * float64(v.pitch()) / 0x1000
		}

		d.receiver.ReceiveVoiceState(i, VoiceState{
			Volume:    volume,
			Amplitude: amplitude(v.volLeft, v.volRight, v.lastLeft, v.lastRight),
			Frequency: frequency,
			Timbre:    v.source,
			Balance:   d.tuning.balance(v.volLeft, v.volRight),
			Edge:      v.takeEdge(),
			KeyOnTick: v.konTick,
		})
	}
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clamp16 saturates v to the signed 16-bit range.
func clamp16(v int32) int32 {
	return clampInt32(v, -32768, 32767)
}

// cast17 wraps v to a signed 17-bit value.
func cast17(v int32) int32 {
	return (v << 15) >> 15
}

// multiplyVolume scales s by a signed 8-bit volume register.
func multiplyVolume(s int32, vol uint8) int32 {
	return (s * int32(int8(vol))) >> 7
}
