package emu

import (
	"image/color"

	emucore "github.com/user-none/eblitui/api"
)

// Core identity.
const (
	Name    = "emspc"
	Version = "0.1.0"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

// Flat address boundaries for ReadMemory.
const (
	apuRAMStart  = 0x00000
	apuRAMEnd    = 0x0FFFF
	dspRegsStart = 0x10000
	dspRegsEnd   = 0x1007F
)

// muteButtonBase is the input bit of the voice 1 mute toggle. Voices
// 1-8 use bits 4-11.
const muteButtonBase = 4

// iplShadowAddr is where the IPL ROM overlays RAM while enabled.
const iplShadowAddr = 0xFFC0

// controlReg is the SPC700 control register; bit 7 maps the IPL ROM.
const controlReg = 0x00F1

// Emulator plays an SPC snapshot: the APU bus, the DSP and a sound CPU,
// driven one host frame at a time.
type Emulator struct {
	spc *SPC
	bus *APUBus
	dsp *DSP
	cpu CPU

	region Region
	timing RegionTiming

	// CPU cycles owed from previous frames, in 1/FPS units.
	cycleAccum int
	frame      uint64

	prevButtons uint32

	cubic  bool
	linear bool

	resampler    *resampler
	nativeBuffer []int16
	audioBuffer  []int16

	visualizer *Visualizer
	receivers  StateReceivers
}

// NewEmulator parses an SPC file and primes the sound module from it.
func NewEmulator(data []byte, region Region) (*Emulator, error) {
	spc, err := ParseSPC(data)
	if err != nil {
		return nil, err
	}

	bus := NewAPUBus()
	dsp := NewDSP(bus)
	bus.SetDSP(dsp)

	e := &Emulator{
		spc:          spc,
		bus:          bus,
		dsp:          dsp,
		cpu:          NewIdleCPU(spc.CPU),
		resampler:    newResampler(),
		nativeBuffer: make([]int16, 0, 2*SampleRate/50+2),
		audioBuffer:  make([]int16, 0, 2048),
		visualizer:   NewVisualizer(),
	}
	e.receivers = StateReceivers{e.visualizer}
	dsp.SetStateReceiver(e.receivers)
	e.SetRegion(region)
	e.load()
	return e, nil
}

// load restores the snapshot into RAM, the DSP and the CPU.
func (e *Emulator) load() {
	e.bus.LoadRAM(e.spc.RAM[:])
	if e.spc.HasExtra && e.spc.RAM[controlReg]&0x80 != 0 {
		e.bus.LoadRAMAt(iplShadowAddr, e.spc.ExtraRAM[:])
	}
	e.bus.Write(dspAddrPort, e.spc.RAM[dspAddrPort])

	e.dsp.Reset()
	e.dsp.LoadState(e.spc.DSP)

	e.cpu = NewIdleCPU(e.spc.CPU)
	e.cycleAccum = 0
	e.frame = 0
	e.resampler.reset()
	e.visualizer.Reset()
}

// Reset restarts playback from the snapshot.
func (e *Emulator) Reset() {
	e.load()
}

// RunFrame executes one frame of emulation.
func (e *Emulator) RunFrame() {
	e.audioBuffer = e.audioBuffer[:0]
	e.nativeBuffer = e.nativeBuffer[:0]

	e.cycleAccum += e.timing.CPUClockHz
	budget := e.cycleAccum / e.timing.FPS
	e.cycleAccum %= e.timing.FPS

	for budget > 0 {
		consumed := e.cpu.StepCycles(budget)
		if consumed == 0 {
			break // CPU stopped
		}
		e.dsp.CyclesCallback(consumed * masterCyclesPerCPUCycle)
		budget -= consumed
	}
	// A stopped CPU leaves the DSP running on its own.
	if budget > 0 {
		e.dsp.CyclesCallback(budget * masterCyclesPerCPUCycle)
	}

	e.dsp.Flush()
	e.nativeBuffer = e.dsp.Output().Drain(e.nativeBuffer)
	e.audioBuffer = e.resampler.process(e.nativeBuffer, e.audioBuffer)

	e.visualizer.Render()
	e.frame++
}

// SetInput toggles voice mutes on the rising edge of buttons 4-11.
// Only player 1 is read.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player != 0 {
		return
	}
	pressed := buttons &^ e.prevButtons
	e.prevButtons = buttons
	for i := 0; i < NumVoices; i++ {
		if pressed&(1<<(muteButtonBase+i)) != 0 {
			e.dsp.SetVoiceMuted(i, !e.dsp.VoiceMuted(i))
		}
	}
}

// SetVoiceMuted mutes or unmutes a voice.
func (e *Emulator) SetVoiceMuted(voice int, muted bool) {
	e.dsp.SetVoiceMuted(voice, muted)
}

// VoiceMuted reports whether a voice is muted.
func (e *Emulator) VoiceMuted(voice int) bool {
	return e.dsp.VoiceMuted(voice)
}

// SetVoiceSolo solos or unsolos a voice.
func (e *Emulator) SetVoiceSolo(voice int, solo bool) {
	e.dsp.SetVoiceSolo(voice, solo)
}

// VoiceSolo reports whether a voice is soloed.
func (e *Emulator) VoiceSolo(voice int) bool {
	return e.dsp.VoiceSolo(voice)
}

// SetSourcePitch seeds the pitch of a sample source in Hz.
func (e *Emulator) SetSourcePitch(source uint8, hz float64) {
	e.dsp.SetSourcePitch(source, hz)
}

// SetSourceColor sets the visualizer color of a sample source.
func (e *Emulator) SetSourceColor(source uint8, c color.NRGBA) {
	e.visualizer.SetSourceColor(source, c)
}

// SetResamplingMode selects the voice interpolation kernel.
func (e *Emulator) SetResamplingMode(mode ResamplingMode) {
	e.dsp.SetResamplingMode(mode)
}

// AddStateReceiver attaches another voice state observer alongside the
// visualizer.
func (e *Emulator) AddStateReceiver(r StateReceiver) {
	e.receivers = append(e.receivers, r)
	e.dsp.SetStateReceiver(e.receivers)
}

// DSP returns the sound chip.
func (e *Emulator) DSP() *DSP {
	return e.dsp
}

// SPC returns the loaded snapshot.
func (e *Emulator) SPC() *SPC {
	return e.spc
}

// Frame returns the number of frames run since the snapshot was loaded.
func (e *Emulator) Frame() uint64 {
	return e.frame
}

// GetFramebuffer returns raw RGBA pixel data for current frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.visualizer.Image().Pix
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return e.visualizer.Image().Stride
}

// GetActiveHeight returns the current active display height.
func (e *Emulator) GetActiveHeight() int {
	return ScreenHeight
}

// GetRegion returns the emulator's region setting.
func (e *Emulator) GetRegion() Region {
	return e.region
}

// GetTiming returns FPS and scanline count for the current region.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.timing.FPS,
		Scanlines: e.timing.Scanlines,
	}
}

// SetRegion updates the emulator's frame pacing.
func (e *Emulator) SetRegion(region Region) {
	e.region = region
	e.timing = GetTimingForRegion(region)
	e.cycleAccum = 0
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "cubic_interpolation":
		e.cubic = value == "true"
	case "linear_interpolation":
		e.linear = value == "true"
	case "piano_roll":
		e.visualizer.SetPianoRoll(value == "true")
		return
	default:
		return
	}

	switch {
	case e.cubic:
		e.dsp.SetResamplingMode(ResampleCubic)
	case e.linear:
		e.dsp.SetResamplingMode(ResampleLinear)
	default:
		e.dsp.SetResamplingMode(ResampleGaussian)
	}
}

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. APU RAM is followed by the DSP register file.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		var b byte
		switch {
		case cur <= apuRAMEnd:
			b = e.bus.LoadByte(cur - apuRAMStart)
		case cur >= dspRegsStart && cur <= dspRegsEnd:
			b = e.dsp.GetRegister(uint8(cur - dspRegsStart))
		default:
			return count
		}
		buf[i] = b
		count++
	}
	return count
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: apuRAMSize},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		return e.bus.RAM()
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		e.bus.LoadRAM(data)
	}
}
