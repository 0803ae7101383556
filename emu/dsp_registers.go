package emu

// Per-voice register offsets within each 16-byte voice block.
const (
	regVolL   = 0x00
	regVolR   = 0x01
	regPitchL = 0x02
	regPitchH = 0x03
	regSrcn   = 0x04
	regADSR0  = 0x05
	regADSR1  = 0x06
	regGain   = 0x07
	regEnvx   = 0x08
	regOutx   = 0x09
	regFIR    = 0x0F
)

// Global registers.
const (
	regMVolL = 0x0C
	regMVolR = 0x1C
	regEVolL = 0x2C
	regEVolR = 0x3C
	regKON   = 0x4C
	regKOF   = 0x5C
	regFLG   = 0x6C
	regENDX  = 0x7C
	regEFB   = 0x0D
	regPMON  = 0x2D
	regNON   = 0x3D
	regEON   = 0x4D
	regDIR   = 0x5D
	regESA   = 0x6D
	regEDL   = 0x7D
)

// FLG bits.
const (
	flgSoftReset    = 0x80
	flgMute         = 0x40
	flgEchoDisable  = 0x20
	flgNoiseClkMask = 0x1F
)

// NumRegisters is the size of the DSP register file.
const NumRegisters = 128

// SetRegister writes a DSP register. Addresses with bit 7 set are
// ignored. Pending cycles are rendered first so the write takes effect at
// the current point in time.
func (d *DSP) SetRegister(addr, value uint8) {
	if addr&0x80 != 0 {
		return
	}
	if !d.flushing {
		d.Flush()
	}
	d.regs[addr] = value

	v := &d.voices[addr>>4]
	switch addr & 0x0F {
	case regVolL:
		v.volLeft = value
	case regVolR:
		v.volRight = value
	case regPitchL:
		v.pitchLow = value
	case regPitchH:
		v.pitchHigh = value
	case regSrcn:
		v.source = value
		v.edge = true
	case regADSR0:
		v.env.ADSR0 = value
	case regADSR1:
		v.env.ADSR1 = value
	case regGain:
		v.env.Gain = value
	case regFIR:
		d.leftFilter.Coefficients[addr>>4] = value
		d.rightFilter.Coefficients[addr>>4] = value
	case 0x0C, 0x0D:
		d.setGlobal(addr, value)
	}
}

func (d *DSP) setGlobal(addr, value uint8) {
	switch addr {
	case regMVolL:
		d.volLeft = value
	case regMVolR:
		d.volRight = value
	case regEVolL:
		d.echoVolLeft = value
	case regEVolR:
		d.echoVolRight = value
	case regKON:
		d.setKON(value)
	case regKOF:
		d.setKOF(value)
	case regFLG:
		d.softReset = value&flgSoftReset != 0
		d.muteAll = value&flgMute != 0
		d.echoWrite = value&flgEchoDisable == 0
		d.noiseClock = value & flgNoiseClkMask
	case regENDX:
		for i := range d.voices {
			d.voices[i].clearEndx()
		}
	case regEFB:
		d.echoFeedback = value
	case regPMON:
		// Voice 0 has no predecessor to modulate from.
		for i := 1; i < NumVoices; i++ {
			d.voices[i].pitchModOn = value&(1<<i) != 0
		}
	case regNON:
		for i := range d.voices {
			d.voices[i].noiseOn = value&(1<<i) != 0
		}
	case regEON:
		for i := range d.voices {
			d.voices[i].echoOn = value&(1<<i) != 0
		}
	case regDIR:
		d.dir = value
	case regESA:
		d.echoStart = uint16(value) << 8
	case regEDL:
		d.echoDelay = value & 0x0F
	}
}

// setKON keys on every voice whose bit is set.
func (d *DSP) setKON(mask uint8) {
	d.kon = mask
	ctx := d.context()
	for i := range d.voices {
		if mask&(1<<i) != 0 {
			d.voices[i].keyOn(&ctx)
		}
	}
}

// setKOF releases every voice whose bit is set.
func (d *DSP) setKOF(mask uint8) {
	d.kof = mask
	for i := range d.voices {
		if mask&(1<<i) != 0 {
			d.voices[i].keyOff()
		}
	}
}

// GetRegister reads a DSP register. Bit 7 of the address is ignored.
// ENVX, OUTX and ENDX reflect live voice state; every other address
// returns the last value written.
func (d *DSP) GetRegister(addr uint8) uint8 {
	if !d.flushing {
		d.Flush()
	}
	addr &= 0x7F

	v := &d.voices[addr>>4]
	switch addr & 0x0F {
	case regEnvx:
		return uint8(v.env.level >> 4)
	case regOutx:
		return v.outx
	}

	switch addr {
	case regKON:
		return d.kon
	case regKOF:
		return d.kof
	case regENDX:
		var endx uint8
		for i := range d.voices {
			if d.voices[i].endxBit() {
				endx |= 1 << i
			}
		}
		return endx
	}
	return d.regs[addr]
}

// LoadState primes the chip from a captured register file. Every register
// except KON and KOF is written as-is, then KON is written last so the
// captured voices key on.
func (d *DSP) LoadState(regs [NumRegisters]uint8) {
	for i, value := range regs {
		if i == regKON || i == regKOF {
			continue
		}
		d.SetRegister(uint8(i), value)
	}
	d.regs[regKOF] = regs[regKOF]
	d.kof = regs[regKOF]
	d.SetRegister(regKON, regs[regKON])
}

// Registers returns a copy of the register file with live ENVX, OUTX and
// ENDX values.
func (d *DSP) Registers() [NumRegisters]uint8 {
	var out [NumRegisters]uint8
	for i := range out {
		out[i] = d.GetRegister(uint8(i))
	}
	return out
}

// EchoPosition returns the echo cursor and the latched delay length in
// bytes.
func (d *DSP) EchoPosition() (pos, length int) {
	return int(d.echoPos), int(d.echoLength)
}
