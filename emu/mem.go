package emu

const apuRAMSize = 0x10000 // 64KB APU RAM

// DSP port addresses in the SPC700 address space.
const (
	dspAddrPort = 0x00F2
	dspDataPort = 0x00F3
)

// APUBus is the sound module's 64KB RAM with the DSP register port
// mapped at $F2/$F3.
//
// Address map (SPC700 view):
//
//	0x0000-0xFFFF  RAM
//	0x00F2         DSP register address latch
//	0x00F3         DSP register data
//
// The DSP itself sees plain RAM through LoadByte/StoreByte.
type APUBus struct {
	ram     [apuRAMSize]byte
	dsp     *DSP
	dspAddr uint8
}

// NewAPUBus creates a bus with zeroed RAM and no DSP attached.
func NewAPUBus() *APUBus {
	return &APUBus{}
}

// SetDSP attaches the DSP behind the $F2/$F3 port. Called after DSP
// creation due to the circular construction dependency.
func (b *APUBus) SetDSP(d *DSP) {
	b.dsp = d
}

// LoadByte implements Memory. Addresses wrap at 64KB.
func (b *APUBus) LoadByte(addr uint32) uint8 {
	return b.ram[addr&0xFFFF]
}

// StoreByte implements Memory. Addresses wrap at 64KB.
func (b *APUBus) StoreByte(addr uint32, value uint8) {
	b.ram[addr&0xFFFF] = value
}

// Read performs a CPU read, routing the DSP port to the register file.
func (b *APUBus) Read(addr uint16) uint8 {
	switch addr {
	case dspAddrPort:
		return b.dspAddr
	case dspDataPort:
		if b.dsp != nil {
			return b.dsp.GetRegister(b.dspAddr)
		}
	}
	return b.ram[addr]
}

// Write performs a CPU write. Writes to $F3 with the latch at $80 or
// above are dropped by the DSP.
func (b *APUBus) Write(addr uint16, value uint8) {
	switch addr {
	case dspAddrPort:
		b.dspAddr = value
		return
	case dspDataPort:
		if b.dsp != nil {
			b.dsp.SetRegister(b.dspAddr, value)
		}
		return
	}
	b.ram[addr] = value
}

// LoadRAM copies a full RAM image.
func (b *APUBus) LoadRAM(data []byte) {
	copy(b.ram[:], data)
}

// LoadRAMAt copies data into RAM starting at addr, wrapping at 64KB.
func (b *APUBus) LoadRAMAt(addr uint16, data []byte) {
	for i, v := range data {
		b.ram[addr+uint16(i)] = v
	}
}

// RAM returns a copy of APU RAM.
func (b *APUBus) RAM() []byte {
	out := make([]byte, apuRAMSize)
	copy(out, b.ram[:])
	return out
}
