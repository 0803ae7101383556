package emu

import "testing"

func TestAPUBus_Wraps(t *testing.T) {
	b := NewAPUBus()
	b.StoreByte(0x10005, 0x42)

	if got := b.LoadByte(0x0005); got != 0x42 {
		t.Errorf("LoadByte($0005) = $%02X, want $42", got)
	}

	b.LoadRAMAt(0xFFFF, []byte{1, 2})
	if b.LoadByte(0xFFFF) != 1 || b.LoadByte(0x0000) != 2 {
		t.Error("LoadRAMAt should wrap at 64KB")
	}
}

func TestAPUBus_DSPPort(t *testing.T) {
	b := NewAPUBus()
	d := NewDSP(b)
	b.SetDSP(d)

	b.Write(dspAddrPort, regDIR)
	b.Write(dspDataPort, 0x12)
	if got := d.GetRegister(regDIR); got != 0x12 {
		t.Errorf("DIR = $%02X, want $12", got)
	}
	if got := b.Read(dspDataPort); got != 0x12 {
		t.Errorf("read through port = $%02X, want $12", got)
	}
	if got := b.Read(dspAddrPort); got != regDIR {
		t.Errorf("address latch = $%02X, want $%02X", got, regDIR)
	}
	if b.LoadByte(dspDataPort) != 0 {
		t.Error("port writes should not reach RAM")
	}

	b.Write(dspAddrPort, 0x80|regDIR)
	b.Write(dspDataPort, 0x34)
	if got := d.GetRegister(regDIR); got != 0x12 {
		t.Errorf("write with latch >= $80 reached DIR: $%02X", got)
	}
	if got := b.Read(dspDataPort); got != 0x12 {
		t.Errorf("read with latch >= $80 = $%02X, want mirror $12", got)
	}
}

func TestAPUBus_RAMCopy(t *testing.T) {
	b := NewAPUBus()
	b.Write(0x1000, 0x55)

	ram := b.RAM()
	ram[0x1000] = 0
	if b.Read(0x1000) != 0x55 {
		t.Error("RAM() should return a copy")
	}
}
