package emu

import (
	"encoding/binary"
	"errors"
)

// SPC700 clock. The sound CPU runs at half the DSP master clock.
const (
	CPUClockHz              = MasterClockHz / 2
	masterCyclesPerCPUCycle = MasterClockHz / CPUClockHz
)

// CPUSerializeSize is the save state size of the sound CPU:
// PC(2) + A(1) + X(1) + Y(1) + PSW(1) + SP(1) + cycles(8) = 15
const CPUSerializeSize = 15

// CPU is the sound CPU driving the DSP. StepCycles executes instructions
// for up to budget CPU cycles and returns the cycles consumed; 0 means
// the CPU is stopped.
type CPU interface {
	StepCycles(budget int) int
	Reset()
	Serialize(buf []byte) error
	Deserialize(buf []byte) error
}

// CPURegisters is the SPC700 register set captured in a snapshot.
type CPURegisters struct {
	PC  uint16
	A   uint8
	X   uint8
	Y   uint8
	PSW uint8
	SP  uint8
}

// IdleCPU holds the captured SPC700 registers but executes nothing. The
// DSP keeps playing whatever the snapshot keyed on.
type IdleCPU struct {
	Regs   CPURegisters
	cycles uint64
}

// NewIdleCPU creates an idle CPU with the given register state.
func NewIdleCPU(regs CPURegisters) *IdleCPU {
	return &IdleCPU{Regs: regs}
}

// StepCycles consumes the whole budget.
func (c *IdleCPU) StepCycles(budget int) int {
	if budget < 0 {
		return 0
	}
	c.cycles += uint64(budget)
	return budget
}

// Reset clears the cycle count.
func (c *IdleCPU) Reset() {
	c.cycles = 0
}

// Cycles returns the total cycles consumed.
func (c *IdleCPU) Cycles() uint64 {
	return c.cycles
}

// Serialize writes the register set and cycle count to buf.
func (c *IdleCPU) Serialize(buf []byte) error {
	if len(buf) < CPUSerializeSize {
		return errors.New("CPU serialize buffer too small")
	}
	binary.LittleEndian.PutUint16(buf[0:], c.Regs.PC)
	buf[2] = c.Regs.A
	buf[3] = c.Regs.X
	buf[4] = c.Regs.Y
	buf[5] = c.Regs.PSW
	buf[6] = c.Regs.SP
	binary.LittleEndian.PutUint64(buf[7:], c.cycles)
	return nil
}

// Deserialize reads the register set and cycle count from buf.
func (c *IdleCPU) Deserialize(buf []byte) error {
	if len(buf) < CPUSerializeSize {
		return errors.New("CPU deserialize buffer too small")
	}
	c.Regs.PC = binary.LittleEndian.Uint16(buf[0:])
	c.Regs.A = buf[2]
	c.Regs.X = buf[3]
	c.Regs.Y = buf[4]
	c.Regs.PSW = buf[5]
	c.Regs.SP = buf[6]
	c.cycles = binary.LittleEndian.Uint64(buf[7:])
	return nil
}
