package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eMSPCState\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + spcCRC(4) + dataCRC(4)
)

// Fixed serialization sizes for inline components
const (
	busSerializeSize          = apuRAMSize + 1 // ram + dspAddr
	emulatorBaseSerializeSize = 4 + 8 + 4      // cycleAccum(4) + frame(8) + prevButtons(4)
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the total size in bytes needed for a save state.
func SerializeSize() int {
	return stateHeaderSize +
		CPUSerializeSize +
		busSerializeSize +
		DSPSerializeSize +
		emulatorBaseSerializeSize
}

// SerializeSize returns the total size in bytes needed for a save state.
func (e *Emulator) SerializeSize() int {
	return SerializeSize()
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, SerializeSize())

	// Write header
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.spc.CRC)

	offset := stateHeaderSize

	// Sound CPU
	if err := e.cpu.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += CPUSerializeSize

	// APU bus
	offset = e.serializeBus(data, offset)

	// DSP
	if err := e.dsp.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += DSPSerializeSize

	// Emulator inline state
	e.serializeBase(data, offset)

	// Calculate and write data CRC32 (over everything after header)
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// Region is NOT restored - the current region setting is preserved.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize

	// Sound CPU
	if err := e.cpu.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += CPUSerializeSize

	// APU bus
	offset = e.deserializeBus(data, offset)

	// DSP
	if err := e.dsp.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += DSPSerializeSize

	// Emulator inline state
	e.deserializeBase(data, offset)

	e.resampler.reset()
	e.visualizer.Reset()
	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < SerializeSize() {
		return errors.New("save state too short")
	}

	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errors.New("unsupported save state version")
	}

	spcCRC := binary.LittleEndian.Uint32(data[14:18])
	if spcCRC != e.spc.CRC {
		return errors.New("save state is for a different SPC")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	return nil
}

// serializeBus writes APUBus state to the data buffer.
func (e *Emulator) serializeBus(data []byte, offset int) int {
	copy(data[offset:], e.bus.ram[:])
	offset += apuRAMSize

	data[offset] = e.bus.dspAddr
	offset++

	return offset
}

// deserializeBus reads APUBus state from the data buffer.
func (e *Emulator) deserializeBus(data []byte, offset int) int {
	copy(e.bus.ram[:], data[offset:offset+apuRAMSize])
	offset += apuRAMSize

	e.bus.dspAddr = data[offset]
	offset++

	return offset
}

// serializeBase writes Emulator inline state to the data buffer.
func (e *Emulator) serializeBase(data []byte, offset int) int {
	binary.LittleEndian.PutUint32(data[offset:], uint32(e.cycleAccum))
	offset += 4

	binary.LittleEndian.PutUint64(data[offset:], e.frame)
	offset += 8

	binary.LittleEndian.PutUint32(data[offset:], e.prevButtons)
	offset += 4

	return offset
}

// deserializeBase reads Emulator inline state from the data buffer.
func (e *Emulator) deserializeBase(data []byte, offset int) int {
	e.cycleAccum = int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	e.frame = binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	e.prevButtons = binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	return offset
}
