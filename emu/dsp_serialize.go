package emu

import (
	"encoding/binary"
	"errors"
)

const (
	dspSerializeVersion = 1
	// Per-voice serialization size:
	// decoder samples(32) + index(1) + p1(4) + p2(4) + isEnd(1) + isLooping(1) +
	// blockAddr(2) + hist(16) + samplePos(4) +
	// envLevel(4) + envHidden(4) + envPhase(1) +
	// endx(1) + edge(1) + konTick(8) + outx(1) + lastLeft(4) + lastRight(4) = 93
	dspVoiceSerializeSize = 93
	// Global state:
	// noise(4) + counter(4) + ticks(8) + echoPos(4) + echoLength(4) +
	// cycles(4) + kon(1) + kof(1) + filter history(2 * 8 * 4) = 94
	dspGlobalSerializeSize = 94
	// DSPSerializeSize is the total bytes needed for DSP serialization.
	// version(1) + regs(128) + 8 voices * 93 + global(94) = 967
	DSPSerializeSize = 1 + NumRegisters + NumVoices*dspVoiceSerializeSize + dspGlobalSerializeSize
)

// Serialize writes DSP state to buf. buf must be at least DSPSerializeSize
// bytes. Pending cycles are rendered first.
func (d *DSP) Serialize(buf []byte) error {
	if len(buf) < DSPSerializeSize {
		return errors.New("DSP serialize buffer too small")
	}
	d.Flush()

	offset := 0
	buf[offset] = dspSerializeVersion
	offset++

	copy(buf[offset:], d.regs[:])
	offset += NumRegisters

	for i := range d.voices {
		offset = serializeVoice(&d.voices[i], buf, offset)
	}

	offset = putInt32(buf, offset, d.noise)
	offset = putInt32(buf, offset, d.counter)
	binary.LittleEndian.PutUint64(buf[offset:], d.ticks)
	offset += 8
	offset = putInt32(buf, offset, d.echoPos)
	offset = putInt32(buf, offset, d.echoLength)
	offset = putInt32(buf, offset, int32(d.cycles))
	buf[offset] = d.kon
	offset++
	buf[offset] = d.kof
	offset++
	for _, h := range d.leftFilter.history {
		offset = putInt32(buf, offset, h)
	}
	for _, h := range d.rightFilter.history {
		offset = putInt32(buf, offset, h)
	}

	return nil
}

// Deserialize reads DSP state from buf. Register-backed fields are
// restored from the register file without triggering key-on or key-off.
// Mute and solo flags are host settings and are left untouched.
func (d *DSP) Deserialize(buf []byte) error {
	if len(buf) < DSPSerializeSize {
		return errors.New("DSP deserialize buffer too small")
	}

	offset := 0
	version := buf[offset]
	offset++
	if version > dspSerializeVersion {
		return errors.New("unsupported DSP state version")
	}

	var regs [NumRegisters]uint8
	copy(regs[:], buf[offset:offset+NumRegisters])
	offset += NumRegisters

	d.flushing = true
	for i, value := range regs {
		switch i {
		case regKON, regKOF, regENDX:
			continue
		}
		d.SetRegister(uint8(i), value)
	}
	d.regs = regs
	d.flushing = false

	for i := range d.voices {
		offset = deserializeVoice(&d.voices[i], buf, offset)
	}

	d.noise, offset = getInt32(buf, offset)
	d.counter, offset = getInt32(buf, offset)
	d.ticks = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	d.echoPos, offset = getInt32(buf, offset)
	d.echoLength, offset = getInt32(buf, offset)
	var cycles int32
	cycles, offset = getInt32(buf, offset)
	d.cycles = int(cycles)
	d.kon = buf[offset]
	offset++
	d.kof = buf[offset]
	offset++
	for i := range d.leftFilter.history {
		d.leftFilter.history[i], offset = getInt32(buf, offset)
	}
	for i := range d.rightFilter.history {
		d.rightFilter.history[i], offset = getInt32(buf, offset)
	}

	d.output.Clear()
	return nil
}

func serializeVoice(v *voice, buf []byte, offset int) int {
	for _, s := range v.decoder.samples {
		binary.LittleEndian.PutUint16(buf[offset:], uint16(s))
		offset += 2
	}
	buf[offset] = uint8(v.decoder.index)
	offset++
	offset = putInt32(buf, offset, v.decoder.p1)
	offset = putInt32(buf, offset, v.decoder.p2)
	buf[offset] = boolByte(v.decoder.IsEnd)
	offset++
	buf[offset] = boolByte(v.decoder.IsLooping)
	offset++

	binary.LittleEndian.PutUint16(buf[offset:], v.blockAddr)
	offset += 2
	for _, h := range v.hist {
		offset = putInt32(buf, offset, h)
	}
	offset = putInt32(buf, offset, v.samplePos)

	offset = putInt32(buf, offset, v.env.level)
	offset = putInt32(buf, offset, v.env.hidden)
	buf[offset] = uint8(v.env.phase)
	offset++

	buf[offset] = boolByte(v.endx)
	offset++
	buf[offset] = boolByte(v.edge)
	offset++
	binary.LittleEndian.PutUint64(buf[offset:], v.konTick)
	offset += 8
	buf[offset] = v.outx
	offset++
	offset = putInt32(buf, offset, v.lastLeft)
	offset = putInt32(buf, offset, v.lastRight)

	return offset
}

func deserializeVoice(v *voice, buf []byte, offset int) int {
	for i := range v.decoder.samples {
		v.decoder.samples[i] = int16(binary.LittleEndian.Uint16(buf[offset:]))
		offset += 2
	}
	v.decoder.index = int(buf[offset])
	offset++
	v.decoder.p1, offset = getInt32(buf, offset)
	v.decoder.p2, offset = getInt32(buf, offset)
	v.decoder.IsEnd = buf[offset] != 0
	offset++
	v.decoder.IsLooping = buf[offset] != 0
	offset++

	v.blockAddr = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	for i := range v.hist {
		v.hist[i], offset = getInt32(buf, offset)
	}
	v.samplePos, offset = getInt32(buf, offset)

	v.env.level, offset = getInt32(buf, offset)
	v.env.hidden, offset = getInt32(buf, offset)
	v.env.phase = adsrPhase(buf[offset])
	offset++

	v.endx = buf[offset] != 0
	offset++
	v.edge = buf[offset] != 0
	offset++
	v.konTick = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	v.outx = buf[offset]
	offset++
	v.lastLeft, offset = getInt32(buf, offset)
	v.lastRight, offset = getInt32(buf, offset)

	return offset
}

func putInt32(buf []byte, offset int, v int32) int {
	binary.LittleEndian.PutUint32(buf[offset:], uint32(v))
	return offset + 4
}

func getInt32(buf []byte, offset int) (int32, int) {
	return int32(binary.LittleEndian.Uint32(buf[offset:])), offset + 4
}
