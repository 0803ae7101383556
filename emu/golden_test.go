package emu

import (
	"crypto/sha256"
	"encoding/binary"
	"flag"
	"fmt"
	"testing"
)

var update = flag.Bool("update", false, "print golden data to stdout for copy-paste")

// hashInt16Buffer computes SHA-256 of a buffer of int16 values (little-endian).
func hashInt16Buffer(buf []int16) [32]byte {
	b := make([]byte, len(buf)*2)
	for i, v := range buf {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return sha256.Sum256(b)
}

// compareGoldenInt16 compares the first N samples and the full-buffer SHA-256 hash.
// In update mode, it prints the golden data instead of comparing.
func compareGoldenInt16(t *testing.T, name string, buf []int16, expectedFirst []int16, expectedHash string) {
	t.Helper()

	hash := hashInt16Buffer(buf)
	hashStr := fmt.Sprintf("%x", hash)

	if *update {
		fmt.Printf("=== %s ===\n", name)
		fmt.Printf("// Buffer length: %d\n", len(buf))
		n := min(64, len(buf))
		fmt.Printf("expectedFirst := []int16{")
		for i := 0; i < n; i++ {
			if i > 0 {
				fmt.Print(", ")
			}
			if i%8 == 0 {
				fmt.Print("\n\t")
			}
			fmt.Printf("%d", buf[i])
		}
		fmt.Printf(",\n}\n")
		fmt.Printf("expectedHash := %q\n\n", hashStr)
		return
	}

	n := len(expectedFirst)
	if len(buf) < n {
		t.Fatalf("%s: buffer too short: got %d, want at least %d", name, len(buf), n)
	}
	for i := 0; i < n; i++ {
		if buf[i] != expectedFirst[i] {
			t.Errorf("%s: sample[%d] = %d, want %d", name, i, buf[i], expectedFirst[i])
			break
		}
	}

	if hashStr != expectedHash {
		t.Errorf("%s: hash mismatch\n  got:  %s\n  want: %s", name, hashStr, expectedHash)
	}
}

// goldenBRRBlocks builds 32 blocks cycling through every filter and most
// shift values, filled from a fixed LCG.
func goldenBRRBlocks() [][]byte {
	blocks := make([][]byte, 0, 32)
	x := uint32(0x1234)
	for k := 0; k < 32; k++ {
		filter := byte(k % 4)
		shift := byte((k * 5) % 13)
		block := []byte{shift<<4 | filter<<2}
		for j := 0; j < 8; j++ {
			x = (x*1103515245 + 12345) & 0x7FFFFFFF
			block = append(block, byte(x>>16))
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func TestBRRGolden_AllFilters(t *testing.T) {
	var d BRRDecoder
	d.Reset(0, 0)

	var buf []int16
	for _, block := range goldenBRRBlocks() {
		d.Read(block)
		for !d.IsFinished() {
			buf = append(buf, d.ReadNextSample())
		}
	}

	expectedFirst := []int16{
		-4, -6, -6, -2, -4, 2, -6, 6,
		-8, 0, 0, 0, 4, -8, -4, -2,
		94, 216, 330, 404, 186, 366, 566, 722,
		548, 704, 724, 710, 568, 564, 464, 626,
		-4364, -4812, -988, 6722, 17834, 26670, 30022, 28128,
		26496, 27210, -32364, 0, -30076, 10250, -17802, 18918,
		-17064, 19486, -16636, 19812, -16430, 19942, -16372, 19940,
		-16434, 19832, -16550, 19678, -16744, 19470, -16952, 19222,
	}
	expectedHash := "dcf7979df14e176029d9c776b64ca42fdc80fc68b0c09a97821af5988e9547d1"

	compareGoldenInt16(t, "BRR_AllFilters", buf, expectedFirst, expectedHash)
}

func TestDSPGolden_PowerOnSilence(t *testing.T) {
	bus := NewAPUBus()
	d := NewDSP(bus)
	bus.SetDSP(d)

	d.CyclesCallback(1600 * CyclesPerSample)
	d.Flush()
	buf := d.Output().Drain(nil)

	expectedFirst := make([]int16, 16)
	expectedHash := "56a43ef88ddfcd0f56f7dd973312c0e73d62f59655c01d7b4e59aaa3be8b3fb6"

	compareGoldenInt16(t, "DSP_PowerOnSilence", buf, expectedFirst, expectedHash)
}

// writeGoldenSources lays out a sample directory at $0200 with two
// sources drawn from a fixed LCG: source 0 is four blocks at $0300
// looping back to its second block, source 1 is three blocks at $0400
// that end without looping.
func writeGoldenSources(bus *APUBus) {
	bus.LoadRAMAt(0x0200, []byte{0x00, 0x03, 0x09, 0x03, 0x00, 0x04, 0x00, 0x04})

	x := uint32(0xBEEF)
	block := func(header byte) []byte {
		b := []byte{header}
		for j := 0; j < 8; j++ {
			x = (x*1103515245 + 12345) & 0x7FFFFFFF
			b = append(b, byte(x>>16))
		}
		return b
	}

	addr := uint16(0x0300)
	for k := 0; k < 4; k++ {
		header := byte(9+k%3)<<4 | byte(k%4)<<2
		if k == 3 {
			header |= 0x03
		}
		bus.LoadRAMAt(addr, block(header))
		addr += brrBlockSize
	}

	addr = 0x0400
	for k := 0; k < 3; k++ {
		header := byte(0xA4)
		if k == 2 {
			header |= 0x01
		}
		bus.LoadRAMAt(addr, block(header))
		addr += brrBlockSize
	}
}

// goldenRegisters is a captured register file with four voices keyed
// on: an ADSR voice, an echoed direct-gain voice panned inverted, a
// noise voice, and an echoed voice pitch-modulated by the noise voice.
func goldenRegisters() [NumRegisters]uint8 {
	var r [NumRegisters]uint8
	voice := func(v int, vals ...uint8) {
		copy(r[v<<4:], vals)
	}
	//    VOLL  VOLR  P(L)  P(H)  SRCN  ADSR0 ADSR1 GAIN
	voice(0, 0x60, 0x40, 0x00, 0x10, 0x00, 0xFA, 0x6A, 0x00)
	voice(1, 0x50, 0xB0, 0x00, 0x08, 0x01, 0x00, 0x00, 0x7F)
	voice(2, 0x30, 0x30, 0x00, 0x10, 0x00, 0x00, 0x00, 0xDC)
	voice(3, 0x40, 0x40, 0x00, 0x0C, 0x00, 0x8E, 0xE4, 0x00)

	for i, c := range []uint8{0x58, 0xBF, 0xDB, 0xF0, 0xFE, 0x07, 0x0C, 0x0C} {
		r[i<<4|regFIR] = c
	}
	r[regMVolL] = 0x7F
	r[regMVolR] = 0x7F
	r[regEVolL] = 0x40
	r[regEVolR] = 0xC0
	r[regEFB] = 0x50
	r[regFLG] = 0x1A // echo writes on, noise rate $1A
	r[regPMON] = 0x08
	r[regNON] = 0x04
	r[regEON] = 0x0A
	r[regDIR] = 0x02
	r[regESA] = 0x40
	r[regEDL] = 0x02
	r[regKON] = 0x0F
	return r
}

func TestDSPGolden_LoadedSnapshot(t *testing.T) {
	d, bus := newTestDSP()
	writeGoldenSources(bus)
	d.LoadState(goldenRegisters())

	// Two echo buffer cycles, then release voice 0 for the rest.
	buf := renderSamples(d, 2048)
	d.SetRegister(regKOF, 0x01)
	buf = append(buf, renderSamples(d, 2048)...)

	expectedFirst := []int16{
		0, 0, -191, -191, -191, -191, -185, -185,
		102, 102, 70, 282, -490, 884, -1677, 2163,
		-3024, 3545, -3728, 4427, -3664, 4090, -2590, 2912,
		-1469, 1680, -1013, 1423, -1576, 1955, -2651, 2894,
		-3404, 3459, -3042, 3237, -2017, 2240, -884, 1056,
		-116, 240, 84, -4, 6, -202, 359, -681,
		1277, -1688, 2455, -3177, 3238, -4541, 3248, -5056,
		2739, -4945, 2244, -4740, 2566, -4719, 3231, -5368,
	}
	expectedHash := "ca649a17a563c003b12a2b15d64e27938395a6836db358260ef61bd9dc7ddfcf"

	compareGoldenInt16(t, "DSP_LoadedSnapshot", buf, expectedFirst, expectedHash)

	var echoed bool
	for addr := uint32(0x4000); addr < 0x5000; addr++ {
		if bus.LoadByte(addr) != 0 {
			echoed = true
			break
		}
	}
	if !echoed {
		t.Error("echo delay line never written")
	}
	if d.EnvelopeState(0) != EnvRelease || d.EnvelopeState(1) != EnvRelease {
		t.Errorf("voices 0 and 1 should have released: %d, %d", d.EnvelopeState(0), d.EnvelopeState(1))
	}
}
