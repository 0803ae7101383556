package emu

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
	"time"
)

// SPC file layout.
const (
	spcSignature   = "SNES-SPC700 Sound File Data v0.30"
	spcRAMOffset   = 0x100
	spcDSPOffset   = 0x10100
	spcExtraOffset = 0x101C0
	spcExtraSize   = 0x40
	spcMinSize     = spcDSPOffset + NumRegisters

	id666Present = 26
)

var (
	// ErrNotSPC is returned for data without an SPC signature.
	ErrNotSPC = errors.New("not an SPC file")
	// ErrShortSPC is returned for SPC data missing RAM or DSP registers.
	ErrShortSPC = errors.New("SPC file truncated")
)

// SPC is a parsed SPC snapshot.
type SPC struct {
	CPU       CPURegisters
	RAM       [apuRAMSize]byte
	DSP       [NumRegisters]uint8
	ExtraRAM  [spcExtraSize]byte
	HasExtra  bool
	HasID666  bool
	Song      string
	Game      string
	Dumper    string
	Comments  string
	DumpDate  string
	Artist    string
	PlayTime  time.Duration
	FadeTime  time.Duration
	CRC       uint32
	MinorVers uint8
}

// ParseSPC parses an SPC file image.
func ParseSPC(data []byte) (*SPC, error) {
	if len(data) < len(spcSignature)+2 ||
		string(data[:len(spcSignature)]) != spcSignature ||
		data[0x21] != 0x1A || data[0x22] != 0x1A {
		return nil, ErrNotSPC
	}
	if len(data) < spcMinSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrShortSPC, len(data), spcMinSize)
	}

	s := &SPC{
		CRC:       crc32.ChecksumIEEE(data),
		MinorVers: data[0x24],
	}
	s.CPU = CPURegisters{
		PC:  uint16(data[0x25]) | uint16(data[0x26])<<8,
		A:   data[0x27],
		X:   data[0x28],
		Y:   data[0x29],
		PSW: data[0x2A],
		SP:  data[0x2B],
	}
	copy(s.RAM[:], data[spcRAMOffset:spcRAMOffset+apuRAMSize])
	copy(s.DSP[:], data[spcDSPOffset:spcDSPOffset+NumRegisters])
	if len(data) >= spcExtraOffset+spcExtraSize {
		copy(s.ExtraRAM[:], data[spcExtraOffset:spcExtraOffset+spcExtraSize])
		s.HasExtra = true
	}

	if data[0x23] == id666Present {
		s.HasID666 = true
		s.parseID666(data)
	}
	return s, nil
}

// parseID666 reads the text form of the ID666 tag. Unparseable lengths
// are left at zero.
func (s *SPC) parseID666(b []byte) {
	s.Song = cleanTag(b[0x2E : 0x2E+32])
	s.Game = cleanTag(b[0x4E : 0x4E+32])
	s.Dumper = cleanTag(b[0x6E : 0x6E+16])
	s.Comments = cleanTag(b[0x7E : 0x7E+32])
	s.DumpDate = cleanTag(b[0x9E : 0x9E+11])
	if secs, err := strconv.Atoi(cleanTag(b[0xA9 : 0xA9+3])); err == nil && secs > 0 {
		s.PlayTime = time.Duration(secs) * time.Second
	}
	if ms, err := strconv.Atoi(cleanTag(b[0xAC : 0xAC+5])); err == nil && ms > 0 {
		s.FadeTime = time.Duration(ms) * time.Millisecond
	}
	s.Artist = cleanTag(b[0xB1 : 0xB1+32])
}

// cleanTag trims a fixed-width, NUL padded text field.
func cleanTag(b []byte) string {
	str := string(b)
	if i := strings.IndexByte(str, 0); i >= 0 {
		str = str[:i]
	}
	return strings.TrimSpace(str)
}

// Title returns a display title built from the tags.
func (s *SPC) Title() string {
	switch {
	case s.Song != "" && s.Game != "":
		return s.Song + " - " + s.Game
	case s.Song != "":
		return s.Song
	}
	return s.Game
}

// KeyedVoices returns the snapshot's KON register. Without a running
// SPC700 only these voices ever sound.
func (s *SPC) KeyedVoices() uint8 {
	return s.DSP[regKON]
}

// ValidateSPC checks that data looks like a loadable SPC file.
func ValidateSPC(data []byte) error {
	_, err := ParseSPC(data)
	return err
}
