package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region so internal code compiles unchanged.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds frame pacing constants for a specific region.
// The sound module clock is the same on every console; only the host
// frame rate changes.
type RegionTiming struct {
	CPUClockHz int // SPC700 clock frequency
	Scanlines  int // Total scanlines per frame of the host console
	FPS        int // Frames per second
}

// NTSC timing: SPC700 1.024 MHz, 262 scanlines, 60 Hz
var NTSCTiming = RegionTiming{
	CPUClockHz: CPUClockHz,
	Scanlines:  262,
	FPS:        60,
}

// PAL timing: SPC700 1.024 MHz, 312 scanlines, 50 Hz
var PALTiming = RegionTiming{
	CPUClockHz: CPUClockHz,
	Scanlines:  312,
	FPS:        50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DetectRegion returns the display timing region for an SPC file. The
// format carries no region, so captures play at NTSC pacing.
func DetectRegion(data []byte) Region {
	return RegionNTSC
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
