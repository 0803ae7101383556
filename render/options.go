// Package render renders SPC files to audio files without a window.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/user-none/emspc/emu"
)

// StopKind selects how a render decides it is done.
type StopKind int

const (
	// StopTime stops after a fixed number of seconds.
	StopTime StopKind = iota
	// StopFrames stops after a fixed number of frames.
	StopFrames
	// StopSPC uses the play and fade lengths from the ID666 tag.
	StopSPC
)

// StopCondition is a parsed -stop value.
type StopCondition struct {
	Kind    StopKind
	Seconds float64
	Frames  uint64
}

// DefaultStopCondition renders five minutes.
var DefaultStopCondition = StopCondition{Kind: StopTime, Seconds: 300}

// ErrInvalidStop is returned for an unparseable stop condition.
var ErrInvalidStop = errors.New("invalid stop condition (use time:SECONDS, frames:N or spc)")

// ParseStopCondition parses "time:SECONDS", "frames:N" or "spc".
func ParseStopCondition(s string) (StopCondition, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch strings.ToLower(kind) {
	case "time":
		secs, err := strconv.ParseFloat(arg, 64)
		if err != nil || secs <= 0 {
			return StopCondition{}, fmt.Errorf("%w: %q", ErrInvalidStop, s)
		}
		return StopCondition{Kind: StopTime, Seconds: secs}, nil
	case "frames":
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || n == 0 {
			return StopCondition{}, fmt.Errorf("%w: %q", ErrInvalidStop, s)
		}
		return StopCondition{Kind: StopFrames, Frames: n}, nil
	case "spc":
		if arg != "" {
			return StopCondition{}, fmt.Errorf("%w: %q", ErrInvalidStop, s)
		}
		return StopCondition{Kind: StopSPC}, nil
	}
	return StopCondition{}, fmt.Errorf("%w: %q", ErrInvalidStop, s)
}

// String formats the condition the way ParseStopCondition reads it.
func (c StopCondition) String() string {
	switch c.Kind {
	case StopFrames:
		return "frames:" + strconv.FormatUint(c.Frames, 10)
	case StopSPC:
		return "spc"
	}
	return "time:" + strconv.FormatFloat(c.Seconds, 'f', -1, 64)
}

// ParseTuning parses a manual source tuning:
//
//	SOURCE:hz:FREQUENCY
//	SOURCE:amk:TUNING,SUBTUNING
//
// AddmusicK tuning bytes are converted to the source's base pitch.
func ParseTuning(s string) (uint8, float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("invalid tuning %q: expected SOURCE:TYPE:PARAMS", s)
	}

	source, err := emu.ParseByte(parts[0])
	if err != nil {
		return 0, 0, err
	}

	switch strings.ToLower(parts[1]) {
	case "hz":
		hz, err := strconv.ParseFloat(parts[2], 64)
		if err != nil || hz <= 0 {
			return 0, 0, fmt.Errorf("invalid tuning frequency %q", parts[2])
		}
		return source, hz, nil
	case "amk":
		rawTuning, rawSub, ok := strings.Cut(parts[2], ",")
		if !ok {
			return 0, 0, fmt.Errorf("invalid tuning %q: amk takes TUNING,SUBTUNING", s)
		}
		tuning, err := emu.ParseByte(rawTuning)
		if err != nil {
			return 0, 0, err
		}
		sub, err := emu.ParseByte(rawSub)
		if err != nil {
			return 0, 0, err
		}
		hz, err := AMKTuningHz(tuning, sub)
		if err != nil {
			return 0, 0, err
		}
		return source, hz, nil
	}
	return 0, 0, fmt.Errorf("invalid tuning type %q (use hz or amk)", parts[1])
}

// AMKTuningHz converts AddmusicK tuning bytes to a base pitch in Hz.
func AMKTuningHz(tuning, subtuning uint8) (float64, error) {
	mult := float64(tuning) + float64(subtuning)/256
	if mult == 0 {
		return 0, errors.New("amk tuning of zero has no pitch")
	}
	return emu.SampleRate / (16 * mult), nil
}

// Options configures a render.
type Options struct {
	InputPath  string
	OutputPath string
	// StemsDir receives one mono WAV per voice when set.
	StemsDir string

	Stop StopCondition
	// FadeoutFrames is the length of the closing fade. StopSPC uses the
	// tag's fade length instead when it has one.
	FadeoutFrames uint64

	Region     emu.Region
	Resampling emu.ResamplingMode

	Tunings map[uint8]float64
}

// DefaultOptions returns the stock render settings.
func DefaultOptions() Options {
	return Options{
		Stop:          DefaultStopCondition,
		FadeoutFrames: 180,
		Region:        emu.RegionNTSC,
		Resampling:    emu.ResampleGaussian,
		Tunings:       make(map[uint8]float64),
	}
}
