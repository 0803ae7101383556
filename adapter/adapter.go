package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emspc/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the SPC player.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "emspc",
		ConsoleName:     "SNES SPC",
		Extensions:      []string{".spc"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     float64(emu.ScreenWidth) / float64(emu.ScreenHeight),
		SampleRate:      48000,
		Buttons:         voiceButtons(),
		Players:         1,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "cubic_interpolation",
				Label:       "Cubic Interpolation",
				Description: "Use cubic instead of Gaussian voice interpolation",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
			},
			{
				Key:         "linear_interpolation",
				Label:       "Linear Interpolation",
				Description: "Use linear instead of Gaussian voice interpolation",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
			},
			{
				Key:         "piano_roll",
				Label:       "Piano Roll",
				Description: "Show the scrolling piano roll above the oscilloscopes",
				Type:        emucore.CoreOptionBool,
				Default:     "true",
			},
		},
		RDBName:       "Nintendo - Super Nintendo Entertainment System",
		ThumbnailRepo: "Nintendo_-_Super_Nintendo_Entertainment_System",
		DataDirName:   "emspc",
		ConsoleID:     3,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

// voiceButtons maps keys 1-8 to the voice mute toggles, input bits 4-11.
func voiceButtons() []emucore.Button {
	return []emucore.Button{
		{Name: "Voice 1", ID: 4, DefaultKey: "1", DefaultPad: "Y"},
		{Name: "Voice 2", ID: 5, DefaultKey: "2", DefaultPad: "B"},
		{Name: "Voice 3", ID: 6, DefaultKey: "3", DefaultPad: "A"},
		{Name: "Voice 4", ID: 7, DefaultKey: "4", DefaultPad: "X"},
		{Name: "Voice 5", ID: 8, DefaultKey: "5", DefaultPad: "L1"},
		{Name: "Voice 6", ID: 9, DefaultKey: "6", DefaultPad: "R1"},
		{Name: "Voice 7", ID: 10, DefaultKey: "7", DefaultPad: "Select"},
		{Name: "Voice 8", ID: 11, DefaultKey: "8", DefaultPad: "Start"},
	}
}

// CreateEmulator loads an SPC file. The region only selects frame pacing.
func (f *Factory) CreateEmulator(data []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(data, region)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DetectRegion returns the default pacing. SPC files carry no region, so
// the bool return is false.
func (f *Factory) DetectRegion(data []byte) (emucore.Region, bool) {
	return emu.DetectRegion(data), false
}
