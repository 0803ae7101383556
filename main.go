package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	emubridge "github.com/user-none/emspc/bridge/ebiten"
	"github.com/user-none/emspc/cli"
	"github.com/user-none/emspc/emu"
	"github.com/user-none/emspc/render"
)

func main() {
	spcPath := flag.String("spc", "", "path to SPC file (required)")
	regionFlag := flag.String("region", "ntsc", "frame pacing: ntsc or pal")
	interp := flag.String("interp", "gaussian", "voice interpolation: gaussian, linear or cubic")
	pianoRoll := flag.Bool("piano-roll", true, "show the piano roll")
	muteFlag := flag.String("mute", "", "voices to mute at start, e.g. 0,3")
	soloFlag := flag.String("solo", "", "voices to solo at start, e.g. 1")

	tunings := map[uint8]float64{}
	colors := map[uint8]color.NRGBA{}
	flag.Func("tune", "source tuning SOURCE:hz:FREQ or SOURCE:amk:TUNING,SUBTUNING (repeatable)", func(s string) error {
		source, hz, err := render.ParseTuning(s)
		if err != nil {
			return err
		}
		tunings[source] = hz
		return nil
	})
	flag.Func("color", "source color SOURCE:#RRGGBB[AA] (repeatable)", func(s string) error {
		source, c, err := emu.ParseSourceColor(s)
		if err != nil {
			return err
		}
		colors[source] = c
		return nil
	})
	flag.Parse()

	if *spcPath == "" && flag.NArg() == 1 {
		*spcPath = flag.Arg(0)
	}
	if *spcPath == "" {
		log.Fatal("SPC path is required. Usage: emspc -spc <path>")
	}

	data, err := os.ReadFile(*spcPath)
	if err != nil {
		log.Fatalf("Failed to load SPC: %v", err)
	}

	var region emu.Region
	switch strings.ToLower(*regionFlag) {
	case "ntsc":
		region = emu.RegionNTSC
	case "pal":
		region = emu.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use ntsc or pal)", *regionFlag)
	}

	mode, ok := emu.ParseResamplingMode(*interp)
	if !ok {
		log.Fatalf("Invalid interpolation: %s (use gaussian, linear or cubic)", *interp)
	}

	e, err := emubridge.NewEmulator(data, region)
	if err != nil {
		log.Fatalf("Failed to initialize player: %v", err)
	}

	e.SetResamplingMode(mode)
	if !*pianoRoll {
		e.SetOption("piano_roll", "false")
	}
	for source, hz := range tunings {
		e.SetSourcePitch(source, hz)
	}
	for source, c := range colors {
		e.SetSourceColor(source, c)
	}

	logTags(e.SPC())

	ebiten.SetWindowSize(emu.ScreenWidth*2, emu.ScreenHeight*2)
	title := emu.Name
	if t := e.SPC().Title(); t != "" {
		title += " - " + t
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.ScreenWidth, emu.ScreenHeight, -1, -1)
	ebiten.SetTPS(60)

	runner := cli.NewRunner(e)
	defer runner.Close()
	defer e.Close()

	if err := toggleVoices(*muteFlag, runner.Voices().ToggleMute); err != nil {
		log.Fatalf("Invalid -mute: %v", err)
	}
	if err := toggleVoices(*soloFlag, runner.Voices().ToggleSolo); err != nil {
		log.Fatalf("Invalid -solo: %v", err)
	}

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}

func logTags(s *emu.SPC) {
	if !s.HasID666 {
		log.Printf("No ID666 tag")
		return
	}
	log.Printf("Song: %s", s.Song)
	log.Printf("Game: %s", s.Game)
	if s.Artist != "" {
		log.Printf("Artist: %s", s.Artist)
	}
	if s.Dumper != "" {
		log.Printf("Dumper: %s", s.Dumper)
	}
	if s.PlayTime > 0 {
		log.Printf("Length: %s + %s fade", s.PlayTime, s.FadeTime)
	}
}

// toggleVoices applies fn to each voice in a comma separated list.
func toggleVoices(list string, fn func(int)) error {
	if list == "" {
		return nil
	}
	for _, f := range strings.Split(list, ",") {
		v, err := emu.ParseByte(strings.TrimSpace(f))
		if err != nil {
			return err
		}
		if int(v) >= emu.NumVoices {
			return fmt.Errorf("voice %d out of range", v)
		}
		fn(int(v))
	}
	return nil
}
