//go:build !libretro && !ios

package main

import (
	"flag"
	"log"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/emspc/adapter"
)

func main() {
	spcPath := flag.String("spc", "", "path to SPC file (opens UI if not provided)")
	regionFlag := flag.String("region", "ntsc", "frame pacing: ntsc or pal")
	interp := flag.String("interp", "gaussian", "voice interpolation: gaussian, linear or cubic")
	pianoRoll := flag.Bool("piano-roll", true, "show the piano roll")
	flag.Parse()

	factory := &adapter.Factory{}

	if *spcPath != "" {
		options := map[string]string{
			"cubic_interpolation":  "false",
			"linear_interpolation": "false",
			"piano_roll":           "false",
		}
		switch *interp {
		case "gaussian":
		case "cubic":
			options["cubic_interpolation"] = "true"
		case "linear":
			options["linear_interpolation"] = "true"
		default:
			log.Fatalf("Invalid interpolation: %s (use gaussian, linear or cubic)", *interp)
		}
		if *pianoRoll {
			options["piano_roll"] = "true"
		}
		if err := standalone.RunDirect(factory, *spcPath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
