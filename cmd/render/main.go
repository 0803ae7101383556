package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/user-none/emspc/emu"
	"github.com/user-none/emspc/render"
)

func main() {
	opts := render.DefaultOptions()

	outPath := flag.String("o", "", "output file (.wav for WAV, anything else for raw s16le)")
	stopFlag := flag.String("stop", opts.Stop.String(), "stop condition: time:SECONDS, frames:N or spc")
	fadeout := flag.Uint64("fadeout", opts.FadeoutFrames, "fadeout length in frames")
	interp := flag.String("interp", "gaussian", "voice interpolation: gaussian, linear or cubic")
	stems := flag.String("stems", "", "directory for per-voice mono WAV stems")
	regionFlag := flag.String("region", "ntsc", "frame pacing: ntsc or pal")
	flag.Func("tune", "source tuning SOURCE:hz:FREQ or SOURCE:amk:TUNING,SUBTUNING (repeatable)", func(s string) error {
		source, hz, err := render.ParseTuning(s)
		if err != nil {
			return err
		}
		opts.Tunings[source] = hz
		return nil
	})
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] -o OUTPUT SPC\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 || *outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	stop, err := render.ParseStopCondition(*stopFlag)
	if err != nil {
		log.Fatal(err)
	}
	mode, ok := emu.ParseResamplingMode(*interp)
	if !ok {
		log.Fatalf("Invalid interpolation: %s (use gaussian, linear or cubic)", *interp)
	}
	switch strings.ToLower(*regionFlag) {
	case "ntsc":
		opts.Region = emu.RegionNTSC
	case "pal":
		opts.Region = emu.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use ntsc or pal)", *regionFlag)
	}

	opts.InputPath = flag.Arg(0)
	opts.OutputPath = *outPath
	opts.StemsDir = *stems
	opts.Stop = stop
	opts.FadeoutFrames = *fadeout
	opts.Resampling = mode

	os.Exit(run(opts))
}

// run drives a render worker until it completes, fails or is interrupted
// and returns the process exit code.
func run(opts render.Options) int {
	display := newProgressDisplay(os.Stderr)
	messages := make(chan render.Message, 16)
	worker := render.StartWorker(func(m render.Message) {
		messages <- m
	})
	defer worker.Terminate()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	worker.Send(render.StartRequest{Options: opts})

	for {
		select {
		case <-interrupt:
			worker.Send(render.CancelRequest{})
		case m := <-messages:
			switch m := m.(type) {
			case render.StartingMessage:
				log.Printf("Rendering %s to %s (%s)", opts.InputPath, opts.OutputPath, opts.Stop)
			case render.ProgressMessage:
				display.Update(m.Progress)
			case render.CompleteMessage:
				display.Done()
				log.Printf("Done: %s of audio, %d bytes in %s",
					m.Progress.RenderedDuration.Round(time.Millisecond),
					m.Progress.OutputSize,
					m.Progress.Elapsed.Round(time.Millisecond))
				return 0
			case render.CancelledMessage:
				display.Done()
				log.Printf("Cancelled; partial output kept in %s", opts.OutputPath)
				return 130
			case render.ErrorMessage:
				display.Done()
				log.Printf("Error: %v", m.Err)
				return 1
			}
		}
	}
}

// progressDisplay rewrites a single status line on a terminal and falls
// back to log lines otherwise.
type progressDisplay struct {
	f        *os.File
	terminal bool
	active   bool
}

func newProgressDisplay(f *os.File) *progressDisplay {
	return &progressDisplay{f: f, terminal: term.IsTerminal(int(f.Fd()))}
}

func (d *progressDisplay) Update(p render.Progress) {
	status := fmt.Sprintf("%3.0f%% %s/%s %.0f fps eta %s",
		100*p.Fraction(),
		p.RenderedDuration.Round(time.Second),
		p.ExpectedDuration.Round(time.Second),
		p.AverageFPS,
		p.ETA.Round(time.Second))

	if !d.terminal {
		log.Print(status)
		return
	}

	width := 80
	if w, _, err := term.GetSize(int(d.f.Fd())); err == nil && w > 0 {
		width = w
	}
	barWidth := width - len(status) - 3
	line := status
	if barWidth >= 10 {
		filled := int(p.Fraction() * float64(barWidth))
		line = "[" + strings.Repeat("#", filled) + strings.Repeat(" ", barWidth-filled) + "] " + status
	}
	fmt.Fprintf(d.f, "\r%s", line)
	d.active = true
}

func (d *progressDisplay) Done() {
	if d.active {
		fmt.Fprintln(d.f)
		d.active = false
	}
}
