package render

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user-none/emspc/emu"
)

// ErrNoPlayLength is returned for the spc stop condition when the file
// has no ID666 play length.
var ErrNoPlayLength = errors.New("SPC has no play length; use time:SECONDS or frames:N")

// Progress is a snapshot of a running render.
type Progress struct {
	Frame       uint64
	TotalFrames uint64
	AverageFPS  float64
	Elapsed     time.Duration
	// ETA is zero until the first frame completes.
	ETA              time.Duration
	RenderedDuration time.Duration
	ExpectedDuration time.Duration
	OutputSize       int64
}

// Fraction returns the completed share of the render in [0, 1].
func (p Progress) Fraction() float64 {
	if p.TotalFrames == 0 {
		return 0
	}
	return float64(p.Frame) / float64(p.TotalFrames)
}

// Renderer runs an SPC headless, one frame per Step, writing 32 kHz
// stereo audio.
type Renderer struct {
	emu   *emu.Emulator
	sink  sampleSink
	stems *stemRecorder

	fps   int
	frame uint64
	total uint64
	fade  uint64

	pairs   uint64
	started time.Time
	buf     []int16
	closed  bool
}

// New loads the input, opens the outputs and prepares a render.
func New(opts Options) (*Renderer, error) {
	data, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read SPC: %w", err)
	}

	e, err := emu.NewEmulator(data, opts.Region)
	if err != nil {
		return nil, fmt.Errorf("load SPC: %w", err)
	}
	if e.SPC().KeyedVoices() == 0 {
		log.Printf("Warning: %s keys on no voices; with the SPC700 idle it renders silence",
			filepath.Base(opts.InputPath))
	}
	e.SetResamplingMode(opts.Resampling)
	for source, hz := range opts.Tunings {
		e.SetSourcePitch(source, hz)
	}

	fps := e.GetTiming().FPS
	total, fade, err := frameCounts(opts.Stop, opts.FadeoutFrames, e.SPC(), fps)
	if err != nil {
		return nil, err
	}

	sink, err := openSink(opts.OutputPath, emu.SampleRate, 2)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		emu:   e,
		sink:  sink,
		fps:   fps,
		total: total,
		fade:  fade,
		buf:   make([]int16, 0, 2*emu.SampleRate/fps+2),
	}

	if opts.StemsDir != "" {
		base := strings.TrimSuffix(filepath.Base(opts.OutputPath), filepath.Ext(opts.OutputPath))
		stems, err := newStemRecorder(opts.StemsDir, base)
		if err != nil {
			sink.Close()
			return nil, err
		}
		r.stems = stems
		e.AddStateReceiver(stems)
	}

	r.started = time.Now()
	return r, nil
}

// frameCounts resolves a stop condition to a frame count and the length
// of the closing fade.
func frameCounts(stop StopCondition, fadeFrames uint64, spc *emu.SPC, fps int) (total, fade uint64, err error) {
	fade = fadeFrames
	switch stop.Kind {
	case StopFrames:
		total = stop.Frames
	case StopTime:
		total = uint64(math.Ceil(stop.Seconds * float64(fps)))
	case StopSPC:
		if spc == nil || spc.PlayTime <= 0 {
			return 0, 0, ErrNoPlayLength
		}
		total = durationFrames(spc.PlayTime, fps)
		if spc.FadeTime > 0 {
			fade = durationFrames(spc.FadeTime, fps)
			total += fade
		}
	}
	if fade > total {
		fade = total
	}
	return total, fade, nil
}

func durationFrames(d time.Duration, fps int) uint64 {
	return uint64(math.Ceil(d.Seconds() * float64(fps)))
}

// Emulator returns the emulator being rendered.
func (r *Renderer) Emulator() *emu.Emulator {
	return r.emu
}

// Step renders one frame. It returns false once the stop condition is
// reached.
func (r *Renderer) Step() (bool, error) {
	if r.frame >= r.total {
		return false, nil
	}

	r.emu.RunFrame()
	r.buf = append(r.buf[:0], r.emu.GetNativeSamples()...)
	r.applyFade(r.buf)

	if err := r.sink.WriteSamples(r.buf); err != nil {
		return false, fmt.Errorf("write output: %w", err)
	}
	if r.stems != nil {
		r.stems.Flush()
	}

	r.pairs += uint64(len(r.buf) / 2)
	r.frame++
	return r.frame < r.total, nil
}

// applyFade ramps the gain linearly to zero over the final fade frames.
func (r *Renderer) applyFade(samples []int16) {
	if r.fade == 0 || r.frame < r.total-r.fade {
		return
	}
	pairs := len(samples) / 2
	if pairs == 0 {
		return
	}
	into := float64(r.frame - (r.total - r.fade))
	for i := 0; i < pairs; i++ {
		gain := 1 - (into+float64(i)/float64(pairs))/float64(r.fade)
		if gain < 0 {
			gain = 0
		}
		samples[i*2] = int16(float64(samples[i*2]) * gain)
		samples[i*2+1] = int16(float64(samples[i*2+1]) * gain)
	}
}

// Progress reports how far the render has come.
func (r *Renderer) Progress() Progress {
	p := Progress{
		Frame:            r.frame,
		TotalFrames:      r.total,
		Elapsed:          time.Since(r.started),
		RenderedDuration: time.Duration(r.pairs) * time.Second / emu.SampleRate,
		ExpectedDuration: time.Duration(r.total) * time.Second / time.Duration(r.fps),
		OutputSize:       r.sink.Size(),
	}
	if secs := p.Elapsed.Seconds(); secs > 0 {
		p.AverageFPS = float64(r.frame) / secs
	}
	if p.AverageFPS > 0 {
		remaining := float64(r.total-r.frame) / p.AverageFPS
		p.ETA = time.Duration(remaining * float64(time.Second))
	}
	return p
}

// Finish finalizes the output files. It is safe to call more than once.
func (r *Renderer) Finish() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var stemErr error
	if r.stems != nil {
		stemErr = r.stems.Close()
	}
	if err := r.sink.Close(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return stemErr
}
