package render

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/user-none/emspc/emu"
)

// wavHeaderSize is the size of a canonical 16-bit PCM WAV header.
const wavHeaderSize = 44

// writeTestSPC writes a silent SPC with a 2 second play length and a
// half second fade.
func writeTestSPC(t *testing.T, tagged bool) string {
	t.Helper()
	data := make([]byte, 0x10200)
	copy(data, "SNES-SPC700 Sound File Data v0.30")
	data[0x21] = 0x1A
	data[0x22] = 0x1A
	data[0x24] = 30
	if tagged {
		data[0x23] = 26
		copy(data[0x2E:], "Song")
		copy(data[0xA9:], "2")
		copy(data[0xAC:], "500")
	} else {
		data[0x23] = 27
	}
	// FLG: echo writes off.
	data[0x10100+0x6C] = 0x20

	path := filepath.Join(t.TempDir(), "test.spc")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFrameCounts(t *testing.T) {
	tagged := &emu.SPC{PlayTime: 2 * time.Second, FadeTime: 500 * time.Millisecond}

	tests := []struct {
		name      string
		stop      StopCondition
		fade      uint64
		spc       *emu.SPC
		wantTotal uint64
		wantFade  uint64
	}{
		{"frames", StopCondition{Kind: StopFrames, Frames: 100}, 30, nil, 100, 30},
		{"time", StopCondition{Kind: StopTime, Seconds: 1.01}, 0, nil, 61, 0},
		{"fade longer than render", StopCondition{Kind: StopFrames, Frames: 10}, 30, nil, 10, 10},
		{"spc tag", StopCondition{Kind: StopSPC}, 180, tagged, 150, 30},
		{"spc without fade", StopCondition{Kind: StopSPC}, 12, &emu.SPC{PlayTime: time.Second}, 60, 12},
	}
	for _, tt := range tests {
		total, fade, err := frameCounts(tt.stop, tt.fade, tt.spc, 60)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if total != tt.wantTotal || fade != tt.wantFade {
			t.Errorf("%s: total=%d fade=%d, want %d and %d", tt.name, total, fade, tt.wantTotal, tt.wantFade)
		}
	}

	if _, _, err := frameCounts(StopCondition{Kind: StopSPC}, 0, &emu.SPC{}, 60); !errors.Is(err, ErrNoPlayLength) {
		t.Errorf("untagged spc stop: got %v, want ErrNoPlayLength", err)
	}
}

func TestApplyFade(t *testing.T) {
	r := &Renderer{total: 10, fade: 4}
	samples := []int16{1000, -1000, 1000, -1000}

	r.frame = 5
	r.applyFade(samples)
	if samples[0] != 1000 || samples[1] != -1000 {
		t.Errorf("faded before the fade window: %v", samples)
	}

	r.frame = 6
	r.applyFade(samples)
	if samples[0] != 1000 {
		t.Errorf("fade should start at full gain, got %d", samples[0])
	}
	if samples[2] != 875 || samples[3] != -875 {
		t.Errorf("second pair = %d, %d, want 875, -875", samples[2], samples[3])
	}

	samples = []int16{1000, 1000, 1000, 1000}
	r.frame = 9
	r.applyFade(samples)
	if samples[0] != 250 || samples[2] != 125 {
		t.Errorf("last frame = %v, want 250 then 125", samples)
	}
}

func TestProgress_Fraction(t *testing.T) {
	if (Progress{}).Fraction() != 0 {
		t.Error("empty progress should be 0")
	}
	if got := (Progress{Frame: 30, TotalFrames: 120}).Fraction(); got != 0.25 {
		t.Errorf("Fraction = %f, want 0.25", got)
	}
}

func TestNew_WarnsWhenNoVoicesKeyed(t *testing.T) {
	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	tests := []struct {
		name string
		kon  byte
		warn bool
	}{
		{"no voices keyed", 0x00, true},
		{"voice 0 keyed", 0x01, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logged.Reset()
			path := writeTestSPC(t, false)
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			data[0x10100+0x4C] = tt.kon
			if err := os.WriteFile(path, data, 0644); err != nil {
				t.Fatal(err)
			}

			opts := DefaultOptions()
			opts.InputPath = path
			opts.OutputPath = filepath.Join(t.TempDir(), "out.raw")
			opts.Stop = StopCondition{Kind: StopFrames, Frames: 1}
			r, err := New(opts)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer r.Finish()

			got := bytes.Contains(logged.Bytes(), []byte("keys on no voices"))
			if got != tt.warn {
				t.Errorf("warning logged = %v, want %v (log: %q)", got, tt.warn, logged.String())
			}
		})
	}
}

func TestRender_WAV(t *testing.T) {
	opts := DefaultOptions()
	opts.InputPath = writeTestSPC(t, false)
	opts.OutputPath = filepath.Join(t.TempDir(), "out.wav")
	opts.Stop = StopCondition{Kind: StopFrames, Frames: 3}

	r, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for {
		more, err := r.Step()
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if !more {
			break
		}
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := r.Finish(); err != nil {
		t.Errorf("second Finish failed: %v", err)
	}

	data, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	// 3 NTSC frames are 1600 stereo pairs.
	wantData := 1600 * 4
	if len(data) != wavHeaderSize+wantData {
		t.Fatalf("file is %d bytes, want %d", len(data), wavHeaderSize+wantData)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:16]) != "WAVEfmt " || string(data[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q", data[:wavHeaderSize])
	}
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(data[4:]), uint32(36 + wantData)},
		{"format", uint32(binary.LittleEndian.Uint16(data[20:])), 1},
		{"channels", uint32(binary.LittleEndian.Uint16(data[22:])), 2},
		{"rate", binary.LittleEndian.Uint32(data[24:]), 32000},
		{"byte rate", binary.LittleEndian.Uint32(data[28:]), 128000},
		{"block align", uint32(binary.LittleEndian.Uint16(data[32:])), 4},
		{"bits", uint32(binary.LittleEndian.Uint16(data[34:])), 16},
		{"data size", binary.LittleEndian.Uint32(data[40:]), uint32(wantData)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	// Samples land after the header in interleaved order.
	dec := wav.NewDecoder(bytes.NewReader(data))
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode written WAV: %v", err)
	}
	if pcm.Format.NumChannels != 2 || len(pcm.Data) != 3200 {
		t.Errorf("decoded %d channels, %d samples; want 2 and 3200", pcm.Format.NumChannels, len(pcm.Data))
	}

	p := r.Progress()
	if p.Frame != 3 || p.Fraction() != 1 {
		t.Errorf("progress %+v", p)
	}
	if p.RenderedDuration != 50*time.Millisecond {
		t.Errorf("rendered %v, want 50ms", p.RenderedDuration)
	}
}

func TestRender_RawAndStems(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.InputPath = writeTestSPC(t, true)
	opts.OutputPath = filepath.Join(dir, "song.pcm")
	opts.StemsDir = filepath.Join(dir, "stems")
	opts.Stop = StopCondition{Kind: StopFrames, Frames: 2}

	r, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for more := true; more; {
		if more, err = r.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	info, err := os.Stat(opts.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != r.Progress().OutputSize || info.Size()%4 != 0 {
		t.Errorf("raw output is %d bytes, progress says %d", info.Size(), r.Progress().OutputSize)
	}

	for i := 1; i <= emu.NumVoices; i++ {
		path := filepath.Join(opts.StemsDir, "song.voice"+string(rune('0'+i))+".wav")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stem %d missing: %v", i, err)
		}
	}
}

func TestRender_SPCStopNeedsTag(t *testing.T) {
	opts := DefaultOptions()
	opts.InputPath = writeTestSPC(t, false)
	opts.OutputPath = filepath.Join(t.TempDir(), "out.wav")
	opts.Stop = StopCondition{Kind: StopSPC}

	if _, err := New(opts); !errors.Is(err, ErrNoPlayLength) {
		t.Errorf("got %v, want ErrNoPlayLength", err)
	}
}

func TestRender_MissingInput(t *testing.T) {
	opts := DefaultOptions()
	opts.InputPath = filepath.Join(t.TempDir(), "missing.spc")
	opts.OutputPath = filepath.Join(t.TempDir(), "out.wav")

	if _, err := New(opts); err == nil {
		t.Error("expected an error for a missing input")
	}
}
