package emu

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// Screen dimensions of the visualizer.
const (
	ScreenWidth     = 480
	ScreenHeight    = 270
	MaxScreenHeight = ScreenHeight
)

// Visualizer layout, in screen pixels.
const (
	keyCount     = 108
	keyWidth     = 4.25
	keyHeight    = 36
	scopeWidth   = 60
	scopeHeight  = 24
	rollHeight   = ScreenHeight - keyHeight - scopeHeight
	keysY        = rollHeight
	scopesY      = ScreenHeight - scopeHeight
	rowsPerFrame = 2

	// historySize is the number of states kept per voice for the
	// oscilloscopes. Must be a power of two.
	historySize = 1024
)

// defaultVoiceColors is the per-voice palette used for sources without
// an assigned color.
var defaultVoiceColors = [NumVoices]color.NRGBA{
	{0xFF, 0x52, 0x52, 0xFF},
	{0xFF, 0xAB, 0x40, 0xFF},
	{0xFF, 0xEB, 0x3B, 0xFF},
	{0x69, 0xF0, 0xAE, 0xFF},
	{0x40, 0xC4, 0xFF, 0xFF},
	{0x53, 0x6D, 0xFE, 0xFF},
	{0xE0, 0x40, 0xFB, 0xFF},
	{0xFF, 0x80, 0xAB, 0xFF},
}

var (
	colorBlack     = color.NRGBA{0x00, 0x00, 0x00, 0xFF}
	colorWhite     = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	colorKeyBorder = color.NRGBA{0x18, 0x18, 0x18, 0xFF}
	colorKeyEdge   = color.NRGBA{0x04, 0x04, 0x04, 0xFF}
	colorOutline   = color.NRGBA{0x00, 0x00, 0x00, 0x80}
)

// voiceHistory is a ring of the most recent states of one voice.
type voiceHistory struct {
	states [historySize]VoiceState
	head   int
	count  int
}

func (h *voiceHistory) push(s VoiceState) {
	h.states[h.head] = s
	h.head = (h.head + 1) & (historySize - 1)
	if h.count < historySize {
		h.count++
	}
}

// at returns the i-th state counting from the oldest.
func (h *voiceHistory) at(i int) VoiceState {
	return h.states[(h.head-h.count+i+historySize)&(historySize-1)]
}

func (h *voiceHistory) last() (VoiceState, bool) {
	if h.count == 0 {
		return VoiceState{}, false
	}
	return h.at(h.count - 1), true
}

func (h *voiceHistory) clear() {
	h.head = 0
	h.count = 0
}

// rollSlice is one voice's entry in a piano roll row.
type rollSlice struct {
	voice int
	state VoiceState
}

// Visualizer draws the piano roll, keyboard and oscilloscopes from the
// voice state stream. It implements StateReceiver.
type Visualizer struct {
	img   *image.RGBA
	scope *image.RGBA

	history [NumVoices]voiceHistory

	// Piano roll rows, NumVoices slices per row, newest last.
	slices     []rollSlice
	sliceHead  int
	sliceCount int

	colors    map[uint8]color.NRGBA
	pianoRoll bool

	window []int16
}

// NewVisualizer creates a visualizer with a cleared framebuffer.
func NewVisualizer() *Visualizer {
	v := &Visualizer{
		img:       image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
		scope:     image.NewRGBA(image.Rect(0, 0, scopeWidth*2, scopeHeight*2)),
		slices:    make([]rollSlice, (rollHeight+1)*NumVoices),
		colors:    make(map[uint8]color.NRGBA),
		pianoRoll: true,
		window:    make([]int16, 0, scopeWidth*2),
	}
	fillRect(v.img, 0, 0, ScreenWidth, ScreenHeight, colorBlack)
	return v
}

// ReceiveVoiceState implements StateReceiver.
func (v *Visualizer) ReceiveVoiceState(voice int, state VoiceState) {
	if voice >= 0 && voice < NumVoices {
		v.history[voice].push(state)
	}
}

// SetSourceColor assigns a color to every voice playing the given source.
func (v *Visualizer) SetSourceColor(source uint8, c color.NRGBA) {
	v.colors[source] = c
}

// SetPianoRoll enables or disables the scrolling piano roll.
func (v *Visualizer) SetPianoRoll(enabled bool) {
	v.pianoRoll = enabled
}

// Reset clears the history and the roll.
func (v *Visualizer) Reset() {
	for i := range v.history {
		v.history[i].clear()
	}
	v.sliceHead = 0
	v.sliceCount = 0
}

// Image returns the framebuffer.
func (v *Visualizer) Image() *image.RGBA {
	return v.img
}

// Render draws one frame from the state received so far.
func (v *Visualizer) Render() {
	fillRect(v.img, 0, 0, ScreenWidth, ScreenHeight, colorBlack)
	v.drawPianoRoll()
	for i := 0; i < NumVoices; i++ {
		v.drawOscilloscope(i, float64(i*scopeWidth), scopesY)
	}
}

func (v *Visualizer) voiceColor(voice int, s VoiceState) color.NRGBA {
	if c, ok := v.colors[s.Timbre]; ok {
		return c
	}
	return defaultVoiceColors[voice]
}

// fillRect composites c over the rectangle, rounding edges to pixels.
func fillRect(img draw.Image, x, y, w, h float64, c color.NRGBA) {
	r := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	)
	if r.Empty() {
		return
	}
	op := draw.Over
	if c.A == 0xFF {
		op = draw.Src
	}
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, op)
}

// noteNumber returns the fractional semitone index of f above C0.
func noteNumber(f float64) float64 {
	return 12 * math.Log2(f/noteC0)
}

// ParseSourceColor parses "SOURCE:#RRGGBB" (or #RRGGBBAA). The source
// index accepts decimal, $hex or 0xhex.
func ParseSourceColor(s string) (uint8, color.NRGBA, error) {
	idx, col, ok := strings.Cut(s, ":")
	if !ok {
		return 0, color.NRGBA{}, fmt.Errorf("invalid color %q: expected SOURCE:#RRGGBB", s)
	}
	source, err := ParseByte(idx)
	if err != nil {
		return 0, color.NRGBA{}, err
	}
	c, err := parseHexColor(col)
	if err != nil {
		return 0, color.NRGBA{}, err
	}
	return source, c, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		n = n<<8 | 0xFF
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// ParseByte parses a decimal, $hex or 0xhex byte value.
func ParseByte(s string) (uint8, error) {
	base := 10
	digits := s
	switch {
	case strings.HasPrefix(s, "$"):
		base, digits = 16, s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base, digits = 16, s[2:]
	}
	n, err := strconv.ParseUint(digits, base, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q: %w", s, err)
	}
	return uint8(n), nil
}
