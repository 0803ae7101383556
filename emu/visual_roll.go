package emu

import (
	"image"
	"image/color"
	"math"
	"sort"
)

type pianoKey uint8

const (
	keyWhiteLeft pianoKey = iota
	keyWhiteCenter
	keyWhiteRight
	keyBlack
)

// octaveKeys is the key shape of each semitone starting at C.
var octaveKeys = [12]pianoKey{
	keyWhiteLeft,   // C
	keyBlack,       // C#
	keyWhiteCenter, // D
	keyBlack,       // D#
	keyWhiteRight,  // E
	keyWhiteLeft,   // F
	keyBlack,       // F#
	keyWhiteCenter, // G
	keyBlack,       // G#
	keyWhiteCenter, // A
	keyBlack,       // A#
	keyWhiteRight,  // B
}

func keysX() float64 {
	return (ScreenWidth - keyWidth*keyCount) / 2
}

// drawPianoRoll pushes this frame's voice states into the roll and draws
// the roll, the keyboard and the sounding keys.
func (v *Visualizer) drawPianoRoll() {
	var current []rollSlice
	for i := range v.history {
		if s, ok := v.history[i].last(); ok {
			current = append(current, rollSlice{voice: i, state: s})
		}
	}
	sort.SliceStable(current, func(a, b int) bool {
		return current[a].state.KeyOnTick < current[b].state.KeyOnTick
	})
	for r := 0; r < rowsPerFrame; r++ {
		for _, s := range current {
			v.pushSlice(s)
		}
	}

	if v.pianoRoll {
		v.drawSlices(true)
		v.drawSlices(false)
	}

	v.drawKeys()
	for _, s := range current {
		v.drawKeySpot(s)
	}
}

func (v *Visualizer) pushSlice(s rollSlice) {
	v.slices[v.sliceHead] = s
	v.sliceHead = (v.sliceHead + 1) % len(v.slices)
	if v.sliceCount < len(v.slices) {
		v.sliceCount++
	}
}

// drawSlices draws the roll with the newest row at the top. The outline
// pass darkens a border around every bar.
func (v *Visualizer) drawSlices(outline bool) {
	x0 := keysX()
	for i := 0; i < v.sliceCount; i++ {
		row := i / NumVoices
		if row > rollHeight {
			break
		}
		s := v.slices[(v.sliceHead-1-i+len(v.slices))%len(v.slices)]
		if s.state.Volume == 0 || s.state.Frequency <= 0 {
			continue
		}

		w := float64(s.state.Volume) / 2
		if w < 1 {
			w = 1
		}
		x := x0 + keyWidth*noteNumber(s.state.Frequency) - w/2
		y := float64(row)

		if outline {
			fillRect(v.img, x-1, y-1, w+2, 3, colorOutline)
		} else {
			fillRect(v.img, x, y, w, 1, v.voiceColor(s.voice, s.state))
		}
	}
}

func (v *Visualizer) drawKeys() {
	x0 := keysX()
	fillRect(v.img, 0, keysY, ScreenWidth, keyHeight+1, colorKeyEdge)
	fillRect(v.img, x0, keysY, keyWidth*keyCount, keyHeight, colorKeyBorder)
	for i := 0; i < keyCount; i++ {
		k := octaveKeys[i%12]
		c := colorWhite
		if k == keyBlack {
			c = colorBlack
		}
		drawKey(v.img, k, x0+keyWidth*float64(i), keysY, keyWidth, keyHeight, c)
	}
	fillRect(v.img, 0, keysY, ScreenWidth, 1, colorKeyEdge)
}

// drawKeySpot lights the two keys around a voice's note, weighted by
// how close the note is to each.
func (v *Visualizer) drawKeySpot(s rollSlice) {
	if s.state.Volume == 0 || s.state.Frequency <= 0 {
		return
	}
	c := v.voiceColor(s.voice, s.state)
	alpha := 0.5 + float64(s.state.Volume)/30

	n := noteNumber(s.state.Frequency)
	octave := math.Floor(n / 12)
	note := n - 12*octave

	lowerNote := math.Floor(note)
	upperNote := math.Ceil(note)
	upperOctave := octave + math.Floor(upperNote/12)
	upperNote = math.Mod(upperNote, 12)

	frac := note - lowerNote
	x0 := keysX()
	lower := c
	lower.A = alphaByte(alpha * (1 - frac))
	drawKey(v.img, octaveKeys[int(lowerNote)%12], x0+keyWidth*(lowerNote+12*octave), keysY, keyWidth, keyHeight, lower)

	upper := c
	upper.A = alphaByte(alpha * frac)
	drawKey(v.img, octaveKeys[int(upperNote)], x0+keyWidth*(upperNote+12*upperOctave), keysY, keyWidth, keyHeight, upper)
}

func alphaByte(a float64) uint8 {
	return uint8(math.Max(0, math.Min(255, 255*a)))
}

// drawKey fills the outline of one key centered on x. White keys are
// wider below the black keys.
func drawKey(img *image.RGBA, k pianoKey, x, y, w, h float64, c color.NRGBA) {
	switch k {
	case keyWhiteLeft:
		fillRect(img, x-w/2+1, y+1, w-1, h-1, c)
		fillRect(img, x+w/2, y+h/2+1, w/2, h/2-1, c)
	case keyWhiteCenter:
		fillRect(img, x-w/2+1, y+1, w-1, h/2, c)
		fillRect(img, x-w+1, y+h/2+1, w*2-1, h/2-1, c)
	case keyWhiteRight:
		fillRect(img, x-w/2+1, y+1, w-1, h-1, c)
		fillRect(img, x-w+1, y+h/2+1, w/2, h/2-1, c)
	case keyBlack:
		fillRect(img, x-w/2, y+1, w+1, h/2, c)
	}
}
