package emu

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// scopeRange is the amplitude mapped to the full scope height.
	scopeRange = 12000
	// dividerWidth is the width of the shaded edge between scopes, in
	// scratch pixels.
	dividerWidth = 5
)

// scopeWindow returns the amplitudes to draw for a voice. The window is
// centered on the most recent key-on edge that lies before the newest
// window, stepping forward a window at a time so held notes keep
// scrolling.
func (h *voiceHistory) scopeWindow(dst []int16, size int) []int16 {
	dst = dst[:0]
	n := h.count
	if n <= size {
		for i := n; i < size; i++ {
			dst = append(dst, 0)
		}
		for i := 0; i < n; i++ {
			dst = append(dst, h.at(i).Amplitude)
		}
		return dst
	}

	edgeEnd := n - size
	edge := -1
	for i := edgeEnd - 1; i >= 0; i-- {
		if h.at(i).Edge {
			edge = i
			break
		}
	}

	start := edgeEnd
	if edge >= 0 {
		for edge < edgeEnd-size {
			edge += size
		}
		start = edge - size/2
		if start < 0 {
			start = 0
		}
	}
	end := start + size
	if end > n {
		end = n
	}
	for i := start; i < end; i++ {
		dst = append(dst, h.at(i).Amplitude)
	}
	return dst
}

// drawOscilloscope draws one voice's scope at twice the resolution into
// the scratch image and scales it down into place.
func (v *Visualizer) drawOscilloscope(voice int, x, y float64) {
	sw := float64(v.scope.Bounds().Dx())
	sh := float64(v.scope.Bounds().Dy())

	last, _ := v.history[voice].last()
	c := v.voiceColor(voice, last)
	v.window = v.history[voice].scopeWindow(v.window, int(sw))

	fillRect(v.scope, 0, 0, sw, sh, colorBlack)
	if last.Balance <= 0.5 {
		drawScopeGradient(v.scope, 0, sw/2, c)
	}
	if last.Balance >= 0.5 {
		drawScopeGradient(v.scope, sw/2, sw/2, c)
	}

	glow := c
	glow.A = 0x40
	ys := make([]float64, len(v.window))
	for i, s := range v.window {
		ys[i] = math.Max(-5, math.Min(sh+5, (scopeRange/2-float64(s))*sh/scopeRange))
	}
	for i := 1; i < len(ys); i++ {
		drawSegment(v.scope, float64(i-1), ys[i-1], float64(i), ys[i], 1, glow)
	}
	for i := 1; i < len(ys); i++ {
		drawSegment(v.scope, float64(i-1), ys[i-1], float64(i), ys[i], 0, c)
	}

	for dx := 0; dx < dividerWidth; dx++ {
		g := 255 * (dividerWidth - dx) / dividerWidth
		shade := color.NRGBA{A: uint8(g * g / 255)}
		fillRect(v.scope, float64(dx-1), 0, 1, sh, shade)
		fillRect(v.scope, sw-1-float64(dx), 0, 1, sh, shade)
	}

	dst := image.Rect(int(x), int(y), int(x)+scopeWidth, int(y)+scopeHeight)
	draw.ApproxBiLinear.Scale(v.img, dst, v.scope, v.scope.Bounds(), draw.Src, nil)

	d := font.Drawer{
		Dst:  v.img,
		Src:  image.NewUniform(color.NRGBA{0xFF, 0xFF, 0xFF, 0xA0}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(x)+3, int(y)+11),
	}
	d.DrawString(strconv.Itoa(voice + 1))
}

// drawScopeGradient shades a half of the scope, tinted at the top and
// bottom edges and fading to black in the middle.
func drawScopeGradient(img *image.RGBA, x, w float64, c color.NRGBA) {
	h := img.Bounds().Dy()
	for row := 0; row < h; row++ {
		t := math.Abs(float64(row)/float64(h-1)*2 - 1)
		shade := color.NRGBA{
			R: uint8(float64(c.R) * t),
			G: uint8(float64(c.G) * t),
			B: uint8(float64(c.B) * t),
			A: 0x20,
		}
		fillRect(img, x, float64(row), w, 1, shade)
	}
}

// drawSegment draws a line from (x0, y0) to (x1, y1) with the given
// radius, one square per step along the longer axis.
func drawSegment(img *image.RGBA, x0, y0, x1, y1 float64, radius int, c color.NRGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		steps = 1
	}
	size := float64(2*radius + 1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := math.Round(x0 + (x1-x0)*t)
		py := math.Round(y0 + (y1-y0)*t)
		fillRect(img, px-float64(radius), py-float64(radius), size, size, c)
	}
}
