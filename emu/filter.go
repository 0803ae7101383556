package emu

// Filter is the 8-tap FIR applied to one channel of echo input.
// Coefficients are signed Q.7 values, tap 0 weighting the oldest sample.
type Filter struct {
	Coefficients [8]uint8
	history      [8]int32
}

// defaultFIR is the coefficient set the chip powers up with.
var defaultFIR = [8]uint8{0x80, 0xFF, 0x9A, 0xFF, 0x67, 0xFF, 0x0F, 0xFF}

// Next pushes one echo sample through the filter and returns the
// clamped, even result.
func (f *Filter) Next(sample int32) int32 {
	copy(f.history[:7], f.history[1:])
	f.history[7] = sample >> 1

	var out int32
	for i := 0; i < 7; i++ {
		out += (f.history[i] * int32(int8(f.Coefficients[i]))) >> 6
	}
	out = int32(int16(out))
	out += int32(int16((f.history[7] * int32(int8(f.Coefficients[7]))) >> 6))
	return clamp16(out) &^ 1
}

// Reset clears the sample history.
func (f *Filter) Reset() {
	f.history = [8]int32{}
}
