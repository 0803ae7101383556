package emu

// outputBufferFrames holds two seconds of output, far more than a single
// flush can produce between drains.
const outputBufferFrames = SampleRate * 2

// RingBuffer is a fixed-capacity FIFO of stereo sample pairs. The DSP
// writes one pair per tick and the host drains it.
type RingBuffer struct {
	left  []int16
	right []int16
	head  int
	count int
}

// NewRingBuffer returns a buffer holding up to capacity stereo pairs.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		left:  make([]int16, capacity),
		right: make([]int16, capacity),
	}
}

// Cap returns the capacity in stereo pairs.
func (rb *RingBuffer) Cap() int {
	return len(rb.left)
}

// Len returns the number of buffered stereo pairs.
func (rb *RingBuffer) Len() int {
	return rb.count
}

// WriteSample appends one stereo pair. Writing to a full buffer means the
// host stopped draining and is a programming error.
func (rb *RingBuffer) WriteSample(left, right int16) {
	if rb.count == len(rb.left) {
		panic("emu: output ring buffer overflow")
	}
	i := (rb.head + rb.count) % len(rb.left)
	rb.left[i] = left
	rb.right[i] = right
	rb.count++
}

// ReadSample removes and returns the oldest stereo pair.
func (rb *RingBuffer) ReadSample() (left, right int16, ok bool) {
	if rb.count == 0 {
		return 0, 0, false
	}
	left = rb.left[rb.head]
	right = rb.right[rb.head]
	rb.head = (rb.head + 1) % len(rb.left)
	rb.count--
	return left, right, true
}

// Drain appends every buffered pair to dst as interleaved L/R samples and
// empties the buffer.
func (rb *RingBuffer) Drain(dst []int16) []int16 {
	for rb.count > 0 {
		dst = append(dst, rb.left[rb.head], rb.right[rb.head])
		rb.head = (rb.head + 1) % len(rb.left)
		rb.count--
	}
	return dst
}

// Clear discards all buffered samples.
func (rb *RingBuffer) Clear() {
	rb.head = 0
	rb.count = 0
}
