package ui

import (
	"io"
	"sync"
)

// pcmFrameSize is the size of one 16-bit stereo frame in bytes.
const pcmFrameSize = 4

// PCMBuffer is a thread-safe byte ring of 16-bit stereo PCM implementing
// io.Reader for oto. The emulation goroutine appends samples; oto's
// player pulls bytes. Read blocks when empty. On overflow whole frames
// are dropped from the front so channels never swap.
type PCMBuffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf    []byte
	start  int
	count  int
	closed bool

	scratch []byte
}

// NewPCMBuffer creates a buffer holding up to capacity bytes, rounded
// down to whole frames.
func NewPCMBuffer(capacity int) *PCMBuffer {
	capacity -= capacity % pcmFrameSize
	b := &PCMBuffer{buf: make([]byte, capacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// WriteSamples appends interleaved stereo samples. It never blocks.
func (b *PCMBuffer) WriteSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.scratch = b.scratch[:0]
	for _, s := range samples {
		b.scratch = append(b.scratch, byte(s), byte(s>>8))
	}
	p := b.scratch
	p = p[:len(p)-len(p)%pcmFrameSize]

	size := len(b.buf)
	if len(p) > size {
		p = p[len(p)-size:]
	}
	if over := b.count + len(p) - size; over > 0 {
		b.start = (b.start + over) % size
		b.count -= over
	}

	end := (b.start + b.count) % size
	n := copy(b.buf[end:], p)
	copy(b.buf, p[n:])
	b.count += len(p)

	b.cond.Signal()
}

// Read implements io.Reader. Returns io.EOF once closed and drained.
func (b *PCMBuffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 {
		if b.closed {
			return 0, io.EOF
		}
		b.cond.Wait()
	}

	n := len(p)
	if n > b.count {
		n = b.count
	}
	first := copy(p[:n], b.buf[b.start:])
	copy(p[first:n], b.buf)
	b.start = (b.start + n) % len(b.buf)
	b.count -= n
	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (b *PCMBuffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Clear discards buffered audio.
func (b *PCMBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = 0
	b.count = 0
}

// Close wakes any blocked reader. Reads drain what is left, then return
// io.EOF.
func (b *PCMBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}
