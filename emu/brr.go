package emu

// brrBlockSize is the size of one compressed BRR block: a header byte
// followed by 16 4-bit samples.
const brrBlockSize = 9

// brrSamplesPerBlock is the number of PCM samples a BRR block expands to.
const brrSamplesPerBlock = 16

// BRRDecoder expands BRR blocks into 16-bit PCM. The predictor history
// carries over from one block to the next so consecutive Read calls
// decode a continuous sample.
type BRRDecoder struct {
	samples [brrSamplesPerBlock]int16
	index   int

	// Last two decoded samples, newest first.
	p1, p2 int32

	// Header flags of the most recently read block.
	IsEnd     bool
	IsLooping bool
}

// Reset clears the decoder and seeds the predictor history. The decoder
// reports finished until the next Read.
func (d *BRRDecoder) Reset(p1, p2 int16) {
	d.p1 = int32(p1)
	d.p2 = int32(p2)
	d.index = brrSamplesPerBlock
	d.IsEnd = false
	d.IsLooping = false
}

// Read decodes a 9-byte block. Shorter input is zero padded.
func (d *BRRDecoder) Read(block []byte) {
	var buf [brrBlockSize]byte
	copy(buf[:], block)

	header := buf[0]
	d.IsEnd = header&0x01 != 0
	d.IsLooping = header&0x02 != 0
	filter := (header >> 2) & 0x03
	shift := uint(header >> 4)

	for i := 0; i < brrSamplesPerBlock; i++ {
		b := buf[1+i/2]
		var nibble int32
		if i&1 == 0 {
			nibble = int32(b >> 4)
		} else {
			nibble = int32(b & 0x0F)
		}
		nibble = (nibble ^ 8) - 8

		s := (nibble << shift) >> 1
		if shift >= 13 {
			// Invalid ranges decode to 0 or -2048 depending on sign.
			s = (s >> 25) << 11
		}

		p1 := d.p1
		p2 := d.p2 >> 1
		switch filter {
		case 1:
			s += p1 >> 1
			s += (-p1) >> 5
		case 2:
			s += p1
			s -= p2
			s += p2 >> 4
			s += (p1 * -3) >> 6
		case 3:
			s += p1
			s -= p2
			s += (p1 * -13) >> 7
			s += (p2 * 3) >> 4
		}

		s = int32(int16(clamp16(s) * 2))
		d.p2 = d.p1
		d.p1 = s
		d.samples[i] = int16(s)
	}
	d.index = 0
}

// IsFinished reports whether every sample of the current block has been
// read.
func (d *BRRDecoder) IsFinished() bool {
	return d.index >= brrSamplesPerBlock
}

// ReadNextSample returns the next decoded sample of the current block.
// Reading past the end of the block repeats the last sample.
func (d *BRRDecoder) ReadNextSample() int16 {
	if d.index >= brrSamplesPerBlock {
		return d.samples[brrSamplesPerBlock-1]
	}
	s := d.samples[d.index]
	d.index++
	return s
}
