// Package lz4block implements the raw LZ4 block format: a single compression
// unit with no frame header and no checksums.
//
// Decompress accepts any valid block, including blocks with back-references
// produced by other encoders. Compress emits an all-literal block, which every
// compliant decoder accepts.
package lz4block

const (
	// MinMatch is the length added to every encoded match length.
	MinMatch = 4

	// mask of a length selector that is followed by extension bytes.
	extended = 0xF
)

// Decompress decodes the LZ4 block in src, ignoring the first skip bytes. The
// skipped bytes typically hold the uncompressed size of the block, which is not
// interpreted.
func Decompress(src []byte, skip int) ([]byte, error) {
	if skip < 0 || skip > len(src) {
		return nil, CorruptError{Offset: int64(len(src)), Cause: errShortPrefix}
	}
	d := decoder{src: src, pos: skip, dst: make([]byte, 0, 2*(len(src)-skip))}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.dst, nil
}

type decoder struct {
	src []byte
	pos int
	dst []byte
}

func (d *decoder) fail(cause error) error {
	return CorruptError{Offset: int64(d.pos), Cause: cause}
}

// length extends sel with extension bytes when sel is saturated.
func (d *decoder) length(sel int) (int, error) {
	if sel != extended {
		return sel, nil
	}
	for {
		if d.pos >= len(d.src) {
			return 0, d.fail(errShortLength)
		}
		b := d.src[d.pos]
		d.pos++
		sel += int(b)
		if b != 0xFF {
			return sel, nil
		}
	}
}

func (d *decoder) run() error {
	for d.pos < len(d.src) {
		token := d.src[d.pos]
		d.pos++

		n, err := d.length(int(token >> 4))
		if err != nil {
			return err
		}
		if n > len(d.src)-d.pos {
			return d.fail(errShortLiteral)
		}
		d.dst = append(d.dst, d.src[d.pos:d.pos+n]...)
		d.pos += n

		match := int(token & 0xF)
		if d.pos == len(d.src) {
			if match != 0 {
				return d.fail(errPendingMatch)
			}
			return nil
		}

		if len(d.src)-d.pos < 2 {
			return d.fail(errShortOffset)
		}
		offset := int(d.src[d.pos]) | int(d.src[d.pos+1])<<8
		if offset == 0 {
			return d.fail(errZeroOffset)
		}
		d.pos += 2

		if match, err = d.length(match); err != nil {
			return err
		}
		match += MinMatch

		start := len(d.dst) - offset
		if start < 0 {
			return d.fail(errOffsetRange)
		}
		// Source and destination may overlap, so bytes are copied one at a
		// time.
		for i := 0; i < match; i++ {
			d.dst = append(d.dst, d.dst[start+i])
		}
	}
	return nil
}

// Bound returns the size of the block produced by Compress for n bytes of
// input.
func Bound(n int) int {
	if n < extended {
		return 1 + n
	}
	return 1 + (n-extended)/0xFF + 1 + n
}

// Compress encodes src as a single LZ4 block made of one literal run.
func Compress(src []byte) []byte {
	return AppendCompress(make([]byte, 0, Bound(len(src))), src)
}

// AppendCompress appends the compressed form of src to dst and returns the
// extended buffer.
func AppendCompress(dst, src []byte) []byte {
	n := len(src)
	if n < extended {
		dst = append(dst, byte(n<<4))
		return append(dst, src...)
	}
	dst = append(dst, extended<<4)
	for n -= extended; n >= 0xFF; n -= 0xFF {
		dst = append(dst, 0xFF)
	}
	dst = append(dst, byte(n))
	return append(dst, src...)
}
