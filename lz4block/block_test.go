package lz4block

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	golz4 "github.com/bkaradzic/go-lz4"
	"github.com/pierrec/lz4/v4"
	"github.com/pvcod/xfile/errors"
)

func TestDecompressLiteral(t *testing.T) {
	out, err := Decompress([]byte{0x40, 0x41, 0x42, 0x43, 0x44}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(out) != "ABCD" {
		t.Errorf("expected ABCD, got %q", out)
	}
}

func TestDecompressSkip(t *testing.T) {
	out, err := Decompress([]byte{4, 0, 0, 0, 0x40, 'A', 'B', 'C', 'D'}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(out) != "ABCD" {
		t.Errorf("expected ABCD, got %q", out)
	}
}

func TestDecompressMatch(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		out  string
	}{
		// "ab", then copy 6 from offset 2 (overlapping), then "c".
		{"overlap", []byte{0x22, 'a', 'b', 0x02, 0x00, 0x10, 'c'}, "abababab" + "c"},
		// Single byte repeated through an offset of 1.
		{"run", []byte{0x11, 'x', 0x01, 0x00, 0x00}, "xxxxxx"},
		// Extended match length: 15 + 3 + 4.
		{"extended match", []byte{0x1F, 'z', 0x01, 0x00, 0x03, 0x00}, "z" + string(bytes.Repeat([]byte{'z'}, 22))},
		{"empty literal", []byte{0x00}, ""},
		{"empty", []byte{}, ""},
	}
	for _, test := range tests {
		out, err := Decompress(test.in, 0)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", test.name, err)
			continue
		}
		if string(out) != test.out {
			t.Errorf("%s: expected %q, got %q", test.name, test.out, out)
		}
	}
}

func TestDecompressCorrupt(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		skip int
	}{
		{"truncated length", []byte{0xF0, 0xFF}, 0},
		{"truncated literal", []byte{0x50, 'a', 'b'}, 0},
		{"truncated offset", []byte{0x10, 'a', 0x01}, 0},
		{"zero offset", []byte{0x10, 'a', 0x00, 0x00, 0x00}, 0},
		{"offset range", []byte{0x10, 'a', 0x02, 0x00, 0x00}, 0},
		{"pending match", []byte{0x14, 'a'}, 0},
		{"short prefix", []byte{0x00}, 4},
	}
	for _, test := range tests {
		_, err := Decompress(test.in, test.skip)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
			continue
		}
		if !errors.Is(err, errors.ErrCorruptData) {
			t.Errorf("%s: expected corrupt data, got %v", test.name, err)
		}
		var cerr CorruptError
		if !errors.As(err, &cerr) {
			t.Errorf("%s: expected CorruptError, got %T", test.name, err)
		}
	}
}

func testInputs() [][]byte {
	r := rand.New(rand.NewSource(1))
	random := make([]byte, 5000)
	r.Read(random)
	return [][]byte{
		{},
		[]byte("A"),
		[]byte("fourteen bytes"),
		[]byte("fifteen bytes!!"),
		[]byte("sixteen bytes!!!"),
		bytes.Repeat([]byte("xmodel"), 45),
		bytes.Repeat([]byte{0}, 270),
		bytes.Repeat([]byte{0}, 15+255),
		bytes.Repeat([]byte{7}, 15+255*2),
		random,
	}
}

func TestRoundTrip(t *testing.T) {
	for i, in := range testInputs() {
		block := Compress(in)
		if len(block) != Bound(len(in)) {
			t.Errorf("input %d: expected block of %d bytes, got %d", i, Bound(len(in)), len(block))
		}
		out, err := Decompress(block, 0)
		if err != nil {
			t.Errorf("input %d: unexpected error: %s", i, err)
			continue
		}
		if !bytes.Equal(in, out) {
			t.Errorf("input %d: round trip mismatch", i)
		}
	}
}

func TestLiteralEncoding(t *testing.T) {
	tests := []struct {
		n      int
		header []byte
	}{
		{0, []byte{0x00}},
		{14, []byte{0xE0}},
		{15, []byte{0xF0, 0x00}},
		{16, []byte{0xF0, 0x01}},
		{15 + 255, []byte{0xF0, 0xFF, 0x00}},
		{15 + 256, []byte{0xF0, 0xFF, 0x01}},
	}
	for _, test := range tests {
		block := Compress(make([]byte, test.n))
		if !bytes.Equal(block[:len(test.header)], test.header) {
			t.Errorf("length %d: expected header % X, got % X", test.n, test.header, block[:len(test.header)])
		}
	}
}

func TestInteropPierrec(t *testing.T) {
	for i, in := range testInputs() {
		if len(in) == 0 {
			continue
		}
		// Blocks from Compress must be accepted by an independent decoder.
		out := make([]byte, len(in))
		n, err := lz4.UncompressBlock(Compress(in), out)
		if err != nil {
			t.Errorf("input %d: pierrec decode: %s", i, err)
		} else if !bytes.Equal(in, out[:n]) {
			t.Errorf("input %d: pierrec decoded mismatch", i)
		}

		// Blocks with real matches must be accepted by Decompress.
		block := make([]byte, lz4.CompressBlockBound(len(in)))
		n, err = lz4.CompressBlock(in, block, nil)
		if err != nil {
			t.Errorf("input %d: pierrec encode: %s", i, err)
			continue
		}
		if n == 0 {
			// Incompressible.
			continue
		}
		got, err := Decompress(block[:n], 0)
		if err != nil {
			t.Errorf("input %d: unexpected error: %s", i, err)
		} else if !bytes.Equal(in, got) {
			t.Errorf("input %d: decoded mismatch", i)
		}
	}
}

func TestInteropGoLZ4(t *testing.T) {
	for i, in := range testInputs() {
		if len(in) == 0 {
			continue
		}
		// go-lz4 prefixes blocks with the uncompressed size.
		enc, err := golz4.Encode(nil, in)
		if err != nil {
			t.Errorf("input %d: go-lz4 encode: %s", i, err)
			continue
		}
		got, err := Decompress(enc, 4)
		if err != nil {
			t.Errorf("input %d: unexpected error: %s", i, err)
		} else if !bytes.Equal(in, got) {
			t.Errorf("input %d: decoded mismatch", i)
		}

		prefixed := make([]byte, 4, 4+Bound(len(in)))
		binary.LittleEndian.PutUint32(prefixed, uint32(len(in)))
		prefixed = AppendCompress(prefixed, in)
		dec, err := golz4.Decode(nil, prefixed)
		if err != nil {
			t.Errorf("input %d: go-lz4 decode: %s", i, err)
		} else if !bytes.Equal(in, dec) {
			t.Errorf("input %d: go-lz4 decoded mismatch", i)
		}
	}
}
