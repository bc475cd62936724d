package xbin

import (
	"encoding/binary"
	"fmt"

	"github.com/bkaradzic/go-lz4"
	"github.com/pvcod/xfile/lz4block"
	"golang.org/x/crypto/blake2b"
)

// Compressor produces a raw LZ4 block from a payload. The block must not be
// prefixed with the size of the payload.
type Compressor interface {
	Compress(payload []byte) ([]byte, error)
}

// LiteralCompressor produces blocks made of a single literal run. It is the
// default compressor.
type LiteralCompressor struct{}

func (LiteralCompressor) Compress(payload []byte) ([]byte, error) {
	return lz4block.Compress(payload), nil
}

// MatchCompressor produces blocks with back-references, which are smaller
// than those of LiteralCompressor for typical payloads.
type MatchCompressor struct{}

func (MatchCompressor) Compress(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return lz4block.Compress(payload), nil
	}
	data, err := lz4.Encode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	// lz4 prepends the length of the uncompressed payload, so it must be
	// excluded.
	if binary.LittleEndian.Uint32(data[:4]) != uint32(len(payload)) {
		return nil, fmt.Errorf("lz4: uncompressed length does not match payload length")
	}
	return data[4:], nil
}

// CompressorByName returns the compressor with the given name: "literal" or
// "match". An empty name returns the default compressor.
func CompressorByName(name string) (Compressor, error) {
	switch name {
	case "", "literal":
		return LiteralCompressor{}, nil
	case "match":
		return MatchCompressor{}, nil
	}
	return nil, fmt.Errorf("unknown compressor %q", name)
}

// Digest returns the BLAKE2b-256 digest of a decompressed payload.
func Digest(payload []byte) [blake2b.Size256]byte {
	return blake2b.Sum256(payload)
}
