package xbin

import (
	"io"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
)

// Encoder encodes an xfile.Model or xfile.Anim into a stream of bytes.
type Encoder struct {
	// Version is the version of the model format. If zero,
	// xfile.DefaultVersion is used. Anims are always encoded with
	// xfile.AnimVersion.
	Version xfile.FormatVersion

	// Uncompressed sets whether the payload is written without compression.
	Uncompressed bool

	// Compressor produces the compressed payload. If nil, LiteralCompressor
	// is used.
	Compressor Compressor

	// Header is a list of lines written as leading comment records.
	Header []string
}

func (e Encoder) compressor() Compressor {
	if e.Uncompressed {
		return nil
	}
	if e.Compressor == nil {
		return LiteralCompressor{}
	}
	return e.Compressor
}

// EncodeModel formats model according to the XMODEL_BIN format, and writes
// the result to w.
func (e Encoder) EncodeModel(w io.Writer, model *xfile.Model) (warn, err error) {
	if w == nil {
		return nil, errors.New("nil writer")
	}
	if model == nil {
		return nil, errors.New("nil model")
	}

	codec := modelCodec{Version: e.Version, Header: e.Header}
	if codec.Version == 0 {
		codec.Version = xfile.DefaultVersion
	}
	f, warn, err := codec.Encode(model)
	if err != nil {
		return warn, CodecError{Cause: err}
	}

	ws, err := e.encode(w, f)
	return errors.Union(warn, ws), err
}

// EncodeAnim formats anim according to the XANIM_BIN format, and writes the
// result to w.
func (e Encoder) EncodeAnim(w io.Writer, anim *xfile.Anim) (warn, err error) {
	if w == nil {
		return nil, errors.New("nil writer")
	}
	if anim == nil {
		return nil, errors.New("nil anim")
	}

	codec := animCodec{Header: e.Header}
	f, warn, err := codec.Encode(anim)
	if err != nil {
		return warn, CodecError{Cause: err}
	}

	ws, err := e.encode(w, f)
	return errors.Union(warn, ws), err
}

func (e Encoder) encode(w io.Writer, f *formatModel) (warn, err error) {
	if _, err = f.writeTo(w, e.compressor()); err != nil {
		return nil, err
	}
	return nil, nil
}
