package xbin

import (
	"io"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
)

// Decoder decodes a stream of bytes into an xfile.Model or xfile.Anim.
type Decoder struct {
	// Mode indicates which type of asset is expected by Decompress, Dump and
	// Stat. ModeUnknown accepts either type.
	Mode Mode
}

// DecodeModel reads data from r and decodes it into a model according to the
// XMODEL_BIN format.
func (d Decoder) DecodeModel(r io.Reader) (model *xfile.Model, warn, err error) {
	if r == nil {
		return nil, nil, errors.New("nil reader")
	}

	f, w, err := d.decode(r)
	warn = errors.Union(warn, w)
	if err != nil {
		return nil, warn, err
	}

	// Run codec.
	codec := modelCodec{}
	model, w, err = codec.Decode(f)
	warn = errors.Union(warn, w)
	if err != nil {
		return nil, warn, err
	}
	return model, warn, nil
}

// DecodeAnim reads data from r and decodes it into an anim according to the
// XANIM_BIN format.
func (d Decoder) DecodeAnim(r io.Reader) (anim *xfile.Anim, warn, err error) {
	if r == nil {
		return nil, nil, errors.New("nil reader")
	}

	f, w, err := d.decode(r)
	warn = errors.Union(warn, w)
	if err != nil {
		return nil, warn, err
	}

	codec := animCodec{}
	anim, w, err = codec.Decode(f)
	warn = errors.Union(warn, w)
	if err != nil {
		return nil, warn, err
	}
	return anim, warn, nil
}

// Decompress reencodes a file with an uncompressed payload. The format is
// decoded from r, then encoded to w. Records are copied as is, so the
// grammar of the payload is not checked.
func (d Decoder) Decompress(w io.Writer, r io.Reader) (warn, err error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}

	f, ws, err := d.decode(r)
	warn = errors.Union(warn, ws)
	if err != nil {
		return warn, err
	}
	if err = d.checkMode(f); err != nil {
		return warn, err
	}

	ws, err = Encoder{Uncompressed: true}.encode(w, f)
	warn = errors.Union(warn, ws)
	return warn, err
}

// Stat describes a file without interpreting its records.
type Stat struct {
	Mode       Mode
	Compressed bool
	Version    uint16
	// Size is the length of the decompressed payload.
	Size int
	// Records is the number of records in the payload.
	Records int
	// Digest is the BLAKE2b-256 digest of the decompressed payload.
	Digest [32]byte
}

// Stat reads a file from r and returns a description of it.
func (d Decoder) Stat(r io.Reader) (stat Stat, warn, err error) {
	if r == nil {
		return stat, nil, errors.New("nil reader")
	}

	f, warn, err := d.decode(r)
	if err != nil {
		return stat, warn, err
	}
	if err = d.checkMode(f); err != nil {
		return stat, warn, err
	}
	stat = Stat{
		Mode:       f.Mode(),
		Compressed: f.Compressed,
		Version:    f.Version(),
		Size:       len(f.payload),
		Records:    len(f.Records),
		Digest:     Digest(f.payload),
	}
	return stat, warn, nil
}

func (d Decoder) checkMode(f *formatModel) error {
	if d.Mode == ModeUnknown {
		return nil
	}
	if m := f.Mode(); m != d.Mode {
		return errors.Kind(errors.ErrMalformedStream, errors.New("expected "+d.Mode.String()+", got "+m.String()))
	}
	return nil
}

// decode parses the envelope and records of the format.
func (d Decoder) decode(r io.Reader) (f *formatModel, warn, err error) {
	f = &formatModel{}
	if _, warn, err = f.readFrom(r); err != nil {
		return nil, warn, err
	}
	return f, warn, nil
}
