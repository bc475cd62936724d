// The xexport package implements the decoding and encoding of the
// XMODEL_EXPORT, XANIM_EXPORT and NT_EXPORT text formats.
//
// Each format is a sequence of lines, each beginning with a keyword followed
// by arguments. A Document holds the lines of a file without interpreting
// them. The Decoder and Encoder convert documents to and from xfile.Model and
// xfile.Anim values.
package xexport

import (
	"io"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
)

// Decoder decodes a text stream into an xfile.Model or xfile.Anim.
type Decoder struct {
	// Name is assigned to decoded models, which do not carry a name within
	// the format.
	Name string
}

func (d Decoder) read(r io.Reader) (*Document, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	doc := &Document{}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeModel reads data from r and decodes it into a model according to the
// XMODEL_EXPORT format.
func (d Decoder) DecodeModel(r io.Reader) (model *xfile.Model, warn, err error) {
	doc, err := d.read(r)
	if err != nil {
		return nil, nil, err
	}
	codec := modelCodec{Name: d.Name}
	return codec.Decode(doc)
}

// DecodeAnim reads data from r and decodes it into an anim according to the
// XANIM_EXPORT format. Notes are decoded when the stream has a NOTETRACKS
// section.
func (d Decoder) DecodeAnim(r io.Reader) (anim *xfile.Anim, warn, err error) {
	doc, err := d.read(r)
	if err != nil {
		return nil, nil, err
	}
	codec := animCodec{}
	return codec.Decode(doc)
}

// DecodeNotetrack reads data from r according to the NT_EXPORT format, and
// replaces the notes of anim with the result.
func (d Decoder) DecodeNotetrack(r io.Reader, anim *xfile.Anim) (warn, err error) {
	if anim == nil {
		return nil, errors.New("nil anim")
	}
	doc, err := d.read(r)
	if err != nil {
		return nil, err
	}
	return decodeNotetrack(doc, anim)
}

// Encoder encodes an xfile.Model or xfile.Anim into a text stream.
type Encoder struct {
	// Version is the version of the model format. If zero,
	// xfile.DefaultVersion is used.
	Version xfile.FormatVersion

	// Header is a list of lines written as leading comments.
	Header []string

	// EmbedNotes sets whether the notes of an anim are written within the
	// XANIM_EXPORT stream. When false, notes are expected to be written
	// separately with EncodeNotetrack.
	EmbedNotes bool
}

func (e Encoder) write(w io.Writer, doc *Document) error {
	doc.Header = e.Header
	_, err := doc.WriteTo(w)
	return err
}

// EncodeModel formats model according to the XMODEL_EXPORT format, and writes
// the result to w.
func (e Encoder) EncodeModel(w io.Writer, model *xfile.Model) (warn, err error) {
	if w == nil {
		return nil, errors.New("nil writer")
	}
	if model == nil {
		return nil, errors.New("nil model")
	}
	codec := modelCodec{Version: e.Version}
	if codec.Version == 0 {
		codec.Version = xfile.DefaultVersion
	}
	doc, warn, err := codec.Encode(model)
	if err != nil {
		return warn, err
	}
	return warn, e.write(w, doc)
}

// EncodeAnim formats anim according to the XANIM_EXPORT format, and writes
// the result to w.
func (e Encoder) EncodeAnim(w io.Writer, anim *xfile.Anim) (warn, err error) {
	if w == nil {
		return nil, errors.New("nil writer")
	}
	if anim == nil {
		return nil, errors.New("nil anim")
	}
	codec := animCodec{EmbedNotes: e.EmbedNotes}
	doc, warn, err := codec.Encode(anim)
	if err != nil {
		return warn, err
	}
	return warn, e.write(w, doc)
}

// EncodeNotetrack formats the notes of anim according to the NT_EXPORT
// format, and writes the result to w.
func (e Encoder) EncodeNotetrack(w io.Writer, anim *xfile.Anim) (warn, err error) {
	if w == nil {
		return nil, errors.New("nil writer")
	}
	if anim == nil {
		return nil, errors.New("nil anim")
	}
	doc, warn := encodeNotetrack(anim)
	return warn, e.write(w, doc)
}
