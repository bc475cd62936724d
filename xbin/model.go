package xbin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/anaminus/parse"
	"github.com/pvcod/xfile/errors"
	"github.com/pvcod/xfile/lz4block"
)

// formatModel models the binary file format. Directly, it can be used to
// control exactly how a file is encoded.
type formatModel struct {
	// Compressed indicates whether the payload is stored as an LZ4 block.
	Compressed bool

	// Size is the length of the decompressed payload, as declared by the
	// file.
	Size uint32

	// Records is the list of records in the payload.
	Records []record

	// payload is the decompressed payload, as read from a file.
	payload []byte
}

// Mode returns the kind of asset held by the model, determined by the first
// record that is not a comment.
func (f *formatModel) Mode() Mode {
	for _, rec := range f.Records {
		switch rec.Tag() {
		case tagComment:
			continue
		case tagModel:
			return ModeModel
		case tagAnimation:
			return ModeAnim
		}
		break
	}
	return ModeUnknown
}

// Version returns the content of the first version record, or 0.
func (f *formatModel) Version() uint16 {
	for _, rec := range f.Records {
		if rec, ok := rec.(*recVersion); ok {
			return rec.Version
		}
	}
	return 0
}

////////////////////////////////////////////////////////////////

func decodeError(r *parse.BinaryReader, err error) error {
	r.Add(0, err)
	err = r.Err()
	if err != nil {
		return DataError{Offset: r.N(), Cause: err}
	}
	return nil
}

// readEnvelope reads the magic and payload of a file, decompressing the
// payload if necessary.
func readEnvelope(fr *parse.BinaryReader, f *formatModel) (payload []byte, failed bool) {
	magic := make([]byte, len(magicRaw))
	if fr.Bytes(magic) {
		return nil, true
	}
	switch string(magic) {
	case magicCompressed:
		f.Compressed = true
	case magicRaw:
		f.Compressed = false
	default:
		fr.Add(0, ErrInvalidSig)
		return nil, true
	}

	data, failed := fr.All()
	if failed {
		return nil, true
	}
	if len(data) < sizeLength {
		fr.Add(0, io.ErrUnexpectedEOF)
		return nil, true
	}
	f.Size = binary.LittleEndian.Uint32(data)

	if !f.Compressed {
		payload = data[sizeLength:]
	} else {
		var err error
		if payload, err = lz4block.Decompress(data, sizeLength); err != nil {
			fr.Add(0, err)
			return nil, true
		}
	}
	if uint32(len(payload)) != f.Size {
		fr.Add(0, errors.Kind(errors.ErrCorruptData, errSizeMismatch{Size: f.Size, Actual: len(payload)}))
		return nil, true
	}
	return payload, false
}

// writeEnvelope writes the magic and payload of a file, compressing the
// payload with c if it is not nil.
func writeEnvelope(fw *parse.BinaryWriter, payload []byte, c Compressor) bool {
	magic := magicRaw
	if c != nil {
		magic = magicCompressed
	}
	if fw.Bytes([]byte(magic)) {
		return true
	}
	if fw.Number(uint32(len(payload))) {
		return true
	}
	if c == nil {
		return fw.Bytes(payload)
	}
	block, err := c.Compress(payload)
	if fw.Add(0, err) {
		return true
	}
	return fw.Bytes(block)
}

// readRecords parses the records of a payload. Records that fail to parse are
// kept as recErrored, and unknown records as recUnknown; both produce
// warnings.
func readRecords(payload []byte, f *formatModel) (warn error, err error) {
	var warns errors.Errors
	fr := parse.NewBinaryReader(bytes.NewReader(payload))
	color := true
	for i := 0; fr.N() < int64(len(payload)); i++ {
		raw := new(rawRecord)
		if raw.read(fr, int64(len(payload))-fr.N()) {
			return warns.Return(), decodeError(fr, nil)
		}

		gen := recordGenerator(raw.tag, color)
		if gen == nil {
			f.Records = append(f.Records, &recUnknown{tag: raw.tag, Bytes: raw.content})
			warns = append(warns, RecordError{Index: i, Tag: raw.tag, Cause: ErrUnknownTag})
			continue
		}

		rec := gen()
		n, err := rec.ReadFrom(bytes.NewReader(raw.content))
		if err == nil && n < int64(len(raw.content)) {
			err = ErrTrailingBytes
		}
		if err != nil {
			warns = append(warns, RecordError{Index: i, Tag: raw.tag, Cause: err})
			f.Records = append(f.Records, &recErrored{
				record: rec,
				Offset: n,
				Cause:  err,
				Bytes:  raw.content,
			})
			continue
		}

		if v, ok := rec.(*recVersion); ok {
			color = hasVertexColor(v.Version)
		}
		f.Records = append(f.Records, rec)
	}
	return warns.Return(), nil
}

// writeRecords encodes the records of f as a payload.
func writeRecords(f *formatModel) ([]byte, error) {
	var buf bytes.Buffer
	fw := parse.NewBinaryWriter(&buf)
	var content bytes.Buffer
	for i, rec := range f.Records {
		content.Reset()
		if _, err := rec.WriteTo(&content); err != nil {
			return nil, RecordError{Index: i, Tag: rec.Tag(), Cause: err}
		}
		raw := rawRecord{tag: rec.Tag(), content: content.Bytes()}
		if raw.write(fw) {
			break
		}
	}
	if _, err := fw.End(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readFrom decodes the format from r.
func (f *formatModel) readFrom(r io.Reader) (n int64, warn, err error) {
	fr := parse.NewBinaryReader(r)
	payload, failed := readEnvelope(fr, f)
	if failed {
		return fr.N(), nil, decodeError(fr, nil)
	}
	f.payload = payload
	warn, err = readRecords(payload, f)
	return fr.N(), warn, err
}

// writeTo encodes the format to w. The payload is compressed with c, or
// stored as is if c is nil.
func (f *formatModel) writeTo(w io.Writer, c Compressor) (n int64, err error) {
	payload, err := writeRecords(f)
	if err != nil {
		return 0, err
	}
	fw := parse.NewBinaryWriter(w)
	writeEnvelope(fw, payload, c)
	return fw.End()
}

// recordHeaderLength is the size of the tag and length of a record.
const recordHeaderLength = 6

type errRecordLength struct {
	Length uint32
	Remain int64
}

func (err errRecordLength) Error() string {
	return fmt.Sprintf("record length %d exceeds %d remaining bytes", err.Length, err.Remain)
}

type errSizeMismatch struct {
	Size   uint32
	Actual int
}

func (err errSizeMismatch) Error() string {
	return fmt.Sprintf("payload size %d does not match declared size %d", err.Actual, err.Size)
}
