package xbin

import (
	"io"

	"github.com/anaminus/parse"
)

////////////////////////////////////////////////////////////////

func readString(f *parse.BinaryReader, data *string) (failed bool) {
	if f.Err() != nil {
		return true
	}

	var length uint32
	if f.Number(&length) {
		return true
	}

	// The declared length is untrusted; memory grows only with the data read.
	var s []byte
	var chunk [512]byte
	for left := int64(length); left > 0; {
		k := min(left, int64(len(chunk)))
		if f.Bytes(chunk[:k]) {
			return true
		}
		s = append(s, chunk[:k]...)
		left -= k
	}

	*data = string(s)

	return false
}

func writeString(f *parse.BinaryWriter, data string) (failed bool) {
	if f.Err() != nil {
		return true
	}

	if f.Number(uint32(len(data))) {
		return true
	}

	return f.Bytes([]byte(data))
}

func readVec3(f *parse.BinaryReader, v *[3]float32) (failed bool) {
	for i := range v {
		if f.Number(&v[i]) {
			return true
		}
	}
	return false
}

func writeVec3(f *parse.BinaryWriter, v [3]float32) (failed bool) {
	for _, c := range v {
		if f.Number(c) {
			return true
		}
	}
	return false
}

////////////////////////////////////////////////////////////////

// record is a tagged unit of the payload.
type record interface {
	// Tag returns the tag used to identify the record's type.
	Tag() uint16

	// ReadFrom processes the content of a record.
	ReadFrom(r io.Reader) (n int64, err error)

	// WriteTo writes the content of a record.
	WriteTo(w io.Writer) (n int64, err error)
}

// recordGenerator returns a function that generates a record of the given
// tag, or nil if the tag is unknown. color indicates whether triangle records
// carry vertex colors.
func recordGenerator(tag uint16, color bool) func() record {
	switch tag {
	case tagComment:
		return func() record { return new(recComment) }
	case tagModel:
		return func() record { return new(recModel) }
	case tagAnimation:
		return func() record { return new(recAnimation) }
	case tagVersion:
		return func() record { return new(recVersion) }
	case tagNumBones, tagBoneIndex, tagNumMaterials, tagNumObjects,
		tagNumVerts, tagNumFaces, tagNumParts, tagNumFrames, tagPartIndex, tagNumKeys:
		return func() record { return &recCount{tag: tag} }
	case tagBone:
		return func() record { return new(recBone) }
	case tagOffset, tagX, tagY, tagZ:
		return func() record { return &recVec3{tag: tag} }
	case tagMaterial:
		return func() record { return new(recMaterial) }
	case tagObject, tagPart:
		return func() record { return &recName{tag: tag} }
	case tagVert:
		return func() record { return new(recVert) }
	case tagTri:
		return func() record { return &recTri{Color: color} }
	case tagFramerate:
		return func() record { return new(recFramerate) }
	case tagFrame:
		return func() record { return new(recFrame) }
	case tagNote:
		return func() record { return new(recNote) }
	}
	return nil
}

// rawRecord is a record as it appears in the payload.
type rawRecord struct {
	tag     uint16
	content []byte
}

// read reads a record from fr. remain is the number of bytes left in the
// payload, including the record header.
func (c *rawRecord) read(fr *parse.BinaryReader, remain int64) bool {
	if fr.Number(&c.tag) {
		return true
	}

	var length uint32
	if fr.Number(&length) {
		return true
	}
	if int64(length) > remain-recordHeaderLength {
		fr.Add(0, errRecordLength{Length: length, Remain: remain - recordHeaderLength})
		return true
	}

	c.content = make([]byte, length)
	return fr.Bytes(c.content)
}

func (c *rawRecord) write(fw *parse.BinaryWriter) bool {
	if fw.Number(c.tag) {
		return true
	}
	if fw.Number(uint32(len(c.content))) {
		return true
	}
	return fw.Bytes(c.content)
}

////////////////////////////////////////////////////////////////

// recUnknown is a record that is not known by the format.
type recUnknown struct {
	tag   uint16
	Bytes []byte
}

func (c *recUnknown) Tag() uint16 { return c.tag }

func (c *recUnknown) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	c.Bytes, _ = fr.All()
	return fr.End()
}

func (c *recUnknown) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	fw.Bytes(c.Bytes)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recErrored is a record that has errored.
type recErrored struct {
	// The state of the record as the error occurred.
	record

	// Offset is the number of bytes parsed before the error occurred.
	Offset int64

	// The error that occurred.
	Cause error

	// The raw bytes of the record.
	Bytes []byte
}

func (c *recErrored) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	c.Bytes, _ = fr.All()
	return fr.End()
}

func (c *recErrored) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	fw.Bytes(c.Bytes)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recComment holds a line of free text, such as the name of the exporting
// tool.
type recComment struct {
	Text string
}

func (recComment) Tag() uint16 { return tagComment }

func (c *recComment) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	b, _ := fr.All()
	c.Text = string(b)
	return fr.End()
}

func (c *recComment) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	fw.Bytes([]byte(c.Text))
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recModel starts a model.
type recModel struct {
	Name string
}

func (recModel) Tag() uint16 { return tagModel }

func (c *recModel) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	readString(fr, &c.Name)
	return fr.End()
}

func (c *recModel) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	writeString(fw, c.Name)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recAnimation starts an anim. It has no content.
type recAnimation struct{}

func (recAnimation) Tag() uint16 { return tagAnimation }

func (c *recAnimation) ReadFrom(r io.Reader) (n int64, err error) {
	return 0, nil
}

func (c *recAnimation) WriteTo(w io.Writer) (n int64, err error) {
	return 0, nil
}

////////////////////////////////////////////////////////////////

type recVersion struct {
	Version uint16
}

func (recVersion) Tag() uint16 { return tagVersion }

func (c *recVersion) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	fr.Number(&c.Version)
	return fr.End()
}

func (c *recVersion) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	fw.Number(c.Version)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recCount holds a single unsigned number. It is used both for the size of a
// following list of records, and for the index of the bone or part that
// following records apply to.
type recCount struct {
	tag   uint16
	Value uint32
}

func (c *recCount) Tag() uint16 { return c.tag }

func (c *recCount) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	fr.Number(&c.Value)
	return fr.End()
}

func (c *recCount) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	fw.Number(c.Value)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recBone declares a bone of the skeleton.
type recBone struct {
	Index  int32
	Parent int32
	Name   string
}

func (recBone) Tag() uint16 { return tagBone }

func (c *recBone) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	if fr.Number(&c.Index) {
		return fr.End()
	}
	if fr.Number(&c.Parent) {
		return fr.End()
	}
	readString(fr, &c.Name)
	return fr.End()
}

func (c *recBone) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	if fw.Number(c.Index) {
		return fw.End()
	}
	if fw.Number(c.Parent) {
		return fw.End()
	}
	writeString(fw, c.Name)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recVec3 holds a position, or one row of a rotation matrix.
type recVec3 struct {
	tag   uint16
	Value [3]float32
}

func (c *recVec3) Tag() uint16 { return c.tag }

func (c *recVec3) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	readVec3(fr, &c.Value)
	return fr.End()
}

func (c *recVec3) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	writeVec3(fw, c.Value)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recMaterial declares a material and its images.
type recMaterial struct {
	Index     uint32
	Name      string
	Technique string
	Images    [][2]string
}

func (recMaterial) Tag() uint16 { return tagMaterial }

func (c *recMaterial) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	if fr.Number(&c.Index) {
		return fr.End()
	}
	if readString(fr, &c.Name) {
		return fr.End()
	}
	if readString(fr, &c.Technique) {
		return fr.End()
	}
	var count uint32
	if fr.Number(&count) {
		return fr.End()
	}
	c.Images = nil
	for i := uint32(0); i < count; i++ {
		var img [2]string
		if readString(fr, &img[0]) {
			return fr.End()
		}
		if readString(fr, &img[1]) {
			return fr.End()
		}
		c.Images = append(c.Images, img)
	}
	return fr.End()
}

func (c *recMaterial) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	if fw.Number(c.Index) {
		return fw.End()
	}
	if writeString(fw, c.Name) {
		return fw.End()
	}
	if writeString(fw, c.Technique) {
		return fw.End()
	}
	if fw.Number(uint32(len(c.Images))) {
		return fw.End()
	}
	for _, img := range c.Images {
		if writeString(fw, img[0]) {
			return fw.End()
		}
		if writeString(fw, img[1]) {
			return fw.End()
		}
	}
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recName declares a named item of a list, such as a mesh object or an anim
// part.
type recName struct {
	tag   uint16
	Index uint32
	Name  string
}

func (c *recName) Tag() uint16 { return c.tag }

func (c *recName) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	if fr.Number(&c.Index) {
		return fr.End()
	}
	readString(fr, &c.Name)
	return fr.End()
}

func (c *recName) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	if fw.Number(c.Index) {
		return fw.End()
	}
	writeString(fw, c.Name)
	return fw.End()
}

////////////////////////////////////////////////////////////////

type vertWeight struct {
	Bone   uint32
	Weight float32
}

// recVert declares a vertex and its bone weights.
type recVert struct {
	Index   uint32
	Offset  [3]float32
	Weights []vertWeight
}

func (recVert) Tag() uint16 { return tagVert }

func (c *recVert) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	if fr.Number(&c.Index) {
		return fr.End()
	}
	if readVec3(fr, &c.Offset) {
		return fr.End()
	}
	var count uint8
	if fr.Number(&count) {
		return fr.End()
	}
	c.Weights = make([]vertWeight, count)
	for i := range c.Weights {
		if fr.Number(&c.Weights[i].Bone) {
			return fr.End()
		}
		if fr.Number(&c.Weights[i].Weight) {
			return fr.End()
		}
	}
	return fr.End()
}

func (c *recVert) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	if len(c.Weights) > 0xFF {
		fw.Add(0, ErrTooManyWeights)
		return fw.End()
	}
	if fw.Number(c.Index) {
		return fw.End()
	}
	if writeVec3(fw, c.Offset) {
		return fw.End()
	}
	if fw.Number(uint8(len(c.Weights))) {
		return fw.End()
	}
	for _, wt := range c.Weights {
		if fw.Number(wt.Bone) {
			return fw.End()
		}
		if fw.Number(wt.Weight) {
			return fw.End()
		}
	}
	return fw.End()
}

////////////////////////////////////////////////////////////////

type triCorner struct {
	Vertex uint32
	Normal [3]float32
	Color  [4]uint8
	UV     [2]float32
}

// recTri declares a triangle. Color indicates whether corners carry a vertex
// color, which depends on the version of the model.
type recTri struct {
	Color    bool
	Material int32
	Corners  [3]triCorner
}

func (recTri) Tag() uint16 { return tagTri }

func (c *recTri) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	if fr.Number(&c.Material) {
		return fr.End()
	}
	for i := range c.Corners {
		corner := &c.Corners[i]
		if fr.Number(&corner.Vertex) {
			return fr.End()
		}
		if readVec3(fr, &corner.Normal) {
			return fr.End()
		}
		if c.Color {
			if fr.Bytes(corner.Color[:]) {
				return fr.End()
			}
		} else {
			corner.Color = [4]uint8{255, 255, 255, 255}
		}
		if fr.Number(&corner.UV[0]) {
			return fr.End()
		}
		if fr.Number(&corner.UV[1]) {
			return fr.End()
		}
	}
	return fr.End()
}

func (c *recTri) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	if fw.Number(c.Material) {
		return fw.End()
	}
	for _, corner := range c.Corners {
		if fw.Number(corner.Vertex) {
			return fw.End()
		}
		if writeVec3(fw, corner.Normal) {
			return fw.End()
		}
		if c.Color {
			if fw.Bytes(corner.Color[:]) {
				return fw.End()
			}
		}
		if fw.Number(corner.UV[0]) {
			return fw.End()
		}
		if fw.Number(corner.UV[1]) {
			return fw.End()
		}
	}
	return fw.End()
}

////////////////////////////////////////////////////////////////

type recFramerate struct {
	Rate float32
}

func (recFramerate) Tag() uint16 { return tagFramerate }

func (c *recFramerate) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	fr.Number(&c.Rate)
	return fr.End()
}

func (c *recFramerate) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	fw.Number(c.Rate)
	return fw.End()
}

////////////////////////////////////////////////////////////////

// recFrame starts the transforms of a frame.
type recFrame struct {
	Number int32
}

func (recFrame) Tag() uint16 { return tagFrame }

func (c *recFrame) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	fr.Number(&c.Number)
	return fr.End()
}

func (c *recFrame) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	fw.Number(c.Number)
	return fw.End()
}

////////////////////////////////////////////////////////////////

type recNote struct {
	Frame int32
	Name  string
}

func (recNote) Tag() uint16 { return tagNote }

func (c *recNote) ReadFrom(r io.Reader) (n int64, err error) {
	fr := parse.NewBinaryReader(r)
	if fr.Number(&c.Frame) {
		return fr.End()
	}
	readString(fr, &c.Name)
	return fr.End()
}

func (c *recNote) WriteTo(w io.Writer) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	if fw.Number(c.Frame) {
		return fw.End()
	}
	writeString(fw, c.Name)
	return fw.End()
}
