package xbin

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strings"
	"testing"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
)

func testModel() *xfile.Model {
	return &xfile.Model{
		Name: "crate",
		Bones: []xfile.Bone{
			{Name: "tag_origin", Parent: -1, Matrix: xfile.Identity3()},
			{Name: "j_lid", Parent: 0, Offset: xfile.Vec3{0, 0, 12.5}, Matrix: xfile.Mat3{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}},
		},
		Meshes: []xfile.Mesh{
			{
				Name: "body",
				Verts: []xfile.Vertex{
					{Offset: xfile.Vec3{0, 0, 0}, Weights: []xfile.Weight{{Bone: 0, Weight: 1}}},
					{Offset: xfile.Vec3{1, 0, 0}, Weights: []xfile.Weight{{Bone: 0, Weight: 0.25}, {Bone: 1, Weight: 0.75}}},
					{Offset: xfile.Vec3{0, 1, 0}, Weights: []xfile.Weight{{Bone: 1, Weight: 1}}},
				},
				Faces: []xfile.Face{
					xfile.NewFace(1,
						xfile.FaceVertex{Vertex: 0, Normal: xfile.Vec3{0, 0, 1}, Color: xfile.Color{255, 0, 0, 255}, UV: xfile.UV{0, 1}},
						xfile.FaceVertex{Vertex: 1, Normal: xfile.Vec3{0, 0, 1}, Color: xfile.Color{0, 255, 0, 255}, UV: xfile.UV{1, 1}},
						xfile.FaceVertex{Vertex: 2, Normal: xfile.Vec3{0, 0, 1}, Color: xfile.Color{0, 0, 255, 128}, UV: xfile.UV{0, 0}},
					),
				},
			},
			{
				Name: "lid",
				Verts: []xfile.Vertex{
					{Offset: xfile.Vec3{0, 0, 2}, Weights: []xfile.Weight{{Bone: 1, Weight: 1}}},
					{Offset: xfile.Vec3{1, 0, 2}, Weights: []xfile.Weight{{Bone: 1, Weight: 1}}},
					{Offset: xfile.Vec3{0, 1, 2}, Weights: []xfile.Weight{{Bone: 1, Weight: 1}}},
				},
				Faces: []xfile.Face{
					xfile.NewFace(0,
						xfile.FaceVertex{Vertex: 0, Normal: xfile.Vec3{0, 0, -1}, Color: xfile.White, UV: xfile.UV{0.5, 0.5}},
						xfile.FaceVertex{Vertex: 1, Normal: xfile.Vec3{0, 0, -1}, Color: xfile.White, UV: xfile.UV{1, 0.5}},
						xfile.FaceVertex{Vertex: 2, Normal: xfile.Vec3{0, 0, -1}, Color: xfile.White, UV: xfile.UV{0.5, 1}},
					),
				},
			},
		},
		Materials: []xfile.Material{
			{Name: "wood", Technique: "Lambert", Images: []xfile.Image{{Slot: "color", File: "wood_c.png"}, {Slot: "normal", File: "wood_n.png"}}},
			{Name: "metal", Technique: "Phong", Images: []xfile.Image{{Slot: "color", File: "metal_c.png"}}},
		},
	}
}

func testAnim() *xfile.Anim {
	a := xfile.NewAnim()
	a.Parts = []xfile.PartInfo{{Name: "root"}, {Name: "spine"}}
	a.Frames = []xfile.Frame{
		{Number: 0, Parts: []xfile.FramePart{
			{Offset: xfile.Vec3{0, 0, 0}, Matrix: xfile.Identity3()},
			{Offset: xfile.Vec3{0, 1, 0}, Matrix: xfile.Identity3()},
		}},
	}
	return a
}

func TestModelRoundTrip(t *testing.T) {
	encoders := []struct {
		name string
		enc  Encoder
	}{
		{"literal", Encoder{}},
		{"match", Encoder{Compressor: MatchCompressor{}}},
		{"uncompressed", Encoder{Uncompressed: true}},
		{"version 7", Encoder{Version: xfile.Version7, Header: []string{"exported by a test"}}},
	}
	for _, e := range encoders {
		want := testModel()
		var buf bytes.Buffer
		warn, err := e.enc.EncodeModel(&buf, want)
		if err != nil {
			t.Errorf("%s: encode: %s", e.name, err)
			continue
		}
		if warn != nil {
			t.Errorf("%s: unexpected warnings: %s", e.name, warn)
		}
		got, warn, err := Decoder{}.DecodeModel(&buf)
		if err != nil {
			t.Errorf("%s: decode: %s", e.name, err)
			continue
		}
		if warn != nil {
			t.Errorf("%s: unexpected warnings: %s", e.name, warn)
		}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("%s: round trip mismatch:\nwant %+v\ngot  %+v", e.name, want, got)
		}
	}
}

func TestModelVersion5(t *testing.T) {
	var buf bytes.Buffer
	warn, err := Encoder{Version: xfile.Version5}.EncodeModel(&buf, testModel())
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	// The normal image of the first material is dropped.
	if n := len(errors.List(warn)); n != 1 {
		t.Errorf("expected 1 warning, got %d: %v", n, warn)
	}
	got, _, err := Decoder{}.DecodeModel(&buf)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if n := len(got.Materials[0].Images); n != 1 {
		t.Errorf("expected 1 image, got %d", n)
	}
	for _, fv := range got.Meshes[0].Faces[0].Indices {
		if fv.Color != xfile.White {
			t.Errorf("expected white vertex color, got %v", fv.Color)
		}
	}
}

func TestAnimRoundTrip(t *testing.T) {
	want := testAnim()
	want.Frames = append(want.Frames, xfile.Frame{Number: 3, Parts: []xfile.FramePart{
		{Offset: xfile.Vec3{1, 2, 3}, Matrix: xfile.Mat3{{0, 0, 1}, {0, 1, 0}, {-1, 0, 0}}},
		{Offset: xfile.Vec3{0, 1.5, 0}, Matrix: xfile.Identity3()},
	}})
	want.Notes = []xfile.Note{{Frame: 0, Name: "start"}, {Frame: 3, Name: "end"}}

	for _, enc := range []Encoder{{}, {Uncompressed: true}, {Compressor: MatchCompressor{}}} {
		var buf bytes.Buffer
		if _, err := enc.EncodeAnim(&buf, want); err != nil {
			t.Fatalf("encode: %s", err)
		}
		got, warn, err := Decoder{}.DecodeAnim(&buf)
		if err != nil {
			t.Fatalf("decode: %s", err)
		}
		if warn != nil {
			t.Errorf("unexpected warnings: %s", warn)
		}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
		}
	}
}

func TestAnimSingleFrame(t *testing.T) {
	want := testAnim()
	var buf bytes.Buffer
	if _, err := (Encoder{}).EncodeAnim(&buf, want); err != nil {
		t.Fatalf("encode: %s", err)
	}
	got, _, err := Decoder{}.DecodeAnim(&buf)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if !reflect.DeepEqual(want.Frames, got.Frames) {
		t.Errorf("frame mismatch:\nwant %+v\ngot  %+v", want.Frames, got.Frames)
	}
	if !reflect.DeepEqual(want.Parts, got.Parts) {
		t.Errorf("part mismatch:\nwant %+v\ngot  %+v", want.Parts, got.Parts)
	}
}

func TestEncodeDropsInvalidMaterial(t *testing.T) {
	m := testModel()
	m.Meshes[1].Faces[0].Material = 5
	m.Meshes[0].Verts[0].Weights = nil
	var buf bytes.Buffer
	warn, err := Encoder{}.EncodeModel(&buf, m)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	list := errors.List(warn)
	if len(list) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(list), warn)
	}
	for _, w := range list {
		if !errors.Is(w, errors.ErrValidation) {
			t.Errorf("expected validation warning, got %v", w)
		}
	}
	got, _, err := Decoder{}.DecodeModel(&buf)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if n := len(got.Meshes[1].Faces); n != 0 {
		t.Errorf("expected face to be dropped, got %d faces", n)
	}
	if ws := got.Meshes[0].Verts[0].Weights; len(ws) != 1 || ws[0] != (xfile.Weight{Bone: 0, Weight: 1}) {
		t.Errorf("expected root weight, got %v", ws)
	}
}

func TestEncodeRejectsBadBones(t *testing.T) {
	m := testModel()
	m.Bones[0].Parent = 1
	var buf bytes.Buffer
	if _, err := (Encoder{}).EncodeModel(&buf, m); !errors.Is(err, errors.ErrMalformedStream) {
		t.Errorf("expected malformed stream, got %v", err)
	}
	if _, err := (Encoder{Version: 4}).EncodeModel(&buf, testModel()); !errors.Is(err, errors.ErrUnsupportedVersion) {
		t.Errorf("expected unsupported version, got %v", err)
	}
}

// encodeRecords encodes the records of a model or anim, after applying
// modify.
func encodeRecords(t *testing.T, f *formatModel, modify func(f *formatModel)) *bytes.Buffer {
	t.Helper()
	modify(f)
	var buf bytes.Buffer
	if _, err := f.writeTo(&buf, LiteralCompressor{}); err != nil {
		t.Fatalf("write: %s", err)
	}
	return &buf
}

func modelRecords(t *testing.T) *formatModel {
	t.Helper()
	codec := modelCodec{Version: xfile.Version6}
	f, _, err := codec.Encode(testModel())
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	return f
}

func animRecords(t *testing.T) *formatModel {
	t.Helper()
	a := testAnim()
	a.Frames = append(a.Frames, xfile.Frame{Number: 1, Parts: []xfile.FramePart{xfile.IdentityPart(), xfile.IdentityPart()}})
	f, _, err := (&animCodec{}).Encode(a)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	return f
}

// find returns the index of the nth record with the given tag.
func find(f *formatModel, tag uint16, nth int) int {
	for i, rec := range f.Records {
		if rec.Tag() == tag {
			if nth == 0 {
				return i
			}
			nth--
		}
	}
	return -1
}

func TestDecodeModelErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *formatModel)
		kind   error
	}{
		{"version", func(f *formatModel) {
			f.Records[find(f, tagVersion, 0)] = &recVersion{Version: 4}
		}, errors.ErrUnsupportedVersion},
		{"forward parent", func(f *formatModel) {
			f.Records[find(f, tagBone, 0)].(*recBone).Parent = 1
		}, errors.ErrMalformedStream},
		{"bone index", func(f *formatModel) {
			f.Records[find(f, tagBoneIndex, 1)].(*recCount).Value = 0
		}, errors.ErrMalformedStream},
		{"unknown tag", func(f *formatModel) {
			f.Records = append(f.Records[:3:3], append([]record{&recUnknown{tag: 0x1234}}, f.Records[3:]...)...)
		}, errors.ErrMalformedStream},
		{"out of order", func(f *formatModel) {
			i := find(f, tagNumMaterials, 0)
			j := find(f, tagNumObjects, 0)
			f.Records[i], f.Records[j] = f.Records[j], f.Records[i]
		}, errors.ErrMalformedStream},
		{"trailing", func(f *formatModel) {
			f.Records = append(f.Records, &recComment{Text: "late"})
		}, errors.ErrMalformedStream},
		{"missing", func(f *formatModel) {
			f.Records = f.Records[:len(f.Records)-1]
		}, errors.ErrMalformedStream},
		{"vertex range", func(f *formatModel) {
			f.Records[find(f, tagTri, 0)].(*recTri).Corners[1].Vertex = 3
		}, errors.ErrMalformedStream},
		{"bone range", func(f *formatModel) {
			f.Records[find(f, tagVert, 0)].(*recVert).Weights[0].Bone = 2
		}, errors.ErrMalformedStream},
	}
	for _, test := range tests {
		buf := encodeRecords(t, modelRecords(t), test.modify)
		_, _, err := Decoder{}.DecodeModel(buf)
		if !errors.Is(err, test.kind) {
			t.Errorf("%s: expected %v, got %v", test.name, test.kind, err)
		}
	}
}

func TestDecodeModelInvalidMaterial(t *testing.T) {
	buf := encodeRecords(t, modelRecords(t), func(f *formatModel) {
		f.Records[find(f, tagTri, 1)].(*recTri).Material = 7
	})
	m, warn, err := Decoder{}.DecodeModel(buf)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !errors.Is(warn, errors.ErrValidation) {
		t.Errorf("expected validation warning, got %v", warn)
	}
	if len(m.Meshes[1].Faces) != 0 {
		t.Errorf("expected face to be dropped")
	}
}

func TestDecodeAnimErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *formatModel)
		kind   error
	}{
		{"version", func(f *formatModel) {
			f.Records[find(f, tagVersion, 0)] = &recVersion{Version: 2}
		}, errors.ErrUnsupportedVersion},
		{"duplicate frame", func(f *formatModel) {
			f.Records[find(f, tagFrame, 1)].(*recFrame).Number = 0
		}, errors.ErrMalformedStream},
		{"decreasing frame", func(f *formatModel) {
			f.Records[find(f, tagFrame, 1)].(*recFrame).Number = -4
		}, errors.ErrMalformedStream},
		{"part range", func(f *formatModel) {
			f.Records[find(f, tagPartIndex, 1)].(*recCount).Value = 2
		}, errors.ErrMalformedStream},
		{"part twice", func(f *formatModel) {
			f.Records[find(f, tagPartIndex, 1)].(*recCount).Value = 0
		}, errors.ErrMalformedStream},
		{"model", func(f *formatModel) {
			f.Records[find(f, tagAnimation, 0)] = &recModel{Name: "x"}
		}, errors.ErrMalformedStream},
	}
	for _, test := range tests {
		buf := encodeRecords(t, animRecords(t), test.modify)
		_, _, err := Decoder{}.DecodeAnim(buf)
		if !errors.Is(err, test.kind) {
			t.Errorf("%s: expected %v, got %v", test.name, test.kind, err)
		}
	}
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	var good bytes.Buffer
	if _, err := (Encoder{}).EncodeAnim(&good, testAnim()); err != nil {
		t.Fatalf("encode: %s", err)
	}
	raw := good.Bytes()

	tests := []struct {
		name string
		data []byte
		kind error
	}{
		{"signature", append([]byte("*ZIP*"), raw[5:]...), errors.ErrMalformedStream},
		{"short", raw[:7], errors.ErrMalformedStream},
		{"truncated block", raw[:len(raw)-3], errors.ErrCorruptData},
		{"size", resize(raw, 1), errors.ErrCorruptData},
		{"size short", resize(raw, -1), errors.ErrCorruptData},
	}
	for _, test := range tests {
		_, _, err := Decoder{}.DecodeAnim(bytes.NewReader(test.data))
		if !errors.Is(err, test.kind) {
			t.Errorf("%s: expected %v, got %v", test.name, test.kind, err)
		}
	}
}

// resize returns a copy of a file with delta added to its declared payload
// size.
func resize(file []byte, delta int) []byte {
	b := append([]byte{}, file...)
	size := binary.LittleEndian.Uint32(b[5:])
	binary.LittleEndian.PutUint32(b[5:], uint32(int(size)+delta))
	return b
}

// rawFile builds an uncompressed file from records given as tag and content
// pairs.
func rawFile(records ...interface{}) []byte {
	var payload []byte
	for i := 0; i < len(records); i += 2 {
		content := records[i+1].([]byte)
		payload = binary.LittleEndian.AppendUint16(payload, records[i].(uint16))
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(content)))
		payload = append(payload, content...)
	}
	b := append([]byte(magicRaw), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(b[5:], uint32(len(payload)))
	return append(b, payload...)
}

func u32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func TestDecodeHugeCounts(t *testing.T) {
	const huge = 0x7FFFFFFF
	name := append(u32(5), "crate"...)
	version := binary.LittleEndian.AppendUint16(nil, 6)

	tests := []struct {
		name string
		data []byte
	}{
		{"bones", rawFile(tagModel, name, tagVersion, version, tagNumBones, u32(huge))},
		{"string length", rawFile(tagModel, append(u32(huge), "crate"...), tagVersion, version, tagNumBones, u32(0))},
		{"record length", func() []byte {
			b := rawFile(tagModel, name, tagVersion, version)
			binary.LittleEndian.PutUint32(b[len(b)-len(version)-4:], huge)
			return b
		}()},
		{"materials", encodeRecords(t, modelRecords(t), func(f *formatModel) {
			f.Records[find(f, tagNumMaterials, 0)].(*recCount).Value = huge
		}).Bytes()},
		{"verts", encodeRecords(t, modelRecords(t), func(f *formatModel) {
			f.Records[find(f, tagNumVerts, 0)].(*recCount).Value = huge
		}).Bytes()},
		{"faces", encodeRecords(t, modelRecords(t), func(f *formatModel) {
			f.Records[find(f, tagNumFaces, 0)].(*recCount).Value = huge
		}).Bytes()},
	}
	for _, test := range tests {
		_, _, err := Decoder{}.DecodeModel(bytes.NewReader(test.data))
		if !errors.Is(err, errors.ErrMalformedStream) {
			t.Errorf("%s: expected malformed stream, got %v", test.name, err)
		}
	}

	for _, tag := range []uint16{tagNumParts, tagNumFrames, tagNumKeys} {
		f := animRecords(t)
		f.Records = append(f.Records, &recCount{tag: tagNumKeys, Value: 1}, &recNote{Frame: 0, Name: "start"})
		data := encodeRecords(t, f, func(f *formatModel) {
			f.Records[find(f, tag, 0)].(*recCount).Value = huge
		})
		if _, _, err := (Decoder{}).DecodeAnim(data); !errors.Is(err, errors.ErrMalformedStream) {
			t.Errorf("%s: expected malformed stream, got %v", tagName(tag), err)
		}
	}
}

func TestDecompress(t *testing.T) {
	var compressed bytes.Buffer
	if _, err := (Encoder{Compressor: MatchCompressor{}}).EncodeModel(&compressed, testModel()); err != nil {
		t.Fatalf("encode: %s", err)
	}
	if !bytes.HasPrefix(compressed.Bytes(), []byte(magicCompressed)) {
		t.Fatalf("expected compressed magic")
	}

	var raw bytes.Buffer
	if _, err := (Decoder{Mode: ModeModel}).Decompress(&raw, bytes.NewReader(compressed.Bytes())); err != nil {
		t.Fatalf("decompress: %s", err)
	}
	if !bytes.HasPrefix(raw.Bytes(), []byte(magicRaw)) {
		t.Fatalf("expected raw magic")
	}

	a, _, err := Decoder{}.Stat(bytes.NewReader(compressed.Bytes()))
	if err != nil {
		t.Fatalf("stat: %s", err)
	}
	b, _, err := Decoder{}.Stat(bytes.NewReader(raw.Bytes()))
	if err != nil {
		t.Fatalf("stat: %s", err)
	}
	if !a.Compressed || b.Compressed {
		t.Error("unexpected compression flags")
	}
	if a.Digest != b.Digest || a.Size != b.Size || a.Records != b.Records {
		t.Error("payloads differ after decompression")
	}
	if a.Mode != ModeModel || a.Version != uint16(xfile.DefaultVersion) {
		t.Errorf("unexpected mode %s, version %d", a.Mode, a.Version)
	}

	if _, err := (Decoder{Mode: ModeAnim}).Decompress(&raw, bytes.NewReader(compressed.Bytes())); !errors.Is(err, errors.ErrMalformedStream) {
		t.Errorf("expected mode mismatch, got %v", err)
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	if _, err := (Encoder{Header: []string{"dump test"}}).EncodeModel(&buf, testModel()); err != nil {
		t.Fatalf("encode: %s", err)
	}
	var out strings.Builder
	if _, err := (Decoder{}).Dump(&out, &buf); err != nil {
		t.Fatalf("dump: %s", err)
	}
	s := out.String()
	for _, want := range []string{
		"Mode: model",
		"COMMENT (C355) (len:9) \"dump test\"",
		"MODEL (46C8) (len:5) \"crate\"",
		"BONE (F099) 1 parent:0 (len:5) \"j_lid\"",
		"TRI (562F) material:1 {",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("dump does not contain %q", want)
		}
	}
}
