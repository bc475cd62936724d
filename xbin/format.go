// Package xbin implements a decoder and encoder for the binary model
// (XMODEL_BIN) and anim (XANIM_BIN) formats.
//
// A file consists of a magic string, the size of the payload, and the payload
// itself, which may be compressed as a single LZ4 block. The payload is a
// sequence of tagged records. Each record holds a 16-bit tag, the length of
// its content, and the content. Records appear in a fixed order, which is
// checked when decoding.
//
// Decoder and Encoder convert directly between byte streams and the Model and
// Anim structures specified by the xfile package.
package xbin

// Mode indicates the kind of asset held by a file.
type Mode uint8

const (
	ModeUnknown Mode = iota
	ModeModel        // Data is handled as a model (XMODEL_BIN) file.
	ModeAnim         // Data is handled as an anim (XANIM_BIN) file.
)

func (m Mode) String() string {
	switch m {
	case ModeModel:
		return "model"
	case ModeAnim:
		return "anim"
	}
	return "unknown"
}

const (
	// magicCompressed starts a file whose payload is an LZ4 block.
	magicCompressed = "*LZ4*"

	// magicRaw starts a file whose payload is stored as is.
	magicRaw = "*RAW*"
)

// sizeLength is the length of the payload size that follows the magic.
const sizeLength = 4

// Record tags.
const (
	tagComment      uint16 = 0xC355
	tagModel        uint16 = 0x46C8
	tagAnimation    uint16 = 0x7AAC
	tagVersion      uint16 = 0x24D1
	tagNumBones     uint16 = 0x76BA
	tagBone         uint16 = 0xF099
	tagBoneIndex    uint16 = 0xDD9A
	tagOffset       uint16 = 0x9383
	tagX            uint16 = 0xDCFD
	tagY            uint16 = 0xCCDC
	tagZ            uint16 = 0xFCBF
	tagNumMaterials uint16 = 0xA1B2
	tagMaterial     uint16 = 0xA700
	tagNumObjects   uint16 = 0x62AF
	tagObject       uint16 = 0x87D4
	tagNumVerts     uint16 = 0x950D
	tagVert         uint16 = 0x8F03
	tagNumFaces     uint16 = 0xBE92
	tagTri          uint16 = 0x562F
	tagFramerate    uint16 = 0x92D3
	tagNumParts     uint16 = 0x9279
	tagPart         uint16 = 0x360B
	tagNumFrames    uint16 = 0xB917
	tagFrame        uint16 = 0xC7F3
	tagPartIndex    uint16 = 0x745A
	tagNumKeys      uint16 = 0x7A6C
	tagNote         uint16 = 0x4643
)

var tagNames = map[uint16]string{
	tagComment:      "COMMENT",
	tagModel:        "MODEL",
	tagAnimation:    "ANIMATION",
	tagVersion:      "VERSION",
	tagNumBones:     "NUMBONES",
	tagBone:         "BONE",
	tagBoneIndex:    "BONE_INDEX",
	tagOffset:       "OFFSET",
	tagX:            "X",
	tagY:            "Y",
	tagZ:            "Z",
	tagNumMaterials: "NUMMATERIALS",
	tagMaterial:     "MATERIAL",
	tagNumObjects:   "NUMOBJECTS",
	tagObject:       "OBJECT",
	tagNumVerts:     "NUMVERTS",
	tagVert:         "VERT",
	tagNumFaces:     "NUMFACES",
	tagTri:          "TRI",
	tagFramerate:    "FRAMERATE",
	tagNumParts:     "NUMPARTS",
	tagPart:         "PART",
	tagNumFrames:    "NUMFRAMES",
	tagFrame:        "FRAME",
	tagPartIndex:    "PART_INDEX",
	tagNumKeys:      "NUMKEYS",
	tagNote:         "NOTE",
}

// tagName returns the name of a record tag, or "UNKNOWN".
func tagName(tag uint16) string {
	if s, ok := tagNames[tag]; ok {
		return s
	}
	return "UNKNOWN"
}
