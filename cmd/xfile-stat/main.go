// The xfile-stat command displays stats for an XMODEL_BIN or XANIM_BIN file.
package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/internal/logger"
	"github.com/pvcod/xfile/xbin"
	"go.uber.org/zap"
)

const usage = `usage: xfile-stat [INPUT] [OUTPUT]

Reads an XMODEL_BIN or XANIM_BIN file from INPUT, and writes to OUTPUT
statistics for the file.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.
`

// Format describes the envelope of a file.
type Format struct {
	Mode       string
	Compressed bool
	Version    uint16
	Size       int
	Records    int
	// Digest is the hex-encoded BLAKE2b-256 digest of the payload.
	Digest string
}

// MeshLen is the size of a single mesh.
type MeshLen struct {
	Name  string
	Verts int
	Faces int
}

func (m MeshLen) String() string {
	return fmt.Sprintf("%s(%d/%d)", m.Name, m.Verts, m.Faces)
}

// MeshLens lists meshes ordered by vertex count. Only the largest are
// marshaled.
type MeshLens []MeshLen

func (m MeshLens) MarshalJSON() ([]byte, error) {
	list := append([]MeshLen(nil), m...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Verts > list[j].Verts
	})
	if len(list) > 20 {
		list = list[:20]
	}
	return json.Marshal(list)
}

type ModelStats struct {
	BoneCount     int
	RootCount     int
	MeshCount     int
	VertCount     int
	FaceCount     int
	MaterialCount int

	// Number of vertices per number of weights.
	WeightCount map[int]int

	// Number of faces per material.
	MaterialUse map[string]int

	LargestMeshes MeshLens `json:",omitempty"`
}

type AnimStats struct {
	PartCount  int
	FrameCount int
	FirstFrame int
	LastFrame  int
	Framerate  float32
	NoteCount  int
}

type Stats struct {
	Format Format
	Model  *ModelStats `json:",omitempty"`
	Anim   *AnimStats  `json:",omitempty"`
}

func (s *ModelStats) Fill(model *xfile.Model) {
	s.BoneCount = len(model.Bones)
	for _, b := range model.Bones {
		if b.Parent < 0 {
			s.RootCount++
		}
	}
	s.MeshCount = len(model.Meshes)
	s.MaterialCount = len(model.Materials)
	s.WeightCount = map[int]int{}
	s.MaterialUse = map[string]int{}
	for _, mesh := range model.Meshes {
		s.VertCount += len(mesh.Verts)
		s.FaceCount += len(mesh.Faces)
		for _, v := range mesh.Verts {
			s.WeightCount[len(v.Weights)]++
		}
		for _, f := range mesh.Faces {
			name := "<invalid>"
			if f.Material >= 0 && f.Material < len(model.Materials) {
				name = model.Materials[f.Material].Name
			}
			s.MaterialUse[name]++
		}
		s.LargestMeshes = append(s.LargestMeshes, MeshLen{Name: mesh.Name, Verts: len(mesh.Verts), Faces: len(mesh.Faces)})
	}
}

func (s *AnimStats) Fill(anim *xfile.Anim) {
	s.PartCount = len(anim.Parts)
	s.FrameCount = len(anim.Frames)
	s.FirstFrame, s.LastFrame, _ = anim.FrameRange()
	s.Framerate = anim.Framerate
	s.NoteCount = len(anim.Notes)
}

// Collect decodes data and gathers its statistics. Warnings of the envelope
// are reported once.
func Collect(data []byte) (stats Stats, warn, err error) {
	st, warn, err := xbin.Decoder{}.Stat(bytes.NewReader(data))
	if err != nil {
		return stats, warn, err
	}
	stats.Format = Format{
		Mode:       st.Mode.String(),
		Compressed: st.Compressed,
		Version:    st.Version,
		Size:       st.Size,
		Records:    st.Records,
		Digest:     hex.EncodeToString(st.Digest[:]),
	}

	switch st.Mode {
	case xbin.ModeModel:
		model, w, err := xbin.Decoder{}.DecodeModel(bytes.NewReader(data))
		if err != nil {
			return stats, w, err
		}
		stats.Model = &ModelStats{}
		stats.Model.Fill(model)
		warn = w
	case xbin.ModeAnim:
		anim, w, err := xbin.Decoder{}.DecodeAnim(bytes.NewReader(data))
		if err != nil {
			return stats, w, err
		}
		stats.Anim = &AnimStats{}
		stats.Anim.Fill(anim)
		warn = w
	}
	return stats, warn, nil
}

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer logger.Sync()

	args := flag.Args()
	name := "stdin"
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			logger.Log.Error("open input", zap.Error(err))
			return
		}
		input = in
		name = args[0]
		defer in.Close()
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			logger.Log.Error("create output", zap.Error(err))
			return
		}
		defer out.Close()
		defer func() {
			if err := out.Sync(); err != nil {
				logger.Log.Error("sync output", zap.Error(err))
			}
		}()
		output = out
	}

	data, err := io.ReadAll(input)
	if err != nil {
		logger.Log.Error("read input", zap.Error(err))
		return
	}
	stats, warn, err := Collect(data)
	logger.Warnings(name, warn)
	if err != nil {
		logger.Log.Error("decode", zap.String("file", name), zap.Error(err))
		return
	}

	je := json.NewEncoder(output)
	je.SetEscapeHTML(false)
	je.SetIndent("", "\t")
	if err := je.Encode(stats); err != nil {
		logger.Log.Error("write", zap.Error(err))
	}
}
