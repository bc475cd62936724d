package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/pvcod/xfile/declare"
	"github.com/pvcod/xfile/xbin"
)

func TestCollectModel(t *testing.T) {
	model := Model{
		Name("crate"),
		Bone("tag_origin"),
		Material("wood"),
		Mesh("small",
			Vert(Weight("tag_origin", 1)),
			Vert(Weight("tag_origin", 1)),
			Vert(),
			Tri("wood", Corner(0), Corner(1), Corner(2)),
		),
	}.Declare()

	var buf bytes.Buffer
	if _, err := (xbin.Encoder{}).EncodeModel(&buf, model); err != nil {
		t.Fatalf("encode: %v", err)
	}
	stats, _, err := Collect(buf.Bytes())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if stats.Format.Mode != "model" || !stats.Format.Compressed {
		t.Errorf("unexpected format %+v", stats.Format)
	}
	if len(stats.Format.Digest) != 64 {
		t.Errorf("unexpected digest %q", stats.Format.Digest)
	}
	if stats.Anim != nil || stats.Model == nil {
		t.Fatalf("expected model stats only")
	}
	m := stats.Model
	if m.BoneCount != 1 || m.RootCount != 1 || m.VertCount != 3 || m.FaceCount != 1 {
		t.Errorf("unexpected model stats %+v", m)
	}
	if m.MaterialUse["wood"] != 1 {
		t.Errorf("unexpected material use %v", m.MaterialUse)
	}

	b, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"LargestMeshes":[{"Name":"small","Verts":3,"Faces":1}]`) {
		t.Errorf("unexpected json %s", b)
	}
}

func TestCollectAnim(t *testing.T) {
	anim := Anim{Framerate(24), Part("tag_origin"), Frame(2), Frame(5), Note(5, "end")}.Declare()
	var buf bytes.Buffer
	if _, err := (xbin.Encoder{Uncompressed: true}).EncodeAnim(&buf, anim); err != nil {
		t.Fatalf("encode: %v", err)
	}
	stats, _, err := Collect(buf.Bytes())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if stats.Format.Compressed {
		t.Error("expected uncompressed payload")
	}
	want := AnimStats{PartCount: 1, FrameCount: 2, FirstFrame: 2, LastFrame: 5, Framerate: 24, NoteCount: 1}
	if stats.Anim == nil || *stats.Anim != want {
		t.Errorf("expected %+v, got %+v", want, stats.Anim)
	}
}

func TestCollectCorrupt(t *testing.T) {
	if _, _, err := Collect([]byte("*LZ4*\x10\x00")); err == nil {
		t.Error("expected error")
	}
}
