package xfile

import (
	"testing"

	"github.com/pvcod/xfile/errors"
)

func testModel() *Model {
	return &Model{
		Name: "box",
		Bones: []Bone{
			{Name: "tag_origin", Parent: -1, Matrix: Identity3()},
			{Name: "j_spine", Parent: 0, Offset: Vec3{0, 0, 10}, Matrix: Identity3()},
		},
		Meshes: []Mesh{
			{
				Name: "a",
				Verts: []Vertex{
					{Offset: Vec3{0, 0, 0}, Weights: []Weight{{0, 1}}},
					{Offset: Vec3{1, 0, 0}, Weights: []Weight{{0, 0.5}, {1, 0.5}}},
					{Offset: Vec3{0, 1, 0}, Weights: []Weight{{1, 1}}},
				},
				Faces: []Face{
					NewFace(0, FaceVertex{Vertex: 0}, FaceVertex{Vertex: 1}, FaceVertex{Vertex: 2}),
				},
			},
			{
				Name: "b",
				Verts: []Vertex{
					{Offset: Vec3{0, 0, 1}, Weights: []Weight{{0, 1}}},
					{Offset: Vec3{1, 0, 1}, Weights: []Weight{{0, 1}}},
					{Offset: Vec3{0, 1, 1}, Weights: []Weight{{0, 1}}},
				},
				Faces: []Face{
					NewFace(0, FaceVertex{Vertex: 2}, FaceVertex{Vertex: 1}, FaceVertex{Vertex: 0}),
				},
			},
		},
		Materials: []Material{
			{Name: "wood", Technique: DefaultTechnique, Images: []Image{{Slot: "color", File: "wood.png"}}},
		},
	}
}

func TestNewFaceWinding(t *testing.T) {
	a, b, c := FaceVertex{Vertex: 10}, FaceVertex{Vertex: 11}, FaceVertex{Vertex: 12}
	f := NewFace(3, a, b, c)
	if f.Indices[0].Vertex != 10 || f.Indices[1].Vertex != 12 || f.Indices[2].Vertex != 11 {
		t.Errorf("unexpected winding %d %d %d", f.Indices[0].Vertex, f.Indices[1].Vertex, f.Indices[2].Vertex)
	}
	if h := f.HostOrder(); h != [3]FaceVertex{a, b, c} {
		t.Errorf("HostOrder did not restore corners: %v", h)
	}
	if f.Material != 3 {
		t.Errorf("unexpected material %d", f.Material)
	}
}

func TestFaceDegenerate(t *testing.T) {
	if NewFace(0, FaceVertex{Vertex: 0}, FaceVertex{Vertex: 1}, FaceVertex{Vertex: 2}).Degenerate() {
		t.Error("unexpected degenerate face")
	}
	if !NewFace(0, FaceVertex{Vertex: 0}, FaceVertex{Vertex: 1}, FaceVertex{Vertex: 0}).Degenerate() {
		t.Error("expected degenerate face")
	}
}

func TestValidateBones(t *testing.T) {
	tests := []struct {
		name  string
		bones []Bone
		ok    bool
	}{
		{"empty", nil, true},
		{"root", []Bone{{Parent: -1}}, true},
		{"chain", []Bone{{Parent: -1}, {Parent: 0}, {Parent: 1}}, true},
		{"self", []Bone{{Parent: -1}, {Parent: 1}}, false},
		{"forward", []Bone{{Parent: 1}, {Parent: -1}}, false},
		{"negative", []Bone{{Parent: -2}}, false},
	}
	for _, test := range tests {
		err := ValidateBones(test.bones)
		if test.ok && err != nil {
			t.Errorf("%s: unexpected error: %s", test.name, err)
		}
		if !test.ok && !errors.Is(err, errors.ErrMalformedStream) {
			t.Errorf("%s: expected malformed stream, got %v", test.name, err)
		}
	}
}

func TestModelValidate(t *testing.T) {
	m := testModel()
	if warn, err := m.Validate(); warn != nil || err != nil {
		t.Fatalf("unexpected result: %v, %v", warn, err)
	}

	m.Meshes[0].Faces[0].Material = 4
	m.Meshes[1].Verts[0].Weights = []Weight{{0, 0.7}}
	warn, err := m.Validate()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if n := len(errors.List(warn)); n != 2 {
		t.Errorf("expected 2 warnings, got %d: %v", n, warn)
	}
	for _, w := range errors.List(warn) {
		if !errors.Is(w, errors.ErrValidation) {
			t.Errorf("expected validation warning, got %v", w)
		}
	}

	m = testModel()
	m.Meshes[0].Faces[0].Indices[1].Vertex = 3
	if _, err := m.Validate(); !errors.Is(err, errors.ErrMalformedStream) {
		t.Errorf("expected malformed stream, got %v", err)
	}
}

func TestModelCopy(t *testing.T) {
	m := testModel()
	c := m.Copy()
	c.Meshes[0].Verts[1].Weights[0].Weight = 0
	c.Materials[0].Images[0].File = "other.png"
	c.Bones[1].Name = "changed"
	if m.Meshes[0].Verts[1].Weights[0].Weight != 0.5 {
		t.Error("weights of copy share memory with original")
	}
	if m.Materials[0].Images[0].File != "wood.png" {
		t.Error("images of copy share memory with original")
	}
	if m.Bones[1].Name != "j_spine" {
		t.Error("bones of copy share memory with original")
	}
}

func TestCombineMeshes(t *testing.T) {
	m := testModel()
	m.CombineMeshes()
	if len(m.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(m.Meshes))
	}
	mesh := m.Meshes[0]
	if mesh.Name != "box_mesh" {
		t.Errorf("unexpected name %q", mesh.Name)
	}
	if len(mesh.Verts) != 6 || len(mesh.Faces) != 2 {
		t.Fatalf("unexpected size: %d verts, %d faces", len(mesh.Verts), len(mesh.Faces))
	}
	// Second mesh is rebased by the vertex count of the first.
	f := mesh.Faces[1].HostOrder()
	if f[0].Vertex != 5 || f[1].Vertex != 4 || f[2].Vertex != 3 {
		t.Errorf("unexpected rebased face %d %d %d", f[0].Vertex, f[1].Vertex, f[2].Vertex)
	}
	if _, err := m.Validate(); err != nil {
		t.Errorf("combined model is invalid: %s", err)
	}
}

func TestModelLookup(t *testing.T) {
	m := testModel()
	if i := m.BoneIndex("j_spine"); i != 1 {
		t.Errorf("unexpected bone index %d", i)
	}
	if i := m.BoneIndex("missing"); i != -1 {
		t.Errorf("unexpected bone index %d", i)
	}
	if i := m.Root(); i != 0 {
		t.Errorf("unexpected root %d", i)
	}
	if i := (&Model{}).Root(); i != -1 {
		t.Errorf("unexpected root %d", i)
	}
}
