package declare_test

import (
	"fmt"
	"testing"

	"github.com/pvcod/xfile"
	. "github.com/pvcod/xfile/declare"
)

func Example() {
	model := Model{
		Name("crate"),
		Bone("tag_origin"),
		Bone("j_lid", Parent("tag_origin"),
			Offset(0, 0, 12.5),
			Matrix(0, 1, 0, -1, 0, 0, 0, 0, 1),
		),
		Material("wood", Image("color", "wood_c.png")),
		Mesh("body",
			Vert(Offset(0, 0, 0), Weight("tag_origin", 1)),
			Vert(Offset(10, 0, 0), Weight("tag_origin", 0.5), Weight("j_lid", 0.5)),
			Vert(Offset(0, 10, 0), Weight("j_lid", 1)),
			Tri("wood",
				Corner(0, Normal(0, 0, 1), UV(0, 0)),
				Corner(1, Normal(0, 0, 1), UV(1, 0)),
				Corner(2, Normal(0, 0, 1), UV(0, 1), Color(255, 0, 0, 255)),
			),
		),
	}.Declare()
	fmt.Println(model)

	anim := Anim{
		Framerate(24),
		Part("tag_origin"),
		Part("j_lid"),
		Frame(0),
		Frame(4, Pose("j_lid", Offset(0, 0, 12.5))),
		Note(4, "open"),
	}.Declare()
	fmt.Println(anim)
	// Output:
	// model "crate": 2 bones, 1 meshes, 3 verts, 1 faces, 1 materials
	// anim: 2 parts, 2 frames [0, 4] at 24 fps, 1 notes
}

func TestModelDeclare(t *testing.T) {
	model := Model{
		Bone("root"),
		Bone("child", Parent("root"), Offset(1, 2.5, int8(3))),
		Bone("orphan", Parent("missing")),
		Material("mtl", Technique("Phong"), Image("normal", "n.png")),
		Mesh("m",
			Vert(Offset(1, 1, 1), Weight("child", float64(0.25)), Weight("nobody", 1)),
			Vert(),
			Vert(),
			Tri("mtl", Corner(0), Corner(1, Color(1, 2, 3)), Corner(2, UV(0.5, 0.75))),
			Tri("unknown", Corner(0), Corner(1), Corner(2)),
		),
	}.Declare()

	if len(model.Bones) != 3 {
		t.Fatalf("expected 3 bones, got %d", len(model.Bones))
	}
	if p := model.Bones[0].Parent; p != -1 {
		t.Errorf("root: expected parent -1, got %d", p)
	}
	if p := model.Bones[1].Parent; p != 0 {
		t.Errorf("child: expected parent 0, got %d", p)
	}
	if p := model.Bones[2].Parent; p != -1 {
		t.Errorf("orphan: expected parent -1, got %d", p)
	}
	if o := model.Bones[1].Offset; o != (xfile.Vec3{1, 2.5, 3}) {
		t.Errorf("child: unexpected offset %v", o)
	}
	if m := model.Bones[1].Matrix; m != xfile.Identity3() {
		t.Errorf("child: expected identity matrix, got %v", m)
	}

	if len(model.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(model.Materials))
	}
	mtl := model.Materials[0]
	if mtl.Technique != "Phong" {
		t.Errorf("unexpected technique %q", mtl.Technique)
	}
	if file, ok := mtl.Image("normal"); !ok || file != "n.png" {
		t.Errorf("unexpected normal image %q, %t", file, ok)
	}

	mesh := model.Meshes[0]
	w := mesh.Verts[0].Weights
	if len(w) != 2 || w[0] != (xfile.Weight{Bone: 1, Weight: 0.25}) || w[1].Bone != -1 {
		t.Errorf("unexpected weights %v", w)
	}
	if len(mesh.Faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(mesh.Faces))
	}
	face := mesh.Faces[0]
	if face.Material != 0 {
		t.Errorf("expected material 0, got %d", face.Material)
	}
	// Corners are stored in file order.
	if face.Indices[1].Vertex != 2 || face.Indices[2].Vertex != 1 {
		t.Errorf("unexpected winding %v", face.Indices)
	}
	if c := face.Indices[2].Color; c != (xfile.Color{1, 2, 3, 0}) {
		t.Errorf("unexpected color %v", c)
	}
	if c := face.Indices[0].Color; c != xfile.White {
		t.Errorf("expected default color, got %v", c)
	}
	if uv := face.Indices[1].UV; uv != (xfile.UV{0.5, 0.75}) {
		t.Errorf("unexpected uv %v", uv)
	}
	if m := mesh.Faces[1].Material; m != -1 {
		t.Errorf("expected unknown material -1, got %d", m)
	}
}

func TestAnimDeclare(t *testing.T) {
	anim := Anim{
		Frame(0, Pose("b", Offset(1, 0, 0)), Pose("nobody", Offset(9, 9, 9))),
		Part("a"),
		Part("b"),
		Frame(2, Pose("A", Matrix(0, 1, 0, 1, 0, 0, 0, 0, 1))),
		Note(2, "end"),
	}.Declare()

	if anim.Framerate != xfile.DefaultFramerate {
		t.Errorf("expected default framerate, got %g", anim.Framerate)
	}
	if err := anim.Validate(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	f0 := anim.Frames[0]
	if f0.Parts[0] != xfile.IdentityPart() {
		t.Errorf("expected identity part, got %v", f0.Parts[0])
	}
	if o := f0.Parts[1].Offset; o != (xfile.Vec3{1, 0, 0}) {
		t.Errorf("unexpected offset %v", o)
	}
	f1 := anim.Frames[1]
	if m := f1.Parts[0].Matrix; m[0] != (xfile.Vec3{0, 1, 0}) || m[1] != (xfile.Vec3{1, 0, 0}) {
		t.Errorf("unexpected matrix %v", m)
	}
	if len(anim.Notes) != 1 || anim.Notes[0] != (xfile.Note{Frame: 2, Name: "end"}) {
		t.Errorf("unexpected notes %v", anim.Notes)
	}
}

func TestCornerColor(t *testing.T) {
	tests := []struct {
		name   string
		corner xfile.FaceVertex
		want   xfile.Color
	}{
		{"none", Corner(0).Declare(), xfile.White},
		{"rgb", Corner(0, Color(10, 20, 30)).Declare(), xfile.Color{10, 20, 30, 0}},
		{"r", Corner(0, Color(200)).Declare(), xfile.Color{200, 0, 0, 0}},
		{"rgba", Corner(0, Color(1, 2, 3, 4)).Declare(), xfile.Color{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		if c := tt.corner.Color; c != tt.want {
			t.Errorf("%s: expected color %v, got %v", tt.name, tt.want, c)
		}
	}
}

func TestMaterialDeclare(t *testing.T) {
	mtl := Material("m", Image("color", "a.png"), Image("color", "b.png")).Declare()
	if mtl.Technique != xfile.DefaultTechnique {
		t.Errorf("expected default technique, got %q", mtl.Technique)
	}
	if len(mtl.Images) != 1 || mtl.Images[0].File != "b.png" {
		t.Errorf("unexpected images %v", mtl.Images)
	}
}
