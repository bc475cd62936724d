package build

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/skeleton"
	"github.com/pvcod/xfile/weights"
)

// ImportOptions configures Import.
type ImportOptions struct {
	// SplitMeshes sets whether each mesh of the model becomes a separate host
	// mesh. When false, the meshes are merged into one.
	SplitMeshes bool

	// Scale multiplies positions and bone offsets. Zero is treated as 1. Use
	// xfile.InchToCM to convert to centimeters.
	Scale float32
}

// Import converts a model into host bones and meshes. It reverses the
// conventions applied by Model: faces are returned in host winding order,
// and texture coordinates are flipped back. Every host mesh lists all
// materials of the model, so polygon material indices are model indices.
func Import(model *xfile.Model, opts ImportOptions) (bones []Bone, meshes []Mesh) {
	scale := orOne(opts.Scale)
	for _, b := range model.Bones {
		hb := Bone{Name: b.Name, Bind: skeleton.BindMatrix(b, scale)}
		if b.Parent >= 0 && b.Parent < len(model.Bones) {
			hb.Parent = model.Bones[b.Parent].Name
		}
		bones = append(bones, hb)
	}

	materials := make([]Material, len(model.Materials))
	for i, m := range model.Materials {
		materials[i] = Material{Name: m.Name, Technique: m.Technique, Images: append([]xfile.Image(nil), m.Images...)}
	}

	src := model
	if !opts.SplitMeshes {
		src = model.Copy()
		src.CombineMeshes()
	}
	for _, mesh := range src.Meshes {
		hm := Mesh{
			Name:      mesh.Name,
			World:     mgl32.Ident4(),
			Positions: make([]mgl32.Vec3, len(mesh.Verts)),
			Weights:   make([][]weights.Contribution, len(mesh.Verts)),
			Materials: materials,
		}
		for i, v := range mesh.Verts {
			hm.Positions[i] = mgl32.Vec3(v.Offset.Mul(scale))
			for _, w := range v.Weights {
				if w.Bone < 0 || w.Bone >= len(model.Bones) {
					continue
				}
				hm.Weights[i] = append(hm.Weights[i], weights.Contribution{Bone: model.Bones[w.Bone].Name, Weight: w.Weight})
			}
		}
		for _, f := range mesh.Faces {
			poly := Polygon{Material: f.Material}
			for i, fv := range f.HostOrder() {
				c := fv.Color.Float()
				poly.Loops[i] = Loop{
					Vertex: fv.Vertex,
					Normal: mgl32.Vec3(fv.Normal),
					UV:     mgl32.Vec2{fv.UV[0], 1 - fv.UV[1]},
					Color:  mgl32.Vec4(c),
				}
			}
			hm.Polygons = append(hm.Polygons, poly)
		}
		meshes = append(meshes, hm)
	}
	return bones, meshes
}
