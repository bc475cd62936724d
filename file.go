// The xfile package handles the decoding, encoding, and manipulation of
// skinned model (XModel) and skeletal animation (XAnim) assets.
//
// A Model contains a flat table of bones, a list of meshes, and a list of
// materials. Bones refer to their parent by index, and a parent is always
// declared before its children. An Anim contains the names of the bones it
// drives, a sequence of frames with one transform per bone, and a list of
// notes.
//
// Models and anims can be decoded from and encoded to the binary formats
// (XMODEL_BIN, XANIM_BIN) with the "xbin" sub-package, and the text formats
// (XMODEL_EXPORT, XANIM_EXPORT, NT_EXPORT) with the "xexport" sub-package.
//
// Besides decoding from a format, models and anims can also be created
// manually, either from host geometry through the "build" sub-package, or
// directly through the "declare" sub-package.
package xfile

import (
	"fmt"
	"math"
	"strings"

	"github.com/pvcod/xfile/errors"
)

// MaxWeights is the maximum number of bone weights a single vertex may carry.
const MaxWeights = 15

// WeightTolerance is the tolerance with which the weights of a vertex must sum
// to 1.
const WeightTolerance = 1e-5

// RootBoneName is the name of the synthetic root bone used when a model has
// no skeleton.
const RootBoneName = "tag_origin"

// Unit conversion factors between centimeters and inches.
const (
	CMToInch = 0.3937007874
	InchToCM = 2.54
)

////////////////////////////////////////////////////////////////

// Model is a skinned mesh asset.
type Model struct {
	// Name is the name of the model. The text format does not store a name;
	// callers usually derive it from the file name.
	Name string

	// Bones is the bone table. Bones[i].Parent is either -1 or an index less
	// than i.
	Bones []Bone

	// Meshes is the list of meshes in the model.
	Meshes []Mesh

	// Materials is the list of materials referred to by faces.
	Materials []Material
}

// Bone is a single bone of a model skeleton.
type Bone struct {
	Name string

	// Parent is the index of the parent bone, or -1 for a root bone.
	Parent int

	// Offset is the world position of the bone.
	Offset Vec3

	// Matrix is the world rotation of the bone. Each row is a local axis.
	Matrix Mat3
}

// Mesh is a named group of vertices and triangles.
type Mesh struct {
	Name  string
	Verts []Vertex
	Faces []Face
}

// Vertex is a mesh vertex bound to one or more bones.
type Vertex struct {
	Offset  Vec3
	Weights []Weight
}

// Weight binds a vertex to a bone.
type Weight struct {
	Bone   int
	Weight float32
}

// Face is a triangle of a mesh.
type Face struct {
	// Material is an index into the model's material list.
	Material int

	// Indices holds the corners of the triangle in file order.
	Indices [3]FaceVertex
}

// FaceVertex is one corner of a face.
type FaceVertex struct {
	// Vertex is an index into the mesh's vertex list.
	Vertex int
	Normal Vec3
	Color  Color
	UV     UV
}

// NewFace returns a face from three corners given in host order. The file
// format has the opposite handedness, so the second and third corners are
// swapped.
func NewFace(material int, a, b, c FaceVertex) Face {
	return Face{Material: material, Indices: [3]FaceVertex{a, c, b}}
}

// HostOrder returns the corners of the face in host order, undoing the
// winding swap applied by NewFace.
func (f Face) HostOrder() [3]FaceVertex {
	return [3]FaceVertex{f.Indices[0], f.Indices[2], f.Indices[1]}
}

// Degenerate returns whether two corners of the face refer to the same
// vertex.
func (f Face) Degenerate() bool {
	a, b, c := f.Indices[0].Vertex, f.Indices[1].Vertex, f.Indices[2].Vertex
	return a == b || b == c || a == c
}

////////////////////////////////////////////////////////////////

// BoneIndex returns the index of the bone with the given name, or -1.
func (m *Model) BoneIndex(name string) int {
	for i, b := range m.Bones {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// Root returns the index of the first root bone, or -1 if there are no bones.
func (m *Model) Root() int {
	for i, b := range m.Bones {
		if b.Parent < 0 {
			return i
		}
	}
	return -1
}

// ValidateBones checks that every bone refers to a parent declared before
// it.
func ValidateBones(bones []Bone) error {
	for i, b := range bones {
		if b.Parent < -1 || b.Parent >= i {
			return errors.Kind(errors.ErrMalformedStream,
				fmt.Errorf("bone %d (%q) has parent %d; parents must precede children", i, b.Name, b.Parent))
		}
	}
	return nil
}

// Validate checks the model against the invariants of the formats. Violations
// of the bone ordering or out-of-range vertex references are returned as err.
// Content issues that the encoders repair are returned as warn.
func (m *Model) Validate() (warn, err error) {
	if err = ValidateBones(m.Bones); err != nil {
		return nil, err
	}
	var warns errors.Errors
	if roots := m.countRoots(); roots > 1 {
		warns = warns.Warnf("model has %d root bones, expected 1", roots)
	}
	for mi, mesh := range m.Meshes {
		for vi, v := range mesh.Verts {
			if len(v.Weights) == 0 {
				warns = warns.Warnf("mesh %q: vertex %d has no weights", mesh.Name, vi)
				continue
			}
			if len(v.Weights) > MaxWeights {
				warns = warns.Warnf("mesh %q: vertex %d has %d weights (max %d)", mesh.Name, vi, len(v.Weights), MaxWeights)
			}
			var sum float64
			for _, w := range v.Weights {
				if w.Bone < 0 || w.Bone >= len(m.Bones) {
					return warns.Return(), errors.Kind(errors.ErrMalformedStream,
						fmt.Errorf("mesh %d: vertex %d refers to bone %d of %d", mi, vi, w.Bone, len(m.Bones)))
				}
				sum += float64(w.Weight)
			}
			if math.Abs(sum-1) > WeightTolerance {
				warns = warns.Warnf("mesh %q: weights of vertex %d sum to %g", mesh.Name, vi, sum)
			}
		}
		for fi, f := range mesh.Faces {
			for _, fv := range f.Indices {
				if fv.Vertex < 0 || fv.Vertex >= len(mesh.Verts) {
					return warns.Return(), errors.Kind(errors.ErrMalformedStream,
						fmt.Errorf("mesh %d: face %d refers to vertex %d of %d", mi, fi, fv.Vertex, len(mesh.Verts)))
				}
			}
			if f.Material < 0 || f.Material >= len(m.Materials) {
				warns = warns.Warnf("mesh %q: face %d refers to material %d of %d", mesh.Name, fi, f.Material, len(m.Materials))
			}
		}
	}
	return warns.Return(), nil
}

func (m *Model) countRoots() int {
	n := 0
	for _, b := range m.Bones {
		if b.Parent < 0 {
			n++
		}
	}
	return n
}

// Copy returns a deep copy of the model.
func (m *Model) Copy() *Model {
	c := &Model{
		Name:      m.Name,
		Bones:     append([]Bone(nil), m.Bones...),
		Meshes:    make([]Mesh, len(m.Meshes)),
		Materials: make([]Material, len(m.Materials)),
	}
	for i, mesh := range m.Meshes {
		cm := Mesh{
			Name:  mesh.Name,
			Verts: make([]Vertex, len(mesh.Verts)),
			Faces: append([]Face(nil), mesh.Faces...),
		}
		for j, v := range mesh.Verts {
			cm.Verts[j] = Vertex{Offset: v.Offset, Weights: append([]Weight(nil), v.Weights...)}
		}
		c.Meshes[i] = cm
	}
	for i, mtl := range m.Materials {
		c.Materials[i] = mtl.Copy()
	}
	return c
}

// CombineMeshes merges every mesh of the model into a single mesh named after
// the model. Face vertex references are rebased onto the merged vertex list.
func (m *Model) CombineMeshes() {
	if len(m.Meshes) <= 1 {
		if len(m.Meshes) == 1 {
			m.Meshes[0].Name = m.Name + "_mesh"
		}
		return
	}
	merged := Mesh{Name: m.Name + "_mesh"}
	for _, mesh := range m.Meshes {
		base := len(merged.Verts)
		merged.Verts = append(merged.Verts, mesh.Verts...)
		for _, f := range mesh.Faces {
			for i := range f.Indices {
				f.Indices[i].Vertex += base
			}
			merged.Faces = append(merged.Faces, f)
		}
	}
	m.Meshes = []Mesh{merged}
}

// String returns a short summary of the model.
func (m *Model) String() string {
	var verts, faces int
	for _, mesh := range m.Meshes {
		verts += len(mesh.Verts)
		faces += len(mesh.Faces)
	}
	var s strings.Builder
	fmt.Fprintf(&s, "model %q: %d bones, %d meshes, %d verts, %d faces, %d materials",
		m.Name, len(m.Bones), len(m.Meshes), verts, faces, len(m.Materials))
	return s.String()
}
