// Package build converts between the flattened scene data of a host
// application and xfile.Model and xfile.Anim values.
//
// The host is responsible for traversing its scene and triangulating meshes.
// The functions of this package apply the conventions of the formats: unit
// scale, winding order, texture coordinate orientation, weight limits and
// material naming.
package build

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/weights"
)

// Bone is a bone of a host armature.
type Bone struct {
	Name string

	// Parent is the name of the parent bone. An empty string indicates a
	// root bone.
	Parent string

	// Bind is the armature-space rest matrix of the bone, with the head of
	// the bone as its translation.
	Bind mgl32.Mat4
}

// Loop is a corner of a host polygon.
type Loop struct {
	// Vertex is the index of the position within the mesh.
	Vertex int
	Normal mgl32.Vec3
	UV     mgl32.Vec2
	// Color is a linear RGBA color with components in [0, 1].
	Color mgl32.Vec4
}

// Polygon is a triangle of a host mesh, in the winding order of the host.
type Polygon struct {
	// Material is the index of the material within the mesh.
	Material int
	Loops    [3]Loop
}

// Material is a material of a host mesh. Materials with the same Name are
// considered the same material.
type Material struct {
	Name      string
	Technique string
	Images    []xfile.Image
}

// Mesh is a triangulated host mesh.
type Mesh struct {
	Name string

	// World is the transform of the mesh object. The zero value is treated
	// as the identity.
	World mgl32.Mat4

	Positions []mgl32.Vec3

	// Weights holds the raw bone contributions of each position. If nil,
	// every position is bound to the root bone.
	Weights [][]weights.Contribution

	Materials []Material
	Polygons  []Polygon
}

func orIdentity(m mgl32.Mat4) mgl32.Mat4 {
	if m == (mgl32.Mat4{}) {
		return mgl32.Ident4()
	}
	return m
}

func orOne(f float32) float32 {
	if f == 0 {
		return 1
	}
	return f
}
