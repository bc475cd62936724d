// The declare package is used to generate xfile structures in a declarative
// style.
//
// Most items have a Declare method, which returns a new xfile structure
// corresponding to the declared item.
//
// The easiest way to use this package is to import it directly into the
// current package:
//
//     import . "github.com/pvcod/xfile/declare"
//
// This allows the package's identifiers to be used directly without a
// qualifier.
//
// Bones, parts and materials are referred to by name. Names are resolved when
// the enclosing Model or Anim is declared.
package declare

import (
	"github.com/pvcod/xfile"
)

// modelElement is implemented by declarations that can be directly within a
// Model declaration.
type modelElement interface {
	modelElement()
}

// Model declares a xfile.Model. It is a list that contains Name, Bone, Mesh
// and Material declarations.
type Model []modelElement

// Declare evaluates the Model declaration, generating bones, meshes and
// materials, and resolving names.
//
// A Parent or Weight referring to an unknown bone resolves to -1. A Tri
// referring to an unknown material resolves to -1. Bones without a Matrix
// have the identity rotation.
func (dmodel Model) Declare() *xfile.Model {
	model := &xfile.Model{}

	var bones []bone
	var meshes []mesh
	for _, e := range dmodel {
		switch e := e.(type) {
		case Name:
			model.Name = string(e)
		case bone:
			bones = append(bones, e)
		case mesh:
			meshes = append(meshes, e)
		case material:
			model.Materials = append(model.Materials, e.Declare())
		}
	}

	boneIndex := make(map[string]int, len(bones))
	for i, b := range bones {
		if _, ok := boneIndex[b.name]; !ok {
			boneIndex[b.name] = i
		}
	}
	lookupBone := func(name string) int {
		if i, ok := boneIndex[name]; ok {
			return i
		}
		return -1
	}
	lookupMaterial := func(name string) int {
		for i, m := range model.Materials {
			if m.Name == name {
				return i
			}
		}
		return -1
	}

	model.Bones = make([]xfile.Bone, len(bones))
	for i, b := range bones {
		mb := xfile.Bone{Name: b.name, Parent: -1, Matrix: xfile.Identity3()}
		if b.parent != "" {
			mb.Parent = lookupBone(b.parent)
		}
		if b.offset != nil {
			mb.Offset = b.offset.value()
		}
		if b.matrix != nil {
			mb.Matrix = b.matrix.value()
		}
		model.Bones[i] = mb
	}

	for _, dm := range meshes {
		m := xfile.Mesh{Name: dm.name}
		for _, v := range dm.verts {
			mv := xfile.Vertex{}
			if v.offset != nil {
				mv.Offset = v.offset.value()
			}
			for _, w := range v.weights {
				mv.Weights = append(mv.Weights, xfile.Weight{
					Bone:   lookupBone(w.bone),
					Weight: normFloat32(w.weight),
				})
			}
			m.Verts = append(m.Verts, mv)
		}
		for _, t := range dm.tris {
			m.Faces = append(m.Faces, xfile.NewFace(
				lookupMaterial(t.material),
				t.corners[0].Declare(),
				t.corners[1].Declare(),
				t.corners[2].Declare(),
			))
		}
		model.Meshes = append(model.Meshes, m)
	}

	return model
}

// Name declares the name of a model.
type Name string

func (Name) modelElement() {}

////////////////////////////////////////////////////////////////

// boneElement is implemented by declarations that can be within a Bone
// declaration.
type boneElement interface {
	boneElement()
}

// bone represents the declaration of a xfile.Bone.
type bone struct {
	name   string
	parent string
	offset offset
	matrix matrix
}

func (bone) modelElement() {}

// Bone declares a xfile.Bone of a model. Elements can be a Parent, an Offset
// and a Matrix declaration. A bone without a Parent is a root bone.
func Bone(name string, elements ...boneElement) bone {
	b := bone{name: name}
	for _, e := range elements {
		switch e := e.(type) {
		case Parent:
			b.parent = string(e)
		case offset:
			b.offset = e
		case matrix:
			b.matrix = e
		}
	}
	return b
}

// Parent declares the name of the parent of a bone.
type Parent string

func (Parent) boneElement() {}

type offset []interface{}

func (offset) boneElement() {}
func (offset) vertElement() {}
func (offset) poseElement() {}

func (v offset) value() xfile.Vec3 {
	return normVec3(v)
}

// Offset declares the position of a bone, vertex or part, as 3 numbers
// corresponding to the X, Y and Z components. Any number type except for
// complex numbers may be given. Missing components are zero.
func Offset(components ...interface{}) offset {
	return offset(components)
}

type matrix []interface{}

func (matrix) boneElement() {}
func (matrix) poseElement() {}

func (m matrix) value() xfile.Mat3 {
	var r xfile.Mat3
	for i := range r {
		for j := range r[i] {
			if k := i*3 + j; k < len(m) {
				r[i][j] = normFloat32(m[k])
			}
		}
	}
	return r
}

// Matrix declares the rotation of a bone or part, as 9 numbers in row order.
// Each row is a local axis. Missing components are zero.
func Matrix(components ...interface{}) matrix {
	return matrix(components)
}

////////////////////////////////////////////////////////////////

// meshElement is implemented by declarations that can be within a Mesh
// declaration.
type meshElement interface {
	meshElement()
}

// mesh represents the declaration of a xfile.Mesh.
type mesh struct {
	name  string
	verts []vert
	tris  []tri
}

func (mesh) modelElement() {}

// Mesh declares a xfile.Mesh of a model. Elements can be Vert and Tri
// declarations. Vertices are indexed in the order they are declared.
func Mesh(name string, elements ...meshElement) mesh {
	m := mesh{name: name}
	for _, e := range elements {
		switch e := e.(type) {
		case vert:
			m.verts = append(m.verts, e)
		case tri:
			m.tris = append(m.tris, e)
		}
	}
	return m
}

// vertElement is implemented by declarations that can be within a Vert
// declaration.
type vertElement interface {
	vertElement()
}

type vert struct {
	offset  offset
	weights []weight
}

func (vert) meshElement() {}

// Vert declares a xfile.Vertex. Elements can be an Offset and any number of
// Weight declarations.
func Vert(elements ...vertElement) vert {
	var v vert
	for _, e := range elements {
		switch e := e.(type) {
		case offset:
			v.offset = e
		case weight:
			v.weights = append(v.weights, e)
		}
	}
	return v
}

type weight struct {
	bone   string
	weight interface{}
}

func (weight) vertElement() {}

// Weight declares the binding of a vertex to the named bone.
func Weight(bone string, w interface{}) weight {
	return weight{bone: bone, weight: w}
}

type tri struct {
	material string
	corners  [3]corner
}

func (tri) meshElement() {}

// Tri declares a xfile.Face using the named material. Corners are given in
// host order; the face is created with xfile.NewFace.
func Tri(material string, a, b, c corner) tri {
	return tri{material: material, corners: [3]corner{a, b, c}}
}

// cornerElement is implemented by declarations that can be within a Corner
// declaration.
type cornerElement interface {
	cornerElement()
}

type corner struct {
	vertex int
	normal []interface{}
	color  []interface{}
	uv     []interface{}
}

// Declare evaluates the Corner declaration. Without a Color declaration the
// color is xfile.White.
func (c corner) Declare() xfile.FaceVertex {
	fv := xfile.FaceVertex{Vertex: c.vertex, Color: xfile.White}
	if c.normal != nil {
		fv.Normal = normVec3(c.normal)
	}
	if c.color != nil {
		fv.Color = xfile.Color{}
		for i := range fv.Color {
			if i < len(c.color) {
				fv.Color[i] = normUint8(c.color[i])
			}
		}
	}
	for i := range fv.UV {
		if i < len(c.uv) {
			fv.UV[i] = normFloat32(c.uv[i])
		}
	}
	return fv
}

// Corner declares a xfile.FaceVertex referring to a vertex of the enclosing
// mesh. Elements can be Normal, UV and Color declarations.
func Corner(vertex int, elements ...cornerElement) corner {
	c := corner{vertex: vertex}
	for _, e := range elements {
		switch e := e.(type) {
		case normal:
			c.normal = e
		case uv:
			c.uv = e
		case color:
			c.color = e
		}
	}
	return c
}

type normal []interface{}

func (normal) cornerElement() {}

// Normal declares the normal of a corner as 3 numbers.
func Normal(components ...interface{}) normal {
	return normal(components)
}

type uv []interface{}

func (uv) cornerElement() {}

// UV declares the texture coordinates of a corner as 2 numbers.
func UV(components ...interface{}) uv {
	return uv(components)
}

type color []interface{}

func (color) cornerElement() {}

// Color declares the color of a corner as 4 numbers from 0 to 255,
// corresponding to the R, G, B and A components. Missing components are
// zero.
func Color(components ...interface{}) color {
	return color(components)
}

////////////////////////////////////////////////////////////////

// materialElement is implemented by declarations that can be within a
// Material declaration.
type materialElement interface {
	materialElement()
}

type material struct {
	name      string
	technique string
	images    []image
}

func (material) modelElement() {}

// Declare evaluates the Material declaration. The technique defaults to
// xfile.DefaultTechnique.
func (dmtl material) Declare() xfile.Material {
	m := xfile.Material{Name: dmtl.name, Technique: dmtl.technique}
	if m.Technique == "" {
		m.Technique = xfile.DefaultTechnique
	}
	for _, img := range dmtl.images {
		m.SetImage(img[0], img[1])
	}
	return m
}

// Material declares a xfile.Material. Elements can be a Technique and any
// number of Image declarations. Tri declarations refer to the material by
// name.
func Material(name string, elements ...materialElement) material {
	m := material{name: name}
	for _, e := range elements {
		switch e := e.(type) {
		case Technique:
			m.technique = string(e)
		case image:
			m.images = append(m.images, e)
		}
	}
	return m
}

// Technique declares the shading technique of a material.
type Technique string

func (Technique) materialElement() {}

type image [2]string

func (image) materialElement() {}

// Image declares the file bound to an image slot of a material.
func Image(slot, file string) image {
	return image{slot, file}
}

////////////////////////////////////////////////////////////////

// animElement is implemented by declarations that can be directly within an
// Anim declaration.
type animElement interface {
	animElement()
}

// Anim declares a xfile.Anim. It is a list that contains Framerate, Part,
// Frame and Note declarations.
type Anim []animElement

// Declare evaluates the Anim declaration. Parts are indexed in the order they
// are declared, regardless of where frames are declared. A part that is not
// posed by a frame has an identity transform. Poses of unknown parts are
// ignored.
func (danim Anim) Declare() *xfile.Anim {
	anim := xfile.NewAnim()

	var frames []frame
	for _, e := range danim {
		switch e := e.(type) {
		case framerate:
			anim.Framerate = normFloat32(e.value)
		case Part:
			anim.Parts = append(anim.Parts, xfile.PartInfo{Name: string(e)})
		case frame:
			frames = append(frames, e)
		case note:
			anim.Notes = append(anim.Notes, xfile.Note{Frame: e.frame, Name: e.name})
		}
	}

	for _, df := range frames {
		f := xfile.Frame{Number: df.number, Parts: make([]xfile.FramePart, len(anim.Parts))}
		for i := range f.Parts {
			f.Parts[i] = xfile.IdentityPart()
		}
		for _, p := range df.poses {
			i := anim.PartIndex(p.part)
			if i < 0 {
				continue
			}
			if p.offset != nil {
				f.Parts[i].Offset = p.offset.value()
			}
			if p.matrix != nil {
				f.Parts[i].Matrix = p.matrix.value()
			}
		}
		anim.Frames = append(anim.Frames, f)
	}

	return anim
}

type framerate struct {
	value interface{}
}

func (framerate) animElement() {}

// Framerate declares the framerate of an anim. When not declared, the anim
// has xfile.DefaultFramerate.
func Framerate(value interface{}) framerate {
	return framerate{value: value}
}

// Part declares a part of an anim.
type Part string

func (Part) animElement() {}

// poseElement is implemented by declarations that can be within a Pose
// declaration.
type poseElement interface {
	poseElement()
}

type frame struct {
	number int
	poses  []pose
}

func (frame) animElement() {}

// Frame declares a xfile.Frame with the given number. Elements are Pose
// declarations.
func Frame(number int, poses ...pose) frame {
	return frame{number: number, poses: poses}
}

type pose struct {
	part   string
	offset offset
	matrix matrix
}

// Pose declares the transform of the named part within a frame. Elements can
// be an Offset and a Matrix declaration.
func Pose(part string, elements ...poseElement) pose {
	p := pose{part: part}
	for _, e := range elements {
		switch e := e.(type) {
		case offset:
			p.offset = e
		case matrix:
			p.matrix = e
		}
	}
	return p
}

type note struct {
	frame int
	name  string
}

func (note) animElement() {}

// Note declares a named marker of an anim at the given frame.
func Note(frame int, name string) note {
	return note{frame: frame, name: name}
}
