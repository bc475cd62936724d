// Package skeleton converts between the world-space bone transforms sampled by
// a host application and the parent-relative transforms stored by animation
// keyframes.
//
// Matrices use the column-vector convention of mgl32: a point p is
// transformed by m as m·p, and the columns of the upper 3x3 block are the
// axes of the bone.
package skeleton

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pvcod/xfile/errors"
)

// Bone is a bone of a host armature in its rest state.
type Bone struct {
	Name string

	// Parent is the index of the parent bone, or -1. Parents precede their
	// children.
	Parent int

	// Bind is the armature-space rest matrix of the bone. Its translation is
	// the head of the bone.
	Bind mgl32.Mat4

	// InheritRotation indicates whether the bone follows the rotation of its
	// parent.
	InheritRotation bool

	// InheritScale indicates whether the bone follows the scale of its
	// parent.
	InheritScale bool

	// LocalLocation indicates whether the location of the bone is expressed
	// in the rotated space of its parent. Its polarity is the inverse of the
	// host's use_local_location flag: a host bone with use_local_location set
	// has LocalLocation false, and Rest then takes the location from the
	// rotation matrix.
	LocalLocation bool
}

// NewBone returns a bone that inherits both rotation and scale and stores its
// location locally, which is the default for host armatures.
func NewBone(name string, parent int, bind mgl32.Mat4) Bone {
	return Bone{
		Name:            name,
		Parent:          parent,
		Bind:            bind,
		InheritRotation: true,
		InheritScale:    true,
		LocalLocation:   true,
	}
}

// Rig is an ordered bone hierarchy.
type Rig struct {
	Bones []Bone

	// offsets holds the rest matrix of each bone relative to its parent.
	offsets []mgl32.Mat4
}

// NewRig returns a rig for the given bones. An error matching
// errors.ErrMalformedStream is returned if a bone does not follow its parent.
func NewRig(bones []Bone) (*Rig, error) {
	r := &Rig{Bones: bones, offsets: make([]mgl32.Mat4, len(bones))}
	for i, b := range bones {
		if b.Parent < -1 || b.Parent >= i {
			return nil, errors.Kind(errors.ErrMalformedStream, fmt.Errorf("bone %d (%q) has parent %d; parents must precede children", i, b.Name, b.Parent))
		}
		if b.Parent < 0 {
			r.offsets[i] = b.Bind
			continue
		}
		r.offsets[i] = bones[b.Parent].Bind.Inv().Mul4(b.Bind)
	}
	return r, nil
}

// BoneIndex returns the index of the first bone whose name matches name
// without regard to case, or -1.
func (r *Rig) BoneIndex(name string) int {
	for i, b := range r.Bones {
		if strings.EqualFold(b.Name, name) {
			return i
		}
	}
	return -1
}

// Offset returns the rest matrix of bone i relative to the rest matrix of its
// parent. For a root bone, this is the bind matrix.
func (r *Rig) Offset(i int) mgl32.Mat4 {
	return r.offsets[i]
}

// Rest returns the rest rotation and rest location matrices of bone i, given
// the current pose matrix of its parent. parentPose is ignored for a root
// bone, whose rest matrices are both its bind matrix.
func (r *Rig) Rest(i int, parentPose mgl32.Mat4) (rot, loc mgl32.Mat4) {
	b := r.Bones[i]
	if b.Parent < 0 {
		return b.Bind, b.Bind
	}
	offset := r.offsets[i]
	parentRest := r.Bones[b.Parent].Bind

	switch {
	case !b.InheritRotation && !b.InheritScale:
		rot = parentRest.Mul4(offset)
	case !b.InheritRotation:
		rot = axisScale(parentPose).Mul4(parentRest).Mul4(offset)
	case !b.InheritScale:
		rot = normalized(parentPose).Mul4(offset)
	default:
		rot = parentPose.Mul4(offset)
	}

	if b.LocalLocation {
		t := parentPose.Mul4x1(translation(offset).Vec4(1)).Vec3()
		loc = mgl32.Translate3D(t[0], t[1], t[2]).Mul4(parentPose.Mat3().Mat4())
	} else {
		loc = rot
	}
	return rot, loc
}

// Basis returns the pose of bone i relative to its rest state, given the
// armature-space target matrix of the bone and the current pose matrix of its
// parent. The result is the transform assigned to the bone by a keyframe.
func (r *Rig) Basis(i int, target, parentPose mgl32.Mat4) mgl32.Mat4 {
	rot, loc := r.Rest(i, parentPose)
	basis := target.Inv().Mul4(rot).Mat3().Transpose().Mat4()
	t := loc.Inv().Mul4x1(translation(target).Vec4(1)).Vec3()
	basis.SetCol(3, t.Vec4(1))
	return basis
}

// UniformScale reports whether the axes of m have equal lengths within a
// relative tolerance.
func UniformScale(m mgl32.Mat4) bool {
	l := axisLengths(m)
	lo := math.Min(float64(l[0]), math.Min(float64(l[1]), float64(l[2])))
	hi := math.Max(float64(l[0]), math.Max(float64(l[1]), float64(l[2])))
	return hi-lo <= scaleTolerance*hi
}

const scaleTolerance = 1e-4

func translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

func axisLengths(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
}

// axisScale returns a diagonal matrix of the axis lengths of m.
func axisScale(m mgl32.Mat4) mgl32.Mat4 {
	l := axisLengths(m)
	return mgl32.Diag4(mgl32.Vec4{l[0], l[1], l[2], 1})
}

// normalized returns m with unit-length axes. The translation is kept.
func normalized(m mgl32.Mat4) mgl32.Mat4 {
	for i := 0; i < 3; i++ {
		axis := m.Col(i).Vec3()
		if l := axis.Len(); l != 0 {
			m.SetCol(i, axis.Mul(1/l).Vec4(0))
		}
	}
	return m
}
