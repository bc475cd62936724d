package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pvcod/xfile"
)

// Matrix returns a transform whose axes are the rows of m, translated by
// offset.
func Matrix(offset xfile.Vec3, m xfile.Mat3) mgl32.Mat4 {
	mat := mgl32.Mat3FromCols(mgl32.Vec3(m[0]), mgl32.Vec3(m[1]), mgl32.Vec3(m[2])).Mat4()
	mat.SetCol(3, mgl32.Vec3(offset).Vec4(1))
	return mat
}

// Split returns the translation of mat, and its axes as rows. The axes are
// normalized, so that any scale of mat is discarded.
func Split(mat mgl32.Mat4) (offset xfile.Vec3, m xfile.Mat3) {
	n := normalized(mat)
	for i := range m {
		m[i] = xfile.Vec3(n.Col(i).Vec3())
	}
	return xfile.Vec3(translation(mat)), m
}

// BoneFromWorld converts an armature-space bind matrix to a model bone.
// Offsets are multiplied by scale.
func BoneFromWorld(name string, parent int, bind mgl32.Mat4, scale float32) xfile.Bone {
	offset, m := Split(bind)
	return xfile.Bone{Name: name, Parent: parent, Offset: offset.Mul(scale), Matrix: m}
}

// PartFromWorld converts an armature-space pose matrix to a frame part.
// Offsets are multiplied by scale.
func PartFromWorld(pose mgl32.Mat4, scale float32) xfile.FramePart {
	offset, m := Split(pose)
	return xfile.FramePart{Offset: offset.Mul(scale), Matrix: m}
}

// BindMatrix returns the armature-space bind matrix of a model bone. Offsets
// are multiplied by scale.
func BindMatrix(b xfile.Bone, scale float32) mgl32.Mat4 {
	return Matrix(b.Offset.Mul(scale), b.Matrix)
}

// PoseMatrix returns the armature-space pose matrix of a frame part. Offsets
// are multiplied by scale.
func PoseMatrix(p xfile.FramePart, scale float32) mgl32.Mat4 {
	return Matrix(p.Offset.Mul(scale), p.Matrix)
}

// RigFromModel returns a rig with the bones of model. Each bone inherits the
// rotation and scale of its parent.
func RigFromModel(model *xfile.Model, scale float32) (*Rig, error) {
	bones := make([]Bone, len(model.Bones))
	for i, b := range model.Bones {
		bones[i] = NewBone(b.Name, b.Parent, BindMatrix(b, scale))
	}
	return NewRig(bones)
}
