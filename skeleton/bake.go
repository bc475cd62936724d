package skeleton

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
)

// BakeOptions configures Bake.
type BakeOptions struct {
	// Scale multiplies the offsets of frame parts. Zero is treated as 1.
	Scale float32

	// FrameScale multiplies frame numbers, converting the framerate of the
	// anim to that of the host. Zero is treated as 1.
	FrameScale float32
}

// FrameScaleFor returns the FrameScale that converts framerate to target.
func FrameScaleFor(framerate, target float32) float32 {
	if framerate <= 0 || target <= 0 {
		return 1
	}
	return target / framerate
}

// Key is the pose of a bone at a single frame, relative to its rest state.
type Key struct {
	Frame    float32
	Location mgl32.Vec3
	Rotation mgl32.Quat
}

// Track holds the keys of a single bone, ordered by frame.
type Track struct {
	// Bone is the index of the bone within the rig.
	Bone int
	// Part is the index of the part within the anim.
	Part int
	Keys []Key
}

// Marker is a named frame of an action.
type Marker struct {
	Frame int
	Name  string
}

// Action is an anim baked onto a rig.
type Action struct {
	// Start and End are the scaled first and last frames.
	Start, End int
	Tracks     []Track
	Markers    []Marker
}

// Bake converts the frames of anim into keys for the bones of rig. Parts are
// matched to bones by name without regard to case. A bone without a part
// keeps its rest pose, and the pose of an unmatched parent is its bind
// matrix.
//
// Warnings are returned for parts without a bone, and for bones whose parent
// is posed with a non-uniform scale, for which the result is approximate.
func Bake(anim *xfile.Anim, rig *Rig, opts BakeOptions) (action *Action, warn, err error) {
	if err = anim.Validate(); err != nil {
		return nil, nil, err
	}
	scale, frameScale := opts.Scale, opts.FrameScale
	if scale == 0 {
		scale = 1
	}
	if frameScale == 0 {
		frameScale = 1
	}

	var warns errors.Errors
	action = &Action{}
	parts := make([]int, len(rig.Bones))
	for i := range parts {
		parts[i] = -1
	}
	matched := make([]bool, len(anim.Parts))
	for i, b := range rig.Bones {
		if p := anim.PartIndex(b.Name); p >= 0 {
			parts[i] = p
			matched[p] = true
			action.Tracks = append(action.Tracks, Track{Bone: i, Part: p, Keys: make([]Key, 0, len(anim.Frames))})
		}
	}
	for p, ok := range matched {
		if !ok && anim.Parts[p].Name != xfile.AlignPartName {
			warns = warns.Warnf("part %q has no matching bone", anim.Parts[p].Name)
		}
	}

	if first, last, ok := anim.FrameRange(); ok {
		action.Start = int(math.Round(float64(float32(first) * frameScale)))
		action.End = int(math.Round(float64(float32(last) * frameScale)))
	}

	pose := make([]mgl32.Mat4, len(rig.Bones))
	skewed := make([]bool, len(rig.Bones))
	for _, f := range anim.Frames {
		frame := float32(f.Number) * frameScale
		t := 0
		for i, b := range rig.Bones {
			parentPose := mgl32.Ident4()
			if b.Parent >= 0 {
				parentPose = pose[b.Parent]
				if b.InheritScale && !skewed[i] && !UniformScale(parentPose) {
					skewed[i] = true
					warns = warns.Warnf("bone %q inherits a non-uniform scale from %q; pose is approximate", b.Name, rig.Bones[b.Parent].Name)
				}
			}
			if parts[i] < 0 {
				pose[i] = b.Bind
				continue
			}
			target := PoseMatrix(f.Parts[parts[i]], scale)
			pose[i] = target
			basis := rig.Basis(i, target, parentPose)
			action.Tracks[t].Keys = append(action.Tracks[t].Keys, Key{
				Frame:    frame,
				Location: translation(basis),
				Rotation: rotation(basis),
			})
			t++
		}
	}

	for _, n := range anim.Notes {
		action.Markers = append(action.Markers, Marker{Frame: int(float32(n.Frame) * frameScale), Name: n.Name})
	}
	sort.SliceStable(action.Markers, func(i, j int) bool {
		return action.Markers[i].Frame < action.Markers[j].Frame
	})
	return action, warns.Return(), nil
}

// rotation returns the rotation of m as a unit quaternion.
func rotation(m mgl32.Mat4) mgl32.Quat {
	return mgl32.Mat4ToQuat(normalized(m)).Normalize()
}

// Sample is the armature-space pose of every bone of a rig at a frame.
type Sample struct {
	Frame int
	Poses []mgl32.Mat4
}

// Record converts samples of the bones of rig into an anim. Each bone becomes
// a part in the order of the rig. Offsets are multiplied by scale.
func Record(rig *Rig, samples []Sample, framerate, scale float32) (*xfile.Anim, error) {
	anim := xfile.NewAnim()
	if framerate > 0 {
		anim.Framerate = framerate
	}
	anim.Parts = make([]xfile.PartInfo, len(rig.Bones))
	for i, b := range rig.Bones {
		anim.Parts[i] = xfile.PartInfo{Name: b.Name}
	}
	anim.Frames = make([]xfile.Frame, len(samples))
	for i, s := range samples {
		if len(s.Poses) != len(rig.Bones) {
			return nil, errors.Kind(errors.ErrMalformedStream, errors.New("sample does not have a pose for every bone"))
		}
		f := xfile.Frame{Number: s.Frame, Parts: make([]xfile.FramePart, len(s.Poses))}
		for j, p := range s.Poses {
			f.Parts[j] = PartFromWorld(p, scale)
		}
		anim.Frames[i] = f
	}
	if err := anim.Validate(); err != nil {
		return nil, err
	}
	return anim, nil
}
