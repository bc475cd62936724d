package build

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
	"github.com/pvcod/xfile/skeleton"
)

// RangeMode selects how the frames of an anim are chosen.
type RangeMode uint8

const (
	// RangeKeyframes spans the first to the last keyframe of the action.
	RangeKeyframes RangeMode = iota
	// RangeExplicit spans AnimOptions.Start to AnimOptions.End.
	RangeExplicit
)

// Marker is a named frame of a host action.
type Marker struct {
	Frame int
	Name  string
}

// Sampler returns the armature-space pose matrix of each bone at a frame, in
// the order of the bones given to Anim.
type Sampler func(frame int) ([]mgl32.Mat4, error)

// AnimOptions configures Anim.
type AnimOptions struct {
	// Framerate of the anim. Zero selects xfile.DefaultFramerate.
	Framerate float32

	// Scale multiplies offsets. Zero is treated as 1.
	Scale float32

	// Range selects the frames that are sampled.
	Range RangeMode

	// Start and End are the closed range of frames used by RangeExplicit.
	Start, End int

	// TagAlign appends an xfile.AlignPartName part with an identity
	// transform.
	TagAlign bool
}

// FrameRange returns the closed range of frames selected by opts. keyframes
// holds the times of the keyframes of the host action.
func FrameRange(keyframes []float32, opts AnimOptions) (start, end int, err error) {
	switch opts.Range {
	case RangeKeyframes:
		if len(keyframes) == 0 {
			return 0, 0, nil
		}
		lo, hi := keyframes[0], keyframes[0]
		for _, k := range keyframes[1:] {
			lo = float32(math.Min(float64(lo), float64(k)))
			hi = float32(math.Max(float64(hi), float64(k)))
		}
		return int(lo), int(hi), nil
	case RangeExplicit:
		if opts.End < opts.Start {
			return 0, 0, errors.Kind(errors.ErrMalformedStream, fmt.Errorf("frame range %d to %d is empty", opts.Start, opts.End))
		}
		return opts.Start, opts.End, nil
	}
	return 0, 0, fmt.Errorf("unknown range mode %d", opts.Range)
}

// Anim samples the given bones over a range of frames and assembles an anim.
// Each bone becomes a part, in the given order. Markers become notes; a
// warning is returned for each marker outside of the range.
func Anim(bones []string, keyframes []float32, sample Sampler, markers []Marker, opts AnimOptions) (anim *xfile.Anim, warn, err error) {
	if sample == nil {
		return nil, nil, errors.New("nil sampler")
	}
	start, end, err := FrameRange(keyframes, opts)
	if err != nil {
		return nil, nil, err
	}
	scale := orOne(opts.Scale)

	anim = xfile.NewAnim()
	if opts.Framerate > 0 {
		anim.Framerate = opts.Framerate
	}
	for _, name := range bones {
		anim.Parts = append(anim.Parts, xfile.PartInfo{Name: name})
	}
	if opts.TagAlign {
		anim.Parts = append(anim.Parts, xfile.PartInfo{Name: xfile.AlignPartName})
	}

	anim.Frames = make([]xfile.Frame, 0, end-start+1)
	for n := start; n <= end; n++ {
		poses, err := sample(n)
		if err != nil {
			return nil, nil, fmt.Errorf("frame %d: %w", n, err)
		}
		if len(poses) != len(bones) {
			return nil, nil, errors.Kind(errors.ErrMalformedStream, fmt.Errorf("frame %d: %d poses for %d bones", n, len(poses), len(bones)))
		}
		f := xfile.Frame{Number: n, Parts: make([]xfile.FramePart, 0, len(anim.Parts))}
		for _, p := range poses {
			f.Parts = append(f.Parts, skeleton.PartFromWorld(p, scale))
		}
		if opts.TagAlign {
			f.Parts = append(f.Parts, xfile.IdentityPart())
		}
		anim.Frames = append(anim.Frames, f)
	}

	var warns errors.Errors
	for _, m := range markers {
		if m.Frame < start || m.Frame > end {
			warns = warns.Warnf("marker %q at frame %d is outside of frames %d to %d", m.Name, m.Frame, start, end)
		}
		anim.Notes = append(anim.Notes, xfile.Note{Frame: m.Frame, Name: m.Name})
	}
	anim.SortNotes()
	return anim, warns.Return(), nil
}
