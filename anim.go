package xfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pvcod/xfile/errors"
)

// AnimVersion is the only supported animation format version.
const AnimVersion = 3

// DefaultFramerate is the framerate of an anim that does not specify one.
const DefaultFramerate = 30

// AlignPartName is the name of the part that carries the alignment of the
// clip. It is always written with an identity transform.
const AlignPartName = "TAG_ALIGN"

// Anim is a skeletal animation clip.
type Anim struct {
	Version   int
	Framerate float32

	// Parts lists the bones driven by the clip. The order of Parts defines the
	// part index used by every frame.
	Parts []PartInfo

	// Frames is ordered by strictly increasing frame number.
	Frames []Frame

	Notes []Note
}

// NewAnim returns an empty anim with the current version and the default
// framerate.
func NewAnim() *Anim {
	return &Anim{Version: AnimVersion, Framerate: DefaultFramerate}
}

// PartInfo names a bone driven by an anim.
type PartInfo struct {
	Name string
}

// Frame is the pose of every part at a single frame.
type Frame struct {
	Number int

	// Parts is aligned with Anim.Parts.
	Parts []FramePart
}

// FramePart is the transform of a single part.
type FramePart struct {
	Offset Vec3
	Matrix Mat3
}

// IdentityPart returns a part transform at the origin with no rotation.
func IdentityPart() FramePart {
	return FramePart{Matrix: Identity3()}
}

// Note is a named marker at a frame.
type Note struct {
	Frame int
	Name  string
}

// PartIndex returns the index of the part with the given name. Names are
// compared case-insensitively. Returns -1 if no part matches.
func (a *Anim) PartIndex(name string) int {
	for i, p := range a.Parts {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// FrameRange returns the first and last frame numbers of the anim. ok is false
// if the anim has no frames.
func (a *Anim) FrameRange() (first, last int, ok bool) {
	if len(a.Frames) == 0 {
		return 0, 0, false
	}
	return a.Frames[0].Number, a.Frames[len(a.Frames)-1].Number, true
}

// Validate checks that every frame carries one transform per part, and that
// frame numbers strictly increase.
func (a *Anim) Validate() error {
	if a.Version != AnimVersion {
		return VersionError{Format: "anim", Version: a.Version}
	}
	for i, f := range a.Frames {
		if len(f.Parts) != len(a.Parts) {
			return errors.Kind(errors.ErrMalformedStream,
				fmt.Errorf("frame %d has %d parts, expected %d", f.Number, len(f.Parts), len(a.Parts)))
		}
		if i > 0 && f.Number <= a.Frames[i-1].Number {
			return errors.Kind(errors.ErrMalformedStream,
				fmt.Errorf("frame %d follows frame %d", f.Number, a.Frames[i-1].Number))
		}
	}
	return nil
}

// SortNotes orders notes by frame. Notes at the same frame keep their
// relative order.
func (a *Anim) SortNotes() {
	sort.SliceStable(a.Notes, func(i, j int) bool {
		return a.Notes[i].Frame < a.Notes[j].Frame
	})
}

// Copy returns a deep copy of the anim.
func (a *Anim) Copy() *Anim {
	c := *a
	c.Parts = append([]PartInfo(nil), a.Parts...)
	c.Frames = make([]Frame, len(a.Frames))
	for i, f := range a.Frames {
		c.Frames[i] = Frame{Number: f.Number, Parts: append([]FramePart(nil), f.Parts...)}
	}
	c.Notes = append([]Note(nil), a.Notes...)
	return &c
}

func (a *Anim) String() string {
	first, last, _ := a.FrameRange()
	return fmt.Sprintf("anim: %d parts, %d frames [%d, %d] at %g fps, %d notes",
		len(a.Parts), len(a.Frames), first, last, a.Framerate, len(a.Notes))
}
