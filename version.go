package xfile

import (
	"strconv"

	"github.com/pvcod/xfile/errors"
)

// FormatVersion is the version of a model format. It determines which
// optional sections are present in a stream.
type FormatVersion int

const (
	Version5 FormatVersion = 5
	Version6 FormatVersion = 6
	Version7 FormatVersion = 7

	// DefaultVersion is the version written when none is specified.
	DefaultVersion = Version6
)

// MaxShortVerts is the largest vertex count that can be written with 16-bit
// vertex indices.
const MaxShortVerts = 0xFFFF

// Supported returns whether v is a supported model version.
func (v FormatVersion) Supported() bool {
	return v >= Version5 && v <= Version7
}

// Check returns an error if v is not supported.
func (v FormatVersion) Check() error {
	if v.Supported() {
		return nil
	}
	return VersionError{Version: int(v)}
}

// HasVertexColor returns whether faces carry a vertex color.
func (v FormatVersion) HasVertexColor() bool {
	return v >= Version6
}

// HasImageSlots returns whether materials carry images other than the color
// image.
func (v FormatVersion) HasImageSlots() bool {
	return v >= Version6
}

// HasLargeVertexCount returns whether the version can address more than
// MaxShortVerts vertices.
func (v FormatVersion) HasLargeVertexCount() bool {
	return v >= Version7
}

// NeedsLargeVertexCount returns whether n vertices must be written with wide
// indices under v.
func (v FormatVersion) NeedsLargeVertexCount(n int) bool {
	return v.HasLargeVertexCount() && n > MaxShortVerts
}

func (v FormatVersion) String() string {
	return strconv.Itoa(int(v))
}

// VersionError is returned when a stream declares a version that is not
// supported.
type VersionError struct {
	Format  string
	Version int
}

func (err VersionError) Error() string {
	if err.Format == "" {
		return "unsupported version " + strconv.Itoa(err.Version)
	}
	return err.Format + ": unsupported version " + strconv.Itoa(err.Version)
}

func (err VersionError) Is(target error) bool {
	return target == errors.ErrUnsupportedVersion
}
