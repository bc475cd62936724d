package xfile

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Vec3 is a three-component vector.
type Vec3 [3]float32

// Add returns the sum of v and u.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// Sub returns the difference of v and u.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{v[0] - u[0], v[1] - u[1], v[2] - u[2]}
}

// Mul returns v scaled by s.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Len returns the length of v.
func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

// ApproxEqual returns whether each component of v is within eps of u.
func (v Vec3) ApproxEqual(u Vec3, eps float32) bool {
	for i := range v {
		if d := v[i] - u[i]; d > eps || d < -eps {
			return false
		}
	}
	return true
}

// Mat3 is a 3x3 rotation matrix stored by rows. Each row is a local axis
// expressed in the parent space.
type Mat3 [3]Vec3

// Identity3 returns the identity matrix.
func Identity3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// ApproxEqual returns whether each element of m is within eps of n.
func (m Mat3) ApproxEqual(n Mat3, eps float32) bool {
	return m[0].ApproxEqual(n[0], eps) && m[1].ApproxEqual(n[1], eps) && m[2].ApproxEqual(n[2], eps)
}

// Color is an 8-bit RGBA color.
type Color [4]uint8

// White is the default vertex color.
var White = Color{255, 255, 255, 255}

// Float returns the components of c in the range [0, 1].
func (c Color) Float() [4]float32 {
	return [4]float32{
		float32(c[0]) / 255,
		float32(c[1]) / 255,
		float32(c[2]) / 255,
		float32(c[3]) / 255,
	}
}

// ColorFromFloat returns a Color from components in the range [0, 1]. Values
// outside of the range are clamped.
func ColorFromFloat(r, g, b, a float32) Color {
	conv := func(f float32) uint8 {
		switch {
		case f <= 0:
			return 0
		case f >= 1:
			return 255
		}
		return uint8(math.Round(float64(f) * 255))
	}
	return Color{conv(r), conv(g), conv(b), conv(a)}
}

// UV is a texture coordinate.
type UV [2]float32

////////////////////////////////////////////////////////////////

// ImageSlot is the semantic kind of an image used by a material.
type ImageSlot byte

const (
	SlotInvalid ImageSlot = iota
	SlotColor
	SlotNormal
	SlotSpecular
	SlotGloss
	SlotDetail
	SlotOcclusion
)

var slotStrings = map[ImageSlot]string{
	SlotColor:     "color",
	SlotNormal:    "normal",
	SlotSpecular:  "specular",
	SlotGloss:     "gloss",
	SlotDetail:    "detail",
	SlotOcclusion: "occlusion",
}

var slotNames = func() map[string]ImageSlot {
	m := make(map[string]ImageSlot, len(slotStrings))
	for s, n := range slotStrings {
		m[n] = s
	}
	return m
}()

// String returns the name of the slot. If the slot is not valid, then the
// returned value will be "Invalid".
func (s ImageSlot) String() string {
	n, ok := slotStrings[s]
	if !ok {
		return "Invalid"
	}
	return n
}

// SlotFromName returns the slot with the given name, or SlotInvalid.
func SlotFromName(name string) ImageSlot {
	return slotNames[strings.ToLower(name)]
}

// Image assigns a file to a slot of a material. Slot is the name of the slot
// as it appears in a file; names that do not correspond to a known ImageSlot
// are preserved as is.
type Image struct {
	Slot string
	File string
}

// Kind returns the known kind of the image's slot, or SlotInvalid.
func (img Image) Kind() ImageSlot {
	return SlotFromName(img.Slot)
}

// Material describes the surface of a face.
type Material struct {
	Name      string
	Technique string

	// Images maps slots to image files. Slot names are unique.
	Images []Image
}

// DefaultTechnique is the technique used by materials that do not specify
// one.
const DefaultTechnique = "Lambert"

// Image returns the file assigned to slot, and whether it exists.
func (m Material) Image(slot string) (string, bool) {
	for _, img := range m.Images {
		if img.Slot == slot {
			return img.File, true
		}
	}
	return "", false
}

// SetImage assigns file to slot, replacing an existing assignment.
func (m *Material) SetImage(slot, file string) {
	for i, img := range m.Images {
		if img.Slot == slot {
			m.Images[i].File = file
			return
		}
	}
	m.Images = append(m.Images, Image{Slot: slot, File: file})
}

// SortImages orders images by slot kind, followed by unknown slots by name.
func (m *Material) SortImages() {
	sort.SliceStable(m.Images, func(i, j int) bool {
		a, b := m.Images[i].Kind(), m.Images[j].Kind()
		if a == SlotInvalid || b == SlotInvalid {
			if a != b {
				return b == SlotInvalid
			}
			return m.Images[i].Slot < m.Images[j].Slot
		}
		return a < b
	})
}

// Copy returns a deep copy of the material.
func (m Material) Copy() Material {
	m.Images = append([]Image(nil), m.Images...)
	return m
}

// SanitizeMaterialName lowercases name and replaces every run of characters
// outside of [a-z0-9] with a single underscore. Leading and trailing
// underscores are removed. If nothing remains, "material" followed by index
// is returned.
func SanitizeMaterialName(name string, index int) string {
	var s strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			if pending && s.Len() > 0 {
				s.WriteByte('_')
			}
			pending = false
			s.WriteRune(r)
			continue
		}
		pending = true
	}
	if s.Len() == 0 {
		return "material" + strconv.Itoa(index)
	}
	return s.String()
}
