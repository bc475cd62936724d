// Package weights resolves the bone weights of a vertex into the form stored
// by the model formats: at most xfile.MaxWeights entries that sum to 1.
package weights

import (
	"math"
	"sort"

	"github.com/pvcod/xfile"
)

// Status reports the fallbacks applied while resolving the weights of a
// vertex. The zero value indicates that the input was stored unchanged.
type Status uint8

const (
	// Unknown indicates that contributions referring to unknown bones were
	// dropped.
	Unknown Status = 1 << iota
	// Filtered indicates that contributions below the minimum weight were
	// dropped.
	Filtered
	// Unweighted indicates that no contribution remained, and the vertex was
	// bound to the root bone.
	Unweighted
	// Trimmed indicates that contributions beyond xfile.MaxWeights were
	// dropped.
	Trimmed
	// Renormalized indicates that the weights were scaled to sum to 1.
	Renormalized
)

// Has returns whether s contains every flag of t.
func (s Status) Has(t Status) bool {
	return s&t == t
}

func (s Status) String() string {
	if s == 0 {
		return "ok"
	}
	var names []byte
	for _, f := range []struct {
		flag Status
		name string
	}{
		{Unknown, "unknown"},
		{Filtered, "filtered"},
		{Unweighted, "unweighted"},
		{Trimmed, "trimmed"},
		{Renormalized, "renormalized"},
	} {
		if s&f.flag != 0 {
			if len(names) > 0 {
				names = append(names, '|')
			}
			names = append(names, f.name...)
		}
	}
	return string(names)
}

// Contribution is the raw influence of a named bone or vertex group on a
// vertex.
type Contribution struct {
	Bone   string
	Weight float32
}

// Resolver maps raw contributions to bone weights.
type Resolver struct {
	// Bones maps bone names to bone indices.
	Bones map[string]int

	// Root is the index of the bone that receives unweighted vertices.
	Root int

	// MinWeight is the threshold below which contributions are dropped. Zero
	// keeps every contribution.
	MinWeight float32
}

// NewResolver returns a Resolver for the given bone table.
func NewResolver(bones []xfile.Bone, root int) *Resolver {
	r := &Resolver{Bones: make(map[string]int, len(bones)), Root: root}
	for i, b := range bones {
		if _, ok := r.Bones[b.Name]; !ok {
			r.Bones[b.Name] = i
		}
	}
	return r
}

// Resolve converts contributions into bone weights. The result is never empty,
// has at most xfile.MaxWeights entries, and sums to 1. Ties between equal
// weights are broken by the order of contributions.
func (r *Resolver) Resolve(contribs []Contribution) ([]xfile.Weight, Status) {
	var status Status
	ws := make([]xfile.Weight, 0, len(contribs))
	for _, c := range contribs {
		bone, ok := r.Bones[c.Bone]
		if !ok {
			status |= Unknown
			continue
		}
		if c.Weight < r.MinWeight {
			status |= Filtered
			continue
		}
		ws = append(ws, xfile.Weight{Bone: bone, Weight: c.Weight})
	}
	if len(ws) == 0 {
		return []xfile.Weight{{Bone: r.Root, Weight: 1}}, status | Unweighted
	}
	ws, s := Limit(ws)
	return ws, status | s
}

// Limit trims ws to the xfile.MaxWeights largest weights and renormalizes the
// result to sum to 1. If the weights sum to zero, each receives an equal
// share. ws is not modified. An empty list is returned unchanged.
func Limit(ws []xfile.Weight) ([]xfile.Weight, Status) {
	var status Status
	if len(ws) == 0 {
		return ws, 0
	}
	ws = append([]xfile.Weight(nil), ws...)
	if len(ws) > xfile.MaxWeights {
		sort.SliceStable(ws, func(i, j int) bool {
			return ws[i].Weight > ws[j].Weight
		})
		ws = ws[:xfile.MaxWeights]
		status |= Trimmed
	}

	var sum float64
	for _, w := range ws {
		sum += float64(w.Weight)
	}
	switch {
	case sum == 0:
		share := float32(1 / float64(len(ws)))
		for i := range ws {
			ws[i].Weight = share
		}
		status |= Renormalized
	case math.Abs(sum-1) > xfile.WeightTolerance:
		for i := range ws {
			ws[i].Weight = float32(float64(ws[i].Weight) / sum)
		}
		status |= Renormalized
	}
	return ws, status
}
