package build

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
	"github.com/pvcod/xfile/skeleton"
	"github.com/pvcod/xfile/weights"
)

// ModelOptions configures Model.
type ModelOptions struct {
	// Name is the name of the model.
	Name string

	// Armature is the transform of the armature object. The zero value is
	// treated as the identity.
	Armature mgl32.Mat4

	// Scale multiplies positions and bone offsets. Zero is treated as 1. Use
	// xfile.CMToInch to convert from centimeters.
	Scale float32

	// MinWeight drops bone contributions below the threshold.
	MinWeight float32

	// VertexColors sets whether loop colors are kept. When false, every face
	// vertex is white.
	VertexColors bool
}

// Model assembles a model from host bones and meshes.
//
// Bones are ordered so that parents precede their children. A bone whose
// parent is not found is attached to the first bone. If there are no bones,
// a single xfile.RootBoneName bone is created. Materials are shared between
// meshes by name, and their names are sanitized.
//
// Warnings are returned for content that is dropped or adjusted: polygons
// with an invalid material, meshes with fewer than 3 positions, and vertices
// whose weights were filtered, trimmed, or renormalized.
func Model(bones []Bone, meshes []Mesh, opts ModelOptions) (model *xfile.Model, warn, err error) {
	var warns errors.Errors
	model = &xfile.Model{Name: opts.Name}
	scale := orOne(opts.Scale)
	armature := orIdentity(opts.Armature)

	order, parents, w, err := sortBones(bones)
	warns = append(warns, w...)
	if err != nil {
		return nil, warns.Return(), err
	}
	for i, j := range order {
		b := bones[j]
		model.Bones = append(model.Bones, skeleton.BoneFromWorld(b.Name, parents[i], armature.Mul4(b.Bind), scale))
	}
	if len(model.Bones) == 0 {
		model.Bones = []xfile.Bone{{Name: xfile.RootBoneName, Parent: -1, Matrix: xfile.Identity3()}}
	}
	resolver := weights.NewResolver(model.Bones, 0)
	resolver.MinWeight = opts.MinWeight

	materials := map[string]int{}
	fallbacks := 0
	for _, hm := range meshes {
		if len(hm.Positions) < 3 {
			warns = warns.Warnf("mesh %q has fewer than 3 vertices; skipped", hm.Name)
			continue
		}

		// Mesh material index to model material index.
		local := make([]int, len(hm.Materials))
		for i, m := range hm.Materials {
			index, ok := materials[m.Name]
			if !ok {
				index = len(model.Materials)
				materials[m.Name] = index
				name := xfile.SanitizeMaterialName(m.Name, fallbacks)
				if !hasAlnum(m.Name) {
					fallbacks++
				}
				mtl := xfile.Material{Name: name, Technique: m.Technique}
				if mtl.Technique == "" {
					mtl.Technique = xfile.DefaultTechnique
				}
				for _, img := range m.Images {
					mtl.SetImage(img.Slot, img.File)
				}
				mtl.SortImages()
				model.Materials = append(model.Materials, mtl)
			}
			local[i] = index
		}

		mesh, w, err := buildMesh(hm, local, resolver, scale, opts.VertexColors)
		warns = append(warns, w...)
		if err != nil {
			return nil, warns.Return(), err
		}
		model.Meshes = append(model.Meshes, mesh)
	}
	return model, warns.Return(), nil
}

// sortBones orders bones so that parents precede their children, keeping the
// given order where possible. order maps each resulting index to an index of
// bones, and parents holds the resulting parent indices.
func sortBones(bones []Bone) (order, parents []int, warns errors.Errors, err error) {
	names := make(map[string]int, len(bones))
	for i, b := range bones {
		if _, ok := names[b.Name]; ok {
			return nil, nil, warns, errors.Kind(errors.ErrMalformedStream, fmt.Errorf("duplicate bone %q", b.Name))
		}
		names[b.Name] = i
	}
	parent := make([]int, len(bones))
	for i, b := range bones {
		parent[i] = -1
		if b.Parent == "" {
			continue
		}
		if p, ok := names[b.Parent]; ok {
			parent[i] = p
			continue
		}
		parent[i] = -2
		warns = warns.Warnf("bone %q has unknown parent %q; attached to the first bone", b.Name, b.Parent)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(bones))
	index := make([]int, len(bones))
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return errors.Kind(errors.ErrMalformedStream, fmt.Errorf("bone %q is its own ancestor", bones[i].Name))
		}
		state[i] = visiting
		if p := parent[i]; p >= 0 {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[i] = done
		index[i] = len(order)
		order = append(order, i)
		return nil
	}
	for i := range bones {
		if err := visit(i); err != nil {
			return nil, nil, warns, err
		}
	}

	parents = make([]int, len(order))
	for i, j := range order {
		switch p := parent[j]; {
		case p >= 0:
			parents[i] = index[p]
		case p == -2 && i > 0:
			parents[i] = 0
		default:
			parents[i] = -1
		}
	}
	return order, parents, warns, nil
}

// buildMesh converts a host mesh. local maps mesh material indices to model
// material indices.
func buildMesh(hm Mesh, local []int, resolver *weights.Resolver, scale float32, colors bool) (mesh xfile.Mesh, warns errors.Errors, err error) {
	mesh.Name = hm.Name
	world := orIdentity(hm.World)
	normals := world.Mat3()

	var counts [8]int
	mesh.Verts = make([]xfile.Vertex, len(hm.Positions))
	for i, p := range hm.Positions {
		pos := world.Mul4x1(p.Vec4(1)).Vec3().Mul(scale)
		v := xfile.Vertex{Offset: xfile.Vec3(pos)}
		if hm.Weights == nil {
			v.Weights = []xfile.Weight{{Bone: resolver.Root, Weight: 1}}
		} else {
			var contribs []weights.Contribution
			if i < len(hm.Weights) {
				contribs = hm.Weights[i]
			}
			var status weights.Status
			v.Weights, status = resolver.Resolve(contribs)
			for bit := range counts {
				if status&(1<<bit) != 0 {
					counts[bit]++
				}
			}
		}
		mesh.Verts[i] = v
	}
	for bit, n := range counts {
		if n > 0 {
			warns = warns.Warnf("mesh %q: %d vertices with %s weights", hm.Name, n, weights.Status(1<<bit))
		}
	}

	dropped := 0
	for _, poly := range hm.Polygons {
		if poly.Material < 0 || poly.Material >= len(local) {
			dropped++
			continue
		}
		var fv [3]xfile.FaceVertex
		for i, l := range poly.Loops {
			if l.Vertex < 0 || l.Vertex >= len(mesh.Verts) {
				return mesh, warns, errors.Kind(errors.ErrMalformedStream,
					fmt.Errorf("mesh %q: loop refers to vertex %d of %d", hm.Name, l.Vertex, len(mesh.Verts)))
			}
			color := xfile.White
			if colors {
				color = xfile.ColorFromFloat(l.Color[0], l.Color[1], l.Color[2], l.Color[3])
			}
			fv[i] = xfile.FaceVertex{
				Vertex: l.Vertex,
				Normal: xfile.Vec3(normals.Mul3x1(l.Normal)).Normalize(),
				Color:  color,
				UV:     xfile.UV{l.UV[0], 1 - l.UV[1]},
			}
		}
		mesh.Faces = append(mesh.Faces, xfile.NewFace(local[poly.Material], fv[0], fv[1], fv[2]))
	}
	if dropped > 0 {
		warns = warns.Warnf("mesh %q: %d polygons with invalid material indices; skipped", hm.Name, dropped)
	}
	return mesh, warns, nil
}

func hasAlnum(s string) bool {
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
