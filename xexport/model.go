package xexport

import (
	"fmt"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
	"github.com/pvcod/xfile/weights"
)

const formatModel = "XMODEL_EXPORT"

// Face corners carry a single UV layer.
const uvLayers = 1

// textFace is a face as it appears in a document, before vertices are split
// into meshes.
type textFace struct {
	line     int
	object   int
	material int
	corners  [3]xfile.FaceVertex
}

// modelCodec converts between a Document and an xfile.Model.
type modelCodec struct {
	Version xfile.FormatVersion
	Name    string
}

func (mc *modelCodec) Decode(doc *Document) (model *xfile.Model, warn, err error) {
	var warns errors.Errors
	p := &parser{lines: doc.Lines}

	p.line("MODEL", 0)
	l := p.line("VERSION", 1)
	mc.Version = xfile.FormatVersion(p.int(l, 0))
	if p.err != nil {
		return nil, nil, p.err
	}
	if !mc.Version.Supported() {
		return nil, nil, xfile.VersionError{Format: formatModel, Version: int(mc.Version)}
	}
	model = &xfile.Model{Name: mc.Name}

	// Bones.
	n := p.count("NUMBONES")
	model.Bones = make([]xfile.Bone, 0, p.capacity(n))
	for i := 0; i < n && p.err == nil; i++ {
		l := p.line("BONE", 3)
		index, parent := p.int(l, 0), p.int(l, 1)
		if p.err != nil {
			break
		}
		if index != i {
			p.fail(l, "BONE: index %d out of order, expected %d", index, i)
		} else if parent < -1 || parent >= i {
			p.fail(l, "BONE: bone %d has parent %d; parents must precede children", i, parent)
		}
		model.Bones = append(model.Bones, xfile.Bone{Name: p.arg(l, 2), Parent: parent})
	}
	for i := range model.Bones {
		p.index("BONE", i)
		model.Bones[i].Offset, model.Bones[i].Matrix = p.transform(true)
	}
	if p.err != nil {
		return nil, nil, p.err
	}

	// Vertices.
	var verts []xfile.Vertex
	numVerts, wide := "NUMVERTS", "VERT"
	if mc.Version.HasLargeVertexCount() && p.peek() == "NUMVERTS32" {
		numVerts, wide = "NUMVERTS32", "VERT32"
	}
	n = p.count(numVerts)
	verts = make([]xfile.Vertex, 0, p.capacity(n))
	root := model.Root()
	for i := 0; i < n && p.err == nil; i++ {
		p.index(wide, i)
		v := xfile.Vertex{Offset: p.vec3("OFFSET")}
		l := p.line("BONES", 1)
		count := p.int(l, 0)
		if p.err == nil && (count < 0 || count > xfile.MaxWeights) {
			p.fail(l, "BONES: %d weights, expected 0 to %d", count, xfile.MaxWeights)
		}
		for j := 0; j < count && p.err == nil; j++ {
			l := p.line("BONE", 2)
			bone := p.int(l, 0)
			if p.err == nil && (bone < 0 || bone >= len(model.Bones)) {
				p.fail(l, "BONE: bone %d out of range", bone)
			}
			v.Weights = append(v.Weights, xfile.Weight{Bone: bone, Weight: p.float(l, 1)})
		}
		if len(v.Weights) == 0 && root >= 0 {
			v.Weights = []xfile.Weight{{Bone: root, Weight: 1}}
			warns = warns.Warnf("vertex %d has no weights; bound to bone %d", i, root)
		}
		verts = append(verts, v)
	}

	// Faces.
	color := mc.Version.HasVertexColor()
	n = p.count("NUMFACES")
	faces := make([]textFace, 0, p.capacity(n))
	for i := 0; i < n && p.err == nil; i++ {
		l := p.line("TRI", 4)
		f := textFace{line: l.Number, object: p.int(l, 0), material: p.int(l, 1)}
		for j := range f.corners {
			c := &f.corners[j]
			l := p.line(wide, 1)
			c.Vertex = p.int(l, 0)
			if p.err == nil && (c.Vertex < 0 || c.Vertex >= len(verts)) {
				p.fail(l, "%s: vertex %d out of range", wide, c.Vertex)
			}
			c.Normal = p.vec3("NORMAL")
			c.Color = xfile.White
			if color {
				l := p.line("COLOR", 4)
				c.Color = xfile.ColorFromFloat(p.float(l, 0), p.float(l, 1), p.float(l, 2), p.float(l, 3))
			}
			l = p.line("UV", 1+2*uvLayers)
			if layers := p.int(l, 0); p.err == nil && layers != uvLayers {
				p.fail(l, "UV: %d layers, expected %d", layers, uvLayers)
			}
			c.UV = xfile.UV{p.float(l, 1), p.float(l, 2)}
		}
		faces = append(faces, f)
	}

	// Objects.
	n = p.count("NUMOBJECTS")
	model.Meshes = make([]xfile.Mesh, 0, p.capacity(n))
	for i := 0; i < n && p.err == nil; i++ {
		l := p.line("OBJECT", 2)
		if index := p.int(l, 0); p.err == nil && index != i {
			p.fail(l, "OBJECT: index %d out of order, expected %d", index, i)
		}
		model.Meshes = append(model.Meshes, xfile.Mesh{Name: p.arg(l, 1)})
	}

	// Materials.
	n = p.count("NUMMATERIALS")
	model.Materials = make([]xfile.Material, 0, p.capacity(n))
	for i := 0; i < n && p.err == nil; i++ {
		l := p.line("MATERIAL", 4)
		if index := p.int(l, 0); p.err == nil && index != i {
			p.fail(l, "MATERIAL: index %d out of order, expected %d", index, i)
		}
		m := xfile.Material{Name: p.arg(l, 1), Technique: p.arg(l, 2)}
		if img := p.arg(l, 3); img != "" {
			m.SetImage(xfile.SlotColor.String(), img)
		}
		for mc.Version.HasImageSlots() && p.peek() == "IMAGE" {
			l := p.line("IMAGE", 2)
			m.SetImage(p.arg(l, 0), p.arg(l, 1))
		}
		model.Materials = append(model.Materials, m)
	}
	p.end()
	if p.err != nil {
		return nil, warns.Return(), p.err
	}

	warns, err = splitMeshes(model, verts, faces, warns)
	if err != nil {
		return nil, warns.Return(), err
	}
	return model, warns.Return(), nil
}

// splitMeshes distributes vertices and faces among the meshes of the model. A
// vertex belongs to the object of the first face that refers to it. A vertex
// that no face refers to belongs to the object of the preceding vertex. A face
// that refers to a vertex of another object receives a copy of the vertex.
func splitMeshes(model *xfile.Model, verts []xfile.Vertex, faces []textFace, warns errors.Errors) (errors.Errors, error) {
	for _, f := range faces {
		if f.object < 0 || f.object >= len(model.Meshes) {
			return warns, &SyntaxError{Msg: fmt.Sprintf("TRI: object %d out of range", f.object), Line: f.line}
		}
	}
	if len(verts) > 0 && len(model.Meshes) == 0 {
		return warns, &SyntaxError{Msg: "vertices declared without objects"}
	}

	owner := make([]int, len(verts))
	for i := range owner {
		owner[i] = -1
	}
	for _, f := range faces {
		for _, c := range f.corners {
			if owner[c.Vertex] < 0 {
				owner[c.Vertex] = f.object
			}
		}
	}
	prev := 0
	for i, o := range owner {
		if o < 0 {
			owner[i] = prev
		}
		prev = owner[i]
	}

	type key struct{ object, vertex int }
	local := make(map[key]int, len(verts))
	for i, v := range verts {
		mesh := &model.Meshes[owner[i]]
		local[key{owner[i], i}] = len(mesh.Verts)
		mesh.Verts = append(mesh.Verts, v)
	}

	for i, f := range faces {
		mesh := &model.Meshes[f.object]
		face := xfile.Face{Material: f.material, Indices: f.corners}
		for j := range face.Indices {
			k := key{f.object, face.Indices[j].Vertex}
			index, ok := local[k]
			if !ok {
				index = len(mesh.Verts)
				mesh.Verts = append(mesh.Verts, verts[k.vertex])
				local[k] = index
			}
			face.Indices[j].Vertex = index
		}
		if face.Material < 0 || face.Material >= len(model.Materials) {
			warns = warns.Warnf("line %d: face %d refers to material %d of %d; face dropped", f.line, i, face.Material, len(model.Materials))
			continue
		}
		if face.Degenerate() {
			warns = warns.Warnf("line %d: face %d is degenerate", f.line, i)
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return warns, nil
}

func (mc *modelCodec) Encode(model *xfile.Model) (doc *Document, warn, err error) {
	if err = mc.Version.Check(); err != nil {
		return nil, nil, err
	}
	if err = xfile.ValidateBones(model.Bones); err != nil {
		return nil, nil, err
	}
	var warns errors.Errors
	b := &builder{}

	b.add("MODEL")
	b.add("VERSION", int(mc.Version))
	b.blank()

	b.add("NUMBONES", len(model.Bones))
	for i, bone := range model.Bones {
		b.add("BONE", i, bone.Parent, bone.Name)
	}
	b.blank()
	for i, bone := range model.Bones {
		b.add("BONE", i)
		b.transform(bone.Offset, bone.Matrix, true)
		b.blank()
	}

	// Vertices are numbered across meshes.
	var total int
	base := make([]int, len(model.Meshes))
	for i, mesh := range model.Meshes {
		base[i] = total
		total += len(mesh.Verts)
	}
	numVerts, wide := "NUMVERTS", "VERT"
	if mc.Version.NeedsLargeVertexCount(total) {
		numVerts, wide = "NUMVERTS32", "VERT32"
	} else if total > xfile.MaxShortVerts {
		warns = warns.Warnf("%d vertices exceed the 16-bit limit of version %d", total, mc.Version)
	}

	root := model.Root()
	b.add(numVerts, total)
	for i, mesh := range model.Meshes {
		for j, v := range mesh.Verts {
			ws, status := weights.Limit(v.Weights)
			if len(ws) == 0 {
				if root < 0 {
					return nil, warns.Return(), errors.Kind(errors.ErrMalformedStream,
						fmt.Errorf("mesh %q: vertex %d has no weights and the model has no bones", mesh.Name, j))
				}
				ws, status = []xfile.Weight{{Bone: root, Weight: 1}}, weights.Unweighted
			}
			if status != 0 {
				warns = warns.Warnf("mesh %q: weights of vertex %d %s", mesh.Name, j, status)
			}
			b.add(wide, base[i]+j)
			b.vec3("OFFSET", v.Offset)
			b.add("BONES", len(ws))
			for _, w := range ws {
				if w.Bone < 0 || w.Bone >= len(model.Bones) {
					return nil, warns.Return(), errors.Kind(errors.ErrMalformedStream,
						fmt.Errorf("mesh %q: vertex %d refers to bone %d of %d", mesh.Name, j, w.Bone, len(model.Bones)))
				}
				b.add("BONE", w.Bone, w.Weight)
			}
			b.blank()
		}
	}

	color := mc.Version.HasVertexColor()
	var faces builder
	var numFaces int
	for i, mesh := range model.Meshes {
		for j, face := range mesh.Faces {
			if face.Material < 0 || face.Material >= len(model.Materials) {
				warns = warns.Warnf("mesh %q: face %d refers to material %d of %d; face dropped", mesh.Name, j, face.Material, len(model.Materials))
				continue
			}
			numFaces++
			faces.add("TRI", i, face.Material, 0, 0)
			for _, fv := range face.Indices {
				if fv.Vertex < 0 || fv.Vertex >= len(mesh.Verts) {
					return nil, warns.Return(), errors.Kind(errors.ErrMalformedStream,
						fmt.Errorf("mesh %q: face %d refers to vertex %d of %d", mesh.Name, j, fv.Vertex, len(mesh.Verts)))
				}
				faces.add(wide, base[i]+fv.Vertex)
				faces.add("NORMAL", fv.Normal[0], fv.Normal[1], fv.Normal[2])
				if color {
					c := fv.Color.Float()
					faces.add("COLOR", c[0], c[1], c[2], c[3])
				}
				faces.add("UV", uvLayers, fv.UV[0], fv.UV[1])
			}
			faces.blank()
		}
	}
	b.add("NUMFACES", numFaces)
	b.doc.Lines = append(b.doc.Lines, faces.doc.Lines...)

	b.add("NUMOBJECTS", len(model.Meshes))
	for i, mesh := range model.Meshes {
		b.add("OBJECT", i, mesh.Name)
	}
	b.blank()

	b.add("NUMMATERIALS", len(model.Materials))
	for i, m := range model.Materials {
		var colorImage string
		for _, img := range m.Images {
			if img.Kind() == xfile.SlotColor {
				colorImage = img.File
				break
			}
		}
		technique := m.Technique
		if technique == "" {
			technique = xfile.DefaultTechnique
		}
		b.add("MATERIAL", i, m.Name, technique, colorImage)
		for _, img := range m.Images {
			if img.Kind() == xfile.SlotColor {
				continue
			}
			if !mc.Version.HasImageSlots() {
				warns = warns.Warnf("material %q: image slot %q is not supported by version %d; dropped", m.Name, img.Slot, mc.Version)
				continue
			}
			b.add("IMAGE", img.Slot, img.File)
		}
	}
	return &b.doc, warns.Return(), nil
}
