package xbin

import (
	"fmt"

	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
	"github.com/pvcod/xfile/weights"
)

func hasVertexColor(version uint16) bool {
	return xfile.FormatVersion(version).HasVertexColor()
}

func recordError(i int, tag uint16, err error) error {
	return RecordError{Index: i, Tag: tag, Cause: err}
}

func recordWarn(errs errors.Errors, i int, tag uint16, format string, v ...interface{}) errors.Errors {
	return append(errs, RecordError{Index: i, Tag: tag, Cause: errors.Warnf(format, v...)})
}

// cursor walks the records of a payload in order.
type cursor struct {
	records []record
	i       int
}

// pos returns the index of the record that was last returned by next.
func (c *cursor) pos() int {
	return c.i - 1
}

func (c *cursor) peek() uint16 {
	if c.i >= len(c.records) {
		return 0
	}
	return c.records[c.i].Tag()
}

func (c *cursor) done() bool {
	return c.i >= len(c.records)
}

// next returns the next record, which must have the given tag.
func (c *cursor) next(tag uint16) (record, error) {
	if c.i >= len(c.records) {
		return nil, recordError(c.i, tag, ErrMissingRecord)
	}
	rec := c.records[c.i]
	c.i++
	switch r := rec.(type) {
	case *recErrored:
		return nil, recordError(c.pos(), r.Tag(), r.Cause)
	case *recUnknown:
		return nil, recordError(c.pos(), r.Tag(), ErrUnknownTag)
	}
	if rec.Tag() != tag {
		return nil, recordError(c.pos(), rec.Tag(), fmt.Errorf("%w: expected %s", ErrUnexpectedRecord, tagName(tag)))
	}
	return rec, nil
}

func (c *cursor) count(tag uint16) (int, error) {
	rec, err := c.next(tag)
	if err != nil {
		return 0, err
	}
	return int(rec.(*recCount).Value), nil
}

// list reads the count of a list whose entries each take at least one
// record. A count larger than the number of remaining records is an error.
func (c *cursor) list(tag uint16) (int, error) {
	n, err := c.count(tag)
	if err != nil {
		return 0, err
	}
	if remain := len(c.records) - c.i; n > remain {
		return 0, recordError(c.pos(), tag, fmt.Errorf("%w: count %d exceeds %d remaining records", ErrMissingRecord, n, remain))
	}
	return n, nil
}

// index reads an index record and checks that it equals want.
func (c *cursor) index(tag uint16, want int) error {
	n, err := c.count(tag)
	if err != nil {
		return err
	}
	if n != want {
		return recordError(c.pos(), tag, fmt.Errorf("index %d out of order, expected %d", n, want))
	}
	return nil
}

func (c *cursor) vec3(tag uint16) (xfile.Vec3, error) {
	rec, err := c.next(tag)
	if err != nil {
		return xfile.Vec3{}, err
	}
	return xfile.Vec3(rec.(*recVec3).Value), nil
}

// transform reads an OFFSET, X, Y, Z sequence.
func (c *cursor) transform() (offset xfile.Vec3, m xfile.Mat3, err error) {
	if offset, err = c.vec3(tagOffset); err != nil {
		return offset, m, err
	}
	for i, tag := range [3]uint16{tagX, tagY, tagZ} {
		if m[i], err = c.vec3(tag); err != nil {
			return offset, m, err
		}
	}
	return offset, m, nil
}

// comments skips leading comment records.
func (c *cursor) comments() (lines []string) {
	for c.peek() == tagComment {
		lines = append(lines, c.records[c.i].(*recComment).Text)
		c.i++
	}
	return lines
}

// end checks that no records remain.
func (c *cursor) end() error {
	if c.done() {
		return nil
	}
	return recordError(c.i, c.records[c.i].Tag(), ErrTrailingRecords)
}

////////////////////////////////////////////////////////////////

// modelCodec converts between the record grammar of a model and
// xfile.Model.
type modelCodec struct {
	Version xfile.FormatVersion
	Header  []string
}

func (mc *modelCodec) Decode(f *formatModel) (model *xfile.Model, warn, err error) {
	var warns errors.Errors
	c := &cursor{records: f.Records}
	mc.Header = c.comments()

	rec, err := c.next(tagModel)
	if err != nil {
		return nil, nil, err
	}
	model = &xfile.Model{Name: rec.(*recModel).Name}

	if rec, err = c.next(tagVersion); err != nil {
		return nil, nil, err
	}
	v := rec.(*recVersion).Version
	mc.Version = xfile.FormatVersion(v)
	if !mc.Version.Supported() {
		return nil, nil, recordError(c.pos(), tagVersion, ErrUnrecognizedVersion(v))
	}

	// Bones.
	n, err := c.list(tagNumBones)
	if err != nil {
		return nil, nil, err
	}
	model.Bones = make([]xfile.Bone, n)
	for i := range model.Bones {
		if rec, err = c.next(tagBone); err != nil {
			return nil, warns.Return(), err
		}
		b := rec.(*recBone)
		if int(b.Index) != i {
			return nil, warns.Return(), recordError(c.pos(), tagBone, fmt.Errorf("index %d out of order, expected %d", b.Index, i))
		}
		if b.Parent < -1 || int(b.Parent) >= i {
			return nil, warns.Return(), recordError(c.pos(), tagBone, fmt.Errorf("bone %d has parent %d; parents must precede children", i, b.Parent))
		}
		model.Bones[i] = xfile.Bone{Name: b.Name, Parent: int(b.Parent)}
	}
	for i := range model.Bones {
		if err := c.index(tagBoneIndex, i); err != nil {
			return nil, warns.Return(), err
		}
		bone := &model.Bones[i]
		if bone.Offset, bone.Matrix, err = c.transform(); err != nil {
			return nil, warns.Return(), err
		}
	}

	// Materials.
	if n, err = c.list(tagNumMaterials); err != nil {
		return nil, warns.Return(), err
	}
	model.Materials = make([]xfile.Material, n)
	for i := range model.Materials {
		if rec, err = c.next(tagMaterial); err != nil {
			return nil, warns.Return(), err
		}
		m := rec.(*recMaterial)
		if int(m.Index) != i {
			return nil, warns.Return(), recordError(c.pos(), tagMaterial, fmt.Errorf("index %d out of order, expected %d", m.Index, i))
		}
		mtl := xfile.Material{Name: m.Name, Technique: m.Technique}
		for _, img := range m.Images {
			if _, ok := mtl.Image(img[0]); ok {
				warns = recordWarn(warns, c.pos(), tagMaterial, "duplicate image slot %q", img[0])
			}
			mtl.SetImage(img[0], img[1])
		}
		model.Materials[i] = mtl
	}

	// Objects.
	if n, err = c.list(tagNumObjects); err != nil {
		return nil, warns.Return(), err
	}
	model.Meshes = make([]xfile.Mesh, n)
	for i := range model.Meshes {
		if rec, err = c.next(tagObject); err != nil {
			return nil, warns.Return(), err
		}
		obj := rec.(*recName)
		if int(obj.Index) != i {
			return nil, warns.Return(), recordError(c.pos(), tagObject, fmt.Errorf("index %d out of order, expected %d", obj.Index, i))
		}
		mesh := &model.Meshes[i]
		mesh.Name = obj.Name
		if warns, err = mc.decodeVerts(c, model, mesh, warns); err != nil {
			return nil, warns.Return(), err
		}
		if warns, err = mc.decodeFaces(c, model, mesh, warns); err != nil {
			return nil, warns.Return(), err
		}
	}

	if err = c.end(); err != nil {
		return nil, warns.Return(), err
	}
	return model, warns.Return(), nil
}

func (mc *modelCodec) decodeVerts(c *cursor, model *xfile.Model, mesh *xfile.Mesh, warns errors.Errors) (errors.Errors, error) {
	n, err := c.list(tagNumVerts)
	if err != nil {
		return warns, err
	}
	root := model.Root()
	mesh.Verts = make([]xfile.Vertex, n)
	for i := range mesh.Verts {
		rec, err := c.next(tagVert)
		if err != nil {
			return warns, err
		}
		v := rec.(*recVert)
		if int(v.Index) != i {
			return warns, recordError(c.pos(), tagVert, fmt.Errorf("index %d out of order, expected %d", v.Index, i))
		}
		if len(v.Weights) > xfile.MaxWeights {
			return warns, recordError(c.pos(), tagVert, fmt.Errorf("%w: %d", ErrTooManyWeights, len(v.Weights)))
		}
		vert := xfile.Vertex{Offset: xfile.Vec3(v.Offset)}
		for _, w := range v.Weights {
			if int(w.Bone) >= len(model.Bones) {
				return warns, recordError(c.pos(), tagVert, fmt.Errorf("bone %d out of range", w.Bone))
			}
			vert.Weights = append(vert.Weights, xfile.Weight{Bone: int(w.Bone), Weight: w.Weight})
		}
		if len(vert.Weights) == 0 && root >= 0 {
			vert.Weights = []xfile.Weight{{Bone: root, Weight: 1}}
			warns = recordWarn(warns, c.pos(), tagVert, "vertex %d has no weights; bound to bone %d", i, root)
		}
		mesh.Verts[i] = vert
	}
	return warns, nil
}

func (mc *modelCodec) decodeFaces(c *cursor, model *xfile.Model, mesh *xfile.Mesh, warns errors.Errors) (errors.Errors, error) {
	n, err := c.list(tagNumFaces)
	if err != nil {
		return warns, err
	}
	mesh.Faces = make([]xfile.Face, 0, n)
	for i := 0; i < n; i++ {
		rec, err := c.next(tagTri)
		if err != nil {
			return warns, err
		}
		tri := rec.(*recTri)
		var face xfile.Face
		face.Material = int(tri.Material)
		for j, corner := range tri.Corners {
			if int(corner.Vertex) >= len(mesh.Verts) {
				return warns, recordError(c.pos(), tagTri, fmt.Errorf("vertex %d out of range", corner.Vertex))
			}
			face.Indices[j] = xfile.FaceVertex{
				Vertex: int(corner.Vertex),
				Normal: xfile.Vec3(corner.Normal),
				Color:  xfile.Color(corner.Color),
				UV:     xfile.UV(corner.UV),
			}
		}
		if face.Material < 0 || face.Material >= len(model.Materials) {
			warns = recordWarn(warns, c.pos(), tagTri, "face %d of %q refers to material %d of %d; face dropped", i, mesh.Name, face.Material, len(model.Materials))
			continue
		}
		if face.Degenerate() {
			warns = recordWarn(warns, c.pos(), tagTri, "face %d of %q is degenerate", i, mesh.Name)
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return warns, nil
}

func (mc *modelCodec) Encode(model *xfile.Model) (f *formatModel, warn, err error) {
	if err = mc.Version.Check(); err != nil {
		return nil, nil, err
	}
	if err = xfile.ValidateBones(model.Bones); err != nil {
		return nil, nil, err
	}
	var warns errors.Errors
	f = &formatModel{}
	add := func(r ...record) {
		f.Records = append(f.Records, r...)
	}
	for _, line := range mc.Header {
		add(&recComment{Text: line})
	}
	add(&recModel{Name: model.Name}, &recVersion{Version: uint16(mc.Version)})

	add(&recCount{tag: tagNumBones, Value: uint32(len(model.Bones))})
	for i, b := range model.Bones {
		add(&recBone{Index: int32(i), Parent: int32(b.Parent), Name: b.Name})
	}
	for i, b := range model.Bones {
		add(
			&recCount{tag: tagBoneIndex, Value: uint32(i)},
			&recVec3{tag: tagOffset, Value: b.Offset},
			&recVec3{tag: tagX, Value: b.Matrix[0]},
			&recVec3{tag: tagY, Value: b.Matrix[1]},
			&recVec3{tag: tagZ, Value: b.Matrix[2]},
		)
	}

	add(&recCount{tag: tagNumMaterials, Value: uint32(len(model.Materials))})
	for i, m := range model.Materials {
		rec := &recMaterial{Index: uint32(i), Name: m.Name, Technique: m.Technique}
		for _, img := range m.Images {
			if !mc.Version.HasImageSlots() && img.Kind() != xfile.SlotColor {
				warns = warns.Warnf("material %q: image slot %q is not supported by version %d; dropped", m.Name, img.Slot, mc.Version)
				continue
			}
			rec.Images = append(rec.Images, [2]string{img.Slot, img.File})
		}
		add(rec)
	}

	root := model.Root()
	color := mc.Version.HasVertexColor()
	add(&recCount{tag: tagNumObjects, Value: uint32(len(model.Meshes))})
	for i, mesh := range model.Meshes {
		add(
			&recName{tag: tagObject, Index: uint32(i), Name: mesh.Name},
			&recCount{tag: tagNumVerts, Value: uint32(len(mesh.Verts))},
		)
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
			rec := &recVert{Index: uint32(j), Offset: v.Offset, Weights: make([]vertWeight, len(ws))}
			for k, w := range ws {
				if w.Bone < 0 || w.Bone >= len(model.Bones) {
					return nil, warns.Return(), errors.Kind(errors.ErrMalformedStream,
						fmt.Errorf("mesh %q: vertex %d refers to bone %d of %d", mesh.Name, j, w.Bone, len(model.Bones)))
				}
				rec.Weights[k] = vertWeight{Bone: uint32(w.Bone), Weight: w.Weight}
			}
			add(rec)
		}

		var tris []record
		for j, face := range mesh.Faces {
			if face.Material < 0 || face.Material >= len(model.Materials) {
				warns = warns.Warnf("mesh %q: face %d refers to material %d of %d; face dropped", mesh.Name, j, face.Material, len(model.Materials))
				continue
			}
			tri := &recTri{Color: color, Material: int32(face.Material)}
			for k, fv := range face.Indices {
				if fv.Vertex < 0 || fv.Vertex >= len(mesh.Verts) {
					return nil, warns.Return(), errors.Kind(errors.ErrMalformedStream,
						fmt.Errorf("mesh %q: face %d refers to vertex %d of %d", mesh.Name, j, fv.Vertex, len(mesh.Verts)))
				}
				tri.Corners[k] = triCorner{
					Vertex: uint32(fv.Vertex),
					Normal: fv.Normal,
					Color:  fv.Color,
					UV:     fv.UV,
				}
			}
			tris = append(tris, tri)
		}
		add(&recCount{tag: tagNumFaces, Value: uint32(len(tris))})
		add(tris...)
	}
	return f, warns.Return(), nil
}

////////////////////////////////////////////////////////////////

// animCodec converts between the record grammar of an anim and xfile.Anim.
type animCodec struct {
	Header []string
}

func (ac *animCodec) Decode(f *formatModel) (anim *xfile.Anim, warn, err error) {
	var warns errors.Errors
	c := &cursor{records: f.Records}
	ac.Header = c.comments()

	if _, err = c.next(tagAnimation); err != nil {
		return nil, nil, err
	}
	rec, err := c.next(tagVersion)
	if err != nil {
		return nil, nil, err
	}
	anim = &xfile.Anim{Version: int(rec.(*recVersion).Version)}
	if anim.Version != xfile.AnimVersion {
		return nil, nil, recordError(c.pos(), tagVersion, ErrUnrecognizedVersion(anim.Version))
	}
	if rec, err = c.next(tagFramerate); err != nil {
		return nil, nil, err
	}
	anim.Framerate = rec.(*recFramerate).Rate

	parts, err := c.list(tagNumParts)
	if err != nil {
		return nil, nil, err
	}
	anim.Parts = make([]xfile.PartInfo, parts)
	for i := range anim.Parts {
		if rec, err = c.next(tagPart); err != nil {
			return nil, nil, err
		}
		p := rec.(*recName)
		if int(p.Index) != i {
			return nil, nil, recordError(c.pos(), tagPart, fmt.Errorf("index %d out of order, expected %d", p.Index, i))
		}
		anim.Parts[i].Name = p.Name
	}

	frames, err := c.list(tagNumFrames)
	if err != nil {
		return nil, nil, err
	}
	anim.Frames = make([]xfile.Frame, frames)
	for i := range anim.Frames {
		if rec, err = c.next(tagFrame); err != nil {
			return nil, nil, err
		}
		frame := &anim.Frames[i]
		frame.Number = int(rec.(*recFrame).Number)
		if i > 0 && frame.Number <= anim.Frames[i-1].Number {
			return nil, nil, recordError(c.pos(), tagFrame, fmt.Errorf("frame %d follows frame %d", frame.Number, anim.Frames[i-1].Number))
		}
		frame.Parts = make([]xfile.FramePart, parts)
		seen := make([]bool, parts)
		for j := 0; j < parts; j++ {
			index, err := c.count(tagPartIndex)
			if err != nil {
				return nil, nil, err
			}
			if index >= parts {
				return nil, nil, recordError(c.pos(), tagPartIndex, fmt.Errorf("part %d is not in the part table of %d parts", index, parts))
			}
			if seen[index] {
				return nil, nil, recordError(c.pos(), tagPartIndex, fmt.Errorf("part %d appears twice in frame %d", index, frame.Number))
			}
			seen[index] = true
			part := &frame.Parts[index]
			if part.Offset, part.Matrix, err = c.transform(); err != nil {
				return nil, nil, err
			}
		}
	}

	if c.peek() == tagNumKeys {
		keys, err := c.list(tagNumKeys)
		if err != nil {
			return nil, nil, err
		}
		anim.Notes = make([]xfile.Note, keys)
		for i := range anim.Notes {
			if rec, err = c.next(tagNote); err != nil {
				return nil, nil, err
			}
			n := rec.(*recNote)
			anim.Notes[i] = xfile.Note{Frame: int(n.Frame), Name: n.Name}
			if first, last, ok := anim.FrameRange(); ok && (int(n.Frame) < first || int(n.Frame) > last) {
				warns = recordWarn(warns, c.pos(), tagNote, "note %q at frame %d is outside of frames %d to %d", n.Name, n.Frame, first, last)
			}
		}
	}

	if err = c.end(); err != nil {
		return nil, warns.Return(), err
	}
	return anim, warns.Return(), nil
}

func (ac *animCodec) Encode(anim *xfile.Anim) (f *formatModel, warn, err error) {
	if err = anim.Validate(); err != nil {
		return nil, nil, err
	}
	f = &formatModel{}
	add := func(r ...record) {
		f.Records = append(f.Records, r...)
	}
	for _, line := range ac.Header {
		add(&recComment{Text: line})
	}
	add(
		&recAnimation{},
		&recVersion{Version: uint16(anim.Version)},
		&recFramerate{Rate: anim.Framerate},
		&recCount{tag: tagNumParts, Value: uint32(len(anim.Parts))},
	)
	for i, p := range anim.Parts {
		add(&recName{tag: tagPart, Index: uint32(i), Name: p.Name})
	}
	add(&recCount{tag: tagNumFrames, Value: uint32(len(anim.Frames))})
	for _, frame := range anim.Frames {
		add(&recFrame{Number: int32(frame.Number)})
		for j, part := range frame.Parts {
			add(
				&recCount{tag: tagPartIndex, Value: uint32(j)},
				&recVec3{tag: tagOffset, Value: part.Offset},
				&recVec3{tag: tagX, Value: part.Matrix[0]},
				&recVec3{tag: tagY, Value: part.Matrix[1]},
				&recVec3{tag: tagZ, Value: part.Matrix[2]},
			)
		}
	}
	if len(anim.Notes) > 0 {
		add(&recCount{tag: tagNumKeys, Value: uint32(len(anim.Notes))})
		for _, n := range anim.Notes {
			add(&recNote{Frame: int32(n.Frame), Name: n.Name})
		}
	}
	return f, nil, nil
}
