package xexport

import (
	"github.com/pvcod/xfile"
	"github.com/pvcod/xfile/errors"
)

const formatAnim = "XANIM_EXPORT"

// animCodec converts between a Document and an xfile.Anim.
type animCodec struct {
	// EmbedNotes indicates whether notes are written in a NOTETRACKS section.
	EmbedNotes bool
}

func (ac *animCodec) Decode(doc *Document) (anim *xfile.Anim, warn, err error) {
	var warns errors.Errors
	p := &parser{lines: doc.Lines}

	p.line("ANIMATION", 0)
	l := p.line("VERSION", 1)
	version := p.int(l, 0)
	if p.err != nil {
		return nil, nil, p.err
	}
	if version != xfile.AnimVersion {
		return nil, nil, xfile.VersionError{Format: formatAnim, Version: version}
	}
	anim = &xfile.Anim{Version: version}

	n := p.count("NUMPARTS")
	anim.Parts = make([]xfile.PartInfo, 0, p.capacity(n))
	for i := 0; i < n && p.err == nil; i++ {
		l := p.line("PART", 2)
		if index := p.int(l, 0); p.err == nil && index != i {
			p.fail(l, "PART: index %d out of order, expected %d", index, i)
		}
		anim.Parts = append(anim.Parts, xfile.PartInfo{Name: p.arg(l, 1)})
	}

	l = p.line("FRAMERATE", 1)
	anim.Framerate = p.float(l, 0)
	if p.err == nil && anim.Framerate <= 0 {
		p.fail(l, "FRAMERATE: must be positive, got %g", anim.Framerate)
	}

	n = p.count("NUMFRAMES")
	anim.Frames = make([]xfile.Frame, 0, p.capacity(n))
	for i := 0; i < n && p.err == nil; i++ {
		l := p.line("FRAME", 1)
		f := xfile.Frame{Number: p.int(l, 0), Parts: make([]xfile.FramePart, len(anim.Parts))}
		if p.err == nil && i > 0 && f.Number <= anim.Frames[i-1].Number {
			p.fail(l, "FRAME: frame %d does not follow frame %d", f.Number, anim.Frames[i-1].Number)
		}
		seen := make([]bool, len(anim.Parts))
		for j := 0; j < len(anim.Parts) && p.err == nil; j++ {
			l := p.line("PART", 1)
			index := p.int(l, 0)
			switch {
			case p.err != nil:
			case index < 0 || index >= len(anim.Parts):
				p.fail(l, "PART: part %d out of range", index)
			case seen[index]:
				p.fail(l, "PART: part %d repeated in frame %d", index, f.Number)
			default:
				seen[index] = true
				part := &f.Parts[index]
				part.Offset, part.Matrix = p.transform(false)
			}
		}
		anim.Frames = append(anim.Frames, f)
	}

	if p.peek() == "NOTETRACKS" {
		p.line("NOTETRACKS", 0)
		for p.peek() == "PART" {
			l := p.line("PART", 1)
			if index := p.int(l, 0); p.err == nil && (index < 0 || index >= len(anim.Parts)) {
				p.fail(l, "PART: part %d out of range", index)
			}
			tracks := p.count("NUMTRACKS")
			for t := 0; t < tracks && p.err == nil; t++ {
				p.index("NOTETRACK", t)
				anim.Notes = append(anim.Notes, p.notes()...)
			}
		}
	}
	p.end()
	if p.err != nil {
		return nil, warns.Return(), p.err
	}

	warns = checkNotes(anim, warns)
	return anim, warns.Return(), nil
}

// notes reads a NUMKEYS line followed by the keys it declares.
func (p *parser) notes() []xfile.Note {
	n := p.count("NUMKEYS")
	notes := make([]xfile.Note, 0, p.capacity(n))
	for i := 0; i < n && p.err == nil; i++ {
		l := p.line("FRAME", 2)
		notes = append(notes, xfile.Note{Frame: p.int(l, 0), Name: p.arg(l, 1)})
	}
	return notes
}

// checkNotes warns about notes that lie outside of the frames of the anim.
func checkNotes(anim *xfile.Anim, warns errors.Errors) errors.Errors {
	first, last, ok := anim.FrameRange()
	for _, n := range anim.Notes {
		if !ok || n.Frame < first || n.Frame > last {
			warns = warns.Warnf("note %q at frame %d is outside of the frame range", n.Name, n.Frame)
		}
	}
	return warns
}

func (ac *animCodec) Encode(anim *xfile.Anim) (doc *Document, warn, err error) {
	if err = anim.Validate(); err != nil {
		return nil, nil, err
	}
	var warns errors.Errors
	b := &builder{}

	b.add("ANIMATION")
	b.add("VERSION", anim.Version)
	b.blank()

	b.add("NUMPARTS", len(anim.Parts))
	for i, part := range anim.Parts {
		b.add("PART", i, part.Name)
	}
	b.blank()

	framerate := anim.Framerate
	if framerate <= 0 {
		framerate = xfile.DefaultFramerate
		warns = warns.Warnf("framerate %g replaced with %d", anim.Framerate, xfile.DefaultFramerate)
	}
	b.add("FRAMERATE", int(framerate))
	if float32(int(framerate)) != framerate {
		warns = warns.Warnf("framerate %g truncated to %d", framerate, int(framerate))
	}
	b.add("NUMFRAMES", len(anim.Frames))
	for _, f := range anim.Frames {
		b.add("FRAME", f.Number)
		for i, part := range f.Parts {
			b.add("PART", i)
			b.transform(part.Offset, part.Matrix, false)
		}
		b.blank()
	}

	if ac.EmbedNotes {
		if len(anim.Parts) == 0 && len(anim.Notes) > 0 {
			warns = warns.Warnf("no parts to carry %d notes; notes dropped", len(anim.Notes))
		}
		b.add("NOTETRACKS")
		b.blank()
		for i := range anim.Parts {
			b.add("PART", i)
			if i == 0 {
				b.add("NUMTRACKS", 1)
				b.add("NOTETRACK", 0)
				b.keys(anim.Notes)
			} else {
				b.add("NUMTRACKS", 0)
			}
			b.blank()
		}
	}
	return &b.doc, errors.Union(warns.Return(), noteWarnings(anim)), nil
}

// noteWarnings returns warnings for notes outside of the frames of anim.
func noteWarnings(anim *xfile.Anim) error {
	return checkNotes(anim, nil).Return()
}

// keys writes a NUMKEYS line followed by one line per note.
func (b *builder) keys(notes []xfile.Note) {
	b.add("NUMKEYS", len(notes))
	for _, n := range notes {
		b.add("FRAME", n.Frame, n.Name)
	}
}

////////////////////////////////////////////////////////////////

const formatNotetrack = "NT_EXPORT"

// decodeNotetrack reads a companion notetrack document into the notes of anim.
func decodeNotetrack(doc *Document, anim *xfile.Anim) (warn, err error) {
	p := &parser{lines: doc.Lines}
	l := p.line("FIRSTFRAME", 1)
	first := p.int(l, 0)
	numFrames := p.count("NUMFRAMES")
	notes := p.notes()
	p.end()
	if p.err != nil {
		return nil, p.err
	}

	var warns errors.Errors
	if f, last, ok := anim.FrameRange(); ok && (f != first || last-f+1 != numFrames) {
		warns = warns.Warnf("notetrack covers frames %d to %d, anim covers %d to %d", first, first+numFrames-1, f, last)
	}
	anim.Notes = notes
	warns = checkNotes(anim, warns)
	return warns.Return(), nil
}

// encodeNotetrack writes the notes of anim as a companion notetrack document.
func encodeNotetrack(anim *xfile.Anim) (doc *Document, warn error) {
	b := &builder{}
	first, last, ok := anim.FrameRange()
	numFrames := 0
	if ok {
		numFrames = last - first + 1
	}
	b.add("FIRSTFRAME", first)
	b.add("NUMFRAMES", numFrames)
	b.keys(anim.Notes)
	return &b.doc, noteWarnings(anim)
}
