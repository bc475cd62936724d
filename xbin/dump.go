package xbin

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"github.com/pvcod/xfile/errors"
)

// Dump writes to w a readable representation of the binary format decoded from
// r.
func (d Decoder) Dump(w io.Writer, r io.Reader) (warn, err error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	if w == nil {
		return nil, errors.New("nil writer")
	}

	f, warn, err := d.decode(r)
	if err != nil {
		return warn, err
	}
	if err = d.checkMode(f); err != nil {
		return warn, err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Mode: %s", f.Mode())
	if f.Compressed {
		fmt.Fprint(bw, "\nPayload: (compressed)")
	} else {
		fmt.Fprint(bw, "\nPayload: (uncompressed)")
	}
	fmt.Fprintf(bw, "\nSize: %d", f.Size)
	fmt.Fprint(bw, "\nRecords: {")
	for i, rec := range f.Records {
		dumpRecord(bw, 1, i, rec)
	}
	fmt.Fprint(bw, "\n}\n")

	return warn, bw.Flush()
}

func dumpRecord(w *bufio.Writer, indent, i int, rec record) {
	dumpNewline(w, indent)
	if i >= 0 {
		fmt.Fprintf(w, "#%d: ", i)
	}
	dumpTag(w, rec.Tag())
	switch rec := rec.(type) {
	case *recComment:
		w.WriteByte(' ')
		dumpString(w, indent, rec.Text)
	case *recModel:
		w.WriteByte(' ')
		dumpString(w, indent, rec.Name)
	case *recAnimation:
	case *recVersion:
		fmt.Fprintf(w, " %d", rec.Version)
	case *recCount:
		fmt.Fprintf(w, " %d", rec.Value)
	case *recBone:
		fmt.Fprintf(w, " %d parent:%d ", rec.Index, rec.Parent)
		dumpString(w, indent, rec.Name)
	case *recVec3:
		dumpFloats(w, rec.Value[:]...)
	case *recMaterial:
		fmt.Fprintf(w, " %d {", rec.Index)
		dumpNewline(w, indent+1)
		w.WriteString("Name: ")
		dumpString(w, indent+1, rec.Name)
		dumpNewline(w, indent+1)
		w.WriteString("Technique: ")
		dumpString(w, indent+1, rec.Technique)
		dumpNewline(w, indent+1)
		fmt.Fprintf(w, "Images: (count:%d) {", len(rec.Images))
		for _, img := range rec.Images {
			dumpNewline(w, indent+2)
			dumpString(w, indent+2, img[0])
			w.WriteString(": ")
			dumpString(w, indent+2, img[1])
		}
		dumpNewline(w, indent+1)
		w.WriteByte('}')
		dumpNewline(w, indent)
		w.WriteByte('}')
	case *recName:
		fmt.Fprintf(w, " %d ", rec.Index)
		dumpString(w, indent, rec.Name)
	case *recVert:
		fmt.Fprintf(w, " %d", rec.Index)
		dumpFloats(w, rec.Offset[:]...)
		fmt.Fprintf(w, " weights:(count:%d) {", len(rec.Weights))
		for _, wt := range rec.Weights {
			dumpNewline(w, indent+1)
			fmt.Fprintf(w, "%d: %s", wt.Bone, formatFloat(wt.Weight))
		}
		dumpNewline(w, indent)
		w.WriteByte('}')
	case *recTri:
		fmt.Fprintf(w, " material:%d {", rec.Material)
		for _, c := range rec.Corners {
			dumpNewline(w, indent+1)
			fmt.Fprintf(w, "%d normal:", c.Vertex)
			dumpFloats(w, c.Normal[:]...)
			if rec.Color {
				fmt.Fprintf(w, " color: %d %d %d %d", c.Color[0], c.Color[1], c.Color[2], c.Color[3])
			}
			w.WriteString(" uv:")
			dumpFloats(w, c.UV[:]...)
		}
		dumpNewline(w, indent)
		w.WriteByte('}')
	case *recFramerate:
		dumpFloats(w, rec.Rate)
	case *recFrame:
		fmt.Fprintf(w, " %d", rec.Number)
	case *recNote:
		fmt.Fprintf(w, " %d ", rec.Frame)
		dumpString(w, indent, rec.Name)
	case *recUnknown:
		w.WriteString(" <unknown record tag> {")
		dumpNewline(w, indent+1)
		w.WriteString("Bytes: ")
		dumpBytes(w, indent+1, rec.Bytes)
		dumpNewline(w, indent)
		w.WriteByte('}')
	case *recErrored:
		w.WriteString(" <errored record> {")
		dumpNewline(w, indent+1)
		fmt.Fprintf(w, "Offset: %d", rec.Offset)
		dumpNewline(w, indent+1)
		fmt.Fprintf(w, "Error: %s", rec.Cause)
		dumpNewline(w, indent+1)
		w.WriteString("Bytes: ")
		dumpBytes(w, indent+1, rec.Bytes)
		dumpNewline(w, indent)
		w.WriteByte('}')
	}
}

func dumpNewline(w *bufio.Writer, indent int) {
	w.WriteByte('\n')
	for i := 0; i < indent; i++ {
		w.WriteByte('\t')
	}
}

func dumpTag(w *bufio.Writer, tag uint16) {
	fmt.Fprintf(w, "%s (%04X)", tagName(tag), tag)
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func dumpFloats(w *bufio.Writer, fs ...float32) {
	for _, f := range fs {
		w.WriteByte(' ')
		w.WriteString(formatFloat(f))
	}
}

func dumpString(w *bufio.Writer, indent int, s string) {
	for _, r := range s {
		if !unicode.IsGraphic(r) {
			dumpBytes(w, indent, []byte(s))
			return
		}
	}
	fmt.Fprintf(w, "(len:%d) ", len(s))
	w.WriteString(strconv.Quote(s))
}

func dumpBytes(w *bufio.Writer, indent int, b []byte) {
	fmt.Fprintf(w, "(len:%d)", len(b))
	const width = 16
	for j := 0; j < len(b); j += width {
		dumpNewline(w, indent+1)
		w.WriteString("| ")
		for i := j; i < j+width; {
			if i < len(b) {
				s := strconv.FormatUint(uint64(b[i]), 16)
				if len(s) == 1 {
					w.WriteString("0")
				}
				w.WriteString(s)
			} else if len(b) < width {
				break
			} else {
				w.WriteString("  ")
			}
			i++
			if i%8 == 0 && i < j+width {
				w.WriteString("  ")
			} else {
				w.WriteString(" ")
			}
		}
		w.WriteString("|")
		n := len(b)
		if j+width < n {
			n = j + width
		}
		for i := j; i < n; i++ {
			if 32 <= b[i] && b[i] <= 126 {
				w.WriteRune(rune(b[i]))
			} else {
				w.WriteByte('.')
			}
		}
		w.WriteByte('|')
	}
}
