package xexport

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pvcod/xfile/errors"
)

// Field is a single token of a line.
type Field struct {
	Text string

	// Quoted indicates whether the field is a quoted string. When decoding,
	// Text holds the content between the quotes. When encoding, double quotes
	// within Text are replaced with single quotes.
	Quoted bool
}

// Line is a keyword followed by zero or more arguments. A line with no fields
// is blank.
type Line struct {
	// Number is the line number within the document, starting at 1. It is set
	// when decoding.
	Number int

	Fields []Field

	// Comma indicates whether arguments are separated by commas when
	// encoding. Commas are treated as whitespace when decoding.
	Comma bool
}

// Keyword returns the first field of the line, or an empty string.
func (l Line) Keyword() string {
	if len(l.Fields) == 0 {
		return ""
	}
	return l.Fields[0].Text
}

// Args returns the fields following the keyword.
func (l Line) Args() []Field {
	if len(l.Fields) == 0 {
		return nil
	}
	return l.Fields[1:]
}

// Document represents an entire text export.
type Document struct {
	// Header is the block of comment lines that precedes the first keyword.
	// Lines are stored without the comment marker.
	Header []string

	// Lines is the list of non-blank lines that follow the header. Comments
	// after the header are discarded when decoding.
	Lines []Line
}

// A SyntaxError represents a syntax error in the text input stream. It matches
// errors.ErrMalformedStream.
type SyntaxError struct {
	Msg  string
	Line int
}

func (e *SyntaxError) Error() string {
	if e.Line <= 0 {
		return "syntax error: " + e.Msg
	}
	return "syntax error on line " + strconv.Itoa(e.Line) + ": " + e.Msg
}

func (e *SyntaxError) Is(target error) bool {
	return target == errors.ErrMalformedStream
}

const commentMarker = "//"

func isSpace(b byte) bool {
	switch b {
	case ' ', '\r', '\n', '\t', '\f', '\v', ',':
		return true
	default:
		return false
	}
}

// splitLine separates a line into fields. comment holds the text following a
// comment marker, and ok reports whether the marker was present.
func splitLine(s string, number int) (fields []Field, comment string, ok bool, err error) {
	for i := 0; i < len(s); {
		switch {
		case isSpace(s[i]):
			i++
		case strings.HasPrefix(s[i:], commentMarker):
			return fields, strings.TrimSpace(s[i+len(commentMarker):]), true, nil
		case s[i] == '"':
			// Strings have no escapes; paths keep their backslashes.
			j := strings.IndexByte(s[i+1:], '"')
			if j < 0 {
				return nil, "", false, &SyntaxError{Msg: "unterminated string", Line: number}
			}
			fields = append(fields, Field{Text: s[i+1 : i+1+j], Quoted: true})
			i += j + 2
		default:
			j := i
			for j < len(s) && !isSpace(s[j]) && s[j] != '"' && !strings.HasPrefix(s[j:], commentMarker) {
				j++
			}
			fields = append(fields, Field{Text: s[i:j]})
			i = j
		}
	}
	return fields, "", false, nil
}

// ReadFrom decodes data from r into the Document.
func (doc *Document) ReadFrom(r io.Reader) (n int64, err error) {
	if r == nil {
		return 0, errors.New("reader is nil")
	}

	doc.Header = doc.Header[:0]
	doc.Lines = doc.Lines[:0]

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	number := 0
	for s.Scan() {
		number++
		text := s.Text()
		n += int64(len(text)) + 1
		fields, comment, isComment, err := splitLine(text, number)
		if err != nil {
			return n, err
		}
		if len(fields) == 0 {
			if isComment && len(doc.Lines) == 0 {
				doc.Header = append(doc.Header, comment)
			}
			continue
		}
		doc.Lines = append(doc.Lines, Line{Number: number, Fields: fields})
	}
	if err = s.Err(); err != nil {
		return n, err
	}
	return n, nil
}

// WriteTo encodes the Document to w. Blank lines are written as is.
func (doc *Document) WriteTo(w io.Writer) (n int64, err error) {
	if w == nil {
		return 0, errors.New("writer is nil")
	}

	e := &encoder{Writer: bufio.NewWriter(w)}
	for _, h := range doc.Header {
		if !strings.HasPrefix(h, commentMarker) {
			e.writeString(commentMarker + " ")
		}
		e.writeString(h)
		e.writeString("\n")
	}
	if len(doc.Header) > 0 {
		e.writeString("\n")
	}
	for _, l := range doc.Lines {
		e.encodeLine(l)
	}
	e.flush()
	return e.n, e.err
}

type encoder struct {
	*bufio.Writer
	n   int64
	err error
}

func (e *encoder) writeString(s string) bool {
	if e.err != nil {
		return false
	}
	var n int
	n, e.err = e.WriteString(s)
	e.n += int64(n)
	return e.err == nil
}

func (e *encoder) flush() bool {
	if e.err != nil {
		return false
	}
	e.err = e.Flush()
	return e.err == nil
}

func (e *encoder) encodeLine(l Line) {
	for i, f := range l.Fields {
		switch {
		case i == 0:
		case i > 1 && l.Comma:
			e.writeString(", ")
		default:
			e.writeString(" ")
		}
		if f.Quoted {
			e.writeString(`"` + strings.ReplaceAll(f.Text, `"`, "'") + `"`)
		} else {
			e.writeString(f.Text)
		}
	}
	e.writeString("\n")
}
