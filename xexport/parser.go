package xexport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pvcod/xfile"
)

// parser walks the lines of a document. The first error is retained, after
// which every method returns zero values.
type parser struct {
	lines []Line
	i     int
	err   error
}

func (p *parser) fail(l Line, format string, v ...interface{}) {
	if p.err == nil {
		p.err = &SyntaxError{Msg: fmt.Sprintf(format, v...), Line: l.Number}
	}
}

func (p *parser) done() bool {
	return p.i >= len(p.lines)
}

// peek returns the keyword of the next line, or an empty string.
func (p *parser) peek() string {
	if p.err != nil || p.done() {
		return ""
	}
	return strings.ToUpper(p.lines[p.i].Keyword())
}

// remaining returns the number of unread lines.
func (p *parser) remaining() int {
	return len(p.lines) - p.i
}

// line returns the next line, which must have the given keyword followed by n
// arguments.
func (p *parser) line(keyword string, n int) Line {
	if p.err != nil {
		return Line{}
	}
	if p.done() {
		var last Line
		if len(p.lines) > 0 {
			last = p.lines[len(p.lines)-1]
		}
		p.fail(last, "unexpected end of file, expected %s", keyword)
		return Line{}
	}
	l := p.lines[p.i]
	if !strings.EqualFold(l.Keyword(), keyword) {
		p.fail(l, "expected %s, got %s", keyword, l.Keyword())
		return Line{}
	}
	if len(l.Args()) != n {
		p.fail(l, "%s expects %d arguments, got %d", keyword, n, len(l.Args()))
		return Line{}
	}
	p.i++
	return l
}

func (p *parser) arg(l Line, i int) string {
	if p.err != nil {
		return ""
	}
	return l.Args()[i].Text
}

func (p *parser) int(l Line, i int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.arg(l, i))
	if err != nil {
		p.fail(l, "%s: invalid integer %q", l.Keyword(), p.arg(l, i))
		return 0
	}
	return v
}

func (p *parser) float(l Line, i int) float32 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.arg(l, i), 32)
	if err != nil {
		p.fail(l, "%s: invalid number %q", l.Keyword(), p.arg(l, i))
		return 0
	}
	return float32(v)
}

// count reads a line with a single non-negative integer.
func (p *parser) count(keyword string) int {
	l := p.line(keyword, 1)
	n := p.int(l, 0)
	if n < 0 {
		p.fail(l, "%s: negative count %d", keyword, n)
		return 0
	}
	return n
}

// index reads a line with a single integer, which must equal want.
func (p *parser) index(keyword string, want int) {
	l := p.line(keyword, 1)
	if n := p.int(l, 0); p.err == nil && n != want {
		p.fail(l, "%s: index %d out of order, expected %d", keyword, n, want)
	}
}

func (p *parser) vec3(keyword string) (v xfile.Vec3) {
	l := p.line(keyword, 3)
	for i := range v {
		v[i] = p.float(l, i)
	}
	return v
}

// transform reads an OFFSET, X, Y, Z sequence. scale indicates whether a
// SCALE line may follow the offset; its value is ignored.
func (p *parser) transform(scale bool) (offset xfile.Vec3, m xfile.Mat3) {
	offset = p.vec3("OFFSET")
	if scale && p.peek() == "SCALE" {
		p.vec3("SCALE")
	}
	m[0] = p.vec3("X")
	m[1] = p.vec3("Y")
	m[2] = p.vec3("Z")
	return offset, m
}

// capacity bounds a declared count by the number of remaining lines, so that
// a corrupt count does not cause a large allocation.
func (p *parser) capacity(n int) int {
	if r := p.remaining(); n > r {
		return r
	}
	return n
}

// end checks that no lines remain.
func (p *parser) end() {
	if p.err == nil && !p.done() {
		p.fail(p.lines[p.i], "unexpected %s after end of data", p.lines[p.i].Keyword())
	}
}

////////////////////////////////////////////////////////////////

// builder accumulates the lines of a document.
type builder struct {
	doc Document
}

func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', 6, 32)
	if s == "-0.000000" {
		return "0.000000"
	}
	return s
}

// add appends a line. Strings are quoted, float32 values are written with six
// decimals, and integers as is.
func (b *builder) add(keyword string, args ...interface{}) {
	b.addLine(false, keyword, args...)
}

// addComma appends a line with comma-separated arguments.
func (b *builder) addComma(keyword string, args ...interface{}) {
	b.addLine(true, keyword, args...)
}

func (b *builder) addLine(comma bool, keyword string, args ...interface{}) {
	l := Line{Fields: make([]Field, 0, len(args)+1), Comma: comma}
	l.Fields = append(l.Fields, Field{Text: keyword})
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			l.Fields = append(l.Fields, Field{Text: v, Quoted: true})
		case int:
			l.Fields = append(l.Fields, Field{Text: strconv.Itoa(v)})
		case float32:
			l.Fields = append(l.Fields, Field{Text: formatFloat(v)})
		case Field:
			l.Fields = append(l.Fields, v)
		default:
			panic(fmt.Sprintf("xexport: unsupported argument type %T", arg))
		}
	}
	b.doc.Lines = append(b.doc.Lines, l)
}

func (b *builder) vec3(keyword string, v xfile.Vec3) {
	b.addComma(keyword, v[0], v[1], v[2])
}

func (b *builder) blank() {
	b.doc.Lines = append(b.doc.Lines, Line{})
}

func (b *builder) transform(offset xfile.Vec3, m xfile.Mat3, scale bool) {
	b.vec3("OFFSET", offset)
	if scale {
		b.vec3("SCALE", xfile.Vec3{1, 1, 1})
	}
	b.vec3("X", m[0])
	b.vec3("Y", m[1])
	b.vec3("Z", m[2])
}
