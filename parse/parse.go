// Package parse converts a dsp template into its in-memory representation.
package parse

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/Bithero-Agency/ninox.d-dsp/ast"
	"github.com/Bithero-Agency/ninox.d-dsp/errortypes"
)

// tree is the parsing state for a single dsp input.
type tree struct {
	name       string          // name provided for the input
	cur        *cursor         // streaming input cursor
	tmpl       *ast.Template   // the template being populated
	text       bytes.Buffer    // pending literal text, escaped
	textPos    ast.Pos         // position of the pending text run's first byte
	trailingWS int             // escaped length of the pending trailing space/tab run
	seen       map[string]bool // single-occurrence directives already encountered
}

// Parse reads a dsp template from r and returns its parsed representation.
// The input is consumed incrementally to its end; closing r remains the
// caller's responsibility.  The result may be used as input to a backend
// such as dspjs to generate rendering code.
func Parse(name string, r io.Reader) (tmpl *ast.Template, err error) {
	var t = &tree{
		name: name,
		cur:  newCursor(r),
		tmpl: &ast.Template{Name: name},
		seen: make(map[string]bool),
	}
	defer t.recover(&err)
	t.parse()
	t.cur = nil
	return t.tmpl, nil
}

// ParseString is Parse reading from an in-memory source.
func ParseString(name, src string) (*ast.Template, error) {
	return Parse(name, strings.NewReader(src))
}

// parse runs the main scan loop: accumulate literal text until one of the
// three open markers is found, dispatch the tag, repeat until end of input.
func (t *tree) parse() {
	for {
		var pos = t.cur.pos()
		b, err := t.cur.read()
		if err == io.EOF {
			t.flushText()
			return
		}
		if err != nil {
			t.ioError(err)
		}
		switch b {
		case '<':
			if t.startsTag('%') {
				t.parseDirective(pos)
				continue
			}
		case '{':
			if t.startsTag('%') {
				t.parseExpr(pos)
				continue
			}
		case '[':
			if t.startsTag('[') {
				t.parseVar(pos)
				continue
			}
		}
		t.appendText(pos, b)
	}
}

// startsTag reports whether the byte following an already-consumed start
// character completes a two-character open marker.  On a miss the byte is
// pushed back so the loop reconsiders it as ordinary input.
func (t *tree) startsTag(second byte) bool {
	b, err := t.cur.read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		t.ioError(err)
	}
	if b == second {
		return true
	}
	t.cur.unread(b)
	return false
}

// parseDirective parses a <% ... %> tag.  The open marker has been consumed.
func (t *tree) parseDirective(pos ast.Pos) {
	t.skipSpace()
	name, leading, trailing := stripSigils(t.readIdent())
	if leading {
		t.trimText()
	}
	switch name {
	case "":
		if !leading && !trailing {
			t.errorf(errortypes.UnknownDirective, "missing directive identifier")
		}
		t.expectClose()
	case "layout":
		t.checkSingle("layout")
		t.skipSpace()
		t.tmpl.Layout = t.readIdent()
		t.expectClose()
	case "head":
		t.tmpl.Head += t.readRawBody()
	case "d":
		var body = t.readRawBody()
		t.emit(&ast.CodeNode{Pos: pos, Code: body})
	case "slot":
		t.checkSingle("slot")
		t.tmpl.HasSlot = true
		t.expectClose()
		t.emit(&ast.SlotNode{Pos: pos})
	case "inc":
		t.skipSpace()
		var target = t.readIdent()
		var data = strings.TrimSpace(t.readRawBody())
		t.emit(&ast.IncludeNode{Pos: pos, Target: target, Data: data})
	case "attrs":
		t.checkSingle("attrs")
		t.tmpl.Attrs = strings.TrimSpace(t.readRawBody())
	default:
		t.errorf(errortypes.UnknownDirective, "unknown directive %q", name)
	}
	if trailing {
		t.stripAfterClose()
	}
}

// parseExpr parses a {% ... %} tag.  The open marker has been consumed and
// the content is kept verbatim.
func (t *tree) parseExpr(pos ast.Pos) {
	var b strings.Builder
	for {
		c := t.mustRead()
		if c == '%' {
			c2 := t.mustRead()
			if c2 == '}' {
				t.emit(&ast.ExprNode{Pos: pos, Expr: b.String()})
				return
			}
			t.cur.unread(c2)
		}
		b.WriteByte(c)
	}
}

// parseVar parses a [[ ... ]] tag.  The open marker has been consumed and
// the content is trimmed of surrounding whitespace.
func (t *tree) parseVar(pos ast.Pos) {
	var b strings.Builder
	for {
		c := t.mustRead()
		if c == ']' {
			c2 := t.mustRead()
			if c2 == ']' {
				t.emit(&ast.VarNode{Pos: pos, Key: strings.TrimSpace(b.String())})
				return
			}
			t.cur.unread(c2)
		}
		b.WriteByte(c)
	}
}

// stripSigils splits whitespace-control sigils off a directive identifier.
// A '-' requests the effect on its own end; a '!' on either end requests
// both effects.
func stripSigils(ident string) (name string, leading, trailing bool) {
	if ident != "" {
		switch ident[0] {
		case '-':
			leading = true
			ident = ident[1:]
		case '!':
			leading, trailing = true, true
			ident = ident[1:]
		}
	}
	if ident != "" {
		switch ident[len(ident)-1] {
		case '-':
			trailing = true
			ident = ident[:len(ident)-1]
		case '!':
			leading, trailing = true, true
			ident = ident[:len(ident)-1]
		}
	}
	return ident, leading, trailing
}

// readIdent reads an identifier token, stopping before whitespace or a
// closing marker.
func (t *tree) readIdent() string {
	var b strings.Builder
	for {
		c := t.mustRead()
		if isSpace(c) || c == '%' {
			t.cur.unread(c)
			return b.String()
		}
		b.WriteByte(c)
	}
}

// skipSpace consumes whitespace inside an open tag, leaving the next
// non-space byte to be read.
func (t *tree) skipSpace() {
	for {
		c := t.mustRead()
		if !isSpace(c) {
			t.cur.unread(c)
			return
		}
	}
}

// expectClose skips optional whitespace and consumes the %> marker.
func (t *tree) expectClose() {
	for {
		c := t.mustRead()
		if isSpace(c) {
			continue
		}
		if c != '%' {
			t.errorf(errortypes.MalformedClosingMarker, "expected %%> to close tag, found %q", string(c))
		}
		if c2 := t.mustRead(); c2 != '>' {
			t.errorf(errortypes.MalformedClosingMarker, "expected %%> to close tag, found %q", "%"+string(c2))
		}
		return
	}
}

// readRawBody reads verbatim text until the %> marker.  A % not followed by
// > belongs to the body.
func (t *tree) readRawBody() string {
	var b strings.Builder
	for {
		c := t.mustRead()
		if c == '%' {
			c2 := t.mustRead()
			if c2 == '>' {
				return b.String()
			}
			t.cur.unread(c2)
		}
		b.WriteByte(c)
	}
}

// mustRead returns the next byte of an open tag.  End of input inside a tag
// is an error.
func (t *tree) mustRead() byte {
	c, err := t.cur.read()
	if err == io.EOF {
		t.errorf(errortypes.UnterminatedTag, "unexpected end of input inside tag")
	}
	if err != nil {
		t.ioError(err)
	}
	return c
}

// checkSingle fails on a repeated single-occurrence directive.
func (t *tree) checkSingle(name string) {
	if t.seen[name] {
		t.errorf(errortypes.DuplicateDirective, "duplicate directive %q", name)
	}
	t.seen[name] = true
}

// appendText adds one input byte to the pending text run, escaping it for
// splicing into a double-quoted string literal.
func (t *tree) appendText(pos ast.Pos, b byte) {
	if t.text.Len() == 0 {
		t.textPos = pos
	}
	switch b {
	case '\\':
		t.text.WriteString(`\\`)
		t.trailingWS = 0
	case '"':
		t.text.WriteString(`\"`)
		t.trailingWS = 0
	case '\n':
		t.text.WriteString(`\n`)
		t.trailingWS = 0
	case '\r':
		t.text.WriteString(`\r`)
		t.trailingWS = 0
	case '\t':
		t.text.WriteString(`\t`)
		t.trailingWS += 2
	case ' ':
		t.text.WriteByte(' ')
		t.trailingWS++
	default:
		t.text.WriteByte(b)
		t.trailingWS = 0
	}
}

// trimText removes the trailing space/tab run from the pending text.  The
// run never spans a newline, and trimming an empty buffer is a no-op.
func (t *tree) trimText() {
	if t.trailingWS > 0 {
		t.text.Truncate(t.text.Len() - t.trailingWS)
		t.trailingWS = 0
	}
}

// stripAfterClose discards whitespace following a closed tag, through the
// next newline.  Any other character ends the discard and is reconsidered;
// end of input ends it without error.
func (t *tree) stripAfterClose() {
	for {
		c, err := t.cur.read()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.ioError(err)
		}
		switch c {
		case '\n':
			return
		case ' ', '\t', '\r':
			// discarded
		default:
			t.cur.unread(c)
			return
		}
	}
}

// emit flushes any pending text and appends node to the template body.
func (t *tree) emit(node ast.Node) {
	t.flushText()
	t.tmpl.Nodes = append(t.tmpl.Nodes, node)
}

// flushText turns a non-empty pending text run into a TextNode.
func (t *tree) flushText() {
	if t.text.Len() == 0 {
		return
	}
	t.tmpl.Nodes = append(t.tmpl.Nodes, &ast.TextNode{Pos: t.textPos, Text: t.text.String()})
	t.text.Reset()
	t.trailingWS = 0
}

// recover is the handler that turns panics into returns from the top level
// of Parse.
func (t *tree) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	t.cur = nil
	*errp = e.(error)
}

// errorf builds a structured error at the current input position and
// terminates processing.
func (t *tree) errorf(kind errortypes.Kind, format string, args ...interface{}) {
	panic(errortypes.Newf(kind, t.name, t.cur.line(), t.cur.col(), format, args...))
}

// ioError terminates processing on a failed read.
func (t *tree) ioError(err error) {
	panic(fmt.Errorf("template %s:%d:%d: %w", t.name, t.cur.line(), t.cur.col(), err))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
