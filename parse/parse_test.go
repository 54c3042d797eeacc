package parse

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Bithero-Agency/ninox.d-dsp/ast"
	"github.com/Bithero-Agency/ninox.d-dsp/errortypes"
)

type parseTest struct {
	name  string
	input string
	tmpl  *ast.Template
}

func tTemplate(nodes ...ast.Node) *ast.Template {
	return &ast.Template{Nodes: nodes}
}

func tText(text string) ast.Node {
	return &ast.TextNode{Pos: 0, Text: text}
}

func tCode(code string) ast.Node {
	return &ast.CodeNode{Pos: 0, Code: code}
}

func tInc(target, data string) ast.Node {
	return &ast.IncludeNode{Pos: 0, Target: target, Data: data}
}

func tExpr(expr string) ast.Node {
	return &ast.ExprNode{Pos: 0, Expr: expr}
}

func tVar(key string) ast.Node {
	return &ast.VarNode{Pos: 0, Key: key}
}

var parseTests = []parseTest{
	{"empty", "", tTemplate()},
	{"text", "Hello world!", tTemplate(tText("Hello world!"))},
	{"text escaping", "a \"b\" c\\d\ne\tf\r", tTemplate(tText(`a \"b\" c\\d\ne\tf\r`))},
	{"unicode text", "héllo ★", tTemplate(tText("héllo ★"))},
	{"lone start char at eof", "a<", tTemplate(tText("a<"))},
	{"start chars without second", "a<b{c[d", tTemplate(tText("a<b{c[d"))},
	{"percent without brace", "100% {x", tTemplate(tText("100% {x"))},

	{"expr", "{% 1+1 %}", tTemplate(tExpr(" 1+1 "))},
	{"expr keeps whitespace", "{%$.n%}", tTemplate(tExpr("$.n"))},
	{"expr with percent", "{% a % b %}", tTemplate(tExpr(" a % b "))},
	{"expr between text", "a{%1%}b", tTemplate(tText("a"), tExpr("1"), tText("b"))},

	{"var", "[[ name ]]", tTemplate(tVar("name"))},
	{"var untrimmed bracket", "[[a]b]]", tTemplate(tVar("a]b"))},
	{"var empty", "[[ ]]", tTemplate(tVar(""))},

	{"code", "<%d foo(); %>", tTemplate(tCode(" foo(); "))},
	{"code with percent", "<%d a %% b %>", tTemplate(tCode(" a %% b "))},
	{"code empty", "<%d%>", tTemplate(tCode(""))},

	{"slot", "<%slot%>", &ast.Template{HasSlot: true, Nodes: []ast.Node{&ast.SlotNode{Pos: 0}}}},
	{"slot with space", "<%slot  %>", &ast.Template{HasSlot: true, Nodes: []ast.Node{&ast.SlotNode{Pos: 0}}}},

	{"layout", "<%layout base%>", &ast.Template{Layout: "base"}},
	{"layout dotted", "<%layout pages.base %>", &ast.Template{Layout: "pages.base"}},
	{"layout spaced", "<% layout base %>", &ast.Template{Layout: "base"}},
	{"layout empty target", "<%layout%>", &ast.Template{}},

	{"head", "<%head var x = 1; %>", &ast.Template{Head: " var x = 1; "}},
	{"head appends", "<%head a%><%head b%>", &ast.Template{Head: " a b"}},

	{"attrs", "<%attrs async %>", &ast.Template{Attrs: "async"}},

	{"inc", "<%inc card%>", tTemplate(tInc("card", ""))},
	{"inc with data", "<%inc card $.user %>", tTemplate(tInc("card", "$.user"))},
	{"inc dotted", "<%inc widgets.card%>", tTemplate(tInc("widgets.card", ""))},
	{"inc whitespace data is absent", "<%inc card   %>", tTemplate(tInc("card", ""))},

	{"node order", "a[[k]]b{%e%}<%d c%>",
		tTemplate(tText("a"), tVar("k"), tText("b"), tExpr("e"), tCode(" c"))},

	// whitespace control
	{"leading trim", "<div>\n    <%- %>a\n</div>",
		tTemplate(tText(`<div>\na\n</div>`))},
	{"leading trim stops at newline", "a \n  <%- %>b",
		tTemplate(tText(`a \nb`))},
	{"leading trim tabs", "a\t\t<%- %>b", tTemplate(tText("ab"))},
	{"leading trim empty buffer", "<%- %>a", tTemplate(tText("a"))},
	{"trailing strip", "<div>\n    <%d- %>\na\n</div>",
		tTemplate(tText(`<div>\n    `), tCode(" "), tText(`a\n</div>`))},
	{"trailing strip stops at non-space", "<%d-%>  x\n",
		tTemplate(tCode(""), tText(`x\n`))},
	{"trailing strip consumes cr", "<%d-%> \r\nx",
		tTemplate(tCode(""), tText("x"))},
	{"trailing strip at eof", "<%d-%>  ", tTemplate(tCode(""))},
	{"bang is both", "a  <%!%>  \nb", tTemplate(tText("ab"))},
	{"both sigils on code", "a  <%-d-%>  \nb",
		tTemplate(tText("a"), tCode(""), tText("b"))},
	{"trailing bang", "a<%d!%> \nb", tTemplate(tText("a"), tCode(""), tText("b"))},
	{"sigils on layout", "x  <%!layout base%> \ny",
		&ast.Template{Layout: "base", Nodes: []ast.Node{&ast.TextNode{Pos: 0, Text: "xy"}}}},
}

var cmpOpts = []cmp.Option{
	cmpopts.IgnoreFields(ast.Template{}, "Name"),
	cmpopts.IgnoreTypes(ast.Pos(0)),
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		tmpl, err := ParseString(test.name, test.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if d := cmp.Diff(test.tmpl, tmpl, cmpOpts...); d != "" {
			t.Errorf("%s=(%q): tree mismatch (-expected +got):\n%s", test.name, test.input, d)
		}
	}
}

// The cursor never requires more than single-byte reads from the underlying
// stream, so every test input must parse identically through a reader that
// returns one byte at a time.
func TestParseIncrementalReads(t *testing.T) {
	for _, test := range parseTests {
		tmpl, err := Parse(test.name, iotest.OneByteReader(strings.NewReader(test.input)))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if d := cmp.Diff(test.tmpl, tmpl, cmpOpts...); d != "" {
			t.Errorf("%s=(%q): tree mismatch (-expected +got):\n%s", test.name, test.input, d)
		}
	}
}

var parseErrorTests = []struct {
	name  string
	input string
	kind  errortypes.Kind
}{
	{"unknown directive", "<%bogus%>", errortypes.UnknownDirective},
	{"missing identifier", "<%%>", errortypes.UnknownDirective},
	{"missing identifier spaced", "<%  %>", errortypes.UnknownDirective},
	{"duplicate layout", "<%layout a%><%layout b%>", errortypes.DuplicateDirective},
	{"duplicate slot", "<%slot%><%slot%>", errortypes.DuplicateDirective},
	{"duplicate attrs", "<%attrs a%><%attrs b%>", errortypes.DuplicateDirective},
	{"duplicate layout empty first", "<%layout%><%layout x%>", errortypes.DuplicateDirective},
	{"eof in directive", "<%", errortypes.UnterminatedTag},
	{"eof in identifier", "<%layo", errortypes.UnterminatedTag},
	{"eof in code body", "<%d foo", errortypes.UnterminatedTag},
	{"eof in head body", "<%head x", errortypes.UnterminatedTag},
	{"eof after slot", "<%slot", errortypes.UnterminatedTag},
	{"eof in expr", "{% 1+1", errortypes.UnterminatedTag},
	{"eof in var", "[[ name", errortypes.UnterminatedTag},
	{"eof in close marker", "<%slot %", errortypes.UnterminatedTag},
	{"junk after slot", "<%slot x%>", errortypes.MalformedClosingMarker},
	{"junk after layout target", "<%layout base x%>", errortypes.MalformedClosingMarker},
	{"percent without angle", "<%slot %x%>", errortypes.MalformedClosingMarker},
}

func TestParseErrors(t *testing.T) {
	for _, test := range parseErrorTests {
		_, err := ParseString(test.name, test.input)
		if err == nil {
			t.Errorf("%s=(%q): expected error, got none", test.name, test.input)
			continue
		}
		if !errortypes.IsKind(err, test.kind) {
			t.Errorf("%s=(%q): expected %v, got: %v", test.name, test.input, test.kind, err)
		}
		if !errortypes.IsErrFilePos(err) {
			t.Errorf("%s: error should carry an input position: %v", test.name, err)
		}
	}
}

// Duplicate directives fail before any further node is parsed.
func TestDuplicateStopsParsing(t *testing.T) {
	_, err := ParseString("dup", "a<%slot%>b<%slot%>c[[unclosed")
	if !errortypes.IsKind(err, errortypes.DuplicateDirective) {
		t.Errorf("expected duplicate directive, got: %v", err)
	}
}

func TestParseMetadata(t *testing.T) {
	const input = `<%layout base%><%attrs async %><%head
var helper = 1;
%><h1>[[title]]</h1><%slot%>`
	tmpl, err := ParseString("meta.dsp", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Name != "meta.dsp" {
		t.Errorf("expected name to be kept, got %q", tmpl.Name)
	}
	if tmpl.Layout != "base" {
		t.Errorf("expected layout base, got %q", tmpl.Layout)
	}
	if tmpl.Attrs != "async" {
		t.Errorf("expected attrs async, got %q", tmpl.Attrs)
	}
	if tmpl.Head != "\nvar helper = 1;\n" {
		t.Errorf("unexpected head: %q", tmpl.Head)
	}
	if !tmpl.HasSlot {
		t.Error("expected slot presence")
	}
}

func TestNodePositions(t *testing.T) {
	tmpl, err := ParseString("pos", "ab{% x %}cd[[k]]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var positions []ast.Pos
	for _, n := range tmpl.Nodes {
		positions = append(positions, n.Position())
	}
	var expected = []ast.Pos{0, 2, 9, 11}
	if d := cmp.Diff(expected, positions); d != "" {
		t.Errorf("position mismatch (-expected +got):\n%s", d)
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := ParseString("err.dsp", "line one\n  <%bogus%>")
	fp := errortypes.ToErrFilePos(err)
	if fp == nil {
		t.Fatalf("expected positioned error, got: %v", err)
	}
	if fp.File() != "err.dsp" {
		t.Errorf("expected file err.dsp, got %q", fp.File())
	}
	if fp.Line() != 2 {
		t.Errorf("expected line 2, got %d", fp.Line())
	}
}

func TestStripSigils(t *testing.T) {
	var tests = []struct {
		ident             string
		name              string
		leading, trailing bool
	}{
		{"d", "d", false, false},
		{"-d", "d", true, false},
		{"d-", "d", false, true},
		{"-d-", "d", true, true},
		{"!d", "d", true, true},
		{"d!", "d", true, true},
		{"-", "", true, false},
		{"!", "", true, true},
		{"--", "", true, true},
		{"", "", false, false},
		{"layout", "layout", false, false},
	}
	for _, test := range tests {
		name, leading, trailing := stripSigils(test.ident)
		if name != test.name || leading != test.leading || trailing != test.trailing {
			t.Errorf("stripSigils(%q) = %q, %v, %v; expected %q, %v, %v",
				test.ident, name, leading, trailing, test.name, test.leading, test.trailing)
		}
	}
}
