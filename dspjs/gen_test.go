package dspjs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/andreyvit/diff"

	"github.com/Bithero-Agency/ninox.d-dsp/ast"
	"github.com/Bithero-Agency/ninox.d-dsp/errortypes"
	"github.com/Bithero-Agency/ninox.d-dsp/parse"
)

type writeTest struct {
	name   string
	file   string // name given to the parser
	input  string
	opts   Options
	output string
}

// The expected outputs pin the generated files byte for byte, modulo the
// surrounding whitespace trimmed before comparing.
var writeTests = []writeTest{

	{"text only", "home.dsp", "Hello <b>\"world\"</b>\n",
		Options{Namespace: "pages", Name: "home"}, `
// This file was automatically generated from home.dsp.
// Please don't edit this file by hand.

if (typeof pages == 'undefined') { var pages = {}; }

pages.home = function(ctx, opt_body) {
  ctx.write("Hello <b>\"world\"</b>\n");
};`},

	{"file scope", "", "hi",
		Options{Name: "render"}, `
var render = function(ctx, opt_body) {
  ctx.write("hi");
};`},

	{"layout page", "admin/home.dsp", `<%layout base%><%attrs async%><%head
var n = 1;
%>a[[ k ]]b{%$.n%}`,
		Options{Namespace: "pages.admin", Name: "home"}, `
// This file was automatically generated from admin/home.dsp.
// Please don't edit this file by hand.

if (typeof pages == 'undefined') { var pages = {}; }
if (typeof pages.admin == 'undefined') { pages.admin = {}; }


var n = 1;

pages.admin.home = async function(ctx, opt_body) {
  pages.admin.base(ctx, function() {
    ctx.write("a");
    ctx.write(String(dsp.$$get(ctx.data, "k")));
    ctx.write("b");
    ctx.write(String(ctx.data.n));
  });
};`},

	{"layout file", "base.dsp", `<html><%slot%></html><%-inc footer%><%inc widgets.nav $.nav %>`,
		Options{Namespace: "pages", Name: "base"}, `
// This file was automatically generated from base.dsp.
// Please don't edit this file by hand.

if (typeof pages == 'undefined') { var pages = {}; }

pages.base = function(ctx, opt_body) {
  ctx.write("<html>");
  opt_body();
  ctx.write("</html>");
  {
    var render1 = pages.footer;
    render1(ctx);
  }
  {
    var render2 = widgets.nav;
    render2(ctx.withData((ctx.data.nav)));
  }
};`},

	{"code substitution", "code.dsp", `<%d var x = $.n; @("x");%>`,
		Options{Name: "snippet"}, `
// This file was automatically generated from code.dsp.
// Please don't edit this file by hand.

var snippet = function(ctx, opt_body) {
   var x = ctx.data.n; ctx.write("x");
};`},
}

func TestWrite(t *testing.T) {
	for _, test := range writeTests {
		tmpl, err := parse.ParseString(test.file, test.input)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		var buf bytes.Buffer
		if err := Write(&buf, tmpl, test.opts); err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if a, e := strings.TrimSpace(buf.String()), strings.TrimSpace(test.output); a != e {
			t.Errorf("%s: did not get expected output:\n%v", test.name, diff.LineDiff(e, a))
		}
	}
}

// Regenerating a template must reproduce the previous output exactly, or
// else downstream builds churn on every run.
func TestWriteDeterministic(t *testing.T) {
	for _, test := range writeTests {
		tmpl, err := parse.ParseString(test.file, test.input)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		var first, second bytes.Buffer
		if err := Write(&first, tmpl, test.opts); err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if err := Write(&second, tmpl, test.opts); err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			t.Errorf("%s: output differs between runs:\n%v",
				test.name, diff.LineDiff(first.String(), second.String()))
		}
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{Name: "home"}, "home"},
		{Options{Namespace: "pages", Name: "home"}, "pages.home"},
		{Options{Namespace: "pages.admin", Name: "home"}, "pages.admin.home"},
	}
	for _, test := range tests {
		if got := test.opts.EntryName(); got != test.want {
			t.Errorf("EntryName(%+v): got %q, want %q", test.opts, got, test.want)
		}
	}
}

type strangeNode struct{}

func (strangeNode) String() string    { return "strange" }
func (strangeNode) Position() ast.Pos { return 0 }

func TestWriteUnknownNode(t *testing.T) {
	var buf bytes.Buffer
	var tmpl = &ast.Template{Name: "bad.dsp", Nodes: []ast.Node{strangeNode{}}}
	err := Write(&buf, tmpl, Options{Name: "bad"})
	if err == nil {
		t.Fatal("expected an error for a foreign node type")
	}
	if !errortypes.IsKind(err, errortypes.UnknownNodeKind) {
		t.Errorf("wrong error kind: %v", err)
	}
}
