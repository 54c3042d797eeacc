// Package dspjs generates the JavaScript rendering code for a parsed dsp
// template.  The generated code requires lib/dsp.js to already have been
// loaded.
package dspjs

import (
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/Bithero-Agency/ninox.d-dsp/ast"
	"github.com/Bithero-Agency/ninox.d-dsp/errortypes"
)

// Options name the destination of one generated template.  Generation is a
// pure function of the parsed template and these values.
type Options struct {
	Namespace string // destination namespace path, e.g. "pages.admin"; "" for file scope
	Name      string // template name, e.g. "home"
}

// EntryName returns the dot-joined name under which the template's render
// function is defined.
func (o Options) EntryName() string {
	if o.Namespace == "" {
		return o.Name
	}
	return o.Namespace + "." + o.Name
}

type state struct {
	wr           io.Writer
	tmplName     string // input name, for errors
	options      Options
	indentLevels int
	varnum       int
}

// Write generates the JavaScript for the given template.  Output is
// byte-identical across runs for the same template and options.
func Write(out io.Writer, tmpl *ast.Template, opts Options) (err error) {
	defer errRecover(&err)
	var s = &state{wr: out, tmplName: tmpl.Name, options: opts}
	s.visitTemplate(tmpl)
	return nil
}

func (s *state) visitTemplate(tmpl *ast.Template) {
	var preamble = false
	if tmpl.Name != "" {
		s.jsln("// This file was automatically generated from ", tmpl.Name, ".")
		s.jsln("// Please don't edit this file by hand.")
		preamble = true
	}
	if s.options.Namespace != "" {
		if preamble {
			s.jsln("")
		}
		s.visitNamespace(s.options.Namespace)
		preamble = true
	}
	if tmpl.Head != "" {
		if preamble {
			s.jsln("")
		}
		s.js(tmpl.Head)
		if !strings.HasSuffix(tmpl.Head, "\n") {
			s.js("\n")
		}
		preamble = true
	}
	if preamble {
		s.jsln("")
	}

	if s.options.Namespace == "" {
		s.js("var ")
	}
	s.js(s.options.EntryName(), " = ")
	if tmpl.Attrs != "" {
		s.js(tmpl.Attrs, " ")
	}
	s.js("function(ctx, opt_body) {\n")
	s.indentLevels++
	if tmpl.Layout != "" {
		s.jsln(s.target(tmpl.Layout), "(ctx, function() {")
		s.indentLevels++
		s.visitNodes(tmpl.Nodes)
		s.indentLevels--
		s.jsln("});")
	} else {
		s.visitNodes(tmpl.Nodes)
	}
	s.indentLevels--
	s.jsln("};")
}

// visitNamespace emits one existence check per dot segment so generated
// files may be loaded in any order.
func (s *state) visitNamespace(name string) {
	var decl = "var "
	var i = 0
	for i < len(name) {
		var rest = strings.IndexByte(name[i+1:], '.')
		if rest == -1 {
			i = len(name)
		} else {
			i += 1 + rest
		}
		s.jsln("if (typeof ", name[:i], " == 'undefined') { ", decl, name[:i], " = {}; }")
		decl = ""
	}
}

func (s *state) visitNodes(nodes []ast.Node) {
	for _, node := range nodes {
		s.walk(node)
	}
}

// walk writes the statement(s) for a single body node.
func (s *state) walk(node ast.Node) {
	switch node := node.(type) {
	case *ast.TextNode:
		s.jsln(`ctx.write("`, node.Text, `");`)
	case *ast.CodeNode:
		s.indent()
		s.js(substitute(node.Code), "\n")
	case *ast.SlotNode:
		s.jsln("opt_body();")
	case *ast.ExprNode:
		s.jsln("ctx.write(String(", substituteData(node.Expr), "));")
	case *ast.VarNode:
		s.jsln(`ctx.write(String(dsp.$$get(ctx.data, "`, node.Key, `")));`)
	case *ast.IncludeNode:
		s.visitInclude(node)
	default:
		s.errorf(errortypes.UnknownNodeKind, "unknown node (%T): %v", node, node)
	}
}

func (s *state) visitInclude(node *ast.IncludeNode) {
	s.varnum++
	var render = "render" + strconv.Itoa(s.varnum)
	s.jsln("{")
	s.indentLevels++
	s.jsln("var ", render, " = ", s.target(node.Target), ";")
	if node.Data == "" {
		s.jsln(render, "(ctx);")
	} else {
		s.jsln(render, "(ctx.withData((", substituteData(node.Data), ")));")
	}
	s.indentLevels--
	s.jsln("}")
}

// target resolves a layout or include reference.  Dotted names are used
// verbatim; bare names live in the destination namespace.
func (s *state) target(name string) string {
	if strings.Contains(name, ".") || s.options.Namespace == "" {
		return name
	}
	return s.options.Namespace + "." + name
}

// substitute rewrites the reserved sigils in an embedded code block.  It is
// a blind textual replacement: occurrences inside the block's own string or
// comment literals are rewritten too.
func substitute(code string) string {
	code = strings.ReplaceAll(code, "@(", "ctx.write(")
	return strings.ReplaceAll(code, "$", "ctx.data")
}

// substituteData rewrites the data-reference sigil in an expression.
func substituteData(expr string) string {
	return strings.ReplaceAll(expr, "$", "ctx.data")
}

// errorf builds a structured error and terminates processing.
func (s *state) errorf(kind errortypes.Kind, format string, args ...interface{}) {
	panic(errortypes.Newf(kind, s.tmplName, 0, 0, format, args...))
}

// errRecover is the handler that turns panics into returns from the top
// level of Write.
func errRecover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	*errp = e.(error)
}

func (s *state) js(args ...string) {
	for _, arg := range args {
		s.wr.Write([]byte(arg))
	}
}

func (s *state) indent() {
	for i := 0; i < s.indentLevels; i++ {
		s.wr.Write([]byte("  "))
	}
}

func (s *state) jsln(args ...string) {
	s.indent()
	for _, arg := range args {
		s.wr.Write([]byte(arg))
	}
	s.wr.Write([]byte("\n"))
}
