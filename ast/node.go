// Package ast contains definitions for the in-memory representation of a
// parsed dsp template.
package ast

import (
	"bytes"
	"fmt"
)

// Node represents any singular piece of a dsp template, for example a run of
// literal text or an include tag.
type Node interface {
	String() string // String returns the dsp source representation of this node.
	Position() Pos  // byte position of start of node in the original input
}

// Pos represents a byte position in the original input from which this
// template was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.  It is implemented as a method so that
// Nodes may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// Template is the result of parsing one dsp input.  It holds the ordered node
// sequence together with the template-level metadata collected along the way.
// A Template is fully populated by a single parse and not modified afterwards.
type Template struct {
	Name    string // input name, used in diagnostics
	Layout  string // layout template reference, or "" if none
	Head    string // header code emitted at module scope, or ""
	Attrs   string // declaration attribute text, or ""
	HasSlot bool   // whether the template contains a slot tag
	Nodes   []Node // body nodes in source encounter order
}

func (t *Template) String() string {
	var b bytes.Buffer
	if t.Layout != "" {
		fmt.Fprintf(&b, "<%%layout %s%%>", t.Layout)
	}
	if t.Head != "" {
		fmt.Fprintf(&b, "<%%head%s%%>", t.Head)
	}
	if t.Attrs != "" {
		fmt.Fprintf(&b, "<%%attrs %s%%>", t.Attrs)
	}
	for _, n := range t.Nodes {
		fmt.Fprint(&b, n)
	}
	return b.String()
}

// TextNode is a run of literal template text.  Text has already been escaped
// for splicing into a double-quoted string literal.
type TextNode struct {
	Pos
	Text string
}

func (t *TextNode) String() string {
	return t.Text
}

// CodeNode is a raw code block from a d directive, emitted into the render
// body after sigil substitution.
type CodeNode struct {
	Pos
	Code string
}

func (n *CodeNode) String() string {
	return "<%d" + n.Code + "%>"
}

// SlotNode marks the insertion point where a layout renders its wrapped
// template's body.
type SlotNode struct {
	Pos
}

func (n *SlotNode) String() string {
	return "<%slot%>"
}

// IncludeNode renders another template in place.  Data holds the raw context
// expression text, or "" to reuse the current data unchanged.
type IncludeNode struct {
	Pos
	Target string
	Data   string
}

func (n *IncludeNode) String() string {
	if n.Data == "" {
		return fmt.Sprintf("<%%inc %s%%>", n.Target)
	}
	return fmt.Sprintf("<%%inc %s %s%%>", n.Target, n.Data)
}

// ExprNode is a raw expression whose value is emitted as text.
type ExprNode struct {
	Pos
	Expr string
}

func (n *ExprNode) String() string {
	return "{%" + n.Expr + "%}"
}

// VarNode emits the value looked up under Key in the context data.
type VarNode struct {
	Pos
	Key string
}

func (n *VarNode) String() string {
	return "[[" + n.Key + "]]"
}
