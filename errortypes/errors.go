// Package errortypes contains the structured errors reported while parsing
// and compiling dsp templates.
package errortypes

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a parse or generation failure.
type Kind int

const (
	// UnknownDirective reports a directive identifier outside the fixed set.
	UnknownDirective Kind = iota + 1
	// DuplicateDirective reports a second layout, slot or attrs directive.
	DuplicateDirective
	// UnterminatedTag reports end of input inside an open tag.
	UnterminatedTag
	// MalformedClosingMarker reports a missing close sequence where one is
	// required.
	MalformedClosingMarker
	// UnknownNodeKind reports a node the generator has no emission for.
	// It indicates a bug rather than bad input.
	UnknownNodeKind
)

func (k Kind) String() string {
	switch k {
	case UnknownDirective:
		return "unknown directive"
	case DuplicateDirective:
		return "duplicate directive"
	case UnterminatedTag:
		return "unterminated tag"
	case MalformedClosingMarker:
		return "malformed closing marker"
	case UnknownNodeKind:
		return "unknown node kind"
	}
	return fmt.Sprintf("errortypes.Kind(%d)", int(k))
}

// ErrFilePos extends the error interface with the input position where the
// error occurred.  Line and Col are 1-based; 0 means unknown.
type ErrFilePos interface {
	error
	File() string
	Line() int
	Col() int
}

// Error is the concrete error produced by the parser and generator.
type Error struct {
	kind Kind
	file string
	line int
	col  int
	msg  string
}

var _ ErrFilePos = (*Error)(nil)

// Newf creates an Error of the given kind at the given input position.
func Newf(kind Kind, file string, line, col int, format string, args ...interface{}) error {
	return &Error{
		kind: kind,
		file: file,
		line: line,
		col:  col,
		msg:  fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.line == 0 {
		return fmt.Sprintf("template %s: %s", e.file, e.msg)
	}
	return fmt.Sprintf("template %s:%d:%d: %s", e.file, e.line, e.col, e.msg)
}

func (e *Error) Kind() Kind   { return e.kind }
func (e *Error) File() string { return e.file }
func (e *Error) Line() int    { return e.line }
func (e *Error) Col() int     { return e.col }

// IsErrFilePos identifies whether any error in err's chain carries an input
// position.
func IsErrFilePos(err error) bool {
	var fp ErrFilePos
	return errors.As(err, &fp)
}

// ToErrFilePos extracts the positioned error from err's chain, or nil.
// If IsErrFilePos returns true, this does not return nil.
func ToErrFilePos(err error) ErrFilePos {
	var fp ErrFilePos
	if errors.As(err, &fp) {
		return fp
	}
	return nil
}

// KindOf reports the Kind of the structured error in err's chain, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return 0, false
}

// IsKind reports whether err's chain contains a structured error of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
