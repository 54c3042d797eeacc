package parse

import (
	"bufio"
	"io"

	"github.com/Bithero-Agency/ninox.d-dsp/ast"
)

// position is the cursor state before a given byte is consumed.
type position struct {
	off  int // byte offset, 0-based
	line int // 1-based
	col  int // 1-based, counted in bytes
}

// cursor reads bytes from a stream one at a time, allowing up to two bytes
// to be pushed back.  It tracks the offset, line and column of the next
// byte so the parser can report positions without buffering the input.
type cursor struct {
	r       *bufio.Reader
	pushed  [2]byte
	npushed int
	state   position    // position of the next byte to read
	prev    [2]position // positions before the last two reads
}

func newCursor(r io.Reader) *cursor {
	return &cursor{
		r:     bufio.NewReader(r),
		state: position{off: 0, line: 1, col: 1},
	}
}

// read returns the next input byte.  It returns io.EOF once the input is
// exhausted and no pushed-back bytes remain.
func (c *cursor) read() (byte, error) {
	var b byte
	if c.npushed > 0 {
		c.npushed--
		b = c.pushed[c.npushed]
	} else {
		var err error
		b, err = c.r.ReadByte()
		if err != nil {
			return 0, err
		}
	}
	c.prev[1] = c.prev[0]
	c.prev[0] = c.state
	c.state.off++
	if b == '\n' {
		c.state.line++
		c.state.col = 1
	} else {
		c.state.col++
	}
	return b, nil
}

// unread pushes b back onto the input and restores the position it was read
// at.  At most two bytes may be pending between reads.
func (c *cursor) unread(b byte) {
	if c.npushed == len(c.pushed) {
		panic("parse: unread past cursor capacity")
	}
	c.pushed[c.npushed] = b
	c.npushed++
	c.state = c.prev[0]
	c.prev[0] = c.prev[1]
}

// pos returns the byte offset of the next byte to be read.
func (c *cursor) pos() ast.Pos {
	return ast.Pos(c.state.off)
}

// line returns the 1-based line of the next byte to be read.
func (c *cursor) line() int {
	return c.state.line
}

// col returns the 1-based column of the next byte to be read.
func (c *cursor) col() int {
	return c.state.col
}
