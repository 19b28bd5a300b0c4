package tokenize

// Cursor is a read head over a Stream. It only ever moves forward; callers
// that need to speculate (repetition matching does) take a Mark first and
// Reset on failure.
type Cursor struct {
	s Stream
	i int
}

func NewCursor(s Stream) *Cursor {
	return &Cursor{s: s}
}

// Done reports whether every token has been consumed.
func (c *Cursor) Done() bool { return c.i >= len(c.s) }

// Peek returns the next token without consuming it. When the cursor is
// exhausted it returns the zero Token, whose Kind is KindNone.
func (c *Cursor) Peek() Token {
	if c.Done() {
		return Token{}
	}
	return c.s[c.i]
}

// PeekAt returns the token n positions ahead of the read head.
func (c *Cursor) PeekAt(n int) Token {
	if c.i+n >= len(c.s) {
		return Token{}
	}
	return c.s[c.i+n]
}

// Next consumes and returns the next token.
func (c *Cursor) Next() Token {
	t := c.Peek()
	if !c.Done() {
		c.i++
	}
	return t
}

// Mark captures the current read position for a later Reset.
func (c *Cursor) Mark() int { return c.i }

// Reset rewinds the cursor to a position previously returned by Mark.
func (c *Cursor) Reset(mark int) { c.i = mark }

// Since returns the tokens consumed since mark.
func (c *Cursor) Since(mark int) Stream { return c.s[mark:c.i] }

// Rest returns the unconsumed tail of the stream.
func (c *Cursor) Rest() Stream { return c.s[c.i:] }
