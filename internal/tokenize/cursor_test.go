package tokenize

import (
	"testing"
)

func TestCursorWalk(t *testing.T) {
	t.Parallel()
	s, err := Lex("t.gom", "a, b")
	if err != nil {
		t.Fatal(err)
	}
	c := NewCursor(s)

	if c.Done() {
		t.Fatal("fresh cursor reports Done")
	}
	if got := c.Peek(); !got.IsIdent("a") {
		t.Errorf("Peek() = %v, want identifier a", got)
	}
	if got := c.PeekAt(1); !got.IsPunct(",") {
		t.Errorf("PeekAt(1) = %v, want comma", got)
	}
	if got := c.Next(); !got.IsIdent("a") {
		t.Errorf("Next() = %v, want identifier a", got)
	}
	if got := c.Next(); !got.IsPunct(",") {
		t.Errorf("Next() = %v, want comma", got)
	}
	if got := c.Next(); !got.IsIdent("b") {
		t.Errorf("Next() = %v, want identifier b", got)
	}
	if !c.Done() {
		t.Error("cursor not Done after consuming everything")
	}
	if got := c.Next(); got.Kind != KindNone {
		t.Errorf("Next() past the end = %v, want the zero token", got)
	}
	if got := c.Peek(); got.Kind != KindNone {
		t.Errorf("Peek() past the end = %v, want the zero token", got)
	}
}

func TestCursorMarkReset(t *testing.T) {
	t.Parallel()
	s, err := Lex("t.gom", "1 + 2 + 3")
	if err != nil {
		t.Fatal(err)
	}
	c := NewCursor(s)

	c.Next() // 1
	mark := c.Mark()
	c.Next() // +
	c.Next() // 2

	if got := c.Since(mark).String(); got != "+ 2" {
		t.Errorf("Since(mark) = %q, want %q", got, "+ 2")
	}

	c.Reset(mark)
	if got := c.Peek(); !got.IsPunct("+") {
		t.Errorf("after Reset, Peek() = %v, want +", got)
	}
	if got := c.Rest().String(); got != "+ 2 + 3" {
		t.Errorf("Rest() = %q, want %q", got, "+ 2 + 3")
	}
}
