package evalfold

import (
	"fmt"
	"strconv"
)

// Value is the result of folding a constant expression.
type Value interface {
	// Equal reports whether two values are the same constant.
	Equal(other Value) bool
	// String returns the Go source form of the value.
	String() string
}

// IntValue is an integer constant.
type IntValue struct {
	Val int64
}

func (v IntValue) Equal(other Value) bool {
	o, ok := other.(IntValue)
	return ok && v.Val == o.Val
}

func (v IntValue) String() string { return strconv.FormatInt(v.Val, 10) }

// BoolValue is a boolean constant.
type BoolValue struct {
	Val bool
}

func (v BoolValue) Equal(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && v.Val == o.Val
}

func (v BoolValue) String() string { return strconv.FormatBool(v.Val) }

// StringValue is a string constant.
type StringValue struct {
	Val string
}

func (v StringValue) Equal(other Value) bool {
	o, ok := other.(StringValue)
	return ok && v.Val == o.Val
}

func (v StringValue) String() string { return strconv.Quote(v.Val) }

func typeName(v Value) string {
	switch v.(type) {
	case IntValue:
		return "int"
	case BoolValue:
		return "bool"
	case StringValue:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
