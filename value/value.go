package value

import (
	"fmt"
)

type ValueKind int8

const (
	KindBlank ValueKind = 1 << iota
	KindText
	KindNumber
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is the content written to or read from a cell. It is implemented by
// Blank, Text, Float and Boolean only.
type Value interface {
	Kind() ValueKind
	fmt.Stringer
	Scalar() any
}
