package value

import (
	"strconv"
)

type Blank struct{}

func Empty() Value {
	return Blank{}
}

func (Blank) Kind() ValueKind {
	return KindBlank
}

func (Blank) String() string {
	return ""
}

func (Blank) Scalar() any {
	return nil
}

type Float float64

func (Float) Kind() ValueKind {
	return KindNumber
}

func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

func (f Float) Scalar() any {
	return float64(f)
}

type Text string

func (Text) Kind() ValueKind {
	return KindText
}

func (t Text) String() string {
	return string(t)
}

func (t Text) Scalar() any {
	return string(t)
}

type Boolean bool

func (Boolean) Kind() ValueKind {
	return KindBool
}

func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

func (b Boolean) Scalar() any {
	return bool(b)
}
