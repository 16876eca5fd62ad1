package format

import (
	"github.com/midbel/sheetfill/value"
)

const (
	DefaultNumberPattern = "#######.00"
	DefaultDatePattern   = "YYYY-0MM-0DD"
)

type Formatter interface {
	Format(value.Value) (string, error)
}

// ValueFormatter renders values according to their kind. Kinds without a
// registered Formatter are rendered with their String method.
type ValueFormatter struct {
	formatters map[value.ValueKind]Formatter
}

func FormatValue() *ValueFormatter {
	vf := ValueFormatter{
		formatters: make(map[value.ValueKind]Formatter),
	}
	return &vf
}

func (vf *ValueFormatter) Set(kind value.ValueKind, formatter Formatter) {
	vf.formatters[kind] = formatter
}

func (vf *ValueFormatter) Number(pattern string) error {
	f, err := ParseNumberFormatter(pattern)
	if err == nil {
		vf.Set(value.KindNumber, f)
	}
	return err
}

// Date renders numbers as serial dates. It replaces any number pattern
// previously registered.
func (vf *ValueFormatter) Date(pattern string) error {
	f, err := ParseDateFormatter(pattern)
	if err == nil {
		vf.Set(value.KindNumber, f)
	}
	return err
}

func (vf *ValueFormatter) Bool(yes, no string) {
	vf.Set(value.KindBool, FormatBool(yes, no))
}

func (vf *ValueFormatter) Format(v value.Value) (string, error) {
	if v == nil {
		return "", nil
	}
	f, ok := vf.formatters[v.Kind()]
	if ok {
		return f.Format(v)
	}
	return v.String(), nil
}

type strFormatter struct{}

func FormatString() Formatter {
	return strFormatter{}
}

func (strFormatter) Format(v value.Value) (string, error) {
	return v.String(), nil
}

type boolFormatter struct {
	yes string
	no  string
}

func FormatBool(yes, no string) Formatter {
	return boolFormatter{
		yes: yes,
		no:  no,
	}
}

func (f boolFormatter) Format(v value.Value) (string, error) {
	b, ok := v.(value.Boolean)
	if !ok {
		return "", errKind(v, value.KindBool)
	}
	if b {
		return f.yes, nil
	}
	return f.no, nil
}
