package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/midbel/sheetfill/value"
)

var (
	ErrPattern = errors.New("invalid pattern")
	ErrValue   = errors.New("unexpected value")
)

func errKind(v value.Value, want value.ValueKind) error {
	return fmt.Errorf("%w: %s given but %s expected", ErrValue, v.Kind(), want)
}

// numberFormatter follows a pattern made of '#' (optional digit), '0'
// (mandatory digit) and ',' (grouping) with an optional leading '+' to always
// print the sign.
type numberFormatter struct {
	minInt int
	minDec int
	maxDec int

	signAlways  bool
	hasGrouping bool

	decimalSep  byte
	thousandSep byte
}

func ParseNumberFormatter(pattern string) (Formatter, error) {
	nf := numberFormatter{
		decimalSep:  '.',
		thousandSep: ',',
	}
	left, right, _ := strings.Cut(pattern, ".")
	if strings.HasPrefix(left, "+") {
		nf.signAlways = true
		left = left[1:]
	}
	if left == "" {
		return nil, fmt.Errorf("%w: %q: missing integral part", ErrPattern, pattern)
	}
	if err := nf.parseIntegral(left); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrPattern, pattern, err)
	}
	if err := nf.parseFractional(right); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrPattern, pattern, err)
	}
	return nf, nil
}

func (nf *numberFormatter) parseIntegral(str string) error {
	optional := false
	for i := len(str) - 1; i >= 0; i-- {
		switch c := str[i]; {
		case c == ',':
			nf.hasGrouping = true
		case c == '#':
			optional = true
		case c == '0' && !optional:
			nf.minInt++
		default:
			return fmt.Errorf("unexpected character %q in integral part", c)
		}
	}
	return nil
}

func (nf *numberFormatter) parseFractional(str string) error {
	optional := false
	for i := 0; i < len(str); i++ {
		switch c := str[i]; {
		case c == '#':
			optional = true
		case c == '0' && !optional:
			nf.minDec++
		default:
			return fmt.Errorf("unexpected character %q in fractional part", c)
		}
		nf.maxDec++
	}
	return nil
}

func (nf numberFormatter) Format(v value.Value) (string, error) {
	f, ok := v.(value.Float)
	if !ok {
		return "", errKind(v, value.KindNumber)
	}
	num := float64(f)
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return f.String(), nil
	}
	str := strconv.FormatFloat(math.Abs(num), 'f', nf.maxDec, 64)
	integral, fractional, _ := strings.Cut(str, ".")
	negative := math.Signbit(num) && strings.Trim(str, "0.") != ""

	fractional = strings.TrimRight(fractional, "0")
	if n := nf.minDec - len(fractional); n > 0 {
		fractional += strings.Repeat("0", n)
	}
	if n := nf.minInt - len(integral); n > 0 {
		integral = strings.Repeat("0", n) + integral
	}
	if nf.hasGrouping {
		integral = groupDigits(integral, nf.thousandSep)
	}

	var buf strings.Builder
	if negative {
		buf.WriteByte('-')
	} else if nf.signAlways {
		buf.WriteByte('+')
	}
	buf.WriteString(integral)
	if fractional != "" {
		buf.WriteByte(nf.decimalSep)
		buf.WriteString(fractional)
	}
	return buf.String(), nil
}

func groupDigits(str string, sep byte) string {
	if len(str) <= 3 {
		return str
	}
	var (
		buf  strings.Builder
		lead = len(str) % 3
	)
	buf.WriteString(str[:lead])
	for i := lead; i < len(str); i += 3 {
		if buf.Len() > 0 {
			buf.WriteByte(sep)
		}
		buf.WriteString(str[i : i+3])
	}
	return buf.String()
}
