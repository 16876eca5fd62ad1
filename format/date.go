package format

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/midbel/sheetfill/value"
)

func init() {
	slices.SortStableFunc(dateFields, func(a, b dateField) int {
		return cmp.Compare(len(b.Pattern), len(a.Pattern))
	})
}

type dateWriter func(*strings.Builder, time.Time)

type dateField struct {
	Pattern string
	Func    dateWriter
}

var dateFields = []dateField{
	{Pattern: "YYYY", Func: writeLayout("2006")},
	{Pattern: "YY", Func: writeLayout("06")},
	{Pattern: "MM", Func: writeLayout("1")},
	{Pattern: "0MM", Func: writeLayout("01")},
	{Pattern: "MMM", Func: writeLayout("Jan")},
	{Pattern: "MMMM", Func: writeLayout("January")},
	{Pattern: "DD", Func: writeLayout("2")},
	{Pattern: "0DD", Func: writeLayout("02")},
	{Pattern: "DDD", Func: writeLayout("Mon")},
	{Pattern: "DDDD", Func: writeLayout("Monday")},
	{Pattern: "JJJ", Func: writeYearDay},
	{Pattern: "0JJJ", Func: writeLayout("002")},
	{Pattern: "hh", Func: writeHour},
	{Pattern: "0hh", Func: writeLayout("15")},
	{Pattern: "mm", Func: writeLayout("4")},
	{Pattern: "0mm", Func: writeLayout("04")},
	{Pattern: "ss", Func: writeLayout("5")},
	{Pattern: "0ss", Func: writeLayout("05")},
}

// dateFormatter renders numbers as serial dates of the 1900 date system:
// the integral part counts days and the fractional part is the time of day.
type dateFormatter struct {
	writers []dateWriter
}

func ParseDateFormatter(pattern string) (Formatter, error) {
	var df dateFormatter
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty date pattern", ErrPattern)
	}
	for i := 0; i < len(pattern); {
		ix := slices.IndexFunc(dateFields, func(f dateField) bool {
			return strings.HasPrefix(pattern[i:], f.Pattern)
		})
		if ix < 0 {
			df.writers = append(df.writers, writeLiteral(pattern[i]))
			i++
			continue
		}
		df.writers = append(df.writers, dateFields[ix].Func)
		i += len(dateFields[ix].Pattern)
	}
	return df, nil
}

func (f dateFormatter) Format(v value.Value) (string, error) {
	serial, ok := v.(value.Float)
	if !ok {
		return "", errKind(v, value.KindNumber)
	}
	when, err := SerialTime(float64(serial))
	if err != nil {
		return "", err
	}
	var str strings.Builder
	for i := range f.writers {
		f.writers[i](&str, when)
	}
	return str.String(), nil
}

// SerialTime converts a serial date to a time. Serial 1 is 1900-01-01. Serial
// 60 stands for 1900-02-29 which does not exist and is given as 1900-03-01.
func SerialTime(serial float64) (time.Time, error) {
	if serial < 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, fmt.Errorf("%w: %v is not a valid serial date", ErrValue, serial)
	}
	var (
		days  = math.Floor(serial)
		secs  = math.Round((serial - days) * 86400)
		epoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	)
	if days < 61 {
		epoch = epoch.AddDate(0, 0, 1)
	}
	when := epoch.AddDate(0, 0, int(days))
	return when.Add(time.Duration(secs) * time.Second), nil
}

func writeLayout(layout string) dateWriter {
	return func(w *strings.Builder, t time.Time) {
		w.WriteString(t.Format(layout))
	}
}

func writeLiteral(char byte) dateWriter {
	return func(w *strings.Builder, _ time.Time) {
		w.WriteByte(char)
	}
}

func writeYearDay(w *strings.Builder, t time.Time) {
	w.WriteString(strconv.Itoa(t.YearDay()))
}

func writeHour(w *strings.Builder, t time.Time) {
	w.WriteString(strconv.Itoa(t.Hour()))
}
