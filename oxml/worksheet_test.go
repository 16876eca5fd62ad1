package oxml

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/midbel/sheetfill/value"
)

func loadSheet(t *testing.T, name string) *Worksheet {
	t.Helper()
	file := openTestFile(t)
	ws, err := file.Worksheet(name)
	if err != nil {
		t.Fatalf("fail to get worksheet %s: %s", name, err)
	}
	return ws
}

func TestWorksheetIndex(t *testing.T) {
	ws := loadSheet(t, "Sheet1")

	want := []string{"A1", "B1", "C1", "A2", "B2", "C2", "A3", "B3", "C3"}
	if got := ws.Cells(); !slices.Equal(got, want) {
		t.Errorf("cells mismatched! want %v - got %v", want, got)
	}
	values := map[string]value.Value{
		"A1": value.Text("Hello"),
		"B1": value.Float(42),
		"C1": value.Boolean(true),
		"A2": value.Text("FooBar"),
		"B2": value.Text("Hello"),
		"C2": value.Empty(),
		"A3": value.Empty(),
		"B3": value.Empty(),
		"C3": value.Text("inline"),
	}
	for addr, want := range values {
		got, err := ws.Value(addr)
		if err != nil {
			t.Errorf("%s: fail to get value: %s", addr, err)
			continue
		}
		if got != want {
			t.Errorf("%s: results mismatched! want %v - got %v", addr, want, got)
		}
	}
	for _, addr := range []string{"C2", "A3", "B3"} {
		if !ws.HasFormula(addr) {
			t.Errorf("%s: formula expected", addr)
		}
		if ws.cells[addr].Child(elemValue) != nil {
			t.Errorf("%s: cached value of formula should be dropped", addr)
		}
	}
}

func TestWorksheetDuplicateAddress(t *testing.T) {
	const sheet = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1"><v>1</v></c><c><v>5</v></c></row><row r="2"><c r="A1"><v>2</v></c></row></sheetData></worksheet>`
	file, err := OpenBytes(buildArchive(t, replaceEntry(testEntries(), "xl/worksheets/sheet1.xml", sheet)))
	if err != nil {
		t.Fatalf("fail to open archive: %s", err)
	}
	ws, err := file.Worksheet("Sheet1")
	if err != nil {
		t.Fatalf("fail to get worksheet: %s", err)
	}
	if got := ws.Cells(); !slices.Equal(got, []string{"A1"}) {
		t.Errorf("cells mismatched! want [A1] - got %v", got)
	}
	if v, _ := ws.Value("A1"); v != value.Float(2) {
		t.Errorf("last cell should win! want 2 - got %v", v)
	}
}

func TestWorksheetEmpty(t *testing.T) {
	const sheet = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><dimension ref="A1"/></worksheet>`
	file, err := OpenBytes(buildArchive(t, replaceEntry(testEntries(), "xl/worksheets/sheet1.xml", sheet)))
	if err != nil {
		t.Fatalf("fail to open archive: %s", err)
	}
	ws, err := file.Worksheet("Sheet1")
	if err != nil {
		t.Fatalf("fail to get worksheet: %s", err)
	}
	if len(ws.Cells()) != 0 {
		t.Errorf("no cells expected - got %v", ws.Cells())
	}
	if err := ws.SetValue("A1", value.Text("x")); !errors.Is(err, ErrAddressNotFound) {
		t.Errorf("error mismatched! want %v - got %v", ErrAddressNotFound, err)
	}
}

func TestWorksheetNotAWorksheet(t *testing.T) {
	file, err := OpenBytes(buildArchive(t, replaceEntry(testEntries(), "xl/worksheets/sheet1.xml", `<chartsheet/>`)))
	if err != nil {
		t.Fatalf("fail to open archive: %s", err)
	}
	_, err = file.Worksheet("Sheet1")
	if !errors.Is(err, ErrPart) {
		t.Errorf("error mismatched! want %v - got %v", ErrPart, err)
	}
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		Addr   string
		Value  value.Value
		Type   string
		Raw    string
		Inline bool
		Want   value.Value
	}{
		{
			Addr:   "B2",
			Value:  value.Text("World"),
			Type:   TypeInlineStr,
			Inline: true,
			Want:   value.Text("World"),
		},
		{
			Addr:  "B1",
			Value: value.Float(3.5),
			Raw:   "3.5",
			Want:  value.Float(3.5),
		},
		{
			Addr:  "C3",
			Value: value.Float(12),
			Raw:   "12",
			Want:  value.Float(12),
		},
		{
			Addr:  "A1",
			Value: value.Float(1),
			Raw:   "1",
			Want:  value.Float(1),
		},
		{
			Addr:  "B1",
			Value: value.Boolean(false),
			Type:  TypeBool,
			Raw:   "0",
			Want:  value.Boolean(false),
		},
		{
			Addr:  "A2",
			Value: value.Empty(),
			Want:  value.Empty(),
		},
		{
			Addr:   "C1",
			Value:  value.Text("  padded "),
			Type:   TypeInlineStr,
			Inline: true,
			Want:   value.Text("  padded "),
		},
		{
			Addr:  "C2",
			Value: value.Float(99),
			Raw:   "99",
			Want:  value.Float(99),
		},
		{
			Addr:   "B3",
			Value:  value.Text("dependent"),
			Type:   TypeInlineStr,
			Inline: true,
			Want:   value.Text("dependent"),
		},
	}
	for _, c := range tests {
		ws := loadSheet(t, "Sheet1")
		if err := ws.SetValue(c.Addr, c.Value); err != nil {
			t.Errorf("%s: fail to set value: %s", c.Addr, err)
			continue
		}
		cell := ws.cells[c.Addr]
		if got := cell.GetAttr("t"); got != c.Type {
			t.Errorf("%s: type mismatched! want %q - got %q", c.Addr, c.Type, got)
		}
		v := cell.Child(elemValue)
		switch {
		case c.Raw == "" && v != nil:
			t.Errorf("%s: unexpected value node", c.Addr)
		case c.Raw != "" && (v == nil || v.Text() != c.Raw):
			t.Errorf("%s: raw value mismatched! want %s", c.Addr, c.Raw)
		}
		if is := cell.Child(elemInline); (is != nil) != c.Inline {
			t.Errorf("%s: inline string mismatched! want %t", c.Addr, c.Inline)
		}
		if ws.HasFormula(c.Addr) {
			t.Errorf("%s: formula should be removed", c.Addr)
		}
		got, err := ws.Value(c.Addr)
		if err != nil {
			t.Errorf("%s: fail to get value: %s", c.Addr, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%s: results mismatched! want %v - got %v", c.Addr, c.Want, got)
		}
	}
}

func TestSetValueKeepsNumberType(t *testing.T) {
	const sheet = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1" t="n" s="2"><v>1</v></c></row></sheetData></worksheet>`
	file, err := OpenBytes(buildArchive(t, replaceEntry(testEntries(), "xl/worksheets/sheet1.xml", sheet)))
	if err != nil {
		t.Fatalf("fail to open archive: %s", err)
	}
	ws, err := file.Worksheet("Sheet1")
	if err != nil {
		t.Fatalf("fail to get worksheet: %s", err)
	}
	if err := ws.SetValue("A1", value.Float(5)); err != nil {
		t.Fatalf("fail to set value: %s", err)
	}
	buf, err := ws.Bytes()
	if err != nil {
		t.Fatalf("fail to encode worksheet: %s", err)
	}
	want := `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1" t="n" s="2"><v>5</v></c></row></sheetData></worksheet>`
	if string(buf) != want {
		t.Errorf("results mismatched! want %s - got %s", want, buf)
	}
}

func TestSetValueInlineEncoding(t *testing.T) {
	ws := loadSheet(t, "Sheet1")
	if err := ws.SetValue("C1", value.Text(" a & b ")); err != nil {
		t.Fatalf("fail to set value: %s", err)
	}
	buf, err := ws.Bytes()
	if err != nil {
		t.Fatalf("fail to encode worksheet: %s", err)
	}
	want := `<c r="C1" t="inlineStr"><is><t xml:space="preserve"> a &amp; b </t></is></c>`
	if !strings.Contains(string(buf), want) {
		t.Errorf("cell not found in worksheet! want %s - got %s", want, buf)
	}
}

func TestSetValueErrors(t *testing.T) {
	tests := []struct {
		Addr  string
		Value value.Value
		Want  error
	}{
		{
			Addr:  "Z99",
			Value: value.Text("x"),
			Want:  ErrAddressNotFound,
		},
		{
			Addr:  "b2",
			Value: value.Text("x"),
			Want:  ErrAddressNotFound,
		},
		{
			Addr:  "A3",
			Value: value.Text("x"),
			Want:  ErrSharedFormula,
		},
		{
			Addr:  "B1",
			Value: value.Float(math.NaN()),
			Want:  ErrInvalidValue,
		},
		{
			Addr:  "B1",
			Value: value.Float(math.Inf(1)),
			Want:  ErrInvalidValue,
		},
		{
			Addr:  "B2",
			Value: value.Text("a\x01b"),
			Want:  ErrInvalidValue,
		},
		{
			Addr:  "B2",
			Value: value.Text("bad \xff byte"),
			Want:  ErrInvalidValue,
		},
	}
	for _, c := range tests {
		ws := loadSheet(t, "Sheet1")
		before := ws.Cells()
		err := ws.SetValue(c.Addr, c.Value)
		if !errors.Is(err, c.Want) {
			t.Errorf("%s: error mismatched! want %v - got %v", c.Addr, c.Want, err)
		}
		if got := ws.Cells(); !slices.Equal(before, got) {
			t.Errorf("%s: index modified after failure", c.Addr)
		}
	}
	ws := loadSheet(t, "Sheet1")
	if err := ws.SetSharedString("Z99", "x"); !errors.Is(err, ErrAddressNotFound) {
		t.Errorf("error mismatched! want %v - got %v", ErrAddressNotFound, err)
	}
	if ws.sharedStrings.Count() != 5 {
		t.Errorf("shared strings updated after failure")
	}
	if err := ws.SetSharedString("B2", "a\x01b"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("error mismatched! want %v - got %v", ErrInvalidValue, err)
	}
	if ws.sharedStrings.Count() != 5 || ws.sharedStrings.Dirty() {
		t.Errorf("shared strings updated after invalid text")
	}
	if v, _ := ws.Value("B2"); v != value.Text("Hello") {
		t.Errorf("B2 modified after invalid text! got %v", v)
	}
	if _, err := ws.Value("Z99"); !errors.Is(err, ErrAddressNotFound) {
		t.Errorf("error mismatched! want %v - got %v", ErrAddressNotFound, err)
	}
	ws.SetValue("A3", value.Float(1))
	if !ws.HasFormula("A3") {
		t.Errorf("shared formula anchor should be kept")
	}
}

func TestSetValueSharedTable(t *testing.T) {
	file := openTestFile(t)
	ws, err := file.Worksheet("Sheet1")
	if err != nil {
		t.Fatalf("fail to get worksheet: %s", err)
	}
	if err := ws.SetValue("A1", value.Text("not shared")); err != nil {
		t.Fatalf("fail to set value: %s", err)
	}
	sst := file.SharedStrings()
	if sst.Len() != 3 || sst.Count() != 5 || sst.Dirty() {
		t.Errorf("inline strings should not touch the shared strings table")
	}
	data, err := file.Worksheet("Data")
	if err != nil {
		t.Fatalf("fail to get worksheet: %s", err)
	}
	if err := data.SetSharedString("A1", "shared"); err != nil {
		t.Fatalf("fail to set shared string: %s", err)
	}
	if ws.sharedStrings != data.sharedStrings {
		t.Errorf("worksheets should share the same table")
	}
	if ix, ok := sst.Index("shared"); !ok || ix != 3 {
		t.Errorf("index mismatched! want 3 - got %d", ix)
	}
	if v, _ := data.Value("A1"); v != value.Text("shared") {
		t.Errorf("results mismatched! want shared - got %v", v)
	}
}
