package oxml

import (
	"bytes"
	"testing"

	"github.com/midbel/sheetfill/value"
	"github.com/xuri/excelize/v2"
)

func createWithExcelize(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", 10)
	f.SetCellValue(sheetName, "B2", "Hello")
	f.SetCellValue(sheetName, "C3", "untouched")
	if err := f.SetCellFormula(sheetName, "D4", "A1*2"); err != nil {
		t.Fatalf("fail to set formula: %v", err)
	}
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatalf("fail to create sheet: %v", err)
	}
	f.SetCellValue("Other", "A1", "other")

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("fail to write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestExcelizeRoundTrip(t *testing.T) {
	file, err := OpenBytes(createWithExcelize(t))
	if err != nil {
		t.Fatalf("fail to open workbook: %s", err)
	}
	ws, err := file.Worksheet("Sheet1")
	if err != nil {
		t.Fatalf("fail to get worksheet: %s", err)
	}
	for _, addr := range []string{"A1", "B2", "C3", "D4"} {
		if !ws.Has(addr) {
			t.Errorf("%s: cell not indexed", addr)
		}
	}
	if v, _ := ws.Value("B2"); v != value.Text("Hello") {
		t.Errorf("B2 mismatched! want Hello - got %v", v)
	}
	if err := ws.SetValue("B2", value.Text("World")); err != nil {
		t.Fatalf("fail to set value: %s", err)
	}
	if err := ws.SetValue("A1", value.Float(21)); err != nil {
		t.Fatalf("fail to set value: %s", err)
	}
	buf, err := file.Generate()
	if err != nil {
		t.Fatalf("fail to generate workbook: %s", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("excelize fails to read generated workbook: %v", err)
	}
	defer f.Close()

	tests := []struct {
		Sheet string
		Cell  string
		Want  string
	}{
		{
			Sheet: "Sheet1",
			Cell:  "A1",
			Want:  "21",
		},
		{
			Sheet: "Sheet1",
			Cell:  "B2",
			Want:  "World",
		},
		{
			Sheet: "Sheet1",
			Cell:  "C3",
			Want:  "untouched",
		},
		{
			Sheet: "Other",
			Cell:  "A1",
			Want:  "other",
		},
	}
	for _, c := range tests {
		got, err := f.GetCellValue(c.Sheet, c.Cell)
		if err != nil {
			t.Errorf("%s!%s: fail to get value: %v", c.Sheet, c.Cell, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%s!%s: results mismatched! want %s - got %s", c.Sheet, c.Cell, c.Want, got)
		}
	}
	kind, err := f.GetCellType("Sheet1", "B2")
	if err != nil {
		t.Fatalf("fail to get cell type: %v", err)
	}
	if kind != excelize.CellTypeInlineString {
		t.Errorf("B2 type mismatched! want inline string - got %v", kind)
	}
	formula, err := f.GetCellFormula("Sheet1", "D4")
	if err != nil {
		t.Fatalf("fail to get formula: %v", err)
	}
	if formula != "A1*2" {
		t.Errorf("formula mismatched! want A1*2 - got %s", formula)
	}
}
