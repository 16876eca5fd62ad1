package oxml

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/midbel/sheetfill/internal/markup"
	"github.com/midbel/sheetfill/value"
)

const (
	FormulaNormal = "normal"
	FormulaShared = "shared"
)

const (
	TypeSharedStr = "s"
	TypeInlineStr = "inlineStr"
	TypeFormula   = "str"
	TypeDate      = "d"
	TypeError     = "e"
	TypeBool      = "b"
	TypeNumber    = "n"
)

// Worksheet gives access to the cells of a sheet by their address. Cells are
// nodes of the sheet tree: updating a cell updates the tree that is written
// back when the file is generated.
type Worksheet struct {
	name string
	path string

	doc   *markup.Document
	cells map[string]*markup.Node
	addrs []string

	sharedStrings *SharedStrings

	formulas int
	// set when a formula has been replaced by a value
	dropped bool
}

func readWorksheet(name, path string, doc *markup.Document, sst *SharedStrings) (*Worksheet, error) {
	root := doc.Root()
	if !root.Is(elemWorksheet) {
		return nil, fmt.Errorf("unexpected root element %s", root.Name)
	}
	ws := Worksheet{
		name:          name,
		path:          path,
		doc:           doc,
		cells:         make(map[string]*markup.Node),
		sharedStrings: sst,
	}
	data := root.Child(elemSheetData)
	if data == nil {
		return &ws, nil
	}
	for _, row := range data.Children(elemRow) {
		for _, cell := range row.Children(elemCell) {
			ws.indexCell(cell)
		}
	}
	return &ws, nil
}

func (w *Worksheet) indexCell(cell *markup.Node) {
	addr, ok := cell.Attr("r")
	if !ok {
		return
	}
	if _, ok := w.cells[addr]; !ok {
		w.addrs = append(w.addrs, addr)
	}
	w.cells[addr] = cell
	if cell.Child(elemFormula) != nil {
		// cached result of a formula that is never recomputed here
		cell.RemoveChildren(elemValue)
		w.formulas++
	}
}

func (w *Worksheet) Name() string {
	return w.name
}

func (w *Worksheet) Path() string {
	return w.path
}

// Cells returns the addresses of the indexed cells in document order.
func (w *Worksheet) Cells() []string {
	return slices.Clone(w.addrs)
}

func (w *Worksheet) Has(addr string) bool {
	_, ok := w.cells[addr]
	return ok
}

func (w *Worksheet) HasFormula(addr string) bool {
	cell, ok := w.cells[addr]
	return ok && cell.Child(elemFormula) != nil
}

// SetValue replaces the value of a cell. Text is written as an inline string
// and does not touch the shared string table. Text that XML can not carry is
// refused with ErrInvalidValue.
//
// Some choices go further than keeping the type tag of the cell and could be
// revisited: a number removes a text, boolean or error tag that would make it
// unreadable, writing to a formula cell removes its formula, and the anchor of
// a shared formula is refused with ErrSharedFormula.
func (w *Worksheet) SetValue(addr string, val value.Value) error {
	cell, err := w.getCell(addr)
	if err != nil {
		return err
	}
	if err := w.checkValue(addr, val); err != nil {
		return err
	}
	if err := w.clearFormula(addr, cell); err != nil {
		return err
	}
	clearValue(cell)
	switch v := val.(type) {
	case value.Text:
		cell.SetAttr("t", TypeInlineStr)
		is := cell.Create(elemInline)
		is.Append(createText(is, v.String()))
		cell.InsertBefore(is, elemExtLst)
	case value.Float:
		if t, ok := cell.Attr("t"); ok && t != TypeNumber {
			cell.RemoveAttr("t")
		}
		setRawValue(cell, v.String())
	case value.Boolean:
		cell.SetAttr("t", TypeBool)
		if v {
			setRawValue(cell, "1")
		} else {
			setRawValue(cell, "0")
		}
	case value.Blank, nil:
		cell.RemoveAttr("t")
	}
	return nil
}

// SetSharedString writes str in the shared string table and makes the cell
// refer to it.
func (w *Worksheet) SetSharedString(addr, str string) error {
	cell, err := w.getCell(addr)
	if err != nil {
		return err
	}
	if err := w.checkValue(addr, value.Text(str)); err != nil {
		return err
	}
	if err := w.clearFormula(addr, cell); err != nil {
		return err
	}
	clearValue(cell)
	ix := w.sharedStrings.StoreValue(str)
	cell.SetAttr("t", TypeSharedStr)
	setRawValue(cell, strconv.Itoa(ix))
	return nil
}

// Value returns the current value of a cell. Formula cells have no value
// since their cached result is dropped.
func (w *Worksheet) Value(addr string) (value.Value, error) {
	cell, err := w.getCell(addr)
	if err != nil {
		return nil, err
	}
	var raw string
	if v := cell.Child(elemValue); v != nil {
		raw = v.Text()
	}
	switch kind := cell.GetAttr("t"); kind {
	case TypeInlineStr:
		is := cell.Child(elemInline)
		if is == nil {
			return value.Empty(), nil
		}
		return value.Text(readText(is)), nil
	case TypeSharedStr:
		if raw == "" {
			return value.Empty(), nil
		}
		ix, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%s!%s: invalid shared string index %q", w.name, addr, raw)
		}
		str, ok := w.sharedStrings.At(ix)
		if !ok {
			return nil, fmt.Errorf("%s!%s: shared string index %d out of bounds", w.name, addr, ix)
		}
		return value.Text(str), nil
	case TypeBool:
		if raw == "" {
			return value.Empty(), nil
		}
		return value.Boolean(raw == "1" || strings.EqualFold(raw, "true")), nil
	case TypeFormula, TypeError, TypeDate:
		if raw == "" {
			return value.Empty(), nil
		}
		return value.Text(raw), nil
	default:
		if raw == "" {
			return value.Empty(), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return value.Text(raw), nil
		}
		return value.Float(f), nil
	}
}

func (w *Worksheet) Bytes() ([]byte, error) {
	return w.doc.Bytes()
}

func (w *Worksheet) getCell(addr string) (*markup.Node, error) {
	cell, ok := w.cells[addr]
	if !ok {
		return nil, fmt.Errorf("%s!%s: %w", w.name, addr, ErrAddressNotFound)
	}
	return cell, nil
}

func (w *Worksheet) checkValue(addr string, val value.Value) error {
	switch v := val.(type) {
	case value.Boolean, value.Blank, nil:
	case value.Text:
		if !markup.ValidText(string(v)) {
			return fmt.Errorf("%s!%s: %w: %q", w.name, addr, ErrInvalidValue, string(v))
		}
	case value.Float:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%s!%s: %w: %s", w.name, addr, ErrInvalidValue, v)
		}
	default:
		return fmt.Errorf("%s!%s: %w: %s", w.name, addr, ErrInvalidValue, val.Kind())
	}
	return nil
}

// clearFormula turns a formula cell into a plain cell. The anchor of a shared
// formula is refused since other cells of its range depend on it.
func (w *Worksheet) clearFormula(addr string, cell *markup.Node) error {
	f := cell.Child(elemFormula)
	if f == nil {
		return nil
	}
	if _, ok := f.Attr("ref"); ok && f.GetAttr("t") == FormulaShared {
		return fmt.Errorf("%s!%s: %w", w.name, addr, ErrSharedFormula)
	}
	cell.RemoveChildren(elemFormula)
	w.formulas--
	w.dropped = true
	return nil
}

func clearValue(cell *markup.Node) {
	cell.RemoveChildren(elemValue)
	cell.RemoveChildren(elemInline)
}

func setRawValue(cell *markup.Node, str string) {
	v := cell.Create(elemValue)
	v.SetText(str)
	cell.InsertBefore(v, elemInline, elemExtLst)
}
