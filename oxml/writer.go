package oxml

import (
	"fmt"
	"strings"

	"github.com/midbel/sheetfill/internal/markup"
)

// writer stages the parts to replace in the archive. Nothing is committed to
// the archive until every part has been serialized.
type writer struct {
	file    *File
	staged  map[string][]byte
	removed []string

	err error
}

func (w *writer) Generate() ([]byte, error) {
	w.writeWorksheets()
	w.writeSharedStrings()
	w.writeWorkbook()
	w.removeCalcChain()
	if w.invalid() {
		return nil, w.err
	}
	w.commit()
	return w.file.archive.Generate()
}

func (w *writer) writeWorksheets() {
	for _, ws := range w.file.worksheets {
		w.encodePart(ws.Path(), ws.doc)
		if w.invalid() {
			return
		}
	}
}

func (w *writer) writeSharedStrings() {
	if w.invalid() || !w.file.sharedStrings.Dirty() {
		return
	}
	buf, err := w.file.sharedStrings.Bytes()
	if err != nil {
		w.err = fmt.Errorf("%w: %s: %w", ErrSerialize, sharedStringsPart, err)
		return
	}
	w.staged[sharedStringsPart] = buf
}

// writeWorkbook asks consumers to recompute formulas on load since the cached
// results of formula cells are not kept.
func (w *writer) writeWorkbook() {
	if w.invalid() || !w.hasFormulas() {
		return
	}
	root := w.file.workbook.Root()
	calc := root.Child(elemCalcPr)
	if calc == nil {
		calc = root.Create(elemCalcPr)
		root.InsertAfter(calc, beforeCalcPr...)
	}
	calc.SetAttr("fullCalcOnLoad", "1")
	w.encodePart(workbookPart, w.file.workbook)
}

// removeCalcChain drops the calculation chain when formulas have been
// replaced by values: it would still list cells that no longer hold one.
func (w *writer) removeCalcChain() {
	if w.invalid() || !w.hasDropped() || !w.file.archive.Has(calcChainPart) {
		return
	}
	root := w.file.relations.Root()
	root.RemoveFunc(func(n *markup.Node) bool {
		if !n.Is(elemRelationship) {
			return false
		}
		return n.GetAttr("Type") == typeCalcChainUrl || resolveTarget(n.GetAttr("Target")) == calcChainPart
	})
	w.encodePart(workbookRelsPart, w.file.relations)

	types, err := parsePart(w.file.archive, contentTypesPart)
	if err != nil {
		w.err = fmt.Errorf("%w: %w", ErrSerialize, err)
		return
	}
	types.Root().RemoveFunc(func(n *markup.Node) bool {
		return n.Is(elemOverride) && strings.EqualFold(n.GetAttr("PartName"), "/"+calcChainPart)
	})
	w.encodePart(contentTypesPart, types)
	w.removed = append(w.removed, calcChainPart)
}

func (w *writer) commit() {
	for name, buf := range w.staged {
		w.file.archive.Replace(name, buf)
	}
	for _, name := range w.removed {
		w.file.archive.Remove(name)
	}
}

func (w *writer) encodePart(name string, doc *markup.Document) {
	if w.invalid() {
		return
	}
	buf, err := doc.Bytes()
	if err != nil {
		w.err = fmt.Errorf("%w: %s: %w", ErrSerialize, name, err)
		return
	}
	w.staged[name] = buf
}

func (w *writer) hasFormulas() bool {
	for _, ws := range w.file.worksheets {
		if ws.formulas > 0 {
			return true
		}
	}
	return false
}

func (w *writer) hasDropped() bool {
	for _, ws := range w.file.worksheets {
		if ws.dropped {
			return true
		}
	}
	return false
}

func (w *writer) invalid() bool {
	return w.err != nil
}
