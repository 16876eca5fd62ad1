package oxml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/midbel/sheetfill/internal/markup"
)

var (
	ErrArchive          = errors.New("invalid spreadsheet archive")
	ErrPart             = errors.New("invalid part")
	ErrSheetNotFound    = errors.New("sheet not found")
	ErrRelationNotFound = errors.New("relationship not found")
	ErrAddressNotFound  = errors.New("cell not found")
	ErrSharedFormula    = errors.New("cell anchors a shared formula")
	ErrInvalidValue     = errors.New("invalid value")
	ErrSerialize        = errors.New("fail to serialize part")
	ErrRegenerate       = errors.New("fail to regenerate archive")
	ErrWrite            = errors.New("fail to write file")
)

// PartError reports a part of the package that is missing or that can not be
// parsed. It matches ErrPart with errors.Is.
type PartError struct {
	Part string
	Err  error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrPart, e.Part, e.Err)
}

func (e *PartError) Unwrap() []error {
	return []error{ErrPart, e.Err}
}

const (
	StateVisible    = "visible"
	StateHidden     = "hidden"
	StateVeryHidden = "veryHidden"
)

type SheetInfo struct {
	Id    string
	Name  string
	Index string
	State string
}

// File is a spreadsheet package loaded in memory. Worksheets are parsed on
// first access and written back by Generate.
//
// A File is not safe for concurrent use.
type File struct {
	archive   *archive
	workbook  *markup.Document
	relations *markup.Document

	sheets        []SheetInfo
	targets       map[string]string
	sharedStrings *SharedStrings

	worksheets []*Worksheet
	paths      map[string]*Worksheet
}

func Open(file string) (*File, error) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchive, err)
	}
	return OpenBytes(buf)
}

func OpenBytes(buf []byte) (*File, error) {
	return OpenReader(bytes.NewReader(buf), int64(len(buf)))
}

func OpenReader(r io.ReaderAt, size int64) (*File, error) {
	a, err := openArchive(r, size)
	if err != nil {
		return nil, err
	}
	rs := reader{
		archive: a,
		errs:    make(chan error, 1),
	}
	return rs.ReadFile()
}

func (f *File) Sheets() []SheetInfo {
	return slices.Clone(f.sheets)
}

func (f *File) SheetNames() []string {
	var names []string
	for _, s := range f.sheets {
		names = append(names, s.Name)
	}
	return names
}

func (f *File) SharedStrings() *SharedStrings {
	return f.sharedStrings
}

// Worksheet loads the sheet with the given name. When several sheets have the
// same name, the first one is used. A sheet is loaded once: later calls give
// back the same Worksheet.
func (f *File) Worksheet(name string) (*Worksheet, error) {
	ix := slices.IndexFunc(f.sheets, func(s SheetInfo) bool {
		return s.Name == name
	})
	if ix < 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrSheetNotFound)
	}
	sheet := f.sheets[ix]
	target, ok := f.targets[sheet.Id]
	if !ok {
		return nil, fmt.Errorf("%s (%s): %w", name, sheet.Id, ErrRelationNotFound)
	}
	if ws, ok := f.paths[target]; ok {
		return ws, nil
	}
	doc, err := parsePart(f.archive, target)
	if err != nil {
		return nil, err
	}
	ws, err := readWorksheet(sheet.Name, target, doc, f.sharedStrings)
	if err != nil {
		return nil, &PartError{Part: target, Err: err}
	}
	f.worksheets = append(f.worksheets, ws)
	f.paths[target] = ws
	return ws, nil
}

// Generate writes back every loaded worksheet and returns the new package.
// The archive is only updated when all parts have been serialized.
func (f *File) Generate() ([]byte, error) {
	w := writer{
		file:   f,
		staged: make(map[string][]byte),
	}
	return w.Generate()
}

func (f *File) WriteFile(file string) error {
	buf, err := f.Generate()
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, buf, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
