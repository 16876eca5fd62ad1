package oxml

import (
	"fmt"

	"github.com/midbel/sheetfill/internal/markup"
	"golang.org/x/sync/errgroup"
)

type reader struct {
	archive *archive
	errs    chan error
}

func (r *reader) ReadFile() (*File, error) {
	if err := checkContentTypes(r.archive); err != nil {
		return nil, err
	}
	var (
		grp      errgroup.Group
		workbook *markup.Document
		rels     *markup.Document
		shared   *markup.Document
	)
	grp.Go(r.parseInto(workbookPart, &workbook))
	grp.Go(r.parseInto(workbookRelsPart, &rels))
	grp.Go(r.parseInto(sharedStringsPart, &shared))
	if err := r.wait(&grp); err != nil {
		return nil, err
	}

	file := File{
		archive:   r.archive,
		workbook:  workbook,
		relations: rels,
		paths:     make(map[string]*Worksheet),
	}
	var err error
	if file.sheets, err = readSheets(workbook); err != nil {
		return nil, &PartError{Part: workbookPart, Err: err}
	}
	if file.targets, err = readRelations(rels); err != nil {
		return nil, &PartError{Part: workbookRelsPart, Err: err}
	}
	if file.sharedStrings, err = readSharedStrings(shared); err != nil {
		return nil, &PartError{Part: sharedStringsPart, Err: err}
	}
	return &file, nil
}

func (r *reader) parseInto(name string, doc **markup.Document) func() error {
	return func() error {
		d, err := parsePart(r.archive, name)
		if err != nil {
			r.fail(err)
			return err
		}
		*doc = d
		return nil
	}
}

// wait returns as soon as one parse fails. Parses still running are left to
// complete in the background.
func (r *reader) wait(grp *errgroup.Group) error {
	var (
		done = make(chan struct{})
		err  error
	)
	go func() {
		err = grp.Wait()
		close(done)
	}()
	select {
	case e := <-r.errs:
		return e
	case <-done:
		return err
	}
}

func (r *reader) fail(err error) {
	select {
	case r.errs <- err:
	default:
	}
}

func parsePart(a *archive, name string) (*markup.Document, error) {
	buf, err := a.ReadFile(name)
	if err != nil {
		return nil, &PartError{Part: name, Err: err}
	}
	doc, err := markup.Parse(buf)
	if err != nil {
		return nil, &PartError{Part: name, Err: err}
	}
	return doc, nil
}

func readSheets(doc *markup.Document) ([]SheetInfo, error) {
	root := doc.Root()
	if !root.Is(elemWorkbook) {
		return nil, fmt.Errorf("unexpected root element %s", root.Name)
	}
	sheets := root.Child(elemSheets)
	if sheets == nil {
		return nil, fmt.Errorf("no sheets declared")
	}
	var list []SheetInfo
	for _, el := range sheets.Children(elemSheet) {
		s := SheetInfo{
			Name:  el.GetAttr("name"),
			State: el.GetAttr("state"),
		}
		s.Id, _ = el.AttrLocal("id")
		s.Index = el.GetAttr("sheetId")
		if s.State == "" {
			s.State = StateVisible
		}
		list = append(list, s)
	}
	return list, nil
}

func readRelations(doc *markup.Document) (map[string]string, error) {
	root := doc.Root()
	if !root.Is(elemRelationships) {
		return nil, fmt.Errorf("unexpected root element %s", root.Name)
	}
	targets := make(map[string]string)
	for _, el := range root.Children(elemRelationship) {
		if el.GetAttr("TargetMode") == "External" {
			continue
		}
		id := el.GetAttr("Id")
		if _, ok := targets[id]; ok || id == "" {
			continue
		}
		targets[id] = resolveTarget(el.GetAttr("Target"))
	}
	return targets, nil
}
