package oxml

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/midbel/sheetfill/internal/markup"
)

// SharedStrings is the workbook table of deduplicated strings. The position of
// a string in the table is the index cells refer to. The table only grows.
//
// Worksheets of a same File share the table; it is safe to use from several
// goroutines.
type SharedStrings struct {
	mu sync.Mutex

	doc    *markup.Document
	values []string
	index  map[string]int
	count  int
	dirty  bool
}

func readSharedStrings(doc *markup.Document) (*SharedStrings, error) {
	root := doc.Root()
	if !root.Is(elemSST) {
		return nil, fmt.Errorf("unexpected root element %s", root.Name)
	}
	sst := SharedStrings{
		doc:   doc,
		index: make(map[string]int),
	}
	for _, si := range root.Children(elemShared) {
		str := readText(si)
		if _, ok := sst.index[str]; !ok {
			sst.index[str] = len(sst.values)
		}
		sst.values = append(sst.values, str)
	}
	n, err := strconv.Atoi(root.GetAttr("count"))
	if err != nil || n < 0 {
		n = len(sst.values)
	}
	sst.count = n
	return &sst, nil
}

// StoreValue returns the index of str in the table, appending it when it is
// not yet there. Every call counts as one more reference to the table.
func (s *SharedStrings) StoreValue(str string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	ix, ok := s.index[str]
	if !ok {
		ix = len(s.values)
		s.values = append(s.values, str)
		s.index[str] = ix
		s.appendNode(str)
	}
	s.updateCounters()
	s.dirty = true
	return ix
}

func (s *SharedStrings) At(ix int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ix < 0 || ix >= len(s.values) {
		return "", false
	}
	return s.values[ix], true
}

func (s *SharedStrings) Index(str string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix, ok := s.index[str]
	return ix, ok
}

func (s *SharedStrings) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Count is the number of references to the table from cells as declared by
// the package and incremented by StoreValue.
func (s *SharedStrings) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *SharedStrings) UniqueCount() int {
	return s.Len()
}

func (s *SharedStrings) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Bytes encodes the table. The list and both counters are written together
// from the same tree.
func (s *SharedStrings) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Bytes()
}

func (s *SharedStrings) appendNode(str string) {
	var (
		root = s.doc.Root()
		si   = root.Create(elemShared)
	)
	si.Append(createText(si, str))
	root.InsertBefore(si, elemExtLst)
}

func (s *SharedStrings) updateCounters() {
	root := s.doc.Root()
	root.SetAttr("count", strconv.Itoa(s.count))
	root.SetAttr("uniqueCount", strconv.Itoa(len(s.values)))
}

func createText(parent *markup.Node, str string) *markup.Node {
	t := parent.Create(elemText)
	if needPreserve(str) {
		t.SetAttr("xml:space", "preserve")
	}
	t.SetText(str)
	return t
}

// readText gives the text of a string item: either its t element or the
// concatenation of its rich text runs. Phonetic runs are not part of the text.
func readText(node *markup.Node) string {
	if t := node.Child(elemText); t != nil {
		return t.Text()
	}
	var str strings.Builder
	for _, r := range node.Children(elemRun) {
		if t := r.Child(elemText); t != nil {
			str.WriteString(t.Text())
		}
	}
	return str.String()
}
