package markup

import (
	"errors"
	"slices"
	"strings"
)

var (
	ErrSyntax = errors.New("syntax error")
	ErrName   = errors.New("invalid name")
	ErrEmpty  = errors.New("empty document")
)

type NodeKind int8

const (
	KindElement NodeKind = 1 << iota
	KindText
	KindComment
	KindInstruction
	KindDirective
)

// Name is a qualified name where Space holds the prefix as written in the
// source document, not the namespace URI.
type Name struct {
	Space string
	Local string
}

func ParseName(str string) Name {
	prefix, local, ok := strings.Cut(str, ":")
	if !ok {
		return Name{Local: str}
	}
	return Name{
		Space: prefix,
		Local: local,
	}
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

type Attr struct {
	Name
	Value string
}

type Node struct {
	Kind  NodeKind
	Name  Name
	Attrs []Attr
	Nodes []*Node
	Data  string
}

func NewElement(space, local string) *Node {
	return &Node{
		Kind: KindElement,
		Name: Name{
			Space: space,
			Local: local,
		},
	}
}

func NewText(str string) *Node {
	return &Node{
		Kind: KindText,
		Data: str,
	}
}

// Create returns a detached element sharing the prefix of n.
func (n *Node) Create(local string) *Node {
	return NewElement(n.Name.Space, local)
}

func (n *Node) Is(local string) bool {
	return n != nil && n.Kind == KindElement && n.Name.Local == local
}

func (n *Node) Elements() []*Node {
	var list []*Node
	for _, c := range n.Nodes {
		if c.Kind == KindElement {
			list = append(list, c)
		}
	}
	return list
}

func (n *Node) Child(local string) *Node {
	ix := slices.IndexFunc(n.Nodes, func(c *Node) bool {
		return c.Is(local)
	})
	if ix < 0 {
		return nil
	}
	return n.Nodes[ix]
}

func (n *Node) Children(local string) []*Node {
	var list []*Node
	for _, c := range n.Nodes {
		if c.Is(local) {
			list = append(list, c)
		}
	}
	return list
}

func (n *Node) Append(child *Node) {
	n.Nodes = append(n.Nodes, child)
}

// InsertBefore inserts child before the first element whose local name is one
// of locals. The child is appended when none is found.
func (n *Node) InsertBefore(child *Node, locals ...string) {
	ix := slices.IndexFunc(n.Nodes, func(c *Node) bool {
		return c.Kind == KindElement && slices.Contains(locals, c.Name.Local)
	})
	if ix < 0 {
		n.Append(child)
		return
	}
	n.Nodes = slices.Insert(n.Nodes, ix, child)
}

// InsertAfter inserts child after the last element whose local name is one of
// locals. The child is appended when none is found.
func (n *Node) InsertAfter(child *Node, locals ...string) {
	ix := -1
	for i, c := range n.Nodes {
		if c.Kind == KindElement && slices.Contains(locals, c.Name.Local) {
			ix = i
		}
	}
	if ix < 0 {
		n.Append(child)
		return
	}
	n.Nodes = slices.Insert(n.Nodes, ix+1, child)
}

func (n *Node) RemoveChildren(local string) int {
	size := len(n.Nodes)
	n.Nodes = slices.DeleteFunc(n.Nodes, func(c *Node) bool {
		return c.Is(local)
	})
	return size - len(n.Nodes)
}

func (n *Node) RemoveFunc(fn func(*Node) bool) int {
	size := len(n.Nodes)
	n.Nodes = slices.DeleteFunc(n.Nodes, fn)
	return size - len(n.Nodes)
}

// Attr looks up an attribute by its qualified name as written ("r", "xml:space").
func (n *Node) Attr(name string) (string, bool) {
	qn := ParseName(name)
	ix := slices.IndexFunc(n.Attrs, func(a Attr) bool {
		return a.Name == qn
	})
	if ix < 0 {
		return "", false
	}
	return n.Attrs[ix].Value, true
}

// AttrLocal looks up an attribute by its local name whatever its prefix.
func (n *Node) AttrLocal(local string) (string, bool) {
	ix := slices.IndexFunc(n.Attrs, func(a Attr) bool {
		return a.Local == local
	})
	if ix < 0 {
		return "", false
	}
	return n.Attrs[ix].Value, true
}

func (n *Node) GetAttr(name string) string {
	str, _ := n.Attr(name)
	return str
}

func (n *Node) SetAttr(name, value string) {
	qn := ParseName(name)
	ix := slices.IndexFunc(n.Attrs, func(a Attr) bool {
		return a.Name == qn
	})
	if ix >= 0 {
		n.Attrs[ix].Value = value
		return
	}
	n.Attrs = append(n.Attrs, Attr{
		Name:  qn,
		Value: value,
	})
}

func (n *Node) RemoveAttr(name string) {
	qn := ParseName(name)
	n.Attrs = slices.DeleteFunc(n.Attrs, func(a Attr) bool {
		return a.Name == qn
	})
}

// Text returns the concatenation of the text nodes directly under n.
func (n *Node) Text() string {
	var str strings.Builder
	for _, c := range n.Nodes {
		if c.Kind == KindText {
			str.WriteString(c.Data)
		}
	}
	return str.String()
}

func (n *Node) SetText(str string) {
	n.Nodes = []*Node{NewText(str)}
}

type Document struct {
	Nodes []*Node
}

func (d *Document) Root() *Node {
	ix := slices.IndexFunc(d.Nodes, func(n *Node) bool {
		return n.Kind == KindElement
	})
	if ix < 0 {
		return nil
	}
	return d.Nodes[ix]
}
