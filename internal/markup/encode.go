package markup

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) Encode(w io.Writer) error {
	ws := writer{
		inner: bufio.NewWriter(w),
	}
	for _, n := range d.Nodes {
		ws.writeNode(n)
	}
	return ws.Flush()
}

type writer struct {
	inner *bufio.Writer
	err   error
}

func (w *writer) Flush() error {
	if w.invalid() {
		return w.err
	}
	return w.inner.Flush()
}

func (w *writer) writeNode(n *Node) {
	if w.invalid() {
		return
	}
	switch n.Kind {
	case KindElement:
		w.writeElement(n)
	case KindText:
		w.escape(n.Data, false)
	case KindComment:
		if strings.Contains(n.Data, "--") {
			w.err = fmt.Errorf("%w: comment contains --", ErrSyntax)
			return
		}
		w.write("<!--", n.Data, "-->")
	case KindInstruction:
		if n.Name.Local == "" || strings.Contains(n.Data, "?>") {
			w.err = fmt.Errorf("%w: invalid processing instruction %q", ErrSyntax, n.Name.Local)
			return
		}
		w.write("<?", n.Name.Local)
		if n.Data != "" {
			w.write(" ", n.Data)
		}
		w.write("?>")
	case KindDirective:
		w.write("<!", n.Data, ">")
	default:
		w.err = fmt.Errorf("%w: unknown node kind %d", ErrSyntax, n.Kind)
	}
}

func (w *writer) writeElement(n *Node) {
	if n.Name.Local == "" {
		w.err = fmt.Errorf("%w: element without name", ErrName)
		return
	}
	name := n.Name.String()
	w.write("<", name)
	for _, a := range n.Attrs {
		if a.Local == "" {
			w.err = fmt.Errorf("%w: attribute without name in %s", ErrName, name)
			return
		}
		w.write(" ", a.Name.String(), `="`)
		w.escape(a.Value, true)
		w.write(`"`)
	}
	if len(n.Nodes) == 0 {
		w.write("/>")
		return
	}
	w.write(">")
	for _, c := range n.Nodes {
		w.writeNode(c)
	}
	w.write("</", name, ">")
}

func (w *writer) write(parts ...string) {
	if w.invalid() {
		return
	}
	for _, p := range parts {
		if _, err := w.inner.WriteString(p); err != nil {
			w.err = err
			return
		}
	}
}

// escape writes str with markup characters replaced. Line breaks and tabs
// are kept as is in text but written as references in attributes where a
// parser would otherwise normalize them. Text that XML can not carry is an
// error.
func (w *writer) escape(str string, attr bool) {
	if w.invalid() {
		return
	}
	if !ValidText(str) {
		w.err = fmt.Errorf("%w: invalid character in %q", ErrSyntax, str)
		return
	}
	var buf strings.Builder
	for _, r := range str {
		switch {
		case r == '&':
			buf.WriteString("&amp;")
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case r == '"' && attr:
			buf.WriteString("&quot;")
		case r == '\n' && attr:
			buf.WriteString("&#xA;")
		case r == '\t' && attr:
			buf.WriteString("&#x9;")
		case r == '\r':
			buf.WriteString("&#xD;")
		default:
			buf.WriteRune(r)
		}
	}
	w.write(buf.String())
}

func (w *writer) invalid() bool {
	return w.err != nil
}

// ValidText reports whether str is valid UTF-8 made only of characters
// allowed in XML documents.
func ValidText(str string) bool {
	if !utf8.ValidString(str) {
		return false
	}
	for _, r := range str {
		if !isChar(r) {
			return false
		}
	}
	return true
}

func isChar(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
