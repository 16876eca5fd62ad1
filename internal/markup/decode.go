package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

func Parse(buf []byte) (*Document, error) {
	return Decode(bytes.NewReader(buf))
}

// Decode builds the tree of r. Namespace prefixes are kept as written so that
// encoding the tree back produces the same qualified names.
func Decode(r io.Reader) (*Document, error) {
	var (
		doc   Document
		stack []*Node
		rs    = xml.NewDecoder(r)
	)
	rs.Strict = true
	rs.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := rs.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		var node *Node
		switch tok := tok.(type) {
		case xml.StartElement:
			node = &Node{
				Kind: KindElement,
				Name: fromXML(tok.Name),
			}
			for _, a := range tok.Attr {
				node.Attrs = append(node.Attrs, Attr{
					Name:  fromXML(a.Name),
					Value: a.Value,
				})
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected closing element %s", ErrSyntax, fromXML(tok.Name))
			}
			top := stack[len(stack)-1]
			if got := fromXML(tok.Name); got != top.Name {
				return nil, fmt.Errorf("%w: element %s closed by %s", ErrSyntax, top.Name, got)
			}
			stack = stack[:len(stack)-1]
			continue
		case xml.CharData:
			node = NewText(string(tok))
		case xml.Comment:
			node = &Node{
				Kind: KindComment,
				Data: string(tok),
			}
		case xml.ProcInst:
			node = &Node{
				Kind: KindInstruction,
				Name: Name{Local: tok.Target},
				Data: string(tok.Inst),
			}
			if tok.Target == "xml" {
				node.Data = declareUTF8(node.Data)
			}
		case xml.Directive:
			node = &Node{
				Kind: KindDirective,
				Data: string(tok),
			}
		default:
			continue
		}
		if n := len(stack); n == 0 {
			doc.Nodes = append(doc.Nodes, node)
		} else {
			stack[n-1].Append(node)
		}
		if node.Kind == KindElement {
			stack = append(stack, node)
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: element %s not closed", ErrSyntax, stack[len(stack)-1].Name)
	}
	if doc.Root() == nil {
		return nil, ErrEmpty
	}
	return &doc, nil
}

func fromXML(name xml.Name) Name {
	return Name{
		Space: name.Space,
		Local: name.Local,
	}
}

var encodingPattern = regexp.MustCompile(`encoding\s*=\s*("[^"]*"|'[^']*')`)

// declareUTF8 rewrites the encoding of an xml declaration since the decoder
// hands back utf-8 text whatever the source encoding was.
func declareUTF8(inst string) string {
	return encodingPattern.ReplaceAllStringFunc(inst, func(str string) string {
		_, label, _ := strings.Cut(str, "=")
		label = strings.Trim(strings.TrimSpace(label), `"'`)
		if strings.EqualFold(label, "utf-8") {
			return str
		}
		return `encoding="UTF-8"`
	})
}
