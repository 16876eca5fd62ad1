package oxml

import (
	"bytes"
	"fmt"
	"strings"

	sax "github.com/midbel/codecs/xml"
)

// checkContentTypes makes sure the package declares a spreadsheet main part at
// the location where the workbook is loaded from.
func checkContentTypes(a *archive) error {
	buf, err := a.ReadFile(contentTypesPart)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	var (
		found bool
		rs    = sax.NewReader(bytes.NewReader(buf))
	)
	rs.Element(sax.LocalName(elemOverride), func(_ *sax.Reader, el sax.E) error {
		var (
			part = el.GetAttributeValue("PartName")
			mime = el.GetAttributeValue("ContentType")
		)
		if strings.EqualFold(part, "/"+workbookPart) && isWorkbookType(mime) {
			found = true
		}
		return nil
	})
	if err := rs.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArchive, contentTypesPart, err)
	}
	if !found {
		return fmt.Errorf("%w: %s does not declare a workbook", ErrArchive, contentTypesPart)
	}
	return nil
}
