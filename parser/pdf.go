package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nevindra/catalogmatch"
)

// PDF extracts plain text from a PDF reference document, one PagesText
// entry per PDF page so a page boundary never fragments a sliding window
// across unrelated catalog sections.
type PDF struct{}

var _ catalogmatch.Parser = PDF{}

func (PDF) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	if len(content) == 0 {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: empty pdf content", name)
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: open pdf: %w", name, err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	return catalogmatch.ParsedDocument{
		SourcePath: name,
		PagesText:  pages,
		Meta:       map[string]any{"pages": len(pages)},
	}, nil
}
