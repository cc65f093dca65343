// Package parser turns raw catalog and document bytes into
// catalogmatch.ParsedDocument values. Each format gets its own
// catalogmatch.Parser implementation; Auto dispatches to one of them by
// file extension, mirroring the registry's Source.Name convention.
package parser

import (
	"context"
	"strings"

	"github.com/nevindra/catalogmatch"
)

// ContentType identifies the format a Parser was written for.
type ContentType string

const (
	TypePlainText ContentType = "text/plain"
	TypeHTML      ContentType = "text/html"
	TypeMarkdown  ContentType = "text/markdown"
	TypeCSV       ContentType = "text/csv"
	TypeJSON      ContentType = "application/json"
	TypeJSONL     ContentType = "application/x-ndjson"
	TypeDOCX      ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypePDF       ContentType = "application/pdf"
)

// ContentTypeFromExtension maps a file extension (with or without a
// leading dot) to the ContentType Auto dispatches on.
func ContentTypeFromExtension(ext string) ContentType {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "md", "markdown":
		return TypeMarkdown
	case "html", "htm":
		return TypeHTML
	case "csv":
		return TypeCSV
	case "json":
		return TypeJSON
	case "jsonl", "ndjson":
		return TypeJSONL
	case "docx":
		return TypeDOCX
	case "pdf":
		return TypePDF
	default:
		return TypePlainText
	}
}

// PlainText returns content as a single untouched page of text.
type PlainText struct{}

var _ catalogmatch.Parser = PlainText{}

func (PlainText) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	s := string(content)
	var pages []string
	if strings.TrimSpace(s) != "" {
		pages = []string{s}
	}
	return catalogmatch.ParsedDocument{SourcePath: name, PagesText: pages}, nil
}

// Auto dispatches Parse to the sub-parser matching name's extension,
// falling back to PlainText for unrecognized extensions.
type Auto struct {
	HTMLBaseURL string
}

var _ catalogmatch.Parser = Auto{}

func (a Auto) Parse(ctx context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	ext := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = name[i+1:]
	}
	switch ContentTypeFromExtension(ext) {
	case TypeMarkdown:
		return Markdown{}.Parse(ctx, name, content)
	case TypeHTML:
		return HTML{BaseURL: a.HTMLBaseURL}.Parse(ctx, name, content)
	case TypeCSV:
		return CSV{}.Parse(ctx, name, content)
	case TypeJSON:
		return JSON{}.Parse(ctx, name, content)
	case TypeJSONL:
		return JSONL{}.Parse(ctx, name, content)
	case TypeDOCX:
		return DOCX{}.Parse(ctx, name, content)
	case TypePDF:
		return PDF{}.Parse(ctx, name, content)
	default:
		return PlainText{}.Parse(ctx, name, content)
	}
}
