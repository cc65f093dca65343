package parser

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/nevindra/catalogmatch"
)

// HTML extracts the main article content from an HTML reference page using
// go-shiori/go-readability, discarding navigation, ads, and boilerplate
// that would otherwise pollute the token windows fed to feature extraction.
type HTML struct {
	// BaseURL is passed to readability so relative links and images resolve;
	// a catalog scraped from a known site should set this.
	BaseURL string
}

var _ catalogmatch.Parser = HTML{}

func (h HTML) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	base := h.BaseURL
	if base == "" {
		base = "http://localhost/" + name
	}
	parsedURL, err := url.Parse(base)
	if err != nil {
		return catalogmatch.ParsedDocument{}, err
	}

	article, err := readability.FromReader(bytes.NewReader(content), parsedURL)
	if err != nil {
		return catalogmatch.ParsedDocument{}, err
	}

	text := strings.TrimSpace(article.TextContent)
	var pages []string
	if text != "" {
		pages = []string{text}
	}

	return catalogmatch.ParsedDocument{
		SourcePath: name,
		PagesText:  pages,
		Meta:       map[string]any{"title": article.Title},
	}, nil
}
