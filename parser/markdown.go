package parser

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/nevindra/catalogmatch"
)

// Markdown strips Markdown formatting down to plain text by walking
// goldmark's parsed AST and collecting text-node segments, rather than
// pattern-matching on raw syntax, so nested emphasis, links, and code
// spans are handled the way a CommonMark parser actually groups them.
type Markdown struct{}

var _ catalogmatch.Parser = Markdown{}

func (Markdown) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			b.Write(t.Segment.Value(content))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case ast.KindParagraph, ast.KindHeading, ast.KindListItem, ast.KindCodeBlock, ast.KindFencedCodeBlock:
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return catalogmatch.ParsedDocument{}, err
	}

	page := collapseBlank(b.String())
	var pages []string
	if page != "" {
		pages = []string{page}
	}

	return catalogmatch.ParsedDocument{SourcePath: name, PagesText: pages}, nil
}

func collapseBlank(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			blank++
			continue
		}
		if len(out) > 0 && blank > 0 {
			out = append(out, "")
		}
		out = append(out, l)
		blank = 0
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
