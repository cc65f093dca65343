package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nevindra/catalogmatch"
)

// maxZipEntrySize bounds a single decompressed zip entry to guard against
// zip bombs disguised as reference catalogs.
const maxZipEntrySize = 100 << 20

// DOCX extracts plain text and table rows from a Word document by streaming
// word/document.xml's OOXML tokens, without loading the full DOM. Paragraph
// text becomes a page of free-form text; table rows become Tables so the
// feature extractor can project named columns (sku, brand, price) the way
// it does for any other tabular source.
type DOCX struct{}

var _ catalogmatch.Parser = DOCX{}

func (DOCX) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	if len(content) == 0 {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: empty docx content", name)
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: open zip: %w", name, err)
	}

	var docData []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docData, err = readZipFile(f)
			if err != nil {
				return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: read document.xml: %w", name, err)
			}
			break
		}
	}
	if docData == nil {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: missing word/document.xml", name)
	}

	paragraphs, tables, err := parseDocumentXML(docData)
	if err != nil {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: %w", name, err)
	}

	return catalogmatch.ParsedDocument{
		SourcePath: name,
		PagesText:  paragraphs,
		Tables:     tables,
	}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	lr := io.LimitReader(rc, maxZipEntrySize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxZipEntrySize {
		return nil, fmt.Errorf("zip entry %s exceeds %d byte limit", f.Name, maxZipEntrySize)
	}
	return data, nil
}

type docxState struct {
	paragraphs []string

	inParagraph    bool
	inRun          bool
	paragraphTexts []string

	inTable      bool
	inTableRow   bool
	tableHeaders []string
	tableRows    [][]string
	rowIdx       int
	cellTexts    []string
	currentCell  strings.Builder
}

func parseDocumentXML(data []byte) ([]string, []catalogmatch.Table, error) {
	s := &docxState{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var finishedTables []catalogmatch.Table

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			s.handleStart(t)
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				s.inTable = false
				if len(s.tableRows) > 0 {
					finishedTables = append(finishedTables, catalogmatch.Table{
						Headers: s.tableHeaders,
						Rows:    s.tableRows,
					})
				}
				s.tableHeaders = nil
				s.tableRows = nil
				s.rowIdx = 0
				continue
			}
			s.handleEnd(t)
		case xml.CharData:
			s.handleCharData(t)
		}
	}

	return s.paragraphs, finishedTables, nil
}

func (s *docxState) handleStart(t xml.StartElement) {
	switch t.Name.Local {
	case "p":
		s.inParagraph = true
		s.paragraphTexts = nil
	case "r":
		s.inRun = true
	case "tbl":
		s.inTable = true
		s.tableHeaders = nil
		s.tableRows = nil
		s.rowIdx = 0
	case "tr":
		s.inTableRow = true
		s.cellTexts = nil
	case "tc":
		s.currentCell.Reset()
	}
}

func (s *docxState) handleEnd(t xml.EndElement) {
	switch t.Name.Local {
	case "r":
		s.inRun = false
	case "tc":
		s.cellTexts = append(s.cellTexts, strings.TrimSpace(s.currentCell.String()))
	case "tr":
		s.inTableRow = false
		if !s.inTable {
			break
		}
		if s.rowIdx == 0 {
			s.tableHeaders = append([]string(nil), s.cellTexts...)
		} else {
			s.tableRows = append(s.tableRows, append([]string(nil), s.cellTexts...))
		}
		s.rowIdx++
	case "p":
		s.endParagraph()
	}
}

func (s *docxState) handleCharData(data xml.CharData) {
	content := string(data)
	if s.inTable && s.inTableRow {
		s.currentCell.WriteString(content)
		return
	}
	if s.inParagraph && s.inRun {
		s.paragraphTexts = append(s.paragraphTexts, content)
	}
}

func (s *docxState) endParagraph() {
	s.inParagraph = false
	if s.inTable {
		return
	}
	text := strings.TrimSpace(strings.Join(s.paragraphTexts, ""))
	if text != "" {
		s.paragraphs = append(s.paragraphs, text)
	}
}
