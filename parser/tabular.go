package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nevindra/catalogmatch"
)

// CSV reads a comma-separated reference file where the first row is
// headers, projecting each row directly into a Record via recognized
// column names (title/name, sku, brand, price).
type CSV struct{}

var _ catalogmatch.Parser = CSV{}

func (CSV) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: read csv: %w", name, err)
	}
	if len(rows) == 0 {
		return catalogmatch.ParsedDocument{}, nil
	}

	headers := rows[0]
	var maps []map[string]string
	for _, row := range rows[1:] {
		m := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				m[h] = row[i]
			}
		}
		maps = append(maps, m)
	}
	return buildParsedDocument(name, headers, maps), nil
}

// JSON reads a reference file holding a JSON array of objects, or a single
// JSON object, projecting each object into a Record.
type JSON struct{}

var _ catalogmatch.Parser = JSON{}

func (JSON) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	var raw any
	if err := json.Unmarshal(content, &raw); err != nil {
		return catalogmatch.ParsedDocument{}, fmt.Errorf("%s: decode json: %w", name, err)
	}

	var maps []map[string]string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				maps = append(maps, stringifyRow(obj))
			}
		}
	case map[string]any:
		maps = append(maps, stringifyRow(v))
	}

	return buildParsedDocument(name, headersFromRows(maps), maps), nil
}

// JSONL reads a newline-delimited JSON reference file, one object per line.
// Malformed lines are skipped rather than failing the whole parse.
type JSONL struct{}

var _ catalogmatch.Parser = JSONL{}

func (JSONL) Parse(_ context.Context, name string, content []byte) (catalogmatch.ParsedDocument, error) {
	var maps []map[string]string
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		maps = append(maps, stringifyRow(obj))
	}
	return buildParsedDocument(name, headersFromRows(maps), maps), nil
}

func stringifyRow(obj map[string]any) map[string]string {
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

func headersFromRows(rows []map[string]string) []string {
	set := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(set))
	for k := range set {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}

var (
	nameKeys  = []string{"title", "name"}
	skuKey    = "sku"
	brandKey  = "brand"
	priceKey  = "price"
)

// buildParsedDocument turns row maps into both a Table view (for callers
// that want raw header/row access) and a Records view (for the common
// commerce fields feature.Extract projects directly without re-deriving
// them from the table).
func buildParsedDocument(name string, headers []string, rows []map[string]string) catalogmatch.ParsedDocument {
	tableRows := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = r[h]
		}
		tableRows[i] = row
	}

	records := make([]catalogmatch.Record, len(rows))
	for i, r := range rows {
		name := firstNonEmpty(r, nameKeys)
		attrs := map[string]string{}
		for _, k := range []string{"marketplace", "id"} {
			if v, ok := r[k]; ok {
				attrs[k] = v
			}
		}
		records[i] = catalogmatch.Record{
			Name:  name,
			SKU:   r[skuKey],
			Brand: r[brandKey],
			Price: r[priceKey],
			Attrs: attrs,
			Raw:   r,
		}
	}

	return catalogmatch.ParsedDocument{
		SourcePath: name,
		Tables:     []catalogmatch.Table{{Headers: headers, Rows: tableRows, Meta: map[string]any{"count": len(rows)}}},
		Records:    records,
	}
}

func firstNonEmpty(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != "" {
			return v
		}
	}
	return ""
}
