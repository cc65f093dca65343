// Package feature reduces a catalogmatch.ParsedDocument into an
// catalogmatch.ItemCollection: one retrievable Item per product record,
// table row, or windowed slice of free-form text. This is the layer the
// scoring index is built and queried against; everything upstream of it
// (parsing) and downstream of it (indexing, orchestration) is blind to
// which kind of source an Item came from.
package feature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nevindra/catalogmatch"
	"github.com/nevindra/catalogmatch/text"
)

const tableIDStride = 10_000

// Extract converts a ParsedDocument into an ItemCollection. Records take
// precedence over tables: if the document carries Records, its Tables are
// not also projected into items, since a tabular parser that already emits
// Records would otherwise contribute the same rows twice. Free-form pages
// are always windowed, and their items follow the record or table items.
func Extract(doc catalogmatch.ParsedDocument) catalogmatch.ItemCollection {
	var items []catalogmatch.Item

	for idx, rec := range doc.Records {
		items = append(items, itemFromRecord(rec, idx))
	}

	base := len(items)
	if len(doc.Records) == 0 {
		for ti, table := range doc.Tables {
			items = append(items, itemsFromTable(table, base+ti*tableIDStride)...)
		}
	}

	base = len(items)
	items = append(items, itemsFromPages(doc.PagesText, base)...)

	return catalogmatch.ItemCollection{Items: items}
}

func makeItemID(prefix string, index int) string {
	return fmt.Sprintf("%s:%d", prefix, index)
}

// clipRunes truncates s to at most n runes, matching the original's
// character-based (not byte-based) slicing so a multi-byte Cyrillic
// boundary is never split mid-rune.
func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func itemFromRecord(r catalogmatch.Record, idx int) catalogmatch.Item {
	parts := []string{r.Name}
	if r.Brand != "" {
		parts = append(parts, r.Brand)
	}
	if r.SKU != "" {
		parts = append(parts, r.SKU)
	}
	if r.Unit != "" {
		parts = append(parts, r.Unit)
	}
	if r.Price != "" {
		parts = append(parts, r.Price)
	}
	attrKeys := make([]string, 0, len(r.Attrs))
	for k := range r.Attrs {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)
	for _, k := range attrKeys {
		if v := r.Attrs[k]; v != "" {
			parts = append(parts, fmt.Sprintf("%s:%s", k, v))
		}
	}

	textRepr := text.NormalizeNumbers(text.Normalize(strings.Join(parts, " ")))
	tokens := text.FilterStopwords(text.Tokenize(textRepr))

	attrs := map[string]string{}
	if r.Brand != "" {
		attrs["brand"] = r.Brand
	}
	if r.SKU != "" {
		attrs["sku"] = r.SKU
	}
	if r.Price != "" {
		attrs["price"] = r.Price
	}
	for _, k := range []string{"id", "marketplace", "source"} {
		if v, ok := r.Raw[k]; ok && v != "" {
			attrs[k] = v
		}
	}

	return catalogmatch.Item{
		ItemID:   makeItemID("raw", idx),
		Name:     r.Name,
		TextRepr: textRepr,
		Brand:    r.Brand,
		SKU:      r.SKU,
		Price:    r.Price,
		Tokens:   tokens,
		Attrs:    attrs,
	}
}

var nameHints = []string{"наименование", "товар", "название", "item", "name", "title"}
var skuHints = []string{"sku", "артикул", "код", "id"}
var brandHints = []string{"бренд", "brand"}
var priceHints = []string{"цена", "price", "стоимость"}

func colIndex(headers []string, candidates []string) int {
	for i, h := range headers {
		for _, c := range candidates {
			if strings.Contains(h, c) {
				return i
			}
		}
	}
	return -1
}

func itemsFromTable(table catalogmatch.Table, baseIdx int) []catalogmatch.Item {
	headers := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = text.Normalize(h)
	}

	nameIdx := colIndex(headers, nameHints)
	skuIdx := colIndex(headers, skuHints)
	brandIdx := colIndex(headers, brandHints)
	priceIdx := colIndex(headers, priceHints)

	items := make([]catalogmatch.Item, 0, len(table.Rows))
	for ri, row := range table.Rows {
		var parts []string
		var name string

		if nameIdx >= 0 && nameIdx < len(row) {
			name = row[nameIdx]
		} else {
			name = strings.Join(row, " ")
		}
		parts = append(parts, name)

		attrs := map[string]string{}
		var sku, brand, price string
		if skuIdx >= 0 && skuIdx < len(row) && row[skuIdx] != "" {
			sku = row[skuIdx]
			parts = append(parts, sku)
			attrs["sku"] = sku
		}
		if brandIdx >= 0 && brandIdx < len(row) && row[brandIdx] != "" {
			brand = row[brandIdx]
			parts = append(parts, brand)
			attrs["brand"] = brand
		}
		if priceIdx >= 0 && priceIdx < len(row) && row[priceIdx] != "" {
			price = row[priceIdx]
			parts = append(parts, price)
			attrs["price"] = price
		}

		for ci, cell := range row {
			if ci < len(headers) && headers[ci] != "" {
				parts = append(parts, fmt.Sprintf("%s:%s", headers[ci], cell))
			} else {
				parts = append(parts, cell)
			}
		}

		textRepr := text.NormalizeNumbers(text.Normalize(strings.Join(parts, " ")))
		tokens := text.FilterStopwords(text.Tokenize(textRepr))

		items = append(items, catalogmatch.Item{
			ItemID:   makeItemID("tbl", baseIdx+ri),
			Name:     name,
			TextRepr: textRepr,
			Brand:    brand,
			SKU:      sku,
			Price:    price,
			Tokens:   tokens,
			Attrs:    attrs,
		})
	}
	return items
}

func itemsFromPages(pages []string, baseIdx int) []catalogmatch.Item {
	var items []catalogmatch.Item
	for pi, page := range pages {
		full := text.NormalizeNumbers(text.Normalize(page))
		tokens := text.FilterStopwords(text.Tokenize(full))
		if len(tokens) == 0 {
			continue
		}

		start := 0
		wid := 0
		for start < len(tokens) {
			end := start + catalogmatch.WindowSize
			if end > len(tokens) {
				end = len(tokens)
			}
			chunk := tokens[start:end]
			if len(chunk) == 0 {
				break
			}
			textRepr := strings.Join(chunk, " ")
			name := clipRunes(textRepr, 80)
			items = append(items, catalogmatch.Item{
				ItemID:   makeItemID("txt", baseIdx+pi*tableIDStride+wid),
				Name:     name,
				TextRepr: textRepr,
				Tokens:   chunk,
				Attrs:    map[string]string{},
			})
			wid++
			start += catalogmatch.WindowStride
		}
	}
	return items
}
