package catalogmatch

import "context"

// --- Parsed document model ---

// Table is a rectangular block extracted from a tabular source (CSV, JSON,
// JSONL) or from a table region inside a richer document (DOCX).
type Table struct {
	Headers []string
	Rows    [][]string
	Meta    map[string]any
}

// Record is a single structured row already projected onto the common
// commerce fields a parser was able to recognize (title/name, sku, brand,
// price, arbitrary attrs). Parsers that read row-oriented sources (CSV,
// JSON, JSONL) emit Records directly instead of forcing callers to re-derive
// them from a Table.
type Record struct {
	Name  string
	Qty   string
	Unit  string
	SKU   string
	Brand string
	Price string
	Attrs map[string]string
	Raw   map[string]string
}

// ParsedDocument is the normalized output of every Parser implementation.
// A single document may carry any combination of free-form text pages,
// tables, and pre-projected records; feature.Extract decides precedence.
type ParsedDocument struct {
	SourcePath string
	PagesText  []string
	Tables     []Table
	Records    []Record
	Meta       map[string]any
}

// Parser turns raw bytes from a named source into a ParsedDocument.
// Implementations live under the parser package, keyed by content type or
// file extension.
type Parser interface {
	Parse(ctx context.Context, name string, content []byte) (ParsedDocument, error)
}

// --- Item feature model ---

// Item is one retrievable unit: a catalog entry, a raw record, a table row,
// or a windowed slice of free-form page text. ItemID is stable for a given
// (document, source-kind, position) tuple so repeated extraction runs over
// the same source produce the same identifiers.
type Item struct {
	ItemID   string
	Name     string
	Brand    string
	SKU      string
	Price    string
	TextRepr string
	Tokens   []string
	Attrs    map[string]string
}

// ItemCollection is an ordered set of Items extracted from one document,
// in extraction order. It is the unit that both sides of a search (the
// catalog reference and the incoming query) are reduced to.
type ItemCollection struct {
	Items []Item
}

// --- Search result model ---

// Match is one scored candidate returned by an Index for a single query
// item. Meta carries the fields an orchestrator needs for tie-breaking
// (price) and fuzzy fallback (sku, name) without a second lookup.
type Match struct {
	ItemID string
	Score  float64
	Meta   map[string]string
}

// SearchResult is the outcome of resolving one query item against a fitted
// Index: the best match chosen by the orchestrator's threshold-and-fallback
// rules, plus the raw top-K candidates it chose from.
type SearchResult struct {
	QueryItemID   string
	BestMatchID   string
	BestMatchName string
	BestScore     float64
	TopK          []Match
}

// Index is the capability a scoring backend must provide to be used by the
// search orchestrator. Fit builds the backend from a reference catalog;
// Search scores a query collection against the fitted state and returns,
// for each query item, its own slice of candidate Matches ordered by score.
type Index interface {
	Fit(corpus ItemCollection) error
	Search(ctx context.Context, query ItemCollection, topK int) ([][]Match, error)
}
