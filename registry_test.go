package catalogmatch

import (
	"context"
	"testing"
	"time"
)

// lineParser turns each source into a single Record whose Name is the whole
// content and whose SKU is the source name, for registry tests that don't
// need a real parser implementation.
type lineParser struct{}

func (lineParser) Parse(ctx context.Context, name string, content []byte) (ParsedDocument, error) {
	return ParsedDocument{Records: []Record{{Name: string(content), SKU: name}}}, nil
}

func newTestRegistry(capacity int) *Registry {
	return NewRegistry(lineParser{}, func() Index { return &recordingIndex{} }, WithCapacity(capacity))
}

// recordingIndex is a minimal Index that matches every query item against
// every corpus item with a constant score, enough to exercise Warmup/Search
// plumbing without pulling in tfidx.
type recordingIndex struct {
	corpus ItemCollection
}

func (r *recordingIndex) Fit(corpus ItemCollection) error {
	r.corpus = corpus
	return nil
}

func (r *recordingIndex) Search(ctx context.Context, query ItemCollection, topK int) ([][]Match, error) {
	out := make([][]Match, len(query.Items))
	for i := range query.Items {
		var matches []Match
		for _, it := range r.corpus.Items {
			matches = append(matches, Match{ItemID: it.ItemID, Score: 1.0, Meta: map[string]string{"name": it.Name}})
		}
		if len(matches) > topK {
			matches = matches[:topK]
		}
		out[i] = matches
	}
	return out, nil
}

func TestWarmupAndIsLoaded(t *testing.T) {
	reg := newTestRegistry(3)
	n, err := reg.Warmup(context.Background(), "cat-1", []Source{{Name: "sku-1", Content: []byte("Widget")}})
	if err != nil {
		t.Fatalf("Warmup() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Warmup() returned %d items, want 1", n)
	}
	if !reg.IsLoaded("cat-1") {
		t.Error("expected cat-1 to be loaded")
	}
}

func TestWarmupRespectsCapacity(t *testing.T) {
	reg := newTestRegistry(2)
	ctx := context.Background()
	if _, err := reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("A")}}); err != nil {
		t.Fatalf("Warmup(a) error = %v", err)
	}
	if _, err := reg.Warmup(ctx, "b", []Source{{Name: "s", Content: []byte("B")}}); err != nil {
		t.Fatalf("Warmup(b) error = %v", err)
	}
	_, err := reg.Warmup(ctx, "c", []Source{{Name: "s", Content: []byte("C")}})
	if err == nil {
		t.Fatal("expected ErrCapacityExceeded warming a third catalog at capacity 2")
	}
	if _, ok := err.(*ErrCapacityExceeded); !ok {
		t.Errorf("error type = %T, want *ErrCapacityExceeded", err)
	}
}

func TestRewarmingExistingIDNeverCountsAsGrowth(t *testing.T) {
	reg := newTestRegistry(1)
	ctx := context.Background()
	if _, err := reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("A")}}); err != nil {
		t.Fatalf("Warmup(a) error = %v", err)
	}
	if _, err := reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("A2")}}); err != nil {
		t.Errorf("re-warming loaded catalog a should not exceed capacity: %v", err)
	}
}

func TestSearchTextAgainstNotWarmedCatalog(t *testing.T) {
	reg := newTestRegistry(3)
	_, err := reg.SearchText(context.Background(), "missing", "widget", TopK, SimilarityThreshold)
	if _, ok := err.(*ErrNotWarmed); !ok {
		t.Errorf("error type = %T, want *ErrNotWarmed", err)
	}
}

func TestSearchTextRejectsEmptyQuery(t *testing.T) {
	reg := newTestRegistry(3)
	reg.Warmup(context.Background(), "a", []Source{{Name: "s", Content: []byte("Widget")}})
	_, err := reg.SearchText(context.Background(), "a", "   ", TopK, SimilarityThreshold)
	if _, ok := err.(*ErrBadInput); !ok {
		t.Errorf("error type = %T, want *ErrBadInput", err)
	}
}

func TestSearchTextReturnsFirstWindowOnly(t *testing.T) {
	reg := newTestRegistry(3)
	ctx := context.Background()
	reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("Widget")}})

	longQuery := ""
	for i := 0; i < 200; i++ {
		longQuery += "word "
	}
	result, err := reg.SearchText(ctx, "a", longQuery, TopK, SimilarityThreshold)
	if err != nil {
		t.Fatalf("SearchText() error = %v", err)
	}
	if result.QueryItemID != "txt:0" {
		t.Errorf("QueryItemID = %q, want first window id txt:0", result.QueryItemID)
	}
}

func TestSearchDocumentReturnsOneResultPerItem(t *testing.T) {
	reg := newTestRegistry(3)
	ctx := context.Background()
	reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("Widget")}})

	queryDoc := ParsedDocument{Records: []Record{{Name: "first"}, {Name: "second"}}}
	results, err := reg.SearchDocument(ctx, "a", queryDoc, TopK, SimilarityThreshold)
	if err != nil {
		t.Fatalf("SearchDocument() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestWarmupFailsOnMissingSourcePath(t *testing.T) {
	reg := newTestRegistry(3)
	_, err := reg.Warmup(context.Background(), "a", []Source{{Name: "s", Path: "/no/such/file-xyz.csv"}})
	if _, ok := err.(*ErrNotFound); !ok {
		t.Errorf("error type = %T, want *ErrNotFound", err)
	}
}

func TestWarmupLimitItemsTruncates(t *testing.T) {
	reg := newTestRegistry(3)
	ctx := context.Background()
	n, err := reg.Warmup(ctx, "a", []Source{
		{Name: "s1", Content: []byte("A")},
		{Name: "s2", Content: []byte("B")},
		{Name: "s3", Content: []byte("C")},
	}, 2)
	if err != nil {
		t.Fatalf("Warmup() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Warmup() with limitItems=2 returned %d items, want 2", n)
	}
}

func TestSearchDocumentRejectsEmptyDocument(t *testing.T) {
	reg := newTestRegistry(3)
	ctx := context.Background()
	reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("Widget")}})
	_, err := reg.SearchDocument(ctx, "a", ParsedDocument{}, TopK, SimilarityThreshold)
	if _, ok := err.(*ErrBadInput); !ok {
		t.Errorf("error type = %T, want *ErrBadInput", err)
	}
}

// captureMetrics records Metrics calls for assertions.
type captureMetrics struct {
	warmups      []string
	warmupErrs   int
	searches     []SearchRecord
	loadedDeltas []int
}

func (c *captureMetrics) RecordWarmup(_ context.Context, catalogID string, _, _ int, _ time.Duration, err error) {
	c.warmups = append(c.warmups, catalogID)
	if err != nil {
		c.warmupErrs++
	}
}

func (c *captureMetrics) RecordSearch(_ context.Context, _ string, rec SearchRecord) {
	c.searches = append(c.searches, rec)
}

func (c *captureMetrics) RecordCatalogsLoaded(_ context.Context, delta int) {
	c.loadedDeltas = append(c.loadedDeltas, delta)
}

func TestWarmupRecordsMetrics(t *testing.T) {
	m := &captureMetrics{}
	reg := NewRegistry(lineParser{}, func() Index { return &recordingIndex{} },
		WithCapacity(2), WithRegistryMetrics(m))
	ctx := context.Background()

	if _, err := reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("A")}}); err != nil {
		t.Fatalf("Warmup(a) error = %v", err)
	}
	if _, err := reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("A2")}}); err != nil {
		t.Fatalf("re-Warmup(a) error = %v", err)
	}

	if len(m.warmups) != 2 {
		t.Errorf("recorded %d warmups, want 2", len(m.warmups))
	}
	// Only the first warmup grew the loaded set.
	if len(m.loadedDeltas) != 1 || m.loadedDeltas[0] != 1 {
		t.Errorf("loaded deltas = %v, want [1]", m.loadedDeltas)
	}
}

func TestWarmupRecordsFailureMetric(t *testing.T) {
	m := &captureMetrics{}
	reg := NewRegistry(lineParser{}, func() Index { return &recordingIndex{} },
		WithCapacity(1), WithRegistryMetrics(m))
	ctx := context.Background()

	reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("A")}})
	if _, err := reg.Warmup(ctx, "b", []Source{{Name: "s", Content: []byte("B")}}); err == nil {
		t.Fatal("expected capacity error")
	}

	if m.warmupErrs != 1 {
		t.Errorf("recorded %d failed warmups, want 1", m.warmupErrs)
	}
	if len(m.loadedDeltas) != 1 {
		t.Errorf("loaded deltas = %v, want only the successful warmup", m.loadedDeltas)
	}
}

func TestSearchTextRecordsMetrics(t *testing.T) {
	m := &captureMetrics{}
	reg := NewRegistry(lineParser{}, func() Index { return &recordingIndex{} },
		WithRegistryMetrics(m))
	ctx := context.Background()
	reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("Widget")}})

	if _, err := reg.SearchText(ctx, "a", "widget", TopK, SimilarityThreshold); err != nil {
		t.Fatalf("SearchText() error = %v", err)
	}

	if len(m.searches) != 1 {
		t.Fatalf("recorded %d searches, want 1", len(m.searches))
	}
	rec := m.searches[0]
	if rec.Op != "search_text" {
		t.Errorf("Op = %q, want search_text", rec.Op)
	}
	if rec.BestMatchID == "" {
		t.Error("expected a best match id in the search record")
	}
	// recordingIndex scores 1.0, above threshold, so no fuzzy fallback.
	if rec.FuzzyUsed {
		t.Error("FuzzyUsed = true, want false for an above-threshold match")
	}
}

func TestSearchDocumentRecordsMetrics(t *testing.T) {
	m := &captureMetrics{}
	reg := NewRegistry(lineParser{}, func() Index { return &recordingIndex{} },
		WithRegistryMetrics(m))
	ctx := context.Background()
	reg.Warmup(ctx, "a", []Source{{Name: "s", Content: []byte("Widget")}})

	queryDoc := ParsedDocument{Records: []Record{{Name: "first"}, {Name: "second"}}}
	if _, err := reg.SearchDocument(ctx, "a", queryDoc, TopK, SimilarityThreshold); err != nil {
		t.Fatalf("SearchDocument() error = %v", err)
	}

	if len(m.searches) != 1 || m.searches[0].Op != "search_document" {
		t.Fatalf("searches = %+v, want one search_document record", m.searches)
	}
}
