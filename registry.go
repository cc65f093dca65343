package catalogmatch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nevindra/catalogmatch/feature"
)

// Source is one raw input handed to Warmup: a named byte blob a Parser can
// turn into a ParsedDocument. Name typically carries the file extension the
// parser dispatches on. Callers that already have bytes in hand (an
// upload, a fixture) set Content directly; callers naming a file on disk
// leave Content nil and set Path, and Warmup reads it, surfacing
// ErrNotFound when the path does not exist.
type Source struct {
	Name    string
	Content []byte
	Path    string
}

// IndexFactory builds a fresh, unfit Index. The registry calls it once per
// Warmup so each catalog gets its own index instance.
type IndexFactory func() Index

type catalogEntry struct {
	corpus ItemCollection
	index  Index
}

// Registry keeps a bounded number of warmed (parsed, extracted, fitted)
// catalogs in memory, keyed by caller-assigned catalog id. Warming a new
// catalog once MaxLoadedCatalogs are already loaded fails with
// ErrCapacityExceeded; re-warming an id already present never counts as
// growth, so it always succeeds and simply replaces that entry's state.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[string]*catalogEntry

	capacity int
	parser   Parser
	newIndex IndexFactory
	tracer   Tracer
	metrics  Metrics
	logger   *slog.Logger
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithCapacity overrides MaxLoadedCatalogs as the registry's warm-catalog
// bound.
func WithCapacity(n int) RegistryOption {
	return func(r *Registry) { r.capacity = n }
}

// WithRegistryTracer attaches a Tracer; warmup and search operations emit
// spans when one is configured.
func WithRegistryTracer(t Tracer) RegistryOption {
	return func(r *Registry) { r.tracer = t }
}

// WithRegistryMetrics attaches a Metrics sink; warmup and search
// operations record counters and durations against it when one is
// configured.
func WithRegistryMetrics(m Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithRegistryLogger attaches a structured logger. Defaults to
// slog.Default().
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry constructs a Registry that parses incoming Sources with
// parser, builds a fresh Index per catalog via newIndex (the tfidx package
// provides the default cosine-TF-IDF implementation; callers pass it
// explicitly to keep this package independent of any one Index backend),
// and caps warmed catalogs at MaxLoadedCatalogs unless overridden.
func NewRegistry(parser Parser, newIndex IndexFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		catalogs: make(map[string]*catalogEntry),
		capacity: MaxLoadedCatalogs,
		parser:   parser,
		newIndex: newIndex,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsLoaded reports whether catalogID is currently warmed.
func (r *Registry) IsLoaded(catalogID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.catalogs[catalogID]
	return ok
}

// LoadedIDs returns the catalog ids currently warmed, in no particular
// order.
func (r *Registry) LoadedIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.catalogs))
	for id := range r.catalogs {
		ids = append(ids, id)
	}
	return ids
}

// Warmup parses every source, extracts items from each, merges them into a
// single reference collection (in source order, duplicates preserved), and
// fits a fresh index over it. It returns the number of items the warmed
// catalog holds.
//
// A Source naming a Path instead of carrying Content is read from disk when
// its turn comes in source order; a missing file fails the whole call with
// ErrNotFound and nothing is stored. A source the Parser rejects fails the
// call with ErrBadInput. limitItems, when passed and positive, truncates the merged item
// collection before fitting — pass nothing, or 0, for no limit.
//
// Warming an id that is not yet loaded while the registry already holds
// Capacity catalogs fails with ErrCapacityExceeded. Re-warming an id that is
// already loaded always succeeds and replaces its prior state, since doing
// so never grows the number of distinct loaded catalogs.
func (r *Registry) Warmup(ctx context.Context, catalogID string, sources []Source, limitItems ...int) (int, error) {
	var span Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "registry.warmup", StringAttr("catalog_id", catalogID), IntAttr("sources", len(sources)))
		defer span.End()
	}
	start := time.Now()

	count, added, err := r.warmup(ctx, catalogID, sources, limitItems...)

	if err != nil {
		if span != nil {
			span.Error(err)
		}
	} else {
		r.logger.Info("catalog warmed", "catalog_id", catalogID, "items", count)
		if span != nil {
			span.SetAttr(IntAttr("items", count))
		}
	}
	if r.metrics != nil {
		r.metrics.RecordWarmup(ctx, catalogID, len(sources), count, time.Since(start), err)
		if added {
			r.metrics.RecordCatalogsLoaded(ctx, 1)
		}
	}
	return count, err
}

// warmup does the parse/extract/fit work; added reports whether the stored
// entry grew the set of distinct loaded catalog ids.
func (r *Registry) warmup(ctx context.Context, catalogID string, sources []Source, limitItems ...int) (int, bool, error) {
	r.mu.Lock()
	_, exists := r.catalogs[catalogID]
	if !exists && len(r.catalogs) >= r.capacity {
		r.mu.Unlock()
		return 0, false, &ErrCapacityExceeded{CatalogID: catalogID, Capacity: r.capacity}
	}
	r.mu.Unlock()

	var items []Item
	for _, src := range sources {
		content := src.Content
		if content == nil && src.Path != "" {
			data, err := os.ReadFile(src.Path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return 0, false, &ErrNotFound{CatalogID: catalogID}
				}
				return 0, false, err
			}
			content = data
		}
		doc, err := r.parser.Parse(ctx, src.Name, content)
		if err != nil {
			return 0, false, &ErrBadInput{Reason: err.Error()}
		}
		coll := feature.Extract(doc)
		items = append(items, coll.Items...)
	}

	if len(limitItems) > 0 && limitItems[0] > 0 && limitItems[0] < len(items) {
		items = items[:limitItems[0]]
	}

	corpus := ItemCollection{Items: items}
	idx := r.newIndex()
	if err := idx.Fit(corpus); err != nil {
		return 0, false, err
	}

	r.mu.Lock()
	_, exists = r.catalogs[catalogID]
	if !exists && len(r.catalogs) >= r.capacity {
		r.mu.Unlock()
		return 0, false, &ErrCapacityExceeded{CatalogID: catalogID, Capacity: r.capacity}
	}
	r.catalogs[catalogID] = &catalogEntry{corpus: corpus, index: idx}
	r.mu.Unlock()

	return len(items), !exists, nil
}

func (r *Registry) lookup(catalogID string) (*catalogEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.catalogs[catalogID]
	return e, ok
}

// SearchText resolves a single free-form query string against a warmed
// catalog. The query text is windowed like any other page of free-form
// text, and — matching the single-result contract callers rely on — only
// the first window's SearchResult is returned, even when the query is long
// enough to produce more than one window.
func (r *Registry) SearchText(ctx context.Context, catalogID, queryText string, topK int, threshold float64) (SearchResult, error) {
	if strings.TrimSpace(queryText) == "" {
		return SearchResult{}, &ErrBadInput{Reason: "empty query text"}
	}
	entry, ok := r.lookup(catalogID)
	if !ok {
		return SearchResult{}, &ErrNotWarmed{CatalogID: catalogID}
	}
	topK, threshold = withDefaults(topK, threshold)

	var span Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "registry.search_text", StringAttr("catalog_id", catalogID))
		defer span.End()
	}
	start := time.Now()

	query := feature.Extract(ParsedDocument{SourcePath: NewID(), PagesText: []string{queryText}})
	results, err := Search(ctx, query, entry.corpus, entry.index, topK, threshold)
	if err != nil {
		if span != nil {
			span.Error(err)
		}
		if r.metrics != nil {
			r.metrics.RecordSearch(ctx, catalogID, SearchRecord{Op: "search_text", TopK: topK, Threshold: threshold, Elapsed: time.Since(start), Err: err})
		}
		return SearchResult{}, err
	}

	var res SearchResult
	if len(results) > 0 {
		res = results[0]
	}
	fuzzy := fuzzyResolved(res, threshold)
	if span != nil {
		span.SetAttr(StringAttr("best_match_id", res.BestMatchID), Float64Attr("best_score", res.BestScore), BoolAttr("fuzzy_applied", fuzzy))
	}
	r.logger.Info("search completed", "catalog_id", catalogID, "op", "search_text", "best_match_id", res.BestMatchID, "best_score", res.BestScore)
	if r.metrics != nil {
		r.metrics.RecordSearch(ctx, catalogID, SearchRecord{
			Op:          "search_text",
			TopK:        topK,
			Threshold:   threshold,
			QueryItemID: res.QueryItemID,
			BestMatchID: res.BestMatchID,
			BestScore:   res.BestScore,
			FuzzyUsed:   fuzzy,
			Elapsed:     time.Since(start),
		})
	}
	return res, nil
}

// fuzzyResolved reports whether a result's best match came out of the
// fuzzy fallback: any match chosen from the passed set carries a score at
// or above the threshold, so a best below it can only be fuzzy-accepted.
func fuzzyResolved(res SearchResult, threshold float64) bool {
	return res.BestMatchID != "" && res.BestScore < threshold
}

// SearchDocument resolves every item extracted from doc against a warmed
// catalog, returning one SearchResult per extracted item in extraction
// order. Use this over SearchText when the query itself is a parsed
// document (a delivery note, an order sheet) rather than a single line of
// free text.
func (r *Registry) SearchDocument(ctx context.Context, catalogID string, doc ParsedDocument, topK int, threshold float64) ([]SearchResult, error) {
	entry, ok := r.lookup(catalogID)
	if !ok {
		return nil, &ErrNotWarmed{CatalogID: catalogID}
	}
	topK, threshold = withDefaults(topK, threshold)

	var span Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "registry.search_document", StringAttr("catalog_id", catalogID))
		defer span.End()
	}
	start := time.Now()

	if doc.SourcePath == "" {
		doc.SourcePath = NewID()
	}
	query := feature.Extract(doc)
	if len(query.Items) == 0 {
		return nil, &ErrBadInput{Reason: "document produced no searchable items"}
	}
	results, err := Search(ctx, query, entry.corpus, entry.index, topK, threshold)
	fuzzy := false
	for _, res := range results {
		if fuzzyResolved(res, threshold) {
			fuzzy = true
			break
		}
	}
	if err != nil {
		if span != nil {
			span.Error(err)
		}
	} else {
		if span != nil {
			span.SetAttr(IntAttr("results", len(results)), BoolAttr("fuzzy_applied", fuzzy))
		}
		r.logger.Info("search completed", "catalog_id", catalogID, "op", "search_document", "results", len(results))
	}
	if r.metrics != nil {
		r.metrics.RecordSearch(ctx, catalogID, SearchRecord{
			Op:        "search_document",
			TopK:      topK,
			Threshold: threshold,
			FuzzyUsed: fuzzy,
			Elapsed:   time.Since(start),
			Err:       err,
		})
	}
	return results, err
}

func withDefaults(topK int, threshold float64) (int, float64) {
	if topK <= 0 {
		topK = TopK
	}
	if threshold <= 0 {
		threshold = SimilarityThreshold
	}
	return topK, threshold
}
