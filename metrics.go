package catalogmatch

import (
	"context"
	"time"
)

// Metrics receives operational measurements from the registry's warmup and
// search paths. The observability package provides an OTEL-backed
// implementation via NewMetrics(); when no Metrics is configured, recording
// is skipped (nil check), same as Tracer.
type Metrics interface {
	// RecordWarmup is called once per Warmup attempt: the source count, the
	// number of items indexed (0 on failure), elapsed wall time, and the
	// error if the warmup failed.
	RecordWarmup(ctx context.Context, catalogID string, sources, items int, elapsed time.Duration, err error)
	// RecordSearch is called once per SearchText/SearchDocument call that
	// reaches the orchestrator. Calls rejected before searching (empty query
	// text, unknown catalog id, a document with no searchable items) are not
	// recorded.
	RecordSearch(ctx context.Context, catalogID string, rec SearchRecord)
	// RecordCatalogsLoaded is called with the change in the number of
	// distinct warmed catalogs (+1 when a warmup adds a new id; re-warms
	// are not growth).
	RecordCatalogsLoaded(ctx context.Context, delta int)
}

// SearchRecord carries the outcome of one search operation to Metrics.
// QueryItemID, BestMatchID, and BestScore are set for single-result
// operations (search_text); document searches report only the aggregate
// fields.
type SearchRecord struct {
	Op          string
	TopK        int
	Threshold   float64
	QueryItemID string
	BestMatchID string
	BestScore   float64
	FuzzyUsed   bool
	Elapsed     time.Duration
	Err         error
}
