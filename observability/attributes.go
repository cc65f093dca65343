package observability

import "go.opentelemetry.io/otel/attribute"

// Span and log attribute keys for catalogmatch's warmup and search paths.
var (
	AttrCatalogID    = attribute.Key("catalogmatch.catalog_id")
	AttrSourceCount  = attribute.Key("catalogmatch.source_count")
	AttrItemCount    = attribute.Key("catalogmatch.item_count")
	AttrQueryItemID  = attribute.Key("catalogmatch.query_item_id")
	AttrBestMatchID  = attribute.Key("catalogmatch.best_match_id")
	AttrBestScore    = attribute.Key("catalogmatch.best_score")
	AttrTopK         = attribute.Key("catalogmatch.top_k")
	AttrThreshold    = attribute.Key("catalogmatch.threshold")
	AttrFuzzyApplied = attribute.Key("catalogmatch.fuzzy_applied")
)
