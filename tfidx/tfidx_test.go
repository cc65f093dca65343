package tfidx

import (
	"context"
	"testing"

	"github.com/nevindra/catalogmatch"
	"github.com/nevindra/catalogmatch/feature"
)

func buildCorpus() catalogmatch.ItemCollection {
	doc := catalogmatch.ParsedDocument{
		Records: []catalogmatch.Record{
			{Name: "Wireless Mouse Logitech", SKU: "WM-100", Brand: "Logitech", Price: "19.99"},
			{Name: "Wired Keyboard Logitech", SKU: "WK-200", Brand: "Logitech", Price: "29.99"},
			{Name: "USB Cable Anker", SKU: "UC-300", Brand: "Anker", Price: "9.99"},
			{Name: "Bluetooth Speaker Anker", SKU: "BS-400", Brand: "Anker", Price: "49.99"},
		},
	}
	return feature.Extract(doc)
}

func TestFitAndSearchReturnsRelevantMatch(t *testing.T) {
	idx := New()
	corpus := buildCorpus()
	if err := idx.Fit(corpus); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	queryDoc := catalogmatch.ParsedDocument{Records: []catalogmatch.Record{{Name: "Logitech Wireless Mouse"}}}
	query := feature.Extract(queryDoc)

	results, err := idx.Search(context.Background(), query, catalogmatch.TopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result slice, got %d", len(results))
	}
	if len(results[0]) == 0 {
		t.Fatalf("expected at least one match")
	}
	if results[0][0].ItemID != "raw:0" {
		t.Errorf("top match = %s, want raw:0 (Wireless Mouse Logitech)", results[0][0].ItemID)
	}
}

func TestSearchResultsAreSortedDescending(t *testing.T) {
	idx := New()
	if err := idx.Fit(buildCorpus()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	queryDoc := catalogmatch.ParsedDocument{Records: []catalogmatch.Record{{Name: "Anker Bluetooth Speaker"}}}
	results, err := idx.Search(context.Background(), feature.Extract(queryDoc), catalogmatch.TopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	matches := results[0]
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted descending at index %d: %v", i, matches)
		}
	}
}

func TestSearchRespectsTopK(t *testing.T) {
	idx := New()
	if err := idx.Fit(buildCorpus()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	queryDoc := catalogmatch.ParsedDocument{Records: []catalogmatch.Record{{Name: "Logitech"}}}
	results, err := idx.Search(context.Background(), feature.Extract(queryDoc), 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results[0]) > 1 {
		t.Errorf("expected at most 1 match, got %d", len(results[0]))
	}
}

func TestEmptyQueryTokensYieldNoMatches(t *testing.T) {
	idx := New()
	if err := idx.Fit(buildCorpus()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	queryDoc := catalogmatch.ParsedDocument{Records: []catalogmatch.Record{{Name: "!!! ??? ..."}}}
	results, err := idx.Search(context.Background(), feature.Extract(queryDoc), catalogmatch.TopK)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results[0]) != 0 {
		t.Errorf("expected no matches for punctuation-only query, got %d", len(results[0]))
	}
}

// Two documents carry the same vocab tokens; only one names the query
// token, so its name boost must rank it strictly higher.
func TestNameBoostRanksNamedItemHigher(t *testing.T) {
	corpus := catalogmatch.ItemCollection{Items: []catalogmatch.Item{
		{ItemID: "named", Name: "widget", Tokens: []string{"widget", "gadget"}, Attrs: map[string]string{}},
		{ItemID: "unnamed", Name: "", Tokens: []string{"widget", "gadget"}, Attrs: map[string]string{}},
		{ItemID: "filler-1", Tokens: []string{"alpha"}, Attrs: map[string]string{}},
		{ItemID: "filler-2", Tokens: []string{"beta"}, Attrs: map[string]string{}},
	}}
	idx := New()
	if err := idx.Fit(corpus); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	query := catalogmatch.ItemCollection{Items: []catalogmatch.Item{
		{ItemID: "q", Tokens: []string{"widget"}},
	}}
	results, err := idx.Search(context.Background(), query, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	matches := results[0]
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ItemID != "named" {
		t.Errorf("top match = %s, want the item naming the query token", matches[0].ItemID)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("named item score %v not strictly above unnamed %v", matches[0].Score, matches[1].Score)
	}
}

// A digit+letter query token gets the SKU anchor boost; plain-word tokens
// in the same query do not.
func TestQueryVectorAppliesSKUAnchorBoost(t *testing.T) {
	corpus := catalogmatch.ItemCollection{Items: []catalogmatch.Item{
		{ItemID: "a", Tokens: []string{"pen", "xk123"}, Attrs: map[string]string{}},
		{ItemID: "b", Tokens: []string{"box", "xk123"}, Attrs: map[string]string{}},
		{ItemID: "c", Tokens: []string{"pen", "box"}, Attrs: map[string]string{}},
		{ItemID: "d", Tokens: []string{"gamma"}, Attrs: map[string]string{}},
		{ItemID: "e", Tokens: []string{"delta"}, Attrs: map[string]string{}},
	}}
	idx := New()
	if err := idx.Fit(corpus); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	weights, _ := idx.queryVector([]string{"pen", "xk123"})
	penW := weights[idx.vocab["pen"]]
	skuW := weights[idx.vocab["xk123"]]

	penIDF := idx.idf[idx.vocab["pen"]]
	skuIDF := idx.idf[idx.vocab["xk123"]]
	if got, want := penW, penIDF; got != want {
		t.Errorf("pen weight = %v, want unboosted idf %v", got, want)
	}
	if got, want := skuW, catalogmatch.SKUAnchorBoost*skuIDF; got != want {
		t.Errorf("xk123 weight = %v, want anchor-boosted %v", got, want)
	}
}

// Doubling every document's term frequencies scales weights and norms by
// the same factor, leaving cosine similarities unchanged.
func TestCosineIsInvariantUnderTFScaling(t *testing.T) {
	single := catalogmatch.ItemCollection{Items: []catalogmatch.Item{
		{ItemID: "d0", Tokens: []string{"x", "y"}, Attrs: map[string]string{}},
		{ItemID: "d1", Tokens: []string{"x", "z"}, Attrs: map[string]string{}},
		{ItemID: "d2", Tokens: []string{"y", "z"}, Attrs: map[string]string{}},
	}}
	doubled := catalogmatch.ItemCollection{Items: []catalogmatch.Item{
		{ItemID: "d0", Tokens: []string{"x", "x", "y", "y"}, Attrs: map[string]string{}},
		{ItemID: "d1", Tokens: []string{"x", "x", "z", "z"}, Attrs: map[string]string{}},
		{ItemID: "d2", Tokens: []string{"y", "y", "z", "z"}, Attrs: map[string]string{}},
	}}
	query := catalogmatch.ItemCollection{Items: []catalogmatch.Item{
		{ItemID: "q", Tokens: []string{"x", "y"}},
	}}

	search := func(corpus catalogmatch.ItemCollection) []catalogmatch.Match {
		idx := New()
		if err := idx.Fit(corpus); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		results, err := idx.Search(context.Background(), query, 10)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		return results[0]
	}

	base := search(single)
	scaled := search(doubled)
	if len(base) != len(scaled) {
		t.Fatalf("match counts differ: %d vs %d", len(base), len(scaled))
	}
	for i := range base {
		if base[i].ItemID != scaled[i].ItemID {
			t.Errorf("order differs at %d: %s vs %s", i, base[i].ItemID, scaled[i].ItemID)
		}
		if diff := base[i].Score - scaled[i].Score; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("score differs at %d: %v vs %v", i, base[i].Score, scaled[i].Score)
		}
	}
}
