package catalogmatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/nevindra/catalogmatch/fuzzy"
	"github.com/nevindra/catalogmatch/text"
)

// priceFromMeta parses a Match's price field, stripping thousands spaces
// and normalizing a comma decimal separator to a period. It returns ok=false
// when the field is absent or unparseable rather than erroring, since a bad
// price should fall back to score-based ranking, not fail the search.
func priceFromMeta(meta map[string]string) (float64, bool) {
	raw, ok := meta["price"]
	if !ok || raw == "" {
		return 0, false
	}
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Search resolves every item in query against reference using idx,
// returning one SearchResult per query item in the same order.
//
// For each query item: idx.Search supplies up to topK candidates. Candidates
// at or above threshold pass the gate; among passed candidates the cheapest
// priced one wins, falling back to the highest-scoring passed candidate when
// none carries a parseable price. When nothing passes, a two-stage fuzzy
// fallback runs over ALL candidates (not just the ones that passed): stage A
// matches SKU-shaped query tokens against each candidate's sku field with
// the Ratcliff/Obershelp ratio, and stage B (only tried when stage A finds
// nothing) matches the full query text against each candidate's name field.
// A fuzzy-accepted candidate reports its original cosine score, not the
// fuzzy ratio.
func Search(ctx context.Context, query, reference ItemCollection, idx Index, topK int, threshold float64) ([]SearchResult, error) {
	if err := idx.Fit(reference); err != nil {
		return nil, err
	}
	allMatches, err := idx.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(query.Items))
	for i, qIt := range query.Items {
		var matches []Match
		if i < len(allMatches) {
			matches = allMatches[i]
		}
		results = append(results, resolveOne(qIt, matches, threshold))
	}
	return results, nil
}

func resolveOne(qIt Item, matches []Match, threshold float64) SearchResult {
	var passed []Match
	for _, m := range matches {
		if m.Score >= threshold {
			passed = append(passed, m)
		}
	}

	bestID := ""
	bestScore := 0.0

	if len(passed) > 0 {
		var cheapest *Match
		var cheapestPrice float64
		for i := range passed {
			price, ok := priceFromMeta(passed[i].Meta)
			if !ok {
				continue
			}
			if cheapest == nil || price < cheapestPrice {
				cheapest = &passed[i]
				cheapestPrice = price
			}
		}
		if cheapest == nil {
			top := passed[0]
			for _, m := range passed[1:] {
				if m.Score > top.Score {
					top = m
				}
			}
			bestID, bestScore = top.ItemID, top.Score
		} else {
			bestID, bestScore = cheapest.ItemID, cheapest.Score
		}
	}

	if bestID == "" {
		bestID, bestScore = fuzzyFallback(qIt, matches)
	}

	return SearchResult{
		QueryItemID:   qIt.ItemID,
		BestMatchID:   bestID,
		BestMatchName: nameForMatch(matches, bestID),
		BestScore:     bestScore,
		TopK:          matches,
	}
}

// nameForMatch looks up the name meta field of the candidate carrying
// itemID, so callers (and the §6 engine API's best_match_name) don't need
// a second lookup against the catalog to label the chosen match.
func nameForMatch(matches []Match, itemID string) string {
	if itemID == "" {
		return ""
	}
	for _, m := range matches {
		if m.ItemID == itemID {
			return m.Meta["name"]
		}
	}
	return ""
}

func fuzzyFallback(qIt Item, matches []Match) (string, float64) {
	qText := qIt.TextRepr
	if qText == "" {
		qText = qIt.Name
	}

	var qSKUTokens []string
	for _, tok := range qIt.Tokens {
		if text.HasDigitAndAlpha(tok) {
			qSKUTokens = append(qSKUTokens, tok)
		}
	}

	if len(qSKUTokens) > 0 {
		var candidate *Match
		bestRatio := 0.0
		for i := range matches {
			sku := matches[i].Meta["sku"]
			if sku == "" {
				continue
			}
			for _, qt := range qSKUTokens {
				r := fuzzy.Ratio(strings.ToLower(qt), strings.ToLower(sku))
				if r > bestRatio {
					bestRatio = r
					candidate = &matches[i]
				}
			}
		}
		if candidate != nil && bestRatio >= FuzzySKUThreshold {
			return candidate.ItemID, candidate.Score
		}
	}

	if qText == "" {
		return "", 0
	}

	var candidate *Match
	bestRatio := 0.0
	qLower := clip(strings.ToLower(qText), 256)
	for i := range matches {
		name := matches[i].Meta["name"]
		if name == "" {
			continue
		}
		r := fuzzy.Ratio(qLower, clip(strings.ToLower(name), 256))
		if r > bestRatio {
			bestRatio = r
			candidate = &matches[i]
		}
	}
	if candidate != nil && bestRatio >= FuzzyNameThreshold {
		return candidate.ItemID, candidate.Score
	}
	return "", 0
}

// clip truncates s to at most n runes, matching the original's
// character-based slicing so a multi-byte Cyrillic boundary is never split
// mid-rune.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
