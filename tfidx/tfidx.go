// Package tfidx implements a sparse TF-IDF cosine-similarity index with
// inverted postings lists. It is the default catalogmatch.Index
// implementation: no external search service, no dense embeddings, scales
// to large catalogs by walking postings per query token instead of scanning
// every document.
package tfidx

import (
	"context"
	"maps"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/nevindra/catalogmatch"
	"github.com/nevindra/catalogmatch/text"
)

type posting struct {
	docIdx int
	weight float64
}

// Index is a fitted, read-only TF-IDF cosine index over one reference
// catalog. The zero value is unfit; call Fit before Search. A single Index
// is safe for concurrent Search calls once fitted; Fit itself takes the
// write lock and replaces the entire fitted state.
type Index struct {
	mu sync.RWMutex

	vocab    map[string]int
	idf      []float64
	postings map[int][]posting
	docNorms []float64
	docMeta  []map[string]string
	docIDs   []string
}

// New returns an unfit Index.
func New() *Index {
	return &Index{}
}

var _ catalogmatch.Index = (*Index)(nil)

// Fit builds the vocabulary, IDF weights, and per-document postings from
// corpus. It replaces any previously fitted state.
func (idx *Index) Fit(corpus catalogmatch.ItemCollection) error {
	numDocs := len(corpus.Items)

	docIDs := make([]string, numDocs)
	for i, it := range corpus.Items {
		docIDs[i] = it.ItemID
	}

	df := map[string]int{}
	for _, it := range corpus.Items {
		seen := map[string]struct{}{}
		for _, tok := range it.Tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	maxDF := int(catalogmatch.MaxDFRatio * float64(numDocs))
	if maxDF < 1 {
		maxDF = 1
	}

	// Vocabulary ids follow first-encounter order across the corpus so a
	// refit over the same items reproduces the identical id assignment.
	vocab := map[string]int{}
	for _, it := range corpus.Items {
		for _, tok := range it.Tokens {
			if _, ok := vocab[tok]; ok {
				continue
			}
			if d := df[tok]; d >= catalogmatch.MinDF && d <= maxDF {
				vocab[tok] = len(vocab)
			}
		}
	}

	idf := make([]float64, len(vocab))
	for tok, tid := range vocab {
		d := df[tok]
		idf[tid] = math.Log((1.0+float64(numDocs))/(1.0+float64(d))) + 1.0
	}

	postings := map[int][]posting{}
	docNorms := make([]float64, numDocs)
	docMeta := make([]map[string]string, numDocs)

	for docIdx, it := range corpus.Items {
		tf := map[string]int{}
		for _, tok := range it.Tokens {
			tf[tok]++
		}

		nameHint := strings.ToLower(it.Name)
		skuHint := strings.ToLower(it.Attrs["sku"])
		brandHint := strings.ToLower(it.Attrs["brand"])

		weights := map[int]float64{}
		for tok, cnt := range tf {
			tid, ok := vocab[tok]
			if !ok {
				continue
			}
			boost := 1.0
			if skuHint != "" && strings.Contains(skuHint, tok) {
				boost *= catalogmatch.SKUFieldBoost
			}
			if brandHint != "" && strings.Contains(brandHint, tok) {
				boost *= catalogmatch.BrandBoost
			}
			if nameHint != "" && strings.Contains(nameHint, tok) {
				boost *= catalogmatch.NameBoost
			}
			weights[tid] = float64(cnt) * idf[tid] * boost
		}

		var sumSq float64
		for _, w := range weights {
			sumSq += w * w
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 {
			norm = 1.0
		}
		docNorms[docIdx] = norm

		for tid, w := range weights {
			postings[tid] = append(postings[tid], posting{docIdx: docIdx, weight: w})
		}

		meta := map[string]string{}
		for _, k := range []string{"price", "sku", "marketplace", "id"} {
			if v, ok := it.Attrs[k]; ok {
				meta[k] = v
			}
		}
		meta["name"] = it.Name
		docMeta[docIdx] = meta
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vocab = vocab
	idx.idf = idf
	idx.postings = postings
	idx.docNorms = docNorms
	idx.docMeta = docMeta
	idx.docIDs = docIDs
	return nil
}

func (idx *Index) queryVector(tokens []string) (map[int]float64, float64) {
	tf := map[string]int{}
	for _, tok := range tokens {
		tf[tok]++
	}

	hasSKUAnchor := false
	for _, tok := range tokens {
		if text.HasDigitAndAlpha(tok) {
			hasSKUAnchor = true
			break
		}
	}

	weights := map[int]float64{}
	for tok, cnt := range tf {
		tid, ok := idx.vocab[tok]
		if !ok {
			continue
		}
		clipped := cnt
		if clipped > catalogmatch.QueryTFClip {
			clipped = catalogmatch.QueryTFClip
		}
		boost := 1.0
		if hasSKUAnchor && text.HasDigitAndAlpha(tok) {
			boost = catalogmatch.SKUAnchorBoost
		}
		weights[tid] = float64(clipped) * idx.idf[tid] * boost
	}

	var sumSq float64
	for _, w := range weights {
		sumSq += w * w
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		norm = 1.0
	}
	return weights, norm
}

// Search scores every item in query against the fitted corpus and returns,
// per query item in order, up to topK candidate Matches sorted by
// descending cosine score.
func (idx *Index) Search(ctx context.Context, query catalogmatch.ItemCollection, topK int) ([][]catalogmatch.Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([][]catalogmatch.Match, 0, len(query.Items))
	for _, it := range query.Items {
		qWeights, qNorm := idx.queryVector(it.Tokens)
		if len(qWeights) == 0 {
			results = append(results, nil)
			continue
		}

		scores := map[int]float64{}
		for tid, qw := range qWeights {
			for _, p := range idx.postings[tid] {
				scores[p.docIdx] += qw * p.weight
			}
		}

		type scored struct {
			docIdx int
			sim    float64
		}
		var matches []scored
		for docIdx, dot := range scores {
			denom := idx.docNorms[docIdx] * qNorm
			if denom <= 0 {
				continue
			}
			sim := dot / denom
			if sim > 0 {
				matches = append(matches, scored{docIdx, sim})
			}
		}

		sort.Slice(matches, func(i, j int) bool {
			if matches[i].sim != matches[j].sim {
				return matches[i].sim > matches[j].sim
			}
			return matches[i].docIdx < matches[j].docIdx
		})
		if len(matches) > topK {
			matches = matches[:topK]
		}

		out := make([]catalogmatch.Match, 0, len(matches))
		for _, m := range matches {
			out = append(out, catalogmatch.Match{
				ItemID: idx.docIDs[m.docIdx],
				Score:  m.sim,
				Meta:   maps.Clone(idx.docMeta[m.docIdx]),
			})
		}
		results = append(results, out)
	}
	return results, nil
}
