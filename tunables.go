package catalogmatch

// Tunables for the text-windowing, scoring, and fallback stages of the
// retrieval pipeline. Values match the reference implementation this engine
// was ported from; changing them shifts recall/precision tradeoffs, not
// correctness.
const (
	// WindowSize is the token count of each sliding window cut from a page
	// of free-form text before feature extraction.
	WindowSize = 60
	// WindowStride is the token step between consecutive windows. Stride <
	// WindowSize means windows overlap.
	WindowStride = 30

	// QueryTFClip caps a single token's term frequency inside a query
	// vector so one repeated token cannot dominate the cosine score.
	QueryTFClip = 2

	// MinDF is the minimum document frequency a token needs to stay in the
	// fitted vocabulary.
	MinDF = 2
	// MaxDFRatio drops tokens so common they carry no discriminating power;
	// a token is dropped once its document frequency exceeds
	// MaxDFRatio * corpus size.
	MaxDFRatio = 0.7

	// NameBoost multiplies a token's weight when it appears in an item's
	// name field.
	NameBoost = 3.0
	// SKUFieldBoost multiplies a token's weight when it appears in an
	// item's SKU field.
	SKUFieldBoost = 3.0
	// BrandBoost multiplies a token's weight when it appears in an item's
	// brand field.
	BrandBoost = 1.5
	// SKUAnchorBoost multiplies a query token's weight when the token looks
	// like a SKU (mixes digits and letters).
	SKUAnchorBoost = 3.0

	// FuzzySKUThreshold is the minimum Ratcliff/Obershelp ratio between a
	// SKU-shaped query token and a candidate's SKU field for stage-A fuzzy
	// fallback to accept the candidate.
	FuzzySKUThreshold = 0.85
	// FuzzyNameThreshold is the minimum Ratcliff/Obershelp ratio between
	// the query text and a candidate's name field for stage-B fuzzy
	// fallback to accept the candidate.
	FuzzyNameThreshold = 0.6

	// TopK is the default number of candidates an Index returns per query
	// item.
	TopK = 5
	// SimilarityThreshold is the minimum cosine score a match must reach to
	// pass the orchestrator's threshold gate before fuzzy fallback runs.
	SimilarityThreshold = 0.35

	// MaxLoadedCatalogs bounds how many fitted catalogs the registry keeps
	// warm at once.
	MaxLoadedCatalogs = 3
)
