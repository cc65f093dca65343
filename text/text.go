// Package text provides the normalization and tokenization primitives
// shared by feature extraction and scoring: lowercasing, whitespace
// collapsing, word-boundary tokenization, stopword filtering, and the
// unit-spacing cleanup that keeps measurement tokens (e.g. "330 x 233 мм")
// from fragmenting across a sliding window.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tokenRe      = regexp.MustCompile(`[\p{L}\p{N}_\-]+`)
	spacedXRe    = regexp.MustCompile(`\s*x\s*`)
	spacedMMRe   = regexp.MustCompile(`\s+мм`)
)

// stopwords holds a minimal RU/EN function-word set. It carries no
// discriminative value for keyword matching and is stripped before scoring.
var stopwords = map[string]struct{}{
	"и": {}, "в": {}, "на": {}, "для": {}, "от": {}, "до": {}, "с": {}, "по": {},
	"из": {}, "а": {}, "но": {}, "или": {}, "как": {}, "что": {},
	"the": {}, "a": {}, "an": {}, "for": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "by": {}, "and": {}, "or": {}, "with": {},
}

// Normalize folds full-width forms (e.g. a product code typed with
// full-width digits) down to their ASCII equivalents, applies Unicode NFC
// composition, lowercases, trims, and collapses internal whitespace runs to
// a single space, so two differently-encoded renderings of the same token
// compare equal.
func Normalize(s string) string {
	s = width.Fold.String(s)
	s = norm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRe.ReplaceAllString(s, " ")
}

// Tokenize normalizes s and splits it into word tokens. A token is a run of
// letters, digits, underscores, and hyphens; all other characters are
// treated as separators.
func Tokenize(s string) []string {
	return tokenRe.FindAllString(Normalize(s), -1)
}

// IsStopword reports whether tok is a stripped function word.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// FilterStopwords returns tokens with stopwords removed, preserving order.
func FilterStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeNumbers joins spaced-out measurement patterns like "330 x 233"
// into "330x233" and removes the space before a trailing unit suffix such
// as "мм", so a tokenizer sees one dimension token instead of three.
func NormalizeNumbers(s string) string {
	s = spacedXRe.ReplaceAllString(s, "x")
	s = spacedMMRe.ReplaceAllString(s, "мм")
	return s
}

// HasDigitAndAlpha reports whether tok contains at least one digit and at
// least one letter, the shape used to detect SKU-like tokens.
func HasDigitAndAlpha(tok string) bool {
	var hasDigit, hasAlpha bool
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127:
			hasAlpha = true
		}
		if hasDigit && hasAlpha {
			return true
		}
	}
	return false
}
