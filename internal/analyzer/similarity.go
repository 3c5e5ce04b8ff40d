package analyzer

import (
	"math"
	"strings"
	"unicode"
)

// TokenSimilarity computes the Dice coefficient over the token multisets of
// two code fragments, in [0, 1]. It is cheap and order-insensitive, which
// fits the validator's sweet-spot check for suggested fixes.
func TokenSimilarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	counts := map[string]int{}
	for _, t := range ta {
		counts[t]++
	}
	overlap := 0
	for _, t := range tb {
		if counts[t] > 0 {
			counts[t]--
			overlap++
		}
	}
	return 2.0 * float64(overlap) / float64(len(ta)+len(tb))
}

// tokenize splits code into identifier/number tokens and single punctuation
// characters, lowercased
func tokenize(code string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	for _, r := range code {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$':
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

// CosineSimilarity computes the cosine of the angle between two embedding
// vectors. Mismatched dimensions or zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
