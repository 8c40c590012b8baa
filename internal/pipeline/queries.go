package pipeline

import (
	"fmt"

	"quotewatch/internal/match"
)

const (
	shingleSize         = 8
	fallbackShingleSize = 7
	maxShingleQueries   = 3
)

// BuildQueries returns the ordered search queries for one quote, most
// precise first: the exact quote, then word-shingle fragments, then the
// bare client name as a catch-all. The candidate loop short-circuits on
// the first confirmed match, so order doubles as priority.
func BuildQueries(clientName, quoteText string) []string {
	queries := []string{fmt.Sprintf("%q AND %s", quoteText, clientName)}

	words := match.TokenizeWords(quoteText)
	shingles := match.Shingles(words, shingleSize)
	if shingles == nil {
		shingles = match.Shingles(words, fallbackShingleSize)
	}
	for i, s := range shingles {
		if i >= maxShingleQueries {
			break
		}
		queries = append(queries, fmt.Sprintf("%q AND %s", s, clientName))
	}

	return append(queries, clientName)
}
