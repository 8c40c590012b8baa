package match

import (
	"math"
	"strings"

	"quotewatch/internal/model"
)

// TokenizeWords splits text into whitespace-separated words.
func TokenizeWords(text string) []string {
	return strings.Fields(text)
}

// Shingles returns every contiguous run of size words joined by spaces.
// Returns nil when the text has fewer than size words.
func Shingles(words []string, size int) []string {
	if size <= 0 || len(words) < size {
		return nil
	}
	out := make([]string, 0, len(words)-size+1)
	for i := 0; i+size <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+size], " "))
	}
	return out
}

// Jaccard computes word-level Jaccard similarity between two texts:
// the unique-word-set intersection over union, case-insensitive.
// Two empty sets are defined as identical (1.0); exactly one empty is 0.0.
func Jaccard(a, b string) float64 {
	sa := wordSet(a)
	sb := wordSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}
	inter := 0
	for w := range sa {
		if sb[w] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range TokenizeWords(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}

// Cosine computes cosine similarity between two vectors. Returns 0 when
// the dimensions differ or either vector has zero norm.
func Cosine(a, b model.Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// SplitSentences splits text on sentence terminators ('.', '!', '?') and
// newlines. Each accumulated buffer becomes one sentence; a trailing
// remainder without a terminator is included. Blank sentences are dropped.
func SplitSentences(text string) []string {
	var out []string
	var buf strings.Builder
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
		buf.Reset()
	}
	for _, r := range text {
		buf.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			flush()
		}
	}
	flush()
	return out
}
