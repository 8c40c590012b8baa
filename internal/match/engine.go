// Package match scores candidate articles against watched quotes. The
// engine runs cheap textual tiers first and escalates to LLM adjudication
// only when the escalation gate is met, keeping expensive calls off
// clearly-unrelated text.
package match

import (
	"context"
	"log/slog"
	"strings"

	"quotewatch/internal/embedding"
	"quotewatch/internal/model"
)

// Escalation and acceptance thresholds. Jaccard and cosine cutoffs trade
// recall for precision: below both, the candidate is dropped without an
// adjudicator call.
const (
	escalateJaccard  = 0.6
	escalateCosine   = 0.78
	acceptConfidence = 0.7

	// excerptLimit caps the fallback excerpt when no sentence scored.
	excerptLimit = 800
)

// Verdict is an adjudicator's decision on a tentative match.
type Verdict struct {
	Matched     bool
	Type        model.MatchType
	Confidence  float64
	MatchedText string
}

// Adjudicator resolves ambiguous matches a pure-text algorithm cannot
// safely decide. Implementations never fail: on any internal error they
// return a deterministic fallback verdict.
type Adjudicator interface {
	Adjudicate(ctx context.Context, clientName, quoteText, excerpt string) Verdict
}

// Candidate is a document under evaluation.
type Candidate struct {
	Title string
	Text  string
}

// Result is a confirmed match with its classification.
type Result struct {
	Type        model.MatchType
	Confidence  float64
	MatchedText string
}

// Engine evaluates (quote, candidate) pairs.
type Engine struct {
	embedder    embedding.Provider
	adjudicator Adjudicator
	log         *slog.Logger
}

// NewEngine creates an Engine with the given collaborators.
func NewEngine(embedder embedding.Provider, adjudicator Adjudicator, log *slog.Logger) *Engine {
	return &Engine{embedder: embedder, adjudicator: adjudicator, log: log}
}

// Evaluate decides whether the candidate contains or paraphrases the quote.
// quoteVec is the cached embedding of quoteText; nil means no semantic
// signal is available and only the textual tiers apply. Returns nil when
// the candidate is not coverage.
func (e *Engine) Evaluate(ctx context.Context, clientName, quoteText string, quoteVec model.Vector, cand Candidate) *Result {
	if cand.Text == "" || strings.TrimSpace(quoteText) == "" {
		return nil
	}

	// Hard filter: coverage without the client's name nearby does not count.
	combined := strings.ToLower(cand.Text) + " " + strings.ToLower(cand.Title)
	if !strings.Contains(combined, strings.ToLower(clientName)) {
		return nil
	}

	// Exact tier.
	if strings.Contains(cand.Text, quoteText) {
		return &Result{Type: model.MatchExact, Confidence: 1.0, MatchedText: quoteText}
	}

	// Fuzzy tier: best sentence by word-level Jaccard.
	var bestSentence string
	bestJaccard := 0.0
	for _, s := range SplitSentences(cand.Text) {
		if jac := Jaccard(quoteText, s); jac > bestJaccard {
			bestJaccard = jac
			bestSentence = s
		}
	}

	// Semantic tier: cosine between the quote vector and the best sentence.
	cosine := 0.0
	if quoteVec != nil && bestSentence != "" {
		sentVec, err := e.embedder.EmbedText(ctx, bestSentence)
		if err != nil {
			e.log.Debug("embed sentence", "error", err)
		} else {
			cosine = Cosine(quoteVec, sentVec)
		}
	}

	if bestJaccard < escalateJaccard && cosine < escalateCosine {
		return nil
	}

	excerpt := bestSentence
	if excerpt == "" {
		excerpt = truncate(cand.Text, excerptLimit)
	}
	verdict := e.adjudicator.Adjudicate(ctx, clientName, quoteText, excerpt)
	if !verdict.Matched || verdict.Confidence < acceptConfidence {
		return nil
	}
	return &Result{
		Type:        verdict.Type,
		Confidence:  verdict.Confidence,
		MatchedText: verdict.MatchedText,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
