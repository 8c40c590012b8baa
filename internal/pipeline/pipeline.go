// Package pipeline orchestrates coverage tracking for watched quotes:
// search, candidate matching, hit persistence with URL dedup, best-effort
// notification, and advancing each quote's scheduling state.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"quotewatch/internal/embedding"
	"quotewatch/internal/llm"
	"quotewatch/internal/match"
	"quotewatch/internal/model"
	"quotewatch/internal/search"
	"quotewatch/internal/storage"
)

const (
	resultsPerQuery  = 5
	snippetLimit     = 400
	summaryBodyLimit = 4000
)

// Summarizer renders a Markdown coverage summary for a confirmed hit.
type Summarizer interface {
	Summarize(ctx context.Context, a llm.Article) string
}

// Notifier sends the digest for a confirmed hit and reports whether the
// email went out.
type Notifier interface {
	NotifyHit(ctx context.Context, hit *model.Hit) bool
}

// Pipeline composes the search provider, matching engine, summarizer,
// notifier, and persistence for the due-quote batch loop.
type Pipeline struct {
	store      storage.Storage
	provider   search.Provider
	engine     *match.Engine
	embedder   embedding.Provider
	summarizer Summarizer
	notifier   Notifier
	log        *slog.Logger
}

// New creates a Pipeline.
func New(store storage.Storage, provider search.Provider, engine *match.Engine,
	embedder embedding.Provider, summarizer Summarizer, notifier Notifier, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		provider:   provider,
		engine:     engine,
		embedder:   embedder,
		summarizer: summarizer,
		notifier:   notifier,
		log:        log,
	}
}

// RunDue processes at most limit due quotes, oldest due first, persisting
// each quote's outcome independently so a crash mid-batch leaves earlier
// quotes durably advanced. Returns the number of quotes attempted, not the
// number of hits found.
func (p *Pipeline) RunDue(ctx context.Context, limit int) int {
	now := time.Now().UTC()
	due, err := p.store.ListDueQuotes(ctx, now, limit)
	if err != nil {
		p.log.Error("list due quotes", "error", err)
		return 0
	}

	processed := 0
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		processed++
		p.RunForQuote(ctx, &due[i])
	}
	return processed
}

// RunForQuote runs the full coverage check for one quote and reports
// whether a hit was found. The quote's scheduling fields are recomputed
// and persisted on both the hit and the miss path.
func (p *Pipeline) RunForQuote(ctx context.Context, q *model.Quote) bool {
	now := time.Now().UTC()

	// Ensure the quote embedding; failing to embed just removes the
	// semantic signal for this run.
	if q.QuoteEmb == nil {
		vec, err := p.embedder.EmbedText(ctx, q.QuoteText)
		if err != nil {
			p.log.Warn("embed quote", "quote_id", q.ID, "error", err)
		} else {
			q.QuoteEmb = vec
		}
	}

	found := false
	for _, query := range BuildQueries(q.ClientName, q.QuoteText) {
		for _, cand := range p.provider.Search(ctx, query, resultsPerQuery) {
			if p.evaluateCandidate(ctx, q, cand) {
				ApplyHit(q, now)
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	if !found {
		ApplyMiss(q)
	}

	checked := now
	q.LastCheckedAt = &checked
	next := ComputeNextRun(q.State, q.FirstHitAt, now)
	q.NextRunAt = &next

	if err := p.store.UpdateQuote(ctx, q); err != nil {
		p.log.Error("update quote", "quote_id", q.ID, "error", err)
	}
	return found
}

// evaluateCandidate runs the matching engine on one candidate and, on a
// confirmed match, persists the hit (deduped globally by URL) and attempts
// notification. Returns true only when a new hit was persisted.
func (p *Pipeline) evaluateCandidate(ctx context.Context, q *model.Quote, cand search.Result) bool {
	if cand.URL == "" || cand.Text == "" {
		return false
	}

	res := p.engine.Evaluate(ctx, q.ClientName, q.QuoteText, q.QuoteEmb,
		match.Candidate{Title: cand.Title, Text: cand.Text})
	if res == nil {
		return false
	}

	// Global dedup: at most one hit per article, no matter which quote
	// matched it.
	exists, err := p.store.HitURLExists(ctx, cand.URL)
	if err != nil {
		p.log.Error("check hit url", "url", cand.URL, "error", err)
		return false
	}
	if exists {
		return false
	}

	domain := normalizeDomain(cand.URL)
	bestQuote := ""
	if res.Type == model.MatchExact {
		bestQuote = q.QuoteText
	}
	markdown := p.summarizer.Summarize(ctx, llm.Article{
		ClientName: q.ClientName,
		URL:        cand.URL,
		Domain:     domain,
		Title:      cand.Title,
		Body:       truncate(cand.Text, summaryBodyLimit),
		BestQuote:  bestQuote,
	})

	hit := &model.Hit{
		QuoteID:    &q.ID,
		ClientName: q.ClientName,
		URL:        cand.URL,
		Domain:     domain,
		Title:      cand.Title,
		Snippet:    truncate(cand.Text, snippetLimit),
		MatchType:  res.Type,
		Confidence: res.Confidence,
		Markdown:   markdown,
	}
	if err := p.store.CreateHit(ctx, hit); err != nil {
		if errors.Is(err, storage.ErrDuplicateURL) {
			// Lost a race with a concurrent run; the article is covered.
			return false
		}
		p.log.Error("create hit", "url", cand.URL, "error", err)
		return false
	}

	p.log.Info("coverage hit", "quote_id", q.ID, "url", cand.URL,
		"match_type", res.Type, "confidence", res.Confidence)

	if p.notifier.NotifyHit(ctx, hit) {
		sentAt := time.Now().UTC()
		hit.EmailedAt = &sentAt
		if err := p.store.SetHitEmailed(ctx, hit.ID, sentAt); err != nil {
			p.log.Error("set hit emailed", "hit_id", hit.ID, "error", err)
		}
	}
	return true
}

func normalizeDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
