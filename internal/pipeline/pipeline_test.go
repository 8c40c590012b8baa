package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"quotewatch/internal/embedding"
	"quotewatch/internal/llm"
	"quotewatch/internal/match"
	"quotewatch/internal/model"
	"quotewatch/internal/search"
	"quotewatch/internal/storage"
)

type fakeProvider struct {
	results []search.Result
	queries []string
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) []search.Result {
	f.queries = append(f.queries, query)
	return f.results
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(_ context.Context, a llm.Article) string {
	return "## " + a.Title
}

type fakeNotifier struct {
	sent []model.Hit
	ok   bool
}

func (f *fakeNotifier) NotifyHit(_ context.Context, h *model.Hit) bool {
	f.sent = append(f.sent, *h)
	return f.ok
}

type testPipeline struct {
	pipe     *Pipeline
	store    storage.Storage
	provider *fakeProvider
	notifier *fakeNotifier
}

func newTestPipeline(t *testing.T, results []search.Result) *testPipeline {
	t.Helper()

	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.DiscardHandler)
	adjudicator, err := llm.NewAdjudicator("", "", log)
	if err != nil {
		t.Fatalf("new adjudicator: %v", err)
	}

	embedder := embedding.NewFake(16)
	provider := &fakeProvider{results: results}
	notifier := &fakeNotifier{ok: true}
	engine := match.NewEngine(embedder, adjudicator, log)

	return &testPipeline{
		pipe:     New(store, provider, engine, embedder, fakeSummarizer{}, notifier, log),
		store:    store,
		provider: provider,
		notifier: notifier,
	}
}

func createQuote(t *testing.T, store storage.Storage, clientName, quoteText string) *model.Quote {
	t.Helper()
	q := &model.Quote{ClientName: clientName, QuoteText: quoteText}
	if err := store.CreateQuote(context.Background(), q); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	return q
}

func TestRunForQuoteExactHit(t *testing.T) {
	quoteText := "we are expanding into five new markets this year"
	tp := newTestPipeline(t, []search.Result{{
		Title: "Acme plans expansion",
		URL:   "https://news.example.com/acme-expansion",
		Text:  "Acme's CEO told reporters: we are expanding into five new markets this year.",
	}})
	q := createQuote(t, tp.store, "Acme", quoteText)

	ctx := context.Background()
	if !tp.pipe.RunForQuote(ctx, q) {
		t.Fatal("RunForQuote = false, want hit")
	}

	stored, err := tp.store.GetQuote(ctx, q.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if stored.State != model.StateActiveDaily7d {
		t.Errorf("state = %s, want %s", stored.State, model.StateActiveDaily7d)
	}
	if stored.HitCount != 1 || stored.DaysWithoutHit != 0 {
		t.Errorf("hit_count = %d, days_without_hit = %d", stored.HitCount, stored.DaysWithoutHit)
	}
	if stored.FirstHitAt == nil || stored.LastHitAt == nil || stored.LastCheckedAt == nil {
		t.Error("hit and check timestamps not all set")
	}
	if stored.QuoteEmb == nil {
		t.Error("quote embedding not persisted")
	}
	wantNext := time.Now().UTC().Add(24 * time.Hour)
	if stored.NextRunAt == nil || stored.NextRunAt.Sub(wantNext).Abs() > time.Minute {
		t.Errorf("next_run_at = %v, want about %v", stored.NextRunAt, wantNext)
	}

	hits, err := tp.store.ListHits(ctx, storage.HitFilter{})
	if err != nil {
		t.Fatalf("list hits: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	h := hits[0]
	if h.MatchType != model.MatchExact || h.Confidence != 1.0 {
		t.Errorf("match_type = %s confidence = %v, want exact at 1.0", h.MatchType, h.Confidence)
	}
	if h.Domain != "news.example.com" {
		t.Errorf("domain = %q, want news.example.com", h.Domain)
	}
	if h.QuoteID == nil || *h.QuoteID != q.ID {
		t.Errorf("quote_id = %v, want %s", h.QuoteID, q.ID)
	}
	if h.Markdown == "" {
		t.Error("markdown summary missing")
	}
	if h.EmailedAt == nil {
		t.Error("emailed_at not set after successful notify")
	}
	if len(tp.notifier.sent) != 1 {
		t.Errorf("notifier called %d times, want 1", len(tp.notifier.sent))
	}
}

func TestRunForQuoteMiss(t *testing.T) {
	tp := newTestPipeline(t, nil)
	q := createQuote(t, tp.store, "Acme", "nothing will ever cover this")

	ctx := context.Background()
	if tp.pipe.RunForQuote(ctx, q) {
		t.Fatal("RunForQuote = true, want miss")
	}

	stored, err := tp.store.GetQuote(ctx, q.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if stored.State != model.StateActiveHourly {
		t.Errorf("state = %s, want %s", stored.State, model.StateActiveHourly)
	}
	if stored.DaysWithoutHit != 1 {
		t.Errorf("days_without_hit = %d, want 1", stored.DaysWithoutHit)
	}
	if stored.LastCheckedAt == nil {
		t.Error("last_checked_at not set")
	}
	wantNext := time.Now().UTC().Add(time.Hour)
	if stored.NextRunAt == nil || stored.NextRunAt.Sub(wantNext).Abs() > time.Minute {
		t.Errorf("next_run_at = %v, want about %v", stored.NextRunAt, wantNext)
	}
	if len(tp.notifier.sent) != 0 {
		t.Errorf("notifier called %d times on miss", len(tp.notifier.sent))
	}
}

func TestRunForQuoteFailedNotifyLeavesHitUnemailed(t *testing.T) {
	quoteText := "our flagship product ships next quarter"
	tp := newTestPipeline(t, []search.Result{{
		Title: "Acme ships",
		URL:   "https://example.com/acme-ships",
		Text:  "Acme confirmed: our flagship product ships next quarter.",
	}})
	tp.notifier.ok = false
	q := createQuote(t, tp.store, "Acme", quoteText)

	ctx := context.Background()
	if !tp.pipe.RunForQuote(ctx, q) {
		t.Fatal("RunForQuote = false, want hit")
	}

	hits, err := tp.store.ListHits(ctx, storage.HitFilter{})
	if err != nil {
		t.Fatalf("list hits: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].EmailedAt != nil {
		t.Errorf("emailed_at = %v, want unset after failed notify", hits[0].EmailedAt)
	}
}

func TestRunForQuoteGlobalURLDedup(t *testing.T) {
	article := search.Result{
		Title: "Acme doubles down",
		URL:   "https://example.com/shared-article",
		Text:  "Acme said: shared phrasing both quotes contain verbatim today.",
	}
	tp := newTestPipeline(t, []search.Result{article})

	q1 := createQuote(t, tp.store, "Acme", "shared phrasing both quotes contain verbatim today")
	q2 := createQuote(t, tp.store, "Acme", "phrasing both quotes contain verbatim")

	ctx := context.Background()
	if !tp.pipe.RunForQuote(ctx, q1) {
		t.Fatal("first quote should hit")
	}
	if tp.pipe.RunForQuote(ctx, q2) {
		t.Error("second quote matched an already-covered URL")
	}

	hits, err := tp.store.ListHits(ctx, storage.HitFilter{})
	if err != nil {
		t.Fatalf("list hits: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want 1 for a shared URL", len(hits))
	}

	stored, err := tp.store.GetQuote(ctx, q2.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if stored.DaysWithoutHit != 1 {
		t.Errorf("second quote days_without_hit = %d, want 1", stored.DaysWithoutHit)
	}
}

func TestRunForQuoteStopsAfterFirstMatch(t *testing.T) {
	quoteText := "we are expanding into five new markets this year"
	tp := newTestPipeline(t, []search.Result{{
		Title: "Acme plans expansion",
		URL:   "https://example.com/first",
		Text:  "Acme's CEO said: we are expanding into five new markets this year.",
	}})
	q := createQuote(t, tp.store, "Acme", quoteText)

	if !tp.pipe.RunForQuote(context.Background(), q) {
		t.Fatal("RunForQuote = false, want hit")
	}
	if len(tp.provider.queries) != 1 {
		t.Errorf("provider searched %d queries, want 1 after first match", len(tp.provider.queries))
	}
}

func TestRunDueRespectsDueTimesAndLimit(t *testing.T) {
	tp := newTestPipeline(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	never := createQuote(t, tp.store, "Acme", "never checked before")
	past := createQuote(t, tp.store, "Acme", "due an hour ago")
	future := createQuote(t, tp.store, "Acme", "not due until tomorrow")

	pastDue := now.Add(-time.Hour)
	past.NextRunAt = &pastDue
	if err := tp.store.UpdateQuote(ctx, past); err != nil {
		t.Fatalf("update quote: %v", err)
	}
	futureDue := now.Add(24 * time.Hour)
	future.NextRunAt = &futureDue
	if err := tp.store.UpdateQuote(ctx, future); err != nil {
		t.Fatalf("update quote: %v", err)
	}

	if processed := tp.pipe.RunDue(ctx, 2); processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}

	for _, id := range []string{never.ID, past.ID} {
		q, err := tp.store.GetQuote(ctx, id)
		if err != nil {
			t.Fatalf("get quote: %v", err)
		}
		if q.LastCheckedAt == nil {
			t.Errorf("due quote %s was not checked", id)
		}
	}

	q, err := tp.store.GetQuote(ctx, future.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if q.LastCheckedAt != nil {
		t.Error("future quote was checked before its due time")
	}
}
