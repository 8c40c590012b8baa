package match

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quotewatch/internal/embedding"
	"quotewatch/internal/model"
)

type fakeAdjudicator struct {
	verdict     Verdict
	calls       int
	lastExcerpt string
}

func (f *fakeAdjudicator) Adjudicate(_ context.Context, _, _, excerpt string) Verdict {
	f.calls++
	f.lastExcerpt = excerpt
	return f.verdict
}

func newTestEngine(adj *fakeAdjudicator, embedFn func(ctx context.Context, text string) (model.Vector, error)) *Engine {
	fake := embedding.NewFake(8)
	fake.EmbedTextFunc = embedFn
	return NewEngine(fake, adj, slog.New(slog.DiscardHandler))
}

func TestEvaluateExactMatchSkipsAdjudicator(t *testing.T) {
	adj := &fakeAdjudicator{}
	e := newTestEngine(adj, nil)

	quote := "we are expanding into five new markets"
	cand := Candidate{
		Title: "Acme grows",
		Text:  "In an interview, the CEO said: we are expanding into five new markets. Acme stock rose.",
	}

	got := e.Evaluate(context.Background(), "Acme", quote, nil, cand)
	want := &Result{Type: model.MatchExact, Confidence: 1.0, MatchedText: quote}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Evaluate mismatch (-want +got):\n%s", diff)
	}
	if adj.calls != 0 {
		t.Errorf("adjudicator called %d times on exact match, want 0", adj.calls)
	}
}

func TestEvaluateClientNameHardFilter(t *testing.T) {
	adj := &fakeAdjudicator{verdict: Verdict{Matched: true, Type: model.MatchExact, Confidence: 1.0}}
	e := newTestEngine(adj, nil)

	quote := "we are expanding into five new markets"
	cand := Candidate{
		Title: "Industry roundup",
		Text:  "A spokesperson said: we are expanding into five new markets.",
	}

	if got := e.Evaluate(context.Background(), "Acme", quote, nil, cand); got != nil {
		t.Errorf("expected no match without client name, got %+v", got)
	}
	if adj.calls != 0 {
		t.Errorf("adjudicator called %d times, want 0", adj.calls)
	}
}

func TestEvaluateClientNameCaseInsensitive(t *testing.T) {
	adj := &fakeAdjudicator{}
	e := newTestEngine(adj, nil)

	quote := "our product is the best"
	cand := Candidate{
		Title: "ACME launches product",
		Text:  "The company announced: our product is the best.",
	}

	got := e.Evaluate(context.Background(), "Acme", quote, nil, cand)
	if got == nil || got.Type != model.MatchExact {
		t.Fatalf("expected exact match with case-folded client name, got %+v", got)
	}
}

func TestEvaluateEscalationGateBoundary(t *testing.T) {
	// Quote of 3 words against a 5-word sentence sharing all 3:
	// intersection 3, union 5, Jaccard exactly 0.6.
	atGate := Candidate{
		Title: "Report",
		Text:  "Acme reported results. alpha beta gamma delta epsilon",
	}
	// 10 shared words out of a 17-word union: Jaccard ~0.588.
	belowGate := Candidate{
		Title: "Report",
		Text:  "Acme reported results. q1 q2 q3 q4 q5 q6 q7 q8 q9 q10 x1 x2 x3 x4 x5 x6 x7",
	}

	tests := []struct {
		name       string
		quote      string
		cand       Candidate
		wantCalls  int
		wantResult bool
	}{
		{
			name:       "jaccard exactly at threshold escalates",
			quote:      "alpha beta gamma",
			cand:       atGate,
			wantCalls:  1,
			wantResult: true,
		},
		{
			name:       "jaccard just below threshold does not escalate",
			quote:      "q1 q2 q3 q4 q5 q6 q7 q8 q9 q10",
			cand:       belowGate,
			wantCalls:  0,
			wantResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := &fakeAdjudicator{verdict: Verdict{
				Matched: true, Type: model.MatchParaphrase, Confidence: 0.9, MatchedText: "x",
			}}
			// No quote vector: the cosine signal stays at 0 and only the
			// Jaccard side of the gate applies.
			e := newTestEngine(adj, nil)

			got := e.Evaluate(context.Background(), "Acme", tt.quote, nil, tt.cand)
			if (got != nil) != tt.wantResult {
				t.Errorf("result = %+v, want present=%t", got, tt.wantResult)
			}
			if adj.calls != tt.wantCalls {
				t.Errorf("adjudicator calls = %d, want %d", adj.calls, tt.wantCalls)
			}
			if adj.calls > 0 && adj.lastExcerpt != "alpha beta gamma delta epsilon" {
				t.Errorf("adjudicated excerpt = %q, want the best-scoring sentence", adj.lastExcerpt)
			}
		})
	}
}

func TestEvaluateCosineEscalation(t *testing.T) {
	adj := &fakeAdjudicator{verdict: Verdict{
		Matched: true, Type: model.MatchParaphrase, Confidence: 0.85, MatchedText: "paraphrased",
	}}
	// Every sentence embeds to the same vector as the quote.
	e := newTestEngine(adj, func(_ context.Context, _ string) (model.Vector, error) {
		return model.Vector{1, 0, 0}, nil
	})

	quote := "global growth strategy accelerating rapidly"
	cand := Candidate{
		Title: "Acme outlook",
		Text:  "Analysts expect growth across all units this quarter.",
	}

	got := e.Evaluate(context.Background(), "Acme", quote, model.Vector{1, 0, 0}, cand)
	if got == nil {
		t.Fatal("expected cosine similarity to escalate and match")
	}
	if adj.calls != 1 {
		t.Errorf("adjudicator calls = %d, want 1", adj.calls)
	}
	if got.Type != model.MatchParaphrase || got.Confidence != 0.85 {
		t.Errorf("result = %+v, want paraphrase at 0.85", got)
	}
}

func TestEvaluateAdjudicatorConfidenceGate(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantResult bool
	}{
		{name: "just below gate rejected", confidence: 0.69, wantResult: false},
		{name: "at gate accepted", confidence: 0.70, wantResult: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := &fakeAdjudicator{verdict: Verdict{
				Matched: true, Type: model.MatchParaphrase, Confidence: tt.confidence,
			}}
			e := newTestEngine(adj, nil)

			got := e.Evaluate(context.Background(), "Acme", "alpha beta gamma", nil, Candidate{
				Title: "Report",
				Text:  "Acme reported results. alpha beta gamma delta epsilon",
			})
			if (got != nil) != tt.wantResult {
				t.Errorf("result = %+v, want present=%t", got, tt.wantResult)
			}
		})
	}
}

func TestEvaluateAdjudicatorDenied(t *testing.T) {
	adj := &fakeAdjudicator{verdict: Verdict{Matched: false, Type: model.MatchNone, Confidence: 0.95}}
	e := newTestEngine(adj, nil)

	got := e.Evaluate(context.Background(), "Acme", "alpha beta gamma", nil, Candidate{
		Title: "Report",
		Text:  "Acme reported results. alpha beta gamma delta epsilon",
	})
	if got != nil {
		t.Errorf("expected denial to yield no match, got %+v", got)
	}
	if adj.calls != 1 {
		t.Errorf("adjudicator calls = %d, want 1", adj.calls)
	}
}

func TestEvaluateDegenerateInputs(t *testing.T) {
	adj := &fakeAdjudicator{}
	e := newTestEngine(adj, nil)

	if got := e.Evaluate(context.Background(), "Acme", "a quote", nil, Candidate{Title: "Acme"}); got != nil {
		t.Errorf("empty candidate text matched: %+v", got)
	}
	if got := e.Evaluate(context.Background(), "Acme", "   ", nil, Candidate{Title: "Acme", Text: "Acme said things."}); got != nil {
		t.Errorf("whitespace quote matched: %+v", got)
	}
	if adj.calls != 0 {
		t.Errorf("adjudicator calls = %d, want 0", adj.calls)
	}
}
