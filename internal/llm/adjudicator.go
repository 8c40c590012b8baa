package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"quotewatch/internal/match"
	"quotewatch/internal/model"
)

const (
	adjudicateTimeout = 45 * time.Second

	// matchedTextLimit caps the excerpt echoed back by the offline rule.
	matchedTextLimit = 280
)

const adjudicateSystemPrompt = "You are a precise media fact-checker. " +
	"Return ONLY JSON with keys match, type, confidence, matched_text."

// Adjudicator asks a language model whether an article excerpt uses or
// closely paraphrases a client's quote. Without an API key it applies a
// deterministic Jaccard-based rule instead.
type Adjudicator struct {
	chat llms.Model
	log  *slog.Logger
}

// NewAdjudicator creates an Adjudicator. An empty apiKey yields the
// offline-only variant.
func NewAdjudicator(apiKey, modelID string, log *slog.Logger) (*Adjudicator, error) {
	a := &Adjudicator{log: log}
	if apiKey == "" {
		return a, nil
	}
	chat, err := newChatModel(apiKey, modelID)
	if err != nil {
		return nil, err
	}
	a.chat = chat
	return a, nil
}

type adjudicationPayload struct {
	Match       bool    `json:"match"`
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
	MatchedText string  `json:"matched_text"`
}

// Adjudicate returns a verdict on whether the excerpt covers the quote.
// Network failures, non-JSON output, and missing credentials all degrade
// to the offline rule; this method never fails.
func (a *Adjudicator) Adjudicate(ctx context.Context, clientName, quoteText, excerpt string) match.Verdict {
	if a.chat == nil {
		return offlineVerdict(clientName, quoteText, excerpt)
	}

	ctx, cancel := context.WithTimeout(ctx, adjudicateTimeout)
	defer cancel()

	user := fmt.Sprintf(
		"CLIENT: %q\nQUOTE: %q\nARTICLE_EXCERPT: %q\n"+
			"Does the excerpt use or closely paraphrase the QUOTE attributed to the CLIENT? "+
			"Return JSON only: {\"match\": true|false, \"type\": \"exact\"|\"partial\"|\"paraphrase\"|\"no_match\", "+
			"\"confidence\": 0.0-1.0, \"matched_text\": \"...\"}",
		clientName, quoteText, excerpt)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, adjudicateSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := a.chat.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		a.log.Warn("adjudicate request", "error", err)
		return offlineVerdict(clientName, quoteText, excerpt)
	}
	if len(resp.Choices) == 0 {
		a.log.Warn("adjudicate request", "error", "no choices in response")
		return offlineVerdict(clientName, quoteText, excerpt)
	}

	raw, ok := ExtractJSON(resp.Choices[0].Content)
	if !ok {
		a.log.Warn("adjudicate response has no JSON object")
		return offlineVerdict(clientName, quoteText, excerpt)
	}
	var payload adjudicationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		a.log.Warn("parse adjudicate response", "error", err)
		return offlineVerdict(clientName, quoteText, excerpt)
	}

	return match.Verdict{
		Matched:     payload.Match,
		Type:        normalizeMatchType(payload.Type),
		Confidence:  payload.Confidence,
		MatchedText: payload.MatchedText,
	}
}

// offlineVerdict is the deterministic credential-free rule: a paraphrase
// needs at least 0.6 word-level Jaccard overlap plus the client's name in
// the excerpt.
func offlineVerdict(clientName, quoteText, excerpt string) match.Verdict {
	jac := match.Jaccard(quoteText, excerpt)

	mt := model.MatchNone
	if strings.Contains(excerpt, quoteText) {
		mt = model.MatchExact
	} else if jac >= 0.6 {
		mt = model.MatchParaphrase
	}

	matched := jac >= 0.6 &&
		strings.Contains(strings.ToLower(excerpt), strings.ToLower(clientName))

	conf := jac + 0.2
	if conf > 1.0 {
		conf = 1.0
	}

	matchedText := excerpt
	if len(matchedText) > matchedTextLimit {
		matchedText = matchedText[:matchedTextLimit]
	}

	return match.Verdict{Matched: matched, Type: mt, Confidence: conf, MatchedText: matchedText}
}

func normalizeMatchType(s string) model.MatchType {
	switch model.MatchType(s) {
	case model.MatchExact, model.MatchPartial, model.MatchParaphrase:
		return model.MatchType(s)
	default:
		return model.MatchNone
	}
}

var _ match.Adjudicator = (*Adjudicator)(nil)
