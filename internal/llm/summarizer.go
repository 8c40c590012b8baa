package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

const summarizeTimeout = 60 * time.Second

const summarizeSystemPrompt = "You are a PR analyst. Generate a concise, well-structured " +
	"PR coverage note in Markdown. First line: <Outlet> — [<Headline>](<URL>). Then sections: " +
	"Coverage Summary, Quote Highlight (use the extracted quote verbatim if provided; if not " +
	"found, use a close paraphrase and mark it clearly as paraphrase), Audience / Strategic " +
	"Value. Keep it under 250 words. Return only Markdown."

// Article holds the fields a coverage summary is built from.
type Article struct {
	ClientName string
	URL        string
	Domain     string
	Title      string
	Body       string
	BestQuote  string
}

// Summarizer renders a Markdown coverage summary for a confirmed hit.
// It always returns usable Markdown: with no API key, or on any request
// failure, a deterministic offline template is used so hit persistence is
// never blocked on this collaborator.
type Summarizer struct {
	chat llms.Model
	log  *slog.Logger
}

// NewSummarizer creates a Summarizer. An empty apiKey yields the
// offline-template-only variant.
func NewSummarizer(apiKey, modelID string, log *slog.Logger) (*Summarizer, error) {
	s := &Summarizer{log: log}
	if apiKey == "" {
		return s, nil
	}
	chat, err := newChatModel(apiKey, modelID)
	if err != nil {
		return nil, err
	}
	s.chat = chat
	return s, nil
}

// Summarize renders the coverage summary.
func (s *Summarizer) Summarize(ctx context.Context, a Article) string {
	if s.chat == nil {
		return offlineTemplate(a)
	}

	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	user := fmt.Sprintf(
		"client_name: %s\narticle_url: %s\ndomain: %s\ntitle: %s\narticle_excerpt: %s\n"+
			"extracted_best_quote (must use verbatim if provided or write 'No direct quote found'): %s\n"+
			"Return only Markdown.",
		a.ClientName, a.URL, a.Domain, a.Title, truncate(a.Body, 1200), a.BestQuote)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, summarizeSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := s.chat.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		s.log.Warn("summarize request", "error", err)
		return offlineTemplate(a)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		s.log.Warn("summarize request", "error", "empty response")
		return offlineTemplate(a)
	}
	return resp.Choices[0].Content
}

// offlineTemplate is the deterministic no-credential summary.
func offlineTemplate(a Article) string {
	title := a.Title
	if title == "" {
		title = "(Title)"
	}
	domain := a.Domain
	if domain == "" {
		domain = "(Outlet)"
	}
	url := a.URL
	if url == "" {
		url = "#"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s — [%s](%s)\n\n", domain, title, url)
	fmt.Fprintf(&b, "**Client:** %s\n\n", a.ClientName)
	b.WriteString("## Quote Highlight\n\n")
	if a.BestQuote != "" {
		fmt.Fprintf(&b, "> %s\n", a.BestQuote)
	} else {
		b.WriteString("No direct quote found.\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
