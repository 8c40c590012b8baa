package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const exaSearchURL = "https://api.exa.ai/search"

// Exa searches the web through the Exa AI API, requesting full text
// content for each result.
type Exa struct {
	apiKey  string
	client  HTTPClient
	log     *slog.Logger
	timeout time.Duration
}

// NewExa creates an Exa provider. An empty apiKey yields a provider that
// always returns no results.
func NewExa(apiKey string, client HTTPClient, log *slog.Logger) *Exa {
	if client == nil {
		client = http.DefaultClient
	}
	return &Exa{
		apiKey:  apiKey,
		client:  client,
		log:     log,
		timeout: 30 * time.Second,
	}
}

// Configured reports whether an API key is present.
func (e *Exa) Configured() bool {
	return e.apiKey != ""
}

type exaRequest struct {
	Query         string      `json:"query"`
	NumResults    int         `json:"numResults"`
	UseAutoprompt bool        `json:"useAutoprompt"`
	Contents      exaContents `json:"contents"`
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaResponse struct {
	Results []exaResult `json:"results"`
}

type exaResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	ID            string `json:"id"`
	Text          string `json:"text"`
	Content       string `json:"content"`
	Summary       string `json:"summary"`
	PublishedDate string `json:"publishedDate"`
}

// Search queries Exa and returns candidate documents with text content.
// Any failure degrades to an empty result set.
func (e *Exa) Search(ctx context.Context, query string, numResults int) []Result {
	if e.apiKey == "" {
		return nil
	}

	body, err := json.Marshal(exaRequest{
		Query:         query,
		NumResults:    numResults,
		UseAutoprompt: false,
		Contents:      exaContents{Text: true},
	})
	if err != nil {
		e.log.Error("marshal search request", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaSearchURL, bytes.NewReader(body))
	if err != nil {
		e.log.Error("create search request", "error", err)
		return nil
	}
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Error("exa search", "query", query, "error", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		e.log.Error("exa search", "query", query, "status", resp.StatusCode, "body", string(snippet))
		return nil
	}

	var parsed exaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10*1024*1024)).Decode(&parsed); err != nil {
		e.log.Error("decode exa response", "query", query, "error", err)
		return nil
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		url := r.URL
		if url == "" {
			url = r.ID
		}
		text := r.Text
		if text == "" {
			text = r.Content
		}
		if text == "" {
			text = r.Summary
		}
		results = append(results, Result{
			Title:     r.Title,
			URL:       url,
			Text:      text,
			Published: r.PublishedDate,
		})
	}
	return results
}

var _ Provider = (*Exa)(nil)
