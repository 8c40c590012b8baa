package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const googleNewsBase = "https://news.google.com/rss/search"

// GoogleNews searches Google News through its public RSS search endpoint.
// It needs no credentials, which makes it the degraded-mode provider when
// no Exa key is configured. Results carry only headline and description
// text, so exact-substring matches are rare and most candidates go through
// the fuzzy tiers.
type GoogleNews struct {
	client  HTTPClient
	log     *slog.Logger
	timeout time.Duration
}

// NewGoogleNews creates a Google News RSS provider.
func NewGoogleNews(client HTTPClient, log *slog.Logger) *GoogleNews {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleNews{
		client:  client,
		log:     log,
		timeout: 30 * time.Second,
	}
}

// QueryURL builds the RSS search URL for a query.
func (g *GoogleNews) QueryURL(query string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("hl", "en-US")
	v.Set("gl", "US")
	v.Set("ceid", "US:en")
	return googleNewsBase + "?" + v.Encode()
}

// Search fetches and parses the RSS search feed. Any failure degrades to an
// empty result set.
func (g *GoogleNews) Search(ctx context.Context, query string, numResults int) []Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.QueryURL(query), nil)
	if err != nil {
		g.log.Error("create news request", "error", err)
		return nil
	}
	req.Header.Set("User-Agent", "quotewatch/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("fetch news feed", "query", query, "error", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		g.log.Error("fetch news feed", "query", query, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		g.log.Error("read news feed", "query", query, "error", err)
		return nil
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		g.log.Error("parse news feed", "query", query, "error", err)
		return nil
	}

	var results []Result
	for _, item := range feed.Items {
		if len(results) >= numResults {
			break
		}
		results = append(results, Result{
			Title:     item.Title,
			URL:       item.Link,
			Text:      newsItemText(item),
			Published: item.Published,
		})
	}
	return results
}

// newsItemText joins headline and description; descriptions come back as
// HTML snippets, so tags are stripped crudely before matching.
func newsItemText(item *gofeed.Item) string {
	text := item.Title
	if item.Description != "" {
		text = fmt.Sprintf("%s. %s", item.Title, stripTags(item.Description))
	}
	return text
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

var _ Provider = (*GoogleNews)(nil)
