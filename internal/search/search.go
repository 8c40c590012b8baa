// Package search provides web search providers used to find candidate
// articles for coverage matching.
package search

import (
	"context"
	"net/http"
)

// Result is one candidate document returned by a search provider.
type Result struct {
	Title     string
	URL       string
	Text      string
	Published string
}

// Provider performs a web search for candidate articles. Implementations
// return an empty result set, never an error, when unconfigured or when the
// upstream service fails; search is a best-effort signal source.
type Provider interface {
	Search(ctx context.Context, query string, numResults int) []Result
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
