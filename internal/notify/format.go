package notify

import (
	"fmt"
	"strings"

	"quotewatch/internal/model"
)

const snippetLimit = 280

// FormatHitEmail builds the subject and body of a hit notification email.
func FormatHitEmail(hit *model.Hit, uiBaseURL, apiBaseURL string) (subject, body string) {
	title := hit.Title
	if title == "" {
		title = hit.URL
	}
	subject = fmt.Sprintf("Coverage: %s — %s", hit.Domain, title)

	snippet := hit.Snippet
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Outlet: %s\n", hit.Domain)
	fmt.Fprintf(&b, "Title: %s\n", hit.Title)
	fmt.Fprintf(&b, "Client: %s\n", hit.ClientName)
	fmt.Fprintf(&b, "Match: %s\n", hit.MatchType)
	fmt.Fprintf(&b, "Snippet: %s\n", snippet)
	fmt.Fprintf(&b, "Open: %s/api/v1/coverage/r/%d\n", apiBaseURL, hit.ID)
	fmt.Fprintf(&b, "Coverage List: %s/coverage\n", uiBaseURL)
	return subject, b.String()
}

// FormatHitAlert formats a hit as a short Telegram alert message.
func FormatHitAlert(hit *model.Hit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] coverage for %s\n\n", hit.Domain, hit.ClientName)
	if hit.Title != "" {
		b.WriteString(hit.Title)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Match: %s (%.2f)\n", hit.MatchType, hit.Confidence)
	b.WriteString(hit.URL)
	return b.String()
}
