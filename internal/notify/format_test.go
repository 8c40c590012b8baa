package notify

import (
	"strings"
	"testing"

	"quotewatch/internal/model"
)

func TestFormatHitEmail(t *testing.T) {
	hit := &model.Hit{
		ID:         42,
		ClientName: "Acme",
		URL:        "https://example.com/story",
		Domain:     "example.com",
		Title:      "Acme expands",
		Snippet:    "Acme said it will expand.",
		MatchType:  model.MatchExact,
	}

	subject, body := FormatHitEmail(hit, "https://ui.example.com", "https://api.example.com")

	if want := "Coverage: example.com — Acme expands"; subject != want {
		t.Errorf("subject = %q, want %q", subject, want)
	}
	for _, want := range []string{
		"Outlet: example.com\n",
		"Title: Acme expands\n",
		"Client: Acme\n",
		"Match: exact\n",
		"Snippet: Acme said it will expand.\n",
		"Open: https://api.example.com/api/v1/coverage/r/42\n",
		"Coverage List: https://ui.example.com/coverage\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestFormatHitEmailFallbacksAndTruncation(t *testing.T) {
	hit := &model.Hit{
		ID:      7,
		URL:     "https://example.com/untitled",
		Domain:  "example.com",
		Snippet: strings.Repeat("long ", 100),
	}

	subject, body := FormatHitEmail(hit, "", "")
	if !strings.Contains(subject, hit.URL) {
		t.Errorf("subject %q does not fall back to URL", subject)
	}
	if strings.Contains(body, hit.Snippet) {
		t.Error("snippet was not truncated")
	}
}

func TestFormatHitAlert(t *testing.T) {
	hit := &model.Hit{
		ClientName: "Acme",
		URL:        "https://example.com/story",
		Domain:     "example.com",
		Title:      "Acme expands",
		MatchType:  model.MatchParaphrase,
		Confidence: 0.85,
	}

	got := FormatHitAlert(hit)
	for _, want := range []string{
		"[example.com] coverage for Acme",
		"Acme expands",
		"Match: paraphrase (0.85)",
		"https://example.com/story",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("alert missing %q:\n%s", want, got)
		}
	}
}
