// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
)

// QuoteState defines the scheduling state of a watched quote.
type QuoteState string

// Quote lifecycle states. A quote starts ACTIVE_HOURLY and moves to
// ACTIVE_DAILY_7D on its first confirmed hit. EXPIRED_WEEKLY is entered
// after 90 consecutive days without a hit; expired quotes still get
// re-checked, just rarely.
const (
	StateActiveHourly    QuoteState = "ACTIVE_HOURLY"
	StateActiveDaily7d   QuoteState = "ACTIVE_DAILY_7D"
	StateActiveQuarterly QuoteState = "ACTIVE_QUARTERLY"
	StateExpiredWeekly   QuoteState = "EXPIRED_WEEKLY"
)

// MatchType classifies how a quote appeared in an article.
type MatchType string

// Supported match types. MatchNone is an adjudicator-internal verdict and
// never reaches persistence.
const (
	MatchExact      MatchType = "exact"
	MatchPartial    MatchType = "partial"
	MatchParaphrase MatchType = "paraphrase"
	MatchNone       MatchType = "no_match"
)

// Vector is a fixed-dimension embedding of a piece of text.
type Vector []float32

// Quote represents a client utterance being monitored for press pickup.
type Quote struct {
	ID             string
	ClientName     string
	QuoteText      string
	State          QuoteState
	SheetRowID     string
	AddedAt        time.Time
	FirstHitAt     *time.Time
	LastHitAt      *time.Time
	LastCheckedAt  *time.Time
	NextRunAt      *time.Time
	HitCount       int
	DaysWithoutHit int
	QuoteEmb       Vector
}

// Hit represents one confirmed appearance of a quote in a published
// article. QuoteID is nullable: a hit can exist without an originating
// quote. URL is globally unique and acts as the dedup key.
type Hit struct {
	ID          int64
	QuoteID     *string
	ClientName  string
	URL         string
	Domain      string
	Title       string
	Snippet     string
	PublishedAt *time.Time
	MatchType   MatchType
	Confidence  float64
	Markdown    string
	CreatedAt   time.Time
	EmailedAt   *time.Time
}

// AppSettings is the singleton record controlling hit-notification emails.
type AppSettings struct {
	EmailEnabled bool
	Emails       string
	UpdatedAt    time.Time
}

// Recipients parses the comma-separated recipient list, dropping blanks.
func (s *AppSettings) Recipients() []string {
	var out []string
	for _, e := range strings.Split(s.Emails, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
