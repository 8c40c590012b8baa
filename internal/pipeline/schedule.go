package pipeline

import (
	"time"

	"quotewatch/internal/model"
)

// Re-check cadences per quote state. Quotes that keep missing expire to a
// weekly cadence after expireAfterDays consecutive days without a hit.
const (
	hourlyInterval    = time.Hour
	dailyInterval     = 24 * time.Hour
	weeklyInterval    = 7 * 24 * time.Hour
	quarterlyInterval = 90 * 24 * time.Hour
	defaultInterval   = 6 * time.Hour

	// promoteAfter is how long after the first hit a daily quote slows to
	// the quarterly cadence.
	promoteAfter = 7 * 24 * time.Hour

	expireAfterDays = 90
)

// ComputeNextRun returns the next check time for a quote in the given
// state. For ACTIVE_DAILY_7D quotes whose first hit is older than seven
// days, only the computed interval becomes quarterly; the state label is
// deliberately left at ACTIVE_DAILY_7D (state records track record, the
// interval reflects the current cadence). Unrecognized states get a
// defensive six-hour default.
func ComputeNextRun(state model.QuoteState, firstHitAt *time.Time, now time.Time) time.Time {
	switch state {
	case model.StateActiveHourly:
		return now.Add(hourlyInterval)
	case model.StateActiveDaily7d:
		if firstHitAt != nil && now.Sub(*firstHitAt) >= promoteAfter {
			return now.Add(quarterlyInterval)
		}
		return now.Add(dailyInterval)
	case model.StateActiveQuarterly:
		return now.Add(quarterlyInterval)
	case model.StateExpiredWeekly:
		return now.Add(weeklyInterval)
	default:
		return now.Add(defaultInterval)
	}
}

// ApplyHit records a confirmed hit on the quote: stamps first_hit_at once
// (moving the quote off the hourly state), bumps the hit counter, and
// resets the dry spell.
func ApplyHit(q *model.Quote, now time.Time) {
	if q.FirstHitAt == nil {
		t := now
		q.FirstHitAt = &t
		q.State = model.StateActiveDaily7d
	}
	t := now
	q.LastHitAt = &t
	q.HitCount++
	q.DaysWithoutHit = 0
}

// ApplyMiss records a run that found nothing: the dry spell grows and the
// quote expires to the weekly cadence once it reaches expireAfterDays,
// regardless of prior state.
func ApplyMiss(q *model.Quote) {
	q.DaysWithoutHit++
	if q.DaysWithoutHit >= expireAfterDays {
		q.State = model.StateExpiredWeekly
	}
}
