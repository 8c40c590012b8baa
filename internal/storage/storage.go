// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"quotewatch/internal/model"
)

// ErrDuplicateURL is returned by CreateHit when a hit with the same URL
// already exists. Two overlapping runs may race on the same article; the
// unique index makes the loser's insert a no-op and callers treat this
// error as benign.
var ErrDuplicateURL = errors.New("hit with this URL already exists")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// HitFilter narrows ListHits results.
type HitFilter struct {
	Client  string
	NewOnly bool
	Page    int
	Limit   int
}

// HitRecord is a hit together with its read state for the sentinel user.
type HitRecord struct {
	model.Hit
	IsRead bool
}

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateQuote(ctx context.Context, q *model.Quote) error
	GetQuote(ctx context.Context, id string) (*model.Quote, error)
	GetQuoteByKey(ctx context.Context, clientName, quoteText string) (*model.Quote, error)
	GetQuoteBySheetRow(ctx context.Context, sheetRowID string) (*model.Quote, error)
	ListQuotes(ctx context.Context) ([]model.Quote, error)
	ListDueQuotes(ctx context.Context, now time.Time, limit int) ([]model.Quote, error)
	UpdateQuote(ctx context.Context, q *model.Quote) error
	DeleteQuote(ctx context.Context, id string) error

	CreateHit(ctx context.Context, h *model.Hit) error
	GetHit(ctx context.Context, id int64) (*model.Hit, error)
	HitURLExists(ctx context.Context, url string) (bool, error)
	ListHits(ctx context.Context, f HitFilter) ([]HitRecord, error)
	SetHitEmailed(ctx context.Context, id int64, at time.Time) error
	MarkHitRead(ctx context.Context, hitID int64, userID string) error

	GetSettings(ctx context.Context) (*model.AppSettings, error)
	SaveSettings(ctx context.Context, s *model.AppSettings) error

	Close() error
}
