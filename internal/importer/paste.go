// Package importer ingests watched quotes from pasted lists and from a
// Google Sheets worksheet. New quotes start on the hourly cadence with a
// pre-computed quote embedding when the embedder is reachable.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quotewatch/internal/embedding"
	"quotewatch/internal/model"
	"quotewatch/internal/storage"
)

// Importer upserts quotes into storage.
type Importer struct {
	store    storage.Storage
	embedder embedding.Provider
	log      *slog.Logger
}

// New creates an Importer.
func New(store storage.Storage, embedder embedding.Provider, log *slog.Logger) *Importer {
	return &Importer{store: store, embedder: embedder, log: log}
}

// PasteItem is one pasted (client, quote) pair.
type PasteItem struct {
	ClientName string `json:"client_name"`
	QuoteText  string `json:"quote_text"`
}

// Result summarizes an import run.
type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// ImportPaste upserts pasted quotes, keyed by case-insensitive client name
// plus exact quote text. Existing quotes only get their client-name casing
// refreshed; new ones are created ACTIVE_HOURLY and due immediately.
func (im *Importer) ImportPaste(ctx context.Context, items []PasteItem) (Result, error) {
	var res Result
	var created []*model.Quote

	for _, item := range items {
		client := strings.TrimSpace(item.ClientName)
		text := strings.TrimSpace(item.QuoteText)
		if client == "" || text == "" {
			res.Skipped++
			continue
		}

		existing, err := im.store.GetQuoteByKey(ctx, client, text)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			q := &model.Quote{
				ClientName: client,
				QuoteText:  text,
				State:      model.StateActiveHourly,
			}
			if err := im.store.CreateQuote(ctx, q); err != nil {
				return res, fmt.Errorf("create quote: %w", err)
			}
			created = append(created, q)
			res.Inserted++
		case err != nil:
			return res, fmt.Errorf("lookup quote: %w", err)
		default:
			if existing.ClientName != client {
				existing.ClientName = client
				if err := im.store.UpdateQuote(ctx, existing); err != nil {
					return res, fmt.Errorf("update quote: %w", err)
				}
				res.Updated++
			}
		}
	}

	im.embedNew(ctx, created)
	return res, nil
}

// embedNew batch-embeds freshly created quotes, best effort: an embedding
// failure leaves the vector empty and the pipeline recomputes it later.
func (im *Importer) embedNew(ctx context.Context, quotes []*model.Quote) {
	if len(quotes) == 0 {
		return
	}
	texts := make([]string, len(quotes))
	for i, q := range quotes {
		texts[i] = q.QuoteText
	}
	vecs, err := im.embedder.EmbedTexts(ctx, texts)
	if err != nil || len(vecs) != len(quotes) {
		im.log.Warn("embed imported quotes", "count", len(quotes), "error", err)
		return
	}
	for i, q := range quotes {
		q.QuoteEmb = vecs[i]
		if err := im.store.UpdateQuote(ctx, q); err != nil {
			im.log.Error("store quote embedding", "quote_id", q.ID, "error", err)
		}
	}
}
