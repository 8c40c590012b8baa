package importer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"quotewatch/internal/model"
	"quotewatch/internal/storage"
)

// SheetsConfig holds the Google Sheets import settings.
type SheetsConfig struct {
	// SpreadsheetID identifies the sheet to sync from.
	SpreadsheetID string
	// ServiceAccountJSON is the service-account credential, either raw
	// JSON or base64-encoded JSON.
	ServiceAccountJSON string
}

// SheetsResult summarizes a sheet sync. Status is "ok" on success and a
// human-readable reason when the importer is unconfigured or the sheet
// could not be read; sync never fails hard on configuration problems.
type SheetsResult struct {
	Result
	Status string `json:"status"`
}

// SyncSheets reads the first worksheet and upserts one quote per row.
// The header row must name a client column and a quote column; rows are
// keyed by spreadsheet ID and row number so re-syncs update in place.
func (im *Importer) SyncSheets(ctx context.Context, cfg SheetsConfig) SheetsResult {
	creds, err := decodeServiceAccount(cfg.ServiceAccountJSON)
	if err != nil {
		return SheetsResult{Status: err.Error()}
	}
	if cfg.SpreadsheetID == "" {
		return SheetsResult{Status: "missing GOOGLE_SHEETS_ID"}
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsJSON(creds),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		im.log.Error("create sheets service", "error", err)
		return SheetsResult{Status: fmt.Sprintf("sheets service: %v", err)}
	}

	resp, err := svc.Spreadsheets.Values.Get(cfg.SpreadsheetID, "A:Z").Context(ctx).Do()
	if err != nil {
		im.log.Error("read sheet", "sheet_id", cfg.SpreadsheetID, "error", err)
		return SheetsResult{Status: fmt.Sprintf("read sheet: %v", err)}
	}
	if len(resp.Values) < 2 {
		return SheetsResult{Status: "ok"}
	}

	clientCol, quoteCol := headerColumns(resp.Values[0])
	if clientCol == -1 || quoteCol == -1 {
		return SheetsResult{Status: "missing client or quote column in header row"}
	}

	res := SheetsResult{Status: "ok"}
	var created []*model.Quote
	for i, row := range resp.Values[1:] {
		rowNum := i + 2
		client := strings.TrimSpace(cellAt(row, clientCol))
		text := strings.TrimSpace(cellAt(row, quoteCol))
		if client == "" || text == "" {
			res.Skipped++
			continue
		}
		rowID := fmt.Sprintf("%s:%d", cfg.SpreadsheetID, rowNum)

		q, err := im.upsertSheetRow(ctx, rowID, client, text, &res)
		if err != nil {
			im.log.Error("upsert sheet row", "row", rowNum, "error", err)
			res.Skipped++
			continue
		}
		if q != nil {
			created = append(created, q)
		}
	}

	im.embedNew(ctx, created)
	return res
}

// upsertSheetRow updates the quote bound to a sheet row, falling back to
// the (client, text) key for rows imported before row tracking. Returns
// the quote only when it was newly created.
func (im *Importer) upsertSheetRow(ctx context.Context, rowID, client, text string, res *SheetsResult) (*model.Quote, error) {
	q, err := im.store.GetQuoteBySheetRow(ctx, rowID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if q == nil {
		q, err = im.store.GetQuoteByKey(ctx, client, text)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	if q == nil {
		q = &model.Quote{
			ClientName: client,
			QuoteText:  text,
			State:      model.StateActiveHourly,
			SheetRowID: rowID,
		}
		if err := im.store.CreateQuote(ctx, q); err != nil {
			return nil, err
		}
		res.Inserted++
		return q, nil
	}

	if q.ClientName != client || q.QuoteText != text || q.SheetRowID != rowID {
		q.ClientName = client
		q.QuoteText = text
		q.SheetRowID = rowID
		if err := im.store.UpdateQuote(ctx, q); err != nil {
			return nil, err
		}
		res.Updated++
	}
	return nil, nil
}

func decodeServiceAccount(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("missing GOOGLE_SERVICE_ACCOUNT_JSON")
	}
	if strings.HasPrefix(raw, "{") {
		if !json.Valid([]byte(raw)) {
			return nil, errors.New("invalid GOOGLE_SERVICE_ACCOUNT_JSON")
		}
		return []byte(raw), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || !json.Valid(decoded) {
		return nil, errors.New("invalid GOOGLE_SERVICE_ACCOUNT_JSON")
	}
	return decoded, nil
}

// headerColumns finds the client and quote columns, matching header names
// loosely ("Client", "client_name", "Quote", "quote_text", ...).
func headerColumns(header []any) (clientCol, quoteCol int) {
	clientCol, quoteCol = -1, -1
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(fmt.Sprint(cell)))
		switch {
		case clientCol == -1 && strings.Contains(name, "client"):
			clientCol = i
		case quoteCol == -1 && strings.Contains(name, "quote"):
			quoteCol = i
		}
	}
	return clientCol, quoteCol
}

func cellAt(row []any, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return fmt.Sprint(row[col])
}
