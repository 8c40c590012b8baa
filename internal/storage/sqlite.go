package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"quotewatch/internal/model"
	"quotewatch/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers anyway, and a single connection keeps
	// in-memory databases from being one-per-connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const quoteColumns = `id, client_name, quote_text, state, sheet_row_id, added_at,
	first_hit_at, last_hit_at, last_checked_at, next_run_at,
	hit_count, days_without_hit, quote_emb`

// CreateQuote inserts a new quote, generating its ID and AddedAt if unset.
func (s *SQLite) CreateQuote(ctx context.Context, q *model.Quote) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.State == "" {
		q.State = model.StateActiveHourly
	}
	if q.AddedAt.IsZero() {
		q.AddedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quotes (`+quoteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.ClientName, q.QuoteText, string(q.State), q.SheetRowID,
		q.AddedAt.UTC().Format(timeLayout),
		formatNullTime(q.FirstHitAt), formatNullTime(q.LastHitAt),
		formatNullTime(q.LastCheckedAt), formatNullTime(q.NextRunAt),
		q.HitCount, q.DaysWithoutHit, encodeVector(q.QuoteEmb),
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// GetQuote returns a single quote by its ID.
func (s *SQLite) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)
	return scanQuote(row)
}

// GetQuoteByKey returns the quote for a (client, text) pair. Client name
// matching is case-insensitive, mirroring the importer's upsert key.
func (s *SQLite) GetQuoteByKey(ctx context.Context, clientName, quoteText string) (*model.Quote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE lower(client_name) = lower(?) AND quote_text = ?`,
		clientName, quoteText)
	return scanQuote(row)
}

// GetQuoteBySheetRow returns the quote imported from the given sheet row.
func (s *SQLite) GetQuoteBySheetRow(ctx context.Context, sheetRowID string) (*model.Quote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE sheet_row_id = ?`, sheetRowID)
	return scanQuote(row)
}

// ListQuotes returns all watched quotes ordered by creation time.
func (s *SQLite) ListQuotes(ctx context.Context) ([]model.Quote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes ORDER BY added_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanQuotes(rows)
}

// ListDueQuotes returns at most limit quotes whose next check time has
// arrived or is unset, NULLs first then by next_run_at ascending.
func (s *SQLite) ListDueQuotes(ctx context.Context, now time.Time, limit int) ([]model.Quote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes
		 WHERE next_run_at IS NULL OR next_run_at <= ?
		 ORDER BY next_run_at IS NOT NULL, next_run_at
		 LIMIT ?`,
		now.UTC().Format(timeLayout), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanQuotes(rows)
}

// UpdateQuote persists changes to an existing quote.
func (s *SQLite) UpdateQuote(ctx context.Context, q *model.Quote) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE quotes SET client_name = ?, quote_text = ?, state = ?, sheet_row_id = ?,
		 first_hit_at = ?, last_hit_at = ?, last_checked_at = ?, next_run_at = ?,
		 hit_count = ?, days_without_hit = ?, quote_emb = ?
		 WHERE id = ?`,
		q.ClientName, q.QuoteText, string(q.State), q.SheetRowID,
		formatNullTime(q.FirstHitAt), formatNullTime(q.LastHitAt),
		formatNullTime(q.LastCheckedAt), formatNullTime(q.NextRunAt),
		q.HitCount, q.DaysWithoutHit, encodeVector(q.QuoteEmb), q.ID,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	return nil
}

// DeleteQuote removes a quote along with its hits and their read marks.
func (s *SQLite) DeleteQuote(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM hit_reads WHERE hit_id IN (SELECT id FROM hits WHERE quote_id = ?)`, id); err != nil {
		return fmt.Errorf("delete hit_reads: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM hits WHERE quote_id = ?`, id); err != nil {
		return fmt.Errorf("delete hits: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	return tx.Commit()
}

// CreateHit inserts a new hit and populates its ID and CreatedAt.
// Returns ErrDuplicateURL when a hit with the same URL already exists.
func (s *SQLite) CreateHit(ctx context.Context, h *model.Hit) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO hits
		 (quote_id, client_name, url, domain, title, snippet, published_at,
		  match_type, confidence, markdown, created_at, emailed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.QuoteID, h.ClientName, h.URL, h.Domain, h.Title, h.Snippet,
		formatNullTime(h.PublishedAt), string(h.MatchType), h.Confidence,
		h.Markdown, h.CreatedAt.UTC().Format(timeLayout), formatNullTime(h.EmailedAt),
	)
	if err != nil {
		return fmt.Errorf("insert hit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrDuplicateURL
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	h.ID = id
	return nil
}

const hitColumns = `id, quote_id, client_name, url, domain, title, snippet,
	published_at, match_type, confidence, markdown, created_at, emailed_at`

// GetHit returns a single hit by its ID.
func (s *SQLite) GetHit(ctx context.Context, id int64) (*model.Hit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+hitColumns+` FROM hits WHERE id = ?`, id)
	h, err := scanHit(row)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// HitURLExists reports whether any hit already covers the given URL.
func (s *SQLite) HitURLExists(ctx context.Context, url string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hits WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check hit url: %w", err)
	}
	return count > 0, nil
}

// ListHits returns hits newest first, with the read flag for the sentinel
// user, optionally filtered by client and read state.
func (s *SQLite) ListHits(ctx context.Context, f HitFilter) ([]HitRecord, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	query := `SELECT h.id, h.quote_id, h.client_name, h.url, h.domain, h.title, h.snippet,
		h.published_at, h.match_type, h.confidence, h.markdown, h.created_at, h.emailed_at,
		r.hit_id IS NOT NULL
		FROM hits h LEFT JOIN hit_reads r ON r.hit_id = h.id
		WHERE 1 = 1`
	var args []any
	if f.Client != "" {
		query += ` AND h.client_name = ?`
		args = append(args, f.Client)
	}
	if f.NewOnly {
		query += ` AND r.hit_id IS NULL`
	}
	query += ` ORDER BY h.created_at DESC, h.id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []HitRecord
	for rows.Next() {
		var rec HitRecord
		var quoteID, publishedAt, emailedAt sql.NullString
		var matchType, createdAt string
		var isRead int
		err := rows.Scan(&rec.ID, &quoteID, &rec.ClientName, &rec.URL, &rec.Domain,
			&rec.Title, &rec.Snippet, &publishedAt, &matchType, &rec.Confidence,
			&rec.Markdown, &createdAt, &emailedAt, &isRead)
		if err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		if quoteID.Valid {
			rec.QuoteID = &quoteID.String
		}
		rec.PublishedAt = parseNullTime(publishedAt)
		rec.EmailedAt = parseNullTime(emailedAt)
		rec.MatchType = model.MatchType(matchType)
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		rec.IsRead = isRead == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SetHitEmailed records the time a hit notification email went out.
func (s *SQLite) SetHitEmailed(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE hits SET emailed_at = ? WHERE id = ?`,
		at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("set hit emailed: %w", err)
	}
	return nil
}

// MarkHitRead records that a user has seen a hit. Repeated marks are no-ops.
func (s *SQLite) MarkHitRead(ctx context.Context, hitID int64, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO hit_reads (hit_id, user_id, read_at) VALUES (?, ?, ?)`,
		hitID, userID, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("mark hit read: %w", err)
	}
	return nil
}

// GetSettings returns the settings singleton, or disabled defaults when the
// row has never been written.
func (s *SQLite) GetSettings(ctx context.Context) (*model.AppSettings, error) {
	var out model.AppSettings
	var enabled int
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT email_enabled, emails, updated_at FROM app_settings WHERE id = 1`,
	).Scan(&enabled, &out.Emails, &updated)
	if err == sql.ErrNoRows {
		return &model.AppSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	out.EmailEnabled = enabled == 1
	out.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &out, nil
}

// SaveSettings upserts the settings singleton.
func (s *SQLite) SaveSettings(ctx context.Context, set *model.AppSettings) error {
	set.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_settings (id, email_enabled, emails, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET email_enabled = excluded.email_enabled,
		 emails = excluded.emails, updated_at = excluded.updated_at`,
		boolToInt(set.EmailEnabled), set.Emails, set.UpdatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatNullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// encodeVector serializes an embedding as little-endian float32s.
func encodeVector(v model.Vector) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) model.Vector {
	if len(buf) < 4 {
		return nil
	}
	v := make(model.Vector, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}

type scannable interface {
	Scan(dest ...any) error
}

func scanQuote(row scannable) (*model.Quote, error) {
	var q model.Quote
	var state, added string
	var firstHit, lastHit, lastChecked, nextRun sql.NullString
	var emb []byte
	err := row.Scan(&q.ID, &q.ClientName, &q.QuoteText, &state, &q.SheetRowID, &added,
		&firstHit, &lastHit, &lastChecked, &nextRun,
		&q.HitCount, &q.DaysWithoutHit, &emb)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan quote: %w", err)
	}
	q.State = model.QuoteState(state)
	q.AddedAt, _ = time.Parse(timeLayout, added)
	q.FirstHitAt = parseNullTime(firstHit)
	q.LastHitAt = parseNullTime(lastHit)
	q.LastCheckedAt = parseNullTime(lastChecked)
	q.NextRunAt = parseNullTime(nextRun)
	q.QuoteEmb = decodeVector(emb)
	return &q, nil
}

func scanQuotes(rows *sql.Rows) ([]model.Quote, error) {
	var quotes []model.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

func scanHit(row scannable) (*model.Hit, error) {
	var h model.Hit
	var quoteID, publishedAt, emailedAt sql.NullString
	var matchType, createdAt string
	err := row.Scan(&h.ID, &quoteID, &h.ClientName, &h.URL, &h.Domain, &h.Title,
		&h.Snippet, &publishedAt, &matchType, &h.Confidence, &h.Markdown,
		&createdAt, &emailedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan hit: %w", err)
	}
	if quoteID.Valid {
		h.QuoteID = &quoteID.String
	}
	h.PublishedAt = parseNullTime(publishedAt)
	h.EmailedAt = parseNullTime(emailedAt)
	h.MatchType = model.MatchType(matchType)
	h.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &h, nil
}
