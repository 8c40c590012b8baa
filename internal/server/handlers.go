package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"quotewatch/internal/importer"
	"quotewatch/internal/model"
	"quotewatch/internal/storage"
)

type runDueResponse struct {
	Processed int `json:"processed"`
}

func (s *Server) handleRunDue(c echo.Context) error {
	limit := s.cfg.RunDueLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	processed := s.runner.RunDue(c.Request().Context(), limit)
	return c.JSON(http.StatusOK, runDueResponse{Processed: processed})
}

type runQuoteResponse struct {
	Found bool `json:"found"`
}

func (s *Server) handleRunQuote(c echo.Context) error {
	q, err := s.store.GetQuote(c.Request().Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "quote not found")
	}
	if err != nil {
		s.log.Error("get quote", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "get quote")
	}
	found := s.runner.RunForQuote(c.Request().Context(), q)
	return c.JSON(http.StatusOK, runQuoteResponse{Found: found})
}

type hitResponse struct {
	ID         int64      `json:"id"`
	QuoteID    *string    `json:"quote_id"`
	ClientName string     `json:"client_name"`
	URL        string     `json:"url"`
	Domain     string     `json:"domain"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	MatchType  string     `json:"match_type"`
	Confidence float64    `json:"confidence"`
	Markdown   string     `json:"markdown"`
	CreatedAt  time.Time  `json:"created_at"`
	EmailedAt  *time.Time `json:"emailed_at"`
	IsRead     bool       `json:"is_read"`
}

func (s *Server) handleListCoverage(c echo.Context) error {
	f := storage.HitFilter{
		Client:  c.QueryParam("client"),
		NewOnly: c.QueryParam("new_only") == "true",
	}
	if raw := c.QueryParam("page"); raw != "" {
		f.Page, _ = strconv.Atoi(raw)
	}
	if raw := c.QueryParam("limit"); raw != "" {
		f.Limit, _ = strconv.Atoi(raw)
	}

	records, err := s.store.ListHits(c.Request().Context(), f)
	if err != nil {
		s.log.Error("list hits", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "list hits")
	}

	out := make([]hitResponse, 0, len(records))
	for _, r := range records {
		out = append(out, hitResponse{
			ID:         r.ID,
			QuoteID:    r.QuoteID,
			ClientName: r.ClientName,
			URL:        r.URL,
			Domain:     r.Domain,
			Title:      r.Title,
			Snippet:    r.Snippet,
			MatchType:  string(r.MatchType),
			Confidence: r.Confidence,
			Markdown:   r.Markdown,
			CreatedAt:  r.CreatedAt,
			EmailedAt:  r.EmailedAt,
			IsRead:     r.IsRead,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type quoteResponse struct {
	ID             string     `json:"id"`
	ClientName     string     `json:"client_name"`
	QuoteText      string     `json:"quote_text"`
	State          string     `json:"state"`
	AddedAt        time.Time  `json:"added_at"`
	FirstHitAt     *time.Time `json:"first_hit_at"`
	LastHitAt      *time.Time `json:"last_hit_at"`
	LastCheckedAt  *time.Time `json:"last_checked_at"`
	NextRunAt      *time.Time `json:"next_run_at"`
	HitCount       int        `json:"hit_count"`
	DaysWithoutHit int        `json:"days_without_hit"`
}

func (s *Server) handleListQuotes(c echo.Context) error {
	quotes, err := s.store.ListQuotes(c.Request().Context())
	if err != nil {
		s.log.Error("list quotes", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "list quotes")
	}
	out := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, quoteResponse{
			ID:             q.ID,
			ClientName:     q.ClientName,
			QuoteText:      q.QuoteText,
			State:          string(q.State),
			AddedAt:        q.AddedAt,
			FirstHitAt:     q.FirstHitAt,
			LastHitAt:      q.LastHitAt,
			LastCheckedAt:  q.LastCheckedAt,
			NextRunAt:      q.NextRunAt,
			HitCount:       q.HitCount,
			DaysWithoutHit: q.DaysWithoutHit,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteQuote(c echo.Context) error {
	if err := s.store.DeleteQuote(c.Request().Context(), c.Param("id")); err != nil {
		s.log.Error("delete quote", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "delete quote")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMarkRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hit id")
	}
	if err := s.store.MarkHitRead(c.Request().Context(), id, sentinelUser); err != nil {
		s.log.Error("mark hit read", "hit_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "mark read")
	}
	return c.NoContent(http.StatusNoContent)
}

// handleOpenHit marks a hit read and redirects to the article, backing the
// direct link embedded in notification emails.
func (s *Server) handleOpenHit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hit id")
	}
	hit, err := s.store.GetHit(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "hit not found")
	}
	if err != nil {
		s.log.Error("get hit", "hit_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "get hit")
	}
	if err := s.store.MarkHitRead(c.Request().Context(), id, sentinelUser); err != nil {
		s.log.Error("mark hit read", "hit_id", id, "error", err)
	}
	return c.Redirect(http.StatusFound, hit.URL)
}

type settingsPayload struct {
	EmailEnabled bool   `json:"email_enabled"`
	Emails       string `json:"emails"`
}

func (s *Server) handleGetSettings(c echo.Context) error {
	settings, err := s.store.GetSettings(c.Request().Context())
	if err != nil {
		s.log.Error("get settings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "get settings")
	}
	return c.JSON(http.StatusOK, settingsPayload{
		EmailEnabled: settings.EmailEnabled,
		Emails:       settings.Emails,
	})
}

func (s *Server) handlePutSettings(c echo.Context) error {
	var payload settingsPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	settings := &model.AppSettings{
		EmailEnabled: payload.EmailEnabled,
		Emails:       payload.Emails,
	}
	if err := s.store.SaveSettings(c.Request().Context(), settings); err != nil {
		s.log.Error("save settings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "save settings")
	}
	return c.JSON(http.StatusOK, payload)
}

type pasteRequest struct {
	Items []importer.PasteItem `json:"items"`
}

func (s *Server) handlePasteImport(c echo.Context) error {
	var req pasteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := s.importer.ImportPaste(c.Request().Context(), req.Items)
	if err != nil {
		s.log.Error("paste import", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "paste import")
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleSheetsSync(c echo.Context) error {
	res := s.importer.SyncSheets(c.Request().Context(), s.cfg.Sheets)
	return c.JSON(http.StatusOK, res)
}
