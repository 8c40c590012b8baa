// Package server provides the HTTP API: coverage listing, manual pipeline
// runs, quote ingestion, and notification settings.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"quotewatch/internal/importer"
	"quotewatch/internal/model"
	"quotewatch/internal/storage"
)

// sentinelUser is the single-tenant user ID used for hit read tracking.
const sentinelUser = "00000000-0000-0000-0000-000000000000"

// CoverageRunner exposes the pipeline entry points the API forwards to.
type CoverageRunner interface {
	RunDue(ctx context.Context, limit int) int
	RunForQuote(ctx context.Context, q *model.Quote) bool
}

// Config holds HTTP server settings.
type Config struct {
	ListenAddr  string
	RunDueLimit int
	Sheets      importer.SheetsConfig
}

// Server is the HTTP API.
type Server struct {
	echo     *echo.Echo
	store    storage.Storage
	runner   CoverageRunner
	importer *importer.Importer
	cfg      Config
	log      *slog.Logger
}

// New creates the HTTP server and registers all routes.
func New(store storage.Storage, runner CoverageRunner, imp *importer.Importer, cfg Config, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		store:    store,
		runner:   runner,
		importer: imp,
		cfg:      cfg,
		log:      log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")

	cov := v1.Group("/coverage")
	cov.GET("", s.handleListCoverage)
	cov.POST("/run-due", s.handleRunDue)
	cov.POST("/run/:id", s.handleRunQuote)
	cov.GET("/quotes", s.handleListQuotes)
	cov.DELETE("/quotes/:id", s.handleDeleteQuote)
	cov.POST("/hits/:id/read", s.handleMarkRead)
	cov.GET("/r/:id", s.handleOpenHit)

	v1.GET("/settings", s.handleGetSettings)
	v1.PUT("/settings", s.handlePutSettings)

	ingest := v1.Group("/ingest")
	ingest.POST("/paste", s.handlePasteImport)
	ingest.POST("/sheets/sync", s.handleSheetsSync)
}

// Start starts the HTTP server, blocking until it fails or is shut down.
func (s *Server) Start() error {
	return s.echo.Start(s.cfg.ListenAddr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
