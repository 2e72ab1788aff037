// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/docrelay/internal/history"
	"github.com/pdiddy/docrelay/internal/pipeline"
	"github.com/pdiddy/docrelay/pkg/types"
)

// Runner runs one pipeline.
type Runner interface {
	Run(ctx context.Context, docs []types.DocumentRef) pipeline.Result
}

// Journal lists recorded runs.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// Handler wires HTTP routes to the pipeline.
type Handler struct {
	runner  Runner
	journal Journal
	logger  *slog.Logger
}

// NewHandler constructs a Handler. journal may be nil, in which case the
// runs endpoint answers 404.
func NewHandler(r Runner, j Journal, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: r, journal: j, logger: logger}
}

// NewRouter returns a gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog())
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)
	api := router.Group("/api/v1")
	api.POST("/convert", h.convert)
	api.GET("/runs", h.runs)
}

type convertRequest struct {
	Documents []types.DocumentRef `json:"documents"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// A client disconnect must not abort a run between upload and cleanup.
	res := h.runner.Run(context.WithoutCancel(c.Request.Context()), req.Documents)
	c.JSON(statusFor(res), res)
}

func statusFor(res pipeline.Result) int {
	switch {
	case res.OK():
		return http.StatusOK
	case res.Kind == pipeline.KindInput:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

type runView struct {
	RunID      string   `json:"run_id"`
	Document   string   `json:"document"`
	State      string   `json:"state"`
	Kind       string   `json:"kind,omitempty"`
	Message    string   `json:"message,omitempty"`
	FileID     string   `json:"file_id,omitempty"`
	Stages     []string `json:"stages,omitempty"`
	Pages      int      `json:"pages,omitempty"`
	Started    string   `json:"started"`
	DurationMS int64    `json:"duration_ms"`
}

func (h *Handler) runs(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history journal is disabled"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing runs failed"})
		return
	}

	out := make([]runView, 0, len(records))
	for _, r := range records {
		out = append(out, runView{
			RunID:      r.RunID,
			Document:   r.Document,
			State:      r.State,
			Kind:       r.Kind,
			Message:    r.Message,
			FileID:     r.FileID,
			Stages:     r.Stages,
			Pages:      r.Pages,
			Started:    r.Started.Format(time.RFC3339),
			DurationMS: r.Duration.Milliseconds(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
