// Package admin exposes the import endpoints: merge previews, single-game
// commits, offline bundle imports and live catalog imports. Routes are
// meant to be mounted behind auth.AdminOnly.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"commenttogame/internal/gamemerge"
	"commenttogame/internal/logging"
	"commenttogame/internal/metrics"
	"commenttogame/internal/persist"
	"commenttogame/internal/scraper"
	"commenttogame/pkg/models"
)

const defaultImportTimeout = 5 * time.Minute

type importRequest struct {
	Games []gamemerge.Input `json:"games" validate:"required,min=1,max=500,dive"`
}

type searchImportRequest struct {
	Titles []string `json:"titles" validate:"required,min=1,max=50,dive,required"`
}

type Handler struct {
	Service    *persist.Service
	Aggregator *scraper.Aggregator // nil when no catalog is configured

	// Timeout bounds batch imports; zero means five minutes.
	Timeout time.Duration

	validate *validator.Validate
}

func NewHandler(svc *persist.Service, agg *scraper.Aggregator, timeout time.Duration) *Handler {
	return &Handler{
		Service:    svc,
		Aggregator: agg,
		Timeout:    timeout,
		validate:   NewValidator(),
	}
}

// NewValidator returns a validator that also rejects merge inputs with
// neither catalog record.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(gamemerge.Input)
		if in.IGDB == nil && in.RAWG == nil {
			sl.ReportError(in.IGDB, "igdb", "IGDB", "required_without_rawg", "")
		}
	}, gamemerge.Input{})
	return v
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/games/preview", h.preview)            // POST /admin/games/preview
	rg.POST("/games/commit", h.commit)              // POST /admin/games/commit
	rg.POST("/games/import", h.importBundles)       // POST /admin/games/import
	rg.POST("/games/search-import", h.searchImport) // POST /admin/games/search-import
}

func (h *Handler) bindInput(c *gin.Context) (gamemerge.Input, bool) {
	var in gamemerge.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return in, false
	}
	if err := h.validate.Struct(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "igdb or rawg record required"})
		return in, false
	}
	return in, true
}

func merge(in gamemerge.Input) models.CanonicalGame {
	start := time.Now()
	defer metrics.ObserveMerge(start)
	return gamemerge.Merge(in)
}

func (h *Handler) preview(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, merge(in))
}

func (h *Handler) commit(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}
	g := merge(in)

	id, err := h.Service.UpsertOne(c.Request.Context(), g)
	if err != nil {
		var ce *persist.ConflictError
		switch {
		case errors.Is(err, persist.ErrBlankName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		case errors.As(err, &ce):
			c.JSON(http.StatusConflict, gin.H{"error": ce.Error(), "index": ce.Index, "field": ce.Field})
		default:
			log := logging.With("admin")
			log.Error().Err(err).Str("name", g.Name).Msg("commit failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "commit failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "name": g.Name})
}

func (h *Handler) importBundles(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	games := make([]models.CanonicalGame, len(req.Games))
	for i, in := range req.Games {
		games[i] = merge(in)
	}

	ctx, cancel := h.importContext(c)
	defer cancel()
	report, err := h.Service.UpsertMany(ctx, games)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "import interrupted", "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) searchImport(c *gin.Context) {
	if h.Aggregator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no catalog configured"})
		return
	}
	var req searchImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	ctx, cancel := h.importContext(c)
	defer cancel()

	games, failures, err := h.Aggregator.FetchAndMerge(ctx, req.Titles)
	if err != nil {
		// Titles merged before the interruption are still stored.
		report, _ := h.Service.UpsertMany(context.WithoutCancel(ctx), games)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "fetch interrupted", "report": report, "fetch_failures": failures})
		return
	}
	report, err := h.Service.UpsertMany(ctx, games)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "import interrupted", "report": report, "fetch_failures": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "fetch_failures": failures})
}

func (h *Handler) importContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultImportTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
