package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-community-alerts/internal/board"
	"github.com/mr1hm/go-community-alerts/internal/broadcast"
	"github.com/mr1hm/go-community-alerts/internal/locate"
	"github.com/mr1hm/go-community-alerts/internal/metrics"
	"github.com/mr1hm/go-community-alerts/internal/models"
	"github.com/mr1hm/go-community-alerts/internal/repository"
)

const (
	defaultArchiveLimit = 20
	maxArchiveLimit     = 500
)

// HistoryReader pages through archived alerts.
type HistoryReader interface {
	History(ctx context.Context, opts repository.Filter) ([]models.Alert, error)
}

type Handler struct {
	store       *board.Store
	broadcaster *broadcast.Broadcaster
	history     HistoryReader
	locator     locate.Locator
	metrics     *metrics.Metrics
}

func NewHandler(store *board.Store, broadcaster *broadcast.Broadcaster, history HistoryReader, locator locate.Locator, m *metrics.Metrics) *Handler {
	if locator == nil {
		locator = locate.Unavailable{}
	}
	if m == nil {
		m = metrics.NewForTesting()
	}
	return &Handler{
		store:       store,
		broadcaster: broadcaster,
		history:     history,
		locator:     locator,
		metrics:     m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/alerts", h.listAlerts)
	api.GET("/alerts/:id", h.getAlert)
	api.POST("/alerts", h.submitAlert)
	api.GET("/filters", h.getFilters)
	api.PUT("/filters", h.updateFilters)
	api.DELETE("/filters", h.clearFilters)
	api.GET("/map", h.getMap)
	api.GET("/location", h.getLocation)
	api.GET("/archive", h.getArchive)
	api.GET("/categories", h.getCategories)
	api.GET("/stream", h.streamEvents)
	api.GET("/ws", h.websocketEvents)
}

type alertResponse struct {
	models.Alert
	Display models.Display `json:"display"`
}

func toResponse(a models.Alert) alertResponse {
	return alertResponse{Alert: a, Display: a.Display()}
}

func toResponses(alerts []models.Alert) []alertResponse {
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toResponse(a))
	}
	return out
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func criteriaFromQuery(c *gin.Context) models.Criteria {
	return models.Criteria{
		Category: c.Query("category"),
		Severity: c.Query("severity"),
		Status:   c.Query("status"),
	}
}

func invalidCriteria(c *gin.Context, fields []string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "invalid filter value",
		"fields": fields,
	})
}

// listAlerts filters the full board without touching the shared criteria.
func (h *Handler) listAlerts(c *gin.Context) {
	criteria := criteriaFromQuery(c)
	if fields := criteria.Invalid(); len(fields) > 0 {
		invalidCriteria(c, fields)
		return
	}

	alerts := board.Filter(h.store.Alerts(), criteria)
	c.JSON(http.StatusOK, gin.H{
		"criteria": criteria.Normalize(),
		"alerts":   toResponses(alerts),
		"count":    len(alerts),
	})
}

func (h *Handler) getAlert(c *gin.Context) {
	alert, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, toResponse(alert))
}

func (h *Handler) submitAlert(c *gin.Context) {
	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := h.store.Submit(draft)
	if err != nil {
		var ve *board.ValidationError
		if errors.As(err, &ve) {
			h.metrics.RecordRejection(err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  ve.Error(),
				"fields": ve.Fields,
			})
			return
		}
		slog.Error("submit failed", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit alert"})
		return
	}

	c.JSON(http.StatusCreated, toResponse(alert))
}

func (h *Handler) filtersResponse(c *gin.Context, criteria models.Criteria, view []models.Alert) {
	c.JSON(http.StatusOK, gin.H{
		"criteria": criteria,
		"alerts":   toResponses(view),
		"count":    len(view),
	})
}

func (h *Handler) getFilters(c *gin.Context) {
	h.filtersResponse(c, h.store.Criteria(), h.store.Filtered())
}

func (h *Handler) updateFilters(c *gin.Context) {
	var criteria models.Criteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if fields := criteria.Invalid(); len(fields) > 0 {
		invalidCriteria(c, fields)
		return
	}

	view := h.store.UpdateFilters(criteria)
	h.filtersResponse(c, criteria.Normalize(), view)
}

func (h *Handler) clearFilters(c *gin.Context) {
	view := h.store.UpdateFilters(models.ClearedCriteria())
	h.filtersResponse(c, models.ClearedCriteria(), view)
}

func (h *Handler) getMap(c *gin.Context) {
	criteria := criteriaFromQuery(c)
	if fields := criteria.Invalid(); len(fields) > 0 {
		invalidCriteria(c, fields)
		return
	}

	fc := toGeoJSON(board.Filter(h.store.Alerts(), criteria))
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getLocation(c *gin.Context) {
	ip := net.ParseIP(c.ClientIP())

	coords, err := h.locator.Locate(c.Request.Context(), ip)
	if err != nil {
		h.metrics.LocationLookups.WithLabelValues("unavailable").Inc()
		slog.Debug("location lookup failed", "ip", c.ClientIP(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": locate.ErrUnavailable.Error()})
		return
	}

	h.metrics.LocationLookups.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"location":    coords.Label(),
		"coordinates": coords,
	})
}

func (h *Handler) getArchive(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
		return
	}

	filter := repository.Filter{
		Limit: defaultArchiveLimit,
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxArchiveLimit {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off > 0 {
			filter.Offset = off
		}
	}

	criteria := criteriaFromQuery(c)
	if fields := criteria.Invalid(); len(fields) > 0 {
		invalidCriteria(c, fields)
		return
	}
	criteria = criteria.Normalize()
	if criteria.Category != models.All {
		cat := models.Category(criteria.Category)
		filter.Category = &cat
	}
	if criteria.Severity != models.All {
		sev := models.Severity(criteria.Severity)
		filter.Severity = &sev
	}
	if criteria.Status != models.All {
		st := models.Status(criteria.Status)
		filter.Status = &st
	}

	alerts, err := h.history.History(c.Request.Context(), filter)
	if err != nil {
		slog.Error("archive query failed", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch archive",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": toResponses(alerts),
		"count":  len(alerts),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

type enumOption struct {
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

func (h *Handler) getCategories(c *gin.Context) {
	categories := make([]enumOption, 0, len(models.Categories))
	for _, cat := range models.Categories {
		categories = append(categories, enumOption{Value: string(cat), Icon: cat.Icon(), Color: cat.Color()})
	}
	severities := make([]enumOption, 0, len(models.Severities))
	for _, sev := range models.Severities {
		severities = append(severities, enumOption{Value: string(sev), Color: sev.Color()})
	}
	statuses := make([]enumOption, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		statuses = append(statuses, enumOption{Value: string(st)})
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"severities": severities,
		"statuses":   statuses,
	})
}
