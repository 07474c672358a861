package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"careerpath/internal/model"

	"github.com/gin-gonic/gin"
)

type FailureStore interface {
	GetFailures(task string, limit, offset int) ([]model.ExtractionFailure, error)
	GetFailuresTotal(task string) (int, error)
}

type UsageStore interface {
	GetUsage(days int) ([]model.ApiUsage, error)
}

// QueueDepth reports how many failure events wait for the recorder.
type QueueDepth func(ctx context.Context) (int64, error)

type FailureHandler struct {
	failures FailureStore
	usage    UsageStore
	queue    QueueDepth
}

func NewFailureHandler(failures FailureStore, usage UsageStore) *FailureHandler {
	return &FailureHandler{failures: failures, usage: usage}
}

// WithQueue adds the failure queue depth to the health report.
func (h *FailureHandler) WithQueue(depth QueueDepth) *FailureHandler {
	h.queue = depth
	return h
}

func toFailureResponse(f model.ExtractionFailure) FailureResponse {
	fields := f.Fields
	if fields == nil {
		fields = []string{}
	}
	return FailureResponse{
		ID:         f.ID,
		EventID:    f.EventID,
		Task:       f.Task,
		Kind:       f.Kind,
		Raw:        f.Raw,
		Diagnostic: f.Diagnostic,
		Fields:     fields,
		Model:      f.Model,
		OccurredAt: f.OccurredAt.Format(time.RFC3339),
	}
}

func (h *FailureHandler) GetFailures(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)
	task := c.Query("task")

	failures, err := h.failures.GetFailures(task, limit, offset)
	if err != nil {
		slog.Error("error fetching failures", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.failures.GetFailuresTotal(task)
	if err != nil {
		slog.Error("error fetching failures total", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := FailuresResponse{
		Failures: []FailureResponse{},
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for _, f := range failures {
		res.Failures = append(res.Failures, toFailureResponse(f))
	}

	c.JSON(http.StatusOK, res)
}

func (h *FailureHandler) GetUsage(c *gin.Context) {
	const (
		defaultDays = 7
		maxDays     = 90
	)

	days := getQueryInt("days", defaultDays, c)
	if days < 1 || days > maxDays {
		slog.Warn("invalid query parameter, using default", "param", "days", "value", days, "default", defaultDays)
		days = defaultDays
	}

	usage, err := h.usage.GetUsage(days)
	if err != nil {
		slog.Error("error fetching usage", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := UsageListResponse{Usage: []UsageResponse{}, Days: days}
	for _, u := range usage {
		res.Usage = append(res.Usage, UsageResponse{
			ApiName:      u.ApiName,
			UsageDate:    u.UsageDate.Format(time.DateOnly),
			RequestCount: u.RequestCount,
			TokenCount:   u.TokenCount,
		})
	}

	c.JSON(http.StatusOK, res)
}

// GetHealth reports the database as disabled when no failure store is wired.
func (h *FailureHandler) GetHealth(c *gin.Context) {
	status := http.StatusOK
	res := gin.H{
		"status":   "healthy",
		"database": "disabled",
	}

	if h.failures != nil {
		if _, err := h.failures.GetFailuresTotal(""); err != nil {
			slog.Error("health check database error", "error", err)
			status = http.StatusServiceUnavailable
			res["status"] = "unhealthy"
			res["database"] = "disconnected"
		} else {
			res["database"] = "connected"
		}
	}

	if h.queue != nil {
		depth, err := h.queue(c.Request.Context())
		if err != nil {
			slog.Error("health check queue error", "error", err)
			status = http.StatusServiceUnavailable
			res["status"] = "unhealthy"
			res["failure_queue"] = "disconnected"
		} else {
			res["failure_queue"] = depth
		}
	}

	c.JSON(status, res)
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	paramLimit := c.Query(name)

	if paramLimit == "" {
		return defaultValue
	}

	parsedValue, err := strconv.Atoi(paramLimit)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", paramLimit, "error", err)
		return defaultValue
	}

	return parsedValue
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		slog.Warn("invalid query parameter, using default", "param", "offset", "value", offset, "default", 0)
		return 0
	}
	return offset
}
