package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailpilot/internal/quota"
	"mailpilot/internal/repository"
)

type StatsHandler struct {
	stats      *repository.StatsRepository
	logs       *repository.LogRepository
	quota      *quota.Tracker
	quotaLimit int64
	logger     *zap.Logger
}

func NewStatsHandler(stats *repository.StatsRepository, logs *repository.LogRepository, q *quota.Tracker, quotaLimit int64, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:      stats,
		logs:       logs,
		quota:      q,
		quotaLimit: quotaLimit,
		logger:     logger,
	}
}

// Stats handles GET /stats?days=N.
func (h *StatsHandler) Stats(c *gin.Context) {
	days := 1
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}

	window, err := h.stats.Window(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("Failed to fetch stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}

	day := quota.DayKey(time.Now())
	usage, err := h.quota.Usage(c.Request.Context(), day)
	if err != nil {
		h.logger.Warn("Failed to read quota usage", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": window,
		"quota": gin.H{
			"date":  day,
			"used":  usage,
			"limit": h.quotaLimit,
		},
	})
}

// Logs handles GET /logs?limit=&category=&search=.
func (h *StatsHandler) Logs(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	logs, err := h.logs.Recent(c.Request.Context(), limit, c.Query("category"), c.Query("search"))
	if err != nil {
		h.logger.Error("Failed to fetch logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
