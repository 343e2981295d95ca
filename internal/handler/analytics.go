package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medwarehouse/internal/models"
	"medwarehouse/internal/repository"
)

type AnalyticsHandler interface {
	TopProducts(c *gin.Context)
	ChannelActivity(c *gin.Context)
	SearchMessages(c *gin.Context)
	VisualContent(c *gin.Context)
}

type analyticsHandler struct {
	repo   repository.AnalyticsRepository
	logger *zap.Logger
}

func NewAnalyticsHandler(repo repository.AnalyticsRepository, logger *zap.Logger) AnalyticsHandler {
	return &analyticsHandler{repo: repo, logger: logger}
}

// TopProducts handles GET /api/reports/top-products?limit=N
func (h *analyticsHandler) TopProducts(c *gin.Context) {
	limit, ok := parseLimit(c, 10)
	if !ok {
		return
	}

	terms, err := h.repo.TopTerms(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to query top terms", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics store unavailable"})
		return
	}
	if terms == nil {
		terms = []models.TermCount{}
	}

	c.JSON(http.StatusOK, terms)
}

// ChannelActivity handles GET /api/channels/:channel_name/activity
func (h *analyticsHandler) ChannelActivity(c *gin.Context) {
	channel := c.Param("channel_name")

	exists, err := h.repo.ChannelExists(c.Request.Context(), channel)
	if err != nil {
		h.logger.Error("Failed to check channel", zap.String("channel", channel), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics store unavailable"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	activity, err := h.repo.ChannelActivity(c.Request.Context(), channel)
	if err != nil {
		h.logger.Error("Failed to query channel activity", zap.String("channel", channel), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics store unavailable"})
		return
	}
	if activity == nil {
		activity = []models.ChannelActivity{}
	}

	c.JSON(http.StatusOK, activity)
}

// SearchMessages handles GET /api/search/messages?query=Q&limit=N
func (h *analyticsHandler) SearchMessages(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	limit, ok := parseLimit(c, 20)
	if !ok {
		return
	}

	results, err := h.repo.SearchMessages(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.Error("Failed to search messages", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics store unavailable"})
		return
	}
	if results == nil {
		results = []models.MessageResult{}
	}

	c.JSON(http.StatusOK, results)
}

// VisualContent handles GET /api/reports/visual-content
func (h *analyticsHandler) VisualContent(c *gin.Context) {
	stats, err := h.repo.VisualContentStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to query visual content stats", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics store unavailable"})
		return
	}
	if stats == nil {
		stats = []models.VisualContentStats{}
	}

	c.JSON(http.StatusOK, stats)
}

// parseLimit reads the limit query parameter, rejecting anything that is not
// a positive integer. It writes the error response itself.
func parseLimit(c *gin.Context, defaultLimit int) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return limit, true
}
