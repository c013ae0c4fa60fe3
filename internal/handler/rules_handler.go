package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailpilot/internal/repository"
	"mailpilot/internal/suggest"
)

type RulesHandler struct {
	rules   *repository.RuleRepository
	suggest *suggest.Engine
	logger  *zap.Logger
}

func NewRulesHandler(rules *repository.RuleRepository, sug *suggest.Engine, logger *zap.Logger) *RulesHandler {
	return &RulesHandler{rules: rules, suggest: sug, logger: logger}
}

// List handles GET /rules.
func (h *RulesHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list rules", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// Add handles POST /rules.
func (h *RulesHandler) Add(c *gin.Context) {
	var req struct {
		Sender   string `json:"sender"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Sender == "" || req.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	id, err := h.rules.Add(c.Request.Context(), req.Sender, req.Category)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCategory) || errors.Is(err, repository.ErrInvalidRule) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to add rule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "message": "rule added"})
}

// Delete handles DELETE /rules/:id. Deleting an unknown rule succeeds.
func (h *RulesHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing rule id"})
		return
	}

	if err := h.rules.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete rule", zap.String("rule_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}

// Suggestions handles GET /rules/suggestions.
func (h *RulesHandler) Suggestions(c *gin.Context) {
	minOccurrences := 3
	confidence := 1.0

	if v := c.Query("minOccurrences"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minOccurrences = n
		}
	}
	if v := c.Query("confidence"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			confidence = f
		}
	}

	suggestions, err := h.suggest.SuggestRules(c.Request.Context(), minOccurrences, confidence)
	if err != nil {
		h.logger.Error("Failed to compute rule suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
