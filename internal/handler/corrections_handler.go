package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailpilot/internal/feedback"
	"mailpilot/internal/model"
	"mailpilot/internal/repository"
)

type CorrectionsHandler struct {
	feedback *feedback.Service
	logger   *zap.Logger
}

func NewCorrectionsHandler(fb *feedback.Service, logger *zap.Logger) *CorrectionsHandler {
	return &CorrectionsHandler{feedback: fb, logger: logger}
}

// CorrectCategory handles POST /corrections/category.
func (h *CorrectionsHandler) CorrectCategory(c *gin.Context) {
	var req struct {
		ID              string `json:"id"`
		Sender          string `json:"sender"`
		Subject         string `json:"subject"`
		Snippet         string `json:"snippet"`
		WrongCategory   string `json:"wrong_category"`
		CorrectCategory string `json:"correct_category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.ID == "" || req.Sender == "" || req.Subject == "" || req.WrongCategory == "" || req.CorrectCategory == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	err := h.feedback.CorrectCategory(c.Request.Context(), model.CategoryCorrection{
		ID:              req.ID,
		Sender:          req.Sender,
		Subject:         req.Subject,
		Snippet:         req.Snippet,
		WrongCategory:   req.WrongCategory,
		CorrectCategory: req.CorrectCategory,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		h.logger.Error("Failed to record category correction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record correction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "correction recorded"})
}

// CorrectUrgency handles POST /corrections/urgency.
func (h *CorrectionsHandler) CorrectUrgency(c *gin.Context) {
	var req struct {
		ID             string `json:"id"`
		Sender         string `json:"sender"`
		Subject        string `json:"subject"`
		Snippet        string `json:"snippet"`
		WasUrgent      *bool  `json:"was_urgent"`
		ShouldBeUrgent *bool  `json:"should_be_urgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.ID == "" || req.Sender == "" || req.Subject == "" || req.WasUrgent == nil || req.ShouldBeUrgent == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	err := h.feedback.CorrectUrgency(c.Request.Context(), model.UrgencyCorrection{
		ID:             req.ID,
		Sender:         req.Sender,
		Subject:        req.Subject,
		Snippet:        req.Snippet,
		WasUrgent:      *req.WasUrgent,
		ShouldBeUrgent: *req.ShouldBeUrgent,
	})
	if err != nil {
		h.logger.Error("Failed to record urgency correction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record correction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "correction recorded"})
}
