package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailpilot/internal/pipeline"
)

// BatchRunner is the slice of the pipeline the handler needs.
type BatchRunner interface {
	ProcessBatch(ctx context.Context, batchSize int) (*pipeline.Result, error)
}

type ProcessHandler struct {
	pipeline         BatchRunner
	batchSize        int
	cleanupBatchSize int
	logger           *zap.Logger
}

func NewProcessHandler(p BatchRunner, batchSize, cleanupBatchSize int, logger *zap.Logger) *ProcessHandler {
	return &ProcessHandler{
		pipeline:         p,
		batchSize:        batchSize,
		cleanupBatchSize: cleanupBatchSize,
		logger:           logger,
	}
}

// Process handles POST /process: one batch at the regular size.
func (h *ProcessHandler) Process(c *gin.Context) {
	h.runBatch(c, h.batchSize)
}

// Cleanup handles POST /cleanup: same core, larger batch, for manual bulk
// runs.
func (h *ProcessHandler) Cleanup(c *gin.Context) {
	h.runBatch(c, h.cleanupBatchSize)
}

func (h *ProcessHandler) runBatch(c *gin.Context, batchSize int) {
	res, err := h.pipeline.ProcessBatch(c.Request.Context(), batchSize)
	if err != nil {
		h.logger.Error("Batch processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Quota exhaustion is a skip, not an error, so schedulers do not
	// hammer a retriable-looking failure.
	if res.Skipped {
		c.JSON(http.StatusOK, gin.H{"status": "skipped", "reason": res.Reason})
		return
	}

	body := gin.H{"status": "ok", "count": res.Count}
	if len(res.Errors) > 0 {
		body["errors"] = res.Errors
	}
	c.JSON(http.StatusOK, body)
}
