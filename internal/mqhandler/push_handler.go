// Package mqhandler consumes events from the mail.events exchange.
package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "mailpilot/contracts/mq"
	"mailpilot/internal/pipeline"
	"mailpilot/pkg/logger"
	"mailpilot/pkg/util"
)

// BatchRunner is the slice of the pipeline this handler needs.
type BatchRunner interface {
	ProcessBatch(ctx context.Context, batchSize int) (*pipeline.Result, error)
}

// DLQPublisher parks poison messages.
type DLQPublisher interface {
	PublishToDLQ(routingKey string, payload []byte, originalError string) error
}

// PushHandler turns a mail.push.received event into one single-message
// processing batch. The push payload's historyId is not used to enumerate
// deltas; the pipeline asks the mail client for the latest unread message.
type PushHandler struct {
	pipeline BatchRunner
	dlq      DLQPublisher
	logger   *zap.Logger
}

func NewPushHandler(p BatchRunner, dlq DLQPublisher, log *zap.Logger) *PushHandler {
	return &PushHandler{pipeline: p, dlq: dlq, logger: log}
}

// Handle processes one push event. Returns an error only for retryable
// failures; everything else is acked so the queue cannot wedge on one
// message.
func (h *PushHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.PushReceivedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal push payload, sending to DLQ",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		if h.dlq != nil {
			if dlqErr := h.dlq.PublishToDLQ("mail.push.received", raw, err.Error()); dlqErr != nil {
				log.Error("Failed to publish poison message to DLQ", zap.Error(dlqErr))
			}
		}
		return nil
	}

	log.Info("Processing push notification",
		zap.String("email_address", p.EmailAddress),
		zap.String("history_id", p.HistoryID),
	)

	res, err := h.pipeline.ProcessBatch(ctx, 1)
	if err != nil {
		isRetryable, errType := util.IsRetryableError(err)
		log.Error("Push-triggered batch failed",
			zap.String("error_type", errType),
			zap.Bool("retryable", isRetryable),
			zap.Error(err),
		)
		if isRetryable {
			return fmt.Errorf("push batch failed: %w", err)
		}
		return nil
	}

	if res.Skipped {
		log.Info("Push-triggered batch skipped", zap.String("reason", res.Reason))
		return nil
	}

	log.Info("Push-triggered batch done",
		zap.Int("count", res.Count),
		zap.Int("errors", len(res.Errors)),
	)
	return nil
}
