package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mqcontracts "mailpilot/contracts/mq"
)

// EventPublisher publishes events to the mail.events exchange.
type EventPublisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// PushHandler accepts the mail provider's push webhook (a Pub/Sub style
// envelope) and hands the work to MQ so the webhook can ack immediately.
type PushHandler struct {
	publisher EventPublisher
	logger    *zap.Logger
}

func NewPushHandler(publisher EventPublisher, logger *zap.Logger) *PushHandler {
	return &PushHandler{publisher: publisher, logger: logger}
}

type pushEnvelope struct {
	Message struct {
		Data string `json:"data"`
	} `json:"message"`
}

type pushNotification struct {
	EmailAddress string          `json:"emailAddress"`
	HistoryID    json.RawMessage `json:"historyId"` // number or string depending on the sender
}

// HandlePush handles POST /notifications/push. Empty or malformed payloads
// are acknowledged with 200 rather than retried, so a bad push cannot turn
// into a retry storm.
func (h *PushHandler) HandlePush(c *gin.Context) {
	var envelope pushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.logger.Warn("Unparseable push envelope, acknowledging", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if envelope.Message.Data == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "no data"})
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envelope.Message.Data))
	if err != nil {
		h.logger.Warn("Push data is not valid base64, acknowledging", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var notification pushNotification
	if err := json.Unmarshal(decoded, &notification); err != nil {
		h.logger.Warn("Push data is not valid JSON, acknowledging", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	payload := mqcontracts.PushReceivedPayload{
		EmailAddress: notification.EmailAddress,
		HistoryID:    strings.Trim(string(notification.HistoryID), `"`),
		ReceivedAt:   time.Now().UTC(),
	}

	if err := h.publisher.PublishWithContext(c.Request.Context(), "mail.push.received", payload); err != nil {
		h.logger.Error("Failed to publish push event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue notification"})
		return
	}

	h.logger.Info("Push notification queued",
		zap.String("email_address", payload.EmailAddress),
		zap.String("history_id", payload.HistoryID),
	)
	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}
