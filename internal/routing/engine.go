// Package routing holds the per-message classification decision: explicit
// sender rules first, then the AI classifier, then a fixed fallback when the
// classifier is unavailable. Rules are authoritative and never spend quota
// on a classifier call.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailpilot/internal/model"
)

// ErrQuotaExceeded aborts routing before any classifier call or label
// mutation happens.
var ErrQuotaExceeded = errors.New("daily classification quota exceeded")

// Oracle is the external classification capability. Single-shot; the engine
// owns the fallback policy.
type Oracle interface {
	Classify(ctx context.Context, msg model.Message) (*model.ClassificationResult, error)
}

type Engine struct {
	oracle           Oracle
	fallbackCategory string
	logger           *zap.Logger
}

func NewEngine(oracle Oracle, fallbackCategory string, logger *zap.Logger) *Engine {
	return &Engine{
		oracle:           oracle,
		fallbackCategory: fallbackCategory,
		logger:           logger,
	}
}

// contains reports whether substr occurs in s, case-insensitively.
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Route decides the category for one message. The quota values are the
// batch-start snapshot. A classifier failure never propagates: the message
// is routed to the fallback category so it still leaves the inbox.
func (e *Engine) Route(ctx context.Context, msg model.Message, rules []model.SenderRule, quotaUsage, quotaLimit int64) (model.ClassificationResult, error) {
	if quotaUsage >= quotaLimit {
		return model.ClassificationResult{}, ErrQuotaExceeded
	}

	// First matching rule wins; rules come back from the store in
	// insertion order.
	for _, rule := range rules {
		if contains(msg.Sender, rule.Sender) {
			return model.ClassificationResult{
				Category:  rule.Category,
				IsUrgent:  false,
				Reasoning: fmt.Sprintf("matched rule: %s", rule.Sender),
				Source:    model.SourceRule,
			}, nil
		}
	}

	result, err := e.oracle.Classify(ctx, msg)
	if err != nil {
		e.logger.Warn("Classification failed, using fallback category",
			zap.String("message_id", msg.ID),
			zap.String("fallback", e.fallbackCategory),
			zap.Error(err),
		)
		return model.ClassificationResult{
			Category:  e.fallbackCategory,
			IsUrgent:  false,
			Reasoning: "classification failed, defaulting to manual sort",
			Source:    model.SourceFallback,
		}, nil
	}

	result.Source = model.SourceAI
	return *result, nil
}
