// Package feedback records user corrections and folds them back into the
// system: the correction history feeds the classifier's few-shot examples
// and the corresponding log entry is rewritten in place so dashboards show
// the corrected truth immediately.
package feedback

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/internal/repository"
	"mailpilot/internal/taxonomy"
)

type CorrectionStore interface {
	InsertCategory(ctx context.Context, c model.CategoryCorrection) error
	InsertUrgency(ctx context.Context, c model.UrgencyCorrection) error
}

type LogUpdater interface {
	UpdateCategory(ctx context.Context, id, category string) error
	UpdateUrgency(ctx context.Context, id string, isUrgent bool) error
}

type Service struct {
	corrections CorrectionStore
	logs        LogUpdater
	taxonomy    *taxonomy.Taxonomy
	logger      *zap.Logger
}

func NewService(corrections CorrectionStore, logs LogUpdater, tax *taxonomy.Taxonomy, logger *zap.Logger) *Service {
	return &Service{
		corrections: corrections,
		logs:        logs,
		taxonomy:    tax,
		logger:      logger,
	}
}

// CorrectCategory appends a category correction and rewrites the log entry.
func (s *Service) CorrectCategory(ctx context.Context, c model.CategoryCorrection) error {
	if !s.taxonomy.Contains(c.CorrectCategory) {
		return repository.ErrInvalidCategory
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}

	if err := s.corrections.InsertCategory(ctx, c); err != nil {
		return err
	}

	if err := s.logs.UpdateCategory(ctx, c.ID, c.CorrectCategory); err != nil {
		// The correction itself is recorded; the log entry may simply
		// predate the log retention window.
		s.logger.Warn("Failed to update log entry for correction",
			zap.String("message_id", c.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Category correction recorded",
		zap.String("message_id", c.ID),
		zap.String("wrong", c.WrongCategory),
		zap.String("correct", c.CorrectCategory),
	)
	return nil
}

// CorrectUrgency appends an urgency correction and rewrites the log entry.
func (s *Service) CorrectUrgency(ctx context.Context, c model.UrgencyCorrection) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}

	if err := s.corrections.InsertUrgency(ctx, c); err != nil {
		return err
	}

	if err := s.logs.UpdateUrgency(ctx, c.ID, c.ShouldBeUrgent); err != nil {
		s.logger.Warn("Failed to update log entry for urgency correction",
			zap.String("message_id", c.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Urgency correction recorded",
		zap.String("message_id", c.ID),
		zap.Bool("was_urgent", c.WasUrgent),
		zap.Bool("should_be_urgent", c.ShouldBeUrgent),
	)
	return nil
}
