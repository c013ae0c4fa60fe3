package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailpilot/internal/model"
	"mailpilot/pkg/metrics"
)

type CorrectionRepository struct {
	db *pgxpool.Pool
}

func NewCorrectionRepository(db *pgxpool.Pool) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

// InsertCategory records a category correction, keyed by message id. A
// second correction for the same message replaces the first.
func (r *CorrectionRepository) InsertCategory(ctx context.Context, c model.CategoryCorrection) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("upsert", "category_corrections", time.Since(start)) }()

	query := `
        INSERT INTO category_corrections (id, sender, subject, snippet, wrong_category, correct_category, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            wrong_category = EXCLUDED.wrong_category,
            correct_category = EXCLUDED.correct_category,
            timestamp = EXCLUDED.timestamp
    `
	_, err := r.db.Exec(ctx, query, c.ID, c.Sender, c.Subject, c.Snippet, c.WrongCategory, c.CorrectCategory, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert category correction: %w", err)
	}
	return nil
}

// InsertUrgency records an urgency correction, keyed by message id.
func (r *CorrectionRepository) InsertUrgency(ctx context.Context, c model.UrgencyCorrection) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("upsert", "urgency_corrections", time.Since(start)) }()

	query := `
        INSERT INTO urgency_corrections (id, sender, subject, snippet, was_urgent, should_be_urgent, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            was_urgent = EXCLUDED.was_urgent,
            should_be_urgent = EXCLUDED.should_be_urgent,
            timestamp = EXCLUDED.timestamp
    `
	_, err := r.db.Exec(ctx, query, c.ID, c.Sender, c.Subject, c.Snippet, c.WasUrgent, c.ShouldBeUrgent, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert urgency correction: %w", err)
	}
	return nil
}

// RecentCategoryCorrections returns the newest corrections, most recent
// first, for few-shot prompting.
func (r *CorrectionRepository) RecentCategoryCorrections(ctx context.Context, limit int) ([]model.CategoryCorrection, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "category_corrections", time.Since(start)) }()

	query := `
        SELECT id, sender, subject, snippet, wrong_category, correct_category, timestamp
        FROM category_corrections
        ORDER BY timestamp DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query category corrections: %w", err)
	}
	defer rows.Close()

	var out []model.CategoryCorrection
	for rows.Next() {
		var c model.CategoryCorrection
		if err := rows.Scan(&c.ID, &c.Sender, &c.Subject, &c.Snippet, &c.WrongCategory, &c.CorrectCategory, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan category correction: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentUrgencyCorrections returns the newest urgency corrections, most
// recent first.
func (r *CorrectionRepository) RecentUrgencyCorrections(ctx context.Context, limit int) ([]model.UrgencyCorrection, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "urgency_corrections", time.Since(start)) }()

	query := `
        SELECT id, sender, subject, snippet, was_urgent, should_be_urgent, timestamp
        FROM urgency_corrections
        ORDER BY timestamp DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query urgency corrections: %w", err)
	}
	defer rows.Close()

	var out []model.UrgencyCorrection
	for rows.Next() {
		var c model.UrgencyCorrection
		if err := rows.Scan(&c.ID, &c.Sender, &c.Subject, &c.Snippet, &c.WasUrgent, &c.ShouldBeUrgent, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan urgency correction: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
