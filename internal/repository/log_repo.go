package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	mqcontracts "mailpilot/contracts/mq"
	"mailpilot/internal/model"
	"mailpilot/pkg/metrics"
	"mailpilot/pkg/outbox"
)

type LogRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
}

func NewLogRepository(db *pgxpool.Pool, ob *outbox.Repository) *LogRepository {
	return &LogRepository{db: db, outbox: ob}
}

// UpsertRouted writes the log entry and the email.routed outbox event in one
// transaction. The entry is keyed by message id, so reprocessing the same
// message overwrites instead of duplicating.
func (r *LogRepository) UpsertRouted(ctx context.Context, entry model.EmailLogEntry, source string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("upsert", "email_logs", time.Since(start)) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO email_logs (id, sender, subject, snippet, category, is_urgent, reasoning, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET
            sender = EXCLUDED.sender,
            subject = EXCLUDED.subject,
            snippet = EXCLUDED.snippet,
            category = EXCLUDED.category,
            is_urgent = EXCLUDED.is_urgent,
            reasoning = EXCLUDED.reasoning,
            timestamp = EXCLUDED.timestamp
    `
	_, err = tx.Exec(ctx, query,
		entry.ID,
		entry.Sender,
		entry.Subject,
		entry.Snippet,
		entry.Category,
		entry.IsUrgent,
		entry.Reasoning,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert email log: %w", err)
	}

	payload := mqcontracts.EmailRoutedPayload{
		MessageID: entry.ID,
		Sender:    entry.Sender,
		Subject:   entry.Subject,
		Category:  entry.Category,
		IsUrgent:  entry.IsUrgent,
		Source:    source,
		RoutedAt:  entry.Timestamp,
	}
	aggregateID := entry.ID
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "email", &aggregateID, "email.routed", payload); err != nil {
		return fmt.Errorf("failed to insert routed event: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateCategory rewrites the category of an existing log entry in place.
func (r *LogRepository) UpdateCategory(ctx context.Context, id, category string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "email_logs", time.Since(start)) }()

	_, err := r.db.Exec(ctx, `UPDATE email_logs SET category = $1 WHERE id = $2`, category, id)
	if err != nil {
		return fmt.Errorf("failed to update log category: %w", err)
	}
	return nil
}

// UpdateUrgency rewrites the urgency flag of an existing log entry in place.
func (r *LogRepository) UpdateUrgency(ctx context.Context, id string, isUrgent bool) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "email_logs", time.Since(start)) }()

	_, err := r.db.Exec(ctx, `UPDATE email_logs SET is_urgent = $1 WHERE id = $2`, isUrgent, id)
	if err != nil {
		return fmt.Errorf("failed to update log urgency: %w", err)
	}
	return nil
}

// Recent returns the newest entries, optionally filtered by category in SQL
// and by a subject/sender substring search applied client-side.
func (r *LogRepository) Recent(ctx context.Context, limit int, category, search string) ([]model.EmailLogEntry, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "email_logs", time.Since(start)) }()

	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id, sender, subject, snippet, category, is_urgent, reasoning, timestamp
        FROM email_logs
    `
	args := []any{}
	if category != "" && category != "All" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT %d`, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query email logs: %w", err)
	}
	defer rows.Close()

	var logs []model.EmailLogEntry
	for rows.Next() {
		var e model.EmailLogEntry
		if err := rows.Scan(&e.ID, &e.Sender, &e.Subject, &e.Snippet, &e.Category, &e.IsUrgent, &e.Reasoning, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if search != "" {
		searchLower := strings.ToLower(search)
		filtered := logs[:0]
		for _, e := range logs {
			if strings.Contains(strings.ToLower(e.Subject), searchLower) ||
				strings.Contains(strings.ToLower(e.Sender), searchLower) {
				filtered = append(filtered, e)
			}
		}
		logs = filtered
	}

	return logs, nil
}

// RecentWindow returns the newest limit entries for pattern mining.
func (r *LogRepository) RecentWindow(ctx context.Context, limit int) ([]model.EmailLogEntry, error) {
	return r.Recent(ctx, limit, "", "")
}
