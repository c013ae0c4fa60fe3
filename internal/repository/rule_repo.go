package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailpilot/internal/model"
	"mailpilot/internal/taxonomy"
	"mailpilot/pkg/metrics"
)

// ErrInvalidCategory is returned when a rule names a category outside the
// taxonomy snapshot.
var ErrInvalidCategory = errors.New("category is not in the taxonomy")

// ErrInvalidRule is returned when a rule is missing its sender fragment.
var ErrInvalidRule = errors.New("rule sender fragment must not be empty")

type RuleRepository struct {
	db       *pgxpool.Pool
	taxonomy *taxonomy.Taxonomy
}

func NewRuleRepository(db *pgxpool.Pool, tax *taxonomy.Taxonomy) *RuleRepository {
	return &RuleRepository{db: db, taxonomy: tax}
}

// List returns all rules in insertion order. Routing applies the first
// matching rule, so this ordering is the precedence order.
func (r *RuleRepository) List(ctx context.Context) ([]model.SenderRule, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "sender_rules", time.Since(start)) }()

	query := `
        SELECT id, sender, category, created_at
        FROM sender_rules
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sender rules: %w", err)
	}
	defer rows.Close()

	var rules []model.SenderRule
	for rows.Next() {
		var rule model.SenderRule
		if err := rows.Scan(&rule.ID, &rule.Sender, &rule.Category, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sender rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Add validates the category against the taxonomy and inserts a new rule.
// Duplicate or overlapping fragments are permitted.
func (r *RuleRepository) Add(ctx context.Context, senderFragment, category string) (string, error) {
	if strings.TrimSpace(senderFragment) == "" {
		return "", ErrInvalidRule
	}
	if !r.taxonomy.Contains(category) {
		return "", ErrInvalidCategory
	}

	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "sender_rules", time.Since(start)) }()

	id := uuid.NewString()
	query := `
        INSERT INTO sender_rules (id, sender, category, created_at)
        VALUES ($1, $2, $3, NOW())
    `
	if _, err := r.db.Exec(ctx, query, id, senderFragment, category); err != nil {
		return "", fmt.Errorf("failed to insert sender rule: %w", err)
	}
	return id, nil
}

// Delete removes a rule by id. Deleting an absent rule is a no-op.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("delete", "sender_rules", time.Since(start)) }()

	_, err := r.db.Exec(ctx, `DELETE FROM sender_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sender rule: %w", err)
	}
	return nil
}
