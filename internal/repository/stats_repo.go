package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailpilot/internal/model"
	"mailpilot/pkg/metrics"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// IncrementDay bumps the total and the per-category counter for one day.
// The row is created on first use.
func (r *StatsRepository) IncrementDay(ctx context.Context, date, category string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("upsert", "daily_stats", time.Since(start)) }()

	query := `
        INSERT INTO daily_stats (date, total_processed, categories)
        VALUES ($1, 1, jsonb_build_object($2::text, 1))
        ON CONFLICT (date) DO UPDATE SET
            total_processed = daily_stats.total_processed + 1,
            categories = jsonb_set(
                daily_stats.categories,
                ARRAY[$2::text],
                (COALESCE(daily_stats.categories->>$2, '0')::int + 1)::text::jsonb
            ),
            updated_at = NOW()
    `
	_, err := r.db.Exec(ctx, query, date, category)
	if err != nil {
		return fmt.Errorf("failed to increment daily stats: %w", err)
	}
	return nil
}

// Day returns the stats row for one date, or a zero row if none exists.
func (r *StatsRepository) Day(ctx context.Context, date string) (model.DailyStats, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "daily_stats", time.Since(start)) }()

	stats := model.DailyStats{Date: date, Categories: map[string]int{}}

	query := `SELECT total_processed, categories FROM daily_stats WHERE date = $1`
	err := r.db.QueryRow(ctx, query, date).Scan(&stats.TotalProcessed, &stats.Categories)
	if err == pgx.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("failed to query daily stats: %w", err)
	}
	return stats, nil
}

// Window returns per-day stats for the last days days ending today (UTC),
// oldest first, with zero rows for days with no activity.
func (r *StatsRepository) Window(ctx context.Context, days int) ([]model.DailyStats, error) {
	if days <= 0 {
		days = 1
	}

	today := time.Now().UTC()
	out := make([]model.DailyStats, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		stats, err := r.Day(ctx, date)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}
