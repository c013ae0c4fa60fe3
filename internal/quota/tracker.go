// Package quota tracks the rolling daily count of classification actions.
// The counter is a Redis INCR per UTC calendar day, so concurrent batches
// never lose updates.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyTTL = 48 * time.Hour

type Tracker struct {
	rdb *redis.Client
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

// DayKey formats t as the quota day key. The day boundary is UTC midnight.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func formatKey(day string) string {
	return fmt.Sprintf("quota:%s", day)
}

// Usage returns the count for a day. A day with no recorded activity
// returns 0.
func (t *Tracker) Usage(ctx context.Context, day string) (int64, error) {
	count, err := t.rdb.Get(ctx, formatKey(day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Increment atomically bumps the day's counter and returns the new value.
// The TTL is set on first increment so old counters expire on their own.
func (t *Tracker) Increment(ctx context.Context, day string) (int64, error) {
	key := formatKey(day)

	count, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		t.rdb.Expire(ctx, key, keyTTL)
	}

	return count, nil
}
