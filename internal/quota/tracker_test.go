package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKeyIsUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 8, 30, 23, 30, 0, 0, loc)

	assert.Equal(t, "2026-08-31", DayKey(local))
}

func TestDayKeyFormat(t *testing.T) {
	ts := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-05", DayKey(ts))
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "quota:2026-08-31", formatKey("2026-08-31"))
}
