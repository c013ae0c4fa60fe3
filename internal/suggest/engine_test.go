package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpilot/internal/model"
)

type stubLogs struct {
	entries []model.EmailLogEntry
	err     error
}

func (s *stubLogs) RecentWindow(ctx context.Context, limit int) ([]model.EmailLogEntry, error) {
	return s.entries, s.err
}

type stubRules struct {
	rules []model.SenderRule
	err   error
}

func (s *stubRules) List(ctx context.Context) ([]model.SenderRule, error) {
	return s.rules, s.err
}

func entries(sender, category string, n int) []model.EmailLogEntry {
	out := make([]model.EmailLogEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.EmailLogEntry{Sender: sender, Category: category})
	}
	return out
}

func TestSuggestConsistentSender(t *testing.T) {
	logs := &stubLogs{entries: entries("Deals <deals@shop.com>", "Marketing", 5)}
	engine := NewEngine(logs, &stubRules{})

	got, err := engine.SuggestRules(context.Background(), 3, 1.0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "deals <deals@shop.com>", got[0].Sender)
	assert.Equal(t, "Marketing", got[0].Category)
	assert.Equal(t, 5, got[0].Count)
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestSuggestMixedSenderBelowThreshold(t *testing.T) {
	mixed := append(entries("a@x.com", "Marketing", 5), entries("a@x.com", "Updates", 1)...)
	engine := NewEngine(&stubLogs{entries: mixed}, &stubRules{})

	got, err := engine.SuggestRules(context.Background(), 3, 1.0)
	require.NoError(t, err)
	assert.Empty(t, got, "5/6 consistency must not pass a 1.0 threshold")

	got, err = engine.SuggestRules(context.Background(), 3, 0.8)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Marketing", got[0].Category)
	assert.Equal(t, 6, got[0].Count)
	assert.InDelta(t, 5.0/6.0, got[0].Confidence, 1e-9)
}

func TestSuggestMinOccurrences(t *testing.T) {
	engine := NewEngine(&stubLogs{entries: entries("a@x.com", "Updates", 2)}, &stubRules{})

	got, err := engine.SuggestRules(context.Background(), 3, 1.0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggestSuppressedByExactRule(t *testing.T) {
	logs := &stubLogs{entries: entries("deals@shop.com", "Marketing", 4)}
	rules := &stubRules{rules: []model.SenderRule{
		{ID: "r1", Sender: "DEALS@shop.com", Category: "Marketing"},
	}}
	engine := NewEngine(logs, rules)

	got, err := engine.SuggestRules(context.Background(), 3, 1.0)
	require.NoError(t, err)
	assert.Empty(t, got, "an exact case-insensitive rule must suppress the suggestion")
}

func TestSuggestSubstringRuleDoesNotSuppress(t *testing.T) {
	// A rule on "shop.com" already routes mail from deals@shop.com, but
	// suppression is exact-match only, so the suggestion still surfaces.
	logs := &stubLogs{entries: entries("deals@shop.com", "Marketing", 4)}
	rules := &stubRules{rules: []model.SenderRule{
		{ID: "r1", Sender: "shop.com", Category: "Marketing"},
	}}
	engine := NewEngine(logs, rules)

	got, err := engine.SuggestRules(context.Background(), 3, 1.0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "deals@shop.com", got[0].Sender)
}

func TestSuggestSortedByCountDesc(t *testing.T) {
	mixed := append(entries("a@x.com", "Updates", 3), entries("b@y.com", "Finance", 7)...)
	engine := NewEngine(&stubLogs{entries: mixed}, &stubRules{})

	got, err := engine.SuggestRules(context.Background(), 3, 1.0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b@y.com", got[0].Sender)
	assert.Equal(t, "a@x.com", got[1].Sender)
}

func TestSuggestLogSourceError(t *testing.T) {
	engine := NewEngine(&stubLogs{err: errors.New("db down")}, &stubRules{})

	_, err := engine.SuggestRules(context.Background(), 3, 1.0)
	assert.Error(t, err)
}
