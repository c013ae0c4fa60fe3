package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailpilot/internal/model"
)

type stubOracle struct {
	result *model.ClassificationResult
	err    error
	calls  int
}

func (s *stubOracle) Classify(ctx context.Context, msg model.Message) (*model.ClassificationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestRouteRuleMatchSkipsOracle(t *testing.T) {
	oracle := &stubOracle{}
	engine := NewEngine(oracle, "Important", zap.NewNop())

	rules := []model.SenderRule{
		{ID: "r1", Sender: "newsletter@shop.com", Category: "Marketing"},
	}
	msg := model.Message{ID: "m1", Sender: "Shop <NEWSLETTER@shop.com>", Subject: "Sale"}

	res, err := engine.Route(context.Background(), msg, rules, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, "Marketing", res.Category)
	assert.Equal(t, model.SourceRule, res.Source)
	assert.False(t, res.IsUrgent)
	assert.Equal(t, "matched rule: newsletter@shop.com", res.Reasoning)
	assert.Equal(t, 0, oracle.calls, "a rule match must not spend a classifier call")
}

func TestRouteFirstMatchingRuleWins(t *testing.T) {
	oracle := &stubOracle{}
	engine := NewEngine(oracle, "Important", zap.NewNop())

	rules := []model.SenderRule{
		{ID: "r1", Sender: "bank.com", Category: "Finance"},
		{ID: "r2", Sender: "alerts@bank.com", Category: "Spam"},
	}
	msg := model.Message{ID: "m1", Sender: "alerts@bank.com"}

	res, err := engine.Route(context.Background(), msg, rules, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "Finance", res.Category)
}

func TestRouteOracleResult(t *testing.T) {
	oracle := &stubOracle{result: &model.ClassificationResult{
		Category:  "Work",
		IsUrgent:  true,
		Reasoning: "mentions a deadline",
	}}
	engine := NewEngine(oracle, "Important", zap.NewNop())

	res, err := engine.Route(context.Background(), model.Message{ID: "m1", Sender: "boss@corp.com"}, nil, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, "Work", res.Category)
	assert.True(t, res.IsUrgent)
	assert.Equal(t, model.SourceAI, res.Source)
	assert.Equal(t, 1, oracle.calls)
}

func TestRouteOracleFailureFallsBack(t *testing.T) {
	oracle := &stubOracle{err: errors.New("classifier service 5xx: 503")}
	engine := NewEngine(oracle, "Important", zap.NewNop())

	res, err := engine.Route(context.Background(), model.Message{ID: "m1", Sender: "someone@x.com"}, nil, 0, 100)
	require.NoError(t, err, "a classifier failure must not fail routing")

	assert.Equal(t, "Important", res.Category)
	assert.Equal(t, model.SourceFallback, res.Source)
	assert.False(t, res.IsUrgent)
}

func TestRouteQuotaGate(t *testing.T) {
	oracle := &stubOracle{}
	engine := NewEngine(oracle, "Important", zap.NewNop())

	rules := []model.SenderRule{
		{ID: "r1", Sender: "x.com", Category: "Updates"},
	}

	_, err := engine.Route(context.Background(), model.Message{ID: "m1", Sender: "a@x.com"}, rules, 1300, 1300)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 0, oracle.calls, "quota gate must reject before rules or classifier")
}

func TestRouteNoRulesNoMatch(t *testing.T) {
	oracle := &stubOracle{result: &model.ClassificationResult{Category: "Updates"}}
	engine := NewEngine(oracle, "Important", zap.NewNop())

	rules := []model.SenderRule{
		{ID: "r1", Sender: "github.com", Category: "Updates"},
	}
	msg := model.Message{ID: "m1", Sender: "friend@gmail.com"}

	res, err := engine.Route(context.Background(), msg, rules, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, model.SourceAI, res.Source)
	assert.Equal(t, 1, oracle.calls)
}
