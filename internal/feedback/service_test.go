package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/internal/repository"
	"mailpilot/internal/taxonomy"
)

type stubCorrections struct {
	categories []model.CategoryCorrection
	urgencies  []model.UrgencyCorrection
	err        error
}

func (s *stubCorrections) InsertCategory(ctx context.Context, c model.CategoryCorrection) error {
	if s.err != nil {
		return s.err
	}
	s.categories = append(s.categories, c)
	return nil
}

func (s *stubCorrections) InsertUrgency(ctx context.Context, c model.UrgencyCorrection) error {
	if s.err != nil {
		return s.err
	}
	s.urgencies = append(s.urgencies, c)
	return nil
}

type stubLogs struct {
	categories map[string]string
	urgencies  map[string]bool
	err        error
}

func newStubLogs() *stubLogs {
	return &stubLogs{categories: make(map[string]string), urgencies: make(map[string]bool)}
}

func (s *stubLogs) UpdateCategory(ctx context.Context, id, category string) error {
	if s.err != nil {
		return s.err
	}
	s.categories[id] = category
	return nil
}

func (s *stubLogs) UpdateUrgency(ctx context.Context, id string, isUrgent bool) error {
	if s.err != nil {
		return s.err
	}
	s.urgencies[id] = isUrgent
	return nil
}

func TestCorrectCategoryUpdatesLog(t *testing.T) {
	corrections := &stubCorrections{}
	logs := newStubLogs()
	svc := NewService(corrections, logs, taxonomy.New(nil), zap.NewNop())

	err := svc.CorrectCategory(context.Background(), model.CategoryCorrection{
		ID:              "m1",
		Sender:          "a@x.com",
		Subject:         "hi",
		WrongCategory:   "Marketing",
		CorrectCategory: "Work",
	})
	require.NoError(t, err)

	require.Len(t, corrections.categories, 1)
	assert.False(t, corrections.categories[0].Timestamp.IsZero(), "timestamp is defaulted")
	assert.Equal(t, "Work", logs.categories["m1"], "log entry is rewritten in place")
}

func TestCorrectCategoryInvalidCategory(t *testing.T) {
	corrections := &stubCorrections{}
	svc := NewService(corrections, newStubLogs(), taxonomy.New(nil), zap.NewNop())

	err := svc.CorrectCategory(context.Background(), model.CategoryCorrection{
		ID:              "m1",
		CorrectCategory: "NotACategory",
	})
	assert.ErrorIs(t, err, repository.ErrInvalidCategory)
	assert.Empty(t, corrections.categories)
}

func TestCorrectCategoryLogUpdateFailureIsNotFatal(t *testing.T) {
	corrections := &stubCorrections{}
	logs := newStubLogs()
	logs.err = errors.New("row not found")
	svc := NewService(corrections, logs, taxonomy.New(nil), zap.NewNop())

	err := svc.CorrectCategory(context.Background(), model.CategoryCorrection{
		ID:              "old-message",
		CorrectCategory: "Finance",
	})
	require.NoError(t, err, "a correction for an aged-out log entry still counts")
	assert.Len(t, corrections.categories, 1)
}

func TestCorrectUrgencyUpdatesLog(t *testing.T) {
	corrections := &stubCorrections{}
	logs := newStubLogs()
	svc := NewService(corrections, logs, taxonomy.New(nil), zap.NewNop())

	err := svc.CorrectUrgency(context.Background(), model.UrgencyCorrection{
		ID:             "m1",
		WasUrgent:      false,
		ShouldBeUrgent: true,
	})
	require.NoError(t, err)

	require.Len(t, corrections.urgencies, 1)
	assert.True(t, logs.urgencies["m1"])
}

func TestCorrectCategoryStoreFailure(t *testing.T) {
	corrections := &stubCorrections{err: errors.New("db down")}
	logs := newStubLogs()
	svc := NewService(corrections, logs, taxonomy.New(nil), zap.NewNop())

	err := svc.CorrectCategory(context.Background(), model.CategoryCorrection{
		ID:              "m1",
		CorrectCategory: "Work",
	})
	assert.Error(t, err)
	assert.Empty(t, logs.categories, "log must not change if the correction was not recorded")
}
