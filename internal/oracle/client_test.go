package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/internal/taxonomy"
	"mailpilot/pkg/circuitbreaker"
)

type stubCorrections struct {
	categories []model.CategoryCorrection
	urgencies  []model.UrgencyCorrection
}

func (s *stubCorrections) RecentCategoryCorrections(ctx context.Context, limit int) ([]model.CategoryCorrection, error) {
	if limit < len(s.categories) {
		return s.categories[:limit], nil
	}
	return s.categories, nil
}

func (s *stubCorrections) RecentUrgencyCorrections(ctx context.Context, limit int) ([]model.UrgencyCorrection, error) {
	if limit < len(s.urgencies) {
		return s.urgencies[:limit], nil
	}
	return s.urgencies, nil
}

func newTestClient(url string, corrections CorrectionSource) *Client {
	return NewClient(url, 5*time.Second, corrections, taxonomy.New(nil), zap.NewNop())
}

func TestClassifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classify", r.URL.Path)
		json.NewEncoder(w).Encode(classifyResponse{
			Category:  "Finance",
			IsUrgent:  true,
			Reasoning: "payment due",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	res, err := client.Classify(context.Background(), model.Message{
		ID: "m1", Sender: "billing@bank.com", Subject: "Invoice",
	})
	require.NoError(t, err)

	assert.Equal(t, "Finance", res.Category)
	assert.True(t, res.IsUrgent)
	assert.Equal(t, "payment due", res.Reasoning)
}

func TestClassifyRequestCarriesTaxonomyAndExamples(t *testing.T) {
	var got classifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(classifyResponse{Category: "Work"})
	}))
	defer srv.Close()

	corrections := &stubCorrections{
		categories: []model.CategoryCorrection{
			{ID: "c1", Sender: "hr@corp.com", Subject: "Benefits", WrongCategory: "Updates", CorrectCategory: "Work"},
		},
		urgencies: []model.UrgencyCorrection{
			{ID: "u1", Sender: "boss@corp.com", Subject: "Now", WasUrgent: false, ShouldBeUrgent: true},
		},
	}

	client := newTestClient(srv.URL, corrections)
	_, err := client.Classify(context.Background(), model.Message{
		ID: "m1", Sender: "a@x.com", Subject: "s", Snippet: "sn",
	})
	require.NoError(t, err)

	assert.Equal(t, "s", got.Subject)
	assert.Equal(t, taxonomy.Defaults, got.Categories)
	require.Len(t, got.CategoryExamples, 1)
	assert.Equal(t, "Work", got.CategoryExamples[0].CorrectCategory)
	require.Len(t, got.UrgencyExamples, 1)
	assert.True(t, got.UrgencyExamples[0].ShouldBeUrgent)
}

func TestClassifyUnknownCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{Category: "Lunch"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	_, err := client.Classify(context.Background(), model.Message{ID: "m1"})
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestClassifyEmptyCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	_, err := client.Classify(context.Background(), model.Message{ID: "m1"})
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	_, err := client.Classify(context.Background(), model.Message{ID: "m1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier service 5xx")
}

func TestClassifyBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	for i := 0; i < 5; i++ {
		_, err := client.Classify(context.Background(), model.Message{ID: "m1"})
		require.Error(t, err)
	}

	_, err := client.Classify(context.Background(), model.Message{ID: "m1"})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitBreakerOpen)
}
