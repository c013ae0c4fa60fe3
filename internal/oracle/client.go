// Package oracle is the client side of the external classification service.
// The call is single-shot: no internal retries, a caller-visible timeout,
// and a circuit breaker so a degraded classifier fails fast. The routing
// engine owns the fallback policy.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/internal/taxonomy"
	"mailpilot/pkg/circuitbreaker"
	"mailpilot/pkg/metrics"
)

const (
	maxCategoryExamples = 5
	maxUrgencyExamples  = 5
)

// ErrInvalidOutput is returned when the classifier responds with a category
// outside the taxonomy or an empty result.
var ErrInvalidOutput = errors.New("classifier returned invalid output")

// CorrectionSource supplies recent user corrections for few-shot prompting.
type CorrectionSource interface {
	RecentCategoryCorrections(ctx context.Context, limit int) ([]model.CategoryCorrection, error)
	RecentUrgencyCorrections(ctx context.Context, limit int) ([]model.UrgencyCorrection, error)
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
	corrections CorrectionSource
	taxonomy    *taxonomy.Taxonomy
	logger      *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, corrections CorrectionSource, tax *taxonomy.Taxonomy, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker:     circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		corrections: corrections,
		taxonomy:    tax,
		logger:      logger,
	}
}

type categoryExample struct {
	Sender          string `json:"sender"`
	Subject         string `json:"subject"`
	Snippet         string `json:"snippet"`
	WrongCategory   string `json:"wrong_category"`
	CorrectCategory string `json:"correct_category"`
}

type urgencyExample struct {
	Sender         string `json:"sender"`
	Subject        string `json:"subject"`
	Snippet        string `json:"snippet"`
	WasUrgent      bool   `json:"was_urgent"`
	ShouldBeUrgent bool   `json:"should_be_urgent"`
}

type classifyRequest struct {
	Subject          string            `json:"subject"`
	Sender           string            `json:"sender"`
	Snippet          string            `json:"snippet"`
	Categories       []string          `json:"categories"`
	CategoryExamples []categoryExample `json:"category_examples,omitempty"`
	UrgencyExamples  []urgencyExample  `json:"urgency_examples,omitempty"`
}

type classifyResponse struct {
	Category  string `json:"category"`
	IsUrgent  bool   `json:"is_urgent"`
	Reasoning string `json:"reasoning"`
}

// Classify sends one message to the classifier and validates the response
// against the taxonomy. Any failure is returned as-is; the caller decides
// what to do with it.
func (c *Client) Classify(ctx context.Context, msg model.Message) (*model.ClassificationResult, error) {
	req := classifyRequest{
		Subject:    msg.Subject,
		Sender:     msg.Sender,
		Snippet:    msg.Snippet,
		Categories: c.taxonomy.Categories(),
	}
	c.attachExamples(ctx, &req)

	var resp classifyResponse
	start := time.Now()
	err := c.breaker.Execute(func() error {
		return c.post(ctx, req, &resp)
	})
	if err != nil {
		metrics.RecordClassifierCallLatency("error", time.Since(start))
		return nil, err
	}
	metrics.RecordClassifierCallLatency("success", time.Since(start))

	if resp.Category == "" {
		return nil, fmt.Errorf("%w: empty category", ErrInvalidOutput)
	}
	if !c.taxonomy.Contains(resp.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidOutput, resp.Category)
	}

	return &model.ClassificationResult{
		Category:  resp.Category,
		IsUrgent:  resp.IsUrgent,
		Reasoning: resp.Reasoning,
	}, nil
}

// attachExamples adds recent corrections as few-shot examples. Fetching
// them is best effort: the classify call proceeds without examples if the
// store is unavailable.
func (c *Client) attachExamples(ctx context.Context, req *classifyRequest) {
	if c.corrections == nil {
		return
	}

	cats, err := c.corrections.RecentCategoryCorrections(ctx, maxCategoryExamples)
	if err != nil {
		c.logger.Warn("Failed to load category corrections for prompt", zap.Error(err))
	}
	for _, cc := range cats {
		req.CategoryExamples = append(req.CategoryExamples, categoryExample{
			Sender:          cc.Sender,
			Subject:         cc.Subject,
			Snippet:         cc.Snippet,
			WrongCategory:   cc.WrongCategory,
			CorrectCategory: cc.CorrectCategory,
		})
	}

	urgs, err := c.corrections.RecentUrgencyCorrections(ctx, maxUrgencyExamples)
	if err != nil {
		c.logger.Warn("Failed to load urgency corrections for prompt", zap.Error(err))
	}
	for _, uc := range urgs {
		req.UrgencyExamples = append(req.UrgencyExamples, urgencyExample{
			Sender:         uc.Sender,
			Subject:        uc.Subject,
			Snippet:        uc.Snippet,
			WasUrgent:      uc.WasUrgent,
			ShouldBeUrgent: uc.ShouldBeUrgent,
		})
	}
}

func (c *Client) post(ctx context.Context, payload classifyRequest, out *classifyResponse) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call classifier service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("classifier service 5xx: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier service error: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
