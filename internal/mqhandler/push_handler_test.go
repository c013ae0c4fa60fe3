package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "mailpilot/contracts/mq"
	"mailpilot/internal/pipeline"
)

type stubRunner struct {
	result     *pipeline.Result
	err        error
	batchSizes []int
}

func (s *stubRunner) ProcessBatch(ctx context.Context, batchSize int) (*pipeline.Result, error) {
	s.batchSizes = append(s.batchSizes, batchSize)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubDLQ struct {
	routingKeys []string
	payloads    [][]byte
	errs        []string
}

func (s *stubDLQ) PublishToDLQ(routingKey string, payload []byte, originalError string) error {
	s.routingKeys = append(s.routingKeys, routingKey)
	s.payloads = append(s.payloads, payload)
	s.errs = append(s.errs, originalError)
	return nil
}

func pushPayload(t *testing.T) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(mqcontracts.PushReceivedPayload{
		EmailAddress: "me@example.com",
		HistoryID:    "12345",
		ReceivedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return b
}

func TestHandleRunsSingleMessageBatch(t *testing.T) {
	runner := &stubRunner{result: &pipeline.Result{Count: 1}}
	h := NewPushHandler(runner, &stubDLQ{}, zap.NewNop())

	err := h.Handle(context.Background(), pushPayload(t))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, runner.batchSizes)
}

func TestHandlePoisonMessageGoesToDLQ(t *testing.T) {
	runner := &stubRunner{}
	dlq := &stubDLQ{}
	h := NewPushHandler(runner, dlq, zap.NewNop())

	err := h.Handle(context.Background(), json.RawMessage(`{invalid`))
	require.NoError(t, err, "a poison message is acked, not requeued")

	require.Len(t, dlq.routingKeys, 1)
	assert.Equal(t, "mail.push.received", dlq.routingKeys[0])
	assert.Empty(t, runner.batchSizes)
}

func TestHandleRetryableFailurePropagates(t *testing.T) {
	runner := &stubRunner{err: errors.New("mail api status 503: GET /messages")}
	h := NewPushHandler(runner, &stubDLQ{}, zap.NewNop())

	err := h.Handle(context.Background(), pushPayload(t))
	assert.Error(t, err, "a retryable failure must nack so MQ redelivers")
}

func TestHandleNonRetryableFailureIsAcked(t *testing.T) {
	runner := &stubRunner{err: errors.New("mail api status 401: GET /messages")}
	h := NewPushHandler(runner, &stubDLQ{}, zap.NewNop())

	err := h.Handle(context.Background(), pushPayload(t))
	assert.NoError(t, err, "retrying an auth failure only burns redeliveries")
}

func TestHandleQuotaSkipIsAcked(t *testing.T) {
	runner := &stubRunner{result: &pipeline.Result{Skipped: true, Reason: pipeline.SkipReasonQuota}}
	h := NewPushHandler(runner, &stubDLQ{}, zap.NewNop())

	err := h.Handle(context.Background(), pushPayload(t))
	assert.NoError(t, err)
}
