package mailclient

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLabelClient struct {
	mu        sync.Mutex
	labels    []Label
	err       error
	listCalls int
}

func (s *stubLabelClient) ListLabels(ctx context.Context) ([]Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.labels, nil
}

func (s *stubLabelClient) ListUnreadInbox(ctx context.Context, maxResults int) ([]MessageRef, error) {
	return nil, nil
}

func (s *stubLabelClient) GetMessageMetadata(ctx context.Context, id string) (*MessageMetadata, error) {
	return nil, nil
}

func (s *stubLabelClient) ModifyMessage(ctx context.Context, id string, add, remove []string) error {
	return nil
}

func TestLabelIDLazyLoad(t *testing.T) {
	client := &stubLabelClient{labels: []Label{{ID: "Label_1", Name: "Work"}}}
	cache := NewLabelCache(client, zap.NewNop())

	id, found, err := cache.LabelID(context.Background(), "Work")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Label_1", id)
	assert.Equal(t, 1, client.listCalls)

	// Second lookup is served from the cache.
	_, _, err = cache.LabelID(context.Background(), "Work")
	require.NoError(t, err)
	assert.Equal(t, 1, client.listCalls)
}

func TestLabelIDMissRefreshesOnce(t *testing.T) {
	client := &stubLabelClient{labels: []Label{{ID: "Label_1", Name: "Work"}}}
	cache := NewLabelCache(client, zap.NewNop())

	_, _, err := cache.LabelID(context.Background(), "Work")
	require.NoError(t, err)

	// Label provisioned after the cache warmed up.
	client.mu.Lock()
	client.labels = append(client.labels, Label{ID: "Label_2", Name: "Finance"})
	client.mu.Unlock()

	id, found, err := cache.LabelID(context.Background(), "Finance")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Label_2", id)
	assert.Equal(t, 2, client.listCalls)
}

func TestLabelIDNotFound(t *testing.T) {
	client := &stubLabelClient{labels: []Label{{ID: "Label_1", Name: "Work"}}}
	cache := NewLabelCache(client, zap.NewNop())

	_, found, err := cache.LabelID(context.Background(), "Personal")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLabelIDListError(t *testing.T) {
	client := &stubLabelClient{err: errors.New("mail api status 500")}
	cache := NewLabelCache(client, zap.NewNop())

	_, _, err := cache.LabelID(context.Background(), "Work")
	assert.Error(t, err)
}

func TestInvalidateForcesReload(t *testing.T) {
	client := &stubLabelClient{labels: []Label{{ID: "Label_1", Name: "Work"}}}
	cache := NewLabelCache(client, zap.NewNop())

	_, _, err := cache.LabelID(context.Background(), "Work")
	require.NoError(t, err)

	cache.Invalidate()

	_, _, err = cache.LabelID(context.Background(), "Work")
	require.NoError(t, err)
	assert.Equal(t, 2, client.listCalls)
}
