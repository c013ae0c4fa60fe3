package mailclient

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LabelCache maps label names to provider label IDs. The mapping is loaded
// lazily and kept for the process lifetime; a lookup miss triggers one full
// refresh. Labels are provisioned externally and never created here.
type LabelCache struct {
	client Client
	logger *zap.Logger

	mu  sync.RWMutex
	ids map[string]string
}

func NewLabelCache(client Client, logger *zap.Logger) *LabelCache {
	return &LabelCache{
		client: client,
		logger: logger,
		ids:    make(map[string]string),
	}
}

// LabelID resolves a label name to its ID. Returns found=false when the
// provider has no label with that name, even after a refresh.
func (c *LabelCache) LabelID(ctx context.Context, name string) (id string, found bool, err error) {
	c.mu.RLock()
	id, ok := c.ids[name]
	c.mu.RUnlock()

	if ok {
		return id, true, nil
	}

	// Cold cache or unknown name; one refresh covers both (a label may be
	// provisioned after startup).
	if err := c.refresh(ctx); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	id, ok = c.ids[name]
	c.mu.RUnlock()
	return id, ok, nil
}

// Invalidate drops the cached mapping. The next lookup reloads it.
func (c *LabelCache) Invalidate() {
	c.mu.Lock()
	c.ids = make(map[string]string)
	c.mu.Unlock()
}

func (c *LabelCache) refresh(ctx context.Context) error {
	labels, err := c.client.ListLabels(ctx)
	if err != nil {
		return err
	}

	ids := make(map[string]string, len(labels))
	for _, l := range labels {
		ids[l.Name] = l.ID
	}

	c.mu.Lock()
	c.ids = ids
	c.mu.Unlock()

	c.logger.Debug("Label cache refreshed", zap.Int("labels", len(labels)))
	return nil
}
