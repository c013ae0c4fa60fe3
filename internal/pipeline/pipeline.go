// Package pipeline drives one inbox-processing batch: quota gate, bounded
// fetch, per-message routing, label mutation, and best-effort persistence.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/mailclient"
	"mailpilot/internal/model"
	"mailpilot/pkg/logger"
	"mailpilot/pkg/metrics"
)

// SkipReasonQuota is reported when a batch is skipped at the quota gate.
const SkipReasonQuota = "quota_exceeded"

type RuleSource interface {
	List(ctx context.Context) ([]model.SenderRule, error)
}

type QuotaTracker interface {
	Usage(ctx context.Context, day string) (int64, error)
	Increment(ctx context.Context, day string) (int64, error)
}

type Router interface {
	Route(ctx context.Context, msg model.Message, rules []model.SenderRule, quotaUsage, quotaLimit int64) (model.ClassificationResult, error)
}

type LogStore interface {
	UpsertRouted(ctx context.Context, entry model.EmailLogEntry, source string) error
}

type StatsStore interface {
	IncrementDay(ctx context.Context, date, category string) error
}

// DayKeyFunc returns the quota/stats day key for a point in time.
type DayKeyFunc func(time.Time) string

type Config struct {
	QuotaLimit   int64
	Concurrency  int
	MessageDelay time.Duration
}

// MessageError is one message's failure, collected without aborting the
// batch.
type MessageError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Result summarizes one batch.
type Result struct {
	Skipped bool
	Reason  string
	Count   int
	Errors  []MessageError
}

type Pipeline struct {
	mail   mailclient.Client
	labels *mailclient.LabelCache
	rules  RuleSource
	quota  QuotaTracker
	engine Router
	logs   LogStore
	stats  StatsStore
	dayKey DayKeyFunc
	cfg    Config
	logger *zap.Logger
}

func New(
	mail mailclient.Client,
	labels *mailclient.LabelCache,
	rules RuleSource,
	quota QuotaTracker,
	engine Router,
	logs LogStore,
	stats StatsStore,
	dayKey DayKeyFunc,
	cfg Config,
	log *zap.Logger,
) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		mail:   mail,
		labels: labels,
		rules:  rules,
		quota:  quota,
		engine: engine,
		logs:   logs,
		stats:  stats,
		dayKey: dayKey,
		cfg:    cfg,
		logger: log,
	}
}

// ProcessBatch runs one batch of at most batchSize messages. The quota is
// checked once, at batch start; a concurrent batch can overshoot by at most
// one batch, which is accepted. Per-message failures are collected and
// never abort the rest of the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, batchSize int) (*Result, error) {
	log := logger.WithTrace(ctx, p.logger)
	day := p.dayKey(time.Now())

	usage, err := p.quota.Usage(ctx, day)
	if err != nil {
		// Redis down: fail open so mail keeps flowing; the overage is
		// bounded by one batch.
		log.Warn("Quota lookup failed, proceeding", zap.Error(err))
		usage = 0
	}

	if usage >= p.cfg.QuotaLimit {
		log.Info("Batch skipped, daily quota exhausted",
			zap.Int64("usage", usage),
			zap.Int64("limit", p.cfg.QuotaLimit),
		)
		metrics.IncrementQuotaSkipped()
		return &Result{Skipped: true, Reason: SkipReasonQuota}, nil
	}

	refs, err := p.mail.ListUnreadInbox(ctx, batchSize)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		log.Info("Inbox is already empty")
		return &Result{}, nil
	}

	rules, err := p.rules.List(ctx)
	if err != nil {
		// Stale or missing rules only cost classifier calls; routing
		// still works.
		log.Warn("Failed to load sender rules, routing without them", zap.Error(err))
		rules = nil
	}

	res := &Result{}
	var mu sync.Mutex

	process := func(ref mailclient.MessageRef) {
		if err := p.processMessage(ctx, ref.ID, rules, usage, day); err != nil {
			log.Error("Failed to process message",
				zap.String("message_id", ref.ID),
				zap.Error(err),
			)
			mu.Lock()
			res.Errors = append(res.Errors, MessageError{ID: ref.ID, Error: err.Error()})
			mu.Unlock()
			return
		}
		mu.Lock()
		res.Count++
		mu.Unlock()
	}

	if p.cfg.Concurrency == 1 {
		for i, ref := range refs {
			if ctx.Err() != nil {
				break
			}
			if i > 0 && p.cfg.MessageDelay > 0 {
				time.Sleep(p.cfg.MessageDelay)
			}
			process(ref)
		}
		return res, nil
	}

	// Small fixed fan-out in chunks, sized for the classifier's rate
	// budget rather than throughput.
	for i := 0; i < len(refs); i += p.cfg.Concurrency {
		if ctx.Err() != nil {
			break
		}
		end := i + p.cfg.Concurrency
		if end > len(refs) {
			end = len(refs)
		}

		var wg sync.WaitGroup
		for _, ref := range refs[i:end] {
			wg.Add(1)
			go func(ref mailclient.MessageRef) {
				defer wg.Done()
				process(ref)
			}(ref)
		}
		wg.Wait()
	}

	return res, nil
}

func (p *Pipeline) processMessage(ctx context.Context, id string, rules []model.SenderRule, quotaUsage int64, day string) error {
	log := logger.WithTrace(ctx, p.logger)

	meta, err := p.mail.GetMessageMetadata(ctx, id)
	if err != nil {
		metrics.IncrementEmailRouted("none", "failed")
		return err
	}

	msg := model.Message{
		ID:      id,
		Sender:  meta.From,
		Subject: meta.Subject,
		Snippet: meta.Snippet,
	}

	result, err := p.engine.Route(ctx, msg, rules, quotaUsage, p.cfg.QuotaLimit)
	if err != nil {
		metrics.IncrementEmailRouted("none", "failed")
		return err
	}

	log.Info("Message routed",
		zap.String("message_id", id),
		zap.String("category", result.Category),
		zap.String("source", result.Source),
		zap.Bool("is_urgent", result.IsUrgent),
	)

	if err := p.applyLabel(ctx, id, result.Category); err != nil {
		metrics.IncrementEmailRouted(result.Source, "failed")
		return err
	}

	// Label state is already committed; persistence failures below are
	// logged and swallowed so the two systems may drift (best effort, not
	// exactly-once).
	entry := model.EmailLogEntry{
		ID:        id,
		Sender:    msg.Sender,
		Subject:   msg.Subject,
		Snippet:   msg.Snippet,
		Category:  result.Category,
		IsUrgent:  result.IsUrgent,
		Reasoning: result.Reasoning,
		Timestamp: time.Now().UTC(),
	}
	if err := p.logs.UpsertRouted(ctx, entry, result.Source); err != nil {
		log.Error("Failed to persist email log", zap.String("message_id", id), zap.Error(err))
	}
	if err := p.stats.IncrementDay(ctx, day, result.Category); err != nil {
		log.Error("Failed to increment daily stats", zap.String("date", day), zap.Error(err))
	}
	if _, err := p.quota.Increment(ctx, day); err != nil {
		log.Error("Failed to increment quota counter", zap.String("date", day), zap.Error(err))
	}

	metrics.IncrementEmailRouted(result.Source, "success")
	return nil
}

// applyLabel moves the message out of the inbox into the category label.
// A category without a provisioned label is a warning, not a failure: the
// log entry is still written.
func (p *Pipeline) applyLabel(ctx context.Context, id, category string) error {
	log := logger.WithTrace(ctx, p.logger)

	labelID, found, err := p.labels.LabelID(ctx, category)
	if err != nil {
		return err
	}
	if !found {
		log.Warn("No label provisioned for category, skipping move",
			zap.String("message_id", id),
			zap.String("category", category),
		)
		return nil
	}

	return p.mail.ModifyMessage(ctx, id, []string{labelID}, []string{mailclient.InboxLabelID})
}
