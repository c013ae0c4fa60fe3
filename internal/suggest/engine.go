// Package suggest mines the routing history for senders whose messages land
// in the same category consistently enough to become explicit rules.
// Suggestions are recomputed on every call and never persisted; they expire
// naturally as the log window slides.
package suggest

import (
	"context"
	"sort"
	"strings"

	"mailpilot/internal/model"
)

// Window is how many recent log entries are mined per query.
const Window = 500

type LogSource interface {
	RecentWindow(ctx context.Context, limit int) ([]model.EmailLogEntry, error)
}

type RuleSource interface {
	List(ctx context.Context) ([]model.SenderRule, error)
}

type Engine struct {
	logs  LogSource
	rules RuleSource
}

func NewEngine(logs LogSource, rules RuleSource) *Engine {
	return &Engine{logs: logs, rules: rules}
}

type senderStats struct {
	counts map[string]int
	order  []string // categories in first-seen order, for a stable tie-break
	total  int
}

// SuggestRules returns candidate rules for senders with at least
// minOccurrences logged messages whose dominant category share is at least
// confidenceThreshold. Senders already covered by a rule (exact
// case-insensitive match on the stored fragment) are suppressed.
func (e *Engine) SuggestRules(ctx context.Context, minOccurrences int, confidenceThreshold float64) ([]model.PatternSuggestion, error) {
	logs, err := e.logs.RecentWindow(ctx, Window)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]*senderStats)
	var senderOrder []string
	for _, entry := range logs {
		sender := strings.ToLower(entry.Sender)
		s, ok := stats[sender]
		if !ok {
			s = &senderStats{counts: make(map[string]int)}
			stats[sender] = s
			senderOrder = append(senderOrder, sender)
		}
		if s.counts[entry.Category] == 0 {
			s.order = append(s.order, entry.Category)
		}
		s.counts[entry.Category]++
		s.total++
	}

	var suggestions []model.PatternSuggestion
	for _, sender := range senderOrder {
		s := stats[sender]
		if s.total < minOccurrences {
			continue
		}

		var dominantCategory string
		var dominantCount int
		for _, cat := range s.order {
			if s.counts[cat] > dominantCount {
				dominantCount = s.counts[cat]
				dominantCategory = cat
			}
		}

		confidence := float64(dominantCount) / float64(s.total)
		if confidence >= confidenceThreshold {
			suggestions = append(suggestions, model.PatternSuggestion{
				Sender:     sender,
				Category:   dominantCategory,
				Count:      s.total,
				Confidence: confidence,
			})
		}
	}

	if len(suggestions) == 0 {
		return suggestions, nil
	}

	rules, err := e.rules.List(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		existing[strings.ToLower(r.Sender)] = struct{}{}
	}

	filtered := suggestions[:0]
	for _, sug := range suggestions {
		if _, covered := existing[sug.Sender]; covered {
			continue
		}
		filtered = append(filtered, sug)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Count > filtered[j].Count
	})

	return filtered, nil
}
