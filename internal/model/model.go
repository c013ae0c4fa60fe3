// Package model defines the domain types shared across the service.
package model

import "time"

// Classification sources.
const (
	SourceRule     = "rule"
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Message is one inbox message as fetched from the mail provider. Read-only
// within the service; never mutated.
type Message struct {
	ID      string
	Sender  string
	Subject string
	Snippet string
	Body    string
}

// ClassificationResult is the final routing decision for one message.
type ClassificationResult struct {
	Category  string `json:"category"`
	IsUrgent  bool   `json:"is_urgent"`
	Reasoning string `json:"reasoning"`
	Source    string `json:"source"`
}

// SenderRule maps a sender fragment to a category. The fragment is matched
// by case-insensitive substring containment against the From header; the
// first rule in store order wins.
type SenderRule struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailLogEntry records one processed message, keyed by message ID.
// Reprocessing the same ID overwrites the entry.
type EmailLogEntry struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Snippet   string    `json:"snippet"`
	Category  string    `json:"category"`
	IsUrgent  bool      `json:"is_urgent"`
	Reasoning string    `json:"reasoning"`
	Timestamp time.Time `json:"timestamp"`
}

// CategoryCorrection is user feedback that a message was filed under the
// wrong category. Retained forever as training signal.
type CategoryCorrection struct {
	ID              string    `json:"id"`
	Sender          string    `json:"sender"`
	Subject         string    `json:"subject"`
	Snippet         string    `json:"snippet"`
	WrongCategory   string    `json:"wrong_category"`
	CorrectCategory string    `json:"correct_category"`
	Timestamp       time.Time `json:"timestamp"`
}

// UrgencyCorrection is user feedback on the urgency flag.
type UrgencyCorrection struct {
	ID             string    `json:"id"`
	Sender         string    `json:"sender"`
	Subject        string    `json:"subject"`
	Snippet        string    `json:"snippet"`
	WasUrgent      bool      `json:"was_urgent"`
	ShouldBeUrgent bool      `json:"should_be_urgent"`
	Timestamp      time.Time `json:"timestamp"`
}

// PatternSuggestion is a candidate sender rule mined from the log history.
// Recomputed on every query, never persisted.
type PatternSuggestion struct {
	Sender     string  `json:"sender"`
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// DailyStats is the per-day processing summary.
type DailyStats struct {
	Date           string         `json:"date"`
	TotalProcessed int            `json:"total_processed"`
	Categories     map[string]int `json:"categories"`
}
