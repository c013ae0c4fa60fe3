// Package mq defines the event payloads exchanged over the mail.events
// exchange. Producers and consumers share these types.
package mq

import "time"

// PushReceivedPayload is published when the mail provider's push webhook
// fires. HistoryID is recorded but not used for delta enumeration; the
// consumer asks the mail client for the latest unread messages instead.
type PushReceivedPayload struct {
	EmailAddress string    `json:"email_address"`
	HistoryID    string    `json:"history_id"`
	ReceivedAt   time.Time `json:"received_at"`
}

// EmailRoutedPayload is published (via the outbox) after a message has been
// classified, labeled and logged.
type EmailRoutedPayload struct {
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Category  string    `json:"category"`
	IsUrgent  bool      `json:"is_urgent"`
	Source    string    `json:"source"`
	RoutedAt  time.Time `json:"routed_at"`
}
