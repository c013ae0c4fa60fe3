// Package mailclient wraps the mail provider's REST API behind a small
// interface: list unread inbox messages, fetch lightweight metadata, list
// labels and move messages between labels.
package mailclient

import "context"

// InboxLabelID is the provider's well-known inbox label.
const InboxLabelID = "INBOX"

type MessageRef struct {
	ID string `json:"id"`
}

type MessageMetadata struct {
	Subject string
	From    string
	Snippet string
}

type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Client interface {
	ListUnreadInbox(ctx context.Context, maxResults int) ([]MessageRef, error)
	GetMessageMetadata(ctx context.Context, id string) (*MessageMetadata, error)
	ListLabels(ctx context.Context) ([]Label, error)
	ModifyMessage(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) error
}
