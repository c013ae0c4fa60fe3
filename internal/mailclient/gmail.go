package mailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mailpilot/internal/config"
)

// GmailClient talks to the Gmail REST API with a bearer token. Metadata
// fetches use format=metadata to keep payloads small; full bodies are never
// pulled.
type GmailClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewGmailClient(cfg config.GmailConfig) *GmailClient {
	return &GmailClient{
		baseURL: cfg.BaseURL,
		token:   cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *GmailClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail api status %d: %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *GmailClient) ListUnreadInbox(ctx context.Context, maxResults int) ([]MessageRef, error) {
	q := url.Values{}
	q.Set("q", "label:INBOX is:unread")
	q.Set("maxResults", strconv.Itoa(maxResults))

	var out struct {
		Messages []MessageRef `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/gmail/v1/users/me/messages?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}
	return out.Messages, nil
}

func (c *GmailClient) GetMessageMetadata(ctx context.Context, id string) (*MessageMetadata, error) {
	q := url.Values{}
	q.Set("format", "metadata")
	q.Add("metadataHeaders", "Subject")
	q.Add("metadataHeaders", "From")

	var out struct {
		Snippet string `json:"snippet"`
		Payload struct {
			Headers []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"headers"`
		} `json:"payload"`
	}
	path := "/gmail/v1/users/me/messages/" + url.PathEscape(id) + "?" + q.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	meta := &MessageMetadata{
		Subject: "No Subject",
		From:    "Unknown Sender",
		Snippet: out.Snippet,
	}
	for _, h := range out.Payload.Headers {
		switch h.Name {
		case "Subject":
			meta.Subject = h.Value
		case "From":
			meta.From = h.Value
		}
	}
	return meta, nil
}

func (c *GmailClient) ListLabels(ctx context.Context) ([]Label, error) {
	var out struct {
		Labels []Label `json:"labels"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/gmail/v1/users/me/labels", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return out.Labels, nil
}

func (c *GmailClient) ModifyMessage(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) error {
	body := struct {
		AddLabelIDs    []string `json:"addLabelIds,omitempty"`
		RemoveLabelIDs []string `json:"removeLabelIds,omitempty"`
	}{addLabelIDs, removeLabelIDs}

	path := "/gmail/v1/users/me/messages/" + url.PathEscape(id) + "/modify"
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("failed to modify message %s: %w", id, err)
	}
	return nil
}
