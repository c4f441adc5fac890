// internal/infra/slack/responder.go
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"export_stats_bot/internal/domain/chat"
)

// Responder implements chat.Responder by POSTing JSON to incoming-webhook and response_url endpoints.
type Responder struct {
	client *http.Client
}

func NewResponder(client *http.Client) *Responder {
	return &Responder{client: client}
}

// Post sends msg to url. Any non-2xx status is an error.
func (r *Responder) Post(ctx context.Context, url string, msg chat.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
