package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicerelay/internal/models"
)

const defaultResultText = "Task completed successfully"

// resultKeys are checked in strict priority order; an empty or non-string
// value at a higher-priority key is skipped in favor of the next.
var resultKeys = []string{"result", "message", "data"}

// Webhook forwards intents as a JSON POST to an external automation
// endpoint. A non-2xx reply is a dispatch failure; there is no retry.
type Webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) Dispatch(ctx context.Context, intent *models.Intent) (*models.ExecutionResult, error) {
	body, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("marshaling intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webhook failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &models.ExecutionResult{
		Success: true,
		Result:  resolveResultText(respBody),
		Intent:  intent,
	}, nil
}

// resolveResultText digs a human-readable result out of an untyped webhook
// reply: first non-empty string among result > message > data wins.
func resolveResultText(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return defaultResultText
	}
	for _, key := range resultKeys {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return defaultResultText
}
