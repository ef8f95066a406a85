package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/visitbench/visitbench/visit"
)

// chatMessage is the wire shape of one dialog message.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequestBody is the OpenAI-compatible chat-completion request body.
type chatRequestBody struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// legacyRequestBody is the legacy completion request body: the dialog is
// flattened to a single prompt string (spec.md §6).
type legacyRequestBody struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

func toChatMessages(dialog []visit.Message) []chatMessage {
	out := make([]chatMessage, len(dialog))
	for i, m := range dialog {
		out[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func toPrompt(dialog []visit.Message) string {
	var buf bytes.Buffer
	for i, m := range dialog {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "%s: %s", m.Role, m.Content)
	}
	return buf.String()
}

// buildBody constructs the JSON request body for cfg.Legacy or chat shape.
func buildBody(dialog []visit.Message, cfg StreamConfig) ([]byte, error) {
	if cfg.Legacy {
		return json.Marshal(legacyRequestBody{
			Model: cfg.Model, Prompt: toPrompt(dialog), Stream: true,
			Temperature: cfg.Temperature, TopP: cfg.TopP, MaxTokens: cfg.MaxTokens,
		})
	}
	return json.Marshal(chatRequestBody{
		Model: cfg.Model, Messages: toChatMessages(dialog), Stream: true,
		Temperature: cfg.Temperature, TopP: cfg.TopP, MaxTokens: cfg.MaxTokens,
	})
}

// postSSE POSTs dialog to url as an OpenAI-compatible streaming request and
// forwards the parsed pieces to out on a background goroutine. headers lets
// callers add vendor-specific auth/accept headers (spec.md §4.2/§6: content
// type application/json out, text/event-stream accepted in; 429 is a
// rate-limit error that must propagate, not retry).
func postSSE(ctx context.Context, url string, dialog []visit.Message, cfg StreamConfig, headers map[string]string, out chan<- StreamItem) {
	defer close(out)

	body, err := buildBody(dialog, cfg)
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("adapter: encoding request: %w", err)}
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("adapter: building request: %w", err)}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{}
	if cfg.RequestTimeout > 0 {
		client.Timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}

	resp, err := client.Do(req)
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("adapter: request failed: %w", err)}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		out <- StreamItem{Err: fmt.Errorf("adapter: rate limited (429) by %s", url)}
		return
	}
	if resp.StatusCode != http.StatusOK {
		out <- StreamItem{Err: fmt.Errorf("adapter: endpoint returned HTTP %d", resp.StatusCode)}
		return
	}

	innerOut := make(chan StreamItem)
	go func() {
		ScanSSELines(resp.Body, cfg.Legacy, innerOut)
		close(innerOut)
	}()
	for item := range innerOut {
		select {
		case out <- item:
		case <-ctx.Done():
			return
		}
		if item.Err != nil {
			return
		}
	}
}
