package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	sse "github.com/r3labs/sse/v2"

	"github.com/visitbench/visitbench/visit"
)

// FriendliAIAdapter streams chat completions over genuine multi-field SSE
// (as opposed to the bare "data:" line scanning the other adapters use).
// Grounded on original_source's src/API/friendliai.py, which decodes real
// SSE frames and sets a Bearer auth header rather than an API-key query
// param. Frame decoding uses r3labs/sse's low-level event-stream reader,
// sourced from the pack's teradata-labs-loom repo (pkg/mcp/transport/http.go),
// the one example in the corpus that depends on a real SSE library.
type FriendliAIAdapter struct{}

const friendliMaxEventBuffer = 1 << 20

func (FriendliAIAdapter) Stream(ctx context.Context, dialog []visit.Message, cfg StreamConfig) <-chan StreamItem {
	out := make(chan StreamItem)
	go friendliStream(ctx, dialog, cfg, out)
	return out
}

func friendliStream(ctx context.Context, dialog []visit.Message, cfg StreamConfig, out chan<- StreamItem) {
	defer close(out)

	body, err := buildBody(dialog, cfg)
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("friendliai: encoding request: %w", err)}
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBase, bytes.NewReader(body))
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("friendliai: building request: %w", err)}
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	client := &http.Client{}
	if cfg.RequestTimeout > 0 {
		client.Timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}

	resp, err := client.Do(req)
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("friendliai: request failed: %w", err)}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		out <- StreamItem{Err: fmt.Errorf("friendliai: rate limited (429)")}
		return
	}
	if resp.StatusCode != http.StatusOK {
		out <- StreamItem{Err: fmt.Errorf("friendliai: endpoint returned HTTP %d", resp.StatusCode)}
		return
	}

	reader := sse.NewEventStreamReader(resp.Body, friendliMaxEventBuffer)
	for {
		raw, err := reader.ReadEvent()
		if err != nil {
			return // EOF or closed connection: stream ends normally
		}
		data := extractSSEData(raw)
		if len(data) == 0 {
			continue
		}
		if string(data) == "[DONE]" {
			return
		}
		var chunk chatChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			continue // malformed frame: skip, stream continues (spec.md §7)
		}
		for _, c := range chunk.Choices {
			piece := visit.ResPiece{Index: c.Index, Stop: c.FinishReason}
			if c.Delta.Role != "" {
				role := visit.Role(c.Delta.Role)
				piece.Role = &role
			}
			if c.Delta.Content != "" {
				content := c.Delta.Content
				piece.Content = &content
			}
			select {
			case out <- StreamItem{Piece: piece}:
			case <-ctx.Done():
				return
			}
			if piece.Stop != nil {
				return
			}
		}
	}
}

// extractSSEData pulls the concatenated payload out of one raw SSE frame:
// every "data:" field, joined with newlines per the SSE spec.
func extractSSEData(raw []byte) []byte {
	var payload bytes.Buffer
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimPrefix(line, []byte("data:"))
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if payload.Len() > 0 {
			payload.WriteByte('\n')
		}
		payload.Write(line)
	}
	return payload.Bytes()
}
