package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/visitbench/visitbench/visit"
)

// tritonRequestBody is Triton's generate endpoint body: a flat text_input
// rather than a messages array or prompt field. Grounded on
// original_source's src/API/triton.py.
type tritonRequestBody struct {
	TextInput   string  `json:"text_input"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

type tritonResponseBody struct {
	TextOutput string `json:"text_output"`
}

// TritonAdapter calls Triton's non-streaming /v2/models/.../generate
// endpoint and synthesizes a single terminal ResPiece from the whole
// response, since Triton in the original never streams per-token (it is
// the one vendor that answers in one shot). Grounded on
// original_source's src/API/triton.py endpoint_interface semantics:
// the runner sees exactly one piece with Stop set, same as any other
// adapter's final chunk.
type TritonAdapter struct{}

func (TritonAdapter) Stream(ctx context.Context, dialog []visit.Message, cfg StreamConfig) <-chan StreamItem {
	out := make(chan StreamItem)
	go tritonGenerate(ctx, dialog, cfg, out)
	return out
}

func tritonGenerate(ctx context.Context, dialog []visit.Message, cfg StreamConfig, out chan<- StreamItem) {
	defer close(out)

	reqBody, err := json.Marshal(tritonRequestBody{
		TextInput:   toPrompt(dialog),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	})
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("triton: encoding request: %w", err)}
		return
	}

	url := cfg.APIBase + "/v2/models/" + cfg.Model + "/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("triton: building request: %w", err)}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	client := &http.Client{}
	if cfg.RequestTimeout > 0 {
		client.Timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}

	resp, err := client.Do(req)
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("triton: request failed: %w", err)}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		out <- StreamItem{Err: fmt.Errorf("triton: rate limited (429)")}
		return
	}
	if resp.StatusCode != http.StatusOK {
		out <- StreamItem{Err: fmt.Errorf("triton: endpoint returned HTTP %d", resp.StatusCode)}
		return
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		out <- StreamItem{Err: fmt.Errorf("triton: reading response: %w", err)}
		return
	}

	var decoded tritonResponseBody
	if err := json.Unmarshal(raw, &decoded); err != nil {
		out <- StreamItem{Err: fmt.Errorf("triton: decoding response: %w", err)}
		return
	}

	content := decoded.TextOutput
	stop := "stop"
	piece := visit.ResPiece{Index: 0, Content: &content, Stop: &stop}
	select {
	case out <- StreamItem{Piece: piece}:
	case <-ctx.Done():
	}
}
