package adapter

import (
	"context"
	"fmt"

	"github.com/visitbench/visitbench/visit"
)

// OpenAIAdapter streams chat/legacy completions from an OpenAI-compatible
// endpoint. Grounded on original_source's src/API/openai.py and common.py.
type OpenAIAdapter struct{}

func (OpenAIAdapter) Stream(ctx context.Context, dialog []visit.Message, cfg StreamConfig) <-chan StreamItem {
	out := make(chan StreamItem)
	path := "/v1/chat/completions"
	if cfg.Legacy {
		path = "/v1/completions"
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	go postSSE(ctx, cfg.APIBase+path, dialog, cfg, headers, out)
	return out
}

// VLLMAdapter streams from a vLLM server's OpenAI-compatible endpoint.
// Grounded on original_source's src/API/openai.py (the original routes
// vLLM traffic through the same OpenAI-compatible client, just against a
// different base URL).
type VLLMAdapter struct{}

func (VLLMAdapter) Stream(ctx context.Context, dialog []visit.Message, cfg StreamConfig) <-chan StreamItem {
	return OpenAIAdapter{}.Stream(ctx, dialog, cfg)
}

// TGIAdapter streams from a HuggingFace Text Generation Inference server,
// which also exposes an OpenAI-compatible streaming surface. Grounded on
// original_source's src/API/tgi.py.
type TGIAdapter struct{}

func (TGIAdapter) Stream(ctx context.Context, dialog []visit.Message, cfg StreamConfig) <-chan StreamItem {
	out := make(chan StreamItem)
	path := "/v1/chat/completions"
	if cfg.Legacy {
		path = "/v1/completions"
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = fmt.Sprintf("Bearer %s", cfg.APIKey)
	}
	go postSSE(ctx, cfg.APIBase+path, dialog, cfg, headers, out)
	return out
}
