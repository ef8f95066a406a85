package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitbench/visitbench/visit"
)

func TestOpenAIAdapter_Stream_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"hello\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	dialog := []visit.Message{{Role: visit.RoleUser, Content: "hi"}}
	cfg := StreamConfig{APIBase: srv.URL, Model: "m", RequestTimeout: 5}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch := OpenAIAdapter{}.Stream(ctx, dialog, cfg)
	var pieces []StreamItem
	for item := range ch {
		pieces = append(pieces, item)
	}
	require.Len(t, pieces, 1)
	assert.Equal(t, "hello", *pieces[0].Piece.Content)
}

func TestOpenAIAdapter_Stream_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	dialog := []visit.Message{{Role: visit.RoleUser, Content: "hi"}}
	cfg := StreamConfig{APIBase: srv.URL, Model: "m", RequestTimeout: 5}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch := OpenAIAdapter{}.Stream(ctx, dialog, cfg)
	var last StreamItem
	for item := range ch {
		last = item
	}
	require.Error(t, last.Err)
	assert.Contains(t, last.Err.Error(), "429")
}

func TestVLLMAdapter_DelegatesToOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	dialog := []visit.Message{{Role: visit.RoleUser, Content: "hi"}}
	cfg := StreamConfig{APIBase: srv.URL, Model: "m", RequestTimeout: 5}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch := VLLMAdapter{}.Stream(ctx, dialog, cfg)
	var pieces []StreamItem
	for item := range ch {
		pieces = append(pieces, item)
	}
	assert.Empty(t, pieces)
}

func TestToPrompt_FlattensDialog(t *testing.T) {
	dialog := []visit.Message{
		{Role: visit.RoleSystem, Content: "be terse"},
		{Role: visit.RoleUser, Content: "hi"},
	}
	got := toPrompt(dialog)
	assert.Equal(t, "system: be terse\nuser: hi", got)
}
