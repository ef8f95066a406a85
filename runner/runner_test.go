package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitbench/visitbench/config"
	"github.com/visitbench/visitbench/tracelog"
	"github.com/visitbench/visitbench/visit"
)

func offset(f float64) *float64 { return &f }

func TestRun_EmptyVisit(t *testing.T) {
	resp, err := Run(context.Background(), visit.Visit{}, Options{EndpointType: "openai"})
	require.NoError(t, err)
	assert.Empty(t, resp.Responses)
	assert.False(t, resp.Failed)
}

func TestRun_DependencyResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		msgs, _ := body["messages"].([]any)
		last := msgs[len(msgs)-1].(map[string]any)
		fmt.Fprintf(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"echo:%s\"}}]}\n\n", last["content"])
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	v := visit.Visit{
		{Offset: offset(0), Req: visit.SimReq{
			ID:     "r1",
			Stream: true,
			MessagesWithDep: []visit.Message{
				{Role: visit.RoleUser, Content: "hello"},
			},
			Params: visit.GenParams{Model: "m"},
		}},
		{Offset: nil, Req: visit.SimReq{
			ID:     "r2",
			Stream: true,
			MessagesWithDep: []visit.Message{
				{Role: visit.RoleUser, DepID: "r1"},
			},
			Params: visit.GenParams{Model: "m"},
		}},
	}

	cfg := config.RunConfig{URL: srv.URL, Model: "m", EndpointType: "openai"}
	resp, err := Run(context.Background(), v, Options{EndpointType: "openai", RunConfig: cfg})
	require.NoError(t, err)
	require.Len(t, resp.Responses, 2)
	assert.False(t, resp.Failed)

	r2Dialog := resp.Responses[1].Dialog
	require.Len(t, r2Dialog, 2) // substituted user turn + assistant reply
	assert.Contains(t, r2Dialog[0].Content, "echo:hello")
}

func TestRun_AbortsRemainderOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	v := visit.Visit{
		{Offset: offset(0), Req: visit.SimReq{
			ID: "r1", Stream: true,
			MessagesWithDep: []visit.Message{{Role: visit.RoleUser, Content: "hi"}},
			Params:          visit.GenParams{Model: "m"},
		}},
		{Offset: offset(1), Req: visit.SimReq{
			ID: "r2", Stream: true,
			MessagesWithDep: []visit.Message{{Role: visit.RoleUser, Content: "hi2"}},
			Params:          visit.GenParams{Model: "m"},
		}},
	}
	cfg := config.RunConfig{URL: srv.URL, Model: "m", EndpointType: "openai"}
	trace := tracelog.NewLogger()
	trace.InitTask("t1", 2, time.Now())

	resp, err := Run(context.Background(), v, Options{TaskID: "t1", EndpointType: "openai", RunConfig: cfg, Trace: trace})
	require.NoError(t, err)
	assert.True(t, resp.Failed)
	require.Len(t, resp.Responses, 1) // second request never launched
	assert.True(t, resp.Responses[0].Failed())
}

func TestRun_UnknownEndpointType(t *testing.T) {
	v := visit.Visit{{Req: visit.SimReq{ID: "r1", Stream: true, Params: visit.GenParams{Model: "m"}}}}
	_, err := Run(context.Background(), v, Options{EndpointType: "bogus"})
	require.Error(t, err)
}

func TestRun_MissingModelIsFatal(t *testing.T) {
	v := visit.Visit{{Offset: offset(0), Req: visit.SimReq{ID: "r1", Stream: true}}}
	resp, err := Run(context.Background(), v, Options{EndpointType: "openai"})
	require.NoError(t, err)
	assert.True(t, resp.Failed)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 3, wordCount("foo bar baz"))
	assert.Equal(t, 0, wordCount(""))
}

