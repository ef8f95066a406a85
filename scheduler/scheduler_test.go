package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitbench/visitbench/config"
	"github.com/visitbench/visitbench/visit"
)

func offset(f float64) *float64 { return &f }

func echoServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func simpleVisit(id string) visit.Visit {
	return visit.Visit{{Offset: offset(0), Req: visit.SimReq{
		ID: id, Stream: true,
		MessagesWithDep: []visit.Message{{Role: visit.RoleUser, Content: "hi"}},
		Params:          visit.GenParams{Model: "m"},
	}}}
}

func TestRun_EmptyWorkload(t *testing.T) {
	out, err := Run(context.Background(), visit.Workload{}, Options{EndpointType: "openai"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_ReturnsInSourceOrderRegardlessOfCompletionOrder(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	w := visit.Workload{
		{StartOffset: 0, V: simpleVisit("a")},
		{StartOffset: 0, V: simpleVisit("b")},
		{StartOffset: 0, V: simpleVisit("c")},
	}
	cfg := config.RunConfig{URL: srv.URL, Model: "m", EndpointType: "openai"}
	out, err := Run(context.Background(), w, Options{EndpointType: "openai", RunConfig: cfg})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.False(t, out[i].Failed)
		require.Len(t, out[i].Responses, 1)
		assert.Equal(t, id, out[i].Responses[0].ReqID)
	}
}

func TestRun_RespectsStartOffsets(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	w := visit.Workload{
		{StartOffset: 0, V: simpleVisit("a")},
		{StartOffset: 0.2, V: simpleVisit("b")},
	}
	cfg := config.RunConfig{URL: srv.URL, Model: "m", EndpointType: "openai"}

	start := time.Now()
	out, err := Run(context.Background(), w, Options{EndpointType: "openai", RunConfig: cfg})
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.GreaterOrEqual(t, elapsed, 190*time.Millisecond)
}

func TestRun_MaxRunTimeCancelsInFlightVisits(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block // never responds until test cleanup
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	w := visit.Workload{{StartOffset: 0, V: simpleVisit("a")}}
	cfg := config.RunConfig{URL: srv.URL, Model: "m", EndpointType: "openai"}

	out, err := Run(context.Background(), w, Options{EndpointType: "openai", RunConfig: cfg, MaxRunTime: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Len(t, out, 0)
}
