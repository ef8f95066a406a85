package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitbench/visitbench/visit"
)

func strPtr(s string) *string { return &s }

func wordTokenizer(s string) int {
	n := 0
	for _, r := range s {
		if r == ' ' {
			n++
		}
	}
	return n + 1
}

func TestGenerate_SimplePassThrough(t *testing.T) {
	base := time.Unix(1000, 0)
	ress := []visit.ReqResponse{
		{
			ReqID:          "r1",
			StartTimestamp: base,
			EndTimestamp:   base.Add(2 * time.Second),
			Loggings: []visit.Logging{
				{Timestamp: base.Add(100 * time.Millisecond), Piece: visit.ResPiece{Content: strPtr("hello world")}},
				{Timestamp: base.Add(500 * time.Millisecond), Piece: visit.ResPiece{Content: strPtr("more")}},
			},
			LaunchLatency: 0,
		},
	}

	got, err := Generate(ress, "test-tok", wordTokenizer, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, got.RequestNum)
	assert.Equal(t, 0.0, got.FailRate)
	require.Len(t, got.TTFT, 1)
	assert.Equal(t, 100*time.Millisecond, got.TTFT[0])
	assert.Equal(t, 1.0, got.SLO)
	assert.Equal(t, 3, got.TokenPerRequest[0]) // "hello world" (2) + "more" (1)
}

func TestGenerate_FailRateWithOneErroredRequest(t *testing.T) {
	base := time.Unix(2000, 0)
	ress := []visit.ReqResponse{
		{StartTimestamp: base, EndTimestamp: base.Add(time.Second), Loggings: []visit.Logging{
			{Timestamp: base, Piece: visit.ResPiece{Content: strPtr("x")}},
		}},
		{StartTimestamp: base, EndTimestamp: base.Add(time.Second), ErrorInfo: &visit.ErrorInfo{Message: "boom"}},
	}
	got, err := Generate(ress, "tok", wordTokenizer, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.FailRate)
}

func TestGenerate_ZeroPiecesSuccessIsNotAnError(t *testing.T) {
	base := time.Unix(2500, 0)
	ress := []visit.ReqResponse{
		{StartTimestamp: base, EndTimestamp: base.Add(time.Second)},
	}
	got, err := Generate(ress, "tok", wordTokenizer, Options{})
	require.NoError(t, err)
	assert.Empty(t, got.TTFT)
	assert.Empty(t, got.TokenTimestamp)
	require.Len(t, got.TPOT, 1)
	assert.Equal(t, 0.0, got.TPOT[0])
}

func TestGenerate_AllFailedIsError(t *testing.T) {
	base := time.Unix(0, 0)
	ress := []visit.ReqResponse{
		{StartTimestamp: base, EndTimestamp: base, ErrorInfo: &visit.ErrorInfo{Message: "x"}},
	}
	_, err := Generate(ress, "tok", wordTokenizer, Options{})
	require.Error(t, err)
}

func TestGenerate_EmptyInput(t *testing.T) {
	_, err := Generate(nil, "tok", wordTokenizer, Options{})
	require.Error(t, err)
}

func TestSlidingWindowThroughput_PeakAtDenseRegion(t *testing.T) {
	base := time.Unix(0, 0)
	samples := []tokenSample{
		{ts: base, tokens: 1},
		{ts: base.Add(time.Second), tokens: 10},
		{ts: base.Add(2 * time.Second), tokens: 1},
	}
	out := slidingWindowThroughput(samples, 2*time.Second, 500*time.Millisecond)
	require.NotEmpty(t, out)
	max := 0.0
	for _, v := range out {
		if v > max {
			max = v
		}
	}
	assert.Greater(t, max, 0.0)
	// out[2] is the sample centred on the 10-token burst at 1s.
	assert.Equal(t, max, out[2])
	assert.Greater(t, out[2], out[0])
}

func TestTrimmedMean(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 100}
	got := trimmedMean(xs, 0.2)
	assert.Less(t, got, 10.0)
}

func TestGenerate_Idempotent(t *testing.T) {
	base := time.Unix(3000, 0)
	ress := []visit.ReqResponse{
		{StartTimestamp: base, EndTimestamp: base.Add(time.Second), Loggings: []visit.Logging{
			{Timestamp: base.Add(50 * time.Millisecond), Piece: visit.ResPiece{Content: strPtr("a b c")}},
		}},
	}
	r1, err1 := Generate(ress, "tok", wordTokenizer, Options{})
	r2, err2 := Generate(ress, "tok", wordTokenizer, Options{})
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)
}

func TestGenerateVisitLevel(t *testing.T) {
	base := time.Unix(4000, 0)
	vr := []visit.VisitResponse{
		{
			StartTimestamp: base,
			EndTimestamp:   base.Add(time.Second),
			Failed:         false,
			Responses: []visit.ReqResponse{
				{StartTimestamp: base, EndTimestamp: base.Add(time.Second), Loggings: []visit.Logging{
					{Timestamp: base.Add(10 * time.Millisecond), Piece: visit.ResPiece{Content: strPtr("hi")}},
				}},
			},
		},
	}
	got, err := GenerateVisitLevel(vr, "tok", wordTokenizer, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, got.VisitNum)
	assert.Equal(t, 0.0, got.FailRate)
}
