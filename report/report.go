// Package report folds a completed run's ReqResponses into the summary
// statistics described in spec.md §4.6: TTFT, TPOT, sliding-window
// throughput, RPS, fail rate, SLO. Grounded line for line on
// original_source's src/analysis/generate_report.py (the exact binary
// search over sorted token timestamps, the bucket-then-window throughput
// computation) and the teacher's sim/metrics_utils.go percentile-and-
// sort-by-index style. Reports are pure folds: inputs are never mutated.
package report

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/visitbench/visitbench/visit"
)

// Tokenizer counts the tokens a string would occupy. Supplied by the
// caller so the report package stays agnostic to any particular
// tokenizer implementation (spec.md §4.6).
type Tokenizer func(s string) int

// Options tunes the sliding-window throughput and trimmed-mean
// calculations; zero values fall back to spec.md §4.6's defaults.
type Options struct {
	ThroughputWindow time.Duration // default 5s
	ThroughputStep   time.Duration // default 500ms
	TrimPercent      float64       // default 0.05
}

func (o Options) withDefaults() Options {
	if o.ThroughputWindow == 0 {
		o.ThroughputWindow = 5 * time.Second
	}
	if o.ThroughputStep == 0 {
		o.ThroughputStep = 500 * time.Millisecond
	}
	if o.TrimPercent == 0 {
		o.TrimPercent = 0.05
	}
	return o
}

// tokenSample is one (arrival timestamp, token count) observation.
type tokenSample struct {
	ts     time.Time
	tokens int
}

// RequestLevelReport is the per-request summary described in spec.md §4.6.
type RequestLevelReport struct {
	RequestNum      int
	FailRate        float64
	TTFT            []time.Duration
	Latency         []time.Duration
	SLO             float64
	TimePerRequest  []time.Duration
	TokenPerRequest []int
	TokenTimestamp  []tokenSample
	TPOT            []float64
	TotalTPSList    []float64
	Throughput      float64
	StableAvgTPS    float64
	TotalDuration   time.Duration
	RPS             float64
	TokenizerName   string
}

// Generate folds ress into a RequestLevelReport. At least one successful
// (non-errored) response is required; an all-failed batch is a fast
// failure, not a zero-valued report (spec.md §4.6: "Failure rate: ...
// at least one success is required; otherwise generation fails fast.").
func Generate(ress []visit.ReqResponse, tokenizerName string, tokenize Tokenizer, opts Options) (RequestLevelReport, error) {
	opts = opts.withDefaults()

	if len(ress) == 0 {
		return RequestLevelReport{}, fmt.Errorf("report: no responses to summarize")
	}

	var success []visit.ReqResponse
	for _, r := range ress {
		if !r.Failed() {
			success = append(success, r)
		}
	}
	if len(success) == 0 {
		return RequestLevelReport{}, fmt.Errorf("report: all requests failed, cannot generate report")
	}

	var ttft, latency, timePerRequest []time.Duration
	for _, r := range success {
		latency = append(latency, r.EndTimestamp.Sub(r.StartTimestamp))
		timePerRequest = append(timePerRequest, r.EndTimestamp.Sub(r.StartTimestamp))
		if len(r.Loggings) > 0 {
			ttft = append(ttft, r.Loggings[0].Timestamp.Sub(r.StartTimestamp))
		}
	}

	onTime := 0
	for _, r := range ress {
		if r.LaunchLatency == 0 {
			onTime++
		}
	}
	slo := float64(onTime) / float64(len(ress))

	// Each piece's content is tokenized on its own and the count is
	// attributed to that piece's arrival time. A token split across two
	// pieces can therefore be counted twice, so per-request token counts
	// are an approximation.
	var tokenPerRequest []int
	var tokenTimestamps []tokenSample
	for _, r := range ress {
		count := 0
		for _, logging := range r.Loggings {
			if logging.Piece.Content == nil || *logging.Piece.Content == "" {
				continue
			}
			n := tokenize(*logging.Piece.Content)
			count += n
			tokenTimestamps = append(tokenTimestamps, tokenSample{ts: logging.Timestamp, tokens: n})
		}
		if !r.Failed() {
			tokenPerRequest = append(tokenPerRequest, count)
		}
	}
	sort.Slice(tokenTimestamps, func(i, j int) bool { return tokenTimestamps[i].ts.Before(tokenTimestamps[j].ts) })

	tpot := make([]float64, 0, len(timePerRequest))
	for i, d := range timePerRequest {
		if tokenPerRequest[i] == 0 {
			tpot = append(tpot, 0)
			continue
		}
		tpot = append(tpot, d.Seconds()/float64(tokenPerRequest[i]))
	}

	totalTPS := slidingWindowThroughput(tokenTimestamps, opts.ThroughputWindow, opts.ThroughputStep)
	throughput := 0.0
	for _, v := range totalTPS {
		if v > throughput {
			throughput = v
		}
	}

	minStart := ress[0].StartTimestamp
	maxEnd := ress[0].EndTimestamp
	for _, r := range ress[1:] {
		if r.StartTimestamp.Before(minStart) {
			minStart = r.StartTimestamp
		}
		if r.EndTimestamp.After(maxEnd) {
			maxEnd = r.EndTimestamp
		}
	}
	totalDuration := maxEnd.Sub(minStart)
	rps := 0.0
	if totalDuration > 0 {
		rps = float64(len(ress)) / totalDuration.Seconds()
	}

	return RequestLevelReport{
		RequestNum:      len(ress),
		FailRate:        1 - float64(len(success))/float64(len(ress)),
		TTFT:            ttft,
		Latency:         latency,
		SLO:             slo,
		TimePerRequest:  timePerRequest,
		TokenPerRequest: tokenPerRequest,
		TokenTimestamp:  tokenTimestamps,
		TPOT:            tpot,
		TotalTPSList:    totalTPS,
		Throughput:      throughput,
		StableAvgTPS:    trimmedMean(totalTPS, opts.TrimPercent),
		TotalDuration:   totalDuration,
		RPS:             rps,
		TokenizerName:   tokenizerName,
	}, nil
}

// slidingWindowThroughput reproduces generate_report.py's bucket-then-
// window computation: samples are taken every step starting at the first
// token's timestamp, each sample counting tokens within ±window/2 via
// binary search over the sorted timestamp slice, normalized to tokens/sec.
func slidingWindowThroughput(samples []tokenSample, window, step time.Duration) []float64 {
	if len(samples) == 0 {
		return nil
	}
	t0 := samples[0].ts
	tLast := samples[len(samples)-1].ts
	n := int(tLast.Sub(t0)/step) + 1

	timestamps := make([]time.Time, len(samples))
	for i, s := range samples {
		timestamps[i] = s.ts
	}

	out := make([]float64, n)
	half := window / 2
	for i := 0; i < n; i++ {
		ti := t0.Add(time.Duration(i) * step)
		lo := sort.Search(len(timestamps), func(k int) bool { return !timestamps[k].Before(ti.Add(-half)) })
		hi := sort.Search(len(timestamps), func(k int) bool { return timestamps[k].After(ti.Add(half)) })
		count := 0
		for _, s := range samples[lo:hi] {
			count += s.tokens
		}
		out[i] = float64(count) / window.Seconds()
	}
	return out
}

// trimmedMean drops trim fraction of values from each end of a sorted
// copy of xs and returns the mean of what remains, using gonum/stat for
// the mean so the teacher's own (previously unused) gonum dependency is
// exercised rather than hand-rolled.
func trimmedMean(xs []float64, trim float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	cut := int(float64(len(sorted)) * trim)
	lo, hi := cut, len(sorted)-cut
	if lo >= hi {
		return stat.Mean(sorted, nil)
	}
	return stat.Mean(sorted[lo:hi], nil)
}
