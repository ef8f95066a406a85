// Package runner implements the per-visit state machine described in
// spec.md §4.3: SCHEDULED → WAITING_DEP → MATERIALIZING → IN_FLIGHT →
// (SUCCESS | ERROR). Grounded on original_source's
// src/simulate/sim_visit.py, which this package follows step for step,
// restructured from Python coroutines into goroutines and channels in
// the teacher's own simulator idiom (sim/simulator.go's step-structuring:
// one function per state transition, errors surfaced through a single
// return path).
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visitbench/visitbench/adapter"
	"github.com/visitbench/visitbench/config"
	"github.com/visitbench/visitbench/tracelog"
	"github.com/visitbench/visitbench/visit"
)

// DefaultTimeTolerance is the lateness threshold past which a delayed
// launch is worth a warning log (spec.md §4.3).
const DefaultTimeTolerance = 50 * time.Millisecond

// Options configures a single visit run.
type Options struct {
	TaskID        string
	VisitIndex    int
	EndpointType  string
	RunConfig     config.RunConfig
	Trace         *tracelog.Logger
	TimeTolerance time.Duration // 0 means DefaultTimeTolerance
	HumanTyping   *HumanTypingOptions
}

// Run executes one visit end to end and returns its VisitResponse. It
// never panics on adapter/endpoint failure: any request-level error is
// captured in the returned response and the remainder of the visit is
// abandoned per spec.md §4.3 step 3.
func Run(ctx context.Context, v visit.Visit, opts Options) (visit.VisitResponse, error) {
	if len(v) == 0 {
		now := time.Now()
		return visit.VisitResponse{StartTimestamp: now, EndTimestamp: now}, nil
	}

	tol := opts.TimeTolerance
	if tol == 0 {
		tol = DefaultTimeTolerance
	}

	a, err := adapter.Lookup(opts.EndpointType)
	if err != nil {
		return visit.VisitResponse{}, fmt.Errorf("runner: %w", err)
	}

	visitStart := time.Now()
	replyCtx := map[string]string{} // req_id -> accumulated reply text
	responses := make([]visit.ReqResponse, 0, len(v))
	failed := false

	for i, entry := range v {
		resp, err := runOne(ctx, a, entry, i, visitStart, replyCtx, opts, tol)
		responses = append(responses, resp)
		if err != nil {
			failed = true
			break // abort remainder of visit (spec.md §4.3 step 3)
		}
		if resp.Dialog != nil {
			replyCtx[entry.Req.ID] = lastAssistantContent(resp.Dialog)
		}
	}

	return visit.VisitResponse{
		StartTimestamp: visitStart,
		EndTimestamp:   time.Now(),
		Responses:      responses,
		Failed:         failed,
	}, nil
}

// runOne drives a single request through WAITING_DEP → MATERIALIZING →
// IN_FLIGHT → (SUCCESS|ERROR). The returned error is non-nil exactly when
// the visit must abort; the ReqResponse is always populated either way.
func runOne(
	ctx context.Context,
	a adapter.Adapter,
	entry visit.VisitEntry,
	index int,
	visitStart time.Time,
	replyCtx map[string]string,
	opts Options,
	tol time.Duration,
) (visit.ReqResponse, error) {
	req := entry.Req

	launchLatency, err := waitToLaunch(ctx, entry, index, visitStart, opts, tol)
	if err != nil {
		return errorResponse(req, time.Now(), launchLatency, nil, err), err
	}

	dialog := resolveDeps(req.MessagesWithDep, replyCtx)
	reqStart := time.Now()

	if opts.Trace != nil {
		opts.Trace.InitRequest(opts.TaskID, req.ID, reqStart, launchLatency)
	}

	if req.Params.Model == "" && opts.RunConfig.Model == "" {
		err := fmt.Errorf("runner: model must be specified for request %s", req.ID)
		resp := errorResponse(req, reqStart, launchLatency, dialog, err)
		if opts.Trace != nil {
			opts.Trace.MarkErrorForRequest(opts.TaskID, req.ID, resp.EndTimestamp, err.Error())
		}
		return resp, err
	}
	if !req.Stream {
		err := fmt.Errorf("runner: non-streaming mode is not implemented (request %s)", req.ID)
		resp := errorResponse(req, reqStart, launchLatency, dialog, err)
		if opts.Trace != nil {
			opts.Trace.MarkErrorForRequest(opts.TaskID, req.ID, resp.EndTimestamp, err.Error())
		}
		return resp, err
	}

	params := config.Overlay(opts.RunConfig, req.Params)
	cfg := adapter.StreamConfig{
		APIBase:        opts.RunConfig.URL,
		APIKey:         opts.RunConfig.APIKey,
		Model:          params.Model,
		Legacy:         opts.RunConfig.Legacy,
		Temperature:    params.Temperature,
		TopP:           params.TopP,
		MaxTokens:      params.MaxTokens,
		RequestTimeout: int(opts.RunConfig.RequestTimeout / time.Second),
	}

	loggings, reply, streamErr := stream(ctx, a, dialog, cfg, opts, req.ID)
	endTime := time.Now()

	if streamErr != nil {
		resp := visit.ReqResponse{
			ReqID:          req.ID,
			StartTimestamp: reqStart,
			EndTimestamp:   endTime,
			Dialog:         appendAssistant(dialog, reply),
			Loggings:       loggings,
			LaunchLatency:  launchLatency,
			ErrorInfo:      &visit.ErrorInfo{Message: streamErr.Error()},
		}
		if opts.Trace != nil {
			opts.Trace.MarkErrorForRequest(opts.TaskID, req.ID, endTime, streamErr.Error())
		}
		return resp, streamErr
	}

	resp := visit.ReqResponse{
		ReqID:          req.ID,
		StartTimestamp: reqStart,
		EndTimestamp:   endTime,
		Dialog:         appendAssistant(dialog, reply),
		Loggings:       loggings,
		LaunchLatency:  launchLatency,
	}
	if opts.Trace != nil {
		opts.Trace.MarkSuccessForRequest(opts.TaskID, req.ID, endTime)
	}
	return resp, nil
}

// waitToLaunch sleeps until the request's scheduled offset, applies
// human-typing think-time when enabled and no offset is set, and returns
// the clamped launch latency (spec.md §4.3 steps a/c).
func waitToLaunch(ctx context.Context, entry visit.VisitEntry, index int, visitStart time.Time, opts Options, tol time.Duration) (time.Duration, error) {
	if entry.Offset != nil {
		scheduledAt := visitStart.Add(time.Duration(*entry.Offset * float64(time.Second)))
		if until := time.Until(scheduledAt); until > 0 {
			select {
			case <-time.After(until):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		now := time.Now()
		latency := now.Sub(scheduledAt)
		if latency < 0 {
			latency = 0
		}
		if lateness := now.Sub(scheduledAt); lateness > tol {
			logrus.WithField("req_id", entry.Req.ID).
				WithField("lateness_ms", lateness.Milliseconds()).
				Warn("runner: request launched late")
		}
		return latency, nil
	}

	if index > 0 && opts.HumanTyping != nil {
		if err := sleepHumanTyping(ctx, entry, opts.HumanTyping); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

// resolveDeps substitutes every message whose DepID points at a prior
// request with that request's accumulated reply text.
func resolveDeps(messages []visit.Message, replyCtx map[string]string) []visit.Message {
	out := make([]visit.Message, len(messages))
	for i, m := range messages {
		if m.HasDep() {
			out[i] = visit.Message{Role: m.Role, Content: replyCtx[m.DepID]}
			continue
		}
		out[i] = m
	}
	return out
}

// stream drains the adapter's channel, accumulating loggings and the
// index-0 reply text, and returns the first error item encountered, if any.
func stream(ctx context.Context, a adapter.Adapter, dialog []visit.Message, cfg adapter.StreamConfig, opts Options, reqID string) ([]visit.Logging, string, error) {
	ch := a.Stream(ctx, dialog, cfg)
	var loggings []visit.Logging
	var reply string

	for item := range ch {
		if item.Err != nil {
			return loggings, reply, item.Err
		}
		now := time.Now()
		loggings = append(loggings, visit.Logging{Timestamp: now, Piece: item.Piece})
		if item.Piece.Content != nil && *item.Piece.Content != "" {
			if item.Piece.Index == 0 {
				reply += *item.Piece.Content
			}
			if opts.Trace != nil {
				opts.Trace.LogNewPack(opts.TaskID, reqID, now, *item.Piece.Content)
			}
		}
	}
	return loggings, reply, nil
}

func appendAssistant(dialog []visit.Message, reply string) []visit.Message {
	return append(append([]visit.Message{}, dialog...), visit.Message{Role: visit.RoleAssistant, Content: reply})
}

func lastAssistantContent(dialog []visit.Message) string {
	if len(dialog) == 0 {
		return ""
	}
	return dialog[len(dialog)-1].Content
}

func errorResponse(req visit.SimReq, ts time.Time, launchLatency time.Duration, dialog []visit.Message, err error) visit.ReqResponse {
	return visit.ReqResponse{
		ReqID:          req.ID,
		StartTimestamp: ts,
		EndTimestamp:   ts,
		Dialog:         dialog,
		LaunchLatency:  launchLatency,
		ErrorInfo:      &visit.ErrorInfo{Message: err.Error()},
	}
}
