// Package scheduler drives every visit of a workload concurrently
// against a live endpoint, launching each at its scheduled offset and
// collecting responses in source order (spec.md §4.4). Grounded on
// original_source's src/simulate/sim_workload.py control loop and the
// teacher's sim/scheduler.go / sim/event.go event-oriented style, but
// re-architected from CHECK_SIZE polling to goroutines plus a completion
// channel per spec.md §9 Design Notes: the original's poll loop is an
// artifact of asyncio's cooperative scheduling, not a requirement, and
// Go's native concurrency primitives express the same guarantees (visits
// run independently, completion order may differ from launch order,
// results return sorted by launch index) without busy-waiting.
package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/visitbench/visitbench/config"
	"github.com/visitbench/visitbench/runner"
	"github.com/visitbench/visitbench/tracelog"
	"github.com/visitbench/visitbench/visit"
)

// DefaultTimeTolerance mirrors runner.DefaultTimeTolerance: the lateness
// threshold past which a delayed visit launch is logged as a warning.
const DefaultTimeTolerance = 50 * time.Millisecond

// Options configures one workload run.
type Options struct {
	TaskID        string // empty generates a fresh uuid
	EndpointType  string
	RunConfig     config.RunConfig
	Trace         *tracelog.Logger
	TimeTolerance time.Duration // 0 means DefaultTimeTolerance
	SimStartTime  time.Time     // zero means start immediately
	MaxRunTime    time.Duration // 0 means no deadline
	HumanTyping   *runner.HumanTypingOptions
}

type indexedResponse struct {
	index int
	resp  visit.VisitResponse
}

// Run launches every visit in w at its scheduled offset and returns their
// VisitResponses sorted by original workload order (spec.md §4.4 step 4).
// If opts.MaxRunTime is set, the run is cancelled after that duration;
// responses for visits that completed before cancellation remain valid,
// visits still in flight are abandoned.
func Run(ctx context.Context, w visit.Workload, opts Options) ([]visit.VisitResponse, error) {
	taskID := opts.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	tol := opts.TimeTolerance
	if tol == 0 {
		tol = DefaultTimeTolerance
	}

	if !opts.SimStartTime.IsZero() {
		if until := time.Until(opts.SimStartTime); until > tol {
			logrus.WithField("task_id", taskID).
				Infof("scheduler: waiting %s for sim_start_time", until)
			select {
			case <-time.After(until):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	runCtx := ctx
	if opts.MaxRunTime > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.MaxRunTime)
		defer cancel()
	}

	totalReq := 0
	for _, e := range w {
		totalReq += len(e.V)
	}
	startTS := time.Now()
	if opts.Trace != nil {
		opts.Trace.InitTask(taskID, totalReq, startTS)
	}

	results := make(chan indexedResponse, len(w))
	for i, entry := range w {
		launchVisit(runCtx, i, entry, taskID, opts, tol, startTS, results)
	}

	collected := make([]indexedResponse, 0, len(w))
collectLoop:
	for range w {
		select {
		case r := <-results:
			collected = append(collected, r)
		case <-runCtx.Done():
			// Cancellation: drain whatever completions are already
			// buffered (real completions only; visits that never
			// launched send nothing) before stopping, so the result
			// count exactly matches the number of visits that finished
			// before the deadline (spec.md §8 S6).
			for {
				select {
				case r := <-results:
					collected = append(collected, r)
				default:
					break collectLoop
				}
			}
		}
	}

	if opts.Trace != nil {
		opts.Trace.MarkFinishForTask(taskID, time.Now())
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	out := make([]visit.VisitResponse, len(collected))
	for i, r := range collected {
		out[i] = r.resp
	}
	return out, nil
}

// launchVisit schedules one visit's goroutine: it sleeps until the
// visit's start offset (logging lateness past tol, per spec.md §4.4 step
// b), then runs it and reports the result on results.
func launchVisit(
	ctx context.Context,
	index int,
	entry visit.WorkloadEntry,
	taskID string,
	opts Options,
	tol time.Duration,
	startTS time.Time,
	results chan<- indexedResponse,
) {
	go func() {
		scheduledAt := startTS.Add(time.Duration(entry.StartOffset * float64(time.Second)))
		if until := time.Until(scheduledAt); until > 0 {
			select {
			case <-time.After(until):
			case <-ctx.Done():
				// Cancelled before launch: this visit never ran, so it
				// contributes no entry to the result set (spec.md §8 S6).
				return
			}
		}
		if lateness := time.Since(scheduledAt); lateness > tol {
			logrus.WithField("task_id", taskID).
				WithField("visit_index", index).
				Warnf("scheduler: visit launched %s late", lateness)
		}

		resp, err := runner.Run(ctx, entry.V, runner.Options{
			TaskID:        taskID,
			VisitIndex:    index,
			EndpointType:  opts.EndpointType,
			RunConfig:     opts.RunConfig,
			Trace:         opts.Trace,
			TimeTolerance: tol,
			HumanTyping:   opts.HumanTyping,
		})
		if err != nil {
			resp.Failed = true
		}
		results <- indexedResponse{index: index, resp: resp}
	}()
}
