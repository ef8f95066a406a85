// Package config holds the run-wide configuration accepted by the
// scheduler and the per-request parameter overlay ("shadowed parameters")
// described in spec.md §3.
package config

import (
	"fmt"
	"time"

	"github.com/visitbench/visitbench/visit"
)

// WorkloadRange clips a Workload to a half-open interval of visit indices
// [Lo, Hi) before scheduling. A zero-value range means no clipping.
type WorkloadRange struct {
	Lo, Hi int
}

// Empty reports whether the range clips to nothing (both bounds zero).
func (r WorkloadRange) Empty() bool { return r.Lo == 0 && r.Hi == 0 }

// RunConfig is the configuration object accepted by the scheduler: run-wide
// defaults that are overlaid onto every SimReq's parameters, plus the
// endpoint and execution-shape knobs from spec.md §6.
type RunConfig struct {
	URL            string
	Model          string
	APIKey         string
	EndpointType   string // "openai" | "vllm" | "tgi" | "friendliai" | "triton"
	Legacy         bool
	RandomSeed     int64
	RequestTimeout time.Duration
	WorkloadRange  WorkloadRange
	MaxRunTime     time.Duration
	// Temperature, TopP, and MaxTokens are the run-wide generation
	// defaults (spec.md §3 "Recognized config options"). They are
	// pointers so an unset default can be told apart from an explicit
	// 0.0/0 default; a request's own Params field still wins whenever it
	// is non-zero (see Overlay).
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Kwargs      map[string]any
}

// Validate checks that the run config is usable before any visit is
// scheduled. Missing model/endpoint is a fatal configuration error
// (spec.md §7), caught here rather than per-request at runtime.
func (c RunConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("config: url must not be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("config: model must not be empty")
	}
	if c.EndpointType == "" {
		return fmt.Errorf("config: endpoint_type must not be empty")
	}
	return nil
}

// Overlay returns the effective generation parameters for req: any field
// req leaves at its zero value inherits from the run config's defaults.
// The request's explicit fields always win.
func Overlay(c RunConfig, p visit.GenParams) visit.GenParams {
	out := p
	if out.Model == "" {
		out.Model = c.Model
	}
	if out.N == 0 {
		out.N = 1
	}
	if out.Temperature == 0 && c.Temperature != nil {
		out.Temperature = *c.Temperature
	}
	if out.TopP == 0 && c.TopP != nil {
		out.TopP = *c.TopP
	}
	if out.MaxTokens == 0 && c.MaxTokens != nil {
		out.MaxTokens = *c.MaxTokens
	}
	return out
}

// Clip applies WorkloadRange to w, returning the half-open slice
// [Lo, Hi) of visits. Out-of-range bounds are clamped; Hi <= 0 means no
// upper bound.
func Clip(w visit.Workload, r WorkloadRange) visit.Workload {
	if r.Empty() {
		return w
	}
	lo, hi := r.Lo, r.Hi
	if lo < 0 {
		lo = 0
	}
	if hi <= 0 || hi > len(w) {
		hi = len(w)
	}
	if lo >= hi {
		return visit.Workload{}
	}
	return w[lo:hi]
}
