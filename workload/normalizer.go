package workload

import (
	"github.com/visitbench/visitbench/visit"
)

// ToWorkloadOptions carries the normalizer-agnostic options spec.md §4.1
// allows on top of a normalizer's own source-specific knobs.
type ToWorkloadOptions struct {
	SeparateReqInOneVisit bool
	SeparateInterval      float64
	CompressionRatio      float64 // 0 means 1.0 (no compression)
	MinLen                int
	MaxLen                int // 0 means unbounded
	Temperature           float64
	TopP                  float64
	MaxTokens             int
	CacheDir              string // empty disables memoization
}

func (o ToWorkloadOptions) compressionRatio() float64 {
	if o.CompressionRatio == 0 {
		return 1.0
	}
	return o.CompressionRatio
}

// Normalizer is the shared contract every dataset-specific source
// implements (spec.md §4.1): dialogs() for the synthesizer's prompt
// pool, and to_workload() for the canonical Workload.
type Normalizer interface {
	// Dialogs returns every user prompt as a plain string.
	Dialogs() []string
	// ToWorkload returns the canonical Workload for this source under
	// opts, applying offset normalization, compression, and length
	// filtering as post-processing (spec.md §4.1).
	ToWorkload(opts ToWorkloadOptions) (visit.Workload, error)
}

// finalize applies the shared post-processing pipeline spec.md §4.1
// describes for every normalizer: shift to zero, compress, filter by
// length.
func finalize(w visit.Workload, opts ToWorkloadOptions) visit.Workload {
	w = visit.NormalizeOffsets(w)
	w = visit.Compress(w, opts.compressionRatio())
	w = visit.FilterByLength(w, opts.MinLen, opts.MaxLen)
	return w
}
