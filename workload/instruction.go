package workload

import (
	"github.com/visitbench/visitbench/visit"
)

// InstructionRecord is one single-turn (prompt, completion) pair, the
// shape implied by instruction-tuning corpora such as dolly/openorca
// (listed in original_source's index: no conversation tree, one request
// per record).
type InstructionRecord struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// InstructionNormalizer turns a flat list of instruction records into a
// Workload with one visit per record, offsets assigned either by record
// index (a fixed inter-arrival) or left at zero for external scheduling.
type InstructionNormalizer struct {
	records []InstructionRecord
	// InterArrival is the fixed spacing (seconds) applied between
	// consecutive records' start offsets; 0 assigns every record to
	// offset 0 (caller-driven scheduling via a synthesizer, say).
	InterArrival float64
}

// NewInstructionNormalizer builds a normalizer over records, spaced by
// interArrival seconds (0 disables spacing: every record starts at offset 0).
func NewInstructionNormalizer(records []InstructionRecord, interArrival float64) *InstructionNormalizer {
	return &InstructionNormalizer{records: records, InterArrival: interArrival}
}

// Dialogs returns every record's prompt text.
func (n *InstructionNormalizer) Dialogs() []string {
	out := make([]string, len(n.records))
	for i, r := range n.records {
		out[i] = r.Prompt
	}
	return out
}

// ToWorkload implements Normalizer.
func (n *InstructionNormalizer) ToWorkload(opts ToWorkloadOptions) (visit.Workload, error) {
	if opts.CacheDir != "" {
		var cached visit.Workload
		args := map[string]any{"inter_arrival": n.InterArrival, "opts": opts}
		if ok, err := cacheGet(opts.CacheDir, "instruction", "to_workload", args, &cached); err == nil && ok {
			return cached, nil
		}
	}

	w := make(visit.Workload, 0, len(n.records))
	for i, r := range n.records {
		w = append(w, visit.WorkloadEntry{
			StartOffset: float64(i) * n.InterArrival,
			V: visit.Visit{{
				Offset: floatPtr(0),
				Req: visit.SimReq{
					ID:     r.ID,
					Stream: true,
					MessagesWithDep: []visit.Message{
						{Role: visit.RoleUser, Content: r.Prompt},
					},
					Params: visit.GenParams{
						N:           1,
						Temperature: opts.Temperature,
						TopP:        opts.TopP,
						MaxTokens:   opts.MaxTokens,
					},
				},
			}},
		})
	}
	w = finalize(w, opts)

	if opts.CacheDir != "" {
		args := map[string]any{"inter_arrival": n.InterArrival, "opts": opts}
		_ = cachePut(opts.CacheDir, "instruction", "to_workload", args, w)
	}
	return w, nil
}
