package workload

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/visitbench/visitbench/visit"
)

// Synthesizer generates a synthetic arrival schedule from a prompt pool
// (typically another normalizer's Dialogs()) and a restricted
// arrival-rate function N(t): the number of visits to launch in the
// t-th bucket. Grounded on spec.md §4.1's synthesizer paragraph.
type Synthesizer struct {
	Prompts     []string
	BucketWidth float64 // seconds per bucket; 0 means 1.0
	Seed        int64
	fn          arrivalFunc
}

// NewSynthesizer parses spec's arrival_func against the fixed grammar and
// builds a Synthesizer over prompts. Returns an error if the expression
// does not match (spec.md §4.1 Failures: fatal, not silently ignored).
func NewSynthesizer(prompts []string, spec SynthSpec, seed int64) (*Synthesizer, error) {
	fn, err := parseArrivalFunc(spec.ArrivalFunc)
	if err != nil {
		return nil, err
	}
	width := spec.BucketWidth
	if width == 0 {
		width = 1.0
	}
	return &Synthesizer{Prompts: prompts, BucketWidth: width, Seed: seed, fn: fn}, nil
}

// Dialogs returns the prompt pool unchanged.
func (s *Synthesizer) Dialogs() []string { return s.Prompts }

// ToWorkload draws N(t) visits per bucket from the prompt pool until the
// arrival function signals stop, assigning each visit a single request
// at in-visit offset 0 and a start time at the bucket's beginning.
func (s *Synthesizer) ToWorkload(opts ToWorkloadOptions) (visit.Workload, error) {
	if len(s.Prompts) == 0 {
		return nil, fmt.Errorf("workload: synthesizer has an empty prompt pool")
	}

	rng := rand.New(rand.NewSource(s.Seed))
	var w visit.Workload

	for t := 0; ; t++ {
		n, ok := s.fn(t)
		if !ok {
			break
		}
		bucketStart := float64(t) * s.BucketWidth
		for i := 0; i < n; i++ {
			prompt := s.Prompts[rng.Intn(len(s.Prompts))]
			w = append(w, visit.WorkloadEntry{
				StartOffset: bucketStart,
				V: visit.Visit{{
					Offset: floatPtr(0),
					Req: visit.SimReq{
						ID:     uuid.NewString(),
						Stream: true,
						MessagesWithDep: []visit.Message{
							{Role: visit.RoleUser, Content: prompt},
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
		if t > 1_000_000 {
			return nil, fmt.Errorf("workload: arrival function never terminated after 1e6 buckets")
		}
	}

	return finalize(w, opts), nil
}
