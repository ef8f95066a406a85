// Package workload turns dataset-specific records into the canonical
// visit.Workload the scheduler consumes (spec.md §4.1). Grounded on the
// teacher's sim/workload/spec.go strict-YAML configuration pattern,
// repurposed here from hardware-load client specs to dataset-source
// specs, and on original_source's src/workload_datasets/*.py for the
// per-source normalization semantics.
package workload

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SourceSpec names the dataset source and the knobs specific to it.
type SourceSpec struct {
	Type      string `yaml:"type"` // "conversation_tree" | "instruction" | "synth"
	Path      string `yaml:"path,omitempty"`
	HFAuthKey string `yaml:"hf_auth_key,omitempty"`
}

// SynthSpec configures the synthetic arrival-rate normalizer.
type SynthSpec struct {
	ArrivalFunc string  `yaml:"arrival_func"` // restricted grammar, see synth_expr.go
	BucketWidth float64 `yaml:"bucket_width,omitempty"`
}

// WorkloadSpec is the top-level, strictly-parsed YAML configuration for
// one normalizer run. Loaded via LoadWorkloadSpec(path).
type WorkloadSpec struct {
	Version               string     `yaml:"version"`
	Seed                  int64      `yaml:"seed"`
	Source                SourceSpec `yaml:"source"`
	SeparateReqInOneVisit bool       `yaml:"separate_req_in_one_visit"`
	SeparateInterval      float64    `yaml:"separate_interval,omitempty"`
	CompressionRatio      float64    `yaml:"compression_ratio,omitempty"`
	MinLen                int        `yaml:"min_len,omitempty"`
	MaxLen                int        `yaml:"max_len,omitempty"` // 0 means unbounded
	CacheDir              string     `yaml:"cache_dir"`
	Temperature           float64    `yaml:"temperature,omitempty"`
	TopP                  float64    `yaml:"top_p,omitempty"`
	MaxTokens             int        `yaml:"max_tokens,omitempty"`
	Synth                 *SynthSpec `yaml:"synth,omitempty"`
}

var validSourceTypes = map[string]bool{
	"conversation_tree": true,
	"instruction":       true,
	"synth":              true,
}

// LoadWorkloadSpec reads and strictly parses a YAML workload spec file:
// unrecognized keys (typos) are rejected, matching the teacher's own
// LoadWorkloadSpec.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workload: reading spec: %w", err)
	}
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("workload: parsing spec: %w", err)
	}
	upgradeDefaults(&spec)
	return &spec, nil
}

// upgradeDefaults fills in version/compression defaults, warning on
// deprecated omissions the way the teacher's UpgradeV1ToV2 does.
func upgradeDefaults(spec *WorkloadSpec) {
	if spec.Version == "" {
		logrus.Warn("workload: spec has no version field; assuming \"1\"")
		spec.Version = "1"
	}
	if spec.CompressionRatio == 0 {
		spec.CompressionRatio = 1.0
	}
}

// Validate checks that the spec is usable before any normalizer runs
// (spec.md §4.1 Failures: cache-dir missing is fatal).
func (s *WorkloadSpec) Validate() error {
	if !validSourceTypes[s.Source.Type] {
		return fmt.Errorf("workload: unknown source type %q", s.Source.Type)
	}
	if s.CacheDir == "" {
		return fmt.Errorf("workload: cache_dir must be set")
	}
	if info, err := os.Stat(s.CacheDir); err != nil || !info.IsDir() {
		return fmt.Errorf("workload: cache_dir %q must exist", s.CacheDir)
	}
	if s.CompressionRatio <= 0 {
		return fmt.Errorf("workload: compression_ratio must be positive")
	}
	if s.Source.Type == "synth" && (s.Synth == nil || s.Synth.ArrivalFunc == "") {
		return fmt.Errorf("workload: synth source requires synth.arrival_func")
	}
	return nil
}
