package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visitbench/visitbench/visit"
	"github.com/visitbench/visitbench/workload"
)

var (
	composeFrom []string
	composeOut  string
)

// composeCmd merges several dataset sources into one replay timeline.
// Grounded on the teacher's cmd/compose.go (ComposeSpecs over multiple
// v2 WorkloadSpec files), repurposed here: each --from pairs a workload
// spec with its source data file, the spec is normalized into a
// visit.Workload, and the Workloads are merged by ComposeWorkloads
// rather than merging spec fields directly, since unlike the teacher's
// client-list specs, a workload spec here names exactly one dataset
// source.
var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Merge multiple workload sources into a single replay timeline",
	Long:  "Build a Workload from each --from spec:data pair and merge them into one timeline, written as JSON.",
	RunE:  runComposeCmd,
}

func init() {
	composeCmd.Flags().StringArrayVar(&composeFrom, "from", nil, "spec.yaml:data.json pair (repeatable)")
	composeCmd.Flags().StringVar(&composeOut, "out", "workload.json", "output path for the merged workload")
	_ = composeCmd.MarkFlagRequired("from")
}

func runComposeCmd(cmd *cobra.Command, args []string) error {
	var workloads []visit.Workload
	for _, pair := range composeFrom {
		specPath, dataPath, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("cmd: --from %q must be specPath:dataPath", pair)
		}

		spec, err := workload.LoadWorkloadSpec(specPath)
		if err != nil {
			return err
		}
		if err := spec.Validate(); err != nil {
			return err
		}

		runDataPath = dataPath
		normalizer, err := buildNormalizer(spec)
		if err != nil {
			return err
		}

		w, err := normalizer.ToWorkload(workload.ToWorkloadOptions{
			SeparateReqInOneVisit: spec.SeparateReqInOneVisit,
			SeparateInterval:      spec.SeparateInterval,
			CompressionRatio:      spec.CompressionRatio,
			MinLen:                spec.MinLen,
			MaxLen:                spec.MaxLen,
			Temperature:           spec.Temperature,
			TopP:                  spec.TopP,
			MaxTokens:             spec.MaxTokens,
			CacheDir:              spec.CacheDir,
		})
		if err != nil {
			return fmt.Errorf("cmd: building workload from %s: %w", specPath, err)
		}
		workloads = append(workloads, w)
	}

	merged, err := workload.ComposeWorkloads(workloads...)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("cmd: encoding merged workload: %w", err)
	}
	if err := os.WriteFile(composeOut, out, 0o644); err != nil {
		return fmt.Errorf("cmd: writing %s: %w", composeOut, err)
	}
	return nil
}
