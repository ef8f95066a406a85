package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/visitbench/visitbench/config"
	"github.com/visitbench/visitbench/scheduler"
	"github.com/visitbench/visitbench/tracelog"
	"github.com/visitbench/visitbench/workload"
)

var (
	runWorkloadSpecPath string
	runDataPath         string
	runURL              string
	runModel            string
	runAPIKey           string
	runEndpointType     string
	runLegacy           bool
	runRequestTimeout   time.Duration
	runMaxRunTime       time.Duration
	runWorkloadLo       int
	runWorkloadHi       int
	runOutPath          string
	runTemperature      float64
	runTopP             float64
	runMaxTokens        int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload against a live endpoint and record per-visit responses",
	RunE:  runRunCmd,
}

func init() {
	runCmd.Flags().StringVar(&runWorkloadSpecPath, "workload-spec", "", "path to a workload spec YAML file (required)")
	runCmd.Flags().StringVar(&runDataPath, "data", "", "path to the source dataset file (JSON)")
	runCmd.Flags().StringVar(&runURL, "url", "", "endpoint base URL (required)")
	runCmd.Flags().StringVar(&runModel, "model", "", "default model name")
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "endpoint API key")
	runCmd.Flags().StringVar(&runEndpointType, "endpoint-type", "", "openai|vllm|tgi|friendliai|triton (required)")
	runCmd.Flags().BoolVar(&runLegacy, "legacy", false, "use the legacy completion wire shape instead of chat")
	runCmd.Flags().DurationVar(&runRequestTimeout, "request-timeout", 60*time.Second, "per-request timeout")
	runCmd.Flags().DurationVar(&runMaxRunTime, "max-run-time", 0, "cancel the run after this duration (0 disables)")
	runCmd.Flags().IntVar(&runWorkloadLo, "workload-lo", 0, "clip the workload to visits [lo, hi)")
	runCmd.Flags().IntVar(&runWorkloadHi, "workload-hi", 0, "clip the workload to visits [lo, hi); 0 means no clip")
	runCmd.Flags().StringVar(&runOutPath, "out", "responses.json", "output path for recorded VisitResponses")
	runCmd.Flags().Float64Var(&runTemperature, "temperature", 0, "run-wide default temperature (overlaid onto requests that leave it unset)")
	runCmd.Flags().Float64Var(&runTopP, "top-p", 0, "run-wide default top_p (overlaid onto requests that leave it unset)")
	runCmd.Flags().IntVar(&runMaxTokens, "max-tokens", 0, "run-wide default max_tokens (overlaid onto requests that leave it unset)")

	_ = runCmd.MarkFlagRequired("workload-spec")
	_ = runCmd.MarkFlagRequired("url")
	_ = runCmd.MarkFlagRequired("endpoint-type")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	spec, err := workload.LoadWorkloadSpec(runWorkloadSpecPath)
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}

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
		return fmt.Errorf("cmd: building workload: %w", err)
	}
	for i, e := range w {
		if err := e.V.Validate(); err != nil {
			return fmt.Errorf("cmd: workload visit %d: %w", i, err)
		}
	}

	runCfg := config.RunConfig{
		URL:            runURL,
		Model:          runModel,
		APIKey:         runAPIKey,
		EndpointType:   runEndpointType,
		Legacy:         runLegacy,
		RequestTimeout: runRequestTimeout,
		WorkloadRange:  config.WorkloadRange{Lo: runWorkloadLo, Hi: runWorkloadHi},
	}
	if cmd.Flags().Changed("temperature") {
		t := runTemperature
		runCfg.Temperature = &t
	}
	if cmd.Flags().Changed("top-p") {
		p := runTopP
		runCfg.TopP = &p
	}
	if cmd.Flags().Changed("max-tokens") {
		m := runMaxTokens
		runCfg.MaxTokens = &m
	}
	if err := runCfg.Validate(); err != nil {
		return err
	}
	w = config.Clip(w, runCfg.WorkloadRange)

	logrus.Infof("cmd: running %d visits against %s (%s)", len(w), runCfg.URL, runCfg.EndpointType)

	trace := tracelog.NewLogger()
	ctx := context.Background()
	responses, err := scheduler.Run(ctx, w, scheduler.Options{
		EndpointType: runCfg.EndpointType,
		RunConfig:    runCfg,
		Trace:        trace,
		MaxRunTime:   runMaxRunTime,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(responses, "", "  ")
	if err != nil {
		return fmt.Errorf("cmd: encoding responses: %w", err)
	}
	if err := os.WriteFile(runOutPath, out, 0o644); err != nil {
		return fmt.Errorf("cmd: writing %s: %w", runOutPath, err)
	}

	logrus.Infof("cmd: wrote %d visit responses to %s", len(responses), runOutPath)
	return nil
}

// buildNormalizer dispatches on spec.Source.Type to the concrete
// normalizer, loading source data from runDataPath (the --data flag, or
// the data half of a compose --from pair) via
// workload.LoadConversationNodes/LoadInstructionRecords; spec.Source.Path
// is not read. A "synth"
// source reads its prompt pool from the same data file, treated as
// instruction records, matching spec.md §4.1's "prompt pool from another
// normalizer's dialogs()".
func buildNormalizer(spec *workload.WorkloadSpec) (workload.Normalizer, error) {
	switch spec.Source.Type {
	case "conversation_tree":
		nodes, err := workload.LoadConversationNodes(runDataPath)
		if err != nil {
			return nil, err
		}
		return workload.NewConversationTreeNormalizer(nodes), nil
	case "instruction":
		records, err := workload.LoadInstructionRecords(runDataPath)
		if err != nil {
			return nil, err
		}
		return workload.NewInstructionNormalizer(records, spec.SeparateInterval), nil
	case "synth":
		records, err := workload.LoadInstructionRecords(runDataPath)
		if err != nil {
			return nil, err
		}
		prompts := make([]string, len(records))
		for i, r := range records {
			prompts[i] = r.Prompt
		}
		return workload.NewSynthesizer(prompts, *spec.Synth, spec.Seed)
	default:
		return nil, fmt.Errorf("cmd: unknown source type %q", spec.Source.Type)
	}
}
