package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visitbench/visitbench/report"
	"github.com/visitbench/visitbench/visit"
)

var (
	reportInPath  string
	reportOutPath string
)

// reportCmd folds a run's recorded VisitResponses into the summary
// statistics report.Generate computes. Grounded on the teacher's
// cmd/observe.go (read-a-recorded-artifact-then-summarize shape).
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a run's recorded responses into a report",
	RunE:  runReportCmd,
}

func init() {
	reportCmd.Flags().StringVar(&reportInPath, "in", "", "path to the JSON file written by 'run' (required)")
	reportCmd.Flags().StringVar(&reportOutPath, "out", "", "output path for the report JSON (default: stdout)")
	_ = reportCmd.MarkFlagRequired("in")
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(reportInPath)
	if err != nil {
		return fmt.Errorf("cmd: reading %s: %w", reportInPath, err)
	}

	var responses []visit.VisitResponse
	if err := json.Unmarshal(data, &responses); err != nil {
		return fmt.Errorf("cmd: parsing %s: %w", reportInPath, err)
	}

	result, err := report.GenerateVisitLevel(responses, "whitespace", wordCountTokenizer, report.Options{})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("cmd: encoding report: %w", err)
	}

	if reportOutPath == "" {
		fmt.Println(string(out))
		return nil
	}
	return os.WriteFile(reportOutPath, out, 0o644)
}

// wordCountTokenizer is the default report.Tokenizer: whitespace-split
// word count. No tokenizer library appears anywhere in the retrieved
// example pack, so this stays a deliberate stdlib fallback rather than
// a fabricated dependency; callers needing true subword token counts
// supply their own report.Tokenizer.
func wordCountTokenizer(s string) int {
	return len(strings.Fields(s))
}
