package workload

import (
	"fmt"

	"github.com/visitbench/visitbench/visit"
)

// ComposeWorkloads merges multiple already-normalized Workloads into a
// single timeline, stably ordered by start offset and re-zeroed so the
// earliest visit starts at offset 0. Grounded on the teacher's
// sim/workload/convert.go ComposeSpecs (multi-source merge), repurposed
// here from merging hardware-load client lists to merging visit
// timelines built from distinct dataset sources.
func ComposeWorkloads(workloads ...visit.Workload) (visit.Workload, error) {
	if len(workloads) == 0 {
		return nil, fmt.Errorf("workload: compose requires at least one workload")
	}

	var merged visit.Workload
	for _, w := range workloads {
		merged = append(merged, w...)
	}
	return visit.NormalizeOffsets(merged), nil
}
