package visit

import "sort"

// NormalizeOffsets shifts every visit's start offset so the earliest one
// lands at 0, and sorts the workload stably by the shifted offset.
//
// Grounded on original_source's workload_datasets/utils.py key_timestamp_to_offset.
func NormalizeOffsets(w Workload) Workload {
	if len(w) == 0 {
		return w
	}
	out := make(Workload, len(w))
	copy(out, w)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartOffset < out[j].StartOffset })

	base := out[0].StartOffset
	for i := range out {
		out[i].StartOffset -= base
	}
	return out
}

// Compress rescales every start offset and every visit-internal request
// offset by 1/ratio. A ratio < 1 stretches the timeline (longer
// simulation); a ratio > 1 compresses it (denser load).
func Compress(w Workload, ratio float64) Workload {
	out := make(Workload, len(w))
	for i, entry := range w {
		v := make(Visit, len(entry.V))
		for j, e := range entry.V {
			ve := e
			if e.Offset != nil {
				scaled := *e.Offset / ratio
				ve.Offset = &scaled
			}
			v[j] = ve
		}
		out[i] = WorkloadEntry{StartOffset: entry.StartOffset / ratio, V: v}
	}
	return out
}

// FilterByLength drops visits whose request count falls outside [min, max].
// max <= 0 means unbounded.
func FilterByLength(w Workload, min, max int) Workload {
	out := make(Workload, 0, len(w))
	for _, entry := range w {
		n := len(entry.V)
		if n < min {
			continue
		}
		if max > 0 && n > max {
			continue
		}
		out = append(out, entry)
	}
	return out
}
