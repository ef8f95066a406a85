package visit

import "fmt"

// Validate checks every per-visit invariant from the data model: scheduled
// offsets strictly increase where present, every dep resolves to an
// earlier request in the same visit, no request depends on itself, and
// every message carries content or a resolvable dep.
//
// Grounded on original_source's workload_datasets/utils.py assert_visit_is_legal.
func (v Visit) Validate() error {
	seen := make(map[string]bool, len(v))
	lastOffset := -1.0
	sawOffset := false

	for i, entry := range v {
		if entry.Offset != nil {
			if sawOffset && *entry.Offset <= lastOffset {
				return fmt.Errorf("visit: offset at request %d (%q) is not strictly increasing", i, entry.Req.ID)
			}
			lastOffset = *entry.Offset
			sawOffset = true
		}

		req := entry.Req
		if req.DepID != "" {
			if req.DepID == req.ID {
				return fmt.Errorf("visit: request %q depends on itself", req.ID)
			}
			if !seen[req.DepID] {
				return fmt.Errorf("visit: request %q dep_id %q does not resolve to an earlier request", req.ID, req.DepID)
			}
		}

		for j, msg := range req.MessagesWithDep {
			hasContent := msg.Content != ""
			hasDep := msg.DepID != ""
			if hasContent == hasDep {
				return fmt.Errorf("visit: request %q message %d must have exactly one of content or dep_id", req.ID, j)
			}
			if hasDep {
				if msg.DepID == req.ID {
					return fmt.Errorf("visit: request %q message %d depends on its own request", req.ID, j)
				}
				if !seen[msg.DepID] {
					return fmt.Errorf("visit: request %q message %d dep_id %q does not resolve to an earlier request", req.ID, j, msg.DepID)
				}
			}
		}

		if seen[req.ID] {
			return fmt.Errorf("visit: duplicate request id %q", req.ID)
		}
		seen[req.ID] = true
	}
	return nil
}

// Validate checks that the workload is strictly non-decreasing by start
// offset, the first visit starts at offset 0, and every visit is
// individually legal.
func (w Workload) Validate() error {
	if len(w) == 0 {
		return nil
	}
	if w[0].StartOffset != 0 {
		return fmt.Errorf("workload: first visit must start at offset 0, got %f", w[0].StartOffset)
	}
	for i := 1; i < len(w); i++ {
		if w[i].StartOffset < w[i-1].StartOffset {
			return fmt.Errorf("workload: start offsets must be non-decreasing, visit %d (%f) < visit %d (%f)",
				i, w[i].StartOffset, i-1, w[i-1].StartOffset)
		}
	}
	for i, entry := range w {
		if err := entry.V.Validate(); err != nil {
			return fmt.Errorf("workload: visit %d: %w", i, err)
		}
	}
	return nil
}
