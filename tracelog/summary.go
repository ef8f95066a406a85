package tracelog

import "time"

// TaskStatus is the snapshot spec.md §4.5 calls
// cur_requests_status_of_task: counts of requests in each lifecycle state.
type TaskStatus struct {
	Pending   int
	InFlight  int
	Succeeded int
	Failed    int
}

// Status returns a point-in-time snapshot of taskID's request counts.
// Pending is derived from the task's declared total minus everything the
// logger has actually seen started, so callers can compare against the
// expected request count from InitTask.
func (l *Logger) Status(taskID string) TaskStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	if !ok {
		return TaskStatus{}
	}
	var s TaskStatus
	for _, r := range t.reqs {
		switch r.status {
		case StatusInFlight:
			s.InFlight++
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		}
	}
	seen := len(t.reqs)
	if t.totalReq > seen {
		s.Pending = t.totalReq - seen
	}
	return s
}

// RecentPacks returns the content of every pack logged for taskID within
// the trailing window ending at "now" (spec.md §4.5:
// past_packs_of_task(task, window_seconds)).
func (l *Logger) RecentPacks(taskID string, now time.Time, window time.Duration) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	if !ok {
		return nil
	}
	cutoff := now.Add(-window)
	out := make([]string, 0, len(t.packs))
	for _, p := range t.packs {
		if !p.ts.Before(cutoff) && !p.ts.After(now) {
			out = append(out, p.content)
		}
	}
	return out
}

// Finished reports whether mark_finish_for_task has been called for taskID.
func (l *Logger) Finished(taskID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	return ok && t.finished
}
