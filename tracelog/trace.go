// Package tracelog is the append-only per-task trace store described in
// spec.md §4.5: every visit runner reports request lifecycle events into a
// shared Logger, which serializes writes and answers consistent-snapshot
// queries. Grounded on the teacher's sim/trace/trace.go (a mutable
// recorder guarded by one mutex, queried through pure read methods),
// repurposed here from admission/routing-decision records to request
// lifecycle and streamed-token-pack events.
package tracelog

import (
	"sync"
	"time"
)

// ReqStatus is the lifecycle state of one request as seen by the trace.
type ReqStatus int

const (
	StatusPending ReqStatus = iota
	StatusInFlight
	StatusSucceeded
	StatusFailed
)

// pack is one streamed content arrival, kept for past_packs_of_task.
type pack struct {
	ts      time.Time
	content string
}

// reqRecord is the mutable per-request record the logger maintains.
type reqRecord struct {
	status        ReqStatus
	startTS       time.Time
	launchLatency time.Duration
	endTS         time.Time
	errMsg        string
}

// Task is one run's trace: a fixed expected request count, a start/end
// timestamp pair, and the live per-request records.
type Task struct {
	id        string
	startTS   time.Time
	endTS     time.Time
	finished  bool
	totalReq  int
	reqs      map[string]*reqRecord
	packs     []pack
	reqOrder  []string // insertion order, for deterministic iteration
}

// Logger is the single shared store a scheduler run and all of its visit
// runners write into. All mutating methods take the Logger's mutex; all
// query methods return copies so callers can't observe a write in
// progress (spec.md §4.5: readers must observe a consistent snapshot).
type Logger struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewLogger returns an empty Logger ready to accept InitTask calls.
func NewLogger() *Logger {
	return &Logger{tasks: make(map[string]*Task)}
}

// InitTask registers a new task with its expected total request count.
func (l *Logger) InitTask(taskID string, totalReq int, startTS time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks[taskID] = &Task{
		id:       taskID,
		startTS:  startTS,
		totalReq: totalReq,
		reqs:     make(map[string]*reqRecord),
	}
}

// InitRequest records that a request has started (moved to IN_FLIGHT).
func (l *Logger) InitRequest(taskID, reqID string, startTS time.Time, launchLatency time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	if !ok {
		return
	}
	t.reqs[reqID] = &reqRecord{status: StatusInFlight, startTS: startTS, launchLatency: launchLatency}
	t.reqOrder = append(t.reqOrder, reqID)
}

// LogNewPack records one streamed content chunk's arrival for a task's
// recent-packs window query.
func (l *Logger) LogNewPack(taskID, reqID string, ts time.Time, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	if !ok {
		return
	}
	t.packs = append(t.packs, pack{ts: ts, content: content})
}

// MarkSuccessForRequest moves a request to SUCCEEDED.
func (l *Logger) MarkSuccessForRequest(taskID, reqID string, endTS time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	if !ok {
		return
	}
	if r, ok := t.reqs[reqID]; ok {
		r.status = StatusSucceeded
		r.endTS = endTS
	}
}

// MarkErrorForRequest moves a request to FAILED, recording the error message.
func (l *Logger) MarkErrorForRequest(taskID, reqID string, endTS time.Time, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	if !ok {
		return
	}
	if r, ok := t.reqs[reqID]; ok {
		r.status = StatusFailed
		r.endTS = endTS
		r.errMsg = msg
	}
}

// MarkFinishForTask records the task's overall end timestamp.
func (l *Logger) MarkFinishForTask(taskID string, endTS time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID]
	if !ok {
		return
	}
	t.endTS = endTS
	t.finished = true
}
