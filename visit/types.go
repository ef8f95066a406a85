// Package visit defines the core data model shared by every component of
// the benchmark engine: messages, simulated requests, visits, workloads,
// and the records a visit run produces.
package visit

import "time"

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a dialog. Exactly one of Content or DepID is set:
// DepID references the id of a prior request within the same visit whose
// completed reply text is substituted as this message's content at
// materialization time.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	DepID   string `json:"dep_id,omitempty" yaml:"dep_id,omitempty"`
}

// HasDep reports whether the message's content is deferred to a prior request.
func (m Message) HasDep() bool { return m.DepID != "" }

// GenParams are the generation parameters a SimReq may set; any field left
// at its zero value inherits from the run-wide config at dispatch time
// (see config.Overlay).
type GenParams struct {
	Model       string
	N           int
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// SimReq is a single simulated request within a visit.
type SimReq struct {
	ID              string
	DepID           string // optional: id of a prior request in the same visit that must complete first
	MessagesWithDep []Message
	Stream          bool // only true is supported
	Params          GenParams
}

// VisitEntry pairs a request with its scheduled launch offset. A nil Offset
// means "launch as soon as the previous request in this visit has
// completed"; a present Offset is a non-negative number of seconds from the
// visit's start.
type VisitEntry struct {
	Offset *float64
	Req    SimReq
}

// Visit is an ordered sequence of scheduled requests sharing a dependency
// context (a conversational session).
type Visit []VisitEntry

// WorkloadEntry pairs a visit with its start offset within the workload.
type WorkloadEntry struct {
	StartOffset float64
	V           Visit
}

// Workload is an ordered, timed sequence of visits derived from a dataset.
// Strictly non-decreasing by StartOffset; the first visit is at offset 0
// once NormalizeOffsets has run.
type Workload []WorkloadEntry

// ResPiece is one streamed chunk from an endpoint adapter.
type ResPiece struct {
	Index   int     `json:"index"`             // choice index; always 0 in the core
	Role    *Role   `json:"role,omitempty"`    // optional
	Content *string `json:"content,omitempty"` // optional
	Stop    *string `json:"stop,omitempty"`    // optional terminal stop reason
}

// Logging is one timestamped arrival of a ResPiece.
type Logging struct {
	Timestamp time.Time `json:"timestamp"`
	Piece     ResPiece  `json:"piece"`
}

// ErrorInfo records a request-level failure.
type ErrorInfo struct {
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
}

// ReqResponse is the per-request record produced by the visit runner.
type ReqResponse struct {
	ReqID          string        `json:"req_id"`
	StartTimestamp time.Time     `json:"start_timestamp"`
	EndTimestamp   time.Time     `json:"end_timestamp"`
	Dialog         []Message     `json:"dialog"`
	Loggings       []Logging     `json:"loggings,omitempty"`
	LaunchLatency  time.Duration `json:"launch_latency"`
	ErrorInfo      *ErrorInfo    `json:"error_info,omitempty"`
}

// Failed reports whether this request ended in error.
func (r ReqResponse) Failed() bool { return r.ErrorInfo != nil }

// VisitResponse is the per-visit record produced by the visit runner.
type VisitResponse struct {
	StartTimestamp time.Time     `json:"start_timestamp"`
	EndTimestamp   time.Time     `json:"end_timestamp"`
	Responses      []ReqResponse `json:"responses"`
	Failed         bool          `json:"failed"`
}
