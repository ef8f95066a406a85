// Package adapter defines the endpoint adapter contract (spec.md §4.2): an
// opaque async stream producer that, given a dialog and a config, yields a
// sequence of token pieces or a terminal error. Concrete adapters for the
// vendor wire shapes observed in the original implementation are
// registered in a static table (registry.go).
package adapter

import (
	"context"

	"github.com/visitbench/visitbench/visit"
)

// StreamConfig is the union of config options recognized across adapters;
// an adapter ignores keys it does not understand.
type StreamConfig struct {
	APIBase        string
	APIKey         string
	Model          string
	Legacy         bool // switches between "chat" and "completion" wire shapes
	Temperature    float64
	TopP           float64
	MaxTokens      int
	RequestTimeout int // seconds; 0 means no adapter-enforced timeout
	Passthrough    map[string]any
}

// StreamItem is one element of an adapter's output sequence: either a
// successfully parsed ResPiece, or a terminal error that closes the
// sequence. Exactly one of Piece/Err is set.
type StreamItem struct {
	Piece visit.ResPiece
	Err   error
}

// Adapter is the single capability the core depends on: streaming a dialog
// through a vendor endpoint. Implementations close the returned channel
// after emitting a piece with a non-nil Stop, after emitting a StreamItem
// with Err set, or when the underlying sequence is naturally exhausted.
type Adapter interface {
	Stream(ctx context.Context, dialog []visit.Message, cfg StreamConfig) <-chan StreamItem
}

// Factory constructs an Adapter. Adapters are stateless with respect to
// any single call's config (spec.md §9 Design Notes: no global mutable
// adapter state), so a Factory typically just returns a shared zero-state
// value.
type Factory func() Adapter
