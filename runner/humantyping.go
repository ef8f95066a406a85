package runner

import (
	"context"
	"strings"
	"time"

	"github.com/visitbench/visitbench/visit"
)

// DefaultHumanWPS is the default simulated human typing rate, in words
// per second, used when a visit entry has no explicit launch offset
// (spec.md §4.3 edge case).
const DefaultHumanWPS = 1.0

// HumanTypingOptions enables the optional think-time simulation between
// an offset-less request and the prior user turn it follows.
type HumanTypingOptions struct {
	WordsPerSecond float64 // 0 means DefaultHumanWPS
}

// sleepHumanTyping sleeps for word_count(prev_user_turn) / WPS before a
// request with no explicit offset is launched, approximating the delay a
// human would take to type the next turn.
func sleepHumanTyping(ctx context.Context, entry visit.VisitEntry, opts *HumanTypingOptions) error {
	wps := opts.WordsPerSecond
	if wps <= 0 {
		wps = DefaultHumanWPS
	}

	words := wordCount(lastUserTurn(entry.Req.MessagesWithDep))
	if words == 0 {
		return nil
	}

	d := time.Duration(float64(words)/wps*float64(time.Second))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func lastUserTurn(messages []visit.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == visit.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
