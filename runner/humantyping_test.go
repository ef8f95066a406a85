package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitbench/visitbench/visit"
)

func TestSleepHumanTyping_ZeroWordsNoSleep(t *testing.T) {
	entry := visit.VisitEntry{Req: visit.SimReq{MessagesWithDep: []visit.Message{
		{Role: visit.RoleUser, Content: ""},
	}}}
	start := time.Now()
	err := sleepHumanTyping(context.Background(), entry, &HumanTypingOptions{WordsPerSecond: 1})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestSleepHumanTyping_SleepsProportionalToWordCount(t *testing.T) {
	entry := visit.VisitEntry{Req: visit.SimReq{MessagesWithDep: []visit.Message{
		{Role: visit.RoleUser, Content: "one two three four"},
	}}}
	start := time.Now()
	err := sleepHumanTyping(context.Background(), entry, &HumanTypingOptions{WordsPerSecond: 100})
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond) // 4 words / 100 wps
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestSleepHumanTyping_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entry := visit.VisitEntry{Req: visit.SimReq{MessagesWithDep: []visit.Message{
		{Role: visit.RoleUser, Content: "one two three"},
	}}}
	err := sleepHumanTyping(ctx, entry, &HumanTypingOptions{WordsPerSecond: 0.001})
	require.Error(t, err)
}

func TestLastUserTurn(t *testing.T) {
	messages := []visit.Message{
		{Role: visit.RoleSystem, Content: "sys"},
		{Role: visit.RoleUser, Content: "first"},
		{Role: visit.RoleAssistant, Content: "reply"},
	}
	assert.Equal(t, "first", lastUserTurn(messages))
}
