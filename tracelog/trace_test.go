package tracelog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogger_LifecycleCounts(t *testing.T) {
	l := NewLogger()
	now := time.Unix(1000, 0)
	l.InitTask("task1", 3, now)

	l.InitRequest("task1", "r1", now, 0)
	l.InitRequest("task1", "r2", now, 0)
	l.InitRequest("task1", "r3", now, 0)

	s := l.Status("task1")
	assert.Equal(t, TaskStatus{InFlight: 3}, s)

	l.MarkSuccessForRequest("task1", "r1", now.Add(time.Second))
	l.MarkErrorForRequest("task1", "r2", now.Add(time.Second), "boom")

	s = l.Status("task1")
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.InFlight)
	assert.Equal(t, 0, s.Pending)
}

func TestLogger_PendingDerivedFromTotal(t *testing.T) {
	l := NewLogger()
	now := time.Unix(0, 0)
	l.InitTask("task1", 5, now)
	l.InitRequest("task1", "r1", now, 0)

	assert.Equal(t, 4, l.Status("task1").Pending)
}

func TestLogger_RecentPacks_Window(t *testing.T) {
	l := NewLogger()
	base := time.Unix(1000, 0)
	l.InitTask("task1", 1, base)
	l.LogNewPack("task1", "r1", base, "old")
	l.LogNewPack("task1", "r1", base.Add(9*time.Second), "recent")

	got := l.RecentPacks("task1", base.Add(10*time.Second), 5*time.Second)
	assert.Equal(t, []string{"recent"}, got)
}

func TestLogger_MarkFinish(t *testing.T) {
	l := NewLogger()
	now := time.Unix(0, 0)
	l.InitTask("task1", 1, now)
	assert.False(t, l.Finished("task1"))
	l.MarkFinishForTask("task1", now.Add(time.Second))
	assert.True(t, l.Finished("task1"))
}

func TestLogger_ConcurrentWritesAreSafe(t *testing.T) {
	l := NewLogger()
	now := time.Unix(0, 0)
	l.InitTask("task1", 100, now)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			l.InitRequest("task1", id, now, 0)
			l.LogNewPack("task1", id, now, "x")
			l.MarkSuccessForRequest("task1", id, now)
		}(i)
	}
	wg.Wait()

	s := l.Status("task1")
	assert.Equal(t, 26, s.Succeeded)
}
