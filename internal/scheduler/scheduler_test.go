package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func newTestScheduler(job Job, c *clock) *Scheduler {
	s := New(job, Config{Hour: 2, Minute: 0, PollInterval: time.Millisecond, StopTimeout: 200 * time.Millisecond, Location: time.UTC})
	s.now = c.now
	return s
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, time.Millisecond)
}

func TestTick_FiresOncePerDay(t *testing.T) {
	var runs atomic.Int32
	c := &clock{t: at(1, 1, 59)}
	s := newTestScheduler(func(context.Context) { runs.Add(1) }, c)

	assert.False(t, s.tick(), "before trigger time")

	c.set(at(1, 2, 0))
	assert.True(t, s.tick())
	waitIdle(t, s)
	assert.Equal(t, "2026-03-01", s.LastRunDate())

	c.set(at(1, 2, 30))
	assert.False(t, s.tick(), "already ran today")

	c.set(at(1, 3, 0))
	assert.False(t, s.tick(), "outside trigger hour")

	c.set(at(2, 2, 5))
	assert.True(t, s.tick(), "next day")
	waitIdle(t, s)

	assert.Equal(t, int32(2), runs.Load())
}

func TestTick_MinuteThreshold(t *testing.T) {
	c := &clock{t: at(1, 2, 14)}
	s := New(func(context.Context) {}, Config{Hour: 2, Minute: 15, Location: time.UTC})
	s.now = c.now

	assert.False(t, s.tick())
	c.set(at(1, 2, 15))
	assert.True(t, s.tick())
	waitIdle(t, s)
}

func TestTick_NoOverlap(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	c := &clock{t: at(1, 2, 0)}
	s := newTestScheduler(func(context.Context) {
		runs.Add(1)
		<-release
	}, c)

	require.True(t, s.tick())
	require.Eventually(t, s.Running, time.Second, time.Millisecond)

	assert.False(t, s.tick(), "a run is in progress")
	assert.False(t, s.TriggerNow())
	assert.Empty(t, s.LastRunDate(), "last run date is set on completion")

	close(release)
	waitIdle(t, s)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, "2026-03-01", s.LastRunDate())
}

func TestTick_PanicStillCompletes(t *testing.T) {
	c := &clock{t: at(1, 2, 0)}
	s := newTestScheduler(func(context.Context) { panic("boom") }, c)

	require.True(t, s.tick())
	waitIdle(t, s)
	assert.Equal(t, "2026-03-01", s.LastRunDate())
	assert.False(t, s.tick())
}

func TestTriggerNow_DoesNotConsumeDailyRun(t *testing.T) {
	var runs atomic.Int32
	c := &clock{t: at(1, 2, 0)}
	s := newTestScheduler(func(context.Context) { runs.Add(1) }, c)

	require.True(t, s.TriggerNow())
	waitIdle(t, s)
	assert.Empty(t, s.LastRunDate())

	assert.True(t, s.tick())
	waitIdle(t, s)
	assert.Equal(t, int32(2), runs.Load())
}

func TestStartStop_Idempotent(t *testing.T) {
	var runs atomic.Int32
	c := &clock{t: at(1, 2, 0)}
	s := newTestScheduler(func(context.Context) { runs.Add(1) }, c)

	s.Stop() // not started, warns only
	s.Start()
	s.Start()
	assert.True(t, s.Armed())

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.Armed())

	// no further triggers once stopped, even on a new day
	c.set(at(2, 2, 0))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestStop_BoundedWait(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := &clock{t: at(1, 2, 0)}
	s := newTestScheduler(func(context.Context) { <-release }, c)
	s.cfg.StopTimeout = 20 * time.Millisecond

	s.Start()
	require.Eventually(t, s.Running, time.Second, time.Millisecond)

	start := time.Now()
	s.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, s.Running(), "abandoned run keeps going")
}

func TestNextRun(t *testing.T) {
	c := &clock{t: at(1, 1, 0)}
	s := newTestScheduler(func(context.Context) {}, c)

	assert.Equal(t, at(1, 2, 0), s.NextRun())

	c.set(at(1, 5, 0))
	assert.Equal(t, at(2, 2, 0), s.NextRun())
}
