package engine

import (
	"sync/atomic"
	"time"
)

// DefaultFrameRate is the scheduler tick rate when none is configured.
const DefaultFrameRate = 60

// Scheduler coalesces redraw requests into at most one render per tick.
// Invalidate may be called from any goroutine.
type Scheduler struct {
	dirty atomic.Bool
	rate  int
}

func NewScheduler(rate int) *Scheduler {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	s := &Scheduler{rate: rate}
	s.dirty.Store(true)
	return s
}

// Invalidate marks the frame dirty.
func (s *Scheduler) Invalidate() { s.dirty.Store(true) }

// Interval is the time between ticks.
func (s *Scheduler) Interval() time.Duration {
	return time.Second / time.Duration(s.rate)
}

// Tick runs render once if the frame is dirty, clearing the flag first so
// changes made during render schedule the next frame. It reports whether a
// render ran.
func (s *Scheduler) Tick(render func() error) (bool, error) {
	if !s.dirty.Swap(false) {
		return false, nil
	}
	return true, render()
}
