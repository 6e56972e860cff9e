package fixtures

import (
	"sync"
	"time"

	"flowbuilder/application/ports"
)

// FakeScheduler records scheduled callbacks and runs them on demand
type FakeScheduler struct {
	mu     sync.Mutex
	timers []*FakeTimer
}

// FakeTimer is a callback held by FakeScheduler
type FakeTimer struct {
	Delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &FakeTimer{Delay: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

// Stop marks the timer cancelled
func (t *FakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Stopped reports whether the timer was cancelled
func (t *FakeTimer) Stopped() bool {
	return t.stopped
}

// Fire runs the callback even if the timer was stopped, to mimic a timer
// that had already fired when Stop was called
func (t *FakeTimer) Fire() {
	t.fired = true
	t.fn()
}

// Timers returns every timer scheduled so far
func (s *FakeScheduler) Timers() []*FakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*FakeTimer(nil), s.timers...)
}

// Last returns the most recent timer
func (s *FakeScheduler) Last() *FakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// FirePending runs every timer that was neither stopped nor fired
func (s *FakeScheduler) FirePending() int {
	fired := 0
	for _, t := range s.Timers() {
		if !t.stopped && !t.fired {
			t.Fire()
			fired++
		}
	}
	return fired
}
