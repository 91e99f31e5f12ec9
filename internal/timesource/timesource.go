// Package timesource abstracts the wall clock so the clock engine and its
// scheduler can be driven by synthetic time in tests.
package timesource

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Source provides the current time and delayed callbacks.
type Source interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realSource struct{}

// Real returns the Source backed by the time package.
func Real() Source { return realSource{} }

func (realSource) Now() time.Time { return time.Now() }

func (realSource) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a manually advanced Source. Callbacks registered with AfterFunc
// run synchronously inside Advance, in deadline order, with the lock released
// so they may schedule further callbacks.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	waiters []*fakeTimer
}

type fakeTimer struct {
	fake     *Fake
	id       uint64
	deadline time.Time
	fn       func()
}

// NewFake returns a Fake frozen at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{fake: f, id: f.seq, deadline: f.now.Add(d), fn: fn}
	f.waiters = append(f.waiters, t)
	return t
}

// Pending reports how many callbacks are waiting to fire.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// Advance moves time forward by d, firing every callback whose deadline is
// reached along the way.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		next := f.popDueLocked(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		if next.deadline.After(f.now) {
			f.now = next.deadline
		}
		f.mu.Unlock()
		next.fn()
		f.mu.Lock()
	}
}

func (f *Fake) popDueLocked(target time.Time) *fakeTimer {
	if len(f.waiters) == 0 {
		return nil
	}
	sort.SliceStable(f.waiters, func(i, j int) bool {
		if f.waiters[i].deadline.Equal(f.waiters[j].deadline) {
			return f.waiters[i].id < f.waiters[j].id
		}
		return f.waiters[i].deadline.Before(f.waiters[j].deadline)
	})
	first := f.waiters[0]
	if first.deadline.After(target) {
		return nil
	}
	f.waiters = f.waiters[1:]
	return first
}

func (t *fakeTimer) Stop() bool {
	f := t.fake
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.waiters {
		if w.id == t.id {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return true
		}
	}
	return false
}
