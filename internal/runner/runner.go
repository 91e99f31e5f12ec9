// Package runner drives a game.Controller from a timer. It serializes every
// call into the controller, schedules ticks at the delay the controller asks
// for, and delivers signals to subscribers after releasing its lock.
package runner

import (
	"sync"
	"time"

	"github.com/park285/cheese-clock/internal/game"
	"github.com/park285/cheese-clock/internal/obslog"
	"github.com/park285/cheese-clock/internal/timecontrol"
	"github.com/park285/cheese-clock/internal/timesource"
	"go.uber.org/zap"
)

// SideView is one side as displayed.
type SideView struct {
	Remaining  time.Duration
	Delay      time.Duration
	MoveNumber int
	MoveTimes  []time.Duration
}

// View is a consistent read of the whole game.
type View struct {
	State        game.State
	Active       game.Side
	Loser        game.Side
	Sides        [2]SideView
	Config       timecontrol.Config
	TimeExceeded bool
}

type Runner struct {
	mu       sync.Mutex
	ctl      *game.Controller
	src      timesource.Source
	timer    timesource.Timer
	handlers []func(game.Signal)
	closed   bool
	log      *zap.Logger
}

type Option func(*Runner)

// WithTimeSource must match the source the controller was built with.
func WithTimeSource(src timesource.Source) Option {
	return func(r *Runner) {
		if src != nil {
			r.src = src
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func New(ctl *game.Controller, opts ...Option) *Runner {
	r := &Runner{ctl: ctl, src: timesource.Real(), log: obslog.L()}
	for _, opt := range opts {
		opt(r)
	}
	// a restored controller may already want ticks
	r.mu.Lock()
	if next := ctl.NextTick(); next > 0 {
		r.scheduleLocked(ctl.Generation(), next)
	}
	r.mu.Unlock()
	return r
}

// OnSignal registers fn for every signal raised from now on. Handlers run
// on the goroutine that caused the transition, outside the runner's lock.
func (r *Runner) OnSignal(fn func(game.Signal)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.handlers = append(r.handlers, fn)
	r.mu.Unlock()
}

func (r *Runner) Press(side game.Side) game.Result {
	return r.apply(func(c *game.Controller) game.Result { return c.OnButtonPressed(side) })
}

func (r *Runner) Start() game.Result {
	return r.apply(func(c *game.Controller) game.Result { return c.OnStartRequested() })
}

func (r *Runner) PauseToggle() game.Result {
	return r.apply(func(c *game.Controller) game.Result { return c.OnPauseToggle() })
}

// Reset returns the game to Idle; nil keeps the current config.
func (r *Runner) Reset(cfg *timecontrol.Config) game.Result {
	return r.apply(func(c *game.Controller) game.Result { return c.OnResetConfirmed(cfg) })
}

func (r *Runner) Adjust(side game.Side, delta time.Duration) game.Result {
	return r.apply(func(c *game.Controller) game.Result { return c.AdjustTime(side, delta) })
}

// Do runs fn with exclusive access to the controller and schedules whatever
// tick the returned result asks for.
func (r *Runner) Do(fn func(*game.Controller) game.Result) game.Result {
	return r.apply(fn)
}

func (r *Runner) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.ctl
	v := View{
		State:        c.State(),
		Active:       c.ActiveSide(),
		Loser:        c.Loser(),
		Config:       c.Config(),
		TimeExceeded: c.TimeExceeded(),
	}
	for _, s := range []game.Side{game.First, game.Second} {
		rem, delay := c.LiveRemaining(s)
		v.Sides[s] = SideView{
			Remaining:  rem,
			Delay:      delay,
			MoveNumber: c.MoveNumber(s),
			MoveTimes:  c.MoveTimes(s),
		}
	}
	return v
}

func (r *Runner) Snapshot() game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctl.Snapshot()
}

// Close cancels the pending tick; later calls are ignored.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopLocked()
}

func (r *Runner) apply(fn func(*game.Controller) game.Result) game.Result {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return game.Result{}
	}
	res := fn(r.ctl)
	if res.Changed {
		r.stopLocked()
		if res.NextTick > 0 {
			r.scheduleLocked(res.Generation, res.NextTick)
		}
	}
	handlers := append([]func(game.Signal){}, r.handlers...)
	r.mu.Unlock()

	for _, sig := range res.Signals {
		for _, h := range handlers {
			h(sig)
		}
	}
	return res
}

func (r *Runner) fire(gen uint64) {
	r.apply(func(c *game.Controller) game.Result {
		res := c.Tick(gen)
		if !res.Changed {
			r.log.Debug("clock_tick_stale", zap.Uint64("gen", gen), zap.Uint64("current", c.Generation()))
		}
		return res
	})
}

func (r *Runner) scheduleLocked(gen uint64, d time.Duration) {
	r.timer = r.src.AfterFunc(d, func() { r.fire(gen) })
}

func (r *Runner) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
