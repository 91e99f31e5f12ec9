// Package game is the two-clock state machine. A Controller owns both
// clocks, the active pointer and the move counter, and is the only place
// state changes happen. It has no internal locking: callers serialize access.
package game

import (
	"time"

	"github.com/park285/cheese-clock/internal/clock"
	"github.com/park285/cheese-clock/internal/obslog"
	"github.com/park285/cheese-clock/internal/timecontrol"
	"github.com/park285/cheese-clock/internal/timesource"
	"go.uber.org/zap"
)

type Controller struct {
	cfg    timecontrol.Config
	clocks [2]*clock.Clock
	moves  *MoveCounter

	state  State
	active Side
	loser  Side
	first  Side

	// timeExceeded latches the first negative-time crossing of the game.
	timeExceeded bool
	// gen tags scheduled ticks; it changes whenever the running clock
	// starts, stops or is replaced.
	gen uint64

	src timesource.Source
	log *zap.Logger
}

type Option func(*Controller)

func WithTimeSource(src timesource.Source) Option {
	return func(c *Controller) {
		if src != nil {
			c.src = src
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFirstSide sets the side an explicit start hands the move to.
func WithFirstSide(s Side) Option {
	return func(c *Controller) {
		if s.Valid() {
			c.first = s
		}
	}
}

// New returns a controller in Idle with both clocks built from cfg.
func New(cfg timecontrol.Config, opts ...Option) *Controller {
	c := &Controller{
		first: First,
		src:   timesource.Real(),
		log:   obslog.L(),
		moves: NewMoveCounter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rebuild(cfg)
	return c
}

func (c *Controller) rebuild(cfg timecontrol.Config) {
	cfg = cfg.Normalized()
	c.cfg = cfg
	for i := range c.clocks {
		c.clocks[i] = clock.New(cfg.Initial, cfg.InitialDelay(), cfg.AllowNegative)
	}
	c.moves.Reset()
	c.state = Idle
	c.active = NoSide
	c.loser = NoSide
	c.timeExceeded = false
	c.gen++
}

// Dispatch applies one event. Events that are not valid in the current state
// are ignored and return a Result with Changed unset.
func (c *Controller) Dispatch(ev Event) Result {
	from := c.state
	var res Result
	switch ev.Kind {
	case EventButton:
		res = c.button(ev.Side)
	case EventStart:
		res = c.start()
	case EventPauseToggle:
		res = c.pauseToggle()
	case EventReset:
		res = c.reset(ev.Config)
	case EventTick:
		res = c.tick(ev.Generation)
	case EventAdjust:
		res = c.adjust(ev.Side, ev.Delta)
	}
	res.Generation = c.gen
	if !res.Changed {
		if ev.Kind != EventTick {
			c.log.Debug("clock_transition_rejected",
				zap.String("event", ev.Kind.String()),
				zap.String("state", from.String()),
				zap.String("side", ev.Side.String()))
		}
		return res
	}
	if from != c.state {
		c.log.Info("clock_transition",
			zap.String("event", ev.Kind.String()),
			zap.String("from", from.String()),
			zap.String("to", c.state.String()),
			zap.String("active", c.active.String()))
	}
	return res
}

func (c *Controller) OnButtonPressed(side Side) Result {
	return c.Dispatch(Event{Kind: EventButton, Side: side})
}

func (c *Controller) OnStartRequested() Result {
	return c.Dispatch(Event{Kind: EventStart})
}

func (c *Controller) OnPauseToggle() Result {
	return c.Dispatch(Event{Kind: EventPauseToggle})
}

// OnResetConfirmed returns the game to Idle with cfg, or with the current
// config when cfg is nil.
func (c *Controller) OnResetConfirmed(cfg *timecontrol.Config) Result {
	return c.Dispatch(Event{Kind: EventReset, Config: cfg})
}

// OnTick charges the running clock regardless of generation. Hosts with a
// real scheduler should prefer Tick.
func (c *Controller) OnTick() Result {
	return c.Dispatch(Event{Kind: EventTick, Generation: c.gen})
}

// Tick charges the running clock if gen still matches; a stale tick is a
// no-op.
func (c *Controller) Tick(gen uint64) Result {
	return c.Dispatch(Event{Kind: EventTick, Generation: gen})
}

// AdjustTime adds delta to side's main counter while the game is Idle or
// Paused.
func (c *Controller) AdjustTime(side Side, delta time.Duration) Result {
	return c.Dispatch(Event{Kind: EventAdjust, Side: side, Delta: delta})
}

func (c *Controller) button(side Side) Result {
	if !side.Valid() {
		return Result{}
	}
	switch c.state {
	case Idle:
		// tapping your own button hands the move to the opponent
		return c.begin(side.Other())
	case Running:
		if side != c.active {
			return Result{}
		}
		return c.finishMove()
	default:
		return Result{}
	}
}

func (c *Controller) start() Result {
	if c.state != Idle {
		return Result{}
	}
	return c.begin(c.first)
}

func (c *Controller) begin(side Side) Result {
	now := c.src.Now()
	c.active = side
	clk := c.clocks[side]
	clk.BeginMove()
	clk.Start(now)
	c.state = Running
	c.gen++
	return c.flagOnStart(side, Result{
		Changed:  true,
		Signals:  []Signal{{Kind: SignalMoveStarted, Side: side}},
		NextTick: clk.NextDelay(),
	})
}

// flagOnStart ends the game at once when side's clock starts with nothing
// left to spend.
func (c *Controller) flagOnStart(side Side, res Result) Result {
	clk := c.clocks[side]
	if clk.AllowNegative() || clk.Remaining() > 0 || clk.DelayRemaining() > 0 {
		return res
	}
	sigs, over := c.checkFlag(side)
	res.Signals = append(res.Signals, sigs...)
	if over {
		res.NextTick = 0
	}
	return res
}

func (c *Controller) finishMove() Result {
	now := c.src.Now()
	side := c.active
	clk := c.clocks[side]
	clk.Pause(now)
	c.gen++

	sigs, over := c.checkFlag(side)
	res := Result{Changed: true, Signals: sigs}
	if over {
		return res
	}

	next := c.moves.Advance(side, clk.MoveElapsed())
	applied := timecontrol.ApplyMoveCompleted(c.cfg, next, clk)
	res.Signals = append(res.Signals, Signal{Kind: SignalMoveFinished, Side: side})
	c.log.Debug("clock_move_finished",
		zap.String("side", side.String()),
		zap.Int("move", next-1),
		zap.Duration("elapsed", clk.MoveElapsed()),
		zap.Duration("phase_bonus", applied.PhaseBonus),
		zap.Duration("increment", applied.Increment),
		zap.Int64("remaining_ms", clk.Remaining().Milliseconds()))

	other := side.Other()
	c.active = other
	oc := c.clocks[other]
	oc.BeginMove()
	oc.Start(now)
	res.Signals = append(res.Signals, Signal{Kind: SignalMoveStarted, Side: other})
	res.NextTick = oc.NextDelay()
	return res
}

// checkFlag inspects a clock that was just charged outside a tick. over
// reports that the game ended.
func (c *Controller) checkFlag(side Side) (sigs []Signal, over bool) {
	clk := c.clocks[side]
	if clk.Remaining() > 0 || clk.DelayRemaining() > 0 {
		return nil, false
	}
	if clk.AllowNegative() {
		if c.timeExceeded || clk.Remaining() == 0 {
			return nil, false
		}
		c.timeExceeded = true
		clk.MarkExceeded()
		return []Signal{{Kind: SignalTimeExceeded, Side: side}}, false
	}
	clk.Increment(-clk.Remaining())
	if !c.finish(side) {
		return nil, false
	}
	return []Signal{{Kind: SignalExpired, Side: side}}, true
}

// finish moves the game to Done with side as the loser.
func (c *Controller) finish(side Side) bool {
	if !side.Valid() {
		c.log.Error("clock_done_without_active", zap.String("state", c.state.String()))
		return false
	}
	c.clocks[side].Pause(c.src.Now())
	c.loser = side
	c.state = Done
	c.gen++
	c.log.Info("clock_expired",
		zap.String("side", side.String()),
		zap.Int("move", c.moves.Number(side)))
	return true
}

func (c *Controller) pauseToggle() Result {
	switch c.state {
	case Running:
		clk := c.clocks[c.active]
		clk.Pause(c.src.Now())
		c.gen++
		c.state = Paused
		sigs, _ := c.checkFlag(c.active)
		return Result{Changed: true, Signals: sigs}
	case Paused:
		clk := c.clocks[c.active]
		clk.Start(c.src.Now())
		c.state = Running
		c.gen++
		return c.flagOnStart(c.active, Result{Changed: true, NextTick: clk.NextDelay()})
	default:
		return Result{}
	}
}

func (c *Controller) reset(cfg *timecontrol.Config) Result {
	if c.state == Running {
		return Result{}
	}
	next := c.cfg
	if cfg != nil {
		next = *cfg
	}
	c.rebuild(next)
	c.log.Info("clock_reset", zap.String("control", c.cfg.String()))
	return Result{Changed: true}
}

func (c *Controller) tick(gen uint64) Result {
	if c.state != Running || gen != c.gen {
		return Result{}
	}
	side := c.active
	tr := c.clocks[side].Tick(c.src.Now())
	res := Result{Changed: true, NextTick: tr.Next}
	switch tr.Event {
	case clock.EventTimeExceeded:
		if !c.timeExceeded {
			c.timeExceeded = true
			res.Signals = append(res.Signals, Signal{Kind: SignalTimeExceeded, Side: side})
			c.log.Info("clock_time_exceeded", zap.String("side", side.String()))
		}
	case clock.EventExpired:
		if c.finish(side) {
			res.Signals = append(res.Signals, Signal{Kind: SignalExpired, Side: side})
		}
		res.NextTick = 0
	}
	return res
}

func (c *Controller) adjust(side Side, delta time.Duration) Result {
	if !side.Valid() || (c.state != Paused && c.state != Idle) {
		return Result{}
	}
	clk := c.clocks[side]
	clk.Increment(delta)
	if !c.cfg.AllowNegative && clk.Remaining() < 0 {
		clk.Increment(-clk.Remaining())
	}
	c.log.Info("clock_adjusted",
		zap.String("side", side.String()),
		zap.Duration("delta", delta),
		zap.Int64("remaining_ms", clk.Remaining().Milliseconds()))
	return Result{Changed: true}
}

func (c *Controller) State() State               { return c.state }
func (c *Controller) ActiveSide() Side           { return c.active }
func (c *Controller) Loser() Side                { return c.loser }
func (c *Controller) Config() timecontrol.Config { return c.cfg }
func (c *Controller) Generation() uint64         { return c.gen }
func (c *Controller) TimeExceeded() bool         { return c.timeExceeded }

// Remaining is side's main counter as of the last charge.
func (c *Controller) Remaining(side Side) time.Duration {
	if !side.Valid() {
		return 0
	}
	return c.clocks[side].Remaining()
}

func (c *Controller) RemainingMs(side Side) int64 {
	return c.Remaining(side).Milliseconds()
}

func (c *Controller) DelayRemainingMs(side Side) int64 {
	if !side.Valid() {
		return 0
	}
	return c.clocks[side].DelayRemaining().Milliseconds()
}

// LiveRemaining reads side's counters at the current instant without
// charging them, for displays that refresh between ticks.
func (c *Controller) LiveRemaining(side Side) (remaining, delay time.Duration) {
	if !side.Valid() {
		return 0, 0
	}
	return c.clocks[side].Peek(c.src.Now())
}

func (c *Controller) MoveNumber(side Side) int { return c.moves.Number(side) }

func (c *Controller) MoveTimes(side Side) []time.Duration { return c.moves.Times(side) }

// TimeGap is side's remaining time minus the opponent's.
func (c *Controller) TimeGap(side Side) time.Duration {
	if !side.Valid() {
		return 0
	}
	return c.Remaining(side) - c.Remaining(side.Other())
}

// NextTick is the delay a host should wait before ticking, zero when no
// clock runs.
func (c *Controller) NextTick() time.Duration {
	if c.state != Running {
		return 0
	}
	return c.clocks[c.active].NextDelay()
}
