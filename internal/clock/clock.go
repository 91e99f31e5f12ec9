// Package clock implements a single player's countdown.
//
// A Clock never reads the wall clock itself. Every operation that consumes
// time takes the current instant, so a host can drive it from a real timer or
// from synthetic time in tests. A pre-move delay window, when armed, is spent
// before the main counter and is tracked separately from it.
package clock

import "time"

const (
	// SlowCadence is the tick interval while more than FastThreshold remains.
	SlowCadence = time.Second
	// FastCadence is the tick interval inside a delay window and in the last seconds.
	FastCadence = 100 * time.Millisecond
	// FastThreshold is the remaining time at or below which ticks speed up.
	FastThreshold = 10 * time.Second
)

// Event is what a tick reports back to the owner of the clock.
type Event int

const (
	EventNone Event = iota
	// EventDelayElapsed fires on the tick that exhausts the delay window.
	EventDelayElapsed
	// EventTimeExceeded fires once, on the first tick at or past zero, when negative time is allowed.
	EventTimeExceeded
	// EventExpired fires on the tick that reaches zero when negative time is not allowed. Terminal.
	EventExpired
)

func (e Event) String() string {
	switch e {
	case EventDelayElapsed:
		return "delay_elapsed"
	case EventTimeExceeded:
		return "time_exceeded"
	case EventExpired:
		return "expired"
	default:
		return "none"
	}
}

// TickResult tells the caller what happened and when to tick again.
// Next is zero when the clock stopped and nothing should be scheduled.
type TickResult struct {
	Event Event
	Next  time.Duration
}

// Clock is one side's countdown. It is not safe for concurrent use; the
// game controller owns it and serializes access.
type Clock struct {
	remaining     time.Duration
	delay         time.Duration
	running       bool
	lastTick      time.Time
	allowNegative bool

	exceeded    bool
	expired     bool
	moveElapsed time.Duration

	// gen changes whenever a run starts or stops; ticks scheduled for an
	// older generation must be ignored.
	gen uint64
}

// New returns a stopped clock.
func New(remaining, delay time.Duration, allowNegative bool) *Clock {
	c := &Clock{allowNegative: allowNegative}
	c.Initialize(remaining, delay)
	return c
}

// Initialize sets both counters and stops the clock.
func (c *Clock) Initialize(remaining, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	c.remaining = remaining
	c.delay = delay
	c.stop()
}

// Reset reinitializes the clock to a full duration and fresh delay window,
// clearing the exceeded/expired flags.
func (c *Clock) Reset(remaining, delay time.Duration) {
	c.Initialize(remaining, delay)
	c.exceeded = false
	c.expired = false
	c.moveElapsed = 0
}

// Start begins counting from now. Starting a running or expired clock is a
// no-op and reports false.
func (c *Clock) Start(now time.Time) bool {
	if c.running || c.expired {
		return false
	}
	c.running = true
	c.lastTick = now
	c.gen++
	return true
}

// Pause charges the time elapsed since the last tick to the delay window or
// the main counter and stops the clock. Safe to call on a stopped clock.
func (c *Clock) Pause(now time.Time) {
	if !c.running {
		return
	}
	c.advance(now)
	c.stop()
}

// Tick charges elapsed time and reports the resulting event together with
// the delay before the next tick.
func (c *Clock) Tick(now time.Time) TickResult {
	if !c.running {
		return TickResult{}
	}
	inDelay := c.delay > 0
	c.advance(now)

	if c.delay > 0 {
		return TickResult{Next: minDuration(FastCadence, c.delay)}
	}
	res := TickResult{}
	if inDelay {
		res.Event = EventDelayElapsed
	}

	if c.remaining > 0 {
		res.Next = c.cadence()
		return res
	}
	if c.allowNegative {
		if c.remaining == 0 {
			// exactly on zero; the next tick crosses it
			res.Next = FastCadence
			return res
		}
		if !c.exceeded {
			c.exceeded = true
			res.Event = EventTimeExceeded
		}
		res.Next = SlowCadence
		return res
	}
	c.remaining = 0
	c.expired = true
	c.stop()
	return TickResult{Event: EventExpired}
}

// NextDelay is the interval a host should wait before the next tick of a
// running clock, or zero if the clock is stopped.
func (c *Clock) NextDelay() time.Duration {
	if !c.running {
		return 0
	}
	if c.delay > 0 {
		return minDuration(FastCadence, c.delay)
	}
	if c.remaining < 0 && c.allowNegative {
		return SlowCadence
	}
	if c.remaining <= 0 {
		// a running clock with nothing left must still be ticked to expire
		return FastCadence
	}
	return c.cadence()
}

// Peek returns the counters as they would read at now, without charging the
// elapsed time.
func (c *Clock) Peek(now time.Time) (remaining, delay time.Duration) {
	remaining, delay = c.remaining, c.delay
	if !c.running {
		return remaining, delay
	}
	dt := now.Sub(c.lastTick)
	if dt <= 0 {
		return remaining, delay
	}
	if dt <= delay {
		return remaining, delay - dt
	}
	return remaining - (dt - delay), 0
}

// Increment adds a signed amount to the main counter.
func (c *Clock) Increment(d time.Duration) {
	c.remaining += d
}

// ArmDelay opens a fresh delay window for the next move. Any unused part of
// the previous window is discarded, never banked.
func (c *Clock) ArmDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.delay = d
}

// BeginMove zeroes the per-move elapsed accumulator.
func (c *Clock) BeginMove() { c.moveElapsed = 0 }

// ResumeMove continues a move that already consumed elapsed, e.g. one
// interrupted by a snapshot.
func (c *Clock) ResumeMove(elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	c.moveElapsed = elapsed
}

// MoveElapsed is the time consumed since BeginMove, delay included.
func (c *Clock) MoveElapsed() time.Duration { return c.moveElapsed }

func (c *Clock) Remaining() time.Duration      { return c.remaining }
func (c *Clock) DelayRemaining() time.Duration { return c.delay }
func (c *Clock) IsRunning() bool               { return c.running }
func (c *Clock) Expired() bool                 { return c.expired }
func (c *Clock) Exceeded() bool                { return c.exceeded }
func (c *Clock) Generation() uint64            { return c.gen }
func (c *Clock) AllowNegative() bool           { return c.allowNegative }

// MarkExceeded records that the time-exceeded event was already reported,
// used when rebuilding a clock from a snapshot.
func (c *Clock) MarkExceeded() { c.exceeded = true }

func (c *Clock) advance(now time.Time) {
	dt := now.Sub(c.lastTick)
	c.lastTick = now
	if dt <= 0 {
		return
	}
	c.moveElapsed += dt
	if c.delay > 0 {
		if dt <= c.delay {
			c.delay -= dt
			return
		}
		dt -= c.delay
		c.delay = 0
	}
	c.remaining -= dt
}

func (c *Clock) cadence() time.Duration {
	if c.remaining > FastThreshold {
		// land exactly on the threshold so the fast phase starts on time
		return minDuration(SlowCadence, c.remaining-FastThreshold)
	}
	return minDuration(FastCadence, c.remaining)
}

func (c *Clock) stop() {
	if c.running {
		c.gen++
	}
	c.running = false
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
