package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/park285/cheese-clock/internal/clock"
	"github.com/park285/cheese-clock/internal/timecontrol"
	"go.uber.org/zap"
)

var ErrInconsistentSnapshot = errors.New("inconsistent clock snapshot")

// SideSnapshot is one side's counters. MoveElapsedMs is the time already
// spent on the move in progress.
type SideSnapshot struct {
	RemainingMs      int64   `json:"remaining_ms" cbor:"remaining_ms"`
	DelayRemainingMs int64   `json:"delay_remaining_ms" cbor:"delay_remaining_ms"`
	MoveNumber       int     `json:"move_number" cbor:"move_number"`
	MoveTimesMs      []int64 `json:"move_times_ms,omitempty" cbor:"move_times_ms,omitempty"`
	MoveElapsedMs    int64   `json:"move_elapsed_ms,omitempty" cbor:"move_elapsed_ms,omitempty"`
}

// Snapshot is the persisted form of a Controller. Sides is indexed by Side.
// Round is an opaque tag set by the host and ignored by Restore.
type Snapshot struct {
	State        string             `json:"state" cbor:"state"`
	Active       string             `json:"active" cbor:"active"`
	Loser        string             `json:"loser,omitempty" cbor:"loser,omitempty"`
	Sides        [2]SideSnapshot    `json:"sides" cbor:"sides"`
	Config       timecontrol.Config `json:"config" cbor:"config"`
	TimeExceeded bool               `json:"time_exceeded" cbor:"time_exceeded"`
	TakenAt      time.Time          `json:"taken_at" cbor:"taken_at"`
	Round        string             `json:"round,omitempty" cbor:"round,omitempty"`
}

// Snapshot exports the controller. A running clock is read at the current
// instant without being charged.
func (c *Controller) Snapshot() Snapshot {
	now := c.src.Now()
	snap := Snapshot{
		State:        c.state.String(),
		Config:       c.cfg,
		TimeExceeded: c.timeExceeded,
		TakenAt:      now,
	}
	if c.active.Valid() {
		snap.Active = c.active.String()
	}
	if c.loser.Valid() {
		snap.Loser = c.loser.String()
	}
	for _, side := range []Side{First, Second} {
		clk := c.clocks[side]
		rem, delay := clk.Peek(now)
		times := c.moves.Times(side)
		ms := make([]int64, len(times))
		for i, d := range times {
			ms[i] = d.Milliseconds()
		}
		snap.Sides[side] = SideSnapshot{
			RemainingMs:      rem.Milliseconds(),
			DelayRemainingMs: delay.Milliseconds(),
			MoveNumber:       c.moves.Number(side),
			MoveTimesMs:      ms,
		}
		if side == c.active && (c.state == Running || c.state == Paused) {
			pending := clk.Remaining() + clk.DelayRemaining() - rem - delay
			snap.Sides[side].MoveElapsedMs = (clk.MoveElapsed() + pending).Milliseconds()
		}
	}
	return snap
}

// ValidateSnapshot checks that a snapshot describes a reachable game.
func ValidateSnapshot(s Snapshot) error {
	state, ok := ParseState(s.State)
	if !ok {
		return fmt.Errorf("%w: unknown state %q", ErrInconsistentSnapshot, s.State)
	}
	active, hasActive := ParseSide(s.Active)
	if s.Active != "" && !hasActive {
		return fmt.Errorf("%w: unknown active side %q", ErrInconsistentSnapshot, s.Active)
	}
	switch state {
	case Idle:
		if hasActive {
			return fmt.Errorf("%w: idle game with active side %s", ErrInconsistentSnapshot, active)
		}
	default:
		if !hasActive {
			return fmt.Errorf("%w: %s game without active side", ErrInconsistentSnapshot, state)
		}
	}
	if state == Done {
		loser, ok := ParseSide(s.Loser)
		if !ok || loser != active {
			return fmt.Errorf("%w: finished game loser %q does not match active %s", ErrInconsistentSnapshot, s.Loser, active)
		}
	}
	for i, side := range s.Sides {
		if side.MoveNumber < 1 {
			return fmt.Errorf("%w: %s move number %d", ErrInconsistentSnapshot, Side(i), side.MoveNumber)
		}
		if side.MoveElapsedMs < 0 {
			return fmt.Errorf("%w: %s negative move time", ErrInconsistentSnapshot, Side(i))
		}
		if side.DelayRemainingMs < 0 {
			return fmt.Errorf("%w: %s negative delay", ErrInconsistentSnapshot, Side(i))
		}
		if side.RemainingMs < 0 && !s.Config.AllowNegative {
			return fmt.Errorf("%w: %s negative time not allowed", ErrInconsistentSnapshot, Side(i))
		}
	}
	return nil
}

// Restore rebuilds a controller from a snapshot. A Running snapshot comes
// back Paused. An inconsistent snapshot yields a fresh Idle game for its
// config rather than a guess.
func Restore(s Snapshot, opts ...Option) *Controller {
	c := New(s.Config, opts...)
	if err := ValidateSnapshot(s); err != nil {
		c.log.Warn("clock_restore_rejected", zap.Error(err))
		return c
	}
	state, _ := ParseState(s.State)
	if state == Running {
		state = Paused
	}
	for _, side := range []Side{First, Second} {
		ss := s.Sides[side]
		clk := clock.New(
			time.Duration(ss.RemainingMs)*time.Millisecond,
			time.Duration(ss.DelayRemainingMs)*time.Millisecond,
			c.cfg.AllowNegative,
		)
		if ss.RemainingMs <= 0 && c.cfg.AllowNegative && s.TimeExceeded {
			clk.MarkExceeded()
		}
		clk.ResumeMove(time.Duration(ss.MoveElapsedMs) * time.Millisecond)
		c.clocks[side] = clk
		times := make([]time.Duration, len(ss.MoveTimesMs))
		for i, ms := range ss.MoveTimesMs {
			times[i] = time.Duration(ms) * time.Millisecond
		}
		c.moves.set(side, ss.MoveNumber, times)
	}
	c.state = state
	c.timeExceeded = s.TimeExceeded
	if state != Idle {
		c.active, _ = ParseSide(s.Active)
	}
	if state == Done {
		c.loser = c.active
	}
	c.gen++
	c.log.Info("clock_restored",
		zap.String("state", c.state.String()),
		zap.String("active", c.active.String()))
	return c
}
