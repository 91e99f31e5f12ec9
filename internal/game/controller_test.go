package game

import (
	"testing"
	"time"

	"github.com/park285/cheese-clock/internal/timecontrol"
	"github.com/park285/cheese-clock/internal/timesource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newGame(t *testing.T, cfg timecontrol.Config, opts ...Option) (*Controller, *timesource.Fake) {
	t.Helper()
	f := timesource.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	opts = append([]Option{WithTimeSource(f)}, opts...)
	return New(cfg, opts...), f
}

func move(c *Controller, f *timesource.Fake, side Side, d time.Duration) Result {
	f.Advance(d)
	return c.OnButtonPressed(side)
}

func hasSignal(res Result, kind SignalKind, side Side) bool {
	for _, s := range res.Signals {
		if s.Kind == kind && s.Side == side {
			return true
		}
	}
	return false
}

func TestFischerIncrementAddedOnMoveCompletion(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: 120 * time.Second, Increment: 5 * time.Second, Delay: timecontrol.Fischer})
	res := c.OnStartRequested()
	if c.State() != Running || c.ActiveSide() != First || !hasSignal(res, SignalMoveStarted, First) {
		t.Fatalf("start: state=%v active=%v res=%+v", c.State(), c.ActiveSide(), res)
	}
	res = move(c, f, First, 3*time.Second)
	if got := c.RemainingMs(First); got != 122_000 {
		t.Fatalf("white remaining = %d, want 122000", got)
	}
	if c.ActiveSide() != Second || c.MoveNumber(First) != 2 || c.MoveNumber(Second) != 1 {
		t.Fatalf("after move: active=%v moves=%d/%d", c.ActiveSide(), c.MoveNumber(First), c.MoveNumber(Second))
	}
	if !hasSignal(res, SignalMoveFinished, First) || !hasSignal(res, SignalMoveStarted, Second) {
		t.Fatalf("signals = %+v", res.Signals)
	}
	if times := c.MoveTimes(First); len(times) != 1 || times[0] != 3*time.Second {
		t.Fatalf("move times = %v", times)
	}
	if res.NextTick != time.Second {
		t.Fatalf("next tick = %v", res.NextTick)
	}
}

func TestBronsteinShortMoveIsFree(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Minute, Increment: 3 * time.Second, Delay: timecontrol.Bronstein})
	if c.DelayRemainingMs(First) != 3000 {
		t.Fatalf("initial delay = %d", c.DelayRemainingMs(First))
	}
	c.OnStartRequested()
	res := move(c, f, First, time.Second)
	if c.RemainingMs(First) != 60_000 {
		t.Fatalf("white remaining after short move = %d", c.RemainingMs(First))
	}
	if c.DelayRemainingMs(First) != 3000 {
		t.Fatalf("delay not re-armed: %d", c.DelayRemainingMs(First))
	}
	if res.NextTick != 100*time.Millisecond {
		t.Fatalf("next tick inside delay = %v", res.NextTick)
	}
	move(c, f, Second, 5*time.Second)
	if c.RemainingMs(Second) != 58_000 {
		t.Fatalf("black remaining after long move = %d", c.RemainingMs(Second))
	}
}

func TestTournamentBonusOncePerSide(t *testing.T) {
	cfg := timecontrol.Config{
		Initial:    time.Minute,
		Delay:      timecontrol.Fischer,
		Tournament: &timecontrol.Tournament{Phase1Moves: 2, Phase2Bonus: 10 * time.Second},
	}
	c, f := newGame(t, cfg)
	c.OnStartRequested()
	move(c, f, First, time.Second)
	move(c, f, Second, time.Second)
	move(c, f, First, time.Second)
	if c.RemainingMs(First) != 68_000 {
		t.Fatalf("white after move 2 = %d, want 68000", c.RemainingMs(First))
	}
	move(c, f, Second, time.Second)
	if c.RemainingMs(Second) != 68_000 {
		t.Fatalf("black after move 2 = %d, want 68000", c.RemainingMs(Second))
	}

	f.Advance(time.Second)
	c.OnPauseToggle()
	f.Advance(time.Hour)
	c.OnPauseToggle()
	move(c, f, First, 0)
	if c.RemainingMs(First) != 67_000 {
		t.Fatalf("white got a second bonus: %d", c.RemainingMs(First))
	}
}

func TestTapOnInactiveSideIsNoop(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Minute})
	c.OnStartRequested()
	f.Advance(2 * time.Second)
	c.OnTick()
	before := c.Snapshot()
	res := c.OnButtonPressed(Second)
	if res.Changed || len(res.Signals) != 0 {
		t.Fatalf("tap on inactive side changed something: %+v", res)
	}
	after := c.Snapshot()
	if before.State != after.State || before.Active != after.Active || before.Sides[0].RemainingMs != after.Sides[0].RemainingMs || before.Sides[1].RemainingMs != after.Sides[1].RemainingMs {
		t.Fatalf("state changed: %+v vs %+v", before, after)
	}
}

func TestIdleTapStartsOpponent(t *testing.T) {
	c, _ := newGame(t, timecontrol.Config{Initial: time.Minute})
	res := c.OnButtonPressed(First)
	if c.State() != Running || c.ActiveSide() != Second || !hasSignal(res, SignalMoveStarted, Second) {
		t.Fatalf("idle tap: state=%v active=%v", c.State(), c.ActiveSide())
	}
}

func TestExpiryAtZeroEndsGame(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: 2 * time.Second})
	c.OnStartRequested()
	f.Advance(2 * time.Second)
	res := c.OnTick()
	if c.State() != Done || c.Loser() != First || !hasSignal(res, SignalExpired, First) {
		t.Fatalf("expiry: state=%v loser=%v res=%+v", c.State(), c.Loser(), res)
	}
	if res.NextTick != 0 {
		t.Fatalf("expired game asked for another tick: %v", res.NextTick)
	}
	f.Advance(time.Second)
	if late := c.Tick(res.Generation); late.Changed {
		t.Fatalf("tick after Done changed state")
	}
	if c.RemainingMs(First) != 0 {
		t.Fatalf("remaining = %d", c.RemainingMs(First))
	}
	if res := c.OnButtonPressed(First); res.Changed {
		t.Fatalf("tap while Done accepted")
	}
}

func TestLatePressFlagsExpiredPlayer(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: 2 * time.Second, Increment: 5 * time.Second})
	c.OnStartRequested()
	res := move(c, f, First, 2500*time.Millisecond)
	if c.State() != Done || c.Loser() != First {
		t.Fatalf("late press: state=%v loser=%v", c.State(), c.Loser())
	}
	if !hasSignal(res, SignalExpired, First) || hasSignal(res, SignalMoveStarted, Second) {
		t.Fatalf("signals = %+v", res.Signals)
	}
	if c.RemainingMs(First) != 0 {
		t.Fatalf("remaining = %d", c.RemainingMs(First))
	}
}

func TestTimeExceededOncePerGame(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Second, AllowNegative: true})
	c.OnStartRequested()
	f.Advance(1500 * time.Millisecond)
	res := c.OnTick()
	if !hasSignal(res, SignalTimeExceeded, First) || c.State() != Running {
		t.Fatalf("first crossing: state=%v res=%+v", c.State(), res)
	}
	if res.NextTick != time.Second {
		t.Fatalf("negative cadence = %v", res.NextTick)
	}
	f.Advance(time.Second)
	if res := c.OnTick(); len(res.Signals) != 0 {
		t.Fatalf("repeat signal: %+v", res.Signals)
	}
	move(c, f, First, 0)
	f.Advance(1500 * time.Millisecond)
	if res := c.OnTick(); len(res.Signals) != 0 {
		t.Fatalf("second side crossing signalled again: %+v", res.Signals)
	}
	if c.RemainingMs(Second) != -500 || c.RemainingMs(First) != -1500 {
		t.Fatalf("negative remaining = %d/%d", c.RemainingMs(First), c.RemainingMs(Second))
	}
}

func TestNegativeTimeQuietAtExactlyZero(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Second, AllowNegative: true})
	c.OnStartRequested()
	res := move(c, f, First, time.Second)
	if hasSignal(res, SignalTimeExceeded, First) || c.TimeExceeded() || c.RemainingMs(First) != 0 {
		t.Fatalf("press at zero: exceeded=%v res=%+v", c.TimeExceeded(), res)
	}
}

func TestEmptyClockExpiresOnStart(t *testing.T) {
	c, _ := newGame(t, timecontrol.Config{})
	res := c.OnStartRequested()
	if c.State() != Done || c.Loser() != First || !hasSignal(res, SignalExpired, First) || res.NextTick != 0 {
		t.Fatalf("start with no time: state=%v loser=%v res=%+v", c.State(), c.Loser(), res)
	}
}

func TestClockAdjustedToZeroExpiresOnResume(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Minute})
	c.OnStartRequested()
	f.Advance(time.Second)
	c.OnPauseToggle()
	c.AdjustTime(First, -2*time.Minute)
	if c.RemainingMs(First) != 0 {
		t.Fatalf("adjust did not clamp: %d", c.RemainingMs(First))
	}
	res := c.OnPauseToggle()
	if c.State() != Done || !hasSignal(res, SignalExpired, First) {
		t.Fatalf("resume with no time: state=%v res=%+v", c.State(), res)
	}

	// an Idle tap hands the move to an empty clock
	c2, _ := newGame(t, timecontrol.Config{Initial: time.Minute})
	c2.AdjustTime(Second, -2*time.Minute)
	res = c2.OnButtonPressed(First)
	if c2.State() != Done || c2.Loser() != Second || !hasSignal(res, SignalExpired, Second) {
		t.Fatalf("tap onto empty clock: state=%v res=%+v", c2.State(), res)
	}
}

func TestStaleTickIgnored(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Minute})
	first := c.OnStartRequested()
	c.OnPauseToggle()
	resumed := c.OnPauseToggle()
	if resumed.Generation == first.Generation {
		t.Fatalf("generation reused across pause")
	}
	f.Advance(5 * time.Second)
	if res := c.Tick(first.Generation); res.Changed {
		t.Fatalf("stale tick accepted")
	}
	if c.RemainingMs(First) != 60_000 {
		t.Fatalf("stale tick charged the clock")
	}
	if res := c.Tick(resumed.Generation); !res.Changed || c.RemainingMs(First) != 55_000 {
		t.Fatalf("current tick rejected: %+v remaining=%d", res, c.RemainingMs(First))
	}
}

func TestPauseResume(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Minute})
	c.OnStartRequested()
	f.Advance(4 * time.Second)
	res := c.OnPauseToggle()
	if c.State() != Paused || c.ActiveSide() != First || res.NextTick != 0 {
		t.Fatalf("pause: state=%v active=%v next=%v", c.State(), c.ActiveSide(), res.NextTick)
	}
	if c.RemainingMs(First) != 56_000 {
		t.Fatalf("pause accounting = %d", c.RemainingMs(First))
	}
	f.Advance(time.Minute)
	if res := c.OnButtonPressed(First); res.Changed {
		t.Fatalf("button while paused accepted")
	}
	res = c.OnPauseToggle()
	if c.State() != Running || res.NextTick != time.Second {
		t.Fatalf("resume: state=%v next=%v", c.State(), res.NextTick)
	}
	if c.RemainingMs(First) != 56_000 {
		t.Fatalf("paused time was charged: %d", c.RemainingMs(First))
	}
}

func TestResetRebuildsFromConfig(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Minute})
	c.OnStartRequested()
	move(c, f, First, time.Second)
	if res := c.OnResetConfirmed(nil); res.Changed || c.State() != Running {
		t.Fatalf("reset accepted while running")
	}
	c.OnPauseToggle()
	next := timecontrol.Config{Initial: 5 * time.Minute, Increment: 3 * time.Second}
	res := c.OnResetConfirmed(&next)
	if !res.Changed || c.State() != Idle || c.ActiveSide() != NoSide {
		t.Fatalf("reset: state=%v active=%v", c.State(), c.ActiveSide())
	}
	for _, s := range []Side{First, Second} {
		if c.RemainingMs(s) != 300_000 || c.MoveNumber(s) != 1 || len(c.MoveTimes(s)) != 0 {
			t.Fatalf("%v not rebuilt: %d move=%d", s, c.RemainingMs(s), c.MoveNumber(s))
		}
	}
	if c.Config().Increment != 3*time.Second {
		t.Fatalf("config not replaced: %+v", c.Config())
	}
}

func TestAdjustOnlyWhenStopped(t *testing.T) {
	c, f := newGame(t, timecontrol.Config{Initial: time.Minute})
	if res := c.AdjustTime(First, 30*time.Second); !res.Changed || c.RemainingMs(First) != 90_000 {
		t.Fatalf("idle adjust: %d", c.RemainingMs(First))
	}
	c.OnStartRequested()
	if res := c.AdjustTime(Second, time.Second); res.Changed {
		t.Fatalf("adjust accepted while running")
	}
	f.Advance(time.Second)
	c.OnPauseToggle()
	c.AdjustTime(Second, -2*time.Minute)
	if c.RemainingMs(Second) != 0 {
		t.Fatalf("adjust below zero not clamped: %d", c.RemainingMs(Second))
	}
	if c.TimeGap(First) != 89*time.Second {
		t.Fatalf("time gap = %v", c.TimeGap(First))
	}
}

func TestRejectedEventsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, _ := newGame(t, timecontrol.Config{Initial: time.Minute}, WithLogger(zap.New(core)))
	c.OnPauseToggle()
	if n := logs.FilterMessage("clock_transition_rejected").Len(); n != 1 {
		t.Fatalf("rejected log entries = %d", n)
	}
	c.OnStartRequested()
	if n := logs.FilterMessage("clock_transition").Len(); n != 1 {
		t.Fatalf("transition log entries = %d", n)
	}
}

func TestWithFirstSide(t *testing.T) {
	c, _ := newGame(t, timecontrol.Config{Initial: time.Minute}, WithFirstSide(Second))
	c.OnStartRequested()
	if c.ActiveSide() != Second {
		t.Fatalf("active = %v", c.ActiveSide())
	}
}
