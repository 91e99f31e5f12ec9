package clock

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(ms int64) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestTickCountsDownMainTime(t *testing.T) {
	c := New(60*time.Second, 0, false)
	if !c.Start(at(0)) {
		t.Fatalf("Start on a stopped clock should succeed")
	}
	res := c.Tick(at(1000))
	if res.Event != EventNone || res.Next != SlowCadence {
		t.Fatalf("unexpected tick result: %+v", res)
	}
	if got := c.Remaining(); got != 59*time.Second {
		t.Fatalf("remaining = %v, want 59s", got)
	}
}

func TestCadenceSpeedsUpUnderTenSeconds(t *testing.T) {
	c := New(10*time.Second+500*time.Millisecond, 0, false)
	c.Start(at(0))
	if got := c.NextDelay(); got != 500*time.Millisecond {
		t.Fatalf("next delay above threshold = %v, want 500ms", got)
	}
	res := c.Tick(at(500))
	if res.Next != FastCadence {
		t.Fatalf("next delay at threshold = %v, want %v", res.Next, FastCadence)
	}
	res = c.Tick(at(10_450))
	if res.Next != 50*time.Millisecond {
		t.Fatalf("next delay near zero = %v, want 50ms", res.Next)
	}
}

func TestDelayWindowSpentBeforeMainTime(t *testing.T) {
	c := New(30*time.Second, 3*time.Second, false)
	c.Start(at(0))
	res := c.Tick(at(1000))
	if res.Event != EventNone || res.Next != FastCadence {
		t.Fatalf("unexpected tick inside delay: %+v", res)
	}
	if c.Remaining() != 30*time.Second || c.DelayRemaining() != 2*time.Second {
		t.Fatalf("remaining=%v delay=%v", c.Remaining(), c.DelayRemaining())
	}
	// one tick overshooting the window rolls the excess into main time
	res = c.Tick(at(3500))
	if res.Event != EventDelayElapsed {
		t.Fatalf("expected delay_elapsed, got %v", res.Event)
	}
	if c.DelayRemaining() != 0 || c.Remaining() != 29500*time.Millisecond {
		t.Fatalf("rollover lost time: remaining=%v delay=%v", c.Remaining(), c.DelayRemaining())
	}
	if c.MoveElapsed() != 3500*time.Millisecond {
		t.Fatalf("move elapsed = %v", c.MoveElapsed())
	}
}

func TestPauseAccountsElapsedAndInvalidatesGeneration(t *testing.T) {
	c := New(30*time.Second, 2*time.Second, false)
	c.Start(at(0))
	gen := c.Generation()
	c.Pause(at(2500))
	if c.IsRunning() {
		t.Fatalf("clock still running after Pause")
	}
	if c.Generation() == gen {
		t.Fatalf("generation unchanged after Pause")
	}
	if c.DelayRemaining() != 0 || c.Remaining() != 29500*time.Millisecond {
		t.Fatalf("pause accounting wrong: remaining=%v delay=%v", c.Remaining(), c.DelayRemaining())
	}
	// idempotent
	c.Pause(at(9000))
	if c.Remaining() != 29500*time.Millisecond {
		t.Fatalf("second Pause charged time")
	}
	if res := c.Tick(at(9500)); res != (TickResult{}) {
		t.Fatalf("tick on stopped clock should be empty, got %+v", res)
	}
}

func TestPauseInsideDelayKeepsPartialWindow(t *testing.T) {
	c := New(30*time.Second, 3*time.Second, false)
	c.Start(at(0))
	c.Pause(at(1000))
	if c.DelayRemaining() != 2*time.Second {
		t.Fatalf("delay after pause = %v, want 2s", c.DelayRemaining())
	}
	c.Start(at(50_000))
	c.Tick(at(52_000))
	if c.DelayRemaining() != 0 || c.Remaining() != 30*time.Second {
		t.Fatalf("resume did not continue the window: remaining=%v delay=%v", c.Remaining(), c.DelayRemaining())
	}
}

func TestStartTwiceIsNoop(t *testing.T) {
	c := New(time.Minute, 0, false)
	c.Start(at(0))
	gen := c.Generation()
	if c.Start(at(500)) {
		t.Fatalf("second Start should report false")
	}
	if c.Generation() != gen {
		t.Fatalf("second Start changed generation")
	}
}

func TestExpiresAtExactlyZero(t *testing.T) {
	c := New(2*time.Second, 0, false)
	c.Start(at(0))
	res := c.Tick(at(2000))
	if res.Event != EventExpired || res.Next != 0 {
		t.Fatalf("expected terminal expiry, got %+v", res)
	}
	if c.IsRunning() || !c.Expired() || c.Remaining() != 0 {
		t.Fatalf("clock state after expiry: running=%v expired=%v remaining=%v", c.IsRunning(), c.Expired(), c.Remaining())
	}
	if c.Start(at(3000)) {
		t.Fatalf("expired clock restarted")
	}
}

func TestOvershootClampsToZeroWithoutNegativeTime(t *testing.T) {
	c := New(time.Second, 0, false)
	c.Start(at(0))
	if res := c.Tick(at(1300)); res.Event != EventExpired {
		t.Fatalf("expected expiry, got %v", res.Event)
	}
	if c.Remaining() != 0 {
		t.Fatalf("remaining = %v, want 0", c.Remaining())
	}
}

func TestNegativeTimeSignalsOnce(t *testing.T) {
	c := New(time.Second, 0, true)
	c.Start(at(0))
	res := c.Tick(at(1500))
	if res.Event != EventTimeExceeded || res.Next != SlowCadence {
		t.Fatalf("first crossing: %+v", res)
	}
	res = c.Tick(at(2500))
	if res.Event != EventNone || res.Next != SlowCadence {
		t.Fatalf("second tick should be silent: %+v", res)
	}
	if c.Remaining() != -1500*time.Millisecond {
		t.Fatalf("remaining = %v", c.Remaining())
	}
	if !c.IsRunning() {
		t.Fatalf("clock stopped in negative time")
	}
}

func TestNegativeTimeSilentAtExactlyZero(t *testing.T) {
	c := New(time.Second, 0, true)
	c.Start(at(0))
	res := c.Tick(at(1000))
	if res.Event != EventNone || res.Next != FastCadence || c.Exceeded() {
		t.Fatalf("tick at zero: %+v exceeded=%v", res, c.Exceeded())
	}
	if res := c.Tick(at(1100)); res.Event != EventTimeExceeded {
		t.Fatalf("crossing below zero: %+v", res)
	}
}

func TestEmptyClockStillTicks(t *testing.T) {
	c := New(0, 0, false)
	c.Start(at(0))
	if got := c.NextDelay(); got != FastCadence {
		t.Fatalf("next delay = %v, want %v", got, FastCadence)
	}
	if res := c.Tick(at(100)); res.Event != EventExpired || c.Remaining() != 0 {
		t.Fatalf("tick: %+v remaining=%v", res, c.Remaining())
	}
}

func TestResumeMoveKeepsElapsed(t *testing.T) {
	c := New(time.Minute, 0, false)
	c.ResumeMove(4 * time.Second)
	c.Start(at(0))
	c.Pause(at(2000))
	if c.MoveElapsed() != 6*time.Second {
		t.Fatalf("move elapsed = %v", c.MoveElapsed())
	}
	c.ResumeMove(-time.Second)
	if c.MoveElapsed() != 0 {
		t.Fatalf("negative elapsed kept: %v", c.MoveElapsed())
	}
}

func TestResetClearsFlags(t *testing.T) {
	c := New(time.Second, 0, false)
	c.Start(at(0))
	c.Tick(at(1000))
	c.Reset(5*time.Second, time.Second)
	if c.Expired() || c.IsRunning() || c.Remaining() != 5*time.Second || c.DelayRemaining() != time.Second {
		t.Fatalf("reset state wrong: %+v", c)
	}
	if !c.Start(at(2000)) {
		t.Fatalf("reset clock should start")
	}
}

func TestIncrementAndArmDelay(t *testing.T) {
	c := New(10*time.Second, 0, false)
	c.Increment(5 * time.Second)
	c.Increment(-time.Second)
	if c.Remaining() != 14*time.Second {
		t.Fatalf("remaining = %v", c.Remaining())
	}
	c.ArmDelay(3 * time.Second)
	c.ArmDelay(-time.Second)
	if c.DelayRemaining() != 0 {
		t.Fatalf("negative delay should clamp to zero")
	}
}

func TestPeekDoesNotCharge(t *testing.T) {
	c := New(10*time.Second, 2*time.Second, false)
	c.Start(at(0))
	rem, delay := c.Peek(at(3000))
	if rem != 9*time.Second || delay != 0 {
		t.Fatalf("peek = %v/%v", rem, delay)
	}
	if c.Remaining() != 10*time.Second || c.DelayRemaining() != 2*time.Second {
		t.Fatalf("peek mutated the clock")
	}
}
