// Package timecontrol holds the time-control configuration of a game and the
// rules that credit a clock when a move completes.
package timecontrol

import "time"

// Target is the part of a clock the policy may touch.
type Target interface {
	Increment(d time.Duration)
	ArmDelay(d time.Duration)
}

// Applied describes what ApplyMoveCompleted credited.
type Applied struct {
	PhaseBonus time.Duration
	Increment  time.Duration
	Delay      time.Duration
}

// ApplyMoveCompleted credits a clock whose owner just finished a move.
// moveNumber is the number of the move that side is about to play next, so
// the phase bonus lands on the transition from Phase1Moves to Phase1Moves+1.
// The clock must already be paused.
func ApplyMoveCompleted(cfg Config, moveNumber int, t Target) Applied {
	var out Applied
	if tr := cfg.Tournament; tr != nil && moveNumber == tr.Phase1Moves+1 {
		t.Increment(tr.Phase2Bonus)
		out.PhaseBonus = tr.Phase2Bonus
	}
	switch cfg.Delay {
	case Bronstein:
		t.ArmDelay(cfg.Increment)
		out.Delay = cfg.Increment
	default:
		t.Increment(cfg.Increment)
		out.Increment = cfg.Increment
	}
	return out
}

// BonusPerMove is the time a player is credited for each ordinary move.
func BonusPerMove(cfg Config) time.Duration {
	if cfg.Delay == Fischer {
		return cfg.Increment
	}
	return 0
}
