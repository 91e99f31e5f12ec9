package timecontrol

import (
	"fmt"
	"strings"
	"time"
)

// DelayType selects how the per-move increment is applied.
type DelayType string

const (
	// Fischer adds the increment to the clock as soon as a move completes.
	Fischer DelayType = "fischer"
	// Bronstein opens a grace window of the increment at the start of each move.
	Bronstein DelayType = "bronstein"
)

// ParseDelayType maps user input to a DelayType, defaulting to Fischer.
func ParseDelayType(s string) DelayType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bronstein", "delay", "b":
		return Bronstein
	default:
		return Fischer
	}
}

// Tournament is a move-count triggered phase: once Phase1Moves moves are
// completed the player receives Phase2Bonus exactly once.
type Tournament struct {
	Phase1Moves int           `json:"phase1_moves" cbor:"phase1_moves"`
	Phase2Bonus time.Duration `json:"phase2_bonus" cbor:"phase2_bonus"`
}

// Config is an immutable snapshot of time-control settings for one game.
type Config struct {
	Initial       time.Duration `json:"initial" cbor:"initial"`
	Increment     time.Duration `json:"increment" cbor:"increment"`
	Delay         DelayType     `json:"delay" cbor:"delay"`
	AllowNegative bool          `json:"allow_negative" cbor:"allow_negative"`
	Tournament    *Tournament   `json:"tournament,omitempty" cbor:"tournament,omitempty"`
}

// Normalized returns a copy with negative amounts clamped to zero and an
// unknown delay type replaced by Fischer.
func (c Config) Normalized() Config {
	out := c
	if out.Initial < 0 {
		out.Initial = 0
	}
	if out.Increment < 0 {
		out.Increment = 0
	}
	if out.Delay != Bronstein {
		out.Delay = Fischer
	}
	if c.Tournament != nil {
		t := *c.Tournament
		if t.Phase1Moves < 0 {
			t.Phase1Moves = 0
		}
		if t.Phase2Bonus < 0 {
			t.Phase2Bonus = 0
		}
		out.Tournament = &t
	}
	return out
}

// InitialDelay is the delay window a clock starts a game with.
func (c Config) InitialDelay() time.Duration {
	if c.Delay == Bronstein {
		return c.Increment
	}
	return 0
}

// IsTournament reports whether a phase bonus is configured.
func (c Config) IsTournament() bool { return c.Tournament != nil }

// String renders the control in the familiar "minutes+seconds" form, with a
// phase suffix for tournament controls.
func (c Config) String() string {
	base := fmt.Sprintf("%s+%d", minutesLabel(c.Initial), int64(c.Increment/time.Second))
	if c.Delay == Bronstein {
		base += "d"
	}
	if t := c.Tournament; t != nil {
		base = fmt.Sprintf("%d/%s,+%s", t.Phase1Moves, base, minutesLabel(t.Phase2Bonus))
	}
	return base
}

func minutesLabel(d time.Duration) string {
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d", int64(d/time.Minute))
	}
	return fmt.Sprintf("%.1f", d.Minutes())
}
