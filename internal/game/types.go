package game

import (
	"strings"
	"time"

	"github.com/park285/cheese-clock/internal/timecontrol"
)

// Side indexes one of the two players. It carries no ownership.
type Side int

const (
	NoSide Side = -1
	First  Side = 0
	Second Side = 1
)

func (s Side) Valid() bool { return s == First || s == Second }

// Other returns the opponent, or NoSide for an invalid side.
func (s Side) Other() Side {
	switch s {
	case First:
		return Second
	case Second:
		return First
	default:
		return NoSide
	}
}

func (s Side) String() string {
	switch s {
	case First:
		return "white"
	case Second:
		return "black"
	default:
		return "none"
	}
}

// ParseSide accepts white/black, w/b, 1/2 and first/second.
func ParseSide(v string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "white", "w", "1", "first":
		return First, true
	case "black", "b", "2", "second":
		return Second, true
	default:
		return NoSide, false
	}
}

// State is the game lifecycle.
type State int

const (
	Idle State = iota
	Running
	Paused
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Done:
		return "done"
	default:
		return "idle"
	}
}

// ParseState is the inverse of State.String.
func ParseState(v string) (State, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "idle":
		return Idle, true
	case "running":
		return Running, true
	case "paused":
		return Paused, true
	case "done":
		return Done, true
	default:
		return Idle, false
	}
}

// SignalKind enumerates what the host may react to.
type SignalKind int

const (
	SignalMoveStarted SignalKind = iota
	SignalMoveFinished
	SignalTimeExceeded
	SignalExpired
)

func (k SignalKind) String() string {
	switch k {
	case SignalMoveStarted:
		return "move_started"
	case SignalMoveFinished:
		return "move_finished"
	case SignalTimeExceeded:
		return "time_exceeded"
	case SignalExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Signal is an effect raised by a transition for the host to act on.
type Signal struct {
	Kind SignalKind
	Side Side
}

// EventKind enumerates the inputs of the state machine.
type EventKind int

const (
	EventButton EventKind = iota
	EventStart
	EventPauseToggle
	EventReset
	EventTick
	EventAdjust
)

func (k EventKind) String() string {
	switch k {
	case EventButton:
		return "button"
	case EventStart:
		return "start"
	case EventPauseToggle:
		return "pause_toggle"
	case EventReset:
		return "reset"
	case EventTick:
		return "tick"
	case EventAdjust:
		return "adjust"
	default:
		return "unknown"
	}
}

// Event is one input to Dispatch. Only the fields relevant to Kind are read:
// Side for button and adjust, Config for reset (nil keeps the current one),
// Delta for adjust, Generation for tick.
type Event struct {
	Kind       EventKind
	Side       Side
	Config     *timecontrol.Config
	Delta      time.Duration
	Generation uint64
}

// Result is what a transition produced. NextTick is the delay before the
// host should deliver the next tick tagged with Generation; zero means no
// tick is wanted. A rejected event yields no signals and no tick.
type Result struct {
	Signals    []Signal
	NextTick   time.Duration
	Generation uint64
	Changed    bool
}
