package clockdto

import "time"

type SideState struct {
	Side             string
	RemainingMs      int64
	DelayRemainingMs int64
	MoveNumber       int
	LastMoveMs       int64
	GapMs            int64
}

type SessionState struct {
	GameUUID     string
	State        string
	Active       string
	Loser        string
	TimeControl  string
	TimeExceeded bool
	White        SideState
	Black        SideState
	MovesSAN     []string
	BoardOutcome string
	GameID       int64
	StartedAt    time.Time
}

// Side returns the state for "white" or "black".
func (s *SessionState) Side(name string) SideState {
	if s == nil {
		return SideState{}
	}
	if name == "black" {
		return s.Black
	}
	return s.White
}
