package domain

import "time"

// ClockGame is the record kept for a finished or abandoned game.
type ClockGame struct {
	ID           int64
	GameUUID     string
	TimeControl  string
	Result       string
	ResultMethod string
	Loser        string

	WhiteMoves     int
	BlackMoves     int
	WhiteMoveTimes []time.Duration
	BlackMoveTimes []time.Duration
	WhiteRemaining time.Duration
	BlackRemaining time.Duration

	MovesSAN  []string
	PGN       string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
}

const (
	ResultWhite   = "white"
	ResultBlack   = "black"
	ResultUnknown = "*"

	MethodTimeout   = "timeout"
	MethodAbandoned = "abandoned"
)

// Winner maps a losing side name to the result token.
func Winner(loser string) string {
	switch loser {
	case ResultWhite:
		return ResultBlack
	case ResultBlack:
		return ResultWhite
	default:
		return ResultUnknown
	}
}

// PGNResult renders Result as a PGN result tag.
func (g *ClockGame) PGNResult() string {
	if g == nil {
		return "*"
	}
	switch g.Result {
	case ResultWhite:
		return "1-0"
	case ResultBlack:
		return "0-1"
	default:
		return "*"
	}
}
