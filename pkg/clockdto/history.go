package clockdto

import "time"

type GameRecord struct {
	ID           int64
	GameUUID     string
	TimeControl  string
	Result       string
	ResultMethod string
	Loser        string
	WhiteMoves   int
	BlackMoves   int
	MovesSAN     []string
	PGN          string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// FeedEvent is one signal read back from the shared event feed.
type FeedEvent struct {
	Kind string
	Side string
	At   time.Time
}
