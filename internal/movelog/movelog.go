// Package movelog records the chess moves played alongside a clock and
// renders them as PGN with per-move clock annotations.
package movelog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrEmptyMove   = errors.New("empty move")
	ErrIllegalMove = errors.New("illegal move")
	ErrGameOver    = errors.New("game already decided on the board")
)

// Entry is one half-move. Clock is the mover's remaining time after the
// move's increment was applied.
type Entry struct {
	SAN   string        `json:"san"`
	UCI   string        `json:"uci"`
	White bool          `json:"white"`
	Clock time.Duration `json:"clock"`
}

// Log validates moves against the rules of chess.
type Log struct {
	game    *nchess.Game
	entries []Entry
}

func New() *Log {
	return &Log{game: nchess.NewGame()}
}

// Replay rebuilds a log from UCI moves; clocks are left zero.
func Replay(uci []string) (*Log, error) {
	l := New()
	for i, mv := range uci {
		if _, err := l.Play(mv, 0); err != nil {
			return nil, fmt.Errorf("move %d %q: %w", i+1, mv, err)
		}
	}
	return l, nil
}

// Play applies raw (UCI preferred, SAN fallback) for the side to move.
func (l *Log) Play(raw string, clock time.Duration) (Entry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entry{}, ErrEmptyMove
	}
	if l.game.Outcome() != nchess.NoOutcome {
		return Entry{}, ErrGameOver
	}
	pos := l.game.Position()
	white := pos.Turn() == nchess.White

	if err := l.game.PushNotationMove(strings.ToLower(raw), nchess.UCINotation{}, nil); err != nil {
		if err := l.game.PushNotationMove(raw, nchess.AlgebraicNotation{}, nil); err != nil {
			return Entry{}, fmt.Errorf("%w: %s", ErrIllegalMove, raw)
		}
	}
	moves := l.game.Moves()
	if len(moves) == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrIllegalMove, raw)
	}
	last := moves[len(moves)-1]
	e := Entry{
		SAN:   nchess.AlgebraicNotation{}.Encode(pos, last),
		UCI:   last.String(),
		White: white,
		Clock: clock,
	}
	l.entries = append(l.entries, e)
	return e, nil
}

// StampClock sets the clock annotation of the latest move.
func (l *Log) StampClock(d time.Duration) {
	if n := len(l.entries); n > 0 {
		l.entries[n-1].Clock = d
	}
}

// WhiteToMove reports whose turn it is on the board.
func (l *Log) WhiteToMove() bool {
	return l.game.Position().Turn() == nchess.White
}

func (l *Log) Len() int    { return len(l.entries) }
func (l *Log) FEN() string { return l.game.FEN() }

func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Log) SAN() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.SAN
	}
	return out
}

func (l *Log) UCI() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.UCI
	}
	return out
}

// Outcome is "white", "black", "draw" or "" while the board game is open.
func (l *Log) Outcome() string {
	switch l.game.Outcome() {
	case nchess.WhiteWon:
		return "white"
	case nchess.BlackWon:
		return "black"
	case nchess.Draw:
		return "draw"
	default:
		return ""
	}
}
