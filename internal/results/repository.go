// Package results stores finished-game records.
package results

import (
	"context"
	"errors"
	"time"

	"github.com/park285/cheese-clock/internal/domain"
)

var ErrDuplicateResult = errors.New("clock result already exists")

// Repository persists finished games. Lookups that find nothing return a nil
// game and a nil error.
type Repository interface {
	InsertGame(ctx context.Context, game *domain.ClockGame) (int64, error)
	RecentGames(ctx context.Context, limit int) ([]*domain.ClockGame, error)
	GetGame(ctx context.Context, id int64) (*domain.ClockGame, error)
	GetGameByUUID(ctx context.Context, gameUUID string) (*domain.ClockGame, error)
	Close() error
}

const defaultRecentLimit = 10

func durationsToMs(ds []time.Duration) []int64 {
	out := make([]int64, len(ds))
	for i, d := range ds {
		out[i] = d.Milliseconds()
	}
	return out
}

func msToDurations(ms []int64) []time.Duration {
	out := make([]time.Duration, len(ms))
	for i, v := range ms {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}
