// Package store persists game snapshots so a paused or finished game can be
// picked up again later.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/cheese-clock/internal/game"
)

var (
	ErrNotFound  = errors.New("snapshot not found")
	ErrInvalidID = errors.New("invalid snapshot id")
)

// Store is implemented by RedisStore and FileStore.
type Store interface {
	Save(ctx context.Context, id string, s game.Snapshot) error
	Load(ctx context.Context, id string) (game.Snapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

func cleanID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/\\:") || id == "." || id == ".." {
		return "", ErrInvalidID
	}
	return id, nil
}
