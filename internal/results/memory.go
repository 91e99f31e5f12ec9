package results

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-clock/internal/domain"
)

// memrepo keeps results in process memory; used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID   map[int64]*domain.ClockGame
	gamesByUUID map[string]*domain.ClockGame
}

func NewMemory() Repository {
	return &memrepo{
		gamesByID:   make(map[int64]*domain.ClockGame),
		gamesByUUID: make(map[string]*domain.ClockGame),
	}
}

func (m *memrepo) InsertGame(_ context.Context, game *domain.ClockGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateResult
	}
	key := strings.TrimSpace(game.GameUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesByUUID[key]; exists {
		return 0, ErrDuplicateResult
	}
	m.nextID++
	cp := cloneGame(game)
	cp.ID = m.nextID
	m.gamesByID[cp.ID] = cp
	m.gamesByUUID[key] = cp
	return cp.ID, nil
}

func (m *memrepo) RecentGames(_ context.Context, limit int) ([]*domain.ClockGame, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	m.mu.RLock()
	items := make([]*domain.ClockGame, 0, len(m.gamesByID))
	for _, g := range m.gamesByID {
		items = append(items, cloneGame(g))
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(_ context.Context, id int64) (*domain.ClockGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesByID[id]; ok && g != nil {
		return cloneGame(g), nil
	}
	return nil, nil
}

func (m *memrepo) GetGameByUUID(_ context.Context, gameUUID string) (*domain.ClockGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesByUUID[strings.TrimSpace(gameUUID)]; ok && g != nil {
		return cloneGame(g), nil
	}
	return nil, nil
}

func (m *memrepo) Close() error { return nil }

func cloneGame(g *domain.ClockGame) *domain.ClockGame {
	cp := *g
	cp.WhiteMoveTimes = append([]time.Duration(nil), g.WhiteMoveTimes...)
	cp.BlackMoveTimes = append([]time.Duration(nil), g.BlackMoveTimes...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	return &cp
}
