package results

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/cheese-clock/internal/domain"
)

func sampleGame(uuid string, ended time.Time) *domain.ClockGame {
	return &domain.ClockGame{
		GameUUID:       uuid,
		TimeControl:    "5+3",
		Result:         domain.ResultBlack,
		ResultMethod:   domain.MethodTimeout,
		Loser:          domain.ResultWhite,
		WhiteMoves:     2,
		BlackMoves:     1,
		WhiteMoveTimes: []time.Duration{4 * time.Second, 1500 * time.Millisecond},
		BlackMoveTimes: []time.Duration{2 * time.Second},
		WhiteRemaining: 0,
		BlackRemaining: 4*time.Minute + 58*time.Second,
		MovesSAN:       []string{"e4", "e5", "Nf3"},
		PGN:            "1. e4 e5 2. Nf3 0-1",
		StartedAt:      ended.Add(-5 * time.Minute),
		EndedAt:        ended,
		Duration:       5 * time.Minute,
	}
}

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	id1, err := repo.InsertGame(ctx, sampleGame("g-1", base))
	if err != nil {
		t.Fatalf("insert g-1: %v", err)
	}
	id2, err := repo.InsertGame(ctx, sampleGame("g-2", base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("insert g-2: %v", err)
	}
	if id1 == id2 || id1 == 0 {
		t.Fatalf("ids = %d, %d", id1, id2)
	}
	if _, err := repo.InsertGame(ctx, sampleGame("g-1", base)); !errors.Is(err, ErrDuplicateResult) {
		t.Fatalf("expected ErrDuplicateResult, got %v", err)
	}

	recent, err := repo.RecentGames(ctx, 10)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(recent) != 2 || recent[0].GameUUID != "g-2" {
		t.Fatalf("recent = %+v", recent)
	}
	if recent, _ := repo.RecentGames(ctx, 1); len(recent) != 1 {
		t.Fatalf("limit ignored: %d", len(recent))
	}

	got, err := repo.GetGame(ctx, id1)
	if err != nil || got == nil {
		t.Fatalf("GetGame: %v %v", got, err)
	}
	if got.GameUUID != "g-1" || len(got.WhiteMoveTimes) != 2 || got.WhiteMoveTimes[1] != 1500*time.Millisecond {
		t.Fatalf("game = %+v", got)
	}
	if len(got.MovesSAN) != 3 || got.MovesSAN[2] != "Nf3" {
		t.Fatalf("moves = %v", got.MovesSAN)
	}
	if got.BlackRemaining != 4*time.Minute+58*time.Second || got.Duration != 5*time.Minute {
		t.Fatalf("durations = %v %v", got.BlackRemaining, got.Duration)
	}
	if !got.EndedAt.Equal(base) {
		t.Fatalf("ended_at = %v", got.EndedAt)
	}
	if got.PGNResult() != "0-1" {
		t.Fatalf("pgn result = %s", got.PGNResult())
	}

	byUUID, err := repo.GetGameByUUID(ctx, " g-2 ")
	if err != nil || byUUID == nil || byUUID.ID != id2 {
		t.Fatalf("GetGameByUUID: %+v %v", byUUID, err)
	}
	if g, err := repo.GetGame(ctx, 9999); g != nil || err != nil {
		t.Fatalf("missing game: %+v %v", g, err)
	}
	if g, err := repo.GetGameByUUID(ctx, "nope"); g != nil || err != nil {
		t.Fatalf("missing uuid: %+v %v", g, err)
	}
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemory()
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	id, _ := repo.InsertGame(ctx, sampleGame("g", time.Now()))
	g, _ := repo.GetGame(ctx, id)
	g.MovesSAN[0] = "d4"
	again, _ := repo.GetGame(ctx, id)
	if again.MovesSAN[0] != "e4" {
		t.Fatalf("stored game mutated through returned copy")
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "db", "clock.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestSQLiteRepositoryRejectsEmptyPath(t *testing.T) {
	if _, err := NewSQLite("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestNewPostgresRequiresURL(t *testing.T) {
	if _, err := NewPostgres(""); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}
