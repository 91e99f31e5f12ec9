package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/park285/cheese-clock/internal/domain"
	"github.com/park285/cheese-clock/internal/obslog"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// gameRow is the clock_games table for the embedded SQLite backend.
type gameRow struct {
	ID               int64   `gorm:"primaryKey;autoIncrement"`
	GameUUID         string  `gorm:"uniqueIndex;not null"`
	TimeControl      string  `gorm:"not null;default:''"`
	Result           string  `gorm:"not null;default:'*'"`
	ResultMethod     string  `gorm:"not null;default:''"`
	Loser            string  `gorm:"not null;default:''"`
	WhiteMoves       int     `gorm:"not null;default:0"`
	BlackMoves       int     `gorm:"not null;default:0"`
	WhiteMoveTimesMs []int64 `gorm:"serializer:json"`
	BlackMoveTimesMs []int64 `gorm:"serializer:json"`
	WhiteRemainingMs int64
	BlackRemainingMs int64
	MovesSAN         []string `gorm:"column:moves_san;serializer:json"`
	PGN              string   `gorm:"column:pgn"`
	StartedAt        time.Time
	EndedAt          time.Time `gorm:"index"`
	DurationMs       int64
}

func (gameRow) TableName() string { return "clock_games" }

type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLite opens (or creates) the database at path with the pure Go driver.
func NewSQLite(path string) (*SQLiteRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("SQLITE_PATH is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	gormLog := logger.New(
		zap.NewStdLog(obslog.L()),
		logger.Config{
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: path}, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// PRAGMAs are per connection.
	sqlDB.SetMaxOpenConns(1)
	if err := configureSQLite(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := db.AutoMigrate(&gameRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate clock_games: %w", err)
	}
	obslog.L().Info("results_sqlite_ready", zap.String("path", path))
	return &SQLiteRepository{db: db}, nil
}

func configureSQLite(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=10000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=memory",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *SQLiteRepository) InsertGame(ctx context.Context, game *domain.ClockGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil clock game payload")
	}
	row := toRow(game)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return 0, fmt.Errorf("insert clock game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrDuplicateResult
	}
	return row.ID, nil
}

func (r *SQLiteRepository) RecentGames(ctx context.Context, limit int) ([]*domain.ClockGame, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var rows []gameRow
	err := r.db.WithContext(ctx).Order("ended_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select clock games: %w", err)
	}
	games := make([]*domain.ClockGame, 0, len(rows))
	for i := range rows {
		games = append(games, fromRow(&rows[i]))
	}
	return games, nil
}

func (r *SQLiteRepository) GetGame(ctx context.Context, id int64) (*domain.ClockGame, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *SQLiteRepository) GetGameByUUID(ctx context.Context, gameUUID string) (*domain.ClockGame, error) {
	return r.first(ctx, "game_uuid = ?", strings.TrimSpace(gameUUID))
}

func (r *SQLiteRepository) first(ctx context.Context, where string, arg any) (*domain.ClockGame, error) {
	var row gameRow
	err := r.db.WithContext(ctx).Where(where, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select clock game: %w", err)
	}
	return fromRow(&row), nil
}

func toRow(g *domain.ClockGame) gameRow {
	return gameRow{
		GameUUID:         g.GameUUID,
		TimeControl:      g.TimeControl,
		Result:           g.Result,
		ResultMethod:     g.ResultMethod,
		Loser:            g.Loser,
		WhiteMoves:       g.WhiteMoves,
		BlackMoves:       g.BlackMoves,
		WhiteMoveTimesMs: durationsToMs(g.WhiteMoveTimes),
		BlackMoveTimesMs: durationsToMs(g.BlackMoveTimes),
		WhiteRemainingMs: g.WhiteRemaining.Milliseconds(),
		BlackRemainingMs: g.BlackRemaining.Milliseconds(),
		MovesSAN:         nonNil(g.MovesSAN),
		PGN:              g.PGN,
		StartedAt:        g.StartedAt.UTC(),
		EndedAt:          g.EndedAt.UTC(),
		DurationMs:       g.Duration.Milliseconds(),
	}
}

func fromRow(r *gameRow) *domain.ClockGame {
	return &domain.ClockGame{
		ID:             r.ID,
		GameUUID:       r.GameUUID,
		TimeControl:    r.TimeControl,
		Result:         r.Result,
		ResultMethod:   r.ResultMethod,
		Loser:          r.Loser,
		WhiteMoves:     r.WhiteMoves,
		BlackMoves:     r.BlackMoves,
		WhiteMoveTimes: msToDurations(r.WhiteMoveTimesMs),
		BlackMoveTimes: msToDurations(r.BlackMoveTimesMs),
		WhiteRemaining: time.Duration(r.WhiteRemainingMs) * time.Millisecond,
		BlackRemaining: time.Duration(r.BlackRemainingMs) * time.Millisecond,
		MovesSAN:       r.MovesSAN,
		PGN:            r.PGN,
		StartedAt:      r.StartedAt,
		EndedAt:        r.EndedAt,
		Duration:       time.Duration(r.DurationMs) * time.Millisecond,
	}
}
