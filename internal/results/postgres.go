package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/park285/cheese-clock/internal/domain"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS clock_games (
		id                   BIGSERIAL PRIMARY KEY,
		game_uuid            TEXT NOT NULL UNIQUE,
		time_control         TEXT NOT NULL DEFAULT '',
		result               TEXT NOT NULL DEFAULT '*',
		result_method        TEXT NOT NULL DEFAULT '',
		loser                TEXT NOT NULL DEFAULT '',
		white_moves          INTEGER NOT NULL DEFAULT 0,
		black_moves          INTEGER NOT NULL DEFAULT 0,
		white_move_times_ms  BIGINT[] NOT NULL DEFAULT '{}',
		black_move_times_ms  BIGINT[] NOT NULL DEFAULT '{}',
		white_remaining_ms   BIGINT NOT NULL DEFAULT 0,
		black_remaining_ms   BIGINT NOT NULL DEFAULT 0,
		moves_san            JSONB NOT NULL DEFAULT '[]',
		pgn                  TEXT NOT NULL DEFAULT '',
		started_at           TIMESTAMPTZ NOT NULL,
		ended_at             TIMESTAMPTZ NOT NULL,
		duration_ms          BIGINT
	);
	CREATE INDEX IF NOT EXISTS clock_games_ended_at_idx ON clock_games (ended_at DESC);`

const selectColumns = `
			id,
			game_uuid,
			time_control,
			result,
			result_method,
			loser,
			white_moves,
			black_moves,
			white_move_times_ms,
			black_move_times_ms,
			white_remaining_ms,
			black_remaining_ms,
			moves_san,
			pgn,
			started_at,
			ended_at,
			duration_ms`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgres opens databaseURL with lib/pq, pings it and ensures the schema.
func NewPostgres(databaseURL string) (*PostgresRepository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	r := NewPostgresFromDB(db)
	if err := r.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func NewPostgresFromDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create clock_games: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *PostgresRepository) InsertGame(ctx context.Context, game *domain.ClockGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil clock game payload")
	}
	movesSAN, err := json.Marshal(nonNil(game.MovesSAN))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO clock_games (
			game_uuid,
			time_control,
			result,
			result_method,
			loser,
			white_moves,
			black_moves,
			white_move_times_ms,
			black_move_times_ms,
			white_remaining_ms,
			black_remaining_ms,
			moves_san,
			pgn,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15, $16)
		ON CONFLICT (game_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.GameUUID,
		game.TimeControl,
		game.Result,
		game.ResultMethod,
		game.Loser,
		game.WhiteMoves,
		game.BlackMoves,
		pq.Array(durationsToMs(game.WhiteMoveTimes)),
		pq.Array(durationsToMs(game.BlackMoveTimes)),
		game.WhiteRemaining.Milliseconds(),
		game.BlackRemaining.Milliseconds(),
		movesSAN,
		game.PGN,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateResult
	}
	if err != nil {
		return 0, fmt.Errorf("insert clock game: %w", err)
	}
	return id.Int64, nil
}

func (r *PostgresRepository) RecentGames(ctx context.Context, limit int) ([]*domain.ClockGame, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	query := `SELECT` + selectColumns + `
		FROM clock_games
		ORDER BY ended_at DESC, id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select clock games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.ClockGame, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clock games: %w", err)
	}
	return games, nil
}

func (r *PostgresRepository) GetGame(ctx context.Context, id int64) (*domain.ClockGame, error) {
	query := `SELECT` + selectColumns + `
		FROM clock_games
		WHERE id = $1`
	g, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *PostgresRepository) GetGameByUUID(ctx context.Context, gameUUID string) (*domain.ClockGame, error) {
	query := `SELECT` + selectColumns + `
		FROM clock_games
		WHERE game_uuid = $1`
	g, err := scanGame(r.db.QueryRowContext(ctx, query, strings.TrimSpace(gameUUID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.ClockGame, error) {
	var (
		game         domain.ClockGame
		whiteTimes   pq.Int64Array
		blackTimes   pq.Int64Array
		whiteRemMS   int64
		blackRemMS   int64
		movesSANJSON []byte
		durationMS   sql.NullInt64
	)
	err := row.Scan(
		&game.ID,
		&game.GameUUID,
		&game.TimeControl,
		&game.Result,
		&game.ResultMethod,
		&game.Loser,
		&game.WhiteMoves,
		&game.BlackMoves,
		&whiteTimes,
		&blackTimes,
		&whiteRemMS,
		&blackRemMS,
		&movesSANJSON,
		&game.PGN,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan clock game: %w", err)
	}
	game.WhiteMoveTimes = msToDurations(whiteTimes)
	game.BlackMoveTimes = msToDurations(blackTimes)
	game.WhiteRemaining = time.Duration(whiteRemMS) * time.Millisecond
	game.BlackRemaining = time.Duration(blackRemMS) * time.Millisecond
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if len(movesSANJSON) > 0 {
		if err := json.Unmarshal(movesSANJSON, &game.MovesSAN); err != nil {
			return nil, fmt.Errorf("unmarshal moves_san: %w", err)
		}
	}
	return &game, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
