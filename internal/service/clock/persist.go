package clock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/park285/cheese-clock/internal/domain"
	"github.com/park285/cheese-clock/internal/game"
	"github.com/park285/cheese-clock/internal/movelog"
	"github.com/park285/cheese-clock/internal/results"
	"github.com/park285/cheese-clock/internal/store"
	"github.com/park285/cheese-clock/pkg/clockdto"
	"go.uber.org/zap"
)

// persistRound stores the current round once. Later calls are no-ops.
func (s *Service) persistRound(ctx context.Context, sess *session) {
	var rec *domain.ClockGame
	sess.runner.Do(func(c *game.Controller) game.Result {
		if !sess.recorded {
			rec = s.recordLocked(sess, c)
		}
		return game.Result{}
	})
	if rec != nil {
		s.insert(ctx, sess, rec)
	}
}

// recordLocked builds the result row for the round and marks it recorded.
func (s *Service) recordLocked(sess *session, c *game.Controller) *domain.ClockGame {
	sess.recorded = true
	now := s.src.Now()
	started := sess.startedAt
	if started.IsZero() {
		started = now
	}
	rec := &domain.ClockGame{
		GameUUID:       sess.roundID,
		TimeControl:    c.Config().String(),
		Result:         domain.ResultUnknown,
		ResultMethod:   domain.MethodAbandoned,
		WhiteMoveTimes: c.MoveTimes(game.First),
		BlackMoveTimes: c.MoveTimes(game.Second),
		StartedAt:      started,
		EndedAt:        now,
		Duration:       now.Sub(started),
	}
	rec.WhiteMoves = len(rec.WhiteMoveTimes)
	rec.BlackMoves = len(rec.BlackMoveTimes)
	rec.WhiteRemaining, _ = c.LiveRemaining(game.First)
	rec.BlackRemaining, _ = c.LiveRemaining(game.Second)
	if c.State() == game.Done && c.Loser().Valid() {
		rec.Loser = c.Loser().String()
		rec.Result = domain.Winner(rec.Loser)
		rec.ResultMethod = domain.MethodTimeout
	}
	var entries []movelog.Entry
	if sess.moves != nil {
		rec.MovesSAN = sess.moves.SAN()
		entries = sess.moves.Entries()
	}
	if len(entries) > 0 {
		rec.PGN = movelog.PGN(movelog.Header{
			Event:       s.cfg.Event,
			Site:        s.cfg.Site,
			Date:        started,
			TimeControl: rec.TimeControl,
			Termination: rec.ResultMethod,
			Result:      rec.PGNResult(),
		}, entries)
	}
	return rec
}

func (s *Service) insert(ctx context.Context, sess *session, rec *domain.ClockGame) {
	id, err := s.repo.InsertGame(ctx, rec)
	if errors.Is(err, results.ErrDuplicateResult) {
		if existing, ferr := s.repo.GetGameByUUID(ctx, rec.GameUUID); ferr == nil && existing != nil {
			id, err = existing.ID, nil
		}
	}
	if err != nil {
		s.logger.Warn("clock_result_persist_failed", zap.String("game_id", sess.id), zap.Error(err))
		return
	}
	sess.runner.Do(func(*game.Controller) game.Result {
		if sess.roundID == rec.GameUUID {
			sess.gameID = id
		}
		return game.Result{}
	})
	s.logger.Info("clock_result_saved",
		zap.String("game_id", sess.id),
		zap.Int64("result_id", id),
		zap.String("result", rec.Result),
		zap.String("method", rec.ResultMethod),
	)
}

// Save writes the game's snapshot to the configured store under its id.
func (s *Service) Save(ctx context.Context, id string) error {
	if s.snapshots == nil {
		return ErrNoSnapshotStore
	}
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	if err := s.snapshots.Save(ctx, sess.id, s.snapshot(sess)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Resume restores id from the store, replacing any in-memory game with the
// same id. A running game comes back paused.
func (s *Service) Resume(ctx context.Context, id string) (*clockdto.SessionState, error) {
	if s.snapshots == nil {
		return nil, ErrNoSnapshotStore
	}
	id = strings.TrimSpace(id)
	snap, err := s.snapshots.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return s.restore(ctx, id, snap), nil
}

// SaveFile writes the game's snapshot to path (JSON for .json, CBOR otherwise).
func (s *Service) SaveFile(id, path string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	return store.WriteFile(path, s.snapshot(sess))
}

// snapshot tags the controller state with the round id so a restored
// round keeps its result identity.
func (s *Service) snapshot(sess *session) game.Snapshot {
	var snap game.Snapshot
	sess.runner.Do(func(c *game.Controller) game.Result {
		snap = c.Snapshot()
		snap.Round = sess.roundID
		return game.Result{}
	})
	return snap
}

// ResumeFile restores a snapshot file as a new game.
func (s *Service) ResumeFile(path string) (*clockdto.SessionState, error) {
	snap, err := store.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.restore(context.Background(), uuid.NewString(), snap), nil
}

// restore registers the snapshot as game id. The round keeps its saved id,
// and a finished round counts as recorded since its result was stored when
// the flag fell.
func (s *Service) restore(ctx context.Context, id string, snap game.Snapshot) *clockdto.SessionState {
	ctl := game.Restore(snap, game.WithTimeSource(s.src), game.WithLogger(s.logger))
	sess := s.register(id, ctl, false)
	round := strings.TrimSpace(snap.Round)
	var finished bool
	sess.runner.Do(func(c *game.Controller) game.Result {
		if round != "" {
			sess.roundID = round
		}
		finished = c.State() == game.Done
		sess.recorded = finished
		return game.Result{}
	})
	if finished && round != "" {
		if existing, err := s.repo.GetGameByUUID(ctx, round); err == nil && existing != nil {
			sess.runner.Do(func(*game.Controller) game.Result {
				if sess.roundID == round {
					sess.gameID = existing.ID
				}
				return game.Result{}
			})
		}
	}
	s.logger.Info("clock_game_resumed", zap.String("game_id", id), zap.String("state", ctl.State().String()))
	return s.status(sess)
}

// History returns the most recent finished games, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]clockdto.GameRecord, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	games, err := s.repo.RecentGames(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]clockdto.GameRecord, 0, len(games))
	for _, g := range games {
		out = append(out, clockdto.GameRecord{
			ID:           g.ID,
			GameUUID:     g.GameUUID,
			TimeControl:  g.TimeControl,
			Result:       g.Result,
			ResultMethod: g.ResultMethod,
			Loser:        g.Loser,
			WhiteMoves:   g.WhiteMoves,
			BlackMoves:   g.BlackMoves,
			MovesSAN:     g.MovesSAN,
			PGN:          g.PGN,
			StartedAt:    g.StartedAt,
			EndedAt:      g.EndedAt,
			Duration:     g.Duration,
		})
	}
	return out, nil
}
