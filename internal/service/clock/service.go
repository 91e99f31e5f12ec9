package clock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cheese-clock/internal/domain"
	"github.com/park285/cheese-clock/internal/game"
	"github.com/park285/cheese-clock/internal/movelog"
	"github.com/park285/cheese-clock/internal/obslog"
	"github.com/park285/cheese-clock/internal/results"
	"github.com/park285/cheese-clock/internal/runner"
	"github.com/park285/cheese-clock/internal/store"
	"github.com/park285/cheese-clock/internal/timecontrol"
	"github.com/park285/cheese-clock/internal/timesource"
	"github.com/park285/cheese-clock/pkg/clockdto"
	"go.uber.org/zap"
)

var (
	ErrGameNotFound    = errors.New("clock game not found")
	ErrInvalidSide     = errors.New("invalid side")
	ErrMoveOutOfTurn   = errors.New("move does not belong to this press")
	ErrNoSnapshotStore = errors.New("snapshot store not configured")
)

const (
	maxHistoryLimit = 50
	persistTimeout  = 5 * time.Second
)

type Config struct {
	DefaultPreset string
	HistoryLimit  int
	Event         string
	Site          string
}

// Deps are the collaborators of a Service. Presets and Results default to
// the embedded presets and an in-memory repository; Snapshots may be nil.
type Deps struct {
	Presets   *timecontrol.Presets
	Snapshots store.Store
	Results   results.Repository
	Source    timesource.Source
	Logger    *zap.Logger
}

type Service struct {
	cfg       Config
	presets   *timecontrol.Presets
	snapshots store.Store
	repo      results.Repository
	src       timesource.Source
	logger    *zap.Logger

	mu        sync.RWMutex
	games     map[string]*session
	listeners []func(id string, sig clockdto.SignalInfo)
}

// session fields below runner are only touched inside runner.Do.
type session struct {
	id     string
	runner *runner.Runner

	moves     *movelog.Log
	notation  bool
	roundID   string
	startedAt time.Time
	recorded  bool
	gameID    int64
}

func NewService(deps Deps, cfg Config) (*Service, error) {
	if deps.Presets == nil {
		p, err := timecontrol.LoadPresets("")
		if err != nil {
			return nil, err
		}
		deps.Presets = p
	}
	if deps.Results == nil {
		deps.Results = results.NewMemory()
	}
	if deps.Source == nil {
		deps.Source = timesource.Real()
	}
	if deps.Logger == nil {
		deps.Logger = obslog.L()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if strings.TrimSpace(cfg.DefaultPreset) == "" {
		cfg.DefaultPreset = "blitz"
	}
	return &Service{
		cfg:       cfg,
		presets:   deps.Presets,
		snapshots: deps.Snapshots,
		repo:      deps.Results,
		src:       deps.Source,
		logger:    deps.Logger,
		games:     make(map[string]*session),
	}, nil
}

// OnSignal registers fn for signals from every game, including those raised
// by the timer while no request is in flight.
func (s *Service) OnSignal(fn func(id string, sig clockdto.SignalInfo)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// ResolveConfig builds a time control from a request. The shorthand wins
// over the preset; Delay and AllowNegative override either.
func (s *Service) ResolveConfig(preset, shorthand, delay string, allowNegative bool) (timecontrol.Config, error) {
	if strings.TrimSpace(preset) == "" {
		preset = s.cfg.DefaultPreset
	}
	cfg, err := s.presets.Resolve(shorthand, preset)
	if err != nil {
		return timecontrol.Config{}, err
	}
	if strings.TrimSpace(delay) != "" {
		cfg.Delay = timecontrol.ParseDelayType(delay)
	}
	if allowNegative {
		cfg.AllowNegative = true
	}
	return cfg.Normalized(), nil
}

func (s *Service) NewGame(ctx context.Context, req clockdto.NewGameRequest) (*clockdto.SessionState, error) {
	cfg, err := s.ResolveConfig(req.Preset, req.TimeControl, req.Delay, req.AllowNegative)
	if err != nil {
		return nil, err
	}
	ctl := game.New(cfg, game.WithTimeSource(s.src), game.WithLogger(s.logger))
	sess := s.register(uuid.NewString(), ctl, req.Notation)
	s.logger.Info("clock_game_created", zap.String("game_id", sess.id), zap.String("time_control", cfg.String()))
	return s.status(sess), nil
}

func (s *Service) register(id string, ctl *game.Controller, notation bool) *session {
	sess := &session{id: id, notation: notation, roundID: uuid.NewString()}
	if notation {
		sess.moves = movelog.New()
	}
	sess.runner = runner.New(ctl, runner.WithTimeSource(s.src), runner.WithLogger(s.logger))
	sess.runner.OnSignal(func(sig game.Signal) { s.handleSignal(sess, sig) })

	s.mu.Lock()
	if old, ok := s.games[id]; ok {
		old.runner.Close()
	}
	s.games[id] = sess
	s.mu.Unlock()
	return sess
}

func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.games[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return sess, nil
}

func parseSide(v string) (game.Side, error) {
	side, ok := game.ParseSide(v)
	if !ok {
		return game.NoSide, fmt.Errorf("%w: %q", ErrInvalidSide, v)
	}
	return side, nil
}

// Press ends side's move. When move is set the game must have notation
// enabled, side must be the one on the move, and the move must be legal;
// otherwise nothing changes.
func (s *Service) Press(ctx context.Context, req clockdto.PressRequest) (*clockdto.PressSummary, error) {
	sess, err := s.session(req.GameUUID)
	if err != nil {
		return nil, err
	}
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}
	mv := strings.TrimSpace(req.Move)

	var (
		entry   movelog.Entry
		moveErr error
		state   *clockdto.SessionState
	)
	res := sess.runner.Do(func(c *game.Controller) game.Result {
		// a move made after the flag fell is not played
		if mv != "" && !flagFalls(c, side) {
			entry, moveErr = s.playMove(sess, c, side, mv)
			if moveErr != nil {
				return game.Result{}
			}
		}
		res := c.OnButtonPressed(side)
		if entry.SAN != "" {
			entry.Clock = c.Remaining(side)
			sess.moves.StampClock(entry.Clock)
		}
		s.markStarted(sess, c)
		state = s.stateLocked(sess, c)
		return res
	})
	if moveErr != nil {
		return nil, moveErr
	}

	summary := &clockdto.PressSummary{
		State:    state,
		Signals:  signalInfos(res.Signals),
		Accepted: res.Changed,
		MoveSAN:  entry.SAN,
		MoveUCI:  entry.UCI,
		Finished: state.State == game.Done.String(),
	}
	if summary.Finished {
		// the expiry handler has already stored the result
		summary.State.GameID = s.gameID(sess)
	}
	return summary, nil
}

// flagFalls reports whether side's press will end the game on time.
func flagFalls(c *game.Controller, side game.Side) bool {
	if c.State() != game.Running || c.ActiveSide() != side || c.Config().AllowNegative {
		return false
	}
	remaining, delay := c.LiveRemaining(side)
	return remaining <= 0 && delay <= 0
}

func (s *Service) playMove(sess *session, c *game.Controller, side game.Side, mv string) (movelog.Entry, error) {
	if !sess.notation || sess.moves == nil {
		return movelog.Entry{}, fmt.Errorf("%w: notation disabled for this game", ErrMoveOutOfTurn)
	}
	if c.State() != game.Running || c.ActiveSide() != side {
		return movelog.Entry{}, fmt.Errorf("%w: %s is not on the move", ErrMoveOutOfTurn, side)
	}
	if sess.moves.WhiteToMove() != (side == game.First) {
		return movelog.Entry{}, fmt.Errorf("%w: board expects the other colour", ErrMoveOutOfTurn)
	}
	return sess.moves.Play(mv, 0)
}

func (s *Service) markStarted(sess *session, c *game.Controller) {
	if sess.startedAt.IsZero() && c.State() == game.Running {
		sess.startedAt = s.src.Now()
	}
}

func (s *Service) Start(ctx context.Context, id string) (*clockdto.SessionState, error) {
	return s.act(id, func(sess *session, c *game.Controller) game.Result {
		res := c.OnStartRequested()
		s.markStarted(sess, c)
		return res
	})
}

func (s *Service) PauseToggle(ctx context.Context, id string) (*clockdto.SessionState, error) {
	return s.act(id, func(_ *session, c *game.Controller) game.Result { return c.OnPauseToggle() })
}

func (s *Service) Adjust(ctx context.Context, req clockdto.AdjustRequest) (*clockdto.SessionState, error) {
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}
	delta := time.Duration(req.DeltaMs) * time.Millisecond
	return s.act(req.GameUUID, func(_ *session, c *game.Controller) game.Result { return c.AdjustTime(side, delta) })
}

// Reset stores the abandoned game if any move was completed, then returns
// the clock to Idle with the requested (or current) time control. A reset
// while the clock is running is ignored.
func (s *Service) Reset(ctx context.Context, req clockdto.ResetRequest) (*clockdto.SessionState, error) {
	sess, err := s.session(req.GameUUID)
	if err != nil {
		return nil, err
	}
	var cfg *timecontrol.Config
	if strings.TrimSpace(req.Preset) != "" || strings.TrimSpace(req.TimeControl) != "" {
		resolved, err := s.ResolveConfig(req.Preset, req.TimeControl, "", false)
		if err != nil {
			return nil, err
		}
		cfg = &resolved
	}

	var pending *domain.ClockGame
	var state *clockdto.SessionState
	sess.runner.Do(func(c *game.Controller) game.Result {
		if c.State() == game.Running {
			state = s.stateLocked(sess, c)
			return game.Result{}
		}
		if !sess.recorded && completedMoves(c) > 0 {
			pending = s.recordLocked(sess, c)
		}
		res := c.OnResetConfirmed(cfg)
		if res.Changed {
			sess.roundID = uuid.NewString()
			sess.startedAt = time.Time{}
			sess.recorded = false
			sess.gameID = 0
			if sess.notation {
				sess.moves = movelog.New()
			}
		}
		state = s.stateLocked(sess, c)
		return res
	})
	if pending != nil {
		s.insert(ctx, sess, pending)
	}
	return state, nil
}

func (s *Service) Status(ctx context.Context, id string) (*clockdto.SessionState, error) {
	return s.act(id, func(*session, *game.Controller) game.Result { return game.Result{} })
}

func (s *Service) act(id string, fn func(*session, *game.Controller) game.Result) (*clockdto.SessionState, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	var state *clockdto.SessionState
	sess.runner.Do(func(c *game.Controller) game.Result {
		res := fn(sess, c)
		state = s.stateLocked(sess, c)
		return res
	})
	return state, nil
}

func (s *Service) status(sess *session) *clockdto.SessionState {
	var state *clockdto.SessionState
	sess.runner.Do(func(c *game.Controller) game.Result {
		state = s.stateLocked(sess, c)
		return game.Result{}
	})
	return state
}

// Games lists the ids of games held in memory.
func (s *Service) Games() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.games))
	for id := range s.games {
		out = append(out, id)
	}
	return out
}

// Close stops every game's timer. Stores and repositories stay open.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.games {
		sess.runner.Close()
		delete(s.games, id)
	}
	return nil
}

func (s *Service) handleSignal(sess *session, sig game.Signal) {
	info := clockdto.SignalInfo{Kind: sig.Kind.String(), Side: sig.Side.String()}
	s.mu.RLock()
	listeners := append([]func(string, clockdto.SignalInfo){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(sess.id, info)
	}
	if sig.Kind == game.SignalExpired {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		s.persistRound(ctx, sess)
	}
}

func signalInfos(sigs []game.Signal) []clockdto.SignalInfo {
	out := make([]clockdto.SignalInfo, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, clockdto.SignalInfo{Kind: sig.Kind.String(), Side: sig.Side.String()})
	}
	return out
}

func completedMoves(c *game.Controller) int {
	return len(c.MoveTimes(game.First)) + len(c.MoveTimes(game.Second))
}

func (s *Service) stateLocked(sess *session, c *game.Controller) *clockdto.SessionState {
	st := &clockdto.SessionState{
		GameUUID:     sess.id,
		State:        c.State().String(),
		Active:       sideName(c.ActiveSide()),
		Loser:        sideName(c.Loser()),
		TimeControl:  c.Config().String(),
		TimeExceeded: c.TimeExceeded(),
		GameID:       sess.gameID,
		StartedAt:    sess.startedAt,
	}
	st.White = sideState(c, game.First)
	st.Black = sideState(c, game.Second)
	if sess.moves != nil {
		st.MovesSAN = sess.moves.SAN()
		st.BoardOutcome = sess.moves.Outcome()
	}
	return st
}

func sideName(side game.Side) string {
	if !side.Valid() {
		return ""
	}
	return side.String()
}

func sideState(c *game.Controller, side game.Side) clockdto.SideState {
	rem, delay := c.LiveRemaining(side)
	other, _ := c.LiveRemaining(side.Other())
	st := clockdto.SideState{
		Side:             side.String(),
		RemainingMs:      rem.Milliseconds(),
		DelayRemainingMs: delay.Milliseconds(),
		MoveNumber:       c.MoveNumber(side),
		GapMs:            (rem - other).Milliseconds(),
	}
	if times := c.MoveTimes(side); len(times) > 0 {
		st.LastMoveMs = times[len(times)-1].Milliseconds()
	}
	return st
}

func (s *Service) gameID(sess *session) int64 {
	var id int64
	sess.runner.Do(func(*game.Controller) game.Result {
		id = sess.gameID
		return game.Result{}
	})
	return id
}
