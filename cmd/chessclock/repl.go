package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-clock/internal/adapter/clockpresenter"
	"github.com/park285/cheese-clock/internal/clockbuilder"
	"github.com/park285/cheese-clock/internal/clockfeed"
	svcclock "github.com/park285/cheese-clock/internal/service/clock"
	"github.com/park285/cheese-clock/pkg/clockdto"
)

// repl owns one current game and reads commands line by line.
type repl struct {
	svc       *svcclock.Service
	presenter *clockpresenter.Presenter
	format    *clockpresenter.Formatter
	feed      *clockfeed.Feed
	opts      options
	in        io.Reader

	outMu sync.Mutex
	out   io.Writer

	current string
}

func newREPL(deps *clockbuilder.Deps, opts options, in io.Reader, out io.Writer) *repl {
	r := &repl{svc: deps.Service, feed: deps.Feed, opts: opts, in: in, out: out}
	r.format = clockpresenter.NewFormatter(deps.Messages)
	r.presenter = clockpresenter.NewPresenter(r.format, r.println)
	// timer-driven flag falls arrive between commands
	r.svc.OnSignal(func(id string, sig clockdto.SignalInfo) {
		if sig.Kind != "time_exceeded" && sig.Kind != "expired" {
			return
		}
		_ = r.presenter.Signal(sig)
	})
	return r
}

func (r *repl) println(message string) error {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, err := fmt.Fprintln(r.out, message)
	return err
}

func (r *repl) loop() error {
	ctx := context.Background()
	if err := r.open(ctx); err != nil {
		return err
	}
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := r.handle(ctx, line)
		if err != nil {
			_ = r.presenter.Error(svcclock.MapError(err))
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (r *repl) open(ctx context.Context) error {
	var (
		st  *clockdto.SessionState
		err error
	)
	if path := strings.TrimSpace(r.opts.restore); path != "" {
		st, err = r.svc.ResumeFile(path)
		if err != nil {
			return fmt.Errorf("restore %s: %w", path, err)
		}
		_ = r.presenter.Text("prompt.resumed", map[string]any{"ID": st.GameUUID, "State": st.State})
	} else {
		st, err = r.newGame(ctx, "")
		if err != nil {
			return err
		}
	}
	r.current = st.GameUUID
	_ = r.println(r.format.Welcome(st.TimeControl))
	return r.presenter.Status(st)
}

func (r *repl) newGame(ctx context.Context, shorthand string) (*clockdto.SessionState, error) {
	if shorthand == "" {
		shorthand = r.opts.time
	}
	return r.svc.NewGame(ctx, clockdto.NewGameRequest{
		Preset:        r.opts.preset,
		TimeControl:   shorthand,
		Delay:         r.opts.delay,
		AllowNegative: r.opts.negative,
		Notation:      r.opts.notation,
	})
}

func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		return false, r.println(r.format.Welcome(""))
	case "tap", "press", "t":
		if len(args) == 0 {
			return false, fmt.Errorf("%w: missing side", svcclock.ErrInvalidSide)
		}
		req := clockdto.PressRequest{GameUUID: r.current, Side: args[0]}
		if len(args) > 1 {
			req.Move = args[1]
		}
		sum, err := r.svc.Press(ctx, req)
		if err != nil {
			return false, err
		}
		return false, r.presenter.Press(sum)
	case "start":
		return false, r.show(r.svc.Start(ctx, r.current))
	case "pause", "p":
		return false, r.show(r.svc.PauseToggle(ctx, r.current))
	case "status", "s":
		return false, r.show(r.svc.Status(ctx, r.current))
	case "reset":
		req := clockdto.ResetRequest{GameUUID: r.current}
		if len(args) > 0 {
			req.TimeControl = args[0]
		}
		st, err := r.svc.Reset(ctx, req)
		if err != nil {
			return false, err
		}
		if st.State == "idle" {
			_ = r.presenter.Text("prompt.reset_confirm", map[string]any{"TimeControl": st.TimeControl})
		}
		return false, r.presenter.Status(st)
	case "new":
		shorthand := ""
		if len(args) > 0 {
			shorthand = args[0]
		}
		st, err := r.newGame(ctx, shorthand)
		if err != nil {
			return false, err
		}
		r.current = st.GameUUID
		return false, r.presenter.Status(st)
	case "adjust":
		if len(args) != 2 {
			return false, r.println("usage: adjust <side> <seconds>")
		}
		secs, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return false, fmt.Errorf("bad seconds %q: %w", args[1], err)
		}
		return false, r.show(r.svc.Adjust(ctx, clockdto.AdjustRequest{
			GameUUID: r.current,
			Side:     args[0],
			DeltaMs:  int64(secs * float64(time.Second/time.Millisecond)),
		}))
	case "save":
		if len(args) > 0 {
			if err := r.svc.SaveFile(r.current, args[0]); err != nil {
				return false, err
			}
			return false, r.presenter.Text("prompt.saved", map[string]any{"ID": args[0]})
		}
		if err := r.svc.Save(ctx, r.current); err != nil {
			return false, err
		}
		return false, r.presenter.Text("prompt.saved", map[string]any{"ID": r.current})
	case "load":
		if len(args) == 0 {
			return false, r.println("usage: load <id|file>")
		}
		st, err := r.load(ctx, args[0])
		if err != nil {
			return false, err
		}
		r.current = st.GameUUID
		_ = r.presenter.Text("prompt.resumed", map[string]any{"ID": st.GameUUID, "State": st.State})
		return false, r.presenter.Status(st)
	case "history", "h":
		limit := 0
		if len(args) > 0 {
			limit, _ = strconv.Atoi(args[0])
		}
		records, err := r.svc.History(ctx, limit)
		if err != nil {
			return false, err
		}
		return false, r.presenter.History(records)
	case "events", "e":
		if r.feed == nil {
			return false, r.presenter.Text("events.unavailable", nil)
		}
		limit := 0
		if len(args) > 0 {
			limit, _ = strconv.Atoi(args[0])
		}
		events, err := r.feed.Recent(ctx, r.current, limit)
		if err != nil {
			return false, err
		}
		out := make([]clockdto.FeedEvent, 0, len(events))
		for _, ev := range events {
			out = append(out, clockdto.FeedEvent{Kind: ev.Kind, Side: ev.Side, At: ev.At})
		}
		return false, r.presenter.Events(out)
	default:
		return false, r.presenter.Text("error.unknown_command", map[string]any{"Command": cmd})
	}
}

func (r *repl) load(ctx context.Context, target string) (*clockdto.SessionState, error) {
	if _, err := os.Stat(target); err == nil {
		return r.svc.ResumeFile(target)
	}
	return r.svc.Resume(ctx, target)
}

func (r *repl) show(st *clockdto.SessionState, err error) error {
	if err != nil {
		return err
	}
	return r.presenter.Status(st)
}
