package clockpresenter

import (
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-clock/pkg/clockdto"
)

func sampleState() *clockdto.SessionState {
	return &clockdto.SessionState{
		State:       "running",
		Active:      "black",
		TimeControl: "5+3",
		White:       clockdto.SideState{Side: "white", RemainingMs: 301_000, MoveNumber: 2, GapMs: 6_000},
		Black:       clockdto.SideState{Side: "black", RemainingMs: 5_400, MoveNumber: 1, GapMs: -6_000, DelayRemainingMs: 1_200},
		MovesSAN:    []string{"e4", "c5", "Nf3"},
	}
}

func TestStatusRendering(t *testing.T) {
	out := NewFormatter(nil).Status(sampleState())
	for _, want := range []string{
		"[running] 5+3",
		"  white 5:01  move 2  +6",
		"> black 5.4 (delay 1.2)  move 1  -6",
		"1. e4 c5 2. Nf3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q:\n%s", want, out)
		}
	}
}

func TestPressShowsFlagBeforeStatus(t *testing.T) {
	st := sampleState()
	st.State = "done"
	sum := &clockdto.PressSummary{
		State:   st,
		Signals: []clockdto.SignalInfo{{Kind: "move_finished", Side: "black"}, {Kind: "expired", Side: "black"}},
	}
	out := NewFormatter(nil).Press(sum)
	if !strings.HasPrefix(out, "black flagged. white wins on time\n") {
		t.Fatalf("press output:\n%s", out)
	}
	if strings.Contains(out, "black moved") {
		t.Fatalf("move signals should not be echoed:\n%s", out)
	}
}

func TestPresenterSendsText(t *testing.T) {
	var sent []string
	p := NewPresenter(nil, func(msg string) error {
		sent = append(sent, msg)
		return nil
	})
	_ = p.History(nil)
	_ = p.History([]clockdto.GameRecord{{ID: 3, EndedAt: time.Now(), TimeControl: "1+0", Result: "black", ResultMethod: "timeout", WhiteMoves: 10, BlackMoves: 9}})
	_ = p.Error(clockdto.DomainError{Code: clockdto.CodeBadSide})
	_ = p.Signal(clockdto.SignalInfo{Kind: "unknown", Side: "white"})
	if len(sent) != 3 {
		t.Fatalf("sent = %q", sent)
	}
	if sent[0] != "no finished games yet" || !strings.Contains(sent[1], "#3") || !strings.Contains(sent[1], "(19 moves)") {
		t.Fatalf("history output = %q", sent[:2])
	}
	if sent[2] != "side must be white or black" {
		t.Fatalf("error output = %q", sent[2])
	}
}

func TestEventsRendering(t *testing.T) {
	f := NewFormatter(nil)
	if got := f.Events(nil); got != "no events recorded" {
		t.Fatalf("empty events = %q", got)
	}
	at := time.Date(2026, 6, 1, 9, 30, 5, 0, time.Local)
	got := f.Events([]clockdto.FeedEvent{
		{Kind: "move_started", Side: "white", At: at},
		{Kind: "expired", Side: "white", At: at.Add(time.Minute)},
	})
	if got != "09:30:05 move_started white\n09:31:05 expired white" {
		t.Fatalf("events = %q", got)
	}
}

func TestNilPresenterIsSafe(t *testing.T) {
	var p *Presenter
	if err := p.Status(sampleState()); err != nil {
		t.Fatalf("nil presenter returned %v", err)
	}
}
