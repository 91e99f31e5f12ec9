package movelog

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPlayUCIAndSAN(t *testing.T) {
	l := New()
	e, err := l.Play("e2e4", 5*time.Minute)
	if err != nil {
		t.Fatalf("uci: %v", err)
	}
	if e.SAN != "e4" || e.UCI != "e2e4" || !e.White {
		t.Fatalf("entry = %+v", e)
	}
	e, err = l.Play("e5", 5*time.Minute)
	if err != nil {
		t.Fatalf("san: %v", err)
	}
	if e.UCI != "e7e5" || e.White {
		t.Fatalf("entry = %+v", e)
	}
	if !l.WhiteToMove() || l.Len() != 2 {
		t.Fatalf("turn/len wrong: white=%v len=%d", l.WhiteToMove(), l.Len())
	}
}

func TestPlayRejectsIllegal(t *testing.T) {
	l := New()
	if _, err := l.Play("  ", 0); !errors.Is(err, ErrEmptyMove) {
		t.Fatalf("expected ErrEmptyMove, got %v", err)
	}
	if _, err := l.Play("e2e5", 0); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("illegal move recorded")
	}
}

func TestFoolsMateOutcome(t *testing.T) {
	l, err := Replay([]string{"f2f3", "e7e5", "g2g4", "d8h4"})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if l.Outcome() != "black" {
		t.Fatalf("outcome = %q", l.Outcome())
	}
	if _, err := l.Play("e2e4", 0); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	san := l.SAN()
	if san[3] != "Qh4#" {
		t.Fatalf("san = %v", san)
	}
}

func TestFormatClk(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                     "0:00:00",
		-3 * time.Second:                      "0:00:00",
		59*time.Second + 900*time.Millisecond: "0:00:59",
		90 * time.Minute:                      "1:30:00",
		3*time.Minute + 7*time.Second:         "0:03:07",
	}
	for in, want := range cases {
		if got := FormatClk(in); got != want {
			t.Fatalf("FormatClk(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPGNWithClockComments(t *testing.T) {
	l := New()
	_, _ = l.Play("e2e4", 4*time.Minute+58*time.Second)
	_, _ = l.Play("c7c5", 4*time.Minute+55*time.Second)
	_, _ = l.Play("Nf3", 4*time.Minute+50*time.Second)
	pgn := PGN(Header{
		Date:        time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		White:       `Al"ice`,
		TimeControl: "5+3",
		Termination: "Timeout",
		Result:      MapResult("black"),
	}, l.Entries())

	for _, want := range []string{
		`[Date "2026.04.02"]`,
		`[White "Al'ice"]`,
		`[Black "Black"]`,
		`[TimeControl "5+3"]`,
		`[Termination "timeout"]`,
		`[Result "0-1"]`,
		"1. e4 {[%clk 0:04:58]} 1... c5 {[%clk 0:04:55]} 2. Nf3 {[%clk 0:04:50]} 0-1",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("pgn missing %q:\n%s", want, pgn)
		}
	}
}

func TestMapResult(t *testing.T) {
	if MapResult(" White ") != "1-0" || MapResult("draw") != "1/2-1/2" || MapResult("") != "*" {
		t.Fatalf("unexpected mapping")
	}
}
