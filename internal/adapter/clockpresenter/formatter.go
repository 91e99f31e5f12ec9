package clockpresenter

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-clock/internal/msgcat"
	"github.com/park285/cheese-clock/internal/timefmt"
	"github.com/park285/cheese-clock/pkg/clockdto"
)

const (
	historyTimeLayout = "2006-01-02 15:04"
	eventTimeLayout   = "15:04:05"
)

// Formatter renders clock DTOs into terminal text using the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &Formatter{cat: cat}
}

func (f *Formatter) Welcome(timeControl string) string {
	return f.cat.RenderOr("prompt.welcome", map[string]any{"TimeControl": timeControl}, "chess clock "+timeControl)
}

func (f *Formatter) Status(state *clockdto.SessionState) string {
	if state == nil {
		return ""
	}
	stateLabel := f.cat.RenderOr("state."+state.State, nil, state.State)
	var sb strings.Builder
	sb.WriteString(f.cat.RenderOr("status.header", map[string]any{
		"State":       stateLabel,
		"TimeControl": state.TimeControl,
	}, fmt.Sprintf("[%s] %s", stateLabel, state.TimeControl)))
	for _, side := range []clockdto.SideState{state.White, state.Black} {
		sb.WriteByte('\n')
		sb.WriteString(f.side(state, side))
	}
	if state.TimeExceeded {
		sb.WriteByte('\n')
		sb.WriteString(f.cat.RenderOr("status.exceeded", nil, "time exceeded"))
	}
	if n := len(state.MovesSAN); n > 0 {
		sb.WriteByte('\n')
		sb.WriteString(formatMoves(state.MovesSAN))
	}
	return sb.String()
}

func (f *Formatter) side(state *clockdto.SessionState, side clockdto.SideState) string {
	delay := ""
	if side.DelayRemainingMs > 0 {
		delay = timefmt.Format(side.DelayRemainingMs)
	}
	data := map[string]any{
		"Active": state.Active == side.Side && state.State == "running",
		"Side":   side.Side,
		"Clock":  timefmt.Format(side.RemainingMs),
		"Delay":  delay,
		"Move":   side.MoveNumber,
		"Gap":    timefmt.FormatGap(side.GapMs),
	}
	return f.cat.RenderOr("status.side", data, fmt.Sprintf("%s %s", side.Side, timefmt.Format(side.RemainingMs)))
}

// formatMoves numbers SAN moves in pairs, e.g. "1. e4 e5 2. Nf3".
func formatMoves(san []string) string {
	var sb strings.Builder
	for i := 0; i < len(san); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf("%d. %s", i/2+1, san[i]))
		if i+1 < len(san) {
			sb.WriteString(" " + san[i+1])
		}
	}
	return sb.String()
}

// Signal renders one engine signal, or "" when the catalog has no text for
// its kind.
func (f *Formatter) Signal(sig clockdto.SignalInfo) string {
	winner := "white"
	if sig.Side == "white" {
		winner = "black"
	}
	return f.cat.RenderOr("signal."+sig.Kind, map[string]any{"Side": sig.Side, "Winner": winner}, "")
}

func (f *Formatter) Press(sum *clockdto.PressSummary) string {
	if sum == nil {
		return ""
	}
	var lines []string
	for _, sig := range sum.Signals {
		if sig.Kind == "time_exceeded" || sig.Kind == "expired" {
			if text := f.Signal(sig); text != "" {
				lines = append(lines, text)
			}
		}
	}
	lines = append(lines, f.Status(sum.State))
	return strings.Join(lines, "\n")
}

func (f *Formatter) History(records []clockdto.GameRecord) string {
	if len(records) == 0 {
		return f.cat.RenderOr("history.empty", nil, "no games")
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, f.cat.RenderOr("history.line", map[string]any{
			"ID":          r.ID,
			"EndedAt":     r.EndedAt.Local().Format(historyTimeLayout),
			"TimeControl": r.TimeControl,
			"Result":      r.Result,
			"Method":      r.ResultMethod,
			"Moves":       r.WhiteMoves + r.BlackMoves,
		}, fmt.Sprintf("#%d %s", r.ID, r.Result)))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Events(events []clockdto.FeedEvent) string {
	if len(events) == 0 {
		return f.cat.RenderOr("events.empty", nil, "no events")
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		at := ev.At.Local().Format(eventTimeLayout)
		lines = append(lines, f.cat.RenderOr("events.line", map[string]any{
			"At":   at,
			"Kind": ev.Kind,
			"Side": ev.Side,
		}, at+" "+ev.Kind))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Error(err clockdto.DomainError) string {
	switch err.Code {
	case clockdto.CodeBadSide:
		return f.cat.RenderOr("error.bad_side", nil, err.Error())
	case clockdto.CodeNotFound, clockdto.CodeIllegalMove, clockdto.CodeOutOfTurn, clockdto.CodeBadTime, clockdto.CodeNoStore:
		return err.Error()
	default:
		return f.cat.RenderOr("error.internal", nil, err.Error())
	}
}

func (f *Formatter) Text(key string, data map[string]any) string {
	return f.cat.RenderOr(key, data, key)
}
