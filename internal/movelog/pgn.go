package movelog

import (
	"fmt"
	"strings"
	"time"
)

// Header holds the PGN tag pairs written before the movetext.
type Header struct {
	Event       string
	Site        string
	Date        time.Time
	White       string
	Black       string
	TimeControl string
	Termination string
	Result      string
}

// MapResult converts "white", "black" or "draw" to a PGN result token.
func MapResult(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

// FormatClk renders d as H:MM:SS for a [%clk] comment; negative values print as 0:00:00.
func FormatClk(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// PGN renders entries with a {[%clk H:MM:SS]} comment after every move.
func PGN(h Header, entries []Entry) string {
	var b strings.Builder
	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}
	event := h.Event
	if strings.TrimSpace(event) == "" {
		event = "Casual game"
	}
	site := h.Site
	if strings.TrimSpace(site) == "" {
		site = "?"
	}
	result := h.Result
	if result == "" {
		result = "*"
	}
	b.WriteString(fmt.Sprintf("[Event \"%s\"]\n", sanitizePGN(event)))
	b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizePGN(site)))
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizeOr(h.White, "White")))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizeOr(h.Black, "Black")))
	if strings.TrimSpace(h.TimeControl) != "" {
		b.WriteString(fmt.Sprintf("[TimeControl \"%s\"]\n", sanitizePGN(h.TimeControl)))
	}
	if strings.TrimSpace(h.Termination) != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(h.Termination))))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", result))

	for i, e := range entries {
		if i%2 == 0 {
			b.WriteString(fmt.Sprintf("%d. ", i/2+1))
		} else {
			b.WriteString(fmt.Sprintf("%d... ", i/2+1))
		}
		b.WriteString(strings.TrimSpace(e.SAN))
		b.WriteString(fmt.Sprintf(" {[%%clk %s]} ", FormatClk(e.Clock)))
	}
	b.WriteString(result)
	return b.String()
}

func sanitizeOr(s, fallback string) string {
	if v := sanitizePGN(s); v != "" {
		return v
	}
	return fallback
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
