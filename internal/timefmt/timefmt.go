// Package timefmt renders clock readings for display.
package timefmt

import (
	"strconv"
	"strings"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute

	// tenthsBelow is the reading under which seconds show one decimal.
	tenthsBelow = 10 * msPerSecond
)

// Format renders a signed millisecond reading.
//
//	3_665_000 -> "1:01:05"   65_000 -> "1:05"   42_000 -> "42"
//	    5_400 -> "5.4"          -500 -> "0"       -1_500 -> "-1"
//
// Sub-second digits are truncated, never rounded up, so a clock never shows
// more time than it has. The decimal separator is always ".".
func Format(ms int64) string {
	var b strings.Builder
	if ms <= -msPerSecond {
		b.WriteByte('-')
	}
	writeTime(&b, ms, true)
	return b.String()
}

// FormatGap renders the difference between two clocks: empty when the
// players are within half a second of each other, otherwise a signed reading
// in whole seconds.
func FormatGap(ms int64) string {
	if ms > -500 && ms < 500 {
		return ""
	}
	var b strings.Builder
	if ms < 0 {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	rounded := (abs(ms) + msPerSecond/2) / msPerSecond * msPerSecond
	writeTime(&b, rounded, false)
	return b.String()
}

func writeTime(b *strings.Builder, ms int64, tenths bool) {
	a := abs(ms)
	hours := a / msPerHour
	a -= hours * msPerHour
	mins := a / msPerMinute
	a -= mins * msPerMinute
	secs := a / msPerSecond
	frac := a - secs*msPerSecond

	switch {
	case hours > 0:
		b.WriteString(strconv.FormatInt(hours, 10))
		b.WriteByte(':')
		writeTwo(b, mins)
		b.WriteByte(':')
		writeTwo(b, secs)
	case mins > 0:
		b.WriteString(strconv.FormatInt(mins, 10))
		b.WriteByte(':')
		writeTwo(b, secs)
	case tenths && ms >= 0 && ms < tenthsBelow:
		b.WriteString(strconv.FormatInt(secs, 10))
		b.WriteByte('.')
		b.WriteString(strconv.FormatInt(frac/100, 10))
	case abs(ms) < tenthsBelow:
		b.WriteString(strconv.FormatInt(secs, 10))
	default:
		writeTwo(b, secs)
	}
}

func writeTwo(b *strings.Builder, n int64) {
	if n < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(n, 10))
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
