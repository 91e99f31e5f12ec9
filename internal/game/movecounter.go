package game

import "time"

// MoveCounter holds each side's move number and the time spent on every
// completed move. Numbers start at 1 and only go up.
type MoveCounter struct {
	numbers [2]int
	times   [2][]time.Duration
}

func NewMoveCounter() *MoveCounter {
	m := &MoveCounter{}
	m.Reset()
	return m
}

func (m *MoveCounter) Reset() {
	m.numbers = [2]int{1, 1}
	m.times = [2][]time.Duration{nil, nil}
}

// Advance records that side finished a move taking elapsed, at the moment
// the opponent's clock starts, and returns the number of the move side will
// play next.
func (m *MoveCounter) Advance(side Side, elapsed time.Duration) int {
	if !side.Valid() {
		return 0
	}
	m.numbers[side]++
	m.times[side] = append(m.times[side], elapsed)
	return m.numbers[side]
}

// Number is the move side is on, starting at 1.
func (m *MoveCounter) Number(side Side) int {
	if !side.Valid() {
		return 0
	}
	return m.numbers[side]
}

// Times returns a copy of side's completed move durations.
func (m *MoveCounter) Times(side Side) []time.Duration {
	if !side.Valid() {
		return nil
	}
	out := make([]time.Duration, len(m.times[side]))
	copy(out, m.times[side])
	return out
}

func (m *MoveCounter) set(side Side, number int, times []time.Duration) {
	if number < 1 {
		number = 1
	}
	m.numbers[side] = number
	m.times[side] = append([]time.Duration(nil), times...)
}
