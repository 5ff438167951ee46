package game

import (
	"math"
	"time"
)

type Type uint8

const (
	Tap Type = iota
	Hold
	Roll
)

// State is the judging lifecycle of a note. Pending and Active are the
// only live states; the rest are terminal and never revert.
type State uint8

const (
	Pending State = iota
	Active
	Hit
	Missed
	MissedRelease
	Irrelevant
)

func (s State) Terminal() bool {
	return s != Pending && s != Active
}

// NoEnd marks a hold head that never saw a tail before the end of the
// chart. Such a hold stays Active until the attempt finishes.
const NoEnd = time.Duration(math.MaxInt64)

type Note struct {
	Index  uint8 // The chart column
	Denom  int   // The beat length, as a denominator, 4 = 1/4 beat
	Type   Type
	IsMine bool

	Beat    float64
	Time    time.Duration // The time the note should be hit
	BeatEnd float64
	TimeEnd time.Duration // The time a hold should be released, NoEnd if untailed

	// This is per-attempt state
	State       State
	HitTime     time.Duration // When the head was hit
	ReleaseTime time.Duration // When the hold was released
	Row         int           // The current row this note is rendered on, for clearing
}

func (n *Note) Sustained() bool {
	return n.Type == Hold || n.Type == Roll
}

// Input is one raw key event during an attempt, in player time.
type Input struct {
	Index   int
	Time    time.Duration
	Release bool
}
