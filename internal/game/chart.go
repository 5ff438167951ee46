package game

import (
	"time"

	"git.lost.host/meutraa/fourk/internal/timing"
)

type Chart struct {
	Notes     []*Note
	Measures  []*Measure
	NoteCount int64
	HoldCount int64
	MineCount int64

	Difficulty Difficulty

	// Offset shifts the whole timing map relative to the audio.
	// note time = Offset + Timing.TimeAtBeat(beat)
	Offset time.Duration
	Timing *timing.Map
	Skips  []timing.Interval

	activeNotes    []*Note
	startNoteIndex int
	endNoteIndex   int
}

// Active is the sliding window of notes the render loop cares about.
func (c *Chart) Active() ([]*Note, int, int) {
	return c.activeNotes, c.startNoteIndex, c.endNoteIndex
}

func (c *Chart) SetActive(start int, end int) {
	if end > len(c.Notes) {
		end = len(c.Notes)
	}
	if start > end {
		start = end
	}
	c.activeNotes = c.Notes[start:end]
	c.startNoteIndex = start
	c.endNoteIndex = end
}

// TimeAtBeat is the beat→time query in audio time.
func (c *Chart) TimeAtBeat(beat float64) time.Duration {
	return c.Offset + time.Duration(c.Timing.TimeAtBeat(beat)*float64(time.Second))
}

// BeatAtTime is the inverse query, frozen during stops.
func (c *Chart) BeatAtTime(t time.Duration) float64 {
	return c.Timing.BeatAtTime(float64(t-c.Offset) / float64(time.Second))
}
