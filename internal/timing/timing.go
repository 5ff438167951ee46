// Package timing builds the beat↔time mapping for a chart from its
// tempo events. A built Map is immutable and safe to share.
package timing

import (
	"math"
	"sort"
)

// epsilon absorbs float error from repeated beat/time conversions.
const epsilon = 1e-9

type BPM struct {
	Beat  float64
	Value float64 // beats per minute from Beat onward
}

type Stop struct {
	Beat     float64
	Duration float64 // seconds, negative deletes a span of time
}

type Warp struct {
	Beat   float64
	Length float64 // beats skipped at constant time
}

// Segment anchors a linear stretch of the mapping. Between consecutive
// segments time advances at the first segment's bpm. A stop shows up as
// two segments at the same beat (time plateau), a warp as two segments
// at the same time (beat jump).
type Segment struct {
	Beat float64
	Time float64
	Bpm  float64
}

type Map struct {
	segments []Segment
}

const (
	kindBPM = iota
	kindStop
	kindWarp
)

type event struct {
	beat  float64
	kind  int
	order int
	value float64
}

// less compares on the raw beat so the ordering is strict and total;
// epsilon tolerance belongs to the walk, not the sort. Kind breaks
// exact beat ties, input order breaks the rest.
func less(a, b event) bool {
	if a.beat != b.beat {
		return a.beat < b.beat
	}
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.order < b.order
}

// Build walks the merged event list in beat order and lays down the
// segment table. Events with a beat behind the walk cursor are dropped
// silently, content is hand-authored and often imperfect.
func Build(bpms []BPM, stops []Stop, warps []Warp) *Map {
	events := make([]event, 0, len(bpms)+len(stops)+len(warps))
	for i, b := range bpms {
		events = append(events, event{b.Beat, kindBPM, i, b.Value})
	}
	for i, s := range stops {
		events = append(events, event{s.Beat, kindStop, i, s.Duration})
	}
	for i, w := range warps {
		events = append(events, event{w.Beat, kindWarp, i, w.Length})
	}
	sort.Slice(events, func(i, j int) bool { return less(events[i], events[j]) })

	initial := 60.0
	if len(bpms) > 0 && bpms[0].Value > 0 {
		initial = bpms[0].Value
	}
	last := Segment{Beat: 0, Time: 0, Bpm: initial}
	segments := []Segment{last}

	for _, ev := range events {
		if ev.beat < last.Beat-epsilon {
			continue
		}
		beat := ev.beat
		if beat < last.Beat {
			beat = last.Beat
		}
		t := last.Time + (beat-last.Beat)*60/last.Bpm

		switch ev.kind {
		case kindBPM:
			if ev.value <= 0 {
				continue
			}
			last = Segment{beat, t, ev.value}
			segments = append(segments, last)
		case kindStop:
			if ev.value == 0 {
				continue
			}
			segments = append(segments,
				Segment{beat, t, last.Bpm},
				Segment{beat, t + ev.value, last.Bpm})
			last = Segment{beat, t + ev.value, last.Bpm}
		case kindWarp:
			if ev.value <= 0 {
				continue
			}
			segments = append(segments,
				Segment{beat, t, last.Bpm},
				Segment{beat + ev.value, t, last.Bpm})
			last = Segment{beat + ev.value, t, last.Bpm}
		}
	}

	return &Map{segments: segments}
}

func (m *Map) Segments() []Segment {
	return m.segments
}

// TimeAtBeat converts a beat position to seconds. A beat sitting
// exactly on a stop resolves to the pre-stop time, the note rings
// before the pause.
func (m *Map) TimeAtBeat(beat float64) float64 {
	i := len(m.segments) - 1
	for ; i > 0; i-- {
		if m.segments[i].Beat <= beat+epsilon {
			break
		}
	}
	if math.Abs(m.segments[i].Beat-beat) <= epsilon {
		for i > 0 && math.Abs(m.segments[i-1].Beat-beat) <= epsilon {
			i--
		}
	}
	s := m.segments[i]
	return s.Time + (beat-s.Beat)*60/s.Bpm
}

// BeatAtTime converts seconds to a beat position. Inside a stop the
// beat is frozen at the plateau; at a warp instant the post-jump beat
// wins.
func (m *Map) BeatAtTime(t float64) float64 {
	i := len(m.segments) - 1
	for ; i > 0; i-- {
		if m.segments[i].Time <= t+epsilon {
			break
		}
	}
	s := m.segments[i]
	if i+1 < len(m.segments) {
		n := m.segments[i+1]
		if math.Abs(n.Beat-s.Beat) <= epsilon && t < n.Time-epsilon {
			return s.Beat
		}
	}
	return s.Beat + (t-s.Time)*s.Bpm/60
}
