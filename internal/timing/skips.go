package timing

import (
	"sort"
)

// Interval is a half-open (Start, End] beat range that is never
// audible. The triggering beat itself still plays.
type Interval struct {
	Start float64
	End   float64
}

// SkipIntervals finds the beat ranges deleted by warps and by
// negative-duration stops, merged into disjoint intervals. The beat
// span of a negative stop is measured on an auxiliary map with the
// negative stops coerced to zero so its time axis stays monotonic.
func SkipIntervals(bpms []BPM, stops []Stop, warps []Warp) []Interval {
	intervals := []Interval{}

	for _, w := range warps {
		if w.Length <= 0 {
			continue
		}
		intervals = append(intervals, Interval{w.Beat, w.Beat + w.Length})
	}

	negative := false
	clamped := make([]Stop, 0, len(stops))
	for _, s := range stops {
		if s.Duration < 0 {
			negative = true
			s.Duration = 0
		}
		clamped = append(clamped, s)
	}
	if negative {
		aux := Build(bpms, clamped, warps)
		for _, s := range stops {
			if s.Duration >= 0 {
				continue
			}
			t0 := aux.TimeAtBeat(s.Beat)
			end := aux.BeatAtTime(t0 - s.Duration)
			if end > s.Beat+epsilon {
				intervals = append(intervals, Interval{s.Beat, end})
			}
		}
	}

	if len(intervals) == 0 {
		return intervals
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	merged := []Interval{intervals[0]}
	for _, iv := range intervals[1:] {
		cur := &merged[len(merged)-1]
		if iv.Start <= cur.End+epsilon {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Skipped reports whether a beat falls inside any interval. The start
// boundary is exclusive, the end boundary inclusive.
func Skipped(intervals []Interval, beat float64) bool {
	for _, iv := range intervals {
		if beat > iv.Start+epsilon && beat <= iv.End+epsilon {
			return true
		}
	}
	return false
}
