package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarpInterval(t *testing.T) {
	skips := SkipIntervals([]BPM{{0, 120}}, nil, []Warp{{8, 4}})
	require.Len(t, skips, 1)
	assert.InDelta(t, 8.0, skips[0].Start, 1e-9)
	assert.InDelta(t, 12.0, skips[0].End, 1e-9)

	// Start exclusive, end inclusive.
	assert.False(t, Skipped(skips, 8))
	assert.True(t, Skipped(skips, 8.5))
	assert.True(t, Skipped(skips, 12))
	assert.False(t, Skipped(skips, 12.001))
}

func TestNegativeStopInterval(t *testing.T) {
	// At 120bpm a one second deletion starting at beat 4 swallows
	// two beats.
	skips := SkipIntervals([]BPM{{0, 120}}, []Stop{{4, -1}}, nil)
	require.Len(t, skips, 1)
	assert.InDelta(t, 4.0, skips[0].Start, 1e-9)
	assert.InDelta(t, 6.0, skips[0].End, 1e-9)
}

func TestNegativeStopSpansOtherStops(t *testing.T) {
	// A positive stop inside the deleted span consumes deletion time
	// without consuming beats.
	skips := SkipIntervals([]BPM{{0, 120}}, []Stop{{4, -1}, {5, 0.25}}, nil)
	require.Len(t, skips, 1)
	assert.InDelta(t, 4.0, skips[0].Start, 1e-9)
	assert.InDelta(t, 5.5, skips[0].End, 1e-9)
}

func TestPositiveStopsProduceNoSkips(t *testing.T) {
	skips := SkipIntervals([]BPM{{0, 120}}, []Stop{{4, 2}}, nil)
	assert.Empty(t, skips)
}

func TestOverlappingIntervalsMerge(t *testing.T) {
	skips := SkipIntervals([]BPM{{0, 120}}, nil, []Warp{{8, 4}, {10, 4}})
	require.Len(t, skips, 1)
	assert.InDelta(t, 8.0, skips[0].Start, 1e-9)
	assert.InDelta(t, 14.0, skips[0].End, 1e-9)
}

func TestAdjacentIntervalsMerge(t *testing.T) {
	skips := SkipIntervals([]BPM{{0, 120}}, nil, []Warp{{8, 2}, {10, 2}})
	require.Len(t, skips, 1)
	assert.InDelta(t, 8.0, skips[0].Start, 1e-9)
	assert.InDelta(t, 12.0, skips[0].End, 1e-9)
}

func TestSkipIntervalsIdempotent(t *testing.T) {
	bpms := []BPM{{0, 120}, {16, 90}}
	stops := []Stop{{4, -1}, {20, 1}}
	warps := []Warp{{8, 4}}
	a := SkipIntervals(bpms, stops, warps)
	b := SkipIntervals(bpms, stops, warps)
	assert.Equal(t, a, b)
}
