package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracyBeforeFirstEvent(t *testing.T) {
	a := NewAggregator(10)
	assert.Equal(t, 100.0, a.Accuracy())
}

func TestWeightedRunningAccuracy(t *testing.T) {
	a := NewAggregator(10)
	w1, w2 := 1.0, 0.5
	a.Record(100, w1)
	a.Record(0, w2)
	assert.InDelta(t, 100*w1/(w1+w2), a.Accuracy(), 1e-12)
}

func TestRecentBaselineEmpty(t *testing.T) {
	a := NewAggregator(10)
	assert.Equal(t, DefaultRecentBaseline, a.RecentBaseline())
}

func TestRecentRingBounded(t *testing.T) {
	a := NewAggregator(2)
	a.Record(0, 1)
	a.Record(0, 1)
	// The two zeros roll out of the ring; the baseline forgets them
	// but the official accuracy does not.
	a.Record(100, 1)
	a.Record(100, 1)
	assert.InDelta(t, 100.0, a.RecentBaseline(), 1e-12)
	assert.InDelta(t, 50.0, a.Accuracy(), 1e-12)
}

func TestImpactOnlyBelowBaseline(t *testing.T) {
	a := NewAggregator(10)
	a.Record(80, 1)

	assert.InDelta(t, 80.0, a.RecentBaseline(), 1e-12)
	assert.InDelta(t, 40.0, a.Impact(40, 1), 1e-12)
	assert.InDelta(t, 20.0, a.Impact(40, 0.5), 1e-12)
	assert.Equal(t, 0.0, a.Impact(100, 1))
}

func TestMissCount(t *testing.T) {
	a := NewAggregator(10)
	a.Miss()
	a.Miss()
	assert.Equal(t, uint64(2), a.MissCount())
}
