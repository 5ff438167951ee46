package judge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/timing"
)

func chart(notes ...*game.Note) *game.Chart {
	return &game.Chart{
		Notes:  notes,
		Timing: timing.Build([]timing.BPM{{Beat: 0, Value: 120}}, nil, nil),
	}
}

func tap(lane uint8, beat float64) *game.Note {
	return &game.Note{
		Index: lane,
		Type:  game.Tap,
		Beat:  beat,
		Time:  time.Duration(beat * 0.5 * float64(time.Second)),
	}
}

func hold(lane uint8, beat, beatEnd float64) *game.Note {
	return &game.Note{
		Index:   lane,
		Type:    game.Hold,
		Beat:    beat,
		Time:    time.Duration(beat * 0.5 * float64(time.Second)),
		BeatEnd: beatEnd,
		TimeEnd: time.Duration(beatEnd * 0.5 * float64(time.Second)),
	}
}

func openHold(lane uint8, beat float64) *game.Note {
	n := hold(lane, beat, 0)
	n.TimeEnd = game.NoEnd
	return n
}

// zeroOffset pins the dynamic input offset to 0 so expected scores
// are easy to state.
func zeroOffset(cfg Config) Config {
	cfg.FixedOffset = 0
	cfg.LockOffset = true
	return cfg
}

func TestInvalidLane(t *testing.T) {
	e := NewEngine(DefaultConfig(), chart(tap(0, 4)))
	assert.ErrorIs(t, e.OnKeyDown(4, 0, 0), ErrInvalidLane)
	assert.ErrorIs(t, e.OnKeyDown(-1, 0, 0), ErrInvalidLane)
	assert.ErrorIs(t, e.OnKeyUp(7, 0, 0), ErrInvalidLane)
}

func TestExactTapHit(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(tap(0, 4)))

	require.NoError(t, e.OnKeyDown(0, 0, 2*time.Second))

	n := e.Notes()[0]
	assert.Equal(t, game.Hit, n.State)
	assert.Equal(t, 100.0, e.Accuracy())
	assert.Equal(t, uint64(0), e.MissCount())

	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 100.0, events[0].Score)
	assert.Equal(t, time.Duration(0), events[0].Error)
}

func TestTapScoreInterpolates(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	cfg.Windows.TapPerfect = 0
	cfg.Windows.TapMiss = 100 * time.Millisecond
	e := NewEngine(cfg, chart(tap(0, 4)))

	require.NoError(t, e.OnKeyDown(0, 0, 2*time.Second+50*time.Millisecond))
	assert.InDelta(t, 50.0, e.Accuracy(), 1e-9)
}

func TestMissViaTimeout(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	e := NewEngine(cfg, chart(tap(0, 4)))

	e.Tick(2*time.Second + cfg.Windows.TapMiss + time.Millisecond)

	n := e.Notes()[0]
	assert.Equal(t, game.Missed, n.State)
	assert.Equal(t, uint64(1), e.MissCount())

	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 0.0, events[0].Score)
	assert.Equal(t, cfg.TapWeight, events[0].Weight)
	assert.True(t, events[0].Miss)
	assert.Equal(t, 0.0, e.Accuracy())
}

func TestHoldMissScoresHeadAndRelease(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	e := NewEngine(cfg, chart(hold(1, 4, 8)))

	e.Tick(2*time.Second + cfg.Windows.HeadMiss)

	assert.Equal(t, game.Missed, e.Notes()[0].State)
	assert.Equal(t, uint64(1), e.MissCount())

	events := e.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, cfg.TapWeight, events[0].Weight)
	assert.Equal(t, cfg.ReleaseWeight, events[1].Weight)
}

func TestStrictCrossLanePenalty(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	cfg.Strict = true
	e := NewEngine(cfg, chart(tap(0, 4), tap(1, 4)))

	require.NoError(t, e.OnKeyDown(0, 0, 2*time.Second))

	notes := e.Notes()
	assert.Equal(t, game.Hit, notes[0].State)
	assert.Equal(t, game.Missed, notes[1].State)
	assert.Equal(t, uint64(1), e.MissCount())

	events := e.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, 100.0, events[0].Score)
	assert.Equal(t, 0.0, events[1].Score)
	assert.InDelta(t, 50.0, e.Accuracy(), 1e-9)
}

func TestStrictPenaltyOutsideWindowIsNoOp(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	cfg.Strict = true
	e := NewEngine(cfg, chart(tap(1, 8)))

	// Nothing in lane 0 and lane 1's note is a second away.
	require.NoError(t, e.OnKeyDown(0, 0, 3*time.Second))
	assert.Equal(t, game.Pending, e.Notes()[0].State)
	assert.Empty(t, e.DrainEvents())
}

func TestNonStrictWrongLaneIsNoOp(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(tap(0, 4), tap(1, 4)))

	require.NoError(t, e.OnKeyDown(0, 0, 2*time.Second))
	assert.Equal(t, game.Pending, e.Notes()[1].State)
}

func TestClosestNoteWins(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(tap(0, 4), tap(0, 4.25)))

	// 2.09s is 90ms late for beat 4 and 35ms early for beat 4.25.
	require.NoError(t, e.OnKeyDown(0, 0, 2*time.Second+90*time.Millisecond))

	notes := e.Notes()
	assert.Equal(t, game.Pending, notes[0].State)
	assert.Equal(t, game.Hit, notes[1].State)
}

func TestHoldDrop(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	e := NewEngine(cfg, chart(hold(2, 0, 4)))

	require.NoError(t, e.OnKeyDown(2, 0, 0))
	assert.Equal(t, game.Active, e.Notes()[0].State)
	e.DrainEvents()

	// Released a full second before the tail, well before the
	// release window opens.
	require.NoError(t, e.OnKeyUp(2, 0, 1*time.Second))

	n := e.Notes()[0]
	assert.Equal(t, game.MissedRelease, n.State)
	assert.Equal(t, uint64(0), e.MissCount())

	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 0.0, events[0].Score)
	assert.Equal(t, cfg.ReleaseWeight, events[0].Weight)
}

func TestHoldCompletedRelease(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(hold(2, 0, 4)))

	require.NoError(t, e.OnKeyDown(2, 0, 0))
	require.NoError(t, e.OnKeyUp(2, 0, 2*time.Second))

	n := e.Notes()[0]
	assert.Equal(t, game.Hit, n.State)
	assert.Equal(t, 100.0, e.Accuracy())
}

func TestHoldReleaseTimeout(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	e := NewEngine(cfg, chart(hold(2, 0, 4)))

	require.NoError(t, e.OnKeyDown(2, 0, 0))
	e.DrainEvents()
	e.Tick(2*time.Second + cfg.Windows.Drop)

	assert.Equal(t, game.MissedRelease, e.Notes()[0].State)
	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 0.0, events[0].Score)
}

func TestFinishCompletesUntailedHold(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	e := NewEngine(cfg, chart(openHold(3, 0)))

	require.NoError(t, e.OnKeyDown(3, 0, 0))
	e.DrainEvents()
	e.Finish()

	assert.Equal(t, game.Hit, e.Notes()[0].State)
	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 100.0, events[0].Score)
	assert.Equal(t, cfg.ReleaseWeight, events[0].Weight)
}

func TestFinishLosesTailedHold(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(hold(3, 0, 4)))

	require.NoError(t, e.OnKeyDown(3, 0, 0))
	e.Finish()
	assert.Equal(t, game.MissedRelease, e.Notes()[0].State)
}

func TestEarlyReleaseOfUntailedHoldDrops(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(openHold(3, 0)))

	require.NoError(t, e.OnKeyDown(3, 0, 0))
	require.NoError(t, e.OnKeyUp(3, 0, 1*time.Second))
	assert.Equal(t, game.MissedRelease, e.Notes()[0].State)
}

func TestMidSongStartMarksEarlierNotesIrrelevant(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(tap(0, 4), tap(1, 16)))
	e.Reset(8)

	notes := e.Notes()
	assert.Equal(t, game.Irrelevant, notes[0].State)
	assert.Equal(t, game.Pending, notes[1].State)
}

func TestMidSongStartDoesNotJudgeUntilFirstInput(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	e := NewEngine(cfg, chart(tap(0, 16), tap(1, 17)))
	e.Reset(8)

	// Both notes are long overdue but no key has been pressed, so
	// they fall out silently, one per tick.
	late := 20 * time.Second
	e.Tick(late)
	notes := e.Notes()
	assert.Equal(t, game.Irrelevant, notes[0].State)
	assert.Equal(t, game.Pending, notes[1].State)

	e.Tick(late)
	assert.Equal(t, game.Irrelevant, notes[1].State)

	assert.Empty(t, e.DrainEvents())
	assert.Equal(t, uint64(0), e.MissCount())
	assert.Equal(t, 100.0, e.Accuracy())
}

func TestMidSongJudgingStartsOnFirstInput(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	e := NewEngine(cfg, chart(tap(0, 16), tap(1, 17)))
	e.Reset(8)

	// The press hits lane 0; judging is live from here on, so lane
	// 1's note times out as a real miss.
	require.NoError(t, e.OnKeyDown(0, 0, 8*time.Second))
	e.Tick(9 * time.Second)

	assert.Equal(t, game.Missed, e.Notes()[1].State)
	assert.Equal(t, uint64(1), e.MissCount())
}

func TestResetClearsAttemptState(t *testing.T) {
	e := NewEngine(zeroOffset(DefaultConfig()), chart(tap(0, 4)))

	require.NoError(t, e.OnKeyDown(0, 0, 2*time.Second))
	require.Equal(t, game.Hit, e.Notes()[0].State)

	e.Reset(0)
	assert.Equal(t, game.Pending, e.Notes()[0].State)
	assert.Equal(t, 100.0, e.Accuracy())
	assert.Empty(t, e.DrainEvents())
	assert.Empty(t, *e.Inputs())
}

func TestMinesNeverJudgeable(t *testing.T) {
	mine := &game.Note{Index: 0, IsMine: true, Beat: 4, Time: 2 * time.Second}
	e := NewEngine(zeroOffset(DefaultConfig()), chart(mine, tap(1, 4)))
	require.Len(t, e.Notes(), 1)
	assert.Equal(t, uint8(1), e.Notes()[0].Index)
}

func TestCalibrationModeFeedsEstimator(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEngine(cfg, chart(tap(0, 16)))

	// Presses on the 8th-note grid before the first judgeable note:
	// +10ms late at beat 2, on time at beat 3.
	require.NoError(t, e.OnKeyDown(0, 0, 1*time.Second+10*time.Millisecond))
	require.NoError(t, e.OnKeyDown(0, 0, 1500*time.Millisecond))

	assert.Equal(t, game.Pending, e.Notes()[0].State)
	assert.Equal(t, 2, e.Calibrator().Count())
	assert.Equal(t, 5*time.Millisecond, e.Offset())
}

func TestCalibrationClampRejectsOutliers(t *testing.T) {
	e := NewEngine(DefaultConfig(), chart(tap(0, 16)))

	// 21ms early, outside the (-20ms, +150ms) acceptance clamp.
	require.NoError(t, e.OnKeyDown(0, 0, 1500*time.Millisecond-21*time.Millisecond))
	assert.Equal(t, 0, e.Calibrator().Count())
	assert.Equal(t, DefaultOffset, e.Offset())
}

func TestLockedOffsetNeverMoves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FixedOffset = 42 * time.Millisecond
	cfg.LockOffset = true
	e := NewEngine(cfg, chart(tap(0, 16)))

	require.NoError(t, e.OnKeyDown(0, 0, 1*time.Second+10*time.Millisecond))
	assert.Equal(t, 42*time.Millisecond, e.Offset())
}

func TestDynamicOffsetIsCumulativeMean(t *testing.T) {
	cfg := zeroOffset(DefaultConfig())
	cfg.LockOffset = false
	cfg.Windows.TapPerfect = 0
	e := NewEngine(cfg, chart(tap(0, 4), tap(0, 6), tap(0, 8)))

	require.NoError(t, e.OnKeyDown(0, 0, 2*time.Second+30*time.Millisecond))
	assert.Equal(t, 30*time.Millisecond, e.Offset())

	require.NoError(t, e.OnKeyDown(0, 0, 3*time.Second+10*time.Millisecond))
	assert.Equal(t, 20*time.Millisecond, e.Offset())

	// The third tap is judged against the updated mean: raw +20ms,
	// calibrated to 0, a perfect hit.
	require.NoError(t, e.OnKeyDown(0, 0, 4*time.Second+20*time.Millisecond))
	assert.Equal(t, 20*time.Millisecond, e.Offset())
	events := e.DrainEvents()
	require.Len(t, events, 3)
	assert.Equal(t, 100.0, events[2].Score)
	assert.Equal(t, time.Duration(0), events[2].Error)
}
