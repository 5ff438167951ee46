// Package judge owns the per-attempt note state machines. One Engine
// is built per attempt; the host serializes all calls into it from a
// single frame loop.
package judge

import (
	"errors"
	"math"
	"sort"
	"time"

	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/score"
)

// Lanes is the fixed judged layout.
const Lanes = 4

// ErrInvalidLane signals a host integration bug, not bad content.
var ErrInvalidLane = errors.New("judge: lane outside the 0..3 layout")

type Windows struct {
	TapPerfect time.Duration
	TapMiss    time.Duration

	HeadPerfect time.Duration
	HeadMiss    time.Duration

	ReleasePerfect time.Duration
	ReleaseMiss    time.Duration

	// Drop is how early a release may come before the tail, and how
	// late one may arrive after it, before the hold is lost.
	Drop time.Duration
}

func DefaultWindows() Windows {
	return Windows{
		TapPerfect:     20 * time.Millisecond,
		TapMiss:        180 * time.Millisecond,
		HeadPerfect:    40 * time.Millisecond,
		HeadMiss:       180 * time.Millisecond,
		ReleasePerfect: 60 * time.Millisecond,
		ReleaseMiss:    250 * time.Millisecond,
		Drop:           250 * time.Millisecond,
	}
}

type Config struct {
	Windows       Windows
	TapWeight     float64
	ReleaseWeight float64
	HistoryLength int
	Strict        bool
	FixedOffset   time.Duration
	LockOffset    bool
}

func DefaultConfig() Config {
	return Config{
		Windows:       DefaultWindows(),
		TapWeight:     1.0,
		ReleaseWeight: 0.5,
		HistoryLength: 20,
	}
}

// Event is one judged outcome, drained by the presentation layer.
type Event struct {
	Note     *game.Note
	Score    float64
	Weight   float64
	Error    time.Duration // signed calibrated error
	Impact   float64
	Physical time.Duration // host clock at the input, zero for timeouts
	Miss     bool
}

type Engine struct {
	cfg   Config
	chart *game.Chart

	notes         []*game.Note
	agg           *score.Aggregator
	cal           *Calibrator
	minJudgeTime  time.Duration
	firstJudgable time.Duration
	judging       bool

	inputs []game.Input
	events []Event
}

func NewEngine(cfg Config, chart *game.Chart) *Engine {
	e := &Engine{cfg: cfg, chart: chart}
	e.Reset(0)
	return e
}

// Reset rebuilds all attempt state from the chart. Notes whose time
// falls at or before the start cutoff never become judgeable.
func (e *Engine) Reset(startBeat float64) {
	e.minJudgeTime = time.Duration(math.MinInt64)
	if startBeat > 0 {
		e.minJudgeTime = e.chart.TimeAtBeat(startBeat)
	}

	notes := make([]*game.Note, 0, len(e.chart.Notes))
	for _, n := range e.chart.Notes {
		if n.IsMine {
			continue
		}
		c := *n
		c.State = game.Pending
		c.HitTime = 0
		c.ReleaseTime = 0
		if c.Time <= e.minJudgeTime {
			c.State = game.Irrelevant
		}
		notes = append(notes, &c)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Time < notes[j].Time
	})
	e.notes = notes

	e.firstJudgable = game.NoEnd
	for _, n := range notes {
		if n.State == game.Pending {
			e.firstJudgable = n.Time
			break
		}
	}

	e.agg = score.NewAggregator(e.cfg.HistoryLength)
	e.cal = NewCalibrator(e.cfg.FixedOffset, e.cfg.LockOffset)
	// On a mid-song start nothing is judged until the player's first
	// key press; a from-the-top attempt judges immediately.
	e.judging = startBeat <= 0
	e.inputs = nil
	e.events = nil
}

func (e *Engine) headWindows(n *game.Note) (perfect, miss time.Duration) {
	if n.Sustained() {
		return e.cfg.Windows.HeadPerfect, e.cfg.Windows.HeadMiss
	}
	return e.cfg.Windows.TapPerfect, e.cfg.Windows.TapMiss
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// OnKeyDown routes a key press. Before the first judgeable note it
// only feeds the calibration estimator; after that it judges the
// closest pending note in the lane.
func (e *Engine) OnKeyDown(lane int, physical, player time.Duration) error {
	if lane < 0 || lane >= Lanes {
		return ErrInvalidLane
	}
	e.judging = true
	e.inputs = append(e.inputs, game.Input{Index: lane, Time: player})

	if player < e.firstJudgable {
		e.calibrate(player)
		return nil
	}

	var closest *game.Note
	best := game.NoEnd
	for _, n := range e.notes {
		if n.State != game.Pending || int(n.Index) != lane {
			continue
		}
		d := absDuration(player - n.Time)
		if d < best {
			best = d
			closest = n
		} else if nil != closest {
			// already found the closest, and this d is > best
			break
		}
	}

	if nil != closest {
		perfect, miss := e.headWindows(closest)
		if best < miss {
			raw := player - closest.Time
			e.cal.Record(raw)
			calibrated := raw - e.cal.Offset()
			acc := Accuracy(calibrated, perfect, miss)
			e.record(closest, acc, e.cfg.TapWeight, calibrated, physical, false)
			closest.HitTime = player
			if closest.Sustained() {
				closest.State = game.Active
			} else {
				closest.State = game.Hit
			}
		}
	}

	// A wrong key rings like a wrong string on a real instrument:
	// every other lane's note near the press is judged lost.
	if e.cfg.Strict {
		for _, n := range e.notes {
			if n.State != game.Pending || int(n.Index) == lane {
				continue
			}
			_, miss := e.headWindows(n)
			if absDuration(player-n.Time) < miss {
				e.missNote(n, physical)
			}
		}
	}
	return nil
}

// OnKeyUp scores the release of the active hold in the lane, if any.
func (e *Engine) OnKeyUp(lane int, physical, player time.Duration) error {
	if lane < 0 || lane >= Lanes {
		return ErrInvalidLane
	}
	e.inputs = append(e.inputs, game.Input{Index: lane, Time: player, Release: true})

	for _, n := range e.notes {
		if n.State != game.Active || int(n.Index) != lane {
			continue
		}
		n.ReleaseTime = player

		// Letting go before the release window opens drops the hold.
		// An untailed hold has no window to open.
		if n.TimeEnd == game.NoEnd || player < n.TimeEnd-e.cfg.Windows.Drop {
			n.State = game.MissedRelease
			e.record(n, 0, e.cfg.ReleaseWeight, 0, physical, false)
			return nil
		}

		raw := player - n.TimeEnd
		calibrated := raw - e.cal.Offset()
		acc := Accuracy(calibrated, e.cfg.Windows.ReleasePerfect, e.cfg.Windows.ReleaseMiss)
		e.record(n, acc, e.cfg.ReleaseWeight, calibrated, physical, false)
		n.State = game.Hit
		return nil
	}
	return nil
}

// Tick expires overdue notes. Until the first key press of the
// attempt, overdue notes fall out silently one per call instead of
// scoring as misses, so a mid-song start is not punished.
func (e *Engine) Tick(player time.Duration) {
	for _, n := range e.notes {
		switch n.State {
		case game.Pending:
			_, miss := e.headWindows(n)
			if player-n.Time >= miss {
				if !e.judging {
					n.State = game.Irrelevant
					return
				}
				e.missNote(n, 0)
			}
		case game.Active:
			if n.TimeEnd != game.NoEnd && player-n.TimeEnd >= e.cfg.Windows.Drop {
				n.State = game.MissedRelease
				e.record(n, 0, e.cfg.ReleaseWeight, 0, 0, false)
			}
		}
	}
}

// Finish closes the attempt. A hold still active with a real tail is
// lost; an untailed hold the player kept to the end counts as
// completed.
func (e *Engine) Finish() {
	for _, n := range e.notes {
		if n.State != game.Active {
			continue
		}
		if n.TimeEnd == game.NoEnd {
			n.State = game.Hit
			e.record(n, 100, e.cfg.ReleaseWeight, 0, 0, false)
			continue
		}
		n.State = game.MissedRelease
		e.record(n, 0, e.cfg.ReleaseWeight, 0, 0, false)
	}
}

func (e *Engine) missNote(n *game.Note, physical time.Duration) {
	n.State = game.Missed
	e.agg.Miss()
	e.record(n, 0, e.cfg.TapWeight, 0, physical, true)
	if n.Sustained() {
		// The release can never be scored once the head is lost.
		e.record(n, 0, e.cfg.ReleaseWeight, 0, physical, true)
	}
}

func (e *Engine) record(
	n *game.Note,
	acc, weight float64,
	calibrated, physical time.Duration,
	miss bool,
) {
	impact := e.agg.Impact(acc, weight)
	e.agg.Record(acc, weight)
	e.events = append(e.events, Event{
		Note:     n,
		Score:    acc,
		Weight:   weight,
		Error:    calibrated,
		Impact:   impact,
		Physical: physical,
		Miss:     miss,
	})
}

// calibrate quantizes the press onto the 8th-note grid and feeds the
// error of the closer neighbour into the estimator.
func (e *Engine) calibrate(player time.Duration) {
	beat := e.chart.BeatAtTime(player)
	lower := math.Floor(beat*2) / 2
	upper := lower + 0.5

	raw := player - e.chart.TimeAtBeat(lower)
	if up := player - e.chart.TimeAtBeat(upper); absDuration(up) < absDuration(raw) {
		raw = up
	}
	e.cal.Record(raw)
}

func (e *Engine) Notes() []*game.Note {
	return e.notes
}

func (e *Engine) Accuracy() float64 {
	return e.agg.Accuracy()
}

func (e *Engine) MissCount() uint64 {
	return e.agg.MissCount()
}

func (e *Engine) Offset() time.Duration {
	return e.cal.Offset()
}

func (e *Engine) Calibrator() *Calibrator {
	return e.cal
}

func (e *Engine) RecentBaseline() float64 {
	return e.agg.RecentBaseline()
}

// Inputs is the raw input log of the attempt, for persistence.
func (e *Engine) Inputs() *[]game.Input {
	inputs := make([]game.Input, len(e.inputs))
	copy(inputs, e.inputs)
	return &inputs
}

// DrainEvents hands the judged outcomes since the last call to the
// presentation layer.
func (e *Engine) DrainEvents() []Event {
	events := e.events
	e.events = nil
	return events
}
