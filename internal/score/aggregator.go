package score

// DefaultRecentBaseline stands in for the recent weighted average
// until any event has been recorded.
const DefaultRecentBaseline = 93.0

type Event struct {
	Score  float64 // 0..100
	Weight float64
}

// Aggregator accumulates every score event of one attempt. The
// official accuracy is the weighted mean over all events; the bounded
// recent ring only feeds the visual impact signal.
type Aggregator struct {
	totalWeightedScore float64
	totalWeight        float64
	missCount          uint64

	history int
	recent  []Event
	next    int
}

func NewAggregator(history int) *Aggregator {
	return &Aggregator{history: history}
}

func (a *Aggregator) Record(score, weight float64) {
	a.totalWeightedScore += score * weight
	a.totalWeight += weight
	if a.history <= 0 {
		return
	}
	ev := Event{Score: score, Weight: weight}
	if len(a.recent) < a.history {
		a.recent = append(a.recent, ev)
		return
	}
	a.recent[a.next] = ev
	a.next = (a.next + 1) % a.history
}

func (a *Aggregator) Miss() {
	a.missCount++
}

func (a *Aggregator) MissCount() uint64 {
	return a.missCount
}

// Accuracy is the running weighted mean, 100 before the first event.
func (a *Aggregator) Accuracy() float64 {
	if a.totalWeight == 0 {
		return 100
	}
	return a.totalWeightedScore / a.totalWeight
}

// RecentBaseline is the weighted mean of the bounded recent ring.
func (a *Aggregator) RecentBaseline() float64 {
	var sum, weight float64
	for _, ev := range a.recent {
		sum += ev.Score * ev.Weight
		weight += ev.Weight
	}
	if weight == 0 {
		return DefaultRecentBaseline
	}
	return sum / weight
}

// Impact measures how hard a score lands against the recent baseline.
// Only a drop below the baseline registers; call before recording the
// event itself.
func (a *Aggregator) Impact(score, weight float64) float64 {
	impact := (a.RecentBaseline() - score) * weight
	if impact < 0 {
		return 0
	}
	return impact
}
