package score

import (
	"git.lost.host/meutraa/fourk/internal/game"
)

type Scorer interface {
	Init() error
	Deinit()

	// Save the state of this attempt
	Save(chart *game.Chart, attempt *Attempt)

	// Load up previous attempts for a chart section hash
	Load(sum string) []Attempt
}

// Attempt is one complete play-through of a chart.
type Attempt struct {
	ID       string
	Sum      string
	Inputs   *[]game.Input
	Rate     float64
	Accuracy float64
	OffsetMs float64
}
