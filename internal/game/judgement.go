package game

import (
	"time"

	"git.lost.host/meutraa/fourk/internal/graphics"
)

// Judgement is a display tier for a timing error, not part of scoring.
// Scoring is the continuous 0-100 accuracy in the judge package.
type Judgement struct {
	Time  time.Duration
	Color graphics.Color
	Name  string
}
