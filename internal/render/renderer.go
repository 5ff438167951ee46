package render

import (
	"time"

	"git.lost.host/meutraa/fourk/internal/graphics"
)

type Renderer interface {
	Init() error
	Deinit() error
	AddDecoration(row, col int, content string, frames int)
	RenderLoop(delay, framePeriod time.Duration, render func(now time.Time, duration time.Duration) bool)
	Fill(row, column int, message string)
	FillColor(row, column int, color graphics.Color, message string)
}
