// Package preview renders a chart to a png, lanes across, time
// falling down the image, with skipped beat ranges shaded out.
package preview

import (
	"time"

	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/theme"
	"github.com/fogleman/gg"
)

const (
	laneWidth     = 48.0
	margin        = 24.0
	pixelsPerSec  = 96.0
	noteRadius    = 10.0
	measureStroke = 1.0
)

func setColor(dc *gg.Context, t theme.Theme, denom int) {
	c := t.NoteColor(denom)
	dc.SetRGB255(int(c.R), int(c.G), int(c.B))
}

func yAt(t time.Duration) float64 {
	return margin + t.Seconds()*pixelsPerSec
}

func laneX(lane int) float64 {
	return margin + (float64(lane)+0.5)*laneWidth
}

// Render writes the chart preview to path.
func Render(c *game.Chart, th theme.Theme, path string) error {
	end := time.Duration(0)
	for _, n := range c.Notes {
		if n.Time > end {
			end = n.Time
		}
		if n.TimeEnd != game.NoEnd && n.TimeEnd > end {
			end = n.TimeEnd
		}
	}

	lanes := int(c.Difficulty.NKeys)
	width := int(2*margin + float64(lanes)*laneWidth)
	height := int(yAt(end) + margin)

	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	// Shade the never-audible ranges first so notes on the interval
	// start boundary draw over them.
	dc.SetRGBA(1, 1, 1, 0.08)
	for _, iv := range c.Skips {
		y0 := yAt(c.TimeAtBeat(iv.Start))
		y1 := yAt(c.TimeAtBeat(iv.End))
		if y1 <= y0 {
			y1 = y0 + 2
		}
		dc.DrawRectangle(margin, y0, float64(lanes)*laneWidth, y1-y0)
		dc.Fill()
	}

	dc.SetRGBA(1, 1, 1, 0.25)
	dc.SetLineWidth(measureStroke)
	for _, m := range c.Measures {
		if m.Denom != 1 {
			continue
		}
		y := yAt(m.Time)
		dc.DrawLine(margin, y, float64(width)-margin, y)
		dc.Stroke()
	}

	for _, n := range c.Notes {
		x := laneX(int(n.Index))
		y := yAt(n.Time)

		if n.IsMine {
			dc.SetRGB255(106, 106, 106)
			dc.DrawCircle(x, y, noteRadius)
			dc.Stroke()
			continue
		}

		if n.Sustained() {
			ye := yAt(n.Time) + noteRadius
			if n.TimeEnd != game.NoEnd {
				ye = yAt(n.TimeEnd)
			}
			setColor(dc, th, n.Denom)
			dc.DrawRoundedRectangle(x-noteRadius, y-noteRadius, 2*noteRadius, ye-y+2*noteRadius, noteRadius)
			dc.Stroke()
		}

		setColor(dc, th, n.Denom)
		dc.DrawCircle(x, y, noteRadius)
		dc.Fill()
	}

	return dc.SavePNG(path)
}
