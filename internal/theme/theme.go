package theme

import "git.lost.host/meutraa/fourk/internal/graphics"

type Theme interface {
	RenderNote(column int, denom int) string
	RenderHead(column int, denom int) string
	RenderRollHead(column int, denom int) string
	RenderBody(column int) string
	RenderMine(column int, denom int) string
	RenderHitField(column int) string
	NoteColor(denom int) graphics.Color
}
