package parser

import "git.lost.host/meutraa/fourk/internal/game"

type Parser interface {
	Parse(file string) ([]*game.Chart, error)
}
