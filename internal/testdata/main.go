package testdata

import (
	"errors"

	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/parser"
)

// GetChart parses the embedded fixture chart, one measure of taps and
// one measure holding a hold note, at a constant 120bpm.
func GetChart() (*game.Chart, error) {
	p := &parser.DefaultParser{}
	charts, err := p.ParseData([]byte(data))
	if nil != err {
		return nil, err
	}
	if len(charts) == 0 {
		return nil, errors.New("fixture chart has no difficulties")
	}
	return charts[0], nil
}

const data = `#TITLE:Fixture;
#ARTIST:nobody;
#OFFSET:0.000;
#BPMS:0.000=120.000;
#STOPS:;

#NOTES:
     dance-single:
     :
     Beginner:
     1:
     0,0,0,0:
1000
0000
0010
0000
,
2000
0000
3000
0001
;
`
