package parser

import (
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/timing"
)

type DefaultParser struct{}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine (or other negative note)

func duration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// parsePairs reads a "beat=value,beat=value" metadata list. Pairs that
// do not parse or carry non-finite numbers are dropped, chart metadata
// is hand-authored and often imperfect.
func parsePairs(body string) [][2]float64 {
	body = strings.ReplaceAll(body, "\n", "")
	body = strings.TrimSuffix(body, ";")
	pairs := [][2]float64{}
	for _, entry := range strings.Split(body, ",") {
		as := strings.Split(entry, "=")
		if len(as) != 2 {
			continue
		}
		beat, err := strconv.ParseFloat(strings.TrimSpace(as[0]), 64)
		if nil != err {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(as[1]), 64)
		if nil != err {
			continue
		}
		if math.IsNaN(beat) || math.IsInf(beat, 0) ||
			math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		pairs = append(pairs, [2]float64{beat, value})
	}
	return pairs
}

type metadata struct {
	offset float64
	bpms   []timing.BPM
	stops  []timing.Stop
	warps  []timing.Warp
}

func parseMetadata(meta string) metadata {
	var md metadata
	for _, mdl := range strings.Split(meta, "\n#") {
		// The first fragment keeps the file's leading '#'.
		mdl = strings.TrimPrefix(strings.TrimSpace(mdl), "#")
		switch {
		case strings.HasPrefix(mdl, "OFFSET:"):
			body := strings.TrimSuffix(strings.TrimPrefix(mdl, "OFFSET:"), ";")
			offs, err := strconv.ParseFloat(body, 64)
			if nil == err {
				md.offset = -offs
			}
		case strings.HasPrefix(mdl, "BPMS:"):
			for _, p := range parsePairs(strings.TrimPrefix(mdl, "BPMS:")) {
				md.bpms = append(md.bpms, timing.BPM{Beat: p[0], Value: p[1]})
			}
		case strings.HasPrefix(mdl, "STOPS:"):
			for _, p := range parsePairs(strings.TrimPrefix(mdl, "STOPS:")) {
				md.stops = append(md.stops, timing.Stop{Beat: p[0], Duration: p[1]})
			}
		case strings.HasPrefix(mdl, "WARPS:"):
			for _, p := range parsePairs(strings.TrimPrefix(mdl, "WARPS:")) {
				md.warps = append(md.warps, timing.Warp{Beat: p[0], Length: p[1]})
			}
		}
	}
	return md
}

func (p *DefaultParser) Parse(file string) ([]*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return p.ParseData(data)
}

func (p *DefaultParser) ParseData(data []byte) ([]*game.Chart, error) {
	str := strings.ReplaceAll(string(data), "\r", "")
	sections := strings.Split(str, "#NOTES:")

	difficulties := []game.Difficulty{}
	for _, section := range sections[1:] {
		lines := strings.SplitN(section, "\n", 7)
		if len(lines) < 7 {
			continue
		}
		chartType := strings.TrimSuffix(strings.TrimSpace(lines[1]), ":")
		nKeys, ok := game.NKeyMap[chartType]
		if !ok {
			continue
		}
		difficulties = append(difficulties, game.Difficulty{
			Name:    strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"),
			Msd:     strings.TrimSuffix(strings.TrimSpace(lines[4]), ":"),
			Section: lines[6],
			NKeys:   nKeys,
		})
	}

	md := parseMetadata(sections[0])
	tm := timing.Build(md.bpms, md.stops, md.warps)
	skips := timing.SkipIntervals(md.bpms, md.stops, md.warps)
	offset := duration(md.offset)

	charts := []*game.Chart{}
	for _, difficulty := range difficulties {
		charts = append(charts, buildChart(difficulty, tm, skips, offset))
	}
	return charts, nil
}

func buildChart(
	difficulty game.Difficulty,
	tm *timing.Map,
	skips []timing.Interval,
	offset time.Duration,
) *game.Chart {
	notes := []*game.Note{}
	measures := []*game.Measure{}
	var noteCount, holdCount, mineCount int64

	// Open hold heads by column, as indexes into the notes arena. A
	// tail closes the most recent open head in its column.
	open := make([]int, difficulty.NKeys)
	for i := range open {
		open[i] = -1
	}

	blocks := strings.Split(difficulty.Section, "\n,")
	for m, block := range blocks {
		lines := []string{}
		for _, l := range strings.Split(block, "\n") {
			if strings.HasPrefix(l, " ") || strings.Contains(l, "-") {
				continue
			}
			l = strings.TrimSpace(l)
			if len(l) >= int(difficulty.NKeys) {
				lines = append(lines, l)
			}
		}

		lineCount := int64(len(lines))
		if lineCount == 0 {
			continue
		}

		for i, line := range lines {
			beat := float64(m)*4 + float64(i)*4/float64(lineCount)
			noteTime := offset + duration(tm.TimeAtBeat(beat))

			r := big.NewRat(int64(i*4), lineCount)
			denom := int(r.Denom().Int64())
			if i == 0 {
				measures = append(measures, &game.Measure{Denom: 1, Time: noteTime})
			} else if denom == 1 {
				measures = append(measures, &game.Measure{Denom: 4, Time: noteTime})
			} else if denom == 2 || denom == 4 {
				measures = append(measures, &game.Measure{Denom: 8, Time: noteTime})
			}

			// Content inside a skipped range is never audible;
			// neutralize the whole line before it can become notes.
			if timing.Skipped(skips, beat) {
				continue
			}

			for col := 0; col < len(line) && col < int(difficulty.NKeys); col++ {
				c := line[col]
				switch c {
				case '1':
					noteCount++
					notes = append(notes, &game.Note{
						Index: uint8(col),
						Denom: denom,
						Type:  game.Tap,
						Beat:  beat,
						Time:  noteTime,
					})
				case '2', '4':
					noteCount++
					holdCount++
					nt := game.Hold
					if c == '4' {
						nt = game.Roll
					}
					notes = append(notes, &game.Note{
						Index:   uint8(col),
						Denom:   denom,
						Type:    nt,
						Beat:    beat,
						Time:    noteTime,
						BeatEnd: math.Inf(1),
						TimeEnd: game.NoEnd,
					})
					open[col] = len(notes) - 1
				case '3':
					// A tail with no open head is ignored.
					if open[col] < 0 {
						continue
					}
					head := notes[open[col]]
					head.BeatEnd = beat
					head.TimeEnd = noteTime
					open[col] = -1
				case 'M':
					mineCount++
					notes = append(notes, &game.Note{
						Index:  uint8(col),
						Denom:  denom,
						IsMine: true,
						Beat:   beat,
						Time:   noteTime,
					})
				}
			}
		}
	}

	return &game.Chart{
		Notes:      notes,
		Measures:   measures,
		NoteCount:  noteCount,
		HoldCount:  holdCount,
		MineCount:  mineCount,
		Difficulty: difficulty,
		Offset:     offset,
		Timing:     tm,
		Skips:      skips,
	}
}
