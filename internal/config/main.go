package config

import (
	"strconv"
	"strings"

	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/graphics"
	"git.lost.host/meutraa/fourk/internal/judge"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	Directory   = kingpin.Arg("directory", "Song/chart directory").Required().ExistingDir()
	Rate        = kingpin.Flag("rate", "Playback speed").Default("1.0").Short('r').Float64()
	Offset      = kingpin.Flag("offset", "Global audio offset").Default("0ms").Short('o').Duration()
	Delay       = kingpin.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	StartBeat   = kingpin.Flag("start-beat", "Start the attempt mid-song at this beat").Default("0").Float64()
	FramePeriod = kingpin.Flag("frame-period", "Render frame period").Default("1ms").Short('p').Duration()
	RefreshRate = kingpin.Flag("refresh-rate", "Monitor refresh rate").Default("240.0").Short('R').Float()

	ColumnSpacing       = kingpin.Flag("spacing", "Columns between keys").Default("6").Short('S').Uint()
	BarRow              = kingpin.Flag("bar-row", "Console row to render hit bar").Default("8").Uint()
	scrollSpeedModifier = kingpin.Flag("scroll-speed", "Scroll speed, lower is faster").Default("3").Short('s').Uint()

	Strict      = kingpin.Flag("strict", "Penalize wrong-lane presses as misses").Bool()
	FixedOffset = kingpin.Flag("fixed-offset", "Input offset used when locked").Default("70ms").Duration()
	LockOffset  = kingpin.Flag("lock-offset", "Pin the input offset instead of auto-calibrating").Bool()

	perfect        = kingpin.Flag("perfect", "Tap perfect window").Default("20ms").Duration()
	miss           = kingpin.Flag("miss", "Tap miss window").Default("180ms").Duration()
	holdPerfect    = kingpin.Flag("hold-perfect", "Hold head perfect window").Default("40ms").Duration()
	holdMiss       = kingpin.Flag("hold-miss", "Hold head miss window").Default("180ms").Duration()
	releasePerfect = kingpin.Flag("release-perfect", "Hold release perfect window").Default("60ms").Duration()
	releaseMiss    = kingpin.Flag("release-miss", "Hold release miss window").Default("250ms").Duration()
	holdDrop       = kingpin.Flag("hold-drop", "Early/late release tolerance before a hold is lost").Default("250ms").Duration()
	tapWeight      = kingpin.Flag("tap-weight", "Score weight of taps and hold heads").Default("1.0").Float64()
	releaseWeight  = kingpin.Flag("release-weight", "Score weight of hold releases").Default("0.5").Float64()
	history        = kingpin.Flag("history", "Recent score events kept for the impact baseline").Default("20").Int()

	Device = kingpin.Flag("device", "Evdev keyboard device for press/release input").Default("").String()
	codes  = kingpin.Flag("codes", "Evdev key codes for the 4 lanes").Default("44,45,51,52").String()
	keys4  = kingpin.Flag("keys-single", "Keys for 4k").Default("_-mp").Short('k').String()

	Preview = kingpin.Flag("preview", "Render a chart preview png to this path and exit").Default("").String()
	Serve   = kingpin.Flag("serve", "Serve the scores api on this address and exit").Default("").String()

	ScrollSpeed float64
	KeyCodes    [4]uint16
	Judgements  []game.Judgement
)

func Keys() []rune {
	return []rune(*keys4)
}

func KeyColumn(r rune) int {
	for i, c := range Keys() {
		if r == c {
			return i
		}
	}
	return -1
}

func CodeColumn(code uint16) int {
	for i, c := range KeyCodes {
		if code == c {
			return i
		}
	}
	return -1
}

// JudgeConfig assembles the judging engine configuration from the
// parsed flag surface.
func JudgeConfig() judge.Config {
	return judge.Config{
		Windows: judge.Windows{
			TapPerfect:     *perfect,
			TapMiss:        *miss,
			HeadPerfect:    *holdPerfect,
			HeadMiss:       *holdMiss,
			ReleasePerfect: *releasePerfect,
			ReleaseMiss:    *releaseMiss,
			Drop:           *holdDrop,
		},
		TapWeight:     *tapWeight,
		ReleaseWeight: *releaseWeight,
		HistoryLength: *history,
		Strict:        *Strict,
		FixedOffset:   *FixedOffset,
		LockOffset:    *LockOffset,
	}
}

func init() {
	kingpin.Version("0.1.0")
	kingpin.Parse()

	ScrollSpeed = float64(*scrollSpeedModifier) * 1000 / *RefreshRate

	for i, part := range strings.Split(*codes, ",") {
		if i >= len(KeyCodes) {
			break
		}
		code, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if nil != err {
			continue
		}
		KeyCodes[i] = uint16(code)
	}

	Judgements = []game.Judgement{
		{Time: *perfect, Color: graphics.Color{R: 0, G: 236, B: 236}, Name: "    Perfect"},
		{Time: *perfect * 2, Color: graphics.Color{R: 236, G: 195, B: 0}, Name: "      Great"},
		{Time: *miss / 3, Color: graphics.Color{R: 0, G: 236, B: 128}, Name: "       Good"},
		{Time: *miss, Color: graphics.Color{R: 236, G: 128, B: 0}, Name: "       Okay"},
		{Time: -1, Color: graphics.Color{R: 236, G: 30, B: 0}, Name: "       Miss"},
	}
}
