package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"git.lost.host/meutraa/fourk/internal/config"
	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/input"
	"git.lost.host/meutraa/fourk/internal/judge"
	"git.lost.host/meutraa/fourk/internal/parser"
	"git.lost.host/meutraa/fourk/internal/preview"
	"git.lost.host/meutraa/fourk/internal/render"
	"git.lost.host/meutraa/fourk/internal/score"
	"git.lost.host/meutraa/fourk/internal/theme"
	"git.lost.host/meutraa/fourk/internal/web"
	"github.com/bep/debounce"
	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"golang.org/x/term"
)

const keyCodeEsc = 1

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

type layout struct {
	rows, columns int
	cis           [judge.Lanes]int
	sideCol       int
	barRow        int
	cen           int
}

func newLayout() (layout, error) {
	var l layout
	columns, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if nil != err {
		return l, fmt.Errorf("unable to get terminal size: %w", err)
	}
	l.rows, l.columns = rows, columns
	mc := columns >> 1
	l.cen = rows >> 1
	l.cis = [judge.Lanes]int{
		mc - int(*config.ColumnSpacing)*3,
		mc - int(*config.ColumnSpacing),
		mc + int(*config.ColumnSpacing),
		mc + int(*config.ColumnSpacing)*3,
	}
	l.sideCol = l.cis[0] - 36
	if l.sideCol < 2 {
		l.sideCol = 2
	}
	l.barRow = rows - int(*config.BarRow)
	return l, nil
}

func isRowInField(l layout, row int) bool {
	return row < l.rows && row > 0
}

// rowAt converts a chart-time distance to a console row. The chart
// plays back at the configured rate, so the wall distance stretches
// by its inverse.
func rowAt(l layout, t, player time.Duration) int {
	wallMs := float64((t - player).Milliseconds()) / *config.Rate
	return l.barRow - int(math.Round(wallMs/config.ScrollSpeed))
}

func tier(err time.Duration) int {
	d := err
	if d < 0 {
		d = -d
	}
	for i := 0; i < len(config.Judgements)-1; i++ {
		if d < config.Judgements[i].Time {
			return i
		}
	}
	return len(config.Judgements) - 1
}

type cell struct {
	row, col int
}

func run() error {
	// Ensure our Default implementations are used as interfaces
	var r render.Renderer = &render.DefaultRenderer{}
	var th theme.Theme = &theme.DefaultTheme{}
	var psr parser.Parser = &parser.DefaultParser{}

	var mp3File, ogg, chartFile string
	if err := filepath.Walk(*config.Directory, func(p string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		switch path.Ext(info.Name()) {
		case ".mp3":
			mp3File = p
		case ".ogg":
			ogg = p
		case ".sm":
			chartFile = p
		}
		return nil
	}); nil != err {
		return fmt.Errorf("unable to walk song directory: %w", err)
	}

	if chartFile == "" {
		return errors.New("unable to find .sm file in given directory")
	}

	charts, err := psr.Parse(chartFile)
	if nil != err {
		return err
	}
	if len(charts) == 0 {
		return errors.New("no playable charts in " + chartFile)
	}

	var scorer score.Scorer = &score.DefaultScorer{}
	if err := scorer.Init(); nil != err {
		return fmt.Errorf("unable to open score database: %w", err)
	}
	defer scorer.Deinit()

	if *config.Serve != "" {
		log.Println("serving scores api on", *config.Serve)
		return web.NewServer(charts, scorer).ListenAndServe(*config.Serve)
	}

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard:", err)
		}
	}()

	// Difficulty selection
	for i, c := range charts {
		fmt.Printf("%2v) %3v  %5v  %v\n", i, c.Difficulty.Msd, c.NoteCount, c.Difficulty.Name)
	}
	chart := charts[0]
	if len(charts) > 1 {
		key := <-keyChannel
		index, err := strconv.ParseInt(string(key.Rune), 10, 64)
		if nil != err || index < 0 || index > int64(len(charts)-1) {
			return errors.New("no such chart")
		}
		chart = charts[index]
	}

	if *config.Preview != "" {
		return preview.Render(chart, th, *config.Preview)
	}

	if mp3File == "" && ogg == "" {
		return errors.New("unable to find .mp3/.ogg file in given directory")
	}
	audioFile := mp3File
	if ogg != "" {
		audioFile = ogg
	}
	log.Printf("Opening %v (%v)\n", audioFile, chartFile)
	f, err := os.Open(audioFile)
	if nil != err {
		return err
	}
	var streamer beep.StreamSeekCloser
	var format beep.Format
	if ogg != "" {
		streamer, format, err = vorbis.Decode(f)
	} else {
		streamer, format, err = mp3.Decode(f)
	}
	if nil != err {
		return err
	}
	defer streamer.Close()

	speaker.Init(
		beep.SampleRate(math.Round(float64(format.SampleRate)*(*config.Rate))),
		format.SampleRate.N(time.Second/60))

	eng := judge.NewEngine(config.JudgeConfig(), chart)
	eng.Reset(*config.StartBeat)

	deviceEvents := make(chan *input.Event, 128)
	if *config.Device != "" {
		if err := input.ReadInput(*config.Device, deviceEvents); nil != err {
			return fmt.Errorf("unable to open input device: %w", err)
		}
	}

	lo, err := newLayout()
	if nil != err {
		return err
	}

	// Relayout on terminal resize, debounced so a drag does not spam
	// mid-frame size queries.
	var resized int32
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		bounce := debounce.New(100 * time.Millisecond)
		for range winch {
			bounce(func() { atomic.StoreInt32(&resized, 1) })
		}
	}()

	if err := r.Init(); nil != err {
		return err
	}
	restored := false
	defer func() {
		// Restore the terminal state
		if !restored {
			r.Deinit()
		}
	}()

	startAt := time.Duration(0)
	if *config.StartBeat > 0 {
		startAt = chart.TimeAtBeat(*config.StartBeat)
		speaker.Lock()
		if err := streamer.Seek(format.SampleRate.N(startAt)); nil != err {
			log.Println("unable to seek to start beat:", err)
		}
		speaker.Unlock()
	}

	go func() {
		time.Sleep(*config.Delay)
		speaker.Play(streamer)
	}()

	endTime := time.Duration(0)
	for _, n := range chart.Notes {
		if n.Time > endTime {
			endTime = n.Time
		}
		if n.TimeEnd != game.NoEnd && n.TimeEnd > endTime {
			endTime = n.TimeEnd
		}
	}

	counts := make([]int, len(config.Judgements))
	var drawn []cell

	r.RenderLoop(*config.Delay, *config.FramePeriod, func(now time.Time, duration time.Duration) bool {
		player := startAt + time.Duration(float64(duration+*config.Offset)*(*config.Rate))
		if player-endTime > 3*time.Second {
			return false
		}

		if atomic.SwapInt32(&resized, 0) == 1 {
			if nl, err := newLayout(); nil == err {
				lo = nl
				fmt.Print("\033[J")
			}
		}

		// Presses that occured since the last frame
		for i := 0; i < len(keyChannel); i++ {
			key := <-keyChannel
			if key.Key == keyboard.KeyEsc {
				return false
			}
			if *config.Device != "" {
				continue // lanes come from evdev, keep esc only
			}
			lane := config.KeyColumn(key.Rune)
			if lane < 0 {
				continue
			}
			if err := eng.OnKeyDown(lane, duration, player); nil != err {
				log.Println(err)
			}
		}
		for len(deviceEvents) > 0 {
			ev := <-deviceEvents
			if ev.Code == keyCodeEsc && ev.Pressed {
				return false
			}
			lane := config.CodeColumn(ev.Code)
			if lane < 0 {
				continue
			}
			var err error
			if ev.Pressed {
				err = eng.OnKeyDown(lane, duration, player)
			} else if ev.Released {
				err = eng.OnKeyUp(lane, duration, player)
			}
			if nil != err {
				log.Println(err)
			}
		}

		eng.Tick(player)

		for _, ev := range eng.DrainEvents() {
			col := lo.cis[ev.Note.Index]
			if ev.Miss {
				counts[len(counts)-1]++
				r.AddDecoration(lo.cen-1, col-1, "\033[1;31m╭", 240)
				r.AddDecoration(lo.cen-1, col+1, "\033[1;31m╮", 240)
				r.AddDecoration(lo.cen, col-1, "\033[1;31m╰", 240)
				r.AddDecoration(lo.cen, col+1, "\033[1;31m╯", 240)
				continue
			}
			t := tier(ev.Error)
			counts[t]++
			// Error bar tick, right of centre for late, left for early
			mark := lo.columns>>1 + int(ev.Error.Milliseconds())
			r.AddDecoration(lo.rows-2, mark, "|", 60)
		}

		// Clear last frame's notes before redrawing
		for _, c := range drawn {
			r.Fill(c.row, c.col, " ")
		}
		drawn = drawn[:0]

		// Render the hit bar
		for i := 0; i < judge.Lanes; i++ {
			r.Fill(lo.barRow, lo.cis[i], th.RenderHitField(i))
		}

		draw := func(row, col int, s string) {
			if !isRowInField(lo, row) || row == lo.barRow {
				return
			}
			r.Fill(row, col, s)
			drawn = append(drawn, cell{row: row, col: col})
		}

		for _, note := range eng.Notes() {
			if note.State.Terminal() && note.State != game.MissedRelease {
				continue
			}
			col := lo.cis[note.Index]
			headRow := rowAt(lo, note.Time, player)
			note.Row = headRow
			if note.Sustained() {
				tailRow := 1
				if note.TimeEnd != game.NoEnd {
					tailRow = rowAt(lo, note.TimeEnd, player)
				}
				bodyFrom := headRow - 1
				if note.State == game.Active {
					bodyFrom = lo.barRow - 1
				}
				for row := bodyFrom; row > tailRow; row-- {
					draw(row, col, th.RenderBody(int(note.Index)))
				}
				draw(tailRow, col, th.RenderBody(int(note.Index)))
			}
			if note.State != game.Pending {
				continue
			}
			if note.Type == game.Roll {
				draw(headRow, col, th.RenderRollHead(int(note.Index), note.Denom))
			} else if note.Sustained() {
				draw(headRow, col, th.RenderHead(int(note.Index), note.Denom))
			} else {
				draw(headRow, col, th.RenderNote(int(note.Index), note.Denom))
			}
		}

		// Mines never reach the engine, render them from the chart
		for _, note := range chart.Notes {
			if !note.IsMine {
				continue
			}
			draw(rowAt(lo, note.Time, player), lo.cis[note.Index], th.RenderMine(int(note.Index), note.Denom))
		}

		cal := eng.Calibrator()
		r.Fill(10, lo.sideCol, fmt.Sprintf("   Accuracy:  %6.2f", eng.Accuracy()))
		r.Fill(11, lo.sideCol, fmt.Sprintf("     Offset:  %6v", eng.Offset().Round(time.Millisecond)))
		r.Fill(12, lo.sideCol, fmt.Sprintf("       Mean:  %6v", cal.Mean().Round(time.Millisecond)))
		r.Fill(13, lo.sideCol, fmt.Sprintf("      Stdev:  %6.2f", cal.Stdev()))
		r.Fill(14, lo.sideCol, fmt.Sprintf("     Misses:  %6v", eng.MissCount()))
		r.Fill(15, lo.sideCol, fmt.Sprintf("      Total:  %6v", chart.NoteCount))
		r.Fill(16, lo.sideCol, fmt.Sprintf("      Mines:  %6v", chart.MineCount))
		for i, judgement := range config.Judgements {
			r.FillColor(18+i, lo.sideCol, judgement.Color, fmt.Sprintf("%v:  %6v", judgement.Name, counts[i]))
		}

		return true
	})

	eng.Finish()
	attempt := score.Attempt{
		Inputs:   eng.Inputs(),
		Rate:     *config.Rate,
		Accuracy: eng.Accuracy(),
		OffsetMs: float64(eng.Offset()) / float64(time.Millisecond),
	}
	scorer.Save(chart, &attempt)

	r.Deinit()
	restored = true
	for _, a := range scorer.Load(score.Sum(chart)) {
		fmt.Printf("%v  rate %.2f  accuracy %6.2f  offset %5.1fms\n",
			a.ID, a.Rate, a.Accuracy, a.OffsetMs)
	}
	_ = <-keyChannel
	return nil
}
