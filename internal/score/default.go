package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"log"
	"time"

	"git.lost.host/meutraa/fourk/internal/game"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type DefaultScorer struct {
	db *sql.DB
}

type InputsCompact struct {
	Index    int
	Times    []time.Duration
	Releases []time.Duration
}

func compactInputs(inputs *[]game.Input) []InputsCompact {
	colCount := 0
	for _, i := range *inputs {
		if i.Index >= colCount {
			colCount = i.Index + 1
		}
	}
	ins := make([]InputsCompact, colCount)
	for i := range ins {
		ins[i].Index = i
	}
	for _, i := range *inputs {
		if i.Release {
			ins[i.Index].Releases = append(ins[i.Index].Releases, i.Time)
		} else {
			ins[i.Index].Times = append(ins[i.Index].Times, i.Time)
		}
	}
	return ins
}

func uncompactInputs(inputs []InputsCompact) *[]game.Input {
	ins := []game.Input{}
	for _, i := range inputs {
		for _, t := range i.Times {
			ins = append(ins, game.Input{Index: i.Index, Time: t})
		}
		for _, t := range i.Releases {
			ins = append(ins, game.Input{Index: i.Index, Time: t, Release: true})
		}
	}
	return &ins
}

func (s *DefaultScorer) Init() error {
	db, err := sql.Open("sqlite3", "./scores.db")
	if nil != err {
		return err
	}

	initStatement := `
	create table if not exists attempts
	  (
		  id integer not null primary key,
		  attempt text,
		  sum text,
		  rate real,
		  accuracy real,
		  offset_ms real,
		  inputs bytearray
	  );
	`
	_, err = db.Exec(initStatement)
	if nil != err {
		return err
	}

	s.db = db
	return nil
}

func (s *DefaultScorer) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

// Sum identifies a chart by its notes section, stable across renames
// of the containing file.
func Sum(c *game.Chart) string {
	sum := sha256.Sum256([]byte(c.Difficulty.Section))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *DefaultScorer) Save(c *game.Chart, attempt *Attempt) {
	data, err := json.Marshal(compactInputs(attempt.Inputs))
	if nil != err {
		log.Println("unable to marshal inputs", err)
		return
	}
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	_, err = s.db.Exec(
		"insert into attempts(attempt, sum, rate, accuracy, offset_ms, inputs) values(?, ?, ?, ?, ?, ?)",
		attempt.ID, Sum(c), attempt.Rate, attempt.Accuracy, attempt.OffsetMs, data)
	if nil != err {
		log.Println("unable to save attempt", err)
		return
	}
}

func (s *DefaultScorer) Load(sum string) []Attempt {
	attempts := []Attempt{}
	rows, err := s.db.Query(
		"select attempt, sum, rate, accuracy, offset_ms, inputs from attempts where sum = ?", sum)
	if nil != err && err != sql.ErrNoRows {
		log.Println("unable to load attempts", err)
		return attempts
	}
	defer rows.Close()
	for rows.Next() {
		var a Attempt
		var inputs []byte
		if err := rows.Scan(&a.ID, &a.Sum, &a.Rate, &a.Accuracy, &a.OffsetMs, &inputs); nil != err {
			log.Println("unable to scan attempt row", err)
			continue
		}
		var ns []InputsCompact
		if err := json.Unmarshal(inputs, &ns); nil != err {
			log.Println("unable to unmarshal input history")
			continue
		}
		a.Inputs = uncompactInputs(ns)
		attempts = append(attempts, a)
	}
	return attempts
}
