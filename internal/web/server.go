// Package web serves a small read-only JSON api over the local score
// database, so a browser page can show chart info and past attempts.
package web

import (
	"encoding/json"
	"net/http"

	"git.lost.host/meutraa/fourk/internal/game"
	"git.lost.host/meutraa/fourk/internal/score"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type chartOverview struct {
	Sum   string  `json:"sum"`
	Name  string  `json:"name"`
	Msd   string  `json:"msd"`
	Notes int64   `json:"notes"`
	Holds int64   `json:"holds"`
	Mines int64   `json:"mines"`
	Bpm   float64 `json:"bpm"`
}

type attemptOverview struct {
	Attempt  string  `json:"attempt"`
	Rate     float64 `json:"rate"`
	Accuracy float64 `json:"accuracy"`
	OffsetMs float64 `json:"offsetMs"`
	Inputs   int     `json:"inputs"`
}

type Server struct {
	charts []*game.Chart
	scorer score.Scorer
}

func NewServer(charts []*game.Chart, scorer score.Scorer) *Server {
	return &Server{charts: charts, scorer: scorer}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	res := make([]chartOverview, 0, len(s.charts))
	for _, c := range s.charts {
		overview := chartOverview{
			Sum:   score.Sum(c),
			Name:  c.Difficulty.Name,
			Msd:   c.Difficulty.Msd,
			Notes: c.NoteCount,
			Holds: c.HoldCount,
			Mines: c.MineCount,
		}
		if segments := c.Timing.Segments(); len(segments) > 0 {
			overview.Bpm = segments[0].Bpm
		}
		res = append(res, overview)
	}
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	sum := mux.Vars(r)["sum"]
	res := make([]attemptOverview, 0)
	for _, a := range s.scorer.Load(sum) {
		overview := attemptOverview{
			Attempt:  a.ID,
			Rate:     a.Rate,
			Accuracy: a.Accuracy,
			OffsetMs: a.OffsetMs,
		}
		if nil != a.Inputs {
			overview.Inputs = len(*a.Inputs)
		}
		res = append(res, overview)
	}
	json.NewEncoder(w).Encode(res)
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/charts", s.handleCharts).Methods("GET")
	router.HandleFunc("/scores/{sum}", s.handleScores).Methods("GET")
	return cors.Default().Handler(router)
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Router())
}
