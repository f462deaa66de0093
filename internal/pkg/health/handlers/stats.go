package handlers

import (
	"net/http"

	"github.com/Vodeneev/overunder/internal/pkg/runstats"
)

// StatsSource is the read side of runstats.Tracker.
type StatsSource interface {
	Current() (runstats.Summary, bool)
	Last() (runstats.Summary, bool)
	Runs() int
}

type statsResponse struct {
	Running bool                `json:"running"`
	Runs    int                 `json:"runs"`
	Current *runstats.Summary   `json:"current,omitempty"`
	Last    *runstats.Summary   `json:"last,omitempty"`
	Totals  *runstats.WeekStats `json:"totals,omitempty"`
}

// NewStatsHandler serves the run in progress and the last finished run.
func NewStatsHandler(src StatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statsResponse{Runs: src.Runs()}
		if cur, ok := src.Current(); ok {
			resp.Running = true
			resp.Current = &cur
		}
		if last, ok := src.Last(); ok {
			resp.Last = &last
			totals := last.Totals()
			resp.Totals = &totals
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewWeekHandler serves one week of the current run, or of the last one when idle.
func NewWeekHandler(src StatsSource, week func(*http.Request) (int, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok := week(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week must be a positive number"})
			return
		}
		s, ok := src.Current()
		if !ok {
			s, ok = src.Last()
		}
		if !ok || n > len(s.Weeks) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no stats for this week"})
			return
		}
		writeJSON(w, http.StatusOK, s.Weeks[n-1])
	}
}
