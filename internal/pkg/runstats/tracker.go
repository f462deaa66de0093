// Package runstats keeps per-week counters of scrape runs.
package runstats

import (
	"sync"
	"time"
)

// WeekStats counts what happened to one round during a run.
type WeekStats struct {
	Week       int    `json:"week"`
	Label      string `json:"label"`
	Confirmed  bool   `json:"confirmed"`
	Found      int    `json:"found"`
	Finished   int    `json:"finished"`
	Unfinished int    `json:"unfinished"`
	WithLine   int    `json:"with_line"`
	Stored     int    `json:"stored"`
	Failed     int    `json:"failed"`
}

func (w *WeekStats) add(o WeekStats) {
	w.Found += o.Found
	w.Finished += o.Finished
	w.Unfinished += o.Unfinished
	w.WithLine += o.WithLine
	w.Stored += o.Stored
	w.Failed += o.Failed
}

// Summary is one run.
type Summary struct {
	RunID      string      `json:"run_id"`
	DryRun     bool        `json:"dry_run"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at,omitempty"`
	Weeks      []WeekStats `json:"weeks"`
	Error      string      `json:"error,omitempty"`
}

// Totals sums the per-week counters.
func (s Summary) Totals() WeekStats {
	var total WeekStats
	for _, w := range s.Weeks {
		total.add(w)
	}
	return total
}

func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s Summary) clone() Summary {
	weeks := make([]WeekStats, len(s.Weeks))
	copy(weeks, s.Weeks)
	s.Weeks = weeks
	return s
}

// Tracker holds the running and the last finished Summary. Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	current *Summary
	last    *Summary
	runs    int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Start begins a run with weeks rounds, replacing any run left unfinished.
func (t *Tracker) Start(runID string, weeks int, dryRun bool, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &Summary{RunID: runID, DryRun: dryRun, StartedAt: now, Weeks: make([]WeekStats, weeks)}
	for i := range s.Weeks {
		s.Weeks[i].Week = i + 1
	}
	t.current = s
}

// Update applies fn to the counters of week. Unknown weeks and calls outside a run are ignored.
func (t *Tracker) Update(week int, fn func(*WeekStats)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil || week < 1 || week > len(t.current.Weeks) {
		return
	}
	fn(&t.current.Weeks[week-1])
}

// Week returns a copy of one week's counters of the current run.
func (t *Tracker) Week(week int) (WeekStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.current == nil || week < 1 || week > len(t.current.Weeks) {
		return WeekStats{}, false
	}
	return t.current.Weeks[week-1], true
}

// Finish closes the current run and returns it.
func (t *Tracker) Finish(err error, now time.Time) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return Summary{}
	}
	t.current.FinishedAt = now
	if err != nil {
		t.current.Error = err.Error()
	}
	t.last = t.current
	t.current = nil
	t.runs++
	return t.last.clone()
}

// Current returns the run in progress.
func (t *Tracker) Current() (Summary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return Summary{}, false
	}
	return t.current.clone(), true
}

// Last returns the most recent finished run.
func (t *Tracker) Last() (Summary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return Summary{}, false
	}
	return t.last.clone(), true
}

// Runs is the number of finished runs.
func (t *Tracker) Runs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runs
}
