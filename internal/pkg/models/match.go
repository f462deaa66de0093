package models

import "time"

// FinishedStatus is the status token the fixture list shows for a concluded match.
const FinishedStatus = "MS"

// Result is the realized outcome of a match against its over/under line.
type Result string

const (
	ResultOver          Result = "Over"
	ResultUnder         Result = "Under"
	ResultPending       Result = "Pending"
	ResultScheduled     Result = "Scheduled"
	ResultNoBettingData Result = "No Betting Data"
)

// MatchSummary is one row of a round's fixture list.
type MatchSummary struct {
	Date       string `json:"date"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	ScoreHome  string `json:"score_home"`
	ScoreAway  string `json:"score_away"`
	Status     string `json:"status"`
	DetailLink string `json:"match_link,omitempty"`
}

// IsFinished reports whether the row carries the finished sentinel.
func (s MatchSummary) IsFinished() bool {
	return s.Status == FinishedStatus
}

// MatchRecord is the unit appended to a sink, once per match per run.
type MatchRecord struct {
	MatchSummary

	Week           int        `json:"week"`
	Limit          *float64   `json:"limit"`
	OverPayout     *float64   `json:"over_payout"`
	TotalScore     *int       `json:"total_score"`
	Result         Result     `json:"result"`
	MatchTimestamp *time.Time `json:"match_timestamp"`
	RecordedAt     time.Time  `json:"recorded_at"`
	RunID          string     `json:"run_id"`
}

// ApplyLine copies a resolved line into the record; a nil line leaves both odds unknown.
func (r *MatchRecord) ApplyLine(line *BettingLine) {
	if line == nil {
		r.Limit, r.OverPayout = nil, nil
		return
	}
	limit, payout := line.Limit, line.OverPayout
	r.Limit, r.OverPayout = &limit, &payout
}
