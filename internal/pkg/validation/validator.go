package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/Vodeneev/overunder/internal/pkg/models"
)

// ValidateRecord checks that a record is internally consistent before it is
// stored. All violations are reported together.
func ValidateRecord(rec *models.MatchRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	var errs []error
	if rec.Week < 1 {
		errs = append(errs, fmt.Errorf("week must be positive, got %d", rec.Week))
	}
	if rec.HomeTeam == "" {
		errs = append(errs, fmt.Errorf("home team cannot be empty"))
	}
	if rec.AwayTeam == "" {
		errs = append(errs, fmt.Errorf("away team cannot be empty"))
	}
	if (rec.Limit == nil) != (rec.OverPayout == nil) {
		errs = append(errs, fmt.Errorf("limit and over payout must be both known or both unknown"))
	}
	if rec.Limit != nil && !isPositive(*rec.Limit) {
		errs = append(errs, fmt.Errorf("invalid limit: %v", *rec.Limit))
	}
	if rec.OverPayout != nil && (!isPositive(*rec.OverPayout) || *rec.OverPayout < 1) {
		errs = append(errs, fmt.Errorf("invalid over payout: %v", *rec.OverPayout))
	}
	if err := validateResult(rec); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateResult(rec *models.MatchRecord) error {
	switch rec.Result {
	case models.ResultOver, models.ResultUnder:
		if !rec.IsFinished() {
			return fmt.Errorf("result %q needs a finished match, status is %q", rec.Result, rec.Status)
		}
		if rec.TotalScore == nil || rec.Limit == nil {
			return fmt.Errorf("result %q needs a total score and a limit", rec.Result)
		}
		over := float64(*rec.TotalScore) > *rec.Limit
		if over != (rec.Result == models.ResultOver) {
			return fmt.Errorf("result %q contradicts total %d against limit %v", rec.Result, *rec.TotalScore, *rec.Limit)
		}
	case models.ResultNoBettingData:
		if !rec.IsFinished() {
			return fmt.Errorf("result %q needs a finished match, status is %q", rec.Result, rec.Status)
		}
		if rec.Limit != nil || rec.TotalScore != nil {
			return fmt.Errorf("result %q cannot carry a line or a total", rec.Result)
		}
	case models.ResultScheduled:
		if rec.IsFinished() {
			return fmt.Errorf("result %q on a finished match", rec.Result)
		}
		if rec.TotalScore != nil {
			return fmt.Errorf("result %q cannot carry a total", rec.Result)
		}
	default:
		return fmt.Errorf("result %q cannot be stored", rec.Result)
	}
	return nil
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
