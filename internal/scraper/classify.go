package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Vodeneev/overunder/internal/pkg/models"
)

// Classification is the realized outcome of a match.
type Classification struct {
	TotalScore *int
	Result     models.Result
}

// Classify maps a match state and its line to a result:
//   - not finished: Scheduled, no total
//   - finished without a line: No Betting Data, no total
//   - otherwise Over when home+away > limit, else Under (a total equal to the limit is Under)
//
// Unparsable scores on a finished match with a line are an error.
func Classify(status, scoreHome, scoreAway string, line *models.BettingLine) (Classification, error) {
	if status != models.FinishedStatus {
		return Classification{Result: models.ResultScheduled}, nil
	}
	if line == nil {
		return Classification{Result: models.ResultNoBettingData}, nil
	}

	home, err := strconv.Atoi(strings.TrimSpace(scoreHome))
	if err != nil {
		return Classification{}, fmt.Errorf("home score %q: %w", scoreHome, err)
	}
	away, err := strconv.Atoi(strings.TrimSpace(scoreAway))
	if err != nil {
		return Classification{}, fmt.Errorf("away score %q: %w", scoreAway, err)
	}

	total := home + away
	result := models.ResultUnder
	if float64(total) > line.Limit {
		result = models.ResultOver
	}
	return Classification{TotalScore: &total, Result: result}, nil
}
