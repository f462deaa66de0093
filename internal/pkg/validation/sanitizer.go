package validation

import (
	"regexp"
	"strings"

	"github.com/Vodeneev/overunder/internal/pkg/models"
)

const (
	maxTeamNameLen = 100
	maxTextLen     = 200
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// SanitizeSummary normalizes the text scraped from a fixture row in place.
func SanitizeSummary(s *models.MatchSummary) {
	if s == nil {
		return
	}
	s.HomeTeam = SanitizeTeamName(s.HomeTeam)
	s.AwayTeam = SanitizeTeamName(s.AwayTeam)
	s.Date = sanitizeString(s.Date)
	s.Status = sanitizeString(s.Status)
	s.ScoreHome = sanitizeString(s.ScoreHome)
	s.ScoreAway = sanitizeString(s.ScoreAway)
	s.DetailLink = strings.TrimSpace(s.DetailLink)
}

// SanitizeTeamName trims, drops control characters and collapses inner whitespace
// (the fixture list wraps long names over several lines).
func SanitizeTeamName(name string) string {
	sanitized := spaceRuns.ReplaceAllString(strings.TrimSpace(name), " ")
	sanitized = controlChars.ReplaceAllString(sanitized, "")
	return truncateRunes(sanitized, maxTeamNameLen)
}

func sanitizeString(str string) string {
	sanitized := spaceRuns.ReplaceAllString(strings.TrimSpace(str), " ")
	sanitized = controlChars.ReplaceAllString(sanitized, "")
	return truncateRunes(sanitized, maxTextLen)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
