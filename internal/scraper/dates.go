package scraper

import (
	"strconv"
	"strings"
	"time"
)

// ParseMatchDate reads a date header like "Salı 30.09.2025" as noon of that day in
// loc. Headers without a DD.MM.YYYY part yield nil.
func ParseMatchDate(label string, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}
	parts := strings.Fields(label)
	if len(parts) < 2 {
		return nil
	}
	dmy := strings.Split(parts[1], ".")
	if len(dmy) != 3 {
		return nil
	}
	day, err1 := strconv.Atoi(dmy[0])
	month, err2 := strconv.Atoi(dmy[1])
	year, err3 := strconv.Atoi(dmy[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}

	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, loc)
	// time.Date normalizes 31.02 into March; reject it.
	if t.Day() != day {
		return nil
	}
	return &t
}
