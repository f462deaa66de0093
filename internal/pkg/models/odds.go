package models

import "strconv"

// UnknownOdd is stored in place of a limit or payout that could not be read.
const UnknownOdd = "TBD"

// BettingLine is the over/under market of a finished match.
// A nil *BettingLine means the line is unavailable; a partially filled line never exists.
type BettingLine struct {
	Limit      float64 `json:"limit"`
	OverPayout float64 `json:"over_payout"`
}

// FormatOdd renders an optional odd for text stores, using UnknownOdd when absent.
func FormatOdd(v *float64) string {
	if v == nil {
		return UnknownOdd
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
