package utils

import "math"

// The payment provider reports amounts in integer minor units; the ticketing
// store carries decimal amounts. Conversion happens exactly once, at the
// provider boundary, so stored amounts are never re-derived.

func MinorToAmount(minor int64) float64 {
	return float64(minor) / 100
}

func AmountToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
