package common

import (
	"math"
	"strings"
)

// RoundTo rounds v to the given number of decimal places. Negative zero is
// normalized to zero so that keys built from the result are stable.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
