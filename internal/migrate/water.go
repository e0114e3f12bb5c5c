package migrate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseWater returns the leading numeric literal of s, e.g. 30 for "30g".
// Units are ignored. Empty, unparseable or negative input yields 0.
func ParseWater(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// FormatWater renders grams the way recipes write them ("30g", "12.5g"),
// rounded to the milligram.
func FormatWater(grams float64) string {
	grams = math.Round(grams*1000) / 1000
	return strconv.FormatFloat(grams, 'f', -1, 64) + "g"
}
