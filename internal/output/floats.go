package output

import (
	"math"
	"strconv"
	"strings"
)

// floatPlaces is the precision report cells are rounded to.
const floatPlaces = 6

// RoundFloat rounds f to six decimal places
func RoundFloat(f float64) float64 {
	multiplier := math.Pow(10, floatPlaces)
	return math.Round(f*multiplier) / multiplier
}

// FormatFloat renders f rounded to six places without trailing zeros, so
// SQLite averages print as 3.25 rather than 3.2500000000000004.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	str := strconv.FormatFloat(RoundFloat(f), 'f', floatPlaces, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	if str == "-0" {
		return "0"
	}
	return str
}
