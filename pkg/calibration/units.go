package calibration

import (
	"fmt"
	"strings"
)

// siPrefixes maps SI prefixes to their scale factor. The slice is ordered so
// matching stays deterministic.
var siPrefixes = []struct {
	prefix string
	factor float64
}{
	{"P", 1e15},
	{"T", 1e12},
	{"G", 1e9},
	{"M", 1e6},
	{"k", 1e3},
	{"m", 1e-3},
	{"µ", 1e-6},
	{"u", 1e-6},
	{"n", 1e-9},
	{"p", 1e-12},
	{"f", 1e-15},
}

// baseUnits are the unprefixed units calibration values resolve into.
var baseUnits = map[string]bool{
	"s":  true,
	"Hz": true,
}

// ApplyPrefix converts a value tagged with an SI-prefixed unit into the
// corresponding base unit (e.g. 100 "µs" becomes 100e-6 seconds).
// Dimensionless values (empty unit) and values already in a base unit pass
// through unchanged. Anything else is an error.
func ApplyPrefix(value float64, unit string) (float64, error) {
	if unit == "" || baseUnits[unit] {
		return value, nil
	}
	for _, p := range siPrefixes {
		rest, ok := strings.CutPrefix(unit, p.prefix)
		if ok && baseUnits[rest] {
			return value * p.factor, nil
		}
	}
	return 0, fmt.Errorf("could not understand units %q: %w", unit, ErrUnknownUnit)
}
