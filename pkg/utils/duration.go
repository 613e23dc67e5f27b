package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCompact renders seconds in the largest fitting unit with up to two decimals:
// "42s", "12.5m", "36.25h"
func FormatCompact(seconds int64) string {
	switch {
	case seconds < 60:
		return trimDecimals(float64(seconds)) + "s"
	case seconds < 3600:
		return trimDecimals(float64(seconds)/60) + "m"
	default:
		return trimDecimals(float64(seconds)/3600) + "h"
	}
}

func trimDecimals(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatISO8601 renders a non-negative offset as an ISO-8601 duration, e.g. "P1DT2H30M".
// Zero is "PT0S".
func FormatISO8601(seconds int64) string {
	if seconds <= 0 {
		return "PT0S"
	}
	d := seconds / 86400
	h := (seconds % 86400) / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	var b strings.Builder
	b.WriteString("P")
	if d > 0 {
		fmt.Fprintf(&b, "%dD", d)
	}
	if h > 0 || m > 0 || s > 0 {
		b.WriteString("T")
		if h > 0 {
			fmt.Fprintf(&b, "%dH", h)
		}
		if m > 0 {
			fmt.Fprintf(&b, "%dM", m)
		}
		if s > 0 {
			fmt.Fprintf(&b, "%dS", s)
		}
	}
	return b.String()
}

// FormatHuman renders seconds as "1d 2h 3m 4s", dropping zero units
func FormatHuman(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	units := []struct {
		size   int64
		suffix string
	}{
		{86400, "d"},
		{3600, "h"},
		{60, "m"},
		{1, "s"},
	}
	var parts []string
	for _, u := range units {
		if n := seconds / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
			seconds %= u.size
		}
	}
	return strings.Join(parts, " ")
}
