package domain

import (
	"fmt"
	"strings"
)

// Duration is the recency window of a collection.
type Duration string

const (
	Last24Hours Duration = "24 hrs"
	Last7Days   Duration = "7 days"
	LastMonth   Duration = "1 Month"
	Last3Months Duration = "3 Months"
	Last6Months Duration = "6 Months"
	LastYear    Duration = "1 year"
	AllTime     Duration = "All time"
)

var durations = []Duration{Last24Hours, Last7Days, LastMonth, Last3Months, Last6Months, LastYear, AllTime}

// Durations returns every accepted duration in display order.
func Durations() []Duration {
	out := make([]Duration, len(durations))
	copy(out, durations)
	return out
}

// DurationNames returns the accepted durations as strings.
func DurationNames() []string {
	names := make([]string, len(durations))
	for i, d := range durations {
		names[i] = string(d)
	}
	return names
}

// ParseDuration accepts exactly one of the seven duration labels.
func ParseDuration(s string) (Duration, error) {
	for _, d := range durations {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of: %s", ErrInvalidDuration, s, strings.Join(DurationNames(), ", "))
}

// Valid reports whether d is one of the seven labels.
func (d Duration) Valid() bool {
	_, err := ParseDuration(string(d))
	return err == nil
}

// RecencyFilter maps d onto the provider's search recency filter. AllTime
// maps to "" which means no filter.
func (d Duration) RecencyFilter() string {
	switch d {
	case Last24Hours:
		return "day"
	case Last7Days:
		return "week"
	case LastMonth, Last3Months, Last6Months:
		return "month"
	case LastYear:
		return "year"
	default:
		return ""
	}
}
