// internal/domain/recurrence/frequency.go
package recurrence

import (
	"fmt"
	"strings"
)

// Frequency is how often a schedule produces an occurrence.
type Frequency string

const (
	FrequencyOneTime   Frequency = "one-time"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ParseFrequency normalizes user-entered frequency names.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-time", "onetime", "once":
		return FrequencyOneTime, nil
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "biweekly", "bi-weekly", "fortnightly":
		return FrequencyBiweekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	case "quarterly":
		return FrequencyQuarterly, nil
	case "yearly", "annually", "annual":
		return FrequencyYearly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Recurring is false only for one-time schedules.
func (f Frequency) Recurring() bool {
	return f.Valid() && f != FrequencyOneTime
}

// stepDays returns the fixed step in days for day-based frequencies, 0 otherwise.
func (f Frequency) stepDays() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	}
	return 0
}

// stepMonths returns the calendar step in months for month-based frequencies, 0 otherwise.
func (f Frequency) stepMonths() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	}
	return 0
}
