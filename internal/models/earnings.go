package models

import "fmt"

// EarningsPeriod selects the window for courier earnings.
type EarningsPeriod string

const (
	PeriodToday EarningsPeriod = "today"
	PeriodWeek  EarningsPeriod = "week"
	PeriodMonth EarningsPeriod = "month"
)

// ParseEarningsPeriod validates a period name. Empty means week.
func ParseEarningsPeriod(raw string) (EarningsPeriod, error) {
	switch p := EarningsPeriod(raw); p {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return p, nil
	case "":
		return PeriodWeek, nil
	}
	return "", fmt.Errorf("invalid earnings period %q", raw)
}

// Earnings summarizes delivery fees collected by a courier over a period.
type Earnings struct {
	Period     EarningsPeriod `json:"period"`
	Total      float64        `json:"total"`
	Deliveries int            `json:"deliveries"`
	Average    float64        `json:"average"`
}
