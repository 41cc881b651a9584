// Package fiscal implements the April–March fiscal calendar used for tax
// withholding compliance: Q1 Apr–Jun, Q2 Jul–Sep, Q3 Oct–Dec, Q4 Jan–Mar.
package fiscal

import (
	"fmt"
	"time"
)

// Period identifies the fiscal quarter and year a date falls into.
type Period struct {
	Quarter string
	Year    string
}

// QuarterOf returns the fiscal quarter label for a date.
func QuarterOf(t time.Time) string {
	switch t.Month() {
	case time.April, time.May, time.June:
		return "Q1"
	case time.July, time.August, time.September:
		return "Q2"
	case time.October, time.November, time.December:
		return "Q3"
	default:
		return "Q4"
	}
}

// YearLabel returns the fiscal year label for a date, e.g. "2026-27" for any
// date between April 2026 and March 2027.
func YearLabel(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// PeriodOf combines QuarterOf and YearLabel.
func PeriodOf(t time.Time) Period {
	return Period{Quarter: QuarterOf(t), Year: YearLabel(t)}
}
