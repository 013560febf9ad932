package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProrationResult describes the fee due for a partial first billing period.
type ProrationResult struct {
	Fee           decimal.Decimal `json:"fee"`
	RemainingDays int             `json:"remaining_days"`
	DaysInMonth   int             `json:"days_in_month"`
	Note          string          `json:"note"`
}

// ProrateMonthlyFee computes the fee due for an enrollment starting at
// effectiveDate. With fullMonth set, the whole monthly fee is charged.
// Otherwise the fee is scaled by the days remaining in the month, inclusive
// of the enrollment day, and rounded to the nearest whole currency unit.
// An enrollment on the last day of the month still yields one billable day.
//
// Pure function: no clock, no I/O.
func ProrateMonthlyFee(monthlyFee decimal.Decimal, effectiveDate time.Time, fullMonth bool) ProrationResult {
	daysInMonth := daysIn(effectiveDate)

	if fullMonth {
		return ProrationResult{
			Fee:           monthlyFee.Round(2),
			RemainingDays: daysInMonth,
			DaysInMonth:   daysInMonth,
			Note:          "full month fee",
		}
	}

	remainingDays := daysInMonth - effectiveDate.Day() + 1
	factor := decimal.NewFromInt(int64(remainingDays)).
		Div(decimal.NewFromInt(int64(daysInMonth)))
	fee := monthlyFee.Mul(factor).Round(0)

	return ProrationResult{
		Fee:           fee,
		RemainingDays: remainingDays,
		DaysInMonth:   daysInMonth,
		Note:          fmt.Sprintf("prorated fee: %d of %d days", remainingDays, daysInMonth),
	}
}

// daysIn returns the number of days in the month containing t.
func daysIn(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// monthPeriod returns the first and last day of the calendar month
// containing t, in t's location.
func monthPeriod(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, -1)
	return start, end
}
