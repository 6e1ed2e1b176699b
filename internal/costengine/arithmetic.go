// Package costengine holds the allocation arithmetic shared by the cost
// plugins: amortization of period costs into daily rates, percentage splits
// and proportional-by-usage pricing. All money math is decimal.
package costengine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scrooge/pkg/timeutil"
)

var hundred = decimal.NewFromInt(100)

// DailyRate amortizes a total cost valid over the inclusive [start, end]
// range into a uniform daily rate.
func DailyRate(total decimal.Decimal, start, end time.Time) decimal.Decimal {
	days := timeutil.DaysInRange(start, end)
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days)))
}

// MonthlyRate amortizes a monthly total into a daily rate using the number
// of days of the calendar month containing date.
func MonthlyRate(total decimal.Decimal, date time.Time) decimal.Decimal {
	return total.Div(decimal.NewFromInt(int64(timeutil.DaysInMonth(date))))
}

// Share returns percent of a daily total.
func Share(total decimal.Decimal, percent float64) decimal.Decimal {
	return total.Mul(decimal.NewFromFloat(percent)).Div(hundred)
}

// Proportion returns total scaled by value/totalValue. A zero denominator
// yields zero rather than an error: no usage means nothing to charge.
func Proportion(total, value, totalValue decimal.Decimal) decimal.Decimal {
	if totalValue.IsZero() {
		return decimal.Zero
	}
	return total.Mul(value).Div(totalValue)
}

// UnitPriceFromCost converts a period cost into a unit price over the total
// usage recorded in the same period.
func UnitPriceFromCost(cost, totalUsage decimal.Decimal) decimal.Decimal {
	if totalUsage.IsZero() {
		return decimal.Zero
	}
	return cost.Div(totalUsage)
}

// PercentSumError reports a percentage division that does not add up to 100.
type PercentSumError struct {
	Subject string
	Sum     float64
}

func (e *PercentSumError) Error() string {
	return fmt.Sprintf("percentage division of %s sums to %v, expected 100", e.Subject, e.Sum)
}

// ValidatePercents checks that the percentages applying to a single date sum
// to 100 within epsilon. Violations surface as configuration errors instead
// of being silently normalized.
func ValidatePercents(subject string, percents []float64, epsilon float64) error {
	var sum float64
	for _, p := range percents {
		sum += p
	}
	diff := sum - 100
	if diff < 0 {
		diff = -diff
	}
	if diff >= epsilon {
		return &PercentSumError{Subject: subject, Sum: sum}
	}
	return nil
}
