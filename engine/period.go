/*
period.go - Accounting period generation

PURPOSE:
  Produces the ordered, contiguous set of accounting periods a schedule is
  computed over. Both calculators (depreciation, loan amortization) consume
  the same period machinery so partial-period and truncation rules live in
  exactly one place.

TWO GENERATORS:
  GeneratePeriods:
    Calendar-aligned periods for depreciation schedules. The first period
    may be a partial calendar period (mid-month in-service date); the last
    period is truncated when the term does not divide evenly.

  GeneratePaymentPeriods:
    Anniversary-aligned periods for loan schedules. Every period ends on a
    payment date derived from the first payment date and the payment
    frequency.

PARTIAL FIRST PERIOD:
  PartialApportion:
    The first period carries its actual day count and a day fraction
    (actual days / full period days, actual/actual convention). Calculators
    scale the first amount by this fraction.
  PartialFullFirst:
    The start date is snapped to the beginning of its calendar period and
    the first period is full-length. The fraction is always 1.

DETERMINISM:
  Same inputs always produce the same period list. There is no wall-clock
  dependency anywhere in this file.

SEE ALSO:
  - depreciation/calculator.go: consumes GeneratePeriods
  - loan/calculator.go: consumes GeneratePaymentPeriods
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GRANULARITY - How long one accounting period is
// =============================================================================

type Granularity string

const (
	GranularityMonthly    Granularity = "monthly"
	GranularityQuarterly  Granularity = "quarterly"
	GranularitySemiAnnual Granularity = "semiannual"
	GranularityAnnual     Granularity = "annual"
)

// Months returns the length of one period in months, or 0 for an unknown
// granularity.
func (g Granularity) Months() int {
	switch g {
	case GranularityMonthly:
		return 1
	case GranularityQuarterly:
		return 3
	case GranularitySemiAnnual:
		return 6
	case GranularityAnnual:
		return 12
	default:
		return 0
	}
}

// PartialPeriodPolicy controls how a mid-period start date is handled.
type PartialPeriodPolicy string

const (
	PartialApportion PartialPeriodPolicy = "apportion"
	PartialFullFirst PartialPeriodPolicy = "full_first_period"
)

// =============================================================================
// SCHEDULE PERIOD - One generated period
// =============================================================================

// SchedulePeriod is one accounting period. Start and End are both
// inclusive; the next period starts at End + 1 day.
type SchedulePeriod struct {
	Index    int
	Start    TimePoint
	End      TimePoint
	DayCount int

	// Fraction is 1 for full periods. Under PartialApportion a partial
	// first period carries actualDays/fullPeriodDays.
	Fraction decimal.Decimal
}

// =============================================================================
// PERIOD GENERATION - Calendar-aligned (depreciation)
// =============================================================================

// GeneratePeriods returns the contiguous periods covering
// [start, start+termMonths), calendar-aligned to the granularity.
func GeneratePeriods(start TimePoint, termMonths int, g Granularity, policy PartialPeriodPolicy) ([]SchedulePeriod, error) {
	months := g.Months()
	if months == 0 {
		return nil, &ValidationError{Field: "granularity", Reason: "unknown granularity " + string(g)}
	}
	if termMonths <= 0 {
		return nil, &ValidationError{Field: "term_months", Reason: "term must be positive"}
	}

	effectiveStart := start
	if policy == PartialFullFirst {
		effectiveStart = startOfGranularPeriod(start, g)
	}
	// End of coverage, inclusive. The term is measured from the effective
	// start so a full-first-period schedule runs whole periods.
	termEnd := effectiveStart.AddMonths(termMonths).AddDays(-1)

	var periods []SchedulePeriod
	cursor := effectiveStart
	for index := 0; cursor.BeforeOrEqual(termEnd); index++ {
		periodStart := startOfGranularPeriod(cursor, g)
		periodEnd := periodStart.AddMonths(months).AddDays(-1)

		actualStart := cursor
		actualEnd := periodEnd
		if actualEnd.After(termEnd) {
			actualEnd = termEnd
		}

		fullDays := DaysBetween(periodStart, periodEnd) + 1
		actualDays := DaysBetween(actualStart, actualEnd) + 1

		fraction := decimal.NewFromInt(1)
		if index == 0 && policy == PartialApportion && actualDays < fullDays {
			fraction = decimal.NewFromInt(int64(actualDays)).Div(decimal.NewFromInt(int64(fullDays)))
		}

		periods = append(periods, SchedulePeriod{
			Index:    index,
			Start:    actualStart,
			End:      actualEnd,
			DayCount: actualDays,
			Fraction: fraction,
		})
		cursor = actualEnd.AddDays(1)
	}
	return periods, nil
}

func startOfGranularPeriod(date TimePoint, g Granularity) TimePoint {
	year, month := date.Year(), date.Month()
	switch g {
	case GranularityMonthly:
		return NewTimePoint(year, month, 1)
	case GranularityQuarterly:
		quarterStart := time.Month((int(month)-1)/3*3 + 1)
		return NewTimePoint(year, quarterStart, 1)
	case GranularitySemiAnnual:
		if month >= time.July {
			return NewTimePoint(year, time.July, 1)
		}
		return NewTimePoint(year, time.January, 1)
	default:
		return NewTimePoint(year, time.January, 1)
	}
}

// =============================================================================
// PAYMENT PERIOD GENERATION - Anniversary-aligned (loans)
// =============================================================================

// GeneratePaymentPeriods returns one period per installment. Period i ends
// on payment date i; the first period begins one payment interval before
// the first payment date.
func GeneratePaymentPeriods(firstPayment TimePoint, termMonths, frequencyPerYear int) ([]SchedulePeriod, error) {
	monthsPerPayment, err := MonthsPerPayment(frequencyPerYear)
	if err != nil {
		return nil, err
	}
	if termMonths <= 0 {
		return nil, &ValidationError{Field: "term_months", Reason: "term must be positive"}
	}
	if termMonths%monthsPerPayment != 0 {
		return nil, &ValidationError{Field: "term_months", Reason: "term not aligned to payment frequency"}
	}

	count := termMonths / monthsPerPayment

	// Every payment date is an anniversary of the first one, so a
	// month-end first payment clamps (Jan 31, Feb 28, Mar 31, ...)
	// instead of drifting into the following month.
	periods := make([]SchedulePeriod, 0, count)
	prevEnd := firstPayment.AddMonthsClamped(-monthsPerPayment)
	for i := 0; i < count; i++ {
		start := prevEnd.AddDays(1)
		end := firstPayment.AddMonthsClamped(i * monthsPerPayment)
		prevEnd = end
		periods = append(periods, SchedulePeriod{
			Index:    i,
			Start:    start,
			End:      end,
			DayCount: DaysBetween(start, end) + 1,
			Fraction: decimal.NewFromInt(1),
		})
	}
	return periods, nil
}

// MonthsPerPayment converts a per-year payment frequency into the interval
// between payments in months.
func MonthsPerPayment(frequencyPerYear int) (int, error) {
	switch frequencyPerYear {
	case 1, 2, 4, 12:
		return 12 / frequencyPerYear, nil
	default:
		return 0, &ValidationError{Field: "payment_frequency", Reason: "payment frequency must be 1, 2, 4 or 12 per year"}
	}
}
