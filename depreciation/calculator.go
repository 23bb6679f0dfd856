/*
Package depreciation computes fixed-asset depreciation schedules.

PURPOSE:
  Pure schedule generation over the engine's period and rounding
  machinery. Two methods are supported, dispatched through a table so
  adding a method is a localized change:

  StraightLine:
    Equal per-period amounts. The first period is scaled by its day
    fraction under the apportion policy; the last period receives the
    rounding plug so the total exactly equals the depreciable amount.

  DecliningBalance:
    Per-period amount = opening net book value x periodic rate, clamped
    so the closing balance never drops below salvage. The default rate is
    the double-declining factor (2 / period count); a custom rate
    overrides it. Once clamped, remaining periods are emitted with zero
    accrual for reporting continuity and the schedule is marked fully
    depreciated early.

MUTATIONS:
  Dispose and Revalue live in mutations.go. They preserve the actualized
  prefix and regenerate or truncate only the future tail.
*/
package depreciation

import (
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
)

// formulaFunc computes the full entry list for one depreciation method.
// Implementations are pure; rounding is the only stateful-looking part
// and it is parameterized.
type formulaFunc func(b engine.AssetBasis, periods []engine.SchedulePeriod, rp engine.RoundingPolicy) ([]engine.ScheduleEntry, engine.Status)

var formulas = map[engine.DepreciationMethod]formulaFunc{
	engine.MethodStraightLine:     straightLine,
	engine.MethodDecliningBalance: decliningBalance,
}

// Generate computes a depreciation schedule from an asset basis. The
// basis is validated before any period is generated; the result is
// re-checked against every schedule invariant before it is returned.
func Generate(b engine.AssetBasis) (*engine.Schedule, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	formula, ok := formulas[b.Method]
	if !ok {
		return nil, &engine.ValidationError{Field: "method", Reason: "unknown depreciation method " + string(b.Method)}
	}

	periods, err := engine.GeneratePeriods(b.ServiceStart, b.UsefulLifeMonths, b.Granularity, b.PartialPolicy)
	if err != nil {
		return nil, err
	}

	rp := engine.RoundingFor(b.Currency)
	entries, status := formula(b, periods, rp)

	s := &engine.Schedule{
		Kind:     engine.KindAsset,
		Currency: b.Currency,
		Basis:    b,
		Entries:  entries,
		Version:  1,
		Status:   status,
	}
	if err := engine.NewValidator(rp).ValidateGenerated(s); err != nil {
		return nil, err
	}
	return s, nil
}

// =============================================================================
// STRAIGHT LINE
// =============================================================================

func straightLine(b engine.AssetBasis, periods []engine.SchedulePeriod, rp engine.RoundingPolicy) ([]engine.ScheduleEntry, engine.Status) {
	depreciable := b.DepreciableAmount()
	// Per-period base independent of the entry count: a partial first or
	// truncated last period still divides the amount over the nominal
	// term.
	base := depreciable.
		Mul(decimal.NewFromInt(int64(b.Granularity.Months()))).
		Div(decimal.NewFromInt(int64(b.UsefulLifeMonths)))

	entries := make([]engine.ScheduleEntry, 0, len(periods))
	nbv := rp.Round(b.AcquisitionCost)
	accrued := decimal.Zero

	for i, p := range periods {
		var amount decimal.Decimal
		if i == len(periods)-1 {
			amount = rp.Plug(depreciable, accrued)
		} else {
			amount = rp.Round(base.Mul(p.Fraction))
		}
		closing := nbv.Sub(amount)
		entries = append(entries, entryFor(p, nbv, amount, closing))
		nbv = closing
		accrued = accrued.Add(amount)
	}
	return entries, engine.Status{State: engine.StatusActive}
}

// =============================================================================
// DECLINING BALANCE
// =============================================================================

// defaultDecliningFactor is the double-declining convention used when no
// custom rate is supplied.
var defaultDecliningFactor = decimal.NewFromInt(2)

func decliningBalance(b engine.AssetBasis, periods []engine.SchedulePeriod, rp engine.RoundingPolicy) ([]engine.ScheduleEntry, engine.Status) {
	rate := periodicRate(b)
	salvage := rp.Round(b.SalvageValue)

	entries := make([]engine.ScheduleEntry, 0, len(periods))
	nbv := rp.Round(b.AcquisitionCost)
	status := engine.Status{State: engine.StatusActive}
	clamped := false

	for i, p := range periods {
		var amount decimal.Decimal
		switch {
		case clamped:
			amount = decimal.Zero
		case i == len(periods)-1:
			// Final period always plugs down to salvage.
			amount = rp.Plug(nbv, salvage)
		default:
			amount = rp.Round(nbv.Mul(rate).Mul(p.Fraction))
			if nbv.Sub(amount).LessThan(salvage) {
				amount = nbv.Sub(salvage)
				clamped = true
				end := p.End
				status = engine.Status{State: engine.StatusFullyDepreciated, EffectiveDate: &end}
			}
		}
		closing := nbv.Sub(amount)
		entries = append(entries, entryFor(p, nbv, amount, closing))
		nbv = closing
	}
	return entries, status
}

func periodicRate(b engine.AssetBasis) decimal.Decimal {
	if b.CustomRate != nil {
		return *b.CustomRate
	}
	periodCount := decimal.NewFromInt(int64(b.UsefulLifeMonths)).
		Div(decimal.NewFromInt(int64(b.Granularity.Months())))
	return defaultDecliningFactor.Div(periodCount)
}

func entryFor(p engine.SchedulePeriod, opening, amount, closing decimal.Decimal) engine.ScheduleEntry {
	return engine.ScheduleEntry{
		PeriodIndex:        p.Index,
		PeriodStart:        p.Start,
		PeriodEnd:          p.End,
		DayCount:           p.DayCount,
		OpeningBalance:     opening,
		AccruedAmount:      amount,
		PrincipalComponent: decimal.Zero,
		Payment:            decimal.Zero,
		ClosingBalance:     closing,
	}
}
