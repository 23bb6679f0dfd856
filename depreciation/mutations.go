/*
mutations.go - Disposal and revaluation of asset schedules

PURPOSE:
  Applies lifecycle events to an existing depreciation schedule. Both
  operations split the schedule at the event date into an immutable
  actualized prefix and a replaceable future tail, and are atomic: they
  work on a clone and either return a fully validated schedule or an
  error, never a half-mutated one.

DISPOSE:
  Truncates the schedule at the disposal date. If the date falls inside a
  period, that period's depreciation is apportioned by day fraction so
  the net book value at disposal is interpolated. GainLoss = proceeds -
  NBV. Zero proceeds models a scrap, per the source system's
  sale-vs-scrap distinction.

REVALUE:
  Replaces the remaining depreciable amount with newValue - salvage and
  regenerates the tail over the remaining useful life, starting at the
  period containing the revaluation date. The first regenerated entry is
  rebased (its opening balance steps to the new value).
*/
package depreciation

import (
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
)

// Dispose terminates an asset schedule at disposalDate and records the
// gain or loss against the proceeds.
func Dispose(s *engine.Schedule, disposalDate engine.TimePoint, proceeds decimal.Decimal) (*engine.Schedule, error) {
	basis, ok := s.Basis.(engine.AssetBasis)
	if !ok {
		return nil, &engine.ValidationError{Field: "schedule", Reason: "dispose applies to asset schedules only"}
	}
	if proceeds.IsNegative() {
		return nil, &engine.ValidationError{Field: "proceeds", Reason: "must not be negative"}
	}

	rp := engine.RoundingFor(s.Currency)
	boundary := s.FirstFutureIndex()

	out := s.Clone()
	var nbv decimal.Decimal

	idx := s.EntryContaining(disposalDate)
	switch {
	case len(s.Entries) == 0:
		return nil, &engine.ValidationError{Field: "disposal_date", Reason: "schedule has no entries"}

	case idx == -1 && disposalDate.After(s.Entries[len(s.Entries)-1].PeriodEnd):
		// Disposed after the schedule fully ran; nothing to truncate.
		nbv = s.Entries[len(s.Entries)-1].ClosingBalance

	case idx == -1:
		return nil, &engine.ValidationError{Field: "disposal_date", Reason: "before the schedule starts"}

	case idx < boundary-1,
		idx == boundary-1 && disposalDate.Before(s.Entries[idx].PeriodEnd):
		return nil, &engine.ValidationError{Field: "disposal_date", Reason: "falls within actualized periods"}

	case idx == boundary-1:
		// Exactly the end of the last posted period.
		out.Entries = out.Entries[:boundary]
		nbv = out.Entries[boundary-1].ClosingBalance

	default:
		keep := idx
		entry := s.Entries[idx]
		if disposalDate.Equal(entry.PeriodEnd) {
			keep = idx + 1
			nbv = entry.ClosingBalance
		} else {
			// Apportion the disposal period by elapsed days
			// (actual/actual) to interpolate the NBV.
			elapsed := decimal.NewFromInt(int64(engine.DaysBetween(entry.PeriodStart, disposalDate) + 1))
			total := decimal.NewFromInt(int64(entry.DayCount))
			amount := rp.Round(entry.AccruedAmount.Mul(elapsed).Div(total))
			nbv = entry.OpeningBalance.Sub(amount)

			partial := entry
			partial.PeriodEnd = disposalDate
			partial.DayCount = engine.DaysBetween(entry.PeriodStart, disposalDate) + 1
			partial.AccruedAmount = amount
			partial.ClosingBalance = nbv
			out.Entries = append(out.Entries[:idx], partial)
			keep = -1
		}
		if keep >= 0 {
			out.Entries = out.Entries[:keep]
		}
	}

	if nbv.LessThan(basis.SalvageValue.Sub(rp.Epsilon())) {
		return nil, &engine.InvariantViolationError{Check: "balance_floor", Detail: "disposal NBV below salvage value"}
	}

	gainLoss := rp.Round(proceeds.Sub(nbv))
	out.GainLoss = &gainLoss
	out.Status = engine.Status{State: engine.StatusTerminated, Reason: "disposed", EffectiveDate: &disposalDate}
	out.Version = s.Version + 1

	if err := engine.NewValidator(rp).ValidateMutated(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Revalue replaces the remaining depreciable amount with newValue minus
// salvage and regenerates the future tail over the remaining useful
// life. The actualized prefix is preserved unchanged.
func Revalue(s *engine.Schedule, revaluationDate engine.TimePoint, newValue decimal.Decimal) (*engine.Schedule, error) {
	basis, ok := s.Basis.(engine.AssetBasis)
	if !ok {
		return nil, &engine.ValidationError{Field: "schedule", Reason: "revalue applies to asset schedules only"}
	}

	boundary := s.FirstFutureIndex()
	if boundary >= len(s.Entries) {
		return nil, &engine.ValidationError{Field: "revaluation_date", Reason: "schedule has no future periods to revalue"}
	}

	idx := s.EntryContaining(revaluationDate)
	if idx < boundary {
		return nil, &engine.ValidationError{Field: "revaluation_date", Reason: "falls within actualized periods"}
	}

	// Elapsed life comes from dates, not the entry index: an apportioned
	// schedule's partial first entry is not a full period.
	elapsedMonths := engine.WholeMonthsBetween(basis.ServiceStart, s.Entries[idx].PeriodStart)
	remainingMonths := basis.UsefulLifeMonths - elapsedMonths
	if remainingMonths <= 0 {
		return nil, &engine.ValidationError{Field: "revaluation_date", Reason: "no remaining useful life"}
	}

	rebasis := basis
	rebasis.AcquisitionCost = newValue
	rebasis.UsefulLifeMonths = remainingMonths
	rebasis.ServiceStart = s.Entries[idx].PeriodStart
	rebasis.PartialPolicy = engine.PartialApportion

	tail, err := Generate(rebasis)
	if err != nil {
		return nil, err
	}

	out := s.SpliceTail(idx, tail.Entries)
	out.Status = tail.Status
	out.Version = s.Version + 1

	rp := engine.RoundingFor(s.Currency)
	if err := engine.NewValidator(rp).ValidateMutated(out); err != nil {
		return nil, err
	}
	return out, nil
}
