/*
validate.go - Post-generation invariant checks

PURPOSE:
  Re-checks every schedule invariant after a Generate or Mutate call. A
  violation here means the engine produced a defective schedule despite
  the rounding plug, so it is reported as InvariantViolation (a defect),
  never as a user error.

INVARIANTS:
  - Entry indexes are contiguous from 0; period dates are contiguous
  - Actual entries form a contiguous prefix
  - OpeningBalance[i] == ClosingBalance[i-1] (skipped across a Rebased
    boundary, where a revaluation or prepayment stepped the balance)
  - Per-entry arithmetic: closing == opening - principal (loans) or
    opening - accrued (assets)
  - Balance floors: closing >= salvage (assets) / >= 0 (loans)
  - Totals for freshly generated schedules: accrued sums to the
    depreciable amount, principal sums to the loan principal, final
    closing hits salvage / zero

TOLERANCE:
  All comparisons allow epsilon, one minor currency unit by default.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validator re-checks schedule invariants with a rounding tolerance.
type Validator struct {
	Epsilon decimal.Decimal
}

// NewValidator builds a validator whose tolerance matches the rounding
// policy: one minor unit.
func NewValidator(rp RoundingPolicy) *Validator {
	return &Validator{Epsilon: rp.Epsilon()}
}

func (v *Validator) within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(v.Epsilon)
}

// ValidateGenerated checks a schedule fresh out of a calculator: full
// structural checks plus the conservation totals.
func (v *Validator) ValidateGenerated(s *Schedule) error {
	if err := v.validateStructure(s); err != nil {
		return err
	}
	return v.validateTotals(s)
}

// ValidateMutated checks a schedule after a mutation spliced in a new
// tail. Conservation totals no longer hold against the original basis
// (the tail was generated from a rebased one), so only structure and
// balance floors are checked here; the mutation handler validates the
// regenerated tail against its own basis before splicing.
func (v *Validator) ValidateMutated(s *Schedule) error {
	return v.validateStructure(s)
}

func (v *Validator) validateStructure(s *Schedule) error {
	if len(s.Entries) == 0 {
		return &InvariantViolationError{Check: "non_empty", Detail: "schedule has no entries"}
	}

	salvageFloor := decimal.Zero
	if asset, ok := s.Basis.(AssetBasis); ok {
		salvageFloor = asset.SalvageValue
	}

	seenFuture := false
	for i, e := range s.Entries {
		if e.PeriodIndex != s.Entries[0].PeriodIndex+i {
			return &InvariantViolationError{Check: "index_contiguity",
				Detail: fmt.Sprintf("entry %d has period index %d", i, e.PeriodIndex)}
		}
		if e.IsActual && seenFuture {
			return &InvariantViolationError{Check: "actual_prefix",
				Detail: fmt.Sprintf("actual entry %d follows a future entry", e.PeriodIndex)}
		}
		if !e.IsActual {
			seenFuture = true
		}
		if e.PeriodEnd.Before(e.PeriodStart) {
			return &InvariantViolationError{Check: "period_order",
				Detail: fmt.Sprintf("entry %d ends before it starts", e.PeriodIndex)}
		}
		if i > 0 {
			prev := s.Entries[i-1]
			if !e.PeriodStart.Equal(prev.PeriodEnd.AddDays(1)) {
				return &InvariantViolationError{Check: "period_contiguity",
					Detail: fmt.Sprintf("entry %d does not start the day after entry %d ends", e.PeriodIndex, prev.PeriodIndex)}
			}
			if !e.Rebased && !v.within(e.OpeningBalance, prev.ClosingBalance) {
				return &InvariantViolationError{Check: "balance_chain",
					Detail: fmt.Sprintf("entry %d opens at %s but entry %d closed at %s",
						e.PeriodIndex, e.OpeningBalance, prev.PeriodIndex, prev.ClosingBalance)}
			}
		}

		var expectedClosing decimal.Decimal
		switch s.Kind {
		case KindLoan:
			expectedClosing = e.OpeningBalance.Sub(e.PrincipalComponent)
		default:
			expectedClosing = e.OpeningBalance.Sub(e.AccruedAmount)
		}
		if !v.within(e.ClosingBalance, expectedClosing) {
			return &InvariantViolationError{Check: "entry_arithmetic",
				Detail: fmt.Sprintf("entry %d closing %s does not match %s", e.PeriodIndex, e.ClosingBalance, expectedClosing)}
		}
		if e.AccruedAmount.IsNegative() || e.PrincipalComponent.IsNegative() {
			return &InvariantViolationError{Check: "non_negative_components",
				Detail: fmt.Sprintf("entry %d has a negative component", e.PeriodIndex)}
		}
		if e.ClosingBalance.LessThan(salvageFloor.Sub(v.Epsilon)) {
			return &InvariantViolationError{Check: "balance_floor",
				Detail: fmt.Sprintf("entry %d closes at %s, below the floor %s", e.PeriodIndex, e.ClosingBalance, salvageFloor)}
		}
	}
	return nil
}

func (v *Validator) validateTotals(s *Schedule) error {
	last := s.Entries[len(s.Entries)-1]
	switch basis := s.Basis.(type) {
	case AssetBasis:
		if !v.within(s.Entries[0].OpeningBalance, basis.AcquisitionCost) {
			return &InvariantViolationError{Check: "opening_balance",
				Detail: fmt.Sprintf("schedule opens at %s, acquisition cost is %s", s.Entries[0].OpeningBalance, basis.AcquisitionCost)}
		}
		if !v.within(s.TotalAccrued(), basis.DepreciableAmount()) {
			return &InvariantViolationError{Check: "depreciation_conservation",
				Detail: fmt.Sprintf("accrued %s, depreciable amount is %s", s.TotalAccrued(), basis.DepreciableAmount())}
		}
		if !v.within(last.ClosingBalance, basis.SalvageValue) {
			return &InvariantViolationError{Check: "final_salvage",
				Detail: fmt.Sprintf("final closing %s, salvage is %s", last.ClosingBalance, basis.SalvageValue)}
		}
	case LoanBasis:
		if !v.within(s.Entries[0].OpeningBalance, basis.Principal) {
			return &InvariantViolationError{Check: "opening_balance",
				Detail: fmt.Sprintf("schedule opens at %s, principal is %s", s.Entries[0].OpeningBalance, basis.Principal)}
		}
		if !v.within(s.TotalPrincipal(), basis.Principal) {
			return &InvariantViolationError{Check: "principal_conservation",
				Detail: fmt.Sprintf("principal components sum to %s, principal is %s", s.TotalPrincipal(), basis.Principal)}
		}
		if !v.within(last.ClosingBalance, decimal.Zero) {
			return &InvariantViolationError{Check: "final_payoff",
				Detail: fmt.Sprintf("final closing %s, expected zero", last.ClosingBalance)}
		}
	}
	return nil
}
