/*
mutations.go - Prepayment and restructuring of loan schedules

PURPOSE:
  Applies repayment events to an existing loan schedule. Both operations
  preserve the actualized prefix, regenerate only the future tail from a
  fresh basis, and are atomic: a failed regeneration leaves the prior
  schedule untouched.

PREPAY:
  Reduces the balance at the payment date by the amount beyond that
  period's scheduled principal. A contractual prepayment penalty, when
  present on the basis, is deducted from the amount before it reduces
  principal. If the reduced balance reaches zero and closeIfPaidOff is
  set, the remaining periods are dropped and the schedule is closed;
  otherwise the tail is regenerated over the remaining term at the same
  rate and method.

RESTRUCTURE:
  Rebuilds the entire future tail from the outstanding balance with a new
  rate and term. Old future entries are discarded unconditionally; there
  is no partial carry-over of the old terms.
*/
package loan

import (
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
)

// Prepay applies an unscheduled principal payment at paymentDate.
func Prepay(s *engine.Schedule, paymentDate engine.TimePoint, amount decimal.Decimal, closeIfPaidOff bool) (*engine.Schedule, error) {
	basis, ok := s.Basis.(engine.LoanBasis)
	if !ok {
		return nil, &engine.ValidationError{Field: "schedule", Reason: "prepay applies to loan schedules only"}
	}
	if !basis.AllowsPrepayment {
		return nil, &engine.ValidationError{Field: "allows_prepayment", Reason: "loan contract does not allow prepayment"}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &engine.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	boundary := s.FirstFutureIndex()
	idx := s.EntryContaining(paymentDate)
	if idx == -1 {
		return nil, &engine.ValidationError{Field: "payment_date", Reason: "outside the schedule"}
	}
	if idx < boundary-1 {
		return nil, &engine.ValidationError{Field: "payment_date", Reason: "falls within actualized periods"}
	}

	rp := engine.RoundingFor(s.Currency)

	// Penalty is withheld from the payment before it reduces principal.
	reduction := amount
	if basis.PrepaymentPenaltyPct != nil {
		penalty := rp.Round(amount.Mul(*basis.PrepaymentPenaltyPct))
		reduction = amount.Sub(penalty)
	}

	newBalance := rp.Round(s.Entries[idx].ClosingBalance.Sub(reduction))

	if newBalance.LessThanOrEqual(rp.Epsilon()) {
		if !closeIfPaidOff {
			return nil, &engine.ValidationError{Field: "amount", Reason: "exceeds the outstanding balance"}
		}
		out := s.Clone()
		out.Entries = out.Entries[:idx+1]
		out.Status = engine.Status{State: engine.StatusFullyPaidOff, Reason: "prepaid", EffectiveDate: &paymentDate}
		out.Version = s.Version + 1
		if err := engine.NewValidator(rp).ValidateMutated(out); err != nil {
			return nil, err
		}
		return out, nil
	}

	monthsPerPayment, err := engine.MonthsPerPayment(basis.PaymentFrequency)
	if err != nil {
		return nil, err
	}
	elapsedMonths := (idx + 1) * monthsPerPayment
	remainingTerm := basis.TermMonths - elapsedMonths
	if remainingTerm <= 0 {
		return nil, &engine.ValidationError{Field: "amount", Reason: "no periods remain to amortize the balance"}
	}

	rebasis := basis
	rebasis.Principal = newBalance
	rebasis.TermMonths = remainingTerm
	rebasis.FirstPayment = s.Entries[idx+1].PeriodEnd
	rebasis.GraceMonths = 0
	if remaining := basis.GraceMonths - elapsedMonths; remaining > 0 {
		rebasis.GraceMonths = remaining
	}

	tail, err := Generate(rebasis)
	if err != nil {
		return nil, err
	}

	out := s.SpliceTail(idx+1, tail.Entries)
	out.Version = s.Version + 1
	if err := engine.NewValidator(rp).ValidateMutated(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Restructure rebuilds the future tail from the outstanding balance with
// a new rate and term. For a variable-interest loan the new rate is the
// snapshot taken at restructuring time.
func Restructure(s *engine.Schedule, effectiveDate engine.TimePoint, newRate decimal.Decimal, newTermMonths int) (*engine.Schedule, error) {
	basis, ok := s.Basis.(engine.LoanBasis)
	if !ok {
		return nil, &engine.ValidationError{Field: "schedule", Reason: "restructure applies to loan schedules only"}
	}

	boundary := s.FirstFutureIndex()
	if boundary >= len(s.Entries) {
		return nil, &engine.ValidationError{Field: "effective_date", Reason: "schedule has no future periods to restructure"}
	}
	if effectiveDate.After(s.Entries[boundary].PeriodEnd) {
		return nil, &engine.ValidationError{Field: "effective_date", Reason: "beyond the next scheduled payment"}
	}

	rebasis := basis
	rebasis.Principal = s.RemainingBalance()
	rebasis.AnnualRate = newRate
	rebasis.TermMonths = newTermMonths
	rebasis.FirstPayment = s.Entries[boundary].PeriodEnd
	rebasis.GraceMonths = 0

	tail, err := Generate(rebasis)
	if err != nil {
		return nil, err
	}

	out := s.SpliceTail(boundary, tail.Entries)
	out.Version = s.Version + 1

	rp := engine.RoundingFor(s.Currency)
	if err := engine.NewValidator(rp).ValidateMutated(out); err != nil {
		return nil, err
	}
	return out, nil
}
