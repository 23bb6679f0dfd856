/*
Package loan computes loan amortization schedules.

PURPOSE:
  Pure schedule generation for three repayment methods, dispatched through
  a table keyed by the method tag:

  EqualInstallment (annuity):
    installment = P * r * (1+r)^n / ((1+r)^n - 1), constant per period;
    the interest/principal split shifts as the balance declines. A zero
    periodic rate takes a dedicated even-split branch instead of the
    annuity formula.

  EqualPrincipal:
    Constant principal per period, declining interest, varying payment.

  InterestOnly (bullet):
    Interest each period, the full principal in the final period.

GRACE PERIOD:
  The first k periods are interest-only regardless of method;
  amortization then runs over the remaining n-k periods.

ROUNDING:
  Interest and installments round half-to-even at the currency's minor
  unit. The final period's principal is plugged to the remaining balance
  so the schedule closes at exactly zero.

MUTATIONS:
  Prepay and Restructure live in mutations.go.
*/
package loan

import (
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
)

var one = decimal.NewFromInt(1)

// formulaFunc returns (interest, principal) for one amortizing period
// given its opening balance.
type formulaFunc func(ctx *amortization, opening decimal.Decimal) (interest, principal decimal.Decimal)

var formulas = map[engine.RepaymentMethod]formulaFunc{
	engine.RepayEqualInstallment: equalInstallment,
	engine.RepayEqualPrincipal:   equalPrincipal,
	engine.RepayInterestOnly:     interestOnly,
}

// amortization carries the per-schedule constants the formulas close
// over: the periodic rate, the rounding policy, and the constant
// installment / principal computed once at amortization start.
type amortization struct {
	rate             decimal.Decimal
	rp               engine.RoundingPolicy
	installment      decimal.Decimal // equal-installment method
	principalPerTerm decimal.Decimal // equal-principal method
}

// Generate computes an amortization schedule from a loan basis. For a
// variable interest type the basis carries the rate snapshot taken at
// generation time; regeneration after a restructure resnapshots it.
func Generate(b engine.LoanBasis) (*engine.Schedule, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	formula, ok := formulas[b.Method]
	if !ok {
		return nil, &engine.ValidationError{Field: "repayment_method", Reason: "unknown repayment method " + string(b.Method)}
	}

	periods, err := engine.GeneratePaymentPeriods(b.FirstPayment, b.TermMonths, b.PaymentFrequency)
	if err != nil {
		return nil, err
	}

	n := b.PeriodCount()
	k := b.GracePeriods()
	rp := engine.RoundingFor(b.Currency)
	ctx := newAmortization(b, rp, n-k)

	entries := make([]engine.ScheduleEntry, 0, n)
	balance := rp.Round(b.Principal)

	for i, p := range periods {
		interest := rp.Round(balance.Mul(ctx.rate))

		var principal decimal.Decimal
		switch {
		case i < k:
			// Grace prefix: interest only, any method.
			principal = decimal.Zero
		case i == n-1:
			// Final period plugs the remaining balance to zero.
			principal = balance
		default:
			interest, principal = formula(ctx, balance)
			// Accumulated rounding must never push the balance through
			// zero before the final plug.
			if principal.GreaterThan(balance) {
				principal = balance
			}
		}

		closing := balance.Sub(principal)
		entries = append(entries, engine.ScheduleEntry{
			PeriodIndex:        p.Index,
			PeriodStart:        p.Start,
			PeriodEnd:          p.End,
			DayCount:           p.DayCount,
			OpeningBalance:     balance,
			AccruedAmount:      interest,
			PrincipalComponent: principal,
			Payment:            interest.Add(principal),
			ClosingBalance:     closing,
		})
		balance = closing
	}

	s := &engine.Schedule{
		Kind:     engine.KindLoan,
		Currency: b.Currency,
		Basis:    b,
		Entries:  entries,
		Version:  1,
		Status:   engine.Status{State: engine.StatusActive},
	}
	if err := engine.NewValidator(rp).ValidateGenerated(s); err != nil {
		return nil, err
	}
	return s, nil
}

func newAmortization(b engine.LoanBasis, rp engine.RoundingPolicy, amortPeriods int) *amortization {
	ctx := &amortization{rate: b.PeriodicRate(), rp: rp}
	count := decimal.NewFromInt(int64(amortPeriods))

	// Equal principal: fixed slice of the principal per amortizing period.
	ctx.principalPerTerm = rp.Round(b.Principal.Div(count))

	// Equal installment: the annuity payment, or an even split at zero
	// rate where the annuity formula would divide by zero.
	if ctx.rate.IsZero() {
		ctx.installment = rp.Round(b.Principal.Div(count))
	} else {
		// P * r * (1+r)^n / ((1+r)^n - 1)
		pow := one.Add(ctx.rate).Pow(count)
		ctx.installment = rp.Round(b.Principal.Mul(ctx.rate).Mul(pow).Div(pow.Sub(one)))
	}
	return ctx
}

func equalInstallment(ctx *amortization, opening decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	interest := ctx.rp.Round(opening.Mul(ctx.rate))
	return interest, ctx.installment.Sub(interest)
}

func equalPrincipal(ctx *amortization, opening decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	interest := ctx.rp.Round(opening.Mul(ctx.rate))
	return interest, ctx.principalPerTerm
}

func interestOnly(ctx *amortization, opening decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	interest := ctx.rp.Round(opening.Mul(ctx.rate))
	return interest, decimal.Zero
}
