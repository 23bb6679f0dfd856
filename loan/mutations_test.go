package loan_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
	"github.com/warp/finance-engine/loan"
)

// advanced generates the consumer loan schedule and posts the first n
// payments.
func advanced(t *testing.T, b engine.LoanBasis, n int) *engine.Schedule {
	t.Helper()
	s, err := loan.Generate(b)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for i := 0; i < n; i++ {
		s, err = s.MarkPeriodActual(i)
		if err != nil {
			t.Fatalf("advance period %d failed: %v", i, err)
		}
	}
	return s
}

// =============================================================================
// PREPAYMENT
// =============================================================================

func TestPrepay_ReducesBalanceAndRegeneratesTail(t *testing.T) {
	// GIVEN: 6 payments posted (balance 51492.09)
	// WHEN: Prepaying 20000 on the sixth payment date
	// THEN: The tail reamortizes 31492.09 over the remaining 6 periods
	//       and total future interest drops

	s := advanced(t, consumerLoan(), 6)
	interestBefore := s.RemainingInterest()

	out, err := loan.Prepay(s, date(2025, time.July, 1), dec("20000"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(out.Entries))
	}
	first := out.Entries[6]
	if !first.Rebased {
		t.Error("first regenerated entry should be rebased")
	}
	if !first.OpeningBalance.Equal(dec("31492.09")) {
		t.Errorf("tail opens at %s, want 31492.09", first.OpeningBalance)
	}
	if !first.PeriodEnd.Equal(date(2025, time.August, 1)) {
		t.Errorf("next payment on %s, want the unchanged 2025-08-01", first.PeriodEnd)
	}
	if !out.Entries[11].ClosingBalance.Equal(decimal.Zero) {
		t.Errorf("closes at %s, want 0", out.Entries[11].ClosingBalance)
	}
	if out.Version != s.Version+1 {
		t.Errorf("version %d, want %d", out.Version, s.Version+1)
	}

	if !out.RemainingInterest().LessThan(interestBefore) {
		t.Errorf("future interest %s did not drop below %s", out.RemainingInterest(), interestBefore)
	}

	// Posted entries untouched.
	for i := 0; i < 6; i++ {
		if !out.Entries[i].ClosingBalance.Equal(s.Entries[i].ClosingBalance) {
			t.Errorf("posted entry %d changed", i)
		}
	}
}

func TestPrepay_PenaltyWithheldFromReduction(t *testing.T) {
	// A 2% penalty on a 20000 prepayment leaves 19600 to reduce principal.

	penalty := dec("0.02")
	b := consumerLoan()
	b.PrepaymentPenaltyPct = &penalty

	s := advanced(t, b, 6)

	out, err := loan.Prepay(s, date(2025, time.July, 1), dec("20000"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 51492.09 - 19600 = 31892.09
	if !out.Entries[6].OpeningBalance.Equal(dec("31892.09")) {
		t.Errorf("tail opens at %s, want 31892.09", out.Entries[6].OpeningBalance)
	}
}

func TestPrepay_FullBalance_ClosesSchedule(t *testing.T) {
	s := advanced(t, consumerLoan(), 6)

	out, err := loan.Prepay(s, date(2025, time.July, 1), dec("51492.09"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Entries) != 6 {
		t.Errorf("expected 6 entries after early payoff, got %d", len(out.Entries))
	}
	if out.Status.State != engine.StatusFullyPaidOff || out.Status.Reason != "prepaid" {
		t.Errorf("status %s/%s, want fully_paid_off/prepaid", out.Status.State, out.Status.Reason)
	}
}

func TestPrepay_FullBalance_WithoutCloseFlag_Rejected(t *testing.T) {
	s := advanced(t, consumerLoan(), 6)

	_, err := loan.Prepay(s, date(2025, time.July, 1), dec("60000"), false)
	if !errors.Is(err, engine.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPrepay_NotAllowedByContract_Rejected(t *testing.T) {
	b := consumerLoan()
	b.AllowsPrepayment = false

	s := advanced(t, b, 6)

	_, err := loan.Prepay(s, date(2025, time.July, 1), dec("20000"), false)
	if !errors.Is(err, engine.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPrepay_Rejections(t *testing.T) {
	s := advanced(t, consumerLoan(), 6)

	if _, err := loan.Prepay(s, date(2025, time.July, 1), decimal.Zero, false); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("zero amount: expected validation error, got %v", err)
	}
	if _, err := loan.Prepay(s, date(2025, time.March, 15), dec("20000"), false); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("payment inside posted periods: expected validation error, got %v", err)
	}
	if _, err := loan.Prepay(s, date(2030, time.January, 1), dec("20000"), false); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("payment outside the schedule: expected validation error, got %v", err)
	}
}

// =============================================================================
// RESTRUCTURING
// =============================================================================

func TestRestructure_NewRateAndTerm(t *testing.T) {
	// GIVEN: 6 payments posted at 12%
	// WHEN: Restructuring to 8% over a fresh 12 months
	// THEN: The tail reamortizes the outstanding balance on the new terms

	s := advanced(t, consumerLoan(), 6)

	out, err := loan.Restructure(s, date(2025, time.July, 15), dec("0.08"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Entries) != 18 {
		t.Fatalf("expected 6 posted + 12 restructured entries, got %d", len(out.Entries))
	}
	first := out.Entries[6]
	if !first.OpeningBalance.Equal(dec("51492.09")) {
		t.Errorf("tail opens at %s, want the outstanding 51492.09", first.OpeningBalance)
	}
	// 51492.09 * 0.08/12 = 343.28
	if !first.AccruedAmount.Equal(dec("343.28")) {
		t.Errorf("first restructured interest %s, want 343.28", first.AccruedAmount)
	}
	if !first.PeriodEnd.Equal(date(2025, time.August, 1)) {
		t.Errorf("first restructured payment on %s, want 2025-08-01", first.PeriodEnd)
	}
	if !out.Entries[17].ClosingBalance.Equal(decimal.Zero) {
		t.Errorf("closes at %s, want 0", out.Entries[17].ClosingBalance)
	}
	if out.Version != s.Version+1 {
		t.Errorf("version %d, want %d", out.Version, s.Version+1)
	}

	// Entry indexes stay contiguous across the splice.
	for i, e := range out.Entries {
		if e.PeriodIndex != i {
			t.Errorf("entry %d carries index %d", i, e.PeriodIndex)
		}
	}
}

func TestRestructure_BeyondNextPayment_Rejected(t *testing.T) {
	s := advanced(t, consumerLoan(), 6)

	_, err := loan.Restructure(s, date(2025, time.September, 15), dec("0.08"), 12)
	if !errors.Is(err, engine.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRestructure_FullyPostedSchedule_Rejected(t *testing.T) {
	s := advanced(t, consumerLoan(), 12)

	_, err := loan.Restructure(s, date(2026, time.January, 1), dec("0.08"), 12)
	if err == nil {
		t.Error("restructuring a fully posted schedule should fail")
	}
}
