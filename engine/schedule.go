package engine

import "github.com/shopspring/decimal"

// =============================================================================
// SCHEDULE OPERATIONS - Pure transformations over the aggregate
// =============================================================================

// Clone returns a deep copy. Operations work on clones so a failed
// mutation leaves the caller's schedule untouched.
func (s *Schedule) Clone() *Schedule {
	out := *s
	out.Entries = make([]ScheduleEntry, len(s.Entries))
	copy(out.Entries, s.Entries)
	if s.GainLoss != nil {
		gl := *s.GainLoss
		out.GainLoss = &gl
	}
	return &out
}

// FirstFutureIndex returns the index of the first non-actual entry, or
// len(Entries) when every period has been posted. Actual entries form a
// contiguous prefix.
func (s *Schedule) FirstFutureIndex() int {
	for i, e := range s.Entries {
		if !e.IsActual {
			return i
		}
	}
	return len(s.Entries)
}

// ActualCount returns the number of posted periods.
func (s *Schedule) ActualCount() int { return s.FirstFutureIndex() }

// EntryContaining returns the index of the entry whose period contains the
// date, or -1.
func (s *Schedule) EntryContaining(date TimePoint) int {
	for i, e := range s.Entries {
		if date.AfterOrEqual(e.PeriodStart) && date.BeforeOrEqual(e.PeriodEnd) {
			return i
		}
	}
	return -1
}

// MarkPeriodActual advances the actual/future boundary by one period. It
// is called by the external period-close process after the period's
// posting succeeded. Periods must be actualized in order.
func (s *Schedule) MarkPeriodActual(periodIndex int) (*Schedule, error) {
	if s.Status.State == StatusTerminated {
		return nil, &DomainStateError{ScheduleID: s.ID, State: s.Status.State}
	}
	boundary := s.FirstFutureIndex()
	if boundary >= len(s.Entries) {
		return nil, &DomainStateError{ScheduleID: s.ID, State: s.Status.State}
	}
	if periodIndex != s.Entries[boundary].PeriodIndex {
		return nil, &ValidationError{Field: "period_index", Reason: "periods must be actualized in order"}
	}

	out := s.Clone()
	out.Entries[boundary].IsActual = true
	out.Version++

	if boundary == len(out.Entries)-1 {
		end := out.Entries[boundary].PeriodEnd
		switch out.Kind {
		case KindAsset:
			out.Status = Status{State: StatusFullyDepreciated, EffectiveDate: &end}
		case KindLoan:
			out.Status = Status{State: StatusFullyPaidOff, EffectiveDate: &end}
		}
	}
	return out, nil
}

// =============================================================================
// DERIVED TOTALS - Reporting helpers
// =============================================================================

// TotalAccrued sums depreciation or interest across all entries.
func (s *Schedule) TotalAccrued() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries {
		total = total.Add(e.AccruedAmount)
	}
	return total
}

// TotalPrincipal sums the principal components across all entries.
func (s *Schedule) TotalPrincipal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries {
		total = total.Add(e.PrincipalComponent)
	}
	return total
}

// RemainingBalance is the closing balance of the last entry, or the
// opening balance of the schedule when it has no entries.
func (s *Schedule) RemainingBalance() decimal.Decimal {
	if len(s.Entries) == 0 {
		return decimal.Zero
	}
	boundary := s.FirstFutureIndex()
	if boundary == 0 {
		return s.Entries[0].OpeningBalance
	}
	return s.Entries[boundary-1].ClosingBalance
}

// RemainingInterest sums accrued interest over the non-actual tail. Used
// to compare schedules before and after a prepayment.
func (s *Schedule) RemainingInterest() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries[s.FirstFutureIndex():] {
		total = total.Add(e.AccruedAmount)
	}
	return total
}

// SpliceTail returns a clone whose entries from index on are replaced by
// the given tail. Entry indexes are renumbered to stay contiguous with
// the kept prefix; the first tail entry is marked Rebased when its
// opening balance steps away from the prefix closing balance.
func (s *Schedule) SpliceTail(index int, tail []ScheduleEntry) *Schedule {
	out := s.Clone()
	out.Entries = out.Entries[:index]

	next := 0
	if index > 0 {
		next = out.Entries[index-1].PeriodIndex + 1
	}
	for i, e := range tail {
		e.PeriodIndex = next + i
		e.IsActual = false
		if i == 0 && index > 0 && !e.OpeningBalance.Equal(out.Entries[index-1].ClosingBalance) {
			e.Rebased = true
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}
