/*
Package engine provides the core financial schedule engine.

PURPOSE:
  This package contains the domain-agnostic machinery shared by both
  schedule calculators: calendar periods, currency rounding, immutable
  basis inputs, the Schedule aggregate, and the invariant validator.
  Whether the schedule depreciates a fixed asset or amortizes a loan, the
  same types carry it.

KEY CONCEPTS IN THIS FILE (types.go):
  - ScheduleEntry: One immutable period row (balances, accrual, principal)
  - Schedule: The ordered aggregate with Version and Status
  - Status: Active, Terminated, FullyDepreciated, FullyPaidOff

DESIGN PRINCIPLES:
  1. Immutability: schedules are values; every operation returns a new one
  2. Precision: uses decimal.Decimal, never float64, for money
  3. Determinism: no wall-clock reads; callers supply every date
  4. Explicit errors: four error kinds returned as values, never panics

SEE ALSO:
  - basis.go: AssetBasis / LoanBasis inputs
  - period.go: period generation
  - schedule.go: operations over the aggregate
  - validate.go: post-generation invariant checks
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ScheduleID string

// =============================================================================
// SCHEDULE ENTRY - One period row
// =============================================================================

// ScheduleEntry is one period of a schedule. Entries are ordered by
// PeriodIndex; PeriodStart and PeriodEnd are inclusive dates.
//
// For depreciation schedules AccruedAmount is the period's depreciation
// and PrincipalComponent is zero. For loan schedules AccruedAmount is
// interest and PrincipalComponent is the principal repaid.
type ScheduleEntry struct {
	PeriodIndex int       `json:"period_index"`
	PeriodStart TimePoint `json:"period_start"`
	PeriodEnd   TimePoint `json:"period_end"`
	DayCount    int       `json:"day_count"`

	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	AccruedAmount      decimal.Decimal `json:"accrued_amount"`
	PrincipalComponent decimal.Decimal `json:"principal_component"`
	Payment            decimal.Decimal `json:"payment"`
	ClosingBalance     decimal.Decimal `json:"closing_balance"`

	// IsActual flips when the period has elapsed and been posted. Actual
	// entries are never replaced by regeneration.
	IsActual bool `json:"is_actual"`

	// Rebased marks the first entry of a regenerated tail whose opening
	// balance intentionally steps away from the previous closing balance
	// (revaluation, prepayment). The chain validator skips this boundary.
	Rebased bool `json:"rebased,omitempty"`
}

// =============================================================================
// STATUS - Schedule lifecycle state
// =============================================================================

type StatusState string

const (
	StatusActive           StatusState = "active"
	StatusTerminated       StatusState = "terminated"
	StatusFullyDepreciated StatusState = "fully_depreciated"
	StatusFullyPaidOff     StatusState = "fully_paid_off"
)

type Status struct {
	State         StatusState `json:"state"`
	Reason        string      `json:"reason,omitempty"`
	EffectiveDate *TimePoint  `json:"effective_date,omitempty"`
}

// Terminal reports whether the schedule accepts no further mutation.
func (s Status) Terminal() bool {
	return s.State != StatusActive
}

// =============================================================================
// SCHEDULE - The aggregate
// =============================================================================

// Schedule is the aggregate produced by a calculator: the originating
// basis, the ordered entries, a monotonically increasing Version used as
// an optimistic-concurrency token, and a lifecycle Status.
type Schedule struct {
	ID       ScheduleID
	Kind     ScheduleKind
	Currency string
	Basis    Basis
	Entries  []ScheduleEntry
	Version  int
	Status   Status

	// GainLoss is set on disposal: proceeds minus net book value.
	GainLoss *decimal.Decimal
}
