/*
Package mutation dispatches schedule mutation events.

PURPOSE:
  The single entry point for applying lifecycle events to an existing
  schedule. Apply enforces the cross-cutting gates every mutation shares,
  then dispatches to the owning domain package:

    dispose, revalue      -> depreciation
    prepay, restructure   -> loan

GATES (in order):
  1. Version: the event must carry the schedule's current Version;
     anything else is a ConcurrencyConflict and the caller must reload.
  2. Terminal state: terminated / fully-paid-off / fully-depreciated
     schedules reject all mutations with a DomainStateError.
  3. Kind: a loan event against an asset schedule (or vice versa) is a
     ValidationError.

ATOMICITY:
  Domain handlers work on clones and re-validate before returning, so a
  failed mutation leaves the caller's schedule untouched. On success the
  returned schedule carries Version+1.
*/
package mutation

import (
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/depreciation"
	"github.com/warp/finance-engine/engine"
	"github.com/warp/finance-engine/loan"
)

// Kind discriminates mutation events.
type Kind string

const (
	KindDispose     Kind = "dispose"
	KindRevalue     Kind = "revalue"
	KindPrepay      Kind = "prepay"
	KindRestructure Kind = "restructure"
)

// Event is one mutation request against a schedule.
type Event struct {
	Kind            Kind
	EffectiveDate   engine.TimePoint
	ExpectedVersion int

	// Dispose
	Proceeds decimal.Decimal

	// Revalue
	NewValue decimal.Decimal

	// Prepay
	Amount         decimal.Decimal
	CloseIfPaidOff bool

	// Restructure
	NewRate       decimal.Decimal
	NewTermMonths int
}

// scheduleKind returns which schedule kind the event applies to, or ""
// for an unknown event kind.
func (e Event) scheduleKind() engine.ScheduleKind {
	switch e.Kind {
	case KindDispose, KindRevalue:
		return engine.KindAsset
	case KindPrepay, KindRestructure:
		return engine.KindLoan
	default:
		return ""
	}
}

// Apply runs the gates and dispatches the event. The input schedule is
// never modified.
func Apply(s *engine.Schedule, ev Event) (*engine.Schedule, error) {
	if ev.ExpectedVersion != s.Version {
		return nil, &engine.ConcurrencyConflictError{
			ScheduleID:      s.ID,
			ExpectedVersion: ev.ExpectedVersion,
			ActualVersion:   s.Version,
		}
	}
	if s.Status.Terminal() {
		return nil, &engine.DomainStateError{ScheduleID: s.ID, State: s.Status.State}
	}
	if ev.EffectiveDate.IsZero() {
		return nil, &engine.ValidationError{Field: "effective_date", Reason: "required"}
	}
	if ev.scheduleKind() == "" {
		return nil, &engine.ValidationError{Field: "kind", Reason: "unknown mutation kind " + string(ev.Kind)}
	}
	if s.Kind != ev.scheduleKind() {
		return nil, &engine.ValidationError{Field: "kind",
			Reason: string(ev.Kind) + " does not apply to " + string(s.Kind) + " schedules"}
	}

	switch ev.Kind {
	case KindDispose:
		return depreciation.Dispose(s, ev.EffectiveDate, ev.Proceeds)
	case KindRevalue:
		return depreciation.Revalue(s, ev.EffectiveDate, ev.NewValue)
	case KindPrepay:
		return loan.Prepay(s, ev.EffectiveDate, ev.Amount, ev.CloseIfPaidOff)
	case KindRestructure:
		return loan.Restructure(s, ev.EffectiveDate, ev.NewRate, ev.NewTermMonths)
	default:
		return nil, &engine.ValidationError{Field: "kind", Reason: "unknown mutation kind " + string(ev.Kind)}
	}
}
