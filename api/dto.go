/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing
  field renaming without breaking clients and API-specific validation.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  All amounts travel as decimal strings ("8884.88"), never JSON floats,
  so clients keep exact minor-unit values.

SEE ALSO:
  - handlers.go: uses these types
  - factory/basis.go: the create endpoints accept raw basis JSON
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ScheduleDTO represents a schedule in API responses.
type ScheduleDTO struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Currency string          `json:"currency"`
	Version  int             `json:"version"`
	Status   StatusDTO       `json:"status"`
	GainLoss *string         `json:"gain_loss,omitempty"`
	Totals   TotalsDTO       `json:"totals"`
	Entries  []EntryDTO      `json:"entries,omitempty"`
	Basis    engine.Basis    `json:"basis"`
}

type StatusDTO struct {
	State         string `json:"state"`
	Reason        string `json:"reason,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
}

type TotalsDTO struct {
	TotalAccrued     string `json:"total_accrued"`
	TotalPrincipal   string `json:"total_principal"`
	RemainingBalance string `json:"remaining_balance"`
	ActualPeriods    int    `json:"actual_periods"`
	PeriodCount      int    `json:"period_count"`
}

type EntryDTO struct {
	PeriodIndex        int    `json:"period_index"`
	PeriodStart        string `json:"period_start"`
	PeriodEnd          string `json:"period_end"`
	DayCount           int    `json:"day_count"`
	OpeningBalance     string `json:"opening_balance"`
	AccruedAmount      string `json:"accrued_amount"`
	PrincipalComponent string `json:"principal_component"`
	Payment            string `json:"payment"`
	ClosingBalance     string `json:"closing_balance"`
	IsActual           bool   `json:"is_actual"`
	Rebased            bool   `json:"rebased,omitempty"`
}

// ErrorDTO is the uniform error envelope.
type ErrorDTO struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// MutationRequest is the body of POST /api/schedules/{id}/mutations.
type MutationRequest struct {
	Kind            string `json:"kind"`
	EffectiveDate   string `json:"effective_date"`
	ExpectedVersion int    `json:"expected_version"`

	Proceeds       *decimal.Decimal `json:"proceeds,omitempty"`
	NewValue       *decimal.Decimal `json:"new_value,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	CloseIfPaidOff bool             `json:"close_if_paid_off,omitempty"`
	NewRate        *decimal.Decimal `json:"new_rate,omitempty"`
	NewTermMonths  int              `json:"new_term_months,omitempty"`
}

// AdvanceRequest is the body of POST /api/schedules/{id}/advance.
type AdvanceRequest struct {
	PeriodIndex int `json:"period_index"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toScheduleDTO(s *engine.Schedule, includeEntries bool) ScheduleDTO {
	dto := ScheduleDTO{
		ID:       string(s.ID),
		Kind:     string(s.Kind),
		Currency: s.Currency,
		Version:  s.Version,
		Status: StatusDTO{
			State:  string(s.Status.State),
			Reason: s.Status.Reason,
		},
		Totals: TotalsDTO{
			TotalAccrued:     s.TotalAccrued().String(),
			TotalPrincipal:   s.TotalPrincipal().String(),
			RemainingBalance: s.RemainingBalance().String(),
			ActualPeriods:    s.ActualCount(),
			PeriodCount:      len(s.Entries),
		},
		Basis: s.Basis,
	}
	if s.Status.EffectiveDate != nil {
		dto.Status.EffectiveDate = s.Status.EffectiveDate.String()
	}
	if s.GainLoss != nil {
		gl := s.GainLoss.String()
		dto.GainLoss = &gl
	}
	if includeEntries {
		dto.Entries = make([]EntryDTO, 0, len(s.Entries))
		for _, e := range s.Entries {
			dto.Entries = append(dto.Entries, EntryDTO{
				PeriodIndex:        e.PeriodIndex,
				PeriodStart:        e.PeriodStart.String(),
				PeriodEnd:          e.PeriodEnd.String(),
				DayCount:           e.DayCount,
				OpeningBalance:     e.OpeningBalance.String(),
				AccruedAmount:      e.AccruedAmount.String(),
				PrincipalComponent: e.PrincipalComponent.String(),
				Payment:            e.Payment.String(),
				ClosingBalance:     e.ClosingBalance.String(),
				IsActual:           e.IsActual,
				Rebased:            e.Rebased,
			})
		}
	}
	return dto
}
