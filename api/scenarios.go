/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	schedules for testing and demos. Each scenario creates bases via the
	factory, generates the schedule, posts some periods, and optionally
	applies a mutation.

AVAILABLE SCENARIOS:

	office-equipment:   Straight-line asset, half a year posted
	fleet-vehicle:      Declining-balance asset with a custom rate
	consumer-loan:      Annuity loan, a few installments paid
	restructured-loan:  Loan restructured to a lower rate mid-term
	disposed-asset:     Asset sold above book value (gain recorded)

HOW SCENARIOS WORK:
 1. Reset database (clear all schedules)
 2. Parse basis JSON via factory
 3. Generate the schedule, post periods through the advance path
 4. Optionally apply a dispose/restructure mutation

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "consumer-loan"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: the endpoints scenarios feed
  - factory/basis.go: basis JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/depreciation"
	"github.com/warp/finance-engine/engine"
	"github.com/warp/finance-engine/loan"
	"github.com/warp/finance-engine/mutation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "office-equipment",
		Name:        "Office Equipment",
		Description: "Straight-line depreciation over 5 years, 6 months posted",
		Category:    "asset",
	},
	{
		ID:          "fleet-vehicle",
		Name:        "Fleet Vehicle",
		Description: "Declining-balance depreciation clamped at salvage value",
		Category:    "asset",
	},
	{
		ID:          "consumer-loan",
		Name:        "Consumer Loan",
		Description: "12-month annuity at 12% with 4 installments paid",
		Category:    "loan",
	},
	{
		ID:          "restructured-loan",
		Name:        "Restructured Loan",
		Description: "Annuity loan restructured to 8% after 6 payments",
		Category:    "loan",
	},
	{
		ID:          "disposed-asset",
		Name:        "Disposed Asset",
		Description: "Asset sold above net book value halfway through its life",
		Category:    "asset",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, _ *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "office-equipment":
		err = h.loadOfficeEquipmentScenario(ctx)
	case "fleet-vehicle":
		err = h.loadFleetVehicleScenario(ctx)
	case "consumer-loan":
		err = h.loadConsumerLoanScenario(ctx)
	case "restructured-loan":
		err = h.loadRestructuredLoanScenario(ctx)
	case "disposed-asset":
		err = h.loadDisposedAssetScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "validation",
			&engine.ValidationError{Field: "scenario_id", Reason: "unknown scenario"})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal",
			fmt.Errorf("loading scenario %s: %w", req.ScenarioID, err))
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadOfficeEquipmentScenario(ctx context.Context) error {
	_, err := h.seedSchedule(ctx, "demo-office-equipment", `{
		"kind": "asset",
		"currency": "TRY",
		"acquisition_cost": "120000",
		"salvage_value": "12000",
		"useful_life_months": 60,
		"method": "straight_line",
		"granularity": "monthly",
		"service_start": "2025-01-01",
		"partial_period_policy": "apportion"
	}`, 6)
	return err
}

func (h *Handler) loadFleetVehicleScenario(ctx context.Context) error {
	_, err := h.seedSchedule(ctx, "demo-fleet-vehicle", `{
		"kind": "asset",
		"currency": "TRY",
		"acquisition_cost": "800000",
		"salvage_value": "80000",
		"useful_life_months": 48,
		"method": "declining_balance",
		"custom_rate": "0.06",
		"granularity": "monthly",
		"service_start": "2025-01-01",
		"partial_period_policy": "apportion"
	}`, 3)
	return err
}

func (h *Handler) loadConsumerLoanScenario(ctx context.Context) error {
	_, err := h.seedSchedule(ctx, "demo-consumer-loan", `{
		"kind": "loan",
		"currency": "TRY",
		"principal": "100000",
		"annual_rate": "0.12",
		"repayment_method": "equal_installment",
		"payment_frequency": 12,
		"term_months": 12,
		"first_payment": "2025-02-01"
	}`, 4)
	return err
}

func (h *Handler) loadRestructuredLoanScenario(ctx context.Context) error {
	s, err := h.seedSchedule(ctx, "demo-restructured-loan", `{
		"kind": "loan",
		"currency": "TRY",
		"principal": "100000",
		"annual_rate": "0.12",
		"repayment_method": "equal_installment",
		"payment_frequency": 12,
		"term_months": 12,
		"first_payment": "2025-02-01"
	}`, 6)
	if err != nil {
		return err
	}

	mutated, err := mutation.Apply(s, mutation.Event{
		Kind:            mutation.KindRestructure,
		EffectiveDate:   engine.NewTimePoint(2025, time.July, 15),
		ExpectedVersion: s.Version,
		NewRate:         decimal.NewFromFloat(0.08),
		NewTermMonths:   12,
	})
	if err != nil {
		return err
	}
	return h.Store.SaveSchedule(ctx, mutated)
}

func (h *Handler) loadDisposedAssetScenario(ctx context.Context) error {
	s, err := h.seedSchedule(ctx, "demo-disposed-asset", `{
		"kind": "asset",
		"currency": "TRY",
		"acquisition_cost": "120000",
		"salvage_value": "0",
		"useful_life_months": 60,
		"method": "straight_line",
		"granularity": "monthly",
		"service_start": "2025-01-01",
		"partial_period_policy": "apportion"
	}`, 30)
	if err != nil {
		return err
	}

	// Sold for 70000 against a 60000 net book value: 10000 gain.
	mutated, err := mutation.Apply(s, mutation.Event{
		Kind:            mutation.KindDispose,
		EffectiveDate:   engine.NewTimePoint(2027, time.June, 30),
		ExpectedVersion: s.Version,
		Proceeds:        decimal.NewFromInt(70000),
	})
	if err != nil {
		return err
	}
	return h.Store.SaveSchedule(ctx, mutated)
}

// seedSchedule parses a basis, generates its schedule, saves it, and posts
// the first postPeriods periods through the normal version ladder.
func (h *Handler) seedSchedule(ctx context.Context, id, basisJSON string, postPeriods int) (*engine.Schedule, error) {
	basis, err := h.Factory.ParseBasis([]byte(basisJSON))
	if err != nil {
		return nil, err
	}

	var s *engine.Schedule
	switch b := basis.(type) {
	case engine.AssetBasis:
		s, err = depreciation.Generate(b)
	case engine.LoanBasis:
		s, err = loan.Generate(b)
	}
	if err != nil {
		return nil, err
	}

	s.ID = engine.ScheduleID(id)
	if err := h.Store.SaveSchedule(ctx, s); err != nil {
		return nil, err
	}

	for i := 0; i < postPeriods; i++ {
		s, err = s.MarkPeriodActual(i)
		if err != nil {
			return nil, err
		}
		if err := h.Store.SaveSchedule(ctx, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}
