/*
handlers.go - HTTP API handlers for the financial schedule engine

PURPOSE:
  Exposes the schedule engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the pure engine packages.

ENDPOINTS:
  Schedules:
    POST   /api/assets                       Create asset -> depreciation schedule
    POST   /api/loans                        Create loan -> amortization schedule
    GET    /api/schedules                    List schedules (no entries)
    GET    /api/schedules/{id}               Schedule with entries
    POST   /api/schedules/{id}/mutations     Apply dispose/revalue/prepay/restructure
    POST   /api/schedules/{id}/advance       Mark the next period actual

  Scenarios (demo data):
    GET    /api/scenarios                    List available demo scenarios
    GET    /api/scenarios/current            Currently loaded scenario
    POST   /api/scenarios/load               Reset store and load a scenario

  Misc:
    GET    /api/health                       Liveness probe

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: validation errors, invalid input
  - 404: schedule not found
  - 409: stale version (reload and retry)
  - 422: mutation against a terminal schedule
  - 500: invariant violations (engine defect - alert, don't retry)

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/depreciation"
	"github.com/warp/finance-engine/engine"
	"github.com/warp/finance-engine/factory"
	"github.com/warp/finance-engine/loan"
	"github.com/warp/finance-engine/mutation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   engine.Store
	Factory *factory.BasisFactory

	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store engine.Store) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewBasisFactory(),
	}
}

// =============================================================================
// SCHEDULE CREATION
// =============================================================================

// CreateAsset accepts an asset basis JSON document, generates the
// depreciation schedule, persists it, and returns it with entries.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	h.createSchedule(w, r, engine.KindAsset)
}

// CreateLoan accepts a loan basis JSON document, generates the
// amortization schedule, persists it, and returns it with entries.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	h.createSchedule(w, r, engine.KindLoan)
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request, kind engine.ScheduleKind) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	basis, err := h.Factory.ParseBasis(body)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if basis.BasisKind() != kind {
		writeError(w, http.StatusBadRequest, "validation",
			&engine.ValidationError{Field: "kind", Reason: "basis kind does not match endpoint"})
		return
	}

	var s *engine.Schedule
	switch b := basis.(type) {
	case engine.AssetBasis:
		s, err = depreciation.Generate(b)
	case engine.LoanBasis:
		s, err = loan.Generate(b)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	s.ID = engine.ScheduleID(uuid.NewString())
	if err := h.Store.SaveSchedule(r.Context(), s); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toScheduleDTO(s, true))
}

// =============================================================================
// SCHEDULE READS
// =============================================================================

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Store.ListSchedules(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	out := make([]ScheduleDTO, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toScheduleDTO(s, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := engine.ScheduleID(chi.URLParam(r, "id"))
	s, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(s, true))
}

// =============================================================================
// MUTATIONS
// =============================================================================

// ApplyMutation applies one dispose/revalue/prepay/restructure event to a
// schedule. The event carries the caller's expected version; a stale
// version is a 409 and the caller must reload.
func (h *Handler) ApplyMutation(w http.ResponseWriter, r *http.Request) {
	id := engine.ScheduleID(chi.URLParam(r, "id"))

	var req MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	ev, err := toEvent(req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	s, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	mutated, err := mutation.Apply(s, ev)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.Store.SaveSchedule(r.Context(), mutated); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(mutated, true))
}

func toEvent(req MutationRequest) (mutation.Event, error) {
	ev := mutation.Event{
		Kind:            mutation.Kind(req.Kind),
		ExpectedVersion: req.ExpectedVersion,
		CloseIfPaidOff:  req.CloseIfPaidOff,
		NewTermMonths:   req.NewTermMonths,
	}

	if req.EffectiveDate == "" {
		return ev, &engine.ValidationError{Field: "effective_date", Reason: "required"}
	}
	date, err := engine.ParseTimePoint(req.EffectiveDate)
	if err != nil {
		return ev, &engine.ValidationError{Field: "effective_date", Reason: err.Error()}
	}
	ev.EffectiveDate = date

	ev.Proceeds = valueOrZero(req.Proceeds)
	ev.NewValue = valueOrZero(req.NewValue)
	ev.Amount = valueOrZero(req.Amount)
	ev.NewRate = valueOrZero(req.NewRate)
	return ev, nil
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// =============================================================================
// PERIOD CLOSE
// =============================================================================

// Advance marks the next scheduled period as actual. Called by the
// period-close process after its ledger posting succeeded.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	id := engine.ScheduleID(chi.URLParam(r, "id"))

	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	s, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	advanced, err := s.MarkPeriodActual(req.PeriodIndex)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.Store.SaveSchedule(r.Context(), advanced); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(advanced, true))
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, ErrorDTO{Error: err.Error(), Kind: kind})
}

// writeEngineError maps the engine's error kinds onto HTTP statuses.
// Invariant violations are engine defects and surface as 500s; they must
// never be rephrased into a user-facing message.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err)
	case engine.IsDefect(err):
		writeError(w, http.StatusInternalServerError, "invariant_violation", err)
	case engine.IsClientError(err):
		status := http.StatusBadRequest
		kind := "validation"
		if !isValidation(err) {
			status = http.StatusUnprocessableEntity
			kind = "domain_state"
		}
		writeError(w, status, kind, err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func isValidation(err error) bool {
	return errors.Is(err, engine.ErrValidation)
}
