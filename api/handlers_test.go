/*
handlers_test.go - End-to-end tests for the HTTP API

Tests run the full router over the in-memory store:
- Schedule creation from basis JSON
- Mutation dispatch and error -> status mapping
- The optimistic-concurrency 409 path
- Period close via /advance
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/warp/finance-engine/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(NewHandler(store.NewMemory())))
	t.Cleanup(srv.Close)
	return srv
}

const assetJSON = `{
	"kind": "asset",
	"currency": "TRY",
	"acquisition_cost": "120000",
	"salvage_value": "0",
	"useful_life_months": 60,
	"method": "straight_line",
	"granularity": "monthly",
	"service_start": "2025-01-01",
	"partial_period_policy": "apportion"
}`

const loanJSON = `{
	"kind": "loan",
	"currency": "TRY",
	"principal": "100000",
	"annual_rate": "0.12",
	"repayment_method": "equal_installment",
	"payment_frequency": 12,
	"term_months": 12,
	"first_payment": "2025-02-01"
}`

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp, decodeObject(t, resp)
}

func decodeObject(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func createAsset(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := postJSON(t, srv.URL+"/api/assets", assetJSON)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create asset returned %d: %v", resp.StatusCode, body)
	}
	return body["id"].(string)
}

func createLoan(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := postJSON(t, srv.URL+"/api/loans", loanJSON)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create loan returned %d: %v", resp.StatusCode, body)
	}
	return body["id"].(string)
}

// advanceAll posts n periods through the advance endpoint.
func advanceAll(t *testing.T, srv *httptest.Server, id string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		resp, body := postJSON(t, srv.URL+"/api/schedules/"+id+"/advance",
			fmt.Sprintf(`{"period_index": %d}`, i))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("advance period %d returned %d: %v", i, resp.StatusCode, body)
		}
	}
}

// =============================================================================
// CREATION
// =============================================================================

func TestCreateAsset_ReturnsGeneratedSchedule(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/assets", assetJSON)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d, want 201", resp.StatusCode)
	}

	entries := body["entries"].([]any)
	if len(entries) != 60 {
		t.Errorf("expected 60 entries, got %d", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["accrued_amount"] != "2000" {
		t.Errorf("first accrual %v, want \"2000\"", first["accrued_amount"])
	}
	if body["version"].(float64) != 1 {
		t.Errorf("version %v, want 1", body["version"])
	}

	totals := body["totals"].(map[string]any)
	if totals["total_accrued"] != "120000" {
		t.Errorf("total accrued %v, want \"120000\"", totals["total_accrued"])
	}
}

func TestCreateLoan_ReturnsAnnuitySchedule(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/loans", loanJSON)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d, want 201", resp.StatusCode)
	}

	entries := body["entries"].([]any)
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["payment"] != "8884.88" {
		t.Errorf("first payment %v, want \"8884.88\"", first["payment"])
	}
	if first["accrued_amount"] != "1000" {
		t.Errorf("first interest %v, want \"1000\"", first["accrued_amount"])
	}
}

func TestCreateAsset_InvalidBasis_400(t *testing.T) {
	srv := newTestServer(t)

	bad := strings.Replace(assetJSON, `"120000"`, `"0"`, 1)
	resp, body := postJSON(t, srv.URL+"/api/assets", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
	if body["kind"] != "validation" {
		t.Errorf("error kind %v, want validation", body["kind"])
	}
}

func TestCreateAsset_LoanBasis_Rejected(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/api/assets", loanJSON)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400 for a loan basis on the asset endpoint", resp.StatusCode)
	}
}

// =============================================================================
// READS
// =============================================================================

func TestGetSchedule(t *testing.T) {
	srv := newTestServer(t)
	id := createAsset(t, srv)

	resp, err := http.Get(srv.URL + "/api/schedules/" + id)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	body := decodeObject(t, resp)
	if body["id"] != id {
		t.Errorf("returned id %v, want %s", body["id"], id)
	}
	if len(body["entries"].([]any)) != 60 {
		t.Error("detail view should include entries")
	}
}

func TestGetSchedule_Unknown_404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/schedules/no-such-id")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d, want 404", resp.StatusCode)
	}
}

func TestListSchedules_SummariesWithoutEntries(t *testing.T) {
	srv := newTestServer(t)
	createAsset(t, srv)
	createLoan(t, srv)

	resp, err := http.Get(srv.URL + "/api/schedules")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var list []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(list))
	}
	for _, item := range list {
		if _, ok := item["entries"]; ok {
			t.Error("list view must not include entries")
		}
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestApplyMutation_Dispose(t *testing.T) {
	srv := newTestServer(t)
	id := createAsset(t, srv)
	advanceAll(t, srv, id, 30)

	resp, body := postJSON(t, srv.URL+"/api/schedules/"+id+"/mutations", `{
		"kind": "dispose",
		"effective_date": "2027-06-30",
		"expected_version": 31,
		"proceeds": "70000"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}

	if body["gain_loss"] != "10000" {
		t.Errorf("gain/loss %v, want \"10000\"", body["gain_loss"])
	}
	status := body["status"].(map[string]any)
	if status["state"] != "terminated" {
		t.Errorf("state %v, want terminated", status["state"])
	}
}

func TestApplyMutation_StaleVersion_409(t *testing.T) {
	srv := newTestServer(t)
	id := createLoan(t, srv)

	resp, body := postJSON(t, srv.URL+"/api/schedules/"+id+"/mutations", `{
		"kind": "prepay",
		"effective_date": "2025-07-01",
		"expected_version": 99,
		"amount": "20000"
	}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status %d, want 409", resp.StatusCode)
	}
	if body["kind"] != "conflict" {
		t.Errorf("error kind %v, want conflict", body["kind"])
	}
}

func TestApplyMutation_TerminalSchedule_422(t *testing.T) {
	srv := newTestServer(t)
	id := createAsset(t, srv)
	advanceAll(t, srv, id, 30)

	resp, _ := postJSON(t, srv.URL+"/api/schedules/"+id+"/mutations", `{
		"kind": "dispose",
		"effective_date": "2027-06-30",
		"expected_version": 31,
		"proceeds": "70000"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first dispose returned %d", resp.StatusCode)
	}

	resp, body := postJSON(t, srv.URL+"/api/schedules/"+id+"/mutations", `{
		"kind": "revalue",
		"effective_date": "2027-07-01",
		"expected_version": 32,
		"new_value": "50000"
	}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", resp.StatusCode)
	}
	if body["kind"] != "domain_state" {
		t.Errorf("error kind %v, want domain_state", body["kind"])
	}
}

func TestApplyMutation_Prepay_RebasesTail(t *testing.T) {
	srv := newTestServer(t)
	id := createLoan(t, srv)
	advanceAll(t, srv, id, 6)

	resp, body := postJSON(t, srv.URL+"/api/schedules/"+id+"/mutations", `{
		"kind": "prepay",
		"effective_date": "2025-07-01",
		"expected_version": 7,
		"amount": "20000"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}

	entries := body["entries"].([]any)
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	seventh := entries[6].(map[string]any)
	if seventh["rebased"] != true {
		t.Error("first regenerated entry should be rebased")
	}
	if seventh["opening_balance"] != "31492.09" {
		t.Errorf("tail opens at %v, want \"31492.09\"", seventh["opening_balance"])
	}
	if body["version"].(float64) != 8 {
		t.Errorf("version %v, want 8", body["version"])
	}
}

func TestApplyMutation_MissingDate_400(t *testing.T) {
	srv := newTestServer(t)
	id := createLoan(t, srv)

	resp, _ := postJSON(t, srv.URL+"/api/schedules/"+id+"/mutations", `{
		"kind": "prepay",
		"expected_version": 1,
		"amount": "20000"
	}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// PERIOD CLOSE
// =============================================================================

func TestAdvance_OutOfOrder_400(t *testing.T) {
	srv := newTestServer(t)
	id := createAsset(t, srv)

	resp, body := postJSON(t, srv.URL+"/api/schedules/"+id+"/advance", `{"period_index": 5}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400: %v", resp.StatusCode, body)
	}
}

func TestAdvance_UpdatesTotals(t *testing.T) {
	srv := newTestServer(t)
	id := createAsset(t, srv)
	advanceAll(t, srv, id, 2)

	resp, err := http.Get(srv.URL + "/api/schedules/" + id)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body := decodeObject(t, resp)
	totals := body["totals"].(map[string]any)
	if totals["actual_periods"].(float64) != 2 {
		t.Errorf("actual periods %v, want 2", totals["actual_periods"])
	}
	if totals["remaining_balance"] != "116000" {
		t.Errorf("remaining balance %v, want \"116000\"", totals["remaining_balance"])
	}
}

// =============================================================================
// MISC
// =============================================================================

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body := decodeObject(t, resp)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health returned %d %v", resp.StatusCode, body)
	}
}
