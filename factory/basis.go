/*
Package factory provides JSON to Go basis conversion.

PURPOSE:
  Converts JSON basis definitions into engine.AssetBasis / engine.LoanBasis
  values. This enables schedule setup without code changes - finance staff
  can define assets and loans as JSON documents, and the factory creates
  the proper Go structs with sensible defaults filled in.

JSON SCHEMA:
  {
    "kind": "asset",
    "currency": "TRY",
    "acquisition_cost": "120000",
    "salvage_value": "0",
    "useful_life_months": 60,
    "method": "straight_line",
    "granularity": "monthly",
    "service_start": "2025-01-01",
    "partial_period_policy": "apportion"
  }

  {
    "kind": "loan",
    "currency": "TRY",
    "principal": "100000",
    "annual_rate": "0.12",
    "repayment_method": "equal_installment",
    "payment_frequency": 12,
    "term_months": 12,
    "first_payment": "2025-02-01",
    "grace_months": 0
  }

DEFAULTS:
  currency TRY, granularity monthly, partial policy apportion, method
  straight_line, interest fixed, payment frequency 12/year, prepayment
  allowed. Amounts and rates are decimal strings; JSON numbers are also
  accepted.

SEE ALSO:
  - engine/basis.go: target types and their validation
  - api/handlers.go: uses this factory for the create endpoints
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/finance-engine/engine"
)

// =============================================================================
// BASIS FACTORY
// =============================================================================

// BasisFactory converts JSON basis definitions to engine types.
type BasisFactory struct{}

// NewBasisFactory creates a new basis factory.
func NewBasisFactory() *BasisFactory {
	return &BasisFactory{}
}

// kindProbe reads only the discriminator.
type kindProbe struct {
	Kind engine.ScheduleKind `json:"kind"`
}

// ParseBasis parses a JSON document into a validated basis. The "kind"
// field selects the target type.
func (f *BasisFactory) ParseBasis(data []byte) (engine.Basis, error) {
	var probe kindProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse basis JSON: %w", err)
	}

	switch probe.Kind {
	case engine.KindAsset:
		return f.parseAsset(data)
	case engine.KindLoan:
		return f.parseLoan(data)
	case "":
		return nil, &engine.ValidationError{Field: "kind", Reason: "required (asset or loan)"}
	default:
		return nil, &engine.ValidationError{Field: "kind", Reason: "unknown schedule kind " + string(probe.Kind)}
	}
}

func (f *BasisFactory) parseAsset(data []byte) (engine.Basis, error) {
	var b engine.AssetBasis
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse asset basis: %w", err)
	}

	// Defaults
	if b.Currency == "" {
		b.Currency = "TRY"
	}
	if b.Granularity == "" {
		b.Granularity = engine.GranularityMonthly
	}
	if b.PartialPolicy == "" {
		b.PartialPolicy = engine.PartialApportion
	}
	if b.Method == "" {
		b.Method = engine.MethodStraightLine
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (f *BasisFactory) parseLoan(data []byte) (engine.Basis, error) {
	raw := struct {
		engine.LoanBasis
		AllowsPrepayment *bool `json:"allows_prepayment"`
	}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse loan basis: %w", err)
	}
	b := raw.LoanBasis

	// Defaults
	if b.Currency == "" {
		b.Currency = "TRY"
	}
	if b.InterestType == "" {
		b.InterestType = engine.InterestFixed
	}
	if b.Method == "" {
		b.Method = engine.RepayEqualInstallment
	}
	if b.PaymentFrequency == 0 {
		b.PaymentFrequency = 12
	}
	// Prepayment is allowed unless the contract says otherwise.
	b.AllowsPrepayment = raw.AllowsPrepayment == nil || *raw.AllowsPrepayment

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
