/*
basis.go - Immutable schedule inputs

PURPOSE:
  A Basis is the complete, immutable parameter set a schedule is computed
  from. Calculators are pure functions from a Basis to a Schedule; mutation
  handlers build a fresh Basis for the regenerated tail instead of editing
  anything in place.

TWO CONCRETE BASES:
  AssetBasis - fixed-asset depreciation (cost, salvage, method, life)
  LoanBasis  - loan amortization (principal, rate, repayment method, term)

VALIDATION:
  Validate() is called by the calculators before any period is generated.
  A basis that fails validation produces no schedule at all.
*/
package engine

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BASIS - Common contract
// =============================================================================

type ScheduleKind string

const (
	KindAsset ScheduleKind = "asset"
	KindLoan  ScheduleKind = "loan"
)

// Basis is the immutable input of a schedule calculator.
type Basis interface {
	BasisKind() ScheduleKind
	CurrencyCode() string
	Validate() error
}

// =============================================================================
// ASSET BASIS - Depreciation input
// =============================================================================

type DepreciationMethod string

const (
	MethodStraightLine     DepreciationMethod = "straight_line"
	MethodDecliningBalance DepreciationMethod = "declining_balance"
)

type AssetBasis struct {
	AcquisitionCost  decimal.Decimal     `json:"acquisition_cost"`
	SalvageValue     decimal.Decimal     `json:"salvage_value"`
	UsefulLifeMonths int                 `json:"useful_life_months"`
	Method           DepreciationMethod  `json:"method"`
	CustomRate       *decimal.Decimal    `json:"custom_rate,omitempty"`
	Granularity      Granularity         `json:"granularity"`
	ServiceStart     TimePoint           `json:"service_start"`
	PartialPolicy    PartialPeriodPolicy `json:"partial_period_policy"`
	Currency         string              `json:"currency"`
}

func (b AssetBasis) BasisKind() ScheduleKind { return KindAsset }
func (b AssetBasis) CurrencyCode() string    { return b.Currency }

// DepreciableAmount is acquisition cost minus salvage value.
func (b AssetBasis) DepreciableAmount() decimal.Decimal {
	return b.AcquisitionCost.Sub(b.SalvageValue)
}

func (b AssetBasis) Validate() error {
	if b.AcquisitionCost.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "acquisition_cost", Reason: "must be positive"}
	}
	if b.SalvageValue.IsNegative() {
		return &ValidationError{Field: "salvage_value", Reason: "must not be negative"}
	}
	if b.SalvageValue.GreaterThan(b.AcquisitionCost) {
		return &ValidationError{Field: "salvage_value", Reason: "must not exceed acquisition cost"}
	}
	if b.UsefulLifeMonths <= 0 {
		return &ValidationError{Field: "useful_life_months", Reason: "must be positive"}
	}
	if b.Granularity.Months() == 0 {
		return &ValidationError{Field: "granularity", Reason: "unknown granularity " + string(b.Granularity)}
	}
	switch b.Method {
	case MethodStraightLine, MethodDecliningBalance:
	default:
		return &ValidationError{Field: "method", Reason: "unknown depreciation method " + string(b.Method)}
	}
	if b.CustomRate != nil && (b.CustomRate.LessThanOrEqual(decimal.Zero) || b.CustomRate.GreaterThan(decimal.NewFromInt(1))) {
		return &ValidationError{Field: "custom_rate", Reason: "must be in (0, 1]"}
	}
	switch b.PartialPolicy {
	case PartialApportion, PartialFullFirst:
	default:
		return &ValidationError{Field: "partial_period_policy", Reason: "unknown policy " + string(b.PartialPolicy)}
	}
	if b.ServiceStart.IsZero() {
		return &ValidationError{Field: "service_start", Reason: "required"}
	}
	return nil
}

// =============================================================================
// LOAN BASIS - Amortization input
// =============================================================================

type InterestType string

const (
	InterestFixed    InterestType = "fixed"
	InterestVariable InterestType = "variable"
)

type RepaymentMethod string

const (
	RepayEqualInstallment RepaymentMethod = "equal_installment"
	RepayEqualPrincipal   RepaymentMethod = "equal_principal"
	RepayInterestOnly     RepaymentMethod = "interest_only"
)

type LoanBasis struct {
	Principal        decimal.Decimal `json:"principal"`
	AnnualRate       decimal.Decimal `json:"annual_rate"` // 0.12 == 12%
	InterestType     InterestType    `json:"interest_type"`
	Method           RepaymentMethod `json:"repayment_method"`
	PaymentFrequency int             `json:"payment_frequency"` // payments per year
	TermMonths       int             `json:"term_months"`
	FirstPayment     TimePoint       `json:"first_payment"`
	GraceMonths      int             `json:"grace_months,omitempty"`

	// Prepayment terms carried from the originating loan contract.
	AllowsPrepayment     bool             `json:"allows_prepayment"`
	PrepaymentPenaltyPct *decimal.Decimal `json:"prepayment_penalty_pct,omitempty"` // 0.02 == 2% of the prepaid amount

	Currency string `json:"currency"`
}

func (b LoanBasis) BasisKind() ScheduleKind { return KindLoan }
func (b LoanBasis) CurrencyCode() string    { return b.Currency }

// PeriodCount is the number of payment periods n.
func (b LoanBasis) PeriodCount() int {
	months, err := MonthsPerPayment(b.PaymentFrequency)
	if err != nil || months == 0 {
		return 0
	}
	return b.TermMonths / months
}

// PeriodicRate is the per-payment interest rate r.
func (b LoanBasis) PeriodicRate() decimal.Decimal {
	return b.AnnualRate.Div(decimal.NewFromInt(int64(b.PaymentFrequency)))
}

// GracePeriods is the number of interest-only payment periods k.
func (b LoanBasis) GracePeriods() int {
	months, err := MonthsPerPayment(b.PaymentFrequency)
	if err != nil || months == 0 {
		return 0
	}
	return b.GraceMonths / months
}

func (b LoanBasis) Validate() error {
	if b.Principal.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "principal", Reason: "must be positive"}
	}
	if b.AnnualRate.IsNegative() {
		return &ValidationError{Field: "annual_rate", Reason: "must not be negative"}
	}
	switch b.InterestType {
	case InterestFixed, InterestVariable:
	default:
		return &ValidationError{Field: "interest_type", Reason: "unknown interest type " + string(b.InterestType)}
	}
	switch b.Method {
	case RepayEqualInstallment, RepayEqualPrincipal, RepayInterestOnly:
	default:
		return &ValidationError{Field: "repayment_method", Reason: "unknown repayment method " + string(b.Method)}
	}
	months, err := MonthsPerPayment(b.PaymentFrequency)
	if err != nil {
		return err
	}
	if b.TermMonths <= 0 {
		return &ValidationError{Field: "term_months", Reason: "must be positive"}
	}
	if b.TermMonths%months != 0 {
		return &ValidationError{Field: "term_months", Reason: "term not aligned to payment frequency"}
	}
	if b.GraceMonths < 0 {
		return &ValidationError{Field: "grace_months", Reason: "must not be negative"}
	}
	if b.GraceMonths%months != 0 {
		return &ValidationError{Field: "grace_months", Reason: "grace not aligned to payment frequency"}
	}
	if b.GracePeriods() >= b.PeriodCount() {
		return &ValidationError{Field: "grace_months", Reason: "grace must leave at least one amortizing period"}
	}
	if b.PrepaymentPenaltyPct != nil && b.PrepaymentPenaltyPct.IsNegative() {
		return &ValidationError{Field: "prepayment_penalty_pct", Reason: "must not be negative"}
	}
	if b.FirstPayment.IsZero() {
		return &ValidationError{Field: "first_payment", Reason: "required"}
	}
	return nil
}

// =============================================================================
// BASIS SERIALIZATION - For stores and transport
// =============================================================================

// EncodeBasis serializes a basis to JSON. The kind travels separately
// (Schedule.Kind / a store column) so decoding is unambiguous.
func EncodeBasis(b Basis) ([]byte, error) {
	return json.Marshal(b)
}

// DecodeBasis deserializes a basis of the given kind.
func DecodeBasis(kind ScheduleKind, data []byte) (Basis, error) {
	switch kind {
	case KindAsset:
		var b AssetBasis
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case KindLoan:
		var b LoanBasis
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, &ValidationError{Field: "kind", Reason: "unknown schedule kind " + string(kind)}
	}
}
