package factory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
	"github.com/warp/finance-engine/factory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseBasis_Asset_WithDefaults(t *testing.T) {
	// Only the required fields; everything else defaults.
	doc := `{
		"kind": "asset",
		"acquisition_cost": "120000",
		"salvage_value": "0",
		"useful_life_months": 60,
		"service_start": "2025-01-01"
	}`

	basis, err := factory.NewBasisFactory().ParseBasis([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	asset, ok := basis.(engine.AssetBasis)
	if !ok {
		t.Fatalf("expected AssetBasis, got %T", basis)
	}
	if asset.Currency != "TRY" {
		t.Errorf("currency %q, want default TRY", asset.Currency)
	}
	if asset.Granularity != engine.GranularityMonthly {
		t.Errorf("granularity %q, want default monthly", asset.Granularity)
	}
	if asset.PartialPolicy != engine.PartialApportion {
		t.Errorf("partial policy %q, want default apportion", asset.PartialPolicy)
	}
	if asset.Method != engine.MethodStraightLine {
		t.Errorf("method %q, want default straight_line", asset.Method)
	}
	if !asset.AcquisitionCost.Equal(dec("120000")) {
		t.Errorf("acquisition cost %s, want 120000", asset.AcquisitionCost)
	}
}

func TestParseBasis_Loan_WithDefaults(t *testing.T) {
	doc := `{
		"kind": "loan",
		"principal": "100000",
		"annual_rate": "0.12",
		"term_months": 12,
		"first_payment": "2025-02-01"
	}`

	basis, err := factory.NewBasisFactory().ParseBasis([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loan, ok := basis.(engine.LoanBasis)
	if !ok {
		t.Fatalf("expected LoanBasis, got %T", basis)
	}
	if loan.Method != engine.RepayEqualInstallment {
		t.Errorf("method %q, want default equal_installment", loan.Method)
	}
	if loan.InterestType != engine.InterestFixed {
		t.Errorf("interest type %q, want default fixed", loan.InterestType)
	}
	if loan.PaymentFrequency != 12 {
		t.Errorf("frequency %d, want default 12", loan.PaymentFrequency)
	}
	if !loan.AllowsPrepayment {
		t.Error("prepayment should be allowed by default")
	}
}

func TestParseBasis_Loan_ExplicitNoPrepayment(t *testing.T) {
	doc := `{
		"kind": "loan",
		"principal": "100000",
		"annual_rate": "0.12",
		"term_months": 12,
		"first_payment": "2025-02-01",
		"allows_prepayment": false
	}`

	basis, err := factory.NewBasisFactory().ParseBasis([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if basis.(engine.LoanBasis).AllowsPrepayment {
		t.Error("explicit allows_prepayment=false was overridden")
	}
}

func TestParseBasis_NumericAmounts_Accepted(t *testing.T) {
	// decimal unmarshals both JSON strings and numbers.
	doc := `{
		"kind": "loan",
		"principal": 100000,
		"annual_rate": 0.12,
		"term_months": 12,
		"first_payment": "2025-02-01"
	}`

	basis, err := factory.NewBasisFactory().ParseBasis([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !basis.(engine.LoanBasis).Principal.Equal(dec("100000")) {
		t.Errorf("principal %s, want 100000", basis.(engine.LoanBasis).Principal)
	}
}

func TestParseBasis_Rejections(t *testing.T) {
	f := factory.NewBasisFactory()

	cases := map[string]string{
		"missing kind":  `{"acquisition_cost": "1000"}`,
		"unknown kind":  `{"kind": "bond"}`,
		"invalid basis": `{"kind": "asset", "acquisition_cost": "0", "useful_life_months": 60, "service_start": "2025-01-01"}`,
	}
	for name, doc := range cases {
		if _, err := f.ParseBasis([]byte(doc)); !errors.Is(err, engine.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}

	if _, err := f.ParseBasis([]byte(`not json`)); err == nil {
		t.Error("malformed JSON should be rejected")
	}
}
