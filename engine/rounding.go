package engine

import "github.com/shopspring/decimal"

// =============================================================================
// ROUNDING POLICY - Currency-aware rounding and the residual plug
// =============================================================================

// RoundingPolicy rounds computed amounts to a currency's minor-unit
// precision using round-half-to-even. Any unavoidable residual is always
// plugged into the final period of the (sub)schedule being generated,
// never distributed across periods, so rounding behavior is deterministic.
type RoundingPolicy struct {
	Places int32
}

// DefaultRounding is two minor-unit decimals, which covers TRY, USD, EUR
// and most other currencies.
var DefaultRounding = RoundingPolicy{Places: 2}

// minorUnits maps ISO currency codes with a non-default minor unit.
var minorUnits = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"KWD": 3,
	"BHD": 3,
}

// RoundingFor returns the rounding policy for a currency code.
func RoundingFor(currency string) RoundingPolicy {
	if places, ok := minorUnits[currency]; ok {
		return RoundingPolicy{Places: places}
	}
	return DefaultRounding
}

// Round rounds half-to-even at the policy's precision.
func (rp RoundingPolicy) Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(rp.Places)
}

// Plug returns the amount the final period must carry so the cumulative
// total exactly equals the target: target minus everything already
// allocated.
func (rp RoundingPolicy) Plug(target, allocated decimal.Decimal) decimal.Decimal {
	return rp.Round(target.Sub(allocated))
}

// Epsilon is the tolerance matching this policy's precision: one minor
// unit. Validators compare schedule totals against it.
func (rp RoundingPolicy) Epsilon() decimal.Decimal {
	return decimal.New(1, -rp.Places)
}
