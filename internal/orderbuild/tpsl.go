package orderbuild

import (
	"tss/internal/intent"
)

// TPSLValidator checks take-profit / stop-loss placement relative to the
// order side and a reference price (execution price for market orders,
// requested entry for pending ones). A zero TP or SL means "not set" and
// is skipped.
type TPSLValidator interface {
	Validate(side intent.Side, refPrice, tp, sl float64) error
}

// SideRuleValidator enforces the basic directional rules: a BUY takes
// profit above the reference and stops out below it; a SELL is the
// mirror image.
type SideRuleValidator struct{}

func NewSideRuleValidator() *SideRuleValidator { return &SideRuleValidator{} }

func (v *SideRuleValidator) Validate(side intent.Side, refPrice, tp, sl float64) error {
	switch side {
	case intent.ActionBuy:
		if tp > 0 && !decimalGT(tp, refPrice) {
			return intent.Invalidf("BUY tp_price %v must be above reference price %v", tp, refPrice)
		}
		if sl > 0 && !decimalLT(sl, refPrice) {
			return intent.Invalidf("BUY sl_price %v must be below reference price %v", sl, refPrice)
		}
	case intent.ActionSell:
		if tp > 0 && !decimalLT(tp, refPrice) {
			return intent.Invalidf("SELL tp_price %v must be below reference price %v", tp, refPrice)
		}
		if sl > 0 && !decimalGT(sl, refPrice) {
			return intent.Invalidf("SELL sl_price %v must be above reference price %v", sl, refPrice)
		}
	default:
		return intent.Invalidf("tp/sl validation does not apply to side %q", side)
	}
	return nil
}
