package orderbuild

import (
	"math"

	"github.com/shopspring/decimal"
)

// Price comparisons go through decimal so the tie-break rules in the
// pending-order table hold exactly; float == is not trustworthy for
// quote prices.

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decimalCompare(a, b float64) int {
	return decFromFloat(a).Cmp(decFromFloat(b))
}

func decimalLT(a, b float64) bool { return decimalCompare(a, b) < 0 }
func decimalGT(a, b float64) bool { return decimalCompare(a, b) > 0 }
