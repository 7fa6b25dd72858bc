package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/electronova/ecpcim/internal/sim"
)

// Satisfaction penalty tiers on the aggregate missed-sales ratio.
const (
	missedRatioMinor = 0.1
	missedRatioMajor = 0.5

	penaltyMinor = 10.0
	penaltyMajor = 30.0

	satisfactionRecovery = 5.0
)

// SatisfactionAfter applies the tiered missed-sales penalty to the current
// satisfaction and the recovery bonus when no penalty applies. The result is
// clamped to [0, 100].
func SatisfactionAfter(current float64, missed, potential int) float64 {
	penalty := 0.0
	if potential > 0 {
		ratio := float64(missed) / float64(potential)
		switch {
		case ratio <= missedRatioMinor:
			penalty = 0
		case ratio <= missedRatioMajor:
			penalty = penaltyMinor
		default:
			penalty = penaltyMajor
		}
	}

	recovery := 0.0
	if penalty == 0 {
		recovery = satisfactionRecovery
	}
	return sim.Clamp(current-penalty+recovery, 0, 100)
}

// ProfitScore maps cash linearly onto a score capped at 100. Negative cash
// maps below zero; insolvency is surfaced as data, not a distinct state.
func ProfitScore(cash decimal.Decimal) float64 {
	return math.Min(sim.Float(cash)/10000, 100)
}

// WSC blends capped profit, satisfaction, and ethics into the composite
// winner scorecard.
func WSC(profit, satisfaction, ethics float64) float64 {
	return 0.4*profit + 0.3*satisfaction + 0.3*ethics
}
