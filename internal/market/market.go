// Package market implements the per-market demand model: price elasticity
// against a reference price, a steep penalty above the consumer ceiling,
// diminishing marketing returns, and a shared per-round volatility draw.
//
// Each company's allocation depends only on its own price, marketing, and
// stock plus the shared noise term. There is no cross-company substitution:
// one competitor's price does not reduce another's raw demand. That is a
// documented property of the model, not an omission.
package market

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/electronova/ecpcim/internal/sim"
)

const (
	// ceilingPenaltyOrder makes demand collapse toward zero for prices far
	// above the market's acceptable ceiling.
	ceilingPenaltyOrder = 4

	// marketingWeight scales the log10 diminishing-returns marketing factor.
	marketingWeight = 0.15

	// Volatility band for the shared per-market noise multiplier.
	noiseLow  = 0.90
	noiseHigh = 1.10
)

// Offer is one company's position in a market for the round.
type Offer struct {
	CompanyID string
	Price     decimal.Decimal
	Marketing decimal.Decimal
	Stock     int // Sellable units located at this market
}

// Result is the allocation for one company in one market.
type Result struct {
	CompanyID       string
	PotentialDemand int
	UnitsSold       int
	MissedSales     int
	Revenue         decimal.Decimal
}

// Evaluate allocates demand for every offer in a market. The noise source is
// drawn exactly once; all offers share that round's volatility.
func Evaluate(m sim.Market, offers []Offer, noise Noise) []Result {
	draw := noiseLow + (noiseHigh-noiseLow)*noise.Draw()

	results := make([]Result, 0, len(offers))
	for _, o := range offers {
		price := sim.PositivePrice(sim.Float(o.Price))
		marketing := math.Max(sim.Float(o.Marketing), 0)

		demand := m.BaseDemand * DemandFactor(m, price)
		demand *= 1 + marketingWeight*math.Log10(marketing+1)
		demand *= draw

		potential := sim.ClampUnits(int(math.Floor(sim.SafeFloat(demand))))
		stock := sim.ClampUnits(o.Stock)
		sold := potential
		if stock < sold {
			sold = stock
		}

		results = append(results, Result{
			CompanyID:       o.CompanyID,
			PotentialDemand: potential,
			UnitsSold:       sold,
			MissedSales:     potential - sold,
			Revenue:         decimal.NewFromFloat(price).Mul(sim.UnitsDecimal(sold)),
		})
	}
	return results
}

// DemandFactor is the price-driven demand multiplier: elasticity around the
// reference price, divided by an order-4 penalty above the acceptable
// ceiling. Degenerate inputs yield 0.
func DemandFactor(m sim.Market, price float64) float64 {
	price = sim.PositivePrice(price)
	factor := math.Pow(m.ReferencePrice/price, m.PriceSensitivity)
	if m.MaxAcceptablePrice > 0 && price > m.MaxAcceptablePrice {
		factor /= math.Pow(price/m.MaxAcceptablePrice, ceilingPenaltyOrder)
	}
	return sim.SafeFloat(factor)
}
