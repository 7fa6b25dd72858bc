// Package sim defines the shared data model for the round-based business
// simulation: the global world configuration, per-player companies with
// their stock positions, and the decisions they submit each round.
package sim

import (
	"github.com/shopspring/decimal"
)

// Market is one regional demand pool with its own elasticity parameters.
type Market struct {
	Name               string  `json:"name"`
	BaseDemand         float64 `json:"base_demand"`          // Units demanded at the reference price
	PriceSensitivity   float64 `json:"price_sensitivity"`    // Elasticity exponent, > 0
	MaxAcceptablePrice float64 `json:"max_acceptable_price"` // Consumer resistance ceiling
	ReferencePrice     float64 `json:"reference_price"`      // Price at which demand equals BaseDemand
}

// GlobalConfig is the singleton world configuration. Only the round trigger
// advances CurrentRound; market definitions are admin-owned.
type GlobalConfig struct {
	CurrentRound       int             `json:"current_round"`
	Active             bool            `json:"active"`
	LoanInterestRate   decimal.Decimal `json:"loan_interest_rate"`    // Charged on liabilities per round
	StorageCostPerUnit decimal.Decimal `json:"storage_cost_per_unit"` // Per unit per round
	Markets            []Market        `json:"markets"`
}

// MarketNames returns the configured market names in order.
func (g GlobalConfig) MarketNames() []string {
	names := make([]string, len(g.Markets))
	for i, m := range g.Markets {
		names[i] = m.Name
	}
	return names
}

// Financials is a company's balance-sheet position. Cash may go negative:
// the engine settles costs against revenue without blocking overspend.
type Financials struct {
	Cash        decimal.Decimal `json:"cash"`
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
}

// RawMaterials is the unprocessed input stock at the factory.
type RawMaterials struct {
	Units       int             `json:"units"`
	AverageCost decimal.Decimal `json:"average_cost"` // Static under the fixed-price regime
}

// FactoryStock is finished goods not yet dispatched to any market.
// UnitCost is a running weighted average over production runs.
type FactoryStock struct {
	Units    int             `json:"units"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Shipment is a quantity of finished goods in transit to a market.
// RoundsRemaining counts down each round; at <= 1 the shipment arrives.
type Shipment struct {
	BatchID         string          `json:"batch_id"`
	Units           int             `json:"units"`
	Destination     string          `json:"destination"`
	Method          ShipMethod      `json:"method"`
	RoundsRemaining int             `json:"rounds_remaining"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

// Batch is sellable stock located at one market, sharing a unit cost and age.
type Batch struct {
	BatchID    string          `json:"batch_id"`
	Market     string          `json:"market"`
	Units      int             `json:"units"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Age        int             `json:"age"` // Rounds since arrival
	IsObsolete bool            `json:"is_obsolete"`
}

// KPI holds the scorecard values. Ethics is maintained outside the engine
// and read as-is when blending the composite score.
type KPI struct {
	Ethics       float64 `json:"ethics"`       // [0, 100]
	Satisfaction float64 `json:"satisfaction"` // [0, 100]
	WSC          float64 `json:"wsc"`          // Composite winner scorecard
}

// HistoryEntry is one closed round's outcome. History is append-only.
type HistoryEntry struct {
	Round     int             `json:"round"`
	Cash      decimal.Decimal `json:"cash"`
	WSC       float64         `json:"wsc"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Company is one player's firm. Lives for the whole simulation and is
// mutated only by round processing (and registration, outside the engine).
type Company struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Financials   Financials     `json:"financials"`
	RawMaterials RawMaterials   `json:"raw_materials"`
	FactoryStock FactoryStock   `json:"factory_stock"`
	InTransit    []Shipment     `json:"in_transit"`
	Inventory    []Batch        `json:"inventory"`
	KPI          KPI            `json:"kpi"`
	History      []HistoryEntry `json:"history"`
	CurrentRound int            `json:"current_round"`
}

// StockIn sums sellable units the company holds at one market.
func (c *Company) StockIn(market string) int {
	total := 0
	for _, b := range c.Inventory {
		if b.Market == market {
			total += b.Units
		}
	}
	return total
}
