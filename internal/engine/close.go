package engine

import (
	"github.com/shopspring/decimal"

	"github.com/electronova/ecpcim/internal/inventory"
	"github.com/electronova/ecpcim/internal/market"
	"github.com/electronova/ecpcim/internal/sim"
)

// MarketOutcome pairs a market name with a company's allocation there.
type MarketOutcome struct {
	Market string
	market.Result
}

// RoundResult is one company's line in the round summary returned to the
// operator. Err carries a persistence failure for that company, if any.
type RoundResult struct {
	CompanyID string
	Name      string
	UnitsSold int
	Revenue   decimal.Decimal
	Err       error
}

// CloseCompany runs the closing phase for one company: FIFO depletion of
// sold units per market, aging and storage charges, cash settlement,
// scorecard update, and the history append. The company's own round counter
// advances to the next round to stay in lockstep with the world.
func CloseCompany(c *sim.Company, costs CostSummary, outcomes []MarketOutcome, cfg sim.GlobalConfig) RoundResult {
	revenue := decimal.Zero
	unitsSold := 0
	missed := 0
	potential := 0

	for _, o := range outcomes {
		c.Inventory = inventory.Deplete(c.Inventory, o.Market, o.UnitsSold)
		revenue = revenue.Add(o.Revenue)
		unitsSold += o.UnitsSold
		missed += o.MissedSales
		potential += o.PotentialDemand
	}

	var storage decimal.Decimal
	c.Inventory, storage = inventory.AgeAndCharge(c.Inventory, cfg.StorageCostPerUnit)

	interest := c.Financials.Liabilities.Mul(cfg.LoanInterestRate)

	c.Financials.Cash = c.Financials.Cash.
		Add(revenue).
		Sub(storage).
		Sub(costs.Marketing).
		Sub(interest)

	c.KPI.Satisfaction = SatisfactionAfter(c.KPI.Satisfaction, missed, potential)
	c.KPI.WSC = WSC(ProfitScore(c.Financials.Cash), c.KPI.Satisfaction, c.KPI.Ethics)

	c.History = append(c.History, sim.HistoryEntry{
		Round:     cfg.CurrentRound,
		Cash:      c.Financials.Cash,
		WSC:       c.KPI.WSC,
		UnitsSold: unitsSold,
		Revenue:   revenue,
	})
	c.CurrentRound = cfg.CurrentRound + 1

	return RoundResult{
		CompanyID: c.ID,
		Name:      c.Name,
		UnitsSold: unitsSold,
		Revenue:   revenue,
	}
}
