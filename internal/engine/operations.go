// Package engine runs round processing: the per-company operations phase,
// the per-market demand phase, and the closing phase that settles finances,
// updates the scorecard, and writes companies back.
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/electronova/ecpcim/internal/sim"
)

// UnitEconomics are the fixed per-unit rates charged during the operations
// phase.
type UnitEconomics struct {
	RawMaterialCost decimal.Decimal // Per raw-material unit procured
	ManufactureCost decimal.Decimal // Per unit produced, on top of material
	AirShipping     decimal.Decimal // Per unit dispatched by air
	GroundShipping  decimal.Decimal // Per unit dispatched by ground
}

// DefaultUnitEconomics returns the standard cohort rates.
func DefaultUnitEconomics() UnitEconomics {
	return UnitEconomics{
		RawMaterialCost: decimal.RequireFromString("15.00"),
		ManufactureCost: decimal.RequireFromString("35.00"),
		AirShipping:     decimal.RequireFromString("5.00"),
		GroundShipping:  decimal.RequireFromString("1.00"),
	}
}

// CostSummary is the cash ledger produced by the operations phase, retained
// for the closing phase. Marketing is declared spend; it is debited at close.
type CostSummary struct {
	Procurement decimal.Decimal
	Production  decimal.Decimal
	Logistics   decimal.Decimal
	Marketing   decimal.Decimal
}

// ResolveOperations runs the operations phase for one company: inbound
// arrivals, raw-material procurement, production, and outbound dispatch.
// Each step updates the company in place and debits cash immediately.
//
// Business shortfalls are never errors: production caps at available raw
// materials, dispatch caps at factory stock, and overspending into negative
// cash is a financial outcome, not a failure.
func ResolveOperations(c *sim.Company, d sim.Decision, econ UnitEconomics, round int, markets []string) CostSummary {
	resolveArrivals(c)

	// Procurement: bought in full at the fixed unit price, no budget check.
	procured := sim.ClampUnits(d.Procurement)
	procurementCost := econ.RawMaterialCost.Mul(sim.UnitsDecimal(procured))
	c.RawMaterials.Units += procured
	c.Financials.Cash = c.Financials.Cash.Sub(procurementCost)

	// Production: capped by available raw materials, consumed 1:1.
	produced := sim.ClampUnits(d.Production)
	if produced > c.RawMaterials.Units {
		produced = c.RawMaterials.Units
	}
	c.RawMaterials.Units -= produced

	perUnit := econ.RawMaterialCost.Add(econ.ManufactureCost)
	productionCost := perUnit.Mul(sim.UnitsDecimal(produced))
	c.Financials.Cash = c.Financials.Cash.Sub(productionCost)
	mergeFactoryStock(&c.FactoryStock, produced, perUnit)

	logisticsCost := dispatch(c, d.Logistics, econ, round, markets)

	return CostSummary{
		Procurement: procurementCost,
		Production:  productionCost,
		Logistics:   logisticsCost,
		Marketing:   d.Marketing,
	}
}

// resolveArrivals lands every shipment due this round as a fresh batch at
// its destination and advances the countdown on the rest. Unit count and
// unit cost carry over unchanged.
func resolveArrivals(c *sim.Company) {
	remaining := c.InTransit[:0]
	for _, s := range c.InTransit {
		if s.RoundsRemaining <= 1 {
			c.Inventory = append(c.Inventory, sim.Batch{
				BatchID:  s.BatchID,
				Market:   s.Destination,
				Units:    s.Units,
				UnitCost: s.UnitCost,
			})
			continue
		}
		s.RoundsRemaining--
		remaining = append(remaining, s)
	}
	c.InTransit = remaining
}

// mergeFactoryStock folds a production run into factory stock at a running
// weighted-average unit cost. A zero total resets the cost to zero.
func mergeFactoryStock(fs *sim.FactoryStock, units int, unitCost decimal.Decimal) {
	if units <= 0 {
		return
	}
	total := fs.Units + units
	value := fs.UnitCost.Mul(sim.UnitsDecimal(fs.Units)).
		Add(unitCost.Mul(sim.UnitsDecimal(units)))
	fs.Units = total
	if total > 0 {
		fs.UnitCost = value.Div(sim.UnitsDecimal(total))
	} else {
		fs.UnitCost = decimal.Zero
	}
}

// dispatch creates transit entries for each logistics line, capped at the
// remaining factory stock. An unknown destination is coerced to the first
// configured market rather than rejected.
func dispatch(c *sim.Company, lines []sim.LogisticsLine, econ UnitEconomics, round int, markets []string) decimal.Decimal {
	total := decimal.Zero
	if len(markets) == 0 {
		return total
	}

	valid := make(map[string]bool, len(markets))
	for _, name := range markets {
		valid[name] = true
	}

	for _, line := range lines {
		units := sim.ClampUnits(line.Units)
		if units > c.FactoryStock.Units {
			units = c.FactoryStock.Units
		}
		if units == 0 {
			continue
		}
		c.FactoryStock.Units -= units

		rate := econ.GroundShipping
		if line.Method == sim.ShipAir {
			rate = econ.AirShipping
		}
		cost := rate.Mul(sim.UnitsDecimal(units))
		c.Financials.Cash = c.Financials.Cash.Sub(cost)
		total = total.Add(cost)

		destination := line.Destination
		if !valid[destination] {
			destination = markets[0]
		}

		c.InTransit = append(c.InTransit, sim.Shipment{
			BatchID:         batchID(round, destination),
			Units:           units,
			Destination:     destination,
			Method:          line.Method,
			RoundsRemaining: line.Method.TransitRounds(),
			UnitCost:        c.FactoryStock.UnitCost,
		})
	}
	return total
}

func batchID(round int, destination string) string {
	tag := strings.ToUpper(destination)
	if len(tag) > 3 {
		tag = tag[:3]
	}
	return fmt.Sprintf("R%d-%s", round, tag)
}
