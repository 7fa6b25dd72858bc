// Package inventory implements the per-market FIFO ledger: depletion of
// sold units, batch aging, storage-cost accrual, and obsolescence flagging.
package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/electronova/ecpcim/internal/sim"
)

// ObsoleteAge is the age beyond which a batch is flagged obsolete.
// The flag is a marker only; no value write-off is applied.
const ObsoleteAge = 3

// Deplete removes units from the batches located at one market, oldest age
// first. Batches at other markets are untouched. Emptied batches are pruned.
// Depleting more than is available removes everything at the market and
// stops there.
func Deplete(batches []sim.Batch, market string, units int) []sim.Batch {
	remaining := sim.ClampUnits(units)

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Age > batches[j].Age
	})

	out := make([]sim.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Units <= 0 {
			continue
		}
		if b.Market != market || remaining <= 0 {
			out = append(out, b)
			continue
		}
		if b.Units <= remaining {
			remaining -= b.Units
			continue // batch exhausted, dropped
		}
		b.Units -= remaining
		remaining = 0
		out = append(out, b)
	}
	return out
}

// AgeAndCharge ages every surviving batch by one round, accrues storage cost
// for the round, and flags batches past ObsoleteAge. Re-flagging an already
// obsolete batch has no further effect.
func AgeAndCharge(batches []sim.Batch, costPerUnit decimal.Decimal) ([]sim.Batch, decimal.Decimal) {
	total := decimal.Zero
	for i := range batches {
		b := &batches[i]
		total = total.Add(costPerUnit.Mul(sim.UnitsDecimal(b.Units)))
		b.Age++
		if b.Age > ObsoleteAge {
			b.IsObsolete = true
		}
	}
	return batches, total
}
