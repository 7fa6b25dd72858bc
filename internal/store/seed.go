package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/electronova/ecpcim/internal/sim"
)

// DefaultConfig is the fresh-cohort global configuration: round 1, active,
// three regional markets.
func DefaultConfig() sim.GlobalConfig {
	return sim.GlobalConfig{
		CurrentRound:       1,
		Active:             true,
		LoanInterestRate:   decimal.RequireFromString("0.05"),
		StorageCostPerUnit: decimal.RequireFromString("0.20"),
		Markets: []sim.Market{
			{Name: "Centro", BaseDemand: 1000, PriceSensitivity: 1.0, MaxAcceptablePrice: 300, ReferencePrice: 150},
			{Name: "Norte", BaseDemand: 800, PriceSensitivity: 1.8, MaxAcceptablePrice: 220, ReferencePrice: 110},
			{Name: "Sur", BaseDemand: 600, PriceSensitivity: 1.2, MaxAcceptablePrice: 180, ReferencePrice: 90},
		},
	}
}

// NewCompany creates a freshly registered company with starting capital and
// an initial inventory batch at the given market.
func NewCompany(name, homeMarket string) *sim.Company {
	return &sim.Company{
		ID:   uuid.NewString(),
		Name: name,
		Financials: sim.Financials{
			Cash:        decimal.RequireFromString("500000.00"),
			Assets:      decimal.RequireFromString("500000.00"),
			Liabilities: decimal.Zero,
		},
		Inventory: []sim.Batch{
			{
				BatchID:  "B-INIT",
				Market:   homeMarket,
				Units:    1000,
				UnitCost: decimal.RequireFromString("50.00"),
			},
		},
		KPI: sim.KPI{
			Ethics:       100,
			Satisfaction: 100,
		},
		CurrentRound: 1,
	}
}

// Seed initializes an empty database with the default configuration and a
// set of demo companies. Does nothing when a configuration already exists.
func (db *DB) Seed(ctx context.Context, companyNames ...string) error {
	if _, err := db.Config(ctx); err == nil {
		return nil
	}

	cfg := DefaultConfig()
	if err := db.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("seed config: %w", err)
	}

	home := cfg.Markets[0].Name
	for _, name := range companyNames {
		if err := db.SaveCompany(ctx, NewCompany(name, home)); err != nil {
			return fmt.Errorf("seed company %s: %w", name, err)
		}
	}

	slog.Info("seeded simulation", "companies", len(companyNames), "markets", len(cfg.Markets))
	return nil
}
