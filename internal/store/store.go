// Package store provides SQLite-backed persistence for companies, decisions,
// and the global configuration. Nested slices are stored as JSON columns;
// monetary amounts are stored as exact decimal strings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/electronova/ecpcim/internal/sim"
)

// ErrNoConfig is returned when the global configuration row is absent.
var ErrNoConfig = errors.New("global config not found")

// DB wraps a SQLite connection for simulation state.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cash TEXT NOT NULL,
		assets TEXT NOT NULL,
		liabilities TEXT NOT NULL,
		raw_units INTEGER NOT NULL,
		raw_average_cost TEXT NOT NULL,
		factory_units INTEGER NOT NULL,
		factory_unit_cost TEXT NOT NULL,
		in_transit_json TEXT NOT NULL,
		inventory_json TEXT NOT NULL,
		kpi_json TEXT NOT NULL,
		history_json TEXT NOT NULL,
		current_round INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decisions (
		company_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		price TEXT NOT NULL,
		marketing TEXT NOT NULL,
		production_units INTEGER NOT NULL,
		procurement_units INTEGER NOT NULL,
		logistics_json TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		PRIMARY KEY (company_id, round)
	);

	CREATE TABLE IF NOT EXISTS global_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		current_round INTEGER NOT NULL,
		active INTEGER NOT NULL,
		loan_interest_rate TEXT NOT NULL,
		storage_cost_per_unit TEXT NOT NULL,
		markets_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_round ON decisions(round);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// companyRow is the flat companies table shape.
type companyRow struct {
	ID              string `db:"id"`
	Name            string `db:"name"`
	Cash            string `db:"cash"`
	Assets          string `db:"assets"`
	Liabilities     string `db:"liabilities"`
	RawUnits        int    `db:"raw_units"`
	RawAverageCost  string `db:"raw_average_cost"`
	FactoryUnits    int    `db:"factory_units"`
	FactoryUnitCost string `db:"factory_unit_cost"`
	InTransitJSON   string `db:"in_transit_json"`
	InventoryJSON   string `db:"inventory_json"`
	KPIJSON         string `db:"kpi_json"`
	HistoryJSON     string `db:"history_json"`
	CurrentRound    int    `db:"current_round"`
}

func (r companyRow) toCompany() (*sim.Company, error) {
	c := &sim.Company{
		ID:           r.ID,
		Name:         r.Name,
		CurrentRound: r.CurrentRound,
	}

	var err error
	if c.Financials.Cash, err = decimal.NewFromString(r.Cash); err != nil {
		return nil, fmt.Errorf("company %s cash: %w", r.ID, err)
	}
	if c.Financials.Assets, err = decimal.NewFromString(r.Assets); err != nil {
		return nil, fmt.Errorf("company %s assets: %w", r.ID, err)
	}
	if c.Financials.Liabilities, err = decimal.NewFromString(r.Liabilities); err != nil {
		return nil, fmt.Errorf("company %s liabilities: %w", r.ID, err)
	}
	if c.RawMaterials.AverageCost, err = decimal.NewFromString(r.RawAverageCost); err != nil {
		return nil, fmt.Errorf("company %s raw cost: %w", r.ID, err)
	}
	if c.FactoryStock.UnitCost, err = decimal.NewFromString(r.FactoryUnitCost); err != nil {
		return nil, fmt.Errorf("company %s factory cost: %w", r.ID, err)
	}
	c.RawMaterials.Units = r.RawUnits
	c.FactoryStock.Units = r.FactoryUnits

	if err := json.Unmarshal([]byte(r.InTransitJSON), &c.InTransit); err != nil {
		return nil, fmt.Errorf("company %s transit: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.InventoryJSON), &c.Inventory); err != nil {
		return nil, fmt.Errorf("company %s inventory: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.KPIJSON), &c.KPI); err != nil {
		return nil, fmt.Errorf("company %s kpi: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.HistoryJSON), &c.History); err != nil {
		return nil, fmt.Errorf("company %s history: %w", r.ID, err)
	}
	return c, nil
}

func toRow(c *sim.Company) (companyRow, error) {
	transitJSON, err := json.Marshal(orEmptyShipments(c.InTransit))
	if err != nil {
		return companyRow{}, err
	}
	inventoryJSON, err := json.Marshal(orEmptyBatches(c.Inventory))
	if err != nil {
		return companyRow{}, err
	}
	kpiJSON, err := json.Marshal(c.KPI)
	if err != nil {
		return companyRow{}, err
	}
	historyJSON, err := json.Marshal(orEmptyHistory(c.History))
	if err != nil {
		return companyRow{}, err
	}

	return companyRow{
		ID:              c.ID,
		Name:            c.Name,
		Cash:            c.Financials.Cash.String(),
		Assets:          c.Financials.Assets.String(),
		Liabilities:     c.Financials.Liabilities.String(),
		RawUnits:        c.RawMaterials.Units,
		RawAverageCost:  c.RawMaterials.AverageCost.String(),
		FactoryUnits:    c.FactoryStock.Units,
		FactoryUnitCost: c.FactoryStock.UnitCost.String(),
		InTransitJSON:   string(transitJSON),
		InventoryJSON:   string(inventoryJSON),
		KPIJSON:         string(kpiJSON),
		HistoryJSON:     string(historyJSON),
		CurrentRound:    c.CurrentRound,
	}, nil
}

// JSON columns always hold arrays, never null.
func orEmptyShipments(s []sim.Shipment) []sim.Shipment {
	if s == nil {
		return []sim.Shipment{}
	}
	return s
}

func orEmptyBatches(b []sim.Batch) []sim.Batch {
	if b == nil {
		return []sim.Batch{}
	}
	return b
}

func orEmptyHistory(h []sim.HistoryEntry) []sim.HistoryEntry {
	if h == nil {
		return []sim.HistoryEntry{}
	}
	return h
}

// Companies loads all company records.
func (db *DB) Companies(ctx context.Context) ([]*sim.Company, error) {
	var rows []companyRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT * FROM companies ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("select companies: %w", err)
	}

	companies := make([]*sim.Company, 0, len(rows))
	for _, r := range rows {
		c, err := r.toCompany()
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// SaveCompany replaces a single company record.
func (db *DB) SaveCompany(ctx context.Context, c *sim.Company) error {
	row, err := toRow(c)
	if err != nil {
		return fmt.Errorf("encode company %s: %w", c.ID, err)
	}

	_, err = db.conn.NamedExecContext(ctx, `INSERT OR REPLACE INTO companies
		(id, name, cash, assets, liabilities, raw_units, raw_average_cost,
		 factory_units, factory_unit_cost, in_transit_json, inventory_json,
		 kpi_json, history_json, current_round)
		VALUES (:id, :name, :cash, :assets, :liabilities, :raw_units, :raw_average_cost,
		 :factory_units, :factory_unit_cost, :in_transit_json, :inventory_json,
		 :kpi_json, :history_json, :current_round)`, row)
	if err != nil {
		return fmt.Errorf("save company %s: %w", c.ID, err)
	}
	return nil
}

// decisionRow is the flat decisions table shape.
type decisionRow struct {
	CompanyID        string    `db:"company_id"`
	Round            int       `db:"round"`
	Price            string    `db:"price"`
	Marketing        string    `db:"marketing"`
	ProductionUnits  int       `db:"production_units"`
	ProcurementUnits int       `db:"procurement_units"`
	LogisticsJSON    string `db:"logistics_json"`
	SubmittedAt      string `db:"submitted_at"`
}

// DecisionFor loads one company's decision for a round. Returns nil without
// error when none was submitted; the engine resolves that to a default.
func (db *DB) DecisionFor(ctx context.Context, companyID string, round int) (*sim.Decision, error) {
	var r decisionRow
	err := db.conn.GetContext(ctx, &r,
		"SELECT * FROM decisions WHERE company_id = ? AND round = ?", companyID, round)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select decision: %w", err)
	}

	d := &sim.Decision{
		CompanyID:   r.CompanyID,
		Round:       r.Round,
		Production:  r.ProductionUnits,
		Procurement: r.ProcurementUnits,
	}
	if t, err := time.Parse(time.RFC3339Nano, r.SubmittedAt); err == nil {
		d.SubmittedAt = t
	}
	if d.Price, err = decimal.NewFromString(r.Price); err != nil {
		return nil, fmt.Errorf("decision price: %w", err)
	}
	if d.Marketing, err = decimal.NewFromString(r.Marketing); err != nil {
		return nil, fmt.Errorf("decision marketing: %w", err)
	}
	if err := json.Unmarshal([]byte(r.LogisticsJSON), &d.Logistics); err != nil {
		return nil, fmt.Errorf("decision logistics: %w", err)
	}
	return d, nil
}

// UpsertDecision stores or replaces a company's decision for a round. One
// decision per company per round; resubmission overwrites until the round
// closes.
func (db *DB) UpsertDecision(ctx context.Context, d sim.Decision) error {
	logisticsJSON, err := json.Marshal(d.Logistics)
	if err != nil {
		return fmt.Errorf("encode logistics: %w", err)
	}
	if d.SubmittedAt.IsZero() {
		d.SubmittedAt = time.Now().UTC()
	}

	_, err = db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO decisions
		(company_id, round, price, marketing, production_units, procurement_units, logistics_json, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.CompanyID, d.Round, d.Price.String(), d.Marketing.String(),
		d.Production, d.Procurement, string(logisticsJSON),
		d.SubmittedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert decision: %w", err)
	}
	return nil
}

// configRow is the global_config table shape.
type configRow struct {
	ID                 int    `db:"id"`
	CurrentRound       int    `db:"current_round"`
	Active             int    `db:"active"`
	LoanInterestRate   string `db:"loan_interest_rate"`
	StorageCostPerUnit string `db:"storage_cost_per_unit"`
	MarketsJSON        string `db:"markets_json"`
}

// Config loads the singleton global configuration.
func (db *DB) Config(ctx context.Context) (sim.GlobalConfig, error) {
	var r configRow
	err := db.conn.GetContext(ctx, &r, "SELECT * FROM global_config WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return sim.GlobalConfig{}, ErrNoConfig
	}
	if err != nil {
		return sim.GlobalConfig{}, fmt.Errorf("select config: %w", err)
	}

	cfg := sim.GlobalConfig{
		CurrentRound: r.CurrentRound,
		Active:       r.Active != 0,
	}
	if cfg.LoanInterestRate, err = decimal.NewFromString(r.LoanInterestRate); err != nil {
		return sim.GlobalConfig{}, fmt.Errorf("config interest rate: %w", err)
	}
	if cfg.StorageCostPerUnit, err = decimal.NewFromString(r.StorageCostPerUnit); err != nil {
		return sim.GlobalConfig{}, fmt.Errorf("config storage cost: %w", err)
	}
	if err := json.Unmarshal([]byte(r.MarketsJSON), &cfg.Markets); err != nil {
		return sim.GlobalConfig{}, fmt.Errorf("config markets: %w", err)
	}
	return cfg, nil
}

// SaveConfig replaces the singleton global configuration.
func (db *DB) SaveConfig(ctx context.Context, cfg sim.GlobalConfig) error {
	marketsJSON, err := json.Marshal(cfg.Markets)
	if err != nil {
		return fmt.Errorf("encode markets: %w", err)
	}

	active := 0
	if cfg.Active {
		active = 1
	}

	_, err = db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO global_config
		(id, current_round, active, loan_interest_rate, storage_cost_per_unit, markets_json)
		VALUES (1, ?, ?, ?, ?, ?)`,
		cfg.CurrentRound, active, cfg.LoanInterestRate.String(),
		cfg.StorageCostPerUnit.String(), string(marketsJSON))
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// AdvanceRound increments the global round counter. Called by the trigger
// after a successful ProcessRound, never by the engine itself.
func (db *DB) AdvanceRound(ctx context.Context) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE global_config SET current_round = current_round + 1 WHERE id = 1")
	if err != nil {
		return fmt.Errorf("advance round: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoConfig
	}
	return nil
}
