package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/electronova/ecpcim/internal/market"
	"github.com/electronova/ecpcim/internal/notify"
	"github.com/electronova/ecpcim/internal/sim"
)

// Fatal invocation errors. Both abort before any company is mutated.
var (
	ErrInactive  = errors.New("simulation is not active")
	ErrNoMarkets = errors.New("no markets configured")
)

// Store is the persistence capability the processor requires.
type Store interface {
	Config(ctx context.Context) (sim.GlobalConfig, error)
	Companies(ctx context.Context) ([]*sim.Company, error)
	// DecisionFor returns nil without error when no decision was submitted.
	DecisionFor(ctx context.Context, companyID string, round int) (*sim.Decision, error)
	SaveCompany(ctx context.Context, c *sim.Company) error
}

// Processor resolves one round for every company: operations, market
// allocation, and close. It does not advance the global round counter;
// the trigger does that after a successful return.
type Processor struct {
	store    Store
	notifier notify.Notifier
	noise    market.Noise
	econ     UnitEconomics
}

// New creates a round processor. All collaborators are injected; the
// processor holds no process-wide state.
func New(store Store, notifier notify.Notifier, noise market.Noise) *Processor {
	return &Processor{
		store:    store,
		notifier: notifier,
		noise:    noise,
		econ:     DefaultUnitEconomics(),
	}
}

// WithUnitEconomics overrides the default cohort rates.
func (p *Processor) WithUnitEconomics(econ UnitEconomics) *Processor {
	p.econ = econ
	return p
}

// companyState carries one company's intermediate results across phases.
type companyState struct {
	company  *sim.Company
	decision sim.Decision
	costs    CostSummary
	outcomes []MarketOutcome
}

// ProcessRound resolves the current round for all companies and writes each
// updated company back independently. A persistence failure for one company
// is logged and reported in its summary line without blocking the rest.
func (p *Processor) ProcessRound(ctx context.Context) ([]RoundResult, error) {
	cfg, err := p.store.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.Active {
		return nil, ErrInactive
	}
	if len(cfg.Markets) == 0 {
		return nil, ErrNoMarkets
	}

	companies, err := p.store.Companies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}

	slog.Info("processing round", "round", cfg.CurrentRound, "companies", len(companies), "markets", len(cfg.Markets))

	// Phase 1: operations and logistics, independent per company.
	marketNames := cfg.MarketNames()
	states := make([]*companyState, 0, len(companies))
	byID := make(map[string]*companyState, len(companies))
	for _, c := range companies {
		d, err := p.store.DecisionFor(ctx, c.ID, cfg.CurrentRound)
		if err != nil {
			return nil, fmt.Errorf("load decision for %s: %w", c.ID, err)
		}
		st := &companyState{
			company:  c,
			decision: sim.ResolveDecision(d, c.ID, cfg.CurrentRound),
		}
		st.costs = ResolveOperations(c, st.decision, p.econ, cfg.CurrentRound, marketNames)
		states = append(states, st)
		byID[c.ID] = st
	}

	// Phase 2: demand allocation, one evaluation per market across all
	// companies. The noise draw inside Evaluate is shared per market.
	for _, m := range cfg.Markets {
		offers := make([]market.Offer, 0, len(states))
		for _, st := range states {
			offers = append(offers, market.Offer{
				CompanyID: st.company.ID,
				Price:     st.decision.Price,
				Marketing: st.decision.Marketing,
				Stock:     st.company.StockIn(m.Name),
			})
		}
		for _, res := range market.Evaluate(m, offers, p.noise) {
			st := byID[res.CompanyID]
			st.outcomes = append(st.outcomes, MarketOutcome{Market: m.Name, Result: res})
		}
	}

	// Phase 3: close and persist each company independently.
	results := make([]RoundResult, 0, len(states))
	for _, st := range states {
		res := CloseCompany(st.company, st.costs, st.outcomes, cfg)
		if err := p.store.SaveCompany(ctx, st.company); err != nil {
			slog.Error("company save failed", "company", st.company.ID, "round", cfg.CurrentRound, "error", err)
			res.Err = err
		} else {
			slog.Debug("company closed",
				"company", st.company.Name,
				"units_sold", res.UnitsSold,
				"revenue", res.Revenue,
				"cash", st.company.Financials.Cash,
				"wsc", st.company.KPI.WSC,
			)
		}
		results = append(results, res)
	}

	// Clients learn the new round began; delivery is the notifier's problem.
	if p.notifier != nil {
		go p.notifier.RoundChanged(cfg.CurrentRound + 1)
	}

	slog.Info("round processed", "round", cfg.CurrentRound)
	return results, nil
}
