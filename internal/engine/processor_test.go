package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electronova/ecpcim/internal/market"
	"github.com/electronova/ecpcim/internal/sim"
)

type fakeStore struct {
	cfg       sim.GlobalConfig
	cfgErr    error
	companies []*sim.Company
	decisions map[string]*sim.Decision
	saved     []string
	failSave  map[string]error
}

func (f *fakeStore) Config(ctx context.Context) (sim.GlobalConfig, error) {
	return f.cfg, f.cfgErr
}

func (f *fakeStore) Companies(ctx context.Context) ([]*sim.Company, error) {
	return f.companies, nil
}

func (f *fakeStore) DecisionFor(ctx context.Context, companyID string, round int) (*sim.Decision, error) {
	return f.decisions[companyID], nil
}

func (f *fakeStore) SaveCompany(ctx context.Context, c *sim.Company) error {
	if err := f.failSave[c.ID]; err != nil {
		return err
	}
	f.saved = append(f.saved, c.ID)
	return nil
}

type recordingNotifier struct {
	ch chan int
}

func (n *recordingNotifier) RoundChanged(round int) { n.ch <- round }

func singleMarketConfig() sim.GlobalConfig {
	return sim.GlobalConfig{
		CurrentRound:       1,
		Active:             true,
		LoanInterestRate:   money("0.05"),
		StorageCostPerUnit: money("0.20"),
		Markets: []sim.Market{
			{Name: "Centro", BaseDemand: 1000, PriceSensitivity: 1, MaxAcceptablePrice: 300, ReferencePrice: 150},
		},
	}
}

func TestProcessRoundEndToEnd(t *testing.T) {
	c := newTestCompany("500000.00")
	c.Inventory = []sim.Batch{{BatchID: "B-INIT", Market: "Centro", Units: 1000, UnitCost: money("50.00")}}

	st := &fakeStore{
		cfg:       singleMarketConfig(),
		companies: []*sim.Company{c},
		decisions: map[string]*sim.Decision{
			c.ID: {CompanyID: c.ID, Round: 1, Price: money("150"), Marketing: decimal.Zero},
		},
	}
	notifier := &recordingNotifier{ch: make(chan int, 1)}

	// FixedNoise(0.5) puts the volatility multiplier at exactly 1.0, so
	// potential demand equals base demand.
	results, err := New(st, notifier, market.FixedNoise(0.5)).ProcessRound(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, c.ID, res.CompanyID)
	assert.Equal(t, 1000, res.UnitsSold)
	assert.True(t, res.Revenue.Equal(money("150000")), "got %s", res.Revenue)
	require.NoError(t, res.Err)

	// 500000 + 150000 revenue; inventory sold out, so no storage charge.
	assert.True(t, c.Financials.Cash.Equal(money("650000.00")), "got %s", c.Financials.Cash)
	assert.Empty(t, c.Inventory)

	// All demand served: satisfaction holds at the cap, WSC blends
	// profit 65, satisfaction 100, ethics 100.
	assert.Equal(t, 100.0, c.KPI.Satisfaction)
	assert.InDelta(t, 86.0, c.KPI.WSC, 1e-9)

	require.Len(t, c.History, 1)
	assert.Equal(t, 1, c.History[0].Round)
	assert.Equal(t, 1000, c.History[0].UnitsSold)

	assert.Equal(t, 2, c.CurrentRound, "company advances to the next round")
	assert.Equal(t, []string{c.ID}, st.saved)
	assert.Equal(t, 2, <-notifier.ch, "subscribers learn the new round number")
}

func TestProcessRoundMissingDecisionIsNoActivity(t *testing.T) {
	c := newTestCompany("500000.00")
	c.RawMaterials.Units = 200
	c.FactoryStock = sim.FactoryStock{Units: 80, UnitCost: money("50")}
	c.Inventory = []sim.Batch{{Market: "Centro", Units: 300, UnitCost: money("50")}}

	st := &fakeStore{
		cfg:       singleMarketConfig(),
		companies: []*sim.Company{c},
		decisions: map[string]*sim.Decision{},
	}

	results, err := New(st, nil, market.FixedNoise(0.5)).ProcessRound(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 0, results[0].UnitsSold, "sentinel price sells nothing")
	assert.Equal(t, 200, c.RawMaterials.Units, "no procurement or production")
	assert.Equal(t, 80, c.FactoryStock.Units, "no dispatch")
	assert.Empty(t, c.InTransit)

	// Only the storage charge moves cash: 300 units at 0.20.
	assert.True(t, c.Financials.Cash.Equal(money("499940.00")), "got %s", c.Financials.Cash)
	require.Len(t, c.Inventory, 1)
	assert.Equal(t, 1, c.Inventory[0].Age)
}

func TestProcessRoundAbortsWhenInactive(t *testing.T) {
	cfg := singleMarketConfig()
	cfg.Active = false
	c := newTestCompany("1000")
	st := &fakeStore{cfg: cfg, companies: []*sim.Company{c}}

	_, err := New(st, nil, market.FixedNoise(0.5)).ProcessRound(context.Background())
	assert.ErrorIs(t, err, ErrInactive)
	assert.Empty(t, st.saved, "nothing persisted")
}

func TestProcessRoundAbortsWithoutMarkets(t *testing.T) {
	cfg := singleMarketConfig()
	cfg.Markets = nil
	st := &fakeStore{cfg: cfg}

	_, err := New(st, nil, market.FixedNoise(0.5)).ProcessRound(context.Background())
	assert.ErrorIs(t, err, ErrNoMarkets)
}

func TestProcessRoundConfigErrorIsFatal(t *testing.T) {
	st := &fakeStore{cfgErr: errors.New("disk on fire")}

	_, err := New(st, nil, market.FixedNoise(0.5)).ProcessRound(context.Background())
	assert.Error(t, err)
}

func TestProcessRoundSaveFailureDoesNotBlockOthers(t *testing.T) {
	bad := newTestCompany("1000")
	bad.ID = "bad"
	good := newTestCompany("1000")
	good.ID = "good"

	saveErr := errors.New("row locked")
	st := &fakeStore{
		cfg:       singleMarketConfig(),
		companies: []*sim.Company{bad, good},
		decisions: map[string]*sim.Decision{},
		failSave:  map[string]error{"bad": saveErr},
	}

	results, err := New(st, nil, market.FixedNoise(0.5)).ProcessRound(context.Background())
	require.NoError(t, err, "one bad record must not abort the cohort")
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, saveErr)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, []string{"good"}, st.saved)
}

func TestProcessRoundSharedNoisePerMarket(t *testing.T) {
	// Two companies with identical positions in the same market must see the
	// same demand: the volatility draw happens once per market, not per
	// company.
	a := newTestCompany("500000")
	a.ID = "a"
	a.Inventory = []sim.Batch{{Market: "Centro", Units: 100000, UnitCost: money("50")}}
	b := newTestCompany("500000")
	b.ID = "b"
	b.Inventory = []sim.Batch{{Market: "Centro", Units: 100000, UnitCost: money("50")}}

	d := func(id string) *sim.Decision {
		return &sim.Decision{CompanyID: id, Round: 1, Price: money("140"), Marketing: money("500")}
	}
	st := &fakeStore{
		cfg:       singleMarketConfig(),
		companies: []*sim.Company{a, b},
		decisions: map[string]*sim.Decision{"a": d("a"), "b": d("b")},
	}

	results, err := New(st, nil, market.NewSeededNoise(11)).ProcessRound(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].UnitsSold, results[1].UnitsSold)
}
