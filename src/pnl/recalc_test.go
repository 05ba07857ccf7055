package pnl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jimmer89/bloop-tracker/src/model"
	"github.com/jimmer89/bloop-tracker/src/spread"
)

type fakeTradeStore struct {
	trades  []model.ClosedTrade
	updates int
	err     error
}

func (f *fakeTradeStore) FindAll(ctx context.Context) ([]model.ClosedTrade, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.trades, nil
}

func (f *fakeTradeStore) UpdateSpreadFields(
	ctx context.Context,
	id uint,
	spreadCost, netPoints, netPercent float64,
) error {
	f.updates++
	for i := range f.trades {
		if f.trades[i].ID == id {
			f.trades[i].SpreadCost = spreadCost
			f.trades[i].NetPoints = netPoints
			f.trades[i].NetPercent = netPercent
		}
	}
	return nil
}

func TestRecalculateAllAppliesCurrentSpread(t *testing.T) {
	store := &fakeTradeStore{
		trades: []model.ClosedTrade{
			{ID: 1, Symbol: spread.DefaultSymbol, EntryPrice: 100, PnlPoints: 10, SpreadCost: 2, NetPoints: 8, NetPercent: 8},
			{ID: 2, Symbol: "GER40", EntryPrice: 200, PnlPoints: -4, SpreadCost: 2, NetPoints: -6, NetPercent: -3},
		},
	}

	spreads := spread.NewConfig()
	if err := spreads.Set(spread.DefaultSymbol, 1, "test"); err != nil {
		t.Fatalf("failed to set spread: %v", err)
	}

	recalc := NewRecalculator(store, spreads)

	updated, err := recalc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, 2, updated)

	// Gross figures untouched, net repriced with spread 1.
	assert.Equal(t, 10.0, store.trades[0].PnlPoints)
	assert.Equal(t, 1.0, store.trades[0].SpreadCost)
	assert.Equal(t, 9.0, store.trades[0].NetPoints)
	assert.Equal(t, 9.0, store.trades[0].NetPercent)

	// GER40 has no entry of its own and falls back to the default instrument.
	assert.Equal(t, 1.0, store.trades[1].SpreadCost)
	assert.Equal(t, -5.0, store.trades[1].NetPoints)
	assert.Equal(t, -2.5, store.trades[1].NetPercent)
}

func TestRecalculateAllIsIdempotent(t *testing.T) {
	store := &fakeTradeStore{
		trades: []model.ClosedTrade{
			{ID: 1, Symbol: spread.DefaultSymbol, EntryPrice: 50, PnlPoints: 5},
		},
	}

	spreads := spread.NewConfig()
	recalc := NewRecalculator(store, spreads)

	if _, err := recalc.RecalculateAll(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first := store.trades[0]

	if _, err := recalc.RecalculateAll(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	second := store.trades[0]

	assert.Equal(t, first.SpreadCost, second.SpreadCost)
	assert.Equal(t, first.NetPoints, second.NetPoints)
	assert.Equal(t, first.NetPercent, second.NetPercent)
}

func TestRecalculateAllPropagatesStoreError(t *testing.T) {
	store := &fakeTradeStore{err: assert.AnError}
	recalc := NewRecalculator(store, spread.NewConfig())

	if _, err := recalc.RecalculateAll(context.Background()); err == nil {
		t.Fatalf("expected store error to propagate")
	}
}
