package pnl

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/model"
	"github.com/jimmer89/bloop-tracker/src/spread"
)

type tradeRecalcStore interface {
	FindAll(ctx context.Context) ([]model.ClosedTrade, error)
	UpdateSpreadFields(ctx context.Context, id uint, spreadCost, netPoints, netPercent float64) error
}

// Recalculator reprices the whole trade ledger against the current spread
// table. Gross figures are never touched, so running it twice with an
// unchanged spread config is a no-op on the stored values.
type Recalculator struct {
	trades  tradeRecalcStore
	spreads *spread.Config
}

func NewRecalculator(trades tradeRecalcStore, spreads *spread.Config) *Recalculator {
	return &Recalculator{trades: trades, spreads: spreads}
}

// RecalculateAll rewrites spread_cost, net_points and net_percent for every
// closed trade and returns how many rows were updated.
func (r *Recalculator) RecalculateAll(ctx context.Context) (int, error) {
	trades, err := r.trades.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, trade := range trades {
		spreadCost := r.spreads.Lookup(trade.Symbol)
		netPoints, netPercent := NetFromGross(trade.PnlPoints, trade.EntryPrice, spreadCost)

		if err := r.trades.UpdateSpreadFields(ctx, trade.ID, spreadCost, netPoints, netPercent); err != nil {
			return updated, err
		}
		updated++
	}

	logger.WithFields(map[string]interface{}{
		"component": "Recalculator",
		"updated":   updated,
	}).Info("Trade ledger repriced against current spread config")

	return updated, nil
}
