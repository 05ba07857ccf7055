package tracker

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/model"
	"github.com/jimmer89/bloop-tracker/src/pnl"
	"github.com/jimmer89/bloop-tracker/src/repository"
)

// Tracker owns every open-position transition. Signals for the same symbol
// are serialized through a per-symbol mutex so two concurrent webhooks can
// never both close the same position or leave the row reflecting neither.
type Tracker struct {
	signals   *repository.SignalRepository
	positions *repository.PositionRepository
	calc      *pnl.Calculator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(
	signals *repository.SignalRepository,
	positions *repository.PositionRepository,
	calc *pnl.Calculator,
) *Tracker {
	return &Tracker{
		signals:   signals,
		positions: positions,
		calc:      calc,
		locks:     make(map[string]*sync.Mutex),
	}
}

// OnSignal applies one inbound signal. The signal is appended to the log
// first, regardless of direction; an append failure aborts the operation.
// Tradable signals then open, close+reopen, or no-op the position:
//
//   - no open position       -> open in the signal's direction
//   - same direction open    -> no-op (signals do not pyramid)
//   - opposite direction open -> close old, reopen new, one transaction
//
// Returns the closed trade when a close happened, otherwise nil.
func (t *Tracker) OnSignal(ctx context.Context, n model.NormalizedSignal) (*model.ClosedTrade, error) {
	signal := model.NewSignalFromNormalized(n)
	if err := t.signals.Create(ctx, &signal); err != nil {
		return nil, err
	}

	if !model.IsTradable(n.Direction) {
		logger.WithFields(map[string]interface{}{
			"component": "Tracker",
			"signal":    n.Direction,
			"symbol":    n.Symbol,
		}).Debug("Informational signal, position untouched")
		return nil, nil
	}

	lock := t.symbolLock(n.Symbol)
	lock.Lock()
	defer lock.Unlock()

	pos, err := t.positions.FindBySymbol(ctx, n.Symbol)
	if err != nil {
		return nil, err
	}

	if pos == nil {
		next := model.NewOpenPositionFromSignal(n)
		if err := t.positions.Open(ctx, &next); err != nil {
			return nil, err
		}

		logger.WithFields(map[string]interface{}{
			"component": "Tracker",
			"symbol":    n.Symbol,
			"direction": n.Direction,
			"entry":     n.Price,
		}).Info("Position opened")

		return nil, nil
	}

	if pos.Direction == n.Direction {
		logger.WithFields(map[string]interface{}{
			"component": "Tracker",
			"symbol":    n.Symbol,
			"direction": n.Direction,
		}).Debug("Same-direction signal, position unchanged")
		return nil, nil
	}

	trade, err := t.calc.Close(pos, n.Timestamp, n.Price, model.ExitReasonSignal)
	if err != nil {
		return nil, err
	}

	next := model.NewOpenPositionFromSignal(n)
	if err := t.positions.ReplaceWithTrade(ctx, trade, &next); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component":  "Tracker",
		"symbol":     n.Symbol,
		"closed":     trade.Direction,
		"pnl_points": trade.PnlPoints,
		"net_points": trade.NetPoints,
		"reopened":   n.Direction,
	}).Info("Position closed and reopened")

	return trade, nil
}

func (t *Tracker) symbolLock(symbol string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[symbol] = lock
	}
	return lock
}
