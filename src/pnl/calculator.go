package pnl

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jimmer89/bloop-tracker/src/model"
	"github.com/jimmer89/bloop-tracker/src/spread"
)

var hundred = decimal.NewFromInt(100)

// Calculator turns a closing position plus exit data into the realized trade
// record. It reads the open position and the spread table; it never mutates
// either.
type Calculator struct {
	spreads *spread.Config
}

func NewCalculator(spreads *spread.Config) *Calculator {
	return &Calculator{spreads: spreads}
}

// Close computes the closed-trade record for a position exiting at the given
// price and time. The single rule that differs between directions is the sign
// of the gross points; everything downstream is shared.
//
// An entry price of exactly zero would divide by zero in the percent figures;
// both percents are defined as zero in that case so a permissively ingested
// zero-price entry cannot poison the ledger.
func (c *Calculator) Close(
	pos *model.OpenPosition,
	exitTime string,
	exitPrice float64,
	exitReason string,
) (*model.ClosedTrade, error) {

	entryAt, err := time.Parse(time.RFC3339, pos.EntryTime)
	if err != nil {
		return nil, fmt.Errorf("pnl: parse entry time %q: %w", pos.EntryTime, err)
	}
	exitAt, err := time.Parse(time.RFC3339, exitTime)
	if err != nil {
		return nil, fmt.Errorf("pnl: parse exit time %q: %w", exitTime, err)
	}

	entry := decimal.NewFromFloat(pos.EntryPrice)
	exit := decimal.NewFromFloat(exitPrice)

	var grossPoints decimal.Decimal
	if pos.Direction == model.DirectionLong {
		grossPoints = exit.Sub(entry)
	} else {
		grossPoints = entry.Sub(exit)
	}

	spreadCost := decimal.NewFromFloat(c.spreads.Lookup(pos.Symbol))
	netPoints := grossPoints.Sub(spreadCost)

	grossPercent := percentOf(grossPoints, entry)
	netPercent := percentOf(netPoints, entry)

	if exitReason == "" {
		exitReason = model.ExitReasonSignal
	}

	trade := &model.ClosedTrade{
		Symbol:          pos.Symbol,
		Direction:       pos.Direction,
		Timeframe:       pos.Timeframe,
		EntryTime:       pos.EntryTime,
		EntryPrice:      pos.EntryPrice,
		ExitTime:        exitTime,
		ExitPrice:       exitPrice,
		ExitReason:      exitReason,
		PnlPoints:       grossPoints.InexactFloat64(),
		PnlPercent:      grossPercent.InexactFloat64(),
		SpreadCost:      spreadCost.InexactFloat64(),
		NetPoints:       netPoints.InexactFloat64(),
		NetPercent:      netPercent.InexactFloat64(),
		DurationSeconds: int64(exitAt.Sub(entryAt).Seconds()),
		ATR:             pos.ATR,
		TP1:             pos.TP1,
		TP2:             pos.TP2,
		SL:              pos.SL,
		High:            pos.High,
		Low:             pos.Low,
		MaxPrice:        pos.MaxPrice,
		MinPrice:        pos.MinPrice,
	}

	return trade, nil
}

// NetFromGross reapplies a spread cost to stored gross figures. Shared with
// bulk recalculation so both paths produce bit-identical net values.
func NetFromGross(grossPoints, entryPrice, spreadCost float64) (netPoints, netPercent float64) {
	net := decimal.NewFromFloat(grossPoints).Sub(decimal.NewFromFloat(spreadCost))
	pct := percentOf(net, decimal.NewFromFloat(entryPrice))
	return net.InexactFloat64(), pct.InexactFloat64()
}

func percentOf(points, entry decimal.Decimal) decimal.Decimal {
	if entry.IsZero() {
		return decimal.Zero
	}
	return points.Div(entry).Mul(hundred)
}
