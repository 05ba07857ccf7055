package model

import "time"

// Exit reasons. The webhook path only ever produces "signal"; the column
// exists so stop/target exits can be recorded without a schema change.
const (
	ExitReasonSignal = "signal"
)

// ClosedTrade is the immutable realized record written when a position closes.
// Only the spread-derived columns (spread_cost, net_points, net_percent) are
// ever rewritten, and only by a bulk recalculation.
type ClosedTrade struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Symbol     string  `gorm:"column:symbol;index" json:"symbol"`
	Direction  string  `gorm:"column:direction" json:"direction"`
	Timeframe  string  `gorm:"column:timeframe" json:"timeframe"`
	EntryTime  string  `gorm:"column:entry_time" json:"entry_time"`
	EntryPrice float64 `gorm:"column:entry_price" json:"entry_price"`
	ExitTime   string  `gorm:"column:exit_time;index" json:"exit_time"`
	ExitPrice  float64 `gorm:"column:exit_price" json:"exit_price"`
	ExitReason string  `gorm:"column:exit_reason;default:signal" json:"exit_reason"`

	PnlPoints  float64 `gorm:"column:pnl_points" json:"pnl_points"`
	PnlPercent float64 `gorm:"column:pnl_percent" json:"pnl_percent"`
	SpreadCost float64 `gorm:"column:spread_cost" json:"spread_cost"`
	NetPoints  float64 `gorm:"column:net_points" json:"net_points"`
	NetPercent float64 `gorm:"column:net_percent" json:"net_percent"`

	DurationSeconds int64 `gorm:"column:duration_seconds" json:"duration_seconds"`

	ATR  *float64 `gorm:"column:atr" json:"atr,omitempty"`
	TP1  *float64 `gorm:"column:tp1" json:"tp1,omitempty"`
	TP2  *float64 `gorm:"column:tp2" json:"tp2,omitempty"`
	SL   *float64 `gorm:"column:sl" json:"sl,omitempty"`
	High *float64 `gorm:"column:high" json:"high,omitempty"`
	Low  *float64 `gorm:"column:low" json:"low,omitempty"`

	MaxPrice float64 `gorm:"column:max_price" json:"max_price"`
	MinPrice float64 `gorm:"column:min_price" json:"min_price"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ClosedTrade) TableName() string {
	return "trades"
}
