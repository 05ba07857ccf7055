package model

import "time"

// Direction tokens carried by inbound signals. Anything else is stored
// but never moves the position.
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
	SignalUnknown  = "UNKNOWN"
)

// Defaults applied when the webhook payload omits a field.
const (
	DefaultSymbol    = "USTEC"
	DefaultTimeframe = "1m"
)

// IsTradable reports whether a signal token can open or close a position.
func IsTradable(direction string) bool {
	return direction == DirectionLong || direction == DirectionShort
}

// Signal is the append-only audit row for every inbound alert, tradable or not.
// Enrichment columns are nullable on purpose: older alerts never carried them
// and must read back as absent, not zero.
type Signal struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	IngestID  string  `gorm:"column:ingest_id;size:36;index" json:"ingest_id"`
	Timestamp string  `gorm:"column:timestamp;not null" json:"timestamp"`
	Signal    string  `gorm:"column:signal;not null;index" json:"signal"`
	Price     float64 `gorm:"column:price" json:"price"`
	Symbol    string  `gorm:"column:symbol;index" json:"symbol"`
	Timeframe string  `gorm:"column:timeframe" json:"timeframe"`

	ATR  *float64 `gorm:"column:atr" json:"atr,omitempty"`
	TP1  *float64 `gorm:"column:tp1" json:"tp1,omitempty"`
	TP2  *float64 `gorm:"column:tp2" json:"tp2,omitempty"`
	SL   *float64 `gorm:"column:sl" json:"sl,omitempty"`
	High *float64 `gorm:"column:high" json:"high,omitempty"`
	Low  *float64 `gorm:"column:low" json:"low,omitempty"`

	RawPayload string    `gorm:"column:raw_payload;type:text" json:"-"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName Ensures GORM uses the same table name on both backends.
func (Signal) TableName() string {
	return "signals"
}

// Enrichment is the optional indicator bundle attached to a signal and copied
// onto the position it opens.
type Enrichment struct {
	ATR  *float64 `json:"atr,omitempty"`
	TP1  *float64 `json:"tp1,omitempty"`
	TP2  *float64 `json:"tp2,omitempty"`
	SL   *float64 `json:"sl,omitempty"`
	High *float64 `json:"high,omitempty"`
	Low  *float64 `json:"low,omitempty"`
}

// NormalizedSignal is a fully-defaulted inbound alert, ready for the tracker.
type NormalizedSignal struct {
	IngestID   string
	Direction  string
	Price      float64
	Symbol     string
	Timeframe  string
	Timestamp  string
	Enrichment Enrichment
	RawPayload string
}

// NewSignalFromNormalized converts the ingest representation into the DB row.
func NewSignalFromNormalized(n NormalizedSignal) Signal {
	return Signal{
		IngestID:   n.IngestID,
		Timestamp:  n.Timestamp,
		Signal:     n.Direction,
		Price:      n.Price,
		Symbol:     n.Symbol,
		Timeframe:  n.Timeframe,
		ATR:        n.Enrichment.ATR,
		TP1:        n.Enrichment.TP1,
		TP2:        n.Enrichment.TP2,
		SL:         n.Enrichment.SL,
		High:       n.Enrichment.High,
		Low:        n.Enrichment.Low,
		RawPayload: n.RawPayload,
	}
}
