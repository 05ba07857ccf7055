package model

// OpenPosition is the single currently-held exposure for a symbol. The symbol
// is the natural key: at most one row per instrument, replaced on open and
// deleted on close. MaxPrice/MinPrice are seeded to the entry price and stay
// there until intrabar excursion tracking lands.
type OpenPosition struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	Symbol     string  `gorm:"column:symbol;uniqueIndex;not null" json:"symbol"`
	Direction  string  `gorm:"column:direction;not null" json:"direction"`
	EntryTime  string  `gorm:"column:entry_time;not null" json:"entry_time"`
	EntryPrice float64 `gorm:"column:entry_price" json:"entry_price"`
	Timeframe  string  `gorm:"column:timeframe" json:"timeframe"`

	ATR  *float64 `gorm:"column:atr" json:"atr,omitempty"`
	TP1  *float64 `gorm:"column:tp1" json:"tp1,omitempty"`
	TP2  *float64 `gorm:"column:tp2" json:"tp2,omitempty"`
	SL   *float64 `gorm:"column:sl" json:"sl,omitempty"`
	High *float64 `gorm:"column:high" json:"high,omitempty"`
	Low  *float64 `gorm:"column:low" json:"low,omitempty"`

	MaxPrice float64 `gorm:"column:max_price" json:"max_price"`
	MinPrice float64 `gorm:"column:min_price" json:"min_price"`
}

func (OpenPosition) TableName() string {
	return "open_positions"
}

// NewOpenPositionFromSignal builds the position a tradable signal opens.
// Running extremes start at the entry price.
func NewOpenPositionFromSignal(n NormalizedSignal) OpenPosition {
	return OpenPosition{
		Symbol:     n.Symbol,
		Direction:  n.Direction,
		EntryTime:  n.Timestamp,
		EntryPrice: n.Price,
		Timeframe:  n.Timeframe,
		ATR:        n.Enrichment.ATR,
		TP1:        n.Enrichment.TP1,
		TP2:        n.Enrichment.TP2,
		SL:         n.Enrichment.SL,
		High:       n.Enrichment.High,
		Low:        n.Enrichment.Low,
		MaxPrice:   n.Price,
		MinPrice:   n.Price,
	}
}
