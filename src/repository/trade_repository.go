package repository

import (
	"context"
	"database/sql"
	"math"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jimmer89/bloop-tracker/src/database"
	"github.com/jimmer89/bloop-tracker/src/model"
)

// TradeRepository handles the closed-trade ledger.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new repository instance using the main database.
func NewTradeRepository() *TradeRepository {
	return &TradeRepository{
		db: database.MainDB,
	}
}

// NewTradeRepositoryWithDB creates a repository on a specific *gorm.DB.
func NewTradeRepositoryWithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// FindLatest returns the most recent closed trades, newest exit first.
func (r *TradeRepository) FindLatest(ctx context.Context, limit int) ([]model.ClosedTrade, error) {
	if limit <= 0 {
		limit = 100
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "TradeRepository",
		"op":    "FindLatest",
		"limit": limit,
	}).Debug("Fetching latest closed trades")

	var trades []model.ClosedTrade

	err := r.db.WithContext(ctx).
		Order("exit_time DESC, id DESC").
		Limit(limit).
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "TradeRepository",
			"op":    "FindLatest",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch latest closed trades")

		return nil, err
	}

	return trades, nil
}

// FindAll returns the whole ledger ordered by id. Used by bulk recalculation.
func (r *TradeRepository) FindAll(ctx context.Context) ([]model.ClosedTrade, error) {
	var trades []model.ClosedTrade

	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "FindAll",
		}).WithError(err).Error("Failed to fetch closed trades")

		return nil, err
	}

	return trades, nil
}

// UpdateSpreadFields rewrites only the spread-derived columns of one trade.
// Gross figures and every other column stay untouched.
func (r *TradeRepository) UpdateSpreadFields(
	ctx context.Context,
	id uint,
	spreadCost, netPoints, netPercent float64,
) error {

	err := r.db.WithContext(ctx).
		Model(&model.ClosedTrade{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"spread_cost": spreadCost,
			"net_points":  netPoints,
			"net_percent": netPercent,
		}).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "UpdateSpreadFields",
			"id":   id,
		}).WithError(err).Error("Failed to update spread fields")

		return err
	}

	return nil
}

// PnlAggregates summarizes one P&L column over the whole ledger.
type PnlAggregates struct {
	Winners    int64   `json:"winners"`
	WinRate    float64 `json:"win_rate"`
	TotalPnl   float64 `json:"total_pnl"`
	AvgPnl     float64 `json:"avg_pnl"`
	BestTrade  float64 `json:"best_trade"`
	WorstTrade float64 `json:"worst_trade"`
}

// TradeAggregates carries the gross and net summaries side by side.
type TradeAggregates struct {
	Total int64         `json:"total"`
	Gross PnlAggregates `json:"gross"`
	Net   PnlAggregates `json:"net"`
}

// Aggregate computes the ledger statistics in a single scan. With zero trades
// every figure is zero; the win-rate division is guarded here.
func (r *TradeRepository) Aggregate(ctx context.Context) (TradeAggregates, error) {
	logger.WithFields(map[string]interface{}{
		"repo": "TradeRepository",
		"op":   "Aggregate",
	}).Debug("Aggregating closed trades")

	row := r.db.WithContext(ctx).
		Model(&model.ClosedTrade{}).
		Select(`COUNT(*),
			SUM(pnl_points), AVG(pnl_points), MAX(pnl_points), MIN(pnl_points),
			SUM(CASE WHEN pnl_points > 0 THEN 1 ELSE 0 END),
			SUM(net_points), AVG(net_points), MAX(net_points), MIN(net_points),
			SUM(CASE WHEN net_points > 0 THEN 1 ELSE 0 END)`).
		Row()

	var (
		total                                  int64
		grossSum, grossAvg, grossMax, grossMin sql.NullFloat64
		netSum, netAvg, netMax, netMin         sql.NullFloat64
		grossWinners, netWinners               sql.NullInt64
	)

	if err := row.Scan(
		&total,
		&grossSum, &grossAvg, &grossMax, &grossMin, &grossWinners,
		&netSum, &netAvg, &netMax, &netMin, &netWinners,
	); err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "Aggregate",
		}).WithError(err).Error("Failed to aggregate closed trades")

		return TradeAggregates{}, err
	}

	agg := TradeAggregates{
		Total: total,
		Gross: buildPnlAggregates(total, grossWinners, grossSum, grossAvg, grossMax, grossMin),
		Net:   buildPnlAggregates(total, netWinners, netSum, netAvg, netMax, netMin),
	}

	return agg, nil
}

func buildPnlAggregates(
	total int64,
	winners sql.NullInt64,
	sum, avg, max, min sql.NullFloat64,
) PnlAggregates {

	out := PnlAggregates{
		Winners:    winners.Int64,
		TotalPnl:   round2(sum.Float64),
		AvgPnl:     round2(avg.Float64),
		BestTrade:  round2(max.Float64),
		WorstTrade: round2(min.Float64),
	}
	if total > 0 {
		out.WinRate = round1(float64(winners.Int64) / float64(total) * 100)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DeleteAll clears the trade ledger. Admin reset only.
func (r *TradeRepository) DeleteAll(ctx context.Context) error {
	logger.WithFields(map[string]interface{}{
		"repo": "TradeRepository",
		"op":   "DeleteAll",
	}).Info("Clearing closed trades")

	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.ClosedTrade{}).Error
}
