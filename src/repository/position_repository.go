package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jimmer89/bloop-tracker/src/database"
	"github.com/jimmer89/bloop-tracker/src/model"
)

// PositionRepository owns persistence for the per-symbol open position rows.
// Only the tracker writes here.
type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new repository instance using the main database.
func NewPositionRepository() *PositionRepository {
	return &PositionRepository{
		db: database.MainDB,
	}
}

// NewPositionRepositoryWithDB creates a repository on a specific *gorm.DB.
func NewPositionRepositoryWithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// FindBySymbol fetches the open position for a symbol.
// Returns (nil, nil) if no position is open; that is an expected state.
func (r *PositionRepository) FindBySymbol(ctx context.Context, symbol string) (*model.OpenPosition, error) {
	var pos model.OpenPosition

	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		First(&pos).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":   "PositionRepository",
			"op":     "FindBySymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch open position")

		return nil, err
	}

	return &pos, nil
}

// FindCurrent fetches the open position; with an empty symbol it returns the
// oldest open row, which for the single-instrument deployment is the only one.
// Returns (nil, nil) when nothing is open.
func (r *PositionRepository) FindCurrent(ctx context.Context, symbol string) (*model.OpenPosition, error) {
	if symbol != "" {
		return r.FindBySymbol(ctx, symbol)
	}

	var pos model.OpenPosition

	err := r.db.WithContext(ctx).
		Order("id ASC").
		First(&pos).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "FindCurrent",
		}).WithError(err).Error("Failed to fetch current open position")

		return nil, err
	}

	return &pos, nil
}

// Open writes a new open position, replacing any existing row for the symbol.
func (r *PositionRepository) Open(ctx context.Context, pos *model.OpenPosition) error {
	logger.WithFields(map[string]interface{}{
		"repo":      "PositionRepository",
		"op":        "Open",
		"symbol":    pos.Symbol,
		"direction": pos.Direction,
		"entry":     pos.EntryPrice,
	}).Debug("Opening position")

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			UpdateAll: true,
		}).
		Create(pos).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PositionRepository",
			"op":     "Open",
			"symbol": pos.Symbol,
		}).WithError(err).Error("Failed to open position")

		return err
	}

	return nil
}

// ReplaceWithTrade atomically records the closed trade, removes the old
// position row and opens the next one. A consumer must see either all three
// effects or none.
func (r *PositionRepository) ReplaceWithTrade(
	ctx context.Context,
	trade *model.ClosedTrade,
	next *model.OpenPosition,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "PositionRepository",
		"op":         "ReplaceWithTrade",
		"symbol":     trade.Symbol,
		"closed_dir": trade.Direction,
		"next_dir":   next.Direction,
	}).Info("Closing position and reopening opposite")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trade).Error; err != nil {
			logger.WithError(err).Error("Failed to record closed trade inside transaction")
			return err
		}

		if err := tx.
			Where("symbol = ?", trade.Symbol).
			Delete(&model.OpenPosition{}).Error; err != nil {
			logger.WithError(err).Error("Failed to delete open position inside transaction")
			return err
		}

		if err := tx.Create(next).Error; err != nil {
			logger.WithError(err).Error("Failed to reopen position inside transaction")
			return err
		}

		return nil
	})
}

// DeleteAll clears every open position row. Admin reset only.
func (r *PositionRepository) DeleteAll(ctx context.Context) error {
	logger.WithFields(map[string]interface{}{
		"repo": "PositionRepository",
		"op":   "DeleteAll",
	}).Info("Clearing open positions")

	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.OpenPosition{}).Error
}
