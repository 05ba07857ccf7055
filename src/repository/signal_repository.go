package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jimmer89/bloop-tracker/src/database"
	"github.com/jimmer89/bloop-tracker/src/model"
)

// SignalRepository handles the append-only raw signal log.
type SignalRepository struct {
	db *gorm.DB
}

// NewSignalRepository creates a new repository instance using the main database.
func NewSignalRepository() *SignalRepository {
	return &SignalRepository{
		db: database.MainDB,
	}
}

// NewSignalRepositoryWithDB creates a repository on a specific *gorm.DB.
// Useful for tests or when using a specific session/transaction.
func NewSignalRepositoryWithDB(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Create appends one signal to the log. Every inbound alert lands here before
// any position logic runs; a failure aborts the whole webhook operation.
func (r *SignalRepository) Create(ctx context.Context, signal *model.Signal) error {
	logger.WithFields(map[string]interface{}{
		"repo":   "SignalRepository",
		"op":     "Create",
		"signal": signal.Signal,
		"symbol": signal.Symbol,
		"price":  signal.Price,
	}).Debug("Appending signal to log")

	err := r.db.WithContext(ctx).Create(signal).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to append signal")

		return err
	}

	return nil
}

// FindLatest returns the most recent signals, newest first.
func (r *SignalRepository) FindLatest(ctx context.Context, limit int) ([]model.Signal, error) {
	if limit <= 0 {
		limit = 100
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "SignalRepository",
		"op":    "FindLatest",
		"limit": limit,
	}).Debug("Fetching latest signals")

	var signals []model.Signal

	err := r.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&signals).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "SignalRepository",
			"op":    "FindLatest",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch latest signals")

		return nil, err
	}

	return signals, nil
}

// SignalCounts is the directional breakdown of the signal log.
type SignalCounts struct {
	Total  int64 `json:"total"`
	Longs  int64 `json:"longs"`
	Shorts int64 `json:"shorts"`
}

// Counts returns the signal log totals split by tradable direction.
func (r *SignalRepository) Counts(ctx context.Context) (SignalCounts, error) {
	var counts SignalCounts

	db := r.db.WithContext(ctx).Model(&model.Signal{})

	if err := db.Count(&counts.Total).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "Counts",
		}).WithError(err).Error("Failed to count signals")
		return SignalCounts{}, err
	}

	if err := r.db.WithContext(ctx).Model(&model.Signal{}).
		Where("signal = ?", model.DirectionLong).
		Count(&counts.Longs).Error; err != nil {
		return SignalCounts{}, err
	}

	if err := r.db.WithContext(ctx).Model(&model.Signal{}).
		Where("signal = ?", model.DirectionShort).
		Count(&counts.Shorts).Error; err != nil {
		return SignalCounts{}, err
	}

	return counts, nil
}

// DeleteAll clears the signal log. Admin reset only.
func (r *SignalRepository) DeleteAll(ctx context.Context) error {
	logger.WithFields(map[string]interface{}{
		"repo": "SignalRepository",
		"op":   "DeleteAll",
	}).Info("Clearing signal log")

	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.Signal{}).Error
}
