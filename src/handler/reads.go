package handler

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/database"
	"github.com/jimmer89/bloop-tracker/src/model"
	"github.com/jimmer89/bloop-tracker/src/repository"
)

const readLimit = 100

type signalLister interface {
	FindLatest(ctx context.Context, limit int) ([]model.Signal, error)
}

type tradeLister interface {
	FindLatest(ctx context.Context, limit int) ([]model.ClosedTrade, error)
}

type positionFinder interface {
	FindCurrent(ctx context.Context, symbol string) (*model.OpenPosition, error)
}

// SignalsHandler returns the most recent signals, newest first.
func SignalsHandler(repo signalLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signals, err := repo.FindLatest(r.Context(), readLimit)
		if err != nil {
			logger.WithError(err).Error("failed to list signals")
			respondError(w, http.StatusInternalServerError, "failed to list signals")
			return
		}

		if signals == nil {
			signals = []model.Signal{}
		}
		respondJSON(w, http.StatusOK, signals)
	}
}

// TradesHandler returns the most recent closed trades, newest exit first.
func TradesHandler(repo tradeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trades, err := repo.FindLatest(r.Context(), readLimit)
		if err != nil {
			logger.WithError(err).Error("failed to list trades")
			respondError(w, http.StatusInternalServerError, "failed to list trades")
			return
		}

		if trades == nil {
			trades = []model.ClosedTrade{}
		}
		respondJSON(w, http.StatusOK, trades)
	}
}

type statsResponse struct {
	Signals      repository.SignalCounts    `json:"signals"`
	Trades       repository.TradeAggregates `json:"trades"`
	OpenPosition *model.OpenPosition        `json:"open_position"`
}

// StatsHandler returns the aggregate picture: signal counts, gross and net
// trade statistics, and the current open position.
func StatsHandler(signals signalCounter, trades tradeAggregator, positions positionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := signals.Counts(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to count signals")
			respondError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}

		agg, err := trades.Aggregate(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to aggregate trades")
			respondError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}

		pos, err := positions.FindCurrent(r.Context(), r.URL.Query().Get("symbol"))
		if err != nil {
			logger.WithError(err).Error("failed to fetch open position")
			respondError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}

		respondJSON(w, http.StatusOK, statsResponse{
			Signals:      counts,
			Trades:       agg,
			OpenPosition: pos,
		})
	}
}

// PositionHandler returns the current open position, or an explicit marker
// when nothing is open.
func PositionHandler(positions positionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, err := positions.FindCurrent(r.Context(), r.URL.Query().Get("symbol"))
		if err != nil {
			logger.WithError(err).Error("failed to fetch open position")
			respondError(w, http.StatusInternalServerError, "failed to fetch open position")
			return
		}

		if pos == nil {
			respondJSON(w, http.StatusOK, map[string]string{"status": "no open position"})
			return
		}
		respondJSON(w, http.StatusOK, pos)
	}
}

// HealthHandler reports liveness and the persistence backend selected at startup.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "bloop-tracker",
			"backend": database.ActiveBackend,
		})
	}
}

// IndexHandler serves a small link page for the read endpoints.
func IndexHandler() http.HandlerFunc {
	const page = `<h1>Bloop Tracker</h1>
<ul>
	<li><a href="/stats">Statistics</a></li>
	<li><a href="/trades">Closed trades</a></li>
	<li><a href="/signals">Raw signals</a></li>
	<li><a href="/position">Open position</a></li>
	<li><a href="/health">Health</a></li>
</ul>
`
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(page)); err != nil {
			logger.WithError(err).Error("failed to write index page")
		}
	}
}

// DefaultSignalsHandler wires the handler to the production repository.
func DefaultSignalsHandler() http.HandlerFunc {
	return SignalsHandler(repository.NewSignalRepository())
}

// DefaultTradesHandler wires the handler to the production repository.
func DefaultTradesHandler() http.HandlerFunc {
	return TradesHandler(repository.NewTradeRepository())
}

// DefaultStatsHandler wires the handler to the production repositories.
func DefaultStatsHandler() http.HandlerFunc {
	return StatsHandler(
		repository.NewSignalRepository(),
		repository.NewTradeRepository(),
		repository.NewPositionRepository(),
	)
}

// DefaultPositionHandler wires the handler to the production repository.
func DefaultPositionHandler() http.HandlerFunc {
	return PositionHandler(repository.NewPositionRepository())
}
