package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/pnl"
	"github.com/jimmer89/bloop-tracker/src/repository"
	"github.com/jimmer89/bloop-tracker/src/spread"
)

type entityResetter interface {
	DeleteAll(ctx context.Context) error
}

// ResetHandler clears all three entities: signals, trades and open positions.
func ResetHandler(signals, trades, positions entityResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := signals.DeleteAll(ctx); err != nil {
			logger.WithError(err).Error("failed to reset signals")
			respondError(w, http.StatusInternalServerError, "failed to reset data")
			return
		}
		if err := trades.DeleteAll(ctx); err != nil {
			logger.WithError(err).Error("failed to reset trades")
			respondError(w, http.StatusInternalServerError, "failed to reset data")
			return
		}
		if err := positions.DeleteAll(ctx); err != nil {
			logger.WithError(err).Error("failed to reset open positions")
			respondError(w, http.StatusInternalServerError, "failed to reset data")
			return
		}

		logger.Warn("All signal, trade and position data cleared")
		respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}

// SpreadGetHandler returns the whole spread table with provenance.
func SpreadGetHandler(spreads *spread.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"default_symbol": spread.DefaultSymbol,
			"spreads":        spreads.Snapshot(),
		})
	}
}

type spreadUpdateRequest struct {
	Symbol string  `json:"symbol"`
	Spread float64 `json:"spread"`
	Source string  `json:"source"`
}

// SpreadSetHandler updates one instrument's spread cost.
func SpreadSetHandler(spreads *spread.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req spreadUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid spread payload")
			return
		}

		if err := spreads.Set(req.Symbol, req.Spread, req.Source); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"symbol":  req.Symbol,
			"spreads": spreads.Snapshot(),
		})
	}
}

type bulkRecalculator interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// RecalculateHandler reprices the whole trade ledger against the current
// spread config and reports how many trades were rewritten.
func RecalculateHandler(recalc bulkRecalculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := recalc.RecalculateAll(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to recalculate trades")
			respondError(w, http.StatusInternalServerError, "failed to recalculate trades")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"updated": updated,
		})
	}
}

// DefaultResetHandler wires the handler to the production repositories.
func DefaultResetHandler() http.HandlerFunc {
	return ResetHandler(
		repository.NewSignalRepository(),
		repository.NewTradeRepository(),
		repository.NewPositionRepository(),
	)
}

// DefaultRecalculateHandler wires the handler to the production recalculator.
func DefaultRecalculateHandler(spreads *spread.Config) http.HandlerFunc {
	return RecalculateHandler(pnl.NewRecalculator(repository.NewTradeRepository(), spreads))
}
