package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/model"
	"github.com/jimmer89/bloop-tracker/src/notify"
	"github.com/jimmer89/bloop-tracker/src/repository"
	"github.com/jimmer89/bloop-tracker/src/stream"
	"github.com/jimmer89/bloop-tracker/src/tracker"
)

type signalProcessor interface {
	OnSignal(ctx context.Context, n model.NormalizedSignal) (*model.ClosedTrade, error)
}

type signalCounter interface {
	Counts(ctx context.Context) (repository.SignalCounts, error)
}

type tradeAggregator interface {
	Aggregate(ctx context.Context) (repository.TradeAggregates, error)
}

// webhookPayload is the inbound alert shape. Every field is optional; the
// enrichment numbers stay nil when absent so older alert templates keep
// working unchanged.
type webhookPayload struct {
	Signal    string   `json:"signal"`
	Price     float64  `json:"price"`
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	ATR       *float64 `json:"atr"`
	TP1       *float64 `json:"tp1"`
	TP2       *float64 `json:"tp2"`
	SL        *float64 `json:"sl"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
}

type webhookResponse struct {
	Status       string             `json:"status"`
	Signal       string             `json:"signal"`
	Price        float64            `json:"price"`
	ClosedTrade  *model.ClosedTrade `json:"closed_trade"`
	TotalSignals int64              `json:"total_signals"`
	TotalTrades  int64              `json:"total_trades"`
	TotalPnl     float64            `json:"total_pnl"`
	TotalNetPnl  float64            `json:"total_net_pnl"`
}

// WebhookHandler ingests one alert: normalize, run the tracker, echo the
// result with running totals. Non-JSON bodies are tolerated and stored as a
// raw-text fallback payload; valid JSON with wrong field types is rejected
// and not recorded.
func WebhookHandler(
	proc signalProcessor,
	signals signalCounter,
	trades tradeAggregator,
	hub *stream.Hub,
	notifier *notify.Notifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		norm, err := normalizePayload(body)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		closed, err := proc.OnSignal(r.Context(), norm)
		if err != nil {
			logger.WithError(err).Error("failed to process signal")
			respondError(w, http.StatusInternalServerError, "failed to process signal")
			return
		}

		counts, err := signals.Counts(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to count signals")
			respondError(w, http.StatusInternalServerError, "failed to compute totals")
			return
		}

		agg, err := trades.Aggregate(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to aggregate trades")
			respondError(w, http.StatusInternalServerError, "failed to compute totals")
			return
		}

		if hub != nil {
			hub.Publish(stream.Event{
				ID:          norm.IngestID,
				Signal:      norm.Direction,
				Price:       norm.Price,
				Symbol:      norm.Symbol,
				Timestamp:   norm.Timestamp,
				ClosedTrade: closed,
			})
		}
		if closed != nil {
			notifier.TradeClosed(closed)
		}

		respondJSON(w, http.StatusOK, webhookResponse{
			Status:       "ok",
			Signal:       norm.Direction,
			Price:        norm.Price,
			ClosedTrade:  closed,
			TotalSignals: counts.Total,
			TotalTrades:  agg.Total,
			TotalPnl:     agg.Gross.TotalPnl,
			TotalNetPnl:  agg.Net.TotalPnl,
		})
	}
}

// normalizePayload applies the ingestion defaults. A body that is not valid
// JSON becomes an UNKNOWN signal whose raw text is kept for audit.
func normalizePayload(body []byte) (model.NormalizedSignal, error) {
	norm := model.NormalizedSignal{
		IngestID:  uuid.NewString(),
		Direction: model.SignalUnknown,
		Symbol:    model.DefaultSymbol,
		Timeframe: model.DefaultTimeframe,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if !json.Valid(body) {
		raw, err := json.Marshal(map[string]string{"raw": string(body)})
		if err != nil {
			return model.NormalizedSignal{}, err
		}
		norm.RawPayload = string(raw)
		return norm, nil
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.NormalizedSignal{}, err
	}

	if payload.Signal != "" {
		norm.Direction = strings.ToUpper(payload.Signal)
	}
	norm.Price = payload.Price
	if payload.Symbol != "" {
		norm.Symbol = payload.Symbol
	}
	if payload.Timeframe != "" {
		norm.Timeframe = payload.Timeframe
	}
	norm.Enrichment = model.Enrichment{
		ATR:  payload.ATR,
		TP1:  payload.TP1,
		TP2:  payload.TP2,
		SL:   payload.SL,
		High: payload.High,
		Low:  payload.Low,
	}
	norm.RawPayload = string(body)

	return norm, nil
}

// DefaultWebhookHandler wires the handler to the production tracker and repositories.
func DefaultWebhookHandler(t *tracker.Tracker, hub *stream.Hub, notifier *notify.Notifier) http.HandlerFunc {
	return WebhookHandler(t, repository.NewSignalRepository(), repository.NewTradeRepository(), hub, notifier)
}
