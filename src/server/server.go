package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/handler"
	"github.com/jimmer89/bloop-tracker/src/notify"
	"github.com/jimmer89/bloop-tracker/src/spread"
	"github.com/jimmer89/bloop-tracker/src/stream"
	"github.com/jimmer89/bloop-tracker/src/tracker"
)

// Dependencies is everything the router needs beyond the global database.
type Dependencies struct {
	Tracker  *tracker.Tracker
	Spreads  *spread.Config
	Hub      *stream.Hub
	Notifier *notify.Notifier
}

// NewRouter wires every route. Split from StartServer so tests can mount the
// full surface on httptest.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/", handler.IndexHandler())
	r.Get("/health", handler.HealthHandler())

	r.Post("/webhook", handler.DefaultWebhookHandler(deps.Tracker, deps.Hub, deps.Notifier))
	r.Get("/signals", handler.DefaultSignalsHandler())
	r.Get("/trades", handler.DefaultTradesHandler())
	r.Get("/stats", handler.DefaultStatsHandler())
	r.Get("/position", handler.DefaultPositionHandler())

	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", handler.DefaultResetHandler())
		r.Get("/spread", handler.SpreadGetHandler(deps.Spreads))
		r.Put("/spread", handler.SpreadSetHandler(deps.Spreads))
		r.Post("/recalculate", handler.DefaultRecalculateHandler(deps.Spreads))
	})

	if deps.Hub != nil {
		r.Get("/ws/live", deps.Hub.HandleWS)
	}

	return r
}

// StartServer runs the HTTP surface until SIGINT or SIGTERM.
func StartServer(port string, deps Dependencies) {
	r := NewRouter(deps)

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
