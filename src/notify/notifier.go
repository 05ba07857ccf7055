package notify

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/model"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 4 * time.Second
)

type Config struct {
	WebhookURL string        `envconfig:"NOTIFY_WEBHOOK_URL" default:""`
	Timeout    time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Notifier relays closed trades to a downstream webhook. It is best-effort:
// delivery failures are logged and never fail the ingest request.
type Notifier struct {
	http *resty.Client
	url  string
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

// New returns a Notifier, or nil when no webhook URL is configured. A nil
// Notifier is safe to call.
func New(config Config) *Notifier {
	if config.WebhookURL == "" {
		return nil
	}

	httpClient := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &Notifier{
		http: httpClient,
		url:  config.WebhookURL,
	}
}

// TradeClosed posts the closed trade downstream. Fire-and-forget from the
// caller's point of view.
func (n *Notifier) TradeClosed(trade *model.ClosedTrade) {
	if n == nil || trade == nil {
		return
	}

	go func() {
		resp, err := n.http.R().
			SetHeader("Content-Type", "application/json").
			SetBody(trade).
			Post(n.url)

		if err != nil {
			logger.WithFields(map[string]interface{}{
				"component": "Notifier",
				"symbol":    trade.Symbol,
			}).WithError(err).Error("Failed to deliver closed-trade notification")
			return
		}

		if resp.StatusCode() >= 300 {
			logger.WithFields(map[string]interface{}{
				"component": "Notifier",
				"symbol":    trade.Symbol,
				"status":    resp.StatusCode(),
			}).Warn("Closed-trade notification rejected downstream")
			return
		}

		logger.WithFields(map[string]interface{}{
			"component": "Notifier",
			"symbol":    trade.Symbol,
			"status":    resp.StatusCode(),
		}).Debug("Closed-trade notification delivered")
	}()
}
