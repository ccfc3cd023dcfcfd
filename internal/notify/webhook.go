package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// TradeAlert is the display-formatted payload pushed per newly admitted fill.
type TradeAlert struct {
	Timestamp string  `json:"timestamp"`
	Coin      string  `json:"coin"`
	Side      string  `json:"side"`
	Size      float64 `json:"size"`
	Price     float64 `json:"price"`
}

// Notifier delivers trade alerts to subscribers.
type Notifier interface {
	Notify(alert TradeAlert)
}

// WebhookNotifier posts alerts to a webhook URL. Delivery is fire-and-forget,
// at most once per alert, with no retry. A single dispatch goroutine drains
// the queue so alerts go out in the order they were enqueued.
type WebhookNotifier struct {
	url        string
	botName    string
	httpClient *http.Client
	alerts     chan TradeAlert
}

// NewWebhookNotifier creates a notifier for the given webhook URL. An empty
// URL disables delivery; alerts are still logged.
func NewWebhookNotifier(url, botName string) *WebhookNotifier {
	if botName == "" {
		botName = "PerpWatch"
	}
	return &WebhookNotifier{
		url:        url,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		alerts:     make(chan TradeAlert, 256),
	}
}

// Notify enqueues an alert without blocking the caller. If the queue is full
// the alert is dropped; delivery is best effort.
func (n *WebhookNotifier) Notify(alert TradeAlert) {
	select {
	case n.alerts <- alert:
	default:
		log.Warn().
			Str("coin", alert.Coin).
			Msg("notification queue full, dropping trade alert")
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (n *WebhookNotifier) Start(ctx context.Context) {
	logger := log.With().Str("component", "notifier").Logger()
	logger.Info().Bool("webhook_configured", n.url != "").Msg("starting trade notifier")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down trade notifier")
			return
		case alert := <-n.alerts:
			n.deliver(ctx, alert)
		}
	}
}

func (n *WebhookNotifier) deliver(ctx context.Context, alert TradeAlert) {
	logger := log.With().
		Str("component", "notifier").
		Str("coin", alert.Coin).
		Str("side", alert.Side).
		Float64("size", alert.Size).
		Float64("price", alert.Price).
		Logger()

	logger.Info().Str("timestamp", alert.Timestamp).Msg("new trade detected")

	if n.url == "" {
		return
	}

	payload := map[string]interface{}{
		"username": n.botName,
		"trade":    alert,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal trade alert")
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		logger.Error().Err(err).Msg("failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("failed to deliver trade alert")
		return
	}
	resp.Body.Close()
}
