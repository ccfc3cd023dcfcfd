package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/perpwatch/perpwatch-api/internal/notify"
	"github.com/perpwatch/perpwatch-api/internal/tradestore"
	"github.com/perpwatch/perpwatch-api/internal/types"
)

// FillStream is a live subscription yielding batches of fills per frame.
type FillStream interface {
	Next() ([]types.Fill, error)
	Close() error
}

// Dialer opens a fill stream for a wallet address.
type Dialer interface {
	Dial(ctx context.Context, address string) (FillStream, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, address string) (FillStream, error)

func (f DialerFunc) Dial(ctx context.Context, address string) (FillStream, error) {
	return f(ctx, address)
}

// Loop tracks a single wallet's fills over a streaming subscription. New
// fills are admitted to the dedup store; each first-time admission emits one
// trade alert, in wire-arrival order. On transport or decode failure the
// loop reconnects with capped exponential backoff until the context is
// cancelled.
type Loop struct {
	address  string
	dialer   Dialer
	store    *tradestore.Store
	notifier notify.Notifier

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewLoop creates an ingest loop for the given wallet.
func NewLoop(address string, dialer Dialer, store *tradestore.Store, notifier notify.Notifier) *Loop {
	return &Loop{
		address:        address,
		dialer:         dialer,
		store:          store,
		notifier:       notifier,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
}

// Start runs the ingest loop until the context is cancelled.
func (l *Loop) Start(ctx context.Context) {
	logger := log.With().
		Str("component", "ingest").
		Str("wallet", l.address).
		Logger()

	logger.Info().Msg("tracking wallet")

	backoff := l.initialBackoff
	for {
		if ctx.Err() != nil {
			logger.Info().Msg("shutting down ingest loop")
			return
		}

		stream, err := l.dialer.Dial(ctx, l.address)
		if err != nil {
			logger.Error().Err(err).Dur("retry_in", backoff).Msg("failed to open fill stream")
			if !sleep(ctx, backoff) {
				logger.Info().Msg("shutting down ingest loop")
				return
			}
			backoff = nextBackoff(backoff, l.maxBackoff)
			continue
		}

		logger.Info().Msg("subscribed to fill stream")
		backoff = l.initialBackoff
		err = l.consume(ctx, stream)
		stream.Close()

		if ctx.Err() != nil {
			logger.Info().Msg("shutting down ingest loop")
			return
		}

		logger.Error().Err(err).Dur("retry_in", backoff).Msg("fill stream terminated, reconnecting")
		if !sleep(ctx, backoff) {
			logger.Info().Msg("shutting down ingest loop")
			return
		}
		backoff = nextBackoff(backoff, l.maxBackoff)
	}
}

// consume reads frames until the stream fails. A goroutine closes the stream
// on context cancellation to unblock the pending read.
func (l *Loop) consume(ctx context.Context, stream FillStream) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-done:
		}
	}()

	for {
		fills, err := stream.Next()
		if err != nil {
			return err
		}
		l.process(fills)
	}
}

// process admits a frame's fills in wire order. Per-frame processing is
// synchronous so analytics readers never observe a half-applied frame batch
// interleaved with another.
func (l *Loop) process(fills []types.Fill) {
	for _, fill := range fills {
		if !l.store.Add(fill) {
			continue
		}
		l.notifier.Notify(notify.TradeAlert{
			Timestamp: fill.Timestamp().Format("2006-01-02 15:04:05"),
			Coin:      fill.Coin,
			Side:      fill.Side,
			Size:      fill.Size,
			Price:     fill.Price,
		})
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
