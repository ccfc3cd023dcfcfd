package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/perpwatch/perpwatch-api/internal/types"
)

// Stream is a live websocket subscription to a wallet's fill events.
type Stream struct {
	conn *websocket.Conn
}

// StreamDialer opens fill streams against a fixed websocket endpoint.
type StreamDialer struct {
	url string
}

// NewStreamDialer creates a dialer for the given websocket URL.
func NewStreamDialer(url string) *StreamDialer {
	return &StreamDialer{url: url}
}

type subscribeMessage struct {
	Method string          `json:"method"`
	Params subscribeParams `json:"params"`
}

type subscribeParams struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// frame is one incoming websocket message. Frames without fill data are
// valid (subscription acks, other event classes) and decode to an empty list.
type frame struct {
	Data struct {
		Fills []wireFill `json:"fills"`
	} `json:"data"`
}

// Dial connects and subscribes to user events for the given wallet address.
func (d *StreamDialer) Dial(ctx context.Context, address string) (*Stream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to fill stream: %w", err)
	}

	sub := subscribeMessage{
		Method: "subscribe",
		Params: subscribeParams{
			Type: "user_events",
			User: address,
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to user events: %w", err)
	}

	return &Stream{conn: conn}, nil
}

// Next blocks until the next frame arrives and returns the fills it carries,
// in wire order. A frame with no fills returns an empty slice, not an error.
func (s *Stream) Next() ([]types.Fill, error) {
	var f frame
	if err := s.conn.ReadJSON(&f); err != nil {
		return nil, fmt.Errorf("reading fill stream frame: %w", err)
	}
	fills, err := normalizeFills(f.Data.Fills)
	if err != nil {
		return nil, fmt.Errorf("decoding fill stream frame: %w", err)
	}
	return fills, nil
}

// Close tears down the underlying connection. Safe to call from another
// goroutine to unblock a pending Next.
func (s *Stream) Close() error {
	return s.conn.Close()
}
