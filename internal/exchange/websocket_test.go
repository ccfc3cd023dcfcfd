package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestStreamSubscribesAndReadsFills(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrading connection: %v", err)
			return
		}
		defer conn.Close()

		// First message must be the subscription request.
		var sub subscribeMessage
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("reading subscribe message: %v", err)
			return
		}
		if sub.Method != "subscribe" || sub.Params.Type != "user_events" || sub.Params.User != "0xwallet" {
			t.Errorf("unexpected subscribe message: %+v", sub)
			return
		}

		// Ack frame without fills, then a frame carrying two fills.
		frames := []string{
			`{"channel": "subscriptionResponse"}`,
			`{"data": {"fills": [
				{"coin": "BTC", "px": "43000.5", "sz": "0.5", "side": "B", "time": 1700000000000, "tid": 1, "oid": 10},
				{"coin": "ETH", "px": "2250.0", "sz": "2", "side": "A", "time": 1700000001000, "tid": 2, "oid": 11}
			]}}`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	stream, err := NewStreamDialer(wsURL).Dial(context.Background(), "0xwallet")
	if err != nil {
		t.Fatalf("dialing stream: %v", err)
	}
	defer stream.Close()

	// The ack frame carries no fills.
	fills, err := stream.Next()
	if err != nil {
		t.Fatalf("reading ack frame: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("expected empty fill list from ack frame, got %d", len(fills))
	}

	fills, err = stream.Next()
	if err != nil {
		t.Fatalf("reading fill frame: %v", err)
	}
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}
	if fills[0].TradeID != 1 || fills[0].Coin != "BTC" || fills[0].Price != 43000.5 {
		t.Fatalf("unexpected first fill: %+v", fills[0])
	}
	if fills[1].TradeID != 2 || fills[1].Coin != "ETH" {
		t.Fatalf("unexpected second fill: %+v", fills[1])
	}
}

func TestStreamNextFailsAfterClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	stream, err := NewStreamDialer(wsURL).Dial(context.Background(), "0xwallet")
	if err != nil {
		t.Fatalf("dialing stream: %v", err)
	}

	stream.Close()
	if _, err := stream.Next(); err == nil {
		t.Fatal("expected error reading from a closed stream")
	}
}
