package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"
)

func mockStreamServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/ws/market") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if handler != nil {
			handler(conn)
		}
	}))
}

func TestMarketStream_PriceUpdates(t *testing.T) {
	server := mockStreamServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()

		// First frame must be the subscription.
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var sub streamSubscription
		if err := json.Unmarshal(data, &sub); err != nil {
			t.Errorf("subscription frame is not valid JSON: %v", err)
			return
		}
		if sub.Type != "market" || len(sub.AssetIDs) != 1 || sub.AssetIDs[0] != testTokenID {
			t.Errorf("unexpected subscription: %+v", sub)
		}

		events := []streamEvent{
			{EventType: "book", AssetID: testTokenID},
			{EventType: "price_change", AssetID: testTokenID, Market: "0xabc", Price: "0.62", Timestamp: "1750000000000"},
		}
		for _, ev := range events {
			payload, _ := json.Marshal(ev)
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}
		}

		time.Sleep(200 * time.Millisecond)
	})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewMarketStream(wsURL, []string{testTokenID}, testLogger())
	if err != nil {
		t.Fatalf("NewMarketStream() error = %v", err)
	}
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := stream.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	select {
	case update := <-stream.Updates():
		if update.TokenID != testTokenID {
			t.Errorf("TokenID = %s, want %s", update.TokenID, testTokenID)
		}
		if update.MarketID != "0xabc" {
			t.Errorf("MarketID = %s, want 0xabc", update.MarketID)
		}
		if !update.Price.Equal(decimal.RequireFromString("0.62")) {
			t.Errorf("Price = %s, want 0.62", update.Price)
		}
		if update.Timestamp.UnixMilli() != 1750000000000 {
			t.Errorf("Timestamp = %d, want 1750000000000", update.Timestamp.UnixMilli())
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for price update")
	}

	// The book event must not produce an update.
	select {
	case update := <-stream.Updates():
		t.Errorf("unexpected extra update: %+v", update)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMarketStream_RequiresURL(t *testing.T) {
	if _, err := NewMarketStream("", []string{testTokenID}, testLogger()); err == nil {
		t.Error("expected error for empty websocket url")
	}
}

func TestMarketStream_CloseIdempotent(t *testing.T) {
	stream, err := NewMarketStream("ws://127.0.0.1:0", nil, testLogger())
	if err != nil {
		t.Fatalf("NewMarketStream() error = %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, ok := <-stream.Updates(); ok {
		t.Error("expected updates channel to be closed")
	}
}
