package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/airbureau/bybit-data/internal/subscribe"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionConfig(url string) SessionConfig {
	return SessionConfig{
		URL:          url,
		PaceDelay:    time.Millisecond,
		DialTimeout:  time.Second,
		WriteTimeout: time.Second,
		PingInterval: time.Minute,
		IdleTimeout:  5 * time.Second,
	}
}

func TestSession_SubscribesAllGroups(t *testing.T) {
	var mu sync.Mutex
	var requests []command

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd command
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			mu.Lock()
			requests = append(requests, cmd)
			n := 0
			for _, r := range requests {
				if r.Op == "subscribe" {
					n++
				}
			}
			mu.Unlock()
			// Close once both groups are in so Run returns.
			if n == 2 {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
		}
	})
	defer server.Close()

	groups := []subscribe.Group{
		{Symbols: []string{"BTCUSDT", "ETHUSDT"}},
		{Symbols: []string{"XRPUSDT"}},
	}

	session := NewSession(sessionConfig(wsURL(server)), groups, HandlerFunc(func([]byte, time.Time) {}), quietLogger())

	err := session.Run(context.Background())
	if err == nil {
		t.Fatal("expected transport error after server close")
	}

	mu.Lock()
	defer mu.Unlock()

	var subs []command
	for _, r := range requests {
		if r.Op == "subscribe" {
			subs = append(subs, r)
		}
	}
	if len(subs) != 2 {
		t.Fatalf("got %d subscribe requests, want 2", len(subs))
	}
	if len(subs[0].Args) != 2 || subs[0].Args[0] != "tickers.BTCUSDT" || subs[0].Args[1] != "tickers.ETHUSDT" {
		t.Errorf("first subscribe args = %v", subs[0].Args)
	}
	if len(subs[1].Args) != 1 || subs[1].Args[0] != "tickers.XRPUSDT" {
		t.Errorf("second subscribe args = %v", subs[1].Args)
	}
}

func TestSession_DispatchesDataAndFiltersAcks(t *testing.T) {
	frames := []string{
		`{"op":"subscribe","success":true,"conn_id":"abc"}`,
		`{"topic":"tickers.BTCUSDT","ts":1700000000000,"data":{"symbol":"BTCUSDT","lastPrice":"50000"}}`,
		`{"op":"pong"}`,
		`{"topic":"tickers.ETHUSDT","ts":1700000000001,"data":{"symbol":"ETHUSDT","lastPrice":"3000"}}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Wait for the subscribe request first.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	})
	defer server.Close()

	var mu sync.Mutex
	var handled []string
	handler := HandlerFunc(func(data []byte, receivedAt time.Time) {
		mu.Lock()
		handled = append(handled, string(data))
		mu.Unlock()
		if receivedAt.IsZero() {
			t.Error("receivedAt is zero")
		}
	})

	groups := []subscribe.Group{{Symbols: []string{"BTCUSDT", "ETHUSDT"}}}
	session := NewSession(sessionConfig(wsURL(server)), groups, handler, quietLogger())

	err := session.Run(context.Background())
	if err == nil {
		t.Fatal("expected transport error after server close")
	}
	if session.State() != StateReconnecting {
		t.Errorf("state = %q, want %q", session.State(), StateReconnecting)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 2 {
		t.Fatalf("dispatched %d messages, want 2 (acks filtered)", len(handled))
	}
	if !strings.Contains(handled[0], "BTCUSDT") || !strings.Contains(handled[1], "ETHUSDT") {
		t.Errorf("dispatch order wrong: %v", handled)
	}
}

func TestSession_OperatorStopReturnsNil(t *testing.T) {
	subscribed := make(chan struct{})
	var once sync.Once

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			once.Do(func() { close(subscribed) })
		}
	})
	defer server.Close()

	groups := []subscribe.Group{{Symbols: []string{"BTCUSDT"}}}
	session := NewSession(sessionConfig(wsURL(server)), groups, HandlerFunc(func([]byte, time.Time) {}), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx)
	}()

	select {
	case <-subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("session never subscribed")
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v on operator stop, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after cancel")
	}

	if session.State() != StateStopped {
		t.Errorf("state = %q, want %q", session.State(), StateStopped)
	}
}

func TestSession_ConnectFailure(t *testing.T) {
	cfg := sessionConfig("ws://127.0.0.1:1")
	session := NewSession(cfg, nil, HandlerFunc(func([]byte, time.Time) {}), quietLogger())

	err := session.Run(context.Background())
	if err == nil {
		t.Fatal("expected connect error")
	}
	if session.State() != StateDisconnected {
		t.Errorf("state = %q, want %q", session.State(), StateDisconnected)
	}
}

func TestParseOpResponse(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		wantOp string
		wantOK bool
	}{
		{"subscribe ack", `{"op":"subscribe","success":true}`, "subscribe", true},
		{"pong", `{"op":"pong"}`, "pong", true},
		{"data frame", `{"topic":"tickers.BTCUSDT","data":{}}`, "", false},
		{"not json", `garbage`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := parseOpResponse([]byte(tt.data))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if op.Op != tt.wantOp {
				t.Errorf("op = %q, want %q", op.Op, tt.wantOp)
			}
		})
	}
}

func TestClient_ReadWithoutConnect(t *testing.T) {
	client := NewClient(ClientConfig{URL: "ws://unused"}, quietLogger())
	if _, _, err := client.Read(); err != ErrNotConnected {
		t.Errorf("Read error = %v, want ErrNotConnected", err)
	}
	if err := client.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("Send error = %v, want ErrNotConnected", err)
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(ClientConfig{
		URL:          wsURL(server),
		DialTimeout:  time.Second,
		WriteTimeout: time.Second,
		PingInterval: time.Minute,
		IdleTimeout:  time.Second,
	}, quietLogger())

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected = false after Connect")
	}

	if err := client.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected = true after Close")
	}

	if err := client.Connect(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("Connect after Close = %v, want ErrAlreadyClosed", err)
	}
}
