package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airbureau/bybit-data/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func instrumentsJSON(cursor string, rows ...[3]string) string {
	list := ""
	for i, r := range rows {
		if i > 0 {
			list += ","
		}
		list += fmt.Sprintf(`{"symbol":%q,"quoteCoin":%q,"status":%q}`, r[0], r[1], r[2])
	}
	return fmt.Sprintf(`{"retCode":0,"retMsg":"OK","result":{"category":"spot","list":[%s],"nextPageCursor":%q}}`, list, cursor)
}

func TestListTradableSymbols_Filtering(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/instruments-info" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("category"); got != "spot" {
			t.Errorf("category = %q, want spot", got)
		}
		fmt.Fprint(w, instrumentsJSON("",
			[3]string{"BTCUSDT", "USDT", "Trading"},
			[3]string{"ETHBTC", "BTC", "Trading"},
			[3]string{"XRPUSDT", "USDT", "PreLaunch"},
			[3]string{"ETHUSDT", "USDT", "Trading"},
		))
	}))
	defer server.Close()

	client := NewClient(server.URL, "USDT", WithLogger(discardLogger()))

	symbols, err := client.ListTradableSymbols(context.Background(), model.SegmentSpot)
	if err != nil {
		t.Fatalf("ListTradableSymbols failed: %v", err)
	}

	want := []string{"BTCUSDT", "ETHUSDT"}
	if len(symbols) != len(want) {
		t.Fatalf("got %d symbols %v, want %v", len(symbols), symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestListInstruments_Pagination(t *testing.T) {
	var cursors []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		switch cursor {
		case "":
			fmt.Fprint(w, instrumentsJSON("page2", [3]string{"BTCUSDT", "USDT", "Trading"}))
		case "page2":
			fmt.Fprint(w, instrumentsJSON("", [3]string{"ETHUSDT", "USDT", "Trading"}))
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "USDT", WithLogger(discardLogger()))

	instruments, err := client.ListInstruments(context.Background(), model.SegmentSpot)
	if err != nil {
		t.Fatalf("ListInstruments failed: %v", err)
	}

	if len(instruments) != 2 {
		t.Fatalf("got %d instruments, want 2", len(instruments))
	}
	if len(cursors) != 2 || cursors[0] != "" || cursors[1] != "page2" {
		t.Errorf("cursor sequence = %v, want [ page2]", cursors)
	}
	if instruments[0].Symbol != "BTCUSDT" || instruments[1].Symbol != "ETHUSDT" {
		t.Errorf("instruments = %v", instruments)
	}
}

func TestListInstruments_RetCodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":10001,"retMsg":"params error","result":{}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "USDT", WithLogger(discardLogger()))

	_, err := client.ListInstruments(context.Background(), model.SegmentLinear)
	if err == nil {
		t.Fatal("expected error for non-zero retCode")
	}

	var discErr *DiscoveryError
	if !errors.As(err, &discErr) {
		t.Fatalf("error type = %T, want *DiscoveryError", err)
	}
	if discErr.Segment != "linear" {
		t.Errorf("Segment = %q, want linear", discErr.Segment)
	}
}

func TestListInstruments_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, instrumentsJSON("", [3]string{"BTCUSDT", "USDT", "Trading"}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "USDT",
		WithLogger(discardLogger()),
		WithRetries(3, time.Millisecond),
	)

	instruments, err := client.ListInstruments(context.Background(), model.SegmentSpot)
	if err != nil {
		t.Fatalf("ListInstruments failed after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("server calls = %d, want 3", calls)
	}
	if len(instruments) != 1 {
		t.Errorf("got %d instruments, want 1", len(instruments))
	}
}

func TestListInstruments_NoRetryOnClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "USDT",
		WithLogger(discardLogger()),
		WithRetries(3, time.Millisecond),
	)

	_, err := client.ListInstruments(context.Background(), model.SegmentSpot)
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if calls != 1 {
		t.Errorf("server calls = %d, want 1 (no retry on 4xx)", calls)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error chain missing *APIError: %v", err)
	}
	if apiErr.IsRetryable() {
		t.Error("403 reported as retryable")
	}
}
