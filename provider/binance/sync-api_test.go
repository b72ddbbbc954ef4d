package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spooky-finn/go-orderflow/config"
)

func newTestSyncAPI(t *testing.T, handler http.HandlerFunc) *SyncAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSyncAPI(&config.Config{RestEndpoint: srv.URL})
}

func TestSyncAPI_OrderBookSnapshot(t *testing.T) {
	api := newTestSyncAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"lastUpdateId": 123,
			"bids": [["10000", "1"], ["9900", "2"]],
			"asks": [["10100", "1.5"]]
		}`))
	})

	snapshot, err := api.OrderBookSnapshot(context.Background(), "BTCUSDT", 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(123), snapshot.LastUpdateId)
	assert.Len(t, snapshot.Bids, 2)
	assert.Len(t, snapshot.Asks, 1)
}

func TestSyncAPI_OrderBookSnapshot_HttpError(t *testing.T) {
	api := newTestSyncAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	})

	_, err := api.OrderBookSnapshot(context.Background(), "BTCUSDT", 100)
	assert.Error(t, err)
}

func TestSyncAPI_SymbolInfo(t *testing.T) {
	api := newTestSyncAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/exchangeInfo", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"symbols": [{
				"symbol": "BTCUSDT",
				"baseAsset": "BTC",
				"quoteAsset": "USDT",
				"status": "TRADING"
			}]
		}`))
	})

	info, err := api.SymbolInfo(context.Background(), "BTCUSDT")
	assert.NoError(t, err)
	assert.Equal(t, "BTC", info.BaseAsset)
	assert.Equal(t, "USDT", info.QuoteAsset)
	assert.True(t, info.IsTrading())
}

func TestSyncAPI_SymbolInfo_NotFound(t *testing.T) {
	api := newTestSyncAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbols": []}`))
	})

	_, err := api.SymbolInfo(context.Background(), "NOSUCHPAIR")
	assert.Error(t, err)
}

func TestSyncAPI_ServerTimeAndHealthCheck(t *testing.T) {
	api := newTestSyncAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/time", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"serverTime": 1700000000000}`))
	})

	serverTime, err := api.ServerTime(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(1700000000000), serverTime)

	assert.True(t, api.HealthCheck(context.Background()))
}

func TestSyncAPI_HealthCheck_Failure(t *testing.T) {
	api := newTestSyncAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	assert.False(t, api.HealthCheck(context.Background()))
}
