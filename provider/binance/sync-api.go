package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spooky-finn/go-orderflow/config"
	"github.com/spooky-finn/go-orderflow/domain"
)

var logger = logrus.WithField("ctx", "binance")

// SyncAPI is the REST side of the exchange: order book snapshots, symbol
// metadata and server time.
type SyncAPI struct {
	endpoint   string
	httpClient *http.Client
}

func NewSyncAPI(conf *config.Config) *SyncAPI {
	return &SyncAPI{
		endpoint: conf.RestEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (api *SyncAPI) OrderBookSnapshot(ctx context.Context, symbol string, limit int) (*domain.OrderBookSnapshot, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("limit", strconv.Itoa(limit))

	var snapshot domain.OrderBookSnapshot
	if err := api.getJSON(ctx, "/api/v3/depth", query, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to get order book snapshot: %w", err)
	}
	return &snapshot, nil
}

func (api *SyncAPI) SymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var response struct {
		Symbols []domain.SymbolInfo `json:"symbols"`
	}
	if err := api.getJSON(ctx, "/api/v3/exchangeInfo", query, &response); err != nil {
		return nil, fmt.Errorf("failed to get exchange info: %w", err)
	}
	if len(response.Symbols) == 0 {
		return nil, fmt.Errorf("symbol %s not found", symbol)
	}

	info := response.Symbols[0]
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("invalid symbol info for %s: %w", symbol, err)
	}
	return &info, nil
}

func (api *SyncAPI) ServerTime(ctx context.Context) (int64, error) {
	var response struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := api.getJSON(ctx, "/api/v3/time", nil, &response); err != nil {
		return 0, fmt.Errorf("failed to get server time: %w", err)
	}
	return response.ServerTime, nil
}

// HealthCheck probes the exchange with a bounded server time call. It is
// auxiliary and must never block the streaming loop.
func (api *SyncAPI) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := api.ServerTime(ctx); err != nil {
		logger.Warnf("health check failed: %s", err)
		return false
	}
	return true
}

func (api *SyncAPI) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := api.endpoint + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := api.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed with status: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}
	return nil
}
