package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BINANCE_REST_ENDPOINT", "")
	t.Setenv("BINANCE_WS_ENDPOINT", "")

	conf, err := Load(nil)
	assert.NoError(t, err)

	assert.Equal(t, "BTCUSDT", conf.Symbol)
	assert.Equal(t, "mid-price", conf.Method)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, 5, conf.ReconnectAttempts)
	assert.Equal(t, time.Second, conf.ReconnectDelay)
	assert.Equal(t, 30*time.Second, conf.PingInterval)
	assert.Equal(t, 100, conf.MaxDepth)
	assert.Equal(t, "https://api.binance.com", conf.RestEndpoint)
	assert.Equal(t, "wss://stream.binance.com:9443", conf.WsEndpoint)
}

func TestLoad_Flags(t *testing.T) {
	conf, err := Load([]string{
		"-symbol", "ETHUSDT",
		"-method", "micro-price",
		"-reconnect-attempts", "3",
		"-reconnect-delay", "500ms",
		"-max-depth", "20",
	})
	assert.NoError(t, err)

	assert.Equal(t, "ETHUSDT", conf.Symbol)
	assert.Equal(t, "micro-price", conf.Method)
	assert.Equal(t, 3, conf.ReconnectAttempts)
	assert.Equal(t, 500*time.Millisecond, conf.ReconnectDelay)
	assert.Equal(t, 20, conf.MaxDepth)
}

func TestLoad_EnvEndpointOverride(t *testing.T) {
	t.Setenv("BINANCE_REST_ENDPOINT", "http://localhost:9000")
	t.Setenv("BINANCE_WS_ENDPOINT", "ws://localhost:9001")

	conf, err := Load(nil)
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", conf.RestEndpoint)
	assert.Equal(t, "ws://localhost:9001", conf.WsEndpoint)
}

func TestLoad_BadFlag(t *testing.T) {
	_, err := Load([]string{"-reconnect-attempts", "many"})
	assert.Error(t, err)
}
