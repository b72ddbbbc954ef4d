package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRestEndpoint = "https://api.binance.com"
	defaultWsEndpoint   = "wss://stream.binance.com:9443"
)

// Config is the full configuration surface of the process.
type Config struct {
	Symbol   string
	Method   string
	LogLevel string

	RestEndpoint string
	WsEndpoint   string

	ReconnectAttempts int
	ReconnectDelay    time.Duration
	PingInterval      time.Duration

	MaxDepth int

	MetricsAddr string
}

// Load parses flags and the environment. A .env file, if present, feeds
// endpoint overrides the same way the shell environment does.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{}
	fs := flag.NewFlagSet("orderflow", flag.ContinueOnError)

	fs.StringVar(&conf.Symbol, "symbol", "BTCUSDT", "trading symbol")
	fs.StringVar(&conf.Method, "method", "mid-price", "fair price calculation method: mid-price, volume-weighted or micro-price")
	fs.StringVar(&conf.LogLevel, "log-level", "info", "log level")
	fs.IntVar(&conf.ReconnectAttempts, "reconnect-attempts", 5, "max stream reconnect attempts")
	fs.DurationVar(&conf.ReconnectDelay, "reconnect-delay", time.Second, "delay between reconnect attempts")
	fs.DurationVar(&conf.PingInterval, "ping-interval", 30*time.Second, "liveness ping interval")
	fs.IntVar(&conf.MaxDepth, "max-depth", 100, "max order book depth per side")
	fs.StringVar(&conf.MetricsAddr, "metrics-addr", ":8080", "prometheus metrics listen address")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	conf.RestEndpoint = envOrDefault("BINANCE_REST_ENDPOINT", defaultRestEndpoint)
	conf.WsEndpoint = envOrDefault("BINANCE_WS_ENDPOINT", defaultWsEndpoint)

	return conf, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
