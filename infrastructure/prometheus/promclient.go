package promclient

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/spooky-finn/go-orderflow/domain"
)

var logger = logrus.WithField("ctx", "promclient")

var FairPriceGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "orderflow_fair_price",
		Help: "last computed fair price",
	},
)

var MidPriceGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "orderflow_mid_price",
		Help: "current order book mid price",
	},
)

var SpreadGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "orderflow_spread",
		Help: "current best ask minus best bid",
	},
)

var ConfidenceGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "orderflow_fair_price_confidence",
		Help: "confidence of the last fair price computation",
	},
)

var BidDepthGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "orderflow_book_bid_levels",
		Help: "number of bid levels in the local order book",
	},
)

var AskDepthGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "orderflow_book_ask_levels",
		Help: "number of ask levels in the local order book",
	},
)

var DepthUpdatesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "orderflow_depth_updates_total",
		Help: "depth diffs applied to the local order book",
	},
)

var StreamReconnectsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "orderflow_stream_reconnects_total",
		Help: "stream attempts that ended in a retry",
	},
)

func StartPromClientServer(addr string) {
	reg := prometheus.NewRegistry()
	promHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	reg.MustRegister(FairPriceGauge)
	reg.MustRegister(MidPriceGauge)
	reg.MustRegister(SpreadGauge)
	reg.MustRegister(ConfidenceGauge)
	reg.MustRegister(BidDepthGauge)
	reg.MustRegister(AskDepthGauge)
	reg.MustRegister(DepthUpdatesTotal)
	reg.MustRegister(StreamReconnectsTotal)
	reg.MustRegister(collectors.NewGoCollector())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promHandler)
	logger.Infof("prometheus server listening at %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("failed to serve metrics: %v", err)
	}
}

// StartBookDepthSampler periodically reads a store snapshot and exports
// per-side depth. It runs concurrently with the stream writer.
func StartBookDepthSampler(ctx context.Context, store *domain.OrderBookStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			book := store.Read()
			if book == nil {
				continue
			}
			BidDepthGauge.Set(float64(len(book.Bids)))
			AskDepthGauge.Set(float64(len(book.Asks)))
		}
	}
}
