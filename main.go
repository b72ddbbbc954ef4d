package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spooky-finn/go-orderflow/config"
	"github.com/spooky-finn/go-orderflow/domain"
	"github.com/spooky-finn/go-orderflow/fairprice"
	"github.com/spooky-finn/go-orderflow/helpers"
	promclient "github.com/spooky-finn/go-orderflow/infrastructure/prometheus"
	"github.com/spooky-finn/go-orderflow/provider/binance"
	"github.com/spooky-finn/go-orderflow/usecase"
)

var logger = logrus.WithField("ctx", "main")

const healthCheckInterval = time.Minute

func main() {
	conf, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.Fatalf("failed to load config: %s", err)
	}
	initLogging(conf.LogLevel)

	method := fairprice.ParseMethod(conf.Method)
	logger.Infof("starting fair price feed, symbol=%s method=%s", conf.Symbol, method)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncAPI := binance.NewSyncAPI(conf)
	store := domain.NewOrderBookStore(conf.MaxDepth)
	calculator := fairprice.NewCalculator(method)
	fairPriceStream := usecase.NewFairPriceStreamUseCase(store, calculator)

	verifySymbol(ctx, syncAPI, conf.Symbol)

	go promclient.StartPromClientServer(conf.MetricsAddr)
	go promclient.StartBookDepthSampler(ctx, store, 5*time.Second)
	go healthCheckLoop(ctx, syncAPI)
	go consumeResults(ctx, fairPriceStream)

	synchronizer := binance.NewSynchronizer(conf, syncAPI, store, fairPriceStream)
	if err := synchronizer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("stream synchronizer: %s", err)
	}

	logger.Info("shutting down")
}

// verifySymbol checks the symbol against exchange metadata. Failure is
// logged but not fatal: the stream itself is the source of truth.
func verifySymbol(ctx context.Context, api *binance.SyncAPI, symbol string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	info, err := api.SymbolInfo(ctx, symbol)
	if err != nil {
		logger.Warnf("symbol verification failed (continuing anyway): %s", err)
		return
	}
	if !info.IsTrading() {
		logger.Warnf("symbol %s is not in TRADING status: %s", symbol, info.Status)
	}
	logger.Infof("symbol verified: %s", info)
}

func consumeResults(ctx context.Context, fairPriceStream *usecase.FairPriceStreamUseCase) {
	for {
		select {
		case <-ctx.Done():
			return
		case result := <-fairPriceStream.Results():
			logger.Infof("%s | Signal: %s | Mid: $%.4f", result.Summary(), result.MarketSignal(), result.MidPrice)
			logger.Debugf("flow metadata: %s", helpers.ToJsonString(result.Metadata))
		}
	}
}

func healthCheckLoop(ctx context.Context, api *binance.SyncAPI) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !api.HealthCheck(ctx) {
				logger.Warn("exchange health check failed")
			}
		}
	}
}

func initLogging(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
