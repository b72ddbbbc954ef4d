package usecase

import (
	"github.com/sirupsen/logrus"

	"github.com/spooky-finn/go-orderflow/domain"
	"github.com/spooky-finn/go-orderflow/fairprice"
	promclient "github.com/spooky-finn/go-orderflow/infrastructure/prometheus"
)

var logger = logrus.WithField("ctx", "fairprice-stream")

// FairPriceStreamUseCase recomputes the fair price after every applied
// diff and hands results to the output sink. It reads the store through
// copy-out snapshots, never touching the live book.
type FairPriceStreamUseCase struct {
	store      *domain.OrderBookStore
	calculator *fairprice.Calculator
	results    chan *fairprice.FairPriceResult
}

func NewFairPriceStreamUseCase(store *domain.OrderBookStore, calculator *fairprice.Calculator) *FairPriceStreamUseCase {
	return &FairPriceStreamUseCase{
		store:      store,
		calculator: calculator,
		results:    make(chan *fairprice.FairPriceResult, 64),
	}
}

// HandleDepthApplied runs one fair-price computation over the current
// book. An invalid book is a skipped tick, not an error.
func (u *FairPriceStreamUseCase) HandleDepthApplied() {
	book := u.store.Read()
	if book == nil {
		return
	}

	result := u.calculator.Calculate(book)
	if result == nil {
		return
	}

	promclient.FairPriceGauge.Set(result.FairPrice)
	promclient.MidPriceGauge.Set(result.MidPrice)
	promclient.SpreadGauge.Set(result.Spread)
	promclient.ConfidenceGauge.Set(result.Confidence)

	select {
	case u.results <- result:
	default:
		// slow consumer; the next tick supersedes this one anyway
		logger.Debug("result sink full, dropping tick")
	}
}

// Results is the output sink feed, one result per processed diff.
func (u *FairPriceStreamUseCase) Results() <-chan *fairprice.FairPriceResult {
	return u.results
}

// Calculator exposes the engine for auxiliary queries (volatility, trend,
// method swaps).
func (u *FairPriceStreamUseCase) Calculator() *fairprice.Calculator {
	return u.calculator
}
