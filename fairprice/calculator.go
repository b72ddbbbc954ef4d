package fairprice

import (
	"math"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/sirupsen/logrus"

	"github.com/spooky-finn/go-orderflow/domain"
)

var logger = logrus.WithField("ctx", "fairprice")

const (
	metadataLevels = 5
	maxHistory     = 1000
	minConfidence  = 0.1
)

// Calculator computes a fair price from order book snapshots using one of
// the closed set of methods. It keeps a bounded history of prior fair
// prices for volatility and trend queries.
type Calculator struct {
	mu      sync.Mutex
	method  Method
	history deque.Deque[float64]
}

func NewCalculator(method Method) *Calculator {
	return &Calculator{method: method}
}

func (c *Calculator) Method() Method {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

func (c *Calculator) SetMethod(method Method) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.method = method
}

// Calculate returns nil when the book is not valid for pricing (empty side
// or a locked/crossed book). That is a skipped tick, not an error.
func (c *Calculator) Calculate(ob *domain.OrderBook) *FairPriceResult {
	if !ob.IsValid() {
		logger.Debug("order book not valid for pricing, skipping tick")
		return nil
	}

	// IsValid guarantees both are present
	midPrice, _ := ob.MidPrice()
	spread, _ := ob.Spread()

	metadata := calculateMetadata(ob, spread)

	c.mu.Lock()
	method := c.method
	c.mu.Unlock()

	var fairPrice, confidence float64
	switch method.Kind {
	case VolumeWeighted:
		fairPrice, confidence = calculateVolumeWeighted(ob, method.Levels)
	case MicroPrice:
		fairPrice, confidence = calculateMicroPrice(ob, &metadata)
	default:
		fairPrice, confidence = midPrice, midPriceConfidence(&metadata)
	}

	c.pushHistory(fairPrice)

	return &FairPriceResult{
		FairPrice:         fairPrice,
		CalculationMethod: method.String(),
		Timestamp:         time.Now(),
		Confidence:        confidence,
		Spread:            spread,
		MidPrice:          midPrice,
		Metadata:          metadata,
	}
}

// calculateVolumeWeighted blends the volume-weighted average price of each
// side's top levels, weighted by side volume. Zero volume in the window
// falls back to mid-price with zero confidence.
func calculateVolumeWeighted(ob *domain.OrderBook, levels int) (float64, float64) {
	topBids, topAsks := ob.TopLevels(levels)
	if len(topBids) == 0 || len(topAsks) == 0 {
		mid, _ := ob.MidPrice()
		return mid, 0
	}

	var bidSum, bidVolume, askSum, askVolume float64
	for _, level := range topBids {
		bidSum += level.Price.Float64() * level.Quantity
		bidVolume += level.Quantity
	}
	for _, level := range topAsks {
		askSum += level.Price.Float64() * level.Quantity
		askVolume += level.Quantity
	}

	if bidVolume == 0 || askVolume == 0 {
		mid, _ := ob.MidPrice()
		return mid, 0
	}

	weightedBid := bidSum / bidVolume
	weightedAsk := askSum / askVolume

	totalVolume := bidVolume + askVolume
	fairPrice := (weightedBid*bidVolume + weightedAsk*askVolume) / totalVolume

	// balanced side volumes read as higher confidence
	volumeBalance := math.Abs(bidVolume-askVolume) / totalVolume
	confidence := 1 - volumeBalance

	return fairPrice, math.Max(confidence, minConfidence)
}

// calculateMicroPrice weights the inside quote by opposite-side quantity
// and nudges it by the order-flow imbalance.
func calculateMicroPrice(ob *domain.OrderBook, metadata *FairPriceMetadata) (float64, float64) {
	bestBid, okBid := ob.BestBid()
	bestAsk, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		mid, _ := ob.MidPrice()
		return mid, 0
	}

	bidPrice := bestBid.Price.Float64()
	askPrice := bestAsk.Price.Float64()
	bidQty := bestBid.Quantity
	askQty := bestAsk.Quantity

	totalQty := bidQty + askQty
	if totalQty == 0 {
		mid, _ := ob.MidPrice()
		return mid, 0
	}

	microPrice := (askPrice*bidQty + bidPrice*askQty) / totalQty
	adjusted := microPrice + metadata.OrderFlowImbalance*(askPrice-bidPrice)*0.1

	mid, _ := ob.MidPrice()
	qtyBalance := 1 - math.Abs(bidQty-askQty)/totalQty
	spreadTightness := 1 / (1 + metadata.Spread/mid)
	confidence := math.Max(qtyBalance*0.7+spreadTightness*0.3, minConfidence)

	return adjusted, confidence
}

func calculateMetadata(ob *domain.OrderBook, spread float64) FairPriceMetadata {
	topBids, topAsks := ob.TopLevels(metadataLevels)

	var bidVolume, askVolume, bidSum, askSum float64
	for _, level := range topBids {
		bidVolume += level.Quantity
		bidSum += level.Price.Float64() * level.Quantity
	}
	for _, level := range topAsks {
		askVolume += level.Quantity
		askSum += level.Price.Float64() * level.Quantity
	}
	totalVolume := bidVolume + askVolume

	var weightedBid, weightedAsk float64
	if bidVolume > 0 {
		weightedBid = bidSum / bidVolume
	}
	if askVolume > 0 {
		weightedAsk = askSum / askVolume
	}

	var imbalance float64
	if totalVolume > 0 {
		imbalance = (bidVolume - askVolume) / totalVolume
	}

	depthRatio := math.Inf(1)
	if askVolume > 0 {
		depthRatio = bidVolume / askVolume
	}

	return FairPriceMetadata{
		BidVolume:          bidVolume,
		AskVolume:          askVolume,
		TotalVolume:        totalVolume,
		WeightedBidPrice:   weightedBid,
		WeightedAskPrice:   weightedAsk,
		OrderFlowImbalance: imbalance,
		DepthRatio:         depthRatio,
		Spread:             spread,
	}
}

// midPriceConfidence blends volume balance, liquidity magnitude and spread
// tightness (weights 0.4/0.3/0.3).
func midPriceConfidence(metadata *FairPriceMetadata) float64 {
	if metadata.TotalVolume == 0 {
		return 0
	}

	volumeBalance := 1 - math.Abs(metadata.BidVolume-metadata.AskVolume)/metadata.TotalVolume
	liquidityFactor := math.Min(metadata.TotalVolume/(metadata.TotalVolume+100), 1)

	var spreadFactor float64
	if metadata.Spread > 0 {
		spreadFactor = 1 / (1 + metadata.Spread*1000)
	}

	return math.Max(volumeBalance*0.4+liquidityFactor*0.3+spreadFactor*0.3, minConfidence)
}

func (c *Calculator) pushHistory(price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.PushBack(price)
	if c.history.Len() > maxHistory {
		c.history.PopFront()
	}
}

// Volatility is the population standard deviation of the most recent
// window fair prices. Reports false while the history is shorter than
// the window.
func (c *Calculator) Volatility(window int) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if window <= 0 || c.history.Len() < window {
		return 0, false
	}

	start := c.history.Len() - window
	var sum float64
	for i := start; i < c.history.Len(); i++ {
		sum += c.history.At(i)
	}
	mean := sum / float64(window)

	var variance float64
	for i := start; i < c.history.Len(); i++ {
		d := c.history.At(i) - mean
		variance += d * d
	}
	variance /= float64(window)

	return math.Sqrt(variance), true
}

// Trend is the relative change from the oldest to the newest value in the
// window. Reports false with fewer than 2 values.
func (c *Calculator) Trend(window int) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if window < 2 || c.history.Len() < window {
		return 0, false
	}

	oldest := c.history.At(c.history.Len() - window)
	newest := c.history.At(c.history.Len() - 1)
	if oldest == 0 {
		return 0, false
	}

	return (newest - oldest) / oldest, true
}
