package fairprice

import (
	"fmt"
	"time"
)

// FairPriceMetadata aggregates top-of-book statistics over the top 5
// levels. It is attached to every result regardless of the method that
// produced the fair price.
type FairPriceMetadata struct {
	BidVolume          float64 `json:"bid_volume"`
	AskVolume          float64 `json:"ask_volume"`
	TotalVolume        float64 `json:"total_volume"`
	WeightedBidPrice   float64 `json:"weighted_bid_price"`
	WeightedAskPrice   float64 `json:"weighted_ask_price"`
	OrderFlowImbalance float64 `json:"order_flow_imbalance"` // -1..1, negative = sell pressure
	DepthRatio         float64 `json:"depth_ratio"`          // +Inf when ask volume is zero
	Spread             float64 `json:"spread"`
}

// FairPriceResult is an immutable snapshot of one computation.
type FairPriceResult struct {
	FairPrice         float64
	CalculationMethod string
	Timestamp         time.Time
	Confidence        float64 // 0..1
	Spread            float64
	MidPrice          float64
	Metadata          FairPriceMetadata
}

type MarketSignal string

const (
	SignalBuyPressure  MarketSignal = "Buy Pressure"
	SignalSellPressure MarketSignal = "Sell Pressure"
	SignalBalanced     MarketSignal = "Balanced"
	SignalNeutral      MarketSignal = "Neutral"
)

const (
	signalConfidenceThreshold = 0.7
	signalImbalanceThreshold  = 0.3
)

// MarketSignal classifies the result by order-flow imbalance. Low
// confidence always reads as neutral.
func (r *FairPriceResult) MarketSignal() MarketSignal {
	if r.Confidence < signalConfidenceThreshold {
		return SignalNeutral
	}

	imbalance := r.Metadata.OrderFlowImbalance
	switch {
	case imbalance > signalImbalanceThreshold:
		return SignalBuyPressure
	case imbalance < -signalImbalanceThreshold:
		return SignalSellPressure
	default:
		return SignalBalanced
	}
}

func (r *FairPriceResult) Summary() string {
	return fmt.Sprintf(
		"Fair Price: $%.4f | Method: %s | Confidence: %.1f%% | Spread: $%.4f | Flow: %.2f",
		r.FairPrice,
		r.CalculationMethod,
		r.Confidence*100,
		r.Spread,
		r.Metadata.OrderFlowImbalance,
	)
}
