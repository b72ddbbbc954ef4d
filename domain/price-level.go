package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Price is an ordering key on a book side. It is always finite:
// construction rejects NaN and infinities so they can never enter a book.
type Price float64

func NewPrice(value float64) (Price, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid price value: %v", value)
	}
	return Price(value), nil
}

func (p Price) Float64() float64 {
	return float64(p)
}

// PriceLevel is a single price point with the aggregate resting quantity.
// A level with Quantity == 0 is a removal instruction, not a resting level,
// and must never be kept inside a book side.
type PriceLevel struct {
	Price     Price
	Quantity  float64
	Timestamp time.Time
}

func NewPriceLevel(price float64, quantity float64) (PriceLevel, error) {
	p, err := NewPrice(price)
	if err != nil {
		return PriceLevel{}, err
	}
	return PriceLevel{
		Price:     p,
		Quantity:  quantity,
		Timestamp: time.Now(),
	}, nil
}

// ParsePriceLevels converts [price, quantity] string pairs, as they arrive
// from the exchange, into levels. Any malformed or non-finite token fails
// the whole batch so a partially parsed diff is never applied.
func ParsePriceLevels(depth [][]string) ([]PriceLevel, error) {
	result := make([]PriceLevel, 0, len(depth))
	for _, entry := range depth {
		if len(entry) < 2 {
			return nil, fmt.Errorf("malformed price level entry: %v", entry)
		}
		price, err := strconv.ParseFloat(entry[0], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price %q: %w", entry[0], err)
		}
		quantity, err := strconv.ParseFloat(entry[1], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quantity %q: %w", entry[1], err)
		}
		if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
			return nil, fmt.Errorf("invalid quantity value: %v", quantity)
		}
		level, err := NewPriceLevel(price, quantity)
		if err != nil {
			return nil, err
		}
		result = append(result, level)
	}
	return result, nil
}
