package domain

import (
	"fmt"
	"sort"
	"time"
)

// OrderBookSnapshot is a point-in-time rendering of both book sides as
// delivered by the exchange depth endpoint.
type OrderBookSnapshot struct {
	LastUpdateId int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// OrderBookUpdate is one incremental diff from the depth stream. It is
// consumed exactly once by the store and discarded.
type OrderBookUpdate struct {
	Symbol        string
	SequenceStart int64
	SequenceEnd   int64
	Bids          [][]string
	Asks          [][]string
}

func NewOrderBookUpdate(symbol string, bids, asks [][]string, seqStart, seqEnd int64) *OrderBookUpdate {
	return &OrderBookUpdate{
		Symbol:        symbol,
		SequenceStart: seqStart,
		SequenceEnd:   seqEnd,
		Bids:          bids,
		Asks:          asks,
	}
}

// OrderBook keeps both sides ordered best-first: bids by descending price,
// asks by ascending price. LastUpdateID is a forward-only watermark.
type OrderBook struct {
	Symbol       string
	Bids         []PriceLevel
	Asks         []PriceLevel
	LastUpdateID int64
	LastUpdateAt time.Time
}

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{Symbol: symbol}
}

// NewOrderBookFromSnapshot builds a fresh book from a snapshot, skipping
// non-positive quantities. A parse error fails the whole build.
func NewOrderBookFromSnapshot(symbol string, snapshot *OrderBookSnapshot) (*OrderBook, error) {
	bids, err := ParsePriceLevels(snapshot.Bids)
	if err != nil {
		return nil, fmt.Errorf("snapshot bids: %w", err)
	}
	asks, err := ParsePriceLevels(snapshot.Asks)
	if err != nil {
		return nil, fmt.Errorf("snapshot asks: %w", err)
	}

	ob := NewOrderBook(symbol)
	for _, level := range bids {
		if level.Quantity > 0 {
			ob.Bids = upsertLevel(ob.Bids, level, false)
		}
	}
	for _, level := range asks {
		if level.Quantity > 0 {
			ob.Asks = upsertLevel(ob.Asks, level, true)
		}
	}
	ob.LastUpdateID = snapshot.LastUpdateId
	ob.LastUpdateAt = time.Now()
	return ob, nil
}

func (ob *OrderBook) BestBid() (PriceLevel, bool) {
	if len(ob.Bids) == 0 {
		return PriceLevel{}, false
	}
	return ob.Bids[0], true
}

func (ob *OrderBook) BestAsk() (PriceLevel, bool) {
	if len(ob.Asks) == 0 {
		return PriceLevel{}, false
	}
	return ob.Asks[0], true
}

func (ob *OrderBook) Spread() (float64, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask.Price.Float64() - bid.Price.Float64(), true
}

func (ob *OrderBook) MidPrice() (float64, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid.Price.Float64() + ask.Price.Float64()) / 2, true
}

// TopLevels returns up to n best levels per side, best first.
func (ob *OrderBook) TopLevels(n int) (bids []PriceLevel, asks []PriceLevel) {
	bids = ob.Bids
	asks = ob.Asks
	if n >= 0 && len(bids) > n {
		bids = bids[:n]
	}
	if n >= 0 && len(asks) > n {
		asks = asks[:n]
	}
	return bids, asks
}

// IsValid reports whether the book is usable for pricing: both sides
// non-empty and a strictly positive spread. A locked or crossed book
// is deliberately representable but invalid.
func (ob *OrderBook) IsValid() bool {
	spread, ok := ob.Spread()
	return ok && spread > 0
}

// ApplyUpdate merges one diff into the book. The watermark only moves
// forward: a diff whose final id does not extend it is discarded. All
// tokens are parsed before any mutation so a parse error leaves the
// book untouched.
func (ob *OrderBook) ApplyUpdate(update *OrderBookUpdate) error {
	if update.SequenceEnd <= ob.LastUpdateID {
		return nil
	}

	bids, err := ParsePriceLevels(update.Bids)
	if err != nil {
		return fmt.Errorf("update bids: %w", err)
	}
	asks, err := ParsePriceLevels(update.Asks)
	if err != nil {
		return fmt.Errorf("update asks: %w", err)
	}

	ob.Bids = applyChanges(ob.Bids, bids, false)
	ob.Asks = applyChanges(ob.Asks, asks, true)
	ob.LastUpdateID = update.SequenceEnd
	ob.LastUpdateAt = time.Now()
	return nil
}

// TrimToDepth drops the worst-priced levels beyond maxDepth on each side.
// Sides are kept best-first, so trimming is a truncation.
func (ob *OrderBook) TrimToDepth(maxDepth int) {
	if maxDepth <= 0 {
		return
	}
	if len(ob.Bids) > maxDepth {
		ob.Bids = ob.Bids[:maxDepth]
	}
	if len(ob.Asks) > maxDepth {
		ob.Asks = ob.Asks[:maxDepth]
	}
}

// Clone returns an independent deep copy.
func (ob *OrderBook) Clone() *OrderBook {
	cp := &OrderBook{
		Symbol:       ob.Symbol,
		Bids:         make([]PriceLevel, len(ob.Bids)),
		Asks:         make([]PriceLevel, len(ob.Asks)),
		LastUpdateID: ob.LastUpdateID,
		LastUpdateAt: ob.LastUpdateAt,
	}
	copy(cp.Bids, ob.Bids)
	copy(cp.Asks, ob.Asks)
	return cp
}

func applyChanges(side []PriceLevel, changes []PriceLevel, asc bool) []PriceLevel {
	for _, level := range changes {
		if level.Quantity == 0 {
			// tombstone: removing an absent level is a no-op
			side = removeLevel(side, level.Price, asc)
		} else {
			side = upsertLevel(side, level, asc)
		}
	}
	return side
}

// searchSide finds the insertion index for price p on a side sorted
// ascending (asks) or descending (bids).
func searchSide(side []PriceLevel, p Price, asc bool) int {
	return sort.Search(len(side), func(i int) bool {
		if asc {
			return side[i].Price >= p
		}
		return side[i].Price <= p
	})
}

func upsertLevel(side []PriceLevel, level PriceLevel, asc bool) []PriceLevel {
	i := searchSide(side, level.Price, asc)
	if i < len(side) && side[i].Price == level.Price {
		side[i] = level
		return side
	}
	side = append(side, PriceLevel{})
	copy(side[i+1:], side[i:])
	side[i] = level
	return side
}

func removeLevel(side []PriceLevel, p Price, asc bool) []PriceLevel {
	i := searchSide(side, p, asc)
	if i < len(side) && side[i].Price == p {
		side = append(side[:i], side[i+1:]...)
	}
	return side
}
