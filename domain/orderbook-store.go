package domain

import "sync"

// OrderBookStore is the single owner of the live order book. The stream
// synchronizer is its only writer; any number of concurrent readers get
// independent copies and can be arbitrarily slow without holding up the
// writer beyond the copy itself.
type OrderBookStore struct {
	mu       sync.RWMutex
	book     *OrderBook
	maxDepth int
}

const defaultMaxDepth = 100

func NewOrderBookStore(maxDepth int) *OrderBookStore {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &OrderBookStore{maxDepth: maxDepth}
}

// InitializeFromSnapshot builds a fresh book and atomically replaces any
// prior state. The previous book, if any, stays current until the new one
// fully parses.
func (s *OrderBookStore) InitializeFromSnapshot(symbol string, snapshot *OrderBookSnapshot) error {
	book, err := NewOrderBookFromSnapshot(symbol, snapshot)
	if err != nil {
		return err
	}
	book.TrimToDepth(s.maxDepth)

	s.mu.Lock()
	s.book = book
	s.mu.Unlock()
	return nil
}

// ApplyUpdate merges one diff under exclusive access, then re-trims.
// Readers never observe a partially applied diff.
func (s *OrderBookStore) ApplyUpdate(update *OrderBookUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.book == nil {
		return ErrOrderBookNotInitialized
	}
	if err := s.book.ApplyUpdate(update); err != nil {
		return err
	}
	s.book.TrimToDepth(s.maxDepth)
	return nil
}

// Read returns a deep copy of the current book, or nil before
// initialization.
func (s *OrderBookStore) Read() *OrderBook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.book == nil {
		return nil
	}
	return s.book.Clone()
}

func (s *OrderBookStore) MidPrice() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.book == nil {
		return 0, false
	}
	return s.book.MidPrice()
}

func (s *OrderBookStore) Spread() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.book == nil {
		return 0, false
	}
	return s.book.Spread()
}

func (s *OrderBookStore) LastUpdateID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.book == nil {
		return 0, false
	}
	return s.book.LastUpdateID, true
}

// IsReady reports whether a book is present and valid for pricing.
func (s *OrderBookStore) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.book != nil && s.book.IsValid()
}
