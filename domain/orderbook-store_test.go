package domain

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderBookStore_ApplyBeforeInit(t *testing.T) {
	store := NewOrderBookStore(100)

	err := store.ApplyUpdate(NewOrderBookUpdate("BTCUSDT",
		[][]string{{"100", "1"}}, nil, 1, 1))
	assert.ErrorIs(t, err, ErrOrderBookNotInitialized)

	assert.Nil(t, store.Read())
	assert.False(t, store.IsReady())
}

func TestOrderBookStore_InitializeFromSnapshot(t *testing.T) {
	store := NewOrderBookStore(100)

	err := store.InitializeFromSnapshot("BTCUSDT", snapshotFixture())
	assert.NoError(t, err)
	assert.True(t, store.IsReady())

	mid, ok := store.MidPrice()
	assert.True(t, ok)
	assert.Equal(t, 10050.0, mid)

	spread, ok := store.Spread()
	assert.True(t, ok)
	assert.Equal(t, 100.0, spread)

	lastID, ok := store.LastUpdateID()
	assert.True(t, ok)
	assert.Equal(t, int64(123), lastID)
}

func TestOrderBookStore_InitializeReplacesPriorState(t *testing.T) {
	store := NewOrderBookStore(100)
	assert.NoError(t, store.InitializeFromSnapshot("BTCUSDT", snapshotFixture()))

	fresh := &OrderBookSnapshot{
		LastUpdateId: 500,
		Bids:         [][]string{{"20000", "1"}},
		Asks:         [][]string{{"20001", "1"}},
	}
	assert.NoError(t, store.InitializeFromSnapshot("BTCUSDT", fresh))

	book := store.Read()
	assert.Len(t, book.Bids, 1)
	assert.Equal(t, int64(500), book.LastUpdateID)
}

func TestOrderBookStore_InitializeParseErrorKeepsOldBook(t *testing.T) {
	store := NewOrderBookStore(100)
	assert.NoError(t, store.InitializeFromSnapshot("BTCUSDT", snapshotFixture()))

	bad := &OrderBookSnapshot{
		LastUpdateId: 999,
		Bids:         [][]string{{"oops", "1"}},
	}
	assert.Error(t, store.InitializeFromSnapshot("BTCUSDT", bad))

	lastID, ok := store.LastUpdateID()
	assert.True(t, ok)
	assert.Equal(t, int64(123), lastID, "failed re-init must not replace the book")
}

func TestOrderBookStore_DepthBoundHeldAfterUpdates(t *testing.T) {
	store := NewOrderBookStore(3)
	assert.NoError(t, store.InitializeFromSnapshot("BTCUSDT", &OrderBookSnapshot{
		LastUpdateId: 1,
		Bids:         [][]string{{"100", "1"}},
		Asks:         [][]string{{"101", "1"}},
	}))

	for i := 0; i < 10; i++ {
		price := 99.0 - float64(i)
		err := store.ApplyUpdate(NewOrderBookUpdate("BTCUSDT",
			[][]string{{strconv.FormatFloat(price, 'f', -1, 64), "1"}},
			[][]string{{strconv.FormatFloat(200-price, 'f', -1, 64), "1"}},
			int64(i+2), int64(i+2)))
		assert.NoError(t, err)
	}

	book := store.Read()
	assert.LessOrEqual(t, len(book.Bids), 3)
	assert.LessOrEqual(t, len(book.Asks), 3)
	assert.Equal(t, 100.0, book.Bids[0].Price.Float64(), "best bid retained")
	assert.Equal(t, 101.0, book.Asks[0].Price.Float64(), "best ask retained")
}

func TestOrderBookStore_ReadReturnsIndependentCopy(t *testing.T) {
	store := NewOrderBookStore(100)
	assert.NoError(t, store.InitializeFromSnapshot("BTCUSDT", snapshotFixture()))

	copy1 := store.Read()
	copy1.Bids[0].Quantity = 999

	copy2 := store.Read()
	assert.Equal(t, 1.0, copy2.Bids[0].Quantity, "mutating a read copy must not leak into the store")
}

func TestOrderBookStore_ConcurrentReadersSingleWriter(t *testing.T) {
	store := NewOrderBookStore(100)
	assert.NoError(t, store.InitializeFromSnapshot("BTCUSDT", snapshotFixture()))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			err := store.ApplyUpdate(NewOrderBookUpdate("BTCUSDT",
				[][]string{{"9999", strconv.Itoa(i + 1)}}, nil,
				int64(i+124), int64(i+124)))
			assert.NoError(t, err)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				book := store.Read()
				if book == nil {
					continue
				}
				// a reader must never observe a torn book
				_, hasBid := book.BestBid()
				assert.True(t, hasBid)
				assert.True(t, book.LastUpdateID >= 123)
			}
		}()
	}

	wg.Wait()
}
