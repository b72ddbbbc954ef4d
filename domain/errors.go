package domain

import "errors"

var (
	ErrOrderBookNotInitialized       = errors.New("order book not initialized")
	ErrOrderBookUpdateIsOutdated     = errors.New("order book update is outdated")
	ErrOrderBookUpdateIsOutOfSequece = errors.New("order book update is out of sequence")
	ErrMaxReconnectAttemptsExceeded  = errors.New("max reconnect attempts exceeded")
)
