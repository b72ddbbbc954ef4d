package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spooky-finn/go-orderflow/config"
	"github.com/spooky-finn/go-orderflow/domain"
	promclient "github.com/spooky-finn/go-orderflow/infrastructure/prometheus"
)

// State names one phase of the synchronizer's connection lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateSnapshotting State = "snapshotting"
	StateConnecting   State = "connecting"
	StateStreaming    State = "streaming"
	StateClosed       State = "closed"
	StateFailed       State = "failed"
)

const (
	depthUpdateEvent     = "depthUpdate"
	outOfSeqUpdatesLimit = 10
)

// DepthUpdateData is one frame of the diff stream. Frames of any other
// shape are ignored without error.
type DepthUpdateData struct {
	Event         string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdateId int64      `json:"U"`
	FinalUpdateId int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

// SnapshotProvider is the REST collaborator the synchronizer re-seeds the
// book from at the start of every attempt.
type SnapshotProvider interface {
	OrderBookSnapshot(ctx context.Context, symbol string, limit int) (*domain.OrderBookSnapshot, error)
}

// StreamConn is one live diff-stream connection.
type StreamConn interface {
	ReadMessage() ([]byte, error)
	Ping() error
	Close() error
}

// DepthApplyHandler is invoked after every diff successfully applied to
// the store.
type DepthApplyHandler interface {
	HandleDepthApplied()
}

// Synchronizer drives the snapshot-then-diff protocol: fetch a snapshot,
// seed the store, then stream diffs into it, reconnecting with a fresh
// snapshot on any transport failure until the attempt budget runs out.
type Synchronizer struct {
	conf    *config.Config
	syncAPI SnapshotProvider
	store   *domain.OrderBookStore
	handler DepthApplyHandler

	validator     DepthUpdateValidator
	outOfSeqCount int

	// state may be read while Run is in flight
	stateMu sync.Mutex
	state   State

	// dial is swappable for tests
	dial func(ctx context.Context, url string) (StreamConn, error)
}

func NewSynchronizer(conf *config.Config, syncAPI SnapshotProvider, store *domain.OrderBookStore, handler DepthApplyHandler) *Synchronizer {
	return &Synchronizer{
		conf:    conf,
		syncAPI: syncAPI,
		store:   store,
		handler: handler,
		state:   StateIdle,
		dial: func(ctx context.Context, url string) (StreamConn, error) {
			return DialStream(ctx, url)
		},
	}
}

func (s *Synchronizer) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Synchronizer) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// Run loops stream attempts until the context is cancelled or the attempt
// budget is exhausted. Every streaming exit, orderly or not, costs one
// attempt; only exhaustion is terminal.
func (s *Synchronizer) Run(ctx context.Context) error {
	maxAttempts := s.conf.ReconnectAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.runAttempt(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Errorf("stream attempt failed (%d/%d): %s", attempt, maxAttempts, err)
		promclient.StreamReconnectsTotal.Inc()

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.conf.ReconnectDelay):
		}
	}

	s.setState(StateFailed)
	return domain.ErrMaxReconnectAttemptsExceeded
}

// runAttempt performs one full Snapshotting -> Connecting -> Streaming
// pass. It only returns once the stream is unusable.
func (s *Synchronizer) runAttempt(ctx context.Context) error {
	s.setState(StateSnapshotting)
	snapshot, err := s.syncAPI.OrderBookSnapshot(ctx, s.conf.Symbol, s.conf.MaxDepth)
	if err != nil {
		return fmt.Errorf("snapshot fetch: %w", err)
	}
	if err := s.store.InitializeFromSnapshot(s.conf.Symbol, snapshot); err != nil {
		return fmt.Errorf("snapshot init: %w", err)
	}
	s.outOfSeqCount = 0

	book := s.store.Read()
	logger.Infof("order book initialized from snapshot: %d bids, %d asks, lastUpdateId=%d",
		len(book.Bids), len(book.Asks), book.LastUpdateID)

	s.setState(StateConnecting)
	streamURL := s.StreamURL()
	logger.Infof("connecting to diff stream %s", streamURL)

	conn, err := s.dial(ctx, streamURL)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	defer conn.Close()

	s.setState(StateStreaming)
	err = s.streamLoop(ctx, conn)
	s.setState(StateClosed)
	return err
}

// streamLoop races inbound frames against the liveness ping timer. Any
// read or ping-send failure ends the attempt as retryable.
func (s *Synchronizer) streamLoop(ctx context.Context, conn StreamConn) error {
	frames := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- msg:
			case <-done:
				return
			}
		}
	}()

	pingTicker := time.NewTicker(s.conf.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return fmt.Errorf("stream read: %w", err)

		case msg := <-frames:
			if err := s.handleFrame(msg); err != nil {
				return err
			}

		case <-pingTicker.C:
			if err := conn.Ping(); err != nil {
				return fmt.Errorf("ping send: %w", err)
			}
		}
	}
}

// handleFrame classifies and dispatches one frame. Local, recoverable
// conditions (foreign message shapes, wrong symbol, one bad frame) are
// logged and skipped; only a stale book ends the attempt.
func (s *Synchronizer) handleFrame(msg []byte) error {
	var data DepthUpdateData
	if err := json.Unmarshal(msg, &data); err != nil {
		logger.Warnf("failed to unmarshal frame: %s", err)
		return nil
	}
	if data.Event != depthUpdateEvent {
		return nil
	}
	if !strings.EqualFold(data.Symbol, s.conf.Symbol) {
		logger.Warnf("received update for wrong symbol: %s", data.Symbol)
		return nil
	}

	update := domain.NewOrderBookUpdate(
		data.Symbol, data.Bids, data.Asks,
		data.FirstUpdateId, data.FinalUpdateId,
	)

	lastUpdateID, ok := s.store.LastUpdateID()
	if !ok {
		return domain.ErrOrderBookNotInitialized
	}

	if err := s.validator.IsValidUpd(update, lastUpdateID); err != nil {
		if s.validator.IsErrOutdated(err) {
			return nil
		}
		s.outOfSeqCount++
		logger.Warnf("dropped out-of-sequence update: U=%d u=%d lastUpdateId=%d",
			update.SequenceStart, update.SequenceEnd, lastUpdateID)
		if s.outOfSeqCount > outOfSeqUpdatesLimit {
			return fmt.Errorf("out of sequence updates limit reached, local book is stale: %w", err)
		}
		return nil
	}

	if err := s.store.ApplyUpdate(update); err != nil {
		logger.Warnf("failed to apply update u=%d: %s", update.SequenceEnd, err)
		return nil
	}
	promclient.DepthUpdatesTotal.Inc()

	if s.handler != nil {
		s.handler.HandleDepthApplied()
	}
	return nil
}

// StreamURL computes the diff stream address for the configured symbol.
func (s *Synchronizer) StreamURL() string {
	return fmt.Sprintf("%s/ws/%s@depth@100ms", s.conf.WsEndpoint, strings.ToLower(s.conf.Symbol))
}
