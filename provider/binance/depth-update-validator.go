package binance

import "github.com/spooky-finn/go-orderflow/domain"

// DepthUpdateValidator checks a diff's id range against the local
// watermark, per the exchange's sync protocol:
// the first processed event should have U <= lastUpdateId+1 AND
// u >= lastUpdateId+1.
type DepthUpdateValidator struct{}

func (v *DepthUpdateValidator) IsValidUpd(update *domain.OrderBookUpdate, orderBookLastUpdId int64) error {
	// Drop any event where u is <= lastUpdateId in the snapshot
	if update.SequenceEnd <= orderBookLastUpdId {
		return domain.ErrOrderBookUpdateIsOutdated
	}

	if update.SequenceStart <= orderBookLastUpdId+1 && update.SequenceEnd >= orderBookLastUpdId+1 {
		return nil
	}

	if update.SequenceStart > orderBookLastUpdId+1 {
		return domain.ErrOrderBookUpdateIsOutOfSequece
	}

	return nil
}

func (v *DepthUpdateValidator) IsErrOutOfSequece(err error) bool {
	return err == domain.ErrOrderBookUpdateIsOutOfSequece
}

func (v *DepthUpdateValidator) IsErrOutdated(err error) bool {
	return err == domain.ErrOrderBookUpdateIsOutdated
}
