// Package dispatcher reorders, deduplicates, and gates depth events from
// N redundant Binance WebSocket streams plus a periodic REST snapshot,
// producing a single gap-free, strictly sequenced output.
package dispatcher

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/BullionBear/mdc/internal/marketevent"
)

// Dispatcher buffers out-of-order depth updates by their last sequence
// number (u) and forwards them once the gap back to the last forwarded
// update has closed.
type Dispatcher struct {
	in     <-chan marketevent.MarketEvent
	out    chan<- marketevent.MarketEvent
	logger zerolog.Logger

	lastProcessed     uint64
	haveLastProcessed bool
	buffer            map[uint64]marketevent.DepthUpdate
}

func New(in <-chan marketevent.MarketEvent, out chan<- marketevent.MarketEvent, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		in:     in,
		out:    out,
		logger: logger,
		buffer: make(map[uint64]marketevent.DepthUpdate),
	}
}

// Run consumes events until ctx is cancelled or in is closed and drained,
// then closes out.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.out)
	d.logger.Info().Msg("starting depth event dispatcher")

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.in:
			if !ok {
				return
			}
			d.handle(ctx, event)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, event marketevent.MarketEvent) {
	switch event.Kind {
	case marketevent.KindDepthSnapshot:
		d.processSnapshot(ctx, *event.Snapshot)
	case marketevent.KindDepthUpdate:
		d.processUpdate(*event.Update)
		d.drain(ctx)
	default:
		d.logger.Error().Str("kind", event.Kind.String()).Msg("dispatcher received non-depth event, discarding")
	}
}

func (d *Dispatcher) processSnapshot(ctx context.Context, snapshot marketevent.DepthSnapshot) {
	if !d.haveLastProcessed {
		d.lastProcessed = snapshot.LastUpdateID
		d.haveLastProcessed = true
		d.forward(ctx, snapshot.IntoMarketEvent())
		d.drain(ctx)
		return
	}

	if snapshot.LastUpdateID <= d.lastProcessed {
		d.logger.Trace().Uint64("snapshotSeq", snapshot.LastUpdateID).Uint64("lastProcessed", d.lastProcessed).Msg("dropping stale snapshot")
		return
	}

	// A fresh snapshot advances the authoritative sequence but does not
	// clear the buffer; stale buffered entries fall out on the next
	// drain pass once they are compared against the new lastProcessed.
	d.lastProcessed = snapshot.LastUpdateID
	d.forward(ctx, snapshot.IntoMarketEvent())
	d.drain(ctx)
}

func (d *Dispatcher) processUpdate(update marketevent.DepthUpdate) {
	// Insert by last sequence number, overwriting any prior entry with
	// the same u: this is the dedup step for duplicate/redundant frames.
	d.buffer[update.LastUpdateID] = update
}

func (d *Dispatcher) drain(ctx context.Context) {
	if !d.haveLastProcessed {
		return
	}

	keys := make([]uint64, 0, len(d.buffer))
	for u := range d.buffer {
		keys = append(keys, u)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	expected := d.lastProcessed + 1
	for _, u := range keys {
		update := d.buffer[u]

		if u <= d.lastProcessed {
			delete(d.buffer, u)
			continue
		}

		// Strict upper bound: an update whose u == expected is NOT
		// accepted here and stays buffered. Preserved verbatim from
		// the reference dispatcher; do not "fix" to <=.
		if !(update.FirstUpdateID <= expected && expected < u) {
			break
		}

		d.forward(ctx, update.IntoMarketEvent())
		delete(d.buffer, u)
		d.lastProcessed = u
		expected = u + 1
	}
}

func (d *Dispatcher) forward(ctx context.Context, event marketevent.MarketEvent) {
	select {
	case d.out <- event:
	case <-ctx.Done():
	}
}
