// Package bookprocessor applies validated depth snapshots and updates to
// a live order book and emits the resulting state after every event.
package bookprocessor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/BullionBear/mdc/internal/marketevent"
	"github.com/BullionBear/mdc/internal/orderbook"
)

// BookProcessor is the sole writer of an OrderBook; it owns the book
// exclusively and is the only component that emits observable states.
type BookProcessor struct {
	book   *orderbook.OrderBook
	in     <-chan marketevent.MarketEvent
	out    chan<- orderbook.State
	logger zerolog.Logger
}

func New(in <-chan marketevent.MarketEvent, out chan<- orderbook.State, logger zerolog.Logger) *BookProcessor {
	return &BookProcessor{in: in, out: out, logger: logger}
}

// Run processes events until in is closed, then closes out. Receiving a
// DepthUpdate before any DepthSnapshot is a Dispatcher contract
// violation and is fatal: the pipeline's ordering guarantee has already
// been broken upstream, and there is no well-defined book state to
// continue from.
func (p *BookProcessor) Run(ctx context.Context) {
	defer close(p.out)
	p.logger.Info().Msg("starting book processor")

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.in:
			if !ok {
				return
			}
			p.handle(ctx, event)
		}
	}
}

func (p *BookProcessor) handle(ctx context.Context, event marketevent.MarketEvent) {
	switch event.Kind {
	case marketevent.KindDepthSnapshot:
		p.book = orderbook.New(*event.Snapshot)
		p.emit(ctx)
	case marketevent.KindDepthUpdate:
		if p.book == nil {
			p.logger.Fatal().Msg("cannot process depth update: order book is not initialized")
			return
		}
		p.book.ApplyUpdate(*event.Update)
		p.emit(ctx)
	default:
		p.logger.Error().Str("kind", event.Kind.String()).Msg("book processor received unexpected event type, discarding")
	}
}

func (p *BookProcessor) emit(ctx context.Context) {
	state := p.book.Snapshot()
	select {
	case p.out <- state:
	case <-ctx.Done():
	}
}
