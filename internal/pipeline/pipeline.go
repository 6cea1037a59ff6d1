// Package pipeline wires together the producers, dispatcher, book
// processor, and output consumers into one running instance for a
// single instrument.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/rs/zerolog"

	"github.com/BullionBear/mdc/internal/binancestream"
	"github.com/BullionBear/mdc/internal/bookprocessor"
	"github.com/BullionBear/mdc/internal/config"
	"github.com/BullionBear/mdc/internal/dispatcher"
	"github.com/BullionBear/mdc/internal/eventlog"
	"github.com/BullionBear/mdc/internal/httpapi"
	"github.com/BullionBear/mdc/internal/marketevent"
	"github.com/BullionBear/mdc/internal/natssink"
	"github.com/BullionBear/mdc/internal/orderbook"
)

const bookStateTopic = "book_state"

// Pipeline owns every channel and goroutine that makes up one running
// depth-ingestion instance for a single instrument.
type Pipeline struct {
	cfg    config.Config
	logger zerolog.Logger
	bus    evbus.Bus

	httpServer *httpapi.Server
	natsSink   *natssink.Sink
}

func New(cfg config.Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger, bus: evbus.New()}
}

// Run spawns every stage and blocks until ctx is cancelled and then until
// every stage has exited, waiting at most 30 seconds for the stages.
func (p *Pipeline) Run(ctx context.Context) error {
	queueCap := p.cfg.EffectiveQueueCapacity()

	depthIn := make(chan marketevent.MarketEvent, queueCap)
	depthValid := make(chan marketevent.MarketEvent, queueCap)
	bookOut := make(chan orderbook.State, queueCap)
	tradeCh := make(chan marketevent.MarketEvent, queueCap)
	priceCh := make(chan marketevent.MarketEvent, queueCap)

	var wg sync.WaitGroup

	// Depth producers: N redundant WebSocket streams and 1 REST poller,
	// all fan in to depthIn.
	wssBase := p.cfg.BinanceWssEndpoint + strings.ToLower(p.cfg.Instrument)

	for i := uint64(0); i < p.cfg.Connections; i++ {
		idx := i
		depthURL := fmt.Sprintf("%s@depth@100ms", wssBase)
		stream := binancestream.NewStream(depthURL, marketevent.ParseDepthUpdate, depthIn, p.cfg.ReconnectTimeout(), p.logger, fmt.Sprintf("depth[%d]", idx))
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.logger.Info().Uint64("connection", idx).Msg("starting depth update stream")
			stream.Run(ctx)
		}()
	}

	tradeURL := fmt.Sprintf("%s@trade", wssBase)
	tradeStream := binancestream.NewStream(tradeURL, marketevent.ParseTradeEvent, tradeCh, p.cfg.ReconnectTimeout(), p.logger, "trade")
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.logger.Info().Msg("starting trade update stream")
		tradeStream.Run(ctx)
	}()

	priceURL := fmt.Sprintf("%s@bookTicker", wssBase)
	priceStream := binancestream.NewStream(priceURL, marketevent.ParsePriceUpdate, priceCh, p.cfg.ReconnectTimeout(), p.logger, "bookTicker")
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.logger.Info().Msg("starting price update stream")
		priceStream.Run(ctx)
	}()

	snapshotPoller := binancestream.NewSnapshotPoller(p.cfg.BinanceRestEndpoint, p.cfg.Instrument, p.cfg.MaxDepth, p.cfg.SnapshotInterval(), depthIn, p.logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.logger.Info().Msg("starting depth snapshot poller")
		snapshotPoller.Run(ctx)
	}()

	// Core: dispatcher reorders/gates, book processor applies and emits.
	disp := dispatcher.New(depthIn, depthValid, p.logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		disp.Run(ctx)
	}()

	proc := bookprocessor.New(depthValid, bookOut, p.logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		proc.Run(ctx)
	}()

	// Fan out book_out to every consumer via the shared bus, plus a
	// direct copy to the stdout logger which also watches trade/price.
	logOut := make(chan orderbook.State, queueCap)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for state := range bookOut {
			p.bus.Publish(bookStateTopic, state)
			select {
			case logOut <- state:
			case <-ctx.Done():
			}
		}
		close(logOut)
	}()

	auxLogger := eventlog.New(tradeCh, priceCh, logOut, p.logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		auxLogger.Run(ctx)
	}()

	if p.cfg.Nats.Enabled() {
		sink, err := natssink.Connect(p.cfg.Nats, p.logger)
		if err != nil {
			p.logger.Error().Err(err).Msg("failed to connect nats sink, continuing without it")
		} else {
			p.natsSink = sink
			p.bus.SubscribeAsync(bookStateTopic, sink.Publish, false)
		}
	}

	if p.cfg.HTTP.Enabled() {
		cache := &httpapi.Cache{}
		p.bus.SubscribeAsync(bookStateTopic, cache.Set, false)
		p.httpServer = httpapi.NewServer(p.cfg.HTTP.Addr, cache)
		go func() {
			if err := p.httpServer.ListenAndServe(); err != nil {
				p.logger.Error().Err(err).Msg("http query api stopped")
			}
		}()
	}

	<-ctx.Done()
	p.logger.Info().Msg("pipeline context cancelled, waiting for stages to drain")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		p.logger.Warn().Msg("timed out waiting for pipeline stages to drain")
	}

	if p.natsSink != nil {
		p.natsSink.Close()
	}

	return nil
}
