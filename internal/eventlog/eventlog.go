// Package eventlog formats trade, best-bid/ask, and order-book events to
// stdout. It is a pure observer: it never feeds back into the pipeline.
package eventlog

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BullionBear/mdc/internal/marketevent"
	"github.com/BullionBear/mdc/internal/orderbook"
)

// Logger consumes the trade channel, the price (bookTicker) channel, and
// the book_out channel, and logs each. It terminates once all three
// input channels are closed.
type Logger struct {
	trades <-chan marketevent.MarketEvent
	prices <-chan marketevent.MarketEvent
	books  <-chan orderbook.State
	logger zerolog.Logger
}

func New(trades, prices <-chan marketevent.MarketEvent, books <-chan orderbook.State, logger zerolog.Logger) *Logger {
	return &Logger{trades: trades, prices: prices, books: books, logger: logger}
}

// Run selects across all three channels until every one of them is
// closed, logging a formatted line for each event as it arrives.
func (l *Logger) Run(ctx context.Context) {
	trades, prices, books := l.trades, l.prices, l.books
	for trades != nil || prices != nil || books != nil {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-trades:
			if !ok {
				trades = nil
				continue
			}
			l.logTrade(*ev.Trade)

		case ev, ok := <-prices:
			if !ok {
				prices = nil
				continue
			}
			l.logPrice(*ev.Price)

		case state, ok := <-books:
			if !ok {
				books = nil
				continue
			}
			l.logBook(state)
		}
	}
}

func fmtPrice(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func (l *Logger) logTrade(t marketevent.TradeEvent) {
	l.logger.Info().
		Str("symbol", t.Symbol).
		Int64("tradeId", t.TradeID).
		Str("price", fmtPrice(t.Price)).
		Str("quantity", fmtPrice(t.Quantity)).
		Msg("TRADE")
}

func (l *Logger) logPrice(p marketevent.PriceUpdate) {
	l.logger.Info().
		Str("symbol", p.Symbol).
		Str("bestBid", fmtPrice(p.BestBidPrice)).
		Str("bestAsk", fmtPrice(p.BestAskPrice)).
		Msg("PRICE")
}

func (l *Logger) logBook(state orderbook.State) {
	var b strings.Builder
	b.WriteString("BOOK:\nBIDS:\n")
	for _, lvl := range state.Bids {
		b.WriteString("  price=")
		b.WriteString(fmtPrice(lvl.Price))
		b.WriteString(" qty=")
		b.WriteString(fmtPrice(lvl.Quantity))
		b.WriteString("\n")
	}
	b.WriteString("ASKS:\n")
	for _, lvl := range state.Asks {
		b.WriteString("  price=")
		b.WriteString(fmtPrice(lvl.Price))
		b.WriteString(" qty=")
		b.WriteString(fmtPrice(lvl.Quantity))
		b.WriteString("\n")
	}
	l.logger.Info().Msg(b.String())
}
