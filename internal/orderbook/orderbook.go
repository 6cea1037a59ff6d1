// Package orderbook maintains an in-memory replica of a Binance limit
// order book: two side-indexed price levels, bids ordered descending,
// asks ordered ascending, never compared against each other.
package orderbook

import (
	"github.com/emirpasic/gods/maps/treemap"

	"github.com/BullionBear/mdc/internal/marketevent"
)

// ascComparator orders ask price levels from lowest to highest.
func ascComparator(a, b interface{}) int {
	x, y := a.(float64), b.(float64)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// descComparator orders bid price levels from highest to lowest.
func descComparator(a, b interface{}) int {
	return -ascComparator(a, b)
}

// PriceLevel is a single resting quantity at a price, independent of side.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook holds two side-typed, side-ordered treemaps. The two maps are
// never compared against each other; there is no cross-side key type.
type OrderBook struct {
	bids *treemap.Map // float64 -> float64, descending
	asks *treemap.Map // float64 -> float64, ascending
}

// New builds an OrderBook from a depth snapshot. Zero-quantity entries in
// the snapshot are inserted as-is: the snapshot is trusted as literal
// book state, not treated as a stream of deltas.
func New(snapshot marketevent.DepthSnapshot) *OrderBook {
	ob := &OrderBook{
		bids: treemap.NewWith(descComparator),
		asks: treemap.NewWith(ascComparator),
	}
	for _, entry := range snapshot.Bids {
		ob.bids.Put(entry.Price, entry.Quantity)
	}
	for _, entry := range snapshot.Asks {
		ob.asks.Put(entry.Price, entry.Quantity)
	}
	return ob
}

// Side selects which of the book's two containers an operation targets.
type Side int

const (
	Bid Side = iota
	Ask
)

func (ob *OrderBook) sideMap(side Side) *treemap.Map {
	if side == Bid {
		return ob.bids
	}
	return ob.asks
}

// Apply sets the quantity at price on the given side, or removes the
// level entirely when quantity is exactly 0.
func (ob *OrderBook) Apply(side Side, price, quantity float64) {
	m := ob.sideMap(side)
	if quantity == 0 {
		m.Remove(price)
		return
	}
	m.Put(price, quantity)
}

// ApplyUpdate applies every bid delta, then every ask delta, from a depth
// update. Bids before asks matches the upstream feed's own field order;
// the two sides are separate containers, so the order does not change
// the resulting book.
func (ob *OrderBook) ApplyUpdate(update marketevent.DepthUpdate) {
	for _, bid := range update.Bids {
		ob.Apply(Bid, bid.Price, bid.Quantity)
	}
	for _, ask := range update.Asks {
		ob.Apply(Ask, ask.Price, ask.Quantity)
	}
}

// Bids returns the current bid levels, best (highest) price first.
func (ob *OrderBook) Bids() []PriceLevel {
	return levels(ob.bids)
}

// Asks returns the current ask levels, best (lowest) price first.
func (ob *OrderBook) Asks() []PriceLevel {
	return levels(ob.asks)
}

func levels(m *treemap.Map) []PriceLevel {
	out := make([]PriceLevel, 0, m.Size())
	it := m.Iterator()
	for it.Next() {
		out = append(out, PriceLevel{
			Price:    it.Key().(float64),
			Quantity: it.Value().(float64),
		})
	}
	return out
}

// Snapshot returns an independent, point-in-time copy of the book: a
// caller holding this value is unaffected by subsequent mutation of the
// live book.
func (ob *OrderBook) Snapshot() State {
	return State{Bids: ob.Bids(), Asks: ob.Asks()}
}

// State is a frozen, owned view of an OrderBook at one instant; this is
// the value type emitted on the pipeline's book_out channel.
type State struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}
