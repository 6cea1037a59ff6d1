// Package marketevent defines the closed set of Binance market-data
// payloads the pipeline understands, and the JSON wire decoding for each.
// Binance encodes prices and quantities as JSON strings, and depth levels
// as two-element arrays rather than objects, so none of these types can
// use the default encoding/json struct tags without help.
package marketevent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags which variant a MarketEvent carries.
type Kind int

const (
	KindDepthSnapshot Kind = iota
	KindDepthUpdate
	KindTradeEvent
	KindPriceUpdate
)

func (k Kind) String() string {
	switch k {
	case KindDepthSnapshot:
		return "DepthSnapshot"
	case KindDepthUpdate:
		return "DepthUpdate"
	case KindTradeEvent:
		return "TradeEvent"
	case KindPriceUpdate:
		return "PriceUpdate"
	default:
		return "Unknown"
	}
}

// MarketEvent is the closed tagged union flowing through every producer
// channel in the pipeline. Exactly one of the payload fields is set,
// matching Kind.
type MarketEvent struct {
	Kind     Kind
	Snapshot *DepthSnapshot
	Update   *DepthUpdate
	Trade    *TradeEvent
	Price    *PriceUpdate
}

func (e MarketEvent) String() string {
	switch e.Kind {
	case KindDepthSnapshot:
		return fmt.Sprintf("DepthSnapshot{lastUpdateID=%d, bids=%d, asks=%d}", e.Snapshot.LastUpdateID, len(e.Snapshot.Bids), len(e.Snapshot.Asks))
	case KindDepthUpdate:
		return fmt.Sprintf("DepthUpdate{U=%d, u=%d, bids=%d, asks=%d}", e.Update.FirstUpdateID, e.Update.LastUpdateID, len(e.Update.Bids), len(e.Update.Asks))
	case KindTradeEvent:
		return fmt.Sprintf("TradeEvent{id=%d, price=%v, qty=%v}", e.Trade.TradeID, e.Trade.Price, e.Trade.Quantity)
	case KindPriceUpdate:
		return fmt.Sprintf("PriceUpdate{bid=%v, ask=%v}", e.Price.BestBidPrice, e.Price.BestAskPrice)
	default:
		return "MarketEvent{unknown}"
	}
}

// DepthEntry is a single [price, quantity] level as Binance encodes it: a
// two-element JSON array of decimal strings, not an object.
type DepthEntry struct {
	Price    float64
	Quantity float64
}

func (d *DepthEntry) UnmarshalJSON(data []byte) error {
	var raw [2]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("depth entry: expected [price, qty] string pair: %w", err)
	}
	price, err := parseFiniteFloat(raw[0])
	if err != nil {
		return fmt.Errorf("depth entry price: %w", err)
	}
	qty, err := parseFiniteFloat(raw[1])
	if err != nil {
		return fmt.Errorf("depth entry quantity: %w", err)
	}
	d.Price = price
	d.Quantity = qty
	return nil
}

func parseFiniteFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}

// DepthSnapshot is the REST depth-endpoint response body.
type DepthSnapshot struct {
	LastUpdateID uint64       `json:"lastUpdateId"`
	Bids         []DepthEntry `json:"bids"`
	Asks         []DepthEntry `json:"asks"`
}

func ParseDepthSnapshot(body []byte) (DepthSnapshot, error) {
	var s DepthSnapshot
	if err := json.Unmarshal(body, &s); err != nil {
		return DepthSnapshot{}, err
	}
	return s, nil
}

func (s DepthSnapshot) IntoMarketEvent() MarketEvent {
	snap := s
	return MarketEvent{Kind: KindDepthSnapshot, Snapshot: &snap}
}

// DepthUpdate is a single `<symbol>@depth` raw-stream frame.
type DepthUpdate struct {
	EventType     string       `json:"e"`
	EventTime     int64        `json:"E"`
	Symbol        string       `json:"s"`
	FirstUpdateID uint64       `json:"U"`
	LastUpdateID  uint64       `json:"u"`
	Bids          []DepthEntry `json:"b"`
	Asks          []DepthEntry `json:"a"`
}

func ParseDepthUpdate(body []byte) (DepthUpdate, error) {
	var u DepthUpdate
	if err := json.Unmarshal(body, &u); err != nil {
		return DepthUpdate{}, err
	}
	return u, nil
}

func (u DepthUpdate) IntoMarketEvent() MarketEvent {
	upd := u
	return MarketEvent{Kind: KindDepthUpdate, Update: &upd}
}

// TradeEvent is a single `<symbol>@trade` raw-stream frame.
type TradeEvent struct {
	EventType    string  `json:"event_type"`
	EventTime    int64   `json:"event_time"`
	Symbol       string  `json:"symbol"`
	TradeID      int64   `json:"trade_id"`
	Price        float64 `json:"price"`
	Quantity     float64 `json:"quantity"`
	TradeTime    int64   `json:"trade_time"`
	IsBuyerMaker bool    `json:"is_buyer_maker"`
	Ignore       bool    `json:"ignore"`
}

// tradeEventWire mirrors TradeEvent but with Binance's string-encoded
// price/quantity fields, so UnmarshalJSON can do the string->float64 hop
// without recursing into itself.
type tradeEventWire struct {
	EventType    string `json:"e"`
	EventTime    int64  `json:"E"`
	Symbol       string `json:"s"`
	TradeID      int64  `json:"t"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
	Ignore       bool   `json:"M"`
}

func (t *TradeEvent) UnmarshalJSON(data []byte) error {
	var w tradeEventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	price, err := parseFiniteFloat(w.Price)
	if err != nil {
		return fmt.Errorf("trade price: %w", err)
	}
	qty, err := parseFiniteFloat(w.Quantity)
	if err != nil {
		return fmt.Errorf("trade quantity: %w", err)
	}
	*t = TradeEvent{
		EventType:    w.EventType,
		EventTime:    w.EventTime,
		Symbol:       w.Symbol,
		TradeID:      w.TradeID,
		Price:        price,
		Quantity:     qty,
		TradeTime:    w.TradeTime,
		IsBuyerMaker: w.IsBuyerMaker,
		Ignore:       w.Ignore,
	}
	return nil
}

func ParseTradeEvent(body []byte) (TradeEvent, error) {
	var t TradeEvent
	if err := json.Unmarshal(body, &t); err != nil {
		return TradeEvent{}, err
	}
	return t, nil
}

func (t TradeEvent) IntoMarketEvent() MarketEvent {
	trade := t
	return MarketEvent{Kind: KindTradeEvent, Trade: &trade}
}

// PriceUpdate is a single `<symbol>@bookTicker` frame: the current best
// bid/ask, pushed on every change.
type PriceUpdate struct {
	UpdateID        uint64  `json:"update_id"`
	Symbol          string  `json:"symbol"`
	BestBidPrice    float64 `json:"best_bid_price"`
	BestBidQuantity float64 `json:"best_bid_quantity"`
	BestAskPrice    float64 `json:"best_ask_price"`
	BestAskQuantity float64 `json:"best_ask_quantity"`
}

type priceUpdateWire struct {
	UpdateID        uint64 `json:"u"`
	Symbol          string `json:"s"`
	BestBidPrice    string `json:"b"`
	BestBidQuantity string `json:"B"`
	BestAskPrice    string `json:"a"`
	BestAskQuantity string `json:"A"`
}

func (p *PriceUpdate) UnmarshalJSON(data []byte) error {
	var w priceUpdateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	bidPrice, err := parseFiniteFloat(w.BestBidPrice)
	if err != nil {
		return fmt.Errorf("best bid price: %w", err)
	}
	bidQty, err := parseFiniteFloat(w.BestBidQuantity)
	if err != nil {
		return fmt.Errorf("best bid quantity: %w", err)
	}
	askPrice, err := parseFiniteFloat(w.BestAskPrice)
	if err != nil {
		return fmt.Errorf("best ask price: %w", err)
	}
	askQty, err := parseFiniteFloat(w.BestAskQuantity)
	if err != nil {
		return fmt.Errorf("best ask quantity: %w", err)
	}
	*p = PriceUpdate{
		UpdateID:        w.UpdateID,
		Symbol:          w.Symbol,
		BestBidPrice:    bidPrice,
		BestBidQuantity: bidQty,
		BestAskPrice:    askPrice,
		BestAskQuantity: askQty,
	}
	return nil
}

func ParsePriceUpdate(body []byte) (PriceUpdate, error) {
	var p PriceUpdate
	if err := json.Unmarshal(body, &p); err != nil {
		return PriceUpdate{}, err
	}
	return p, nil
}

func (p PriceUpdate) IntoMarketEvent() MarketEvent {
	price := p
	return MarketEvent{Kind: KindPriceUpdate, Price: &price}
}

// Lifter is the capability a stream payload type must implement so that a
// single generic WebSocket producer (internal/binancestream) can serve
// depth, trade, and ticker streams alike: once parsed, lift the typed
// payload into the closed union.
type Lifter interface {
	IntoMarketEvent() MarketEvent
}
