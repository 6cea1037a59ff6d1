package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BullionBear/mdc/internal/marketevent"
)

func testSnapshot() marketevent.DepthSnapshot {
	return marketevent.DepthSnapshot{
		LastUpdateID: 123456,
		Bids: []marketevent.DepthEntry{
			{Price: 100.0, Quantity: 10.0},
			{Price: 99.5, Quantity: 15.0},
		},
		Asks: []marketevent.DepthEntry{
			{Price: 100.5, Quantity: 5.0},
			{Price: 101.0, Quantity: 8.0},
		},
	}
}

func TestNewFromSnapshot(t *testing.T) {
	ob := New(testSnapshot())
	bids := ob.Bids()
	require.Len(t, bids, 2)
	assert.Equal(t, 100.0, bids[0].Price)
	assert.Equal(t, 99.5, bids[1].Price)

	asks := ob.Asks()
	require.Len(t, asks, 2)
	assert.Equal(t, 100.5, asks[0].Price)
	assert.Equal(t, 101.0, asks[1].Price)
}

func TestSnapshotInsertsZeroQuantityVerbatim(t *testing.T) {
	snap := marketevent.DepthSnapshot{
		LastUpdateID: 1,
		Bids:         []marketevent.DepthEntry{{Price: 100.0, Quantity: 0.0}},
		Asks:         []marketevent.DepthEntry{},
	}
	ob := New(snap)
	bids := ob.Bids()
	require.Len(t, bids, 1)
	assert.Equal(t, 0.0, bids[0].Quantity)
}

func TestApplyRemovesOnZero(t *testing.T) {
	ob := New(testSnapshot())
	ob.Apply(Bid, 100.0, 0.0)
	for _, l := range ob.Bids() {
		assert.NotEqual(t, 100.0, l.Price)
	}
}

func TestApplyNewLevel(t *testing.T) {
	ob := New(testSnapshot())
	ob.Apply(Bid, 98.0, 3.0)
	found := false
	for _, l := range ob.Bids() {
		if l.Price == 98.0 && l.Quantity == 3.0 {
			found = true
		}
	}
	assert.True(t, found, "expected new bid level to be present")
}

func TestApplyUpdateOrdering(t *testing.T) {
	ob := New(testSnapshot())
	update := marketevent.DepthUpdate{
		FirstUpdateID: 123457,
		LastUpdateID:  123458,
		Bids: []marketevent.DepthEntry{
			{Price: 100.0, Quantity: 12.0},
			{Price: 99.0, Quantity: 5.0},
		},
		Asks: []marketevent.DepthEntry{
			{Price: 100.5, Quantity: 0.0},
			{Price: 101.5, Quantity: 3.0},
		},
	}
	ob.ApplyUpdate(update)

	bids := ob.Bids()
	require.Len(t, bids, 3)
	asks := ob.Asks()
	require.Len(t, asks, 2, "expected 100.5 to be removed")
	for _, l := range asks {
		assert.NotEqual(t, 100.5, l.Price)
	}
}

func TestBidOrderingDescending(t *testing.T) {
	ob := New(marketevent.DepthSnapshot{})
	ob.Apply(Bid, 100.0, 10.0)
	ob.Apply(Bid, 102.0, 5.0)
	ob.Apply(Bid, 99.0, 15.0)
	ob.Apply(Bid, 101.0, 8.0)

	bids := ob.Bids()
	want := []float64{102.0, 101.0, 100.0, 99.0}
	require.Len(t, bids, len(want))
	for i, p := range want {
		assert.Equal(t, p, bids[i].Price)
	}
}

func TestAskOrderingAscending(t *testing.T) {
	ob := New(marketevent.DepthSnapshot{})
	ob.Apply(Ask, 100.0, 10.0)
	ob.Apply(Ask, 102.0, 5.0)
	ob.Apply(Ask, 99.0, 15.0)
	ob.Apply(Ask, 101.0, 8.0)

	asks := ob.Asks()
	want := []float64{99.0, 100.0, 101.0, 102.0}
	require.Len(t, asks, len(want))
	for i, p := range want {
		assert.Equal(t, p, asks[i].Price)
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	ob := New(testSnapshot())
	state := ob.Snapshot()
	ob.Apply(Bid, 100.0, 999.0)

	for _, l := range state.Bids {
		if l.Price == 100.0 {
			assert.Equal(t, 10.0, l.Quantity, "snapshot mutated after live book change")
		}
	}
}
