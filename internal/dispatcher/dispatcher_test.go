package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BullionBear/mdc/internal/marketevent"
)

func snap(lastUpdateID uint64) marketevent.MarketEvent {
	return marketevent.DepthSnapshot{LastUpdateID: lastUpdateID}.IntoMarketEvent()
}

func upd(u, last uint64) marketevent.MarketEvent {
	return marketevent.DepthUpdate{FirstUpdateID: u, LastUpdateID: last}.IntoMarketEvent()
}

// runDispatcher feeds events in order, closes the input, waits for the
// dispatcher to exit, then collects everything forwarded.
func runDispatcher(t *testing.T, events []marketevent.MarketEvent) []marketevent.MarketEvent {
	t.Helper()
	in := make(chan marketevent.MarketEvent, 100)
	out := make(chan marketevent.MarketEvent, 100)
	d := New(in, out, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	for _, e := range events {
		in <- e
	}
	close(in)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not terminate after input closed")
	}

	var got []marketevent.MarketEvent
	for e := range out {
		got = append(got, e)
	}
	return got
}

func assertSeq(t *testing.T, got []marketevent.MarketEvent, wantKinds []marketevent.Kind) {
	t.Helper()
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(wantKinds), got)
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("event[%d].Kind = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestInOrder(t *testing.T) {
	got := runDispatcher(t, []marketevent.MarketEvent{
		snap(100), upd(101, 105), upd(106, 110),
	})
	assertSeq(t, got, []marketevent.Kind{marketevent.KindDepthSnapshot, marketevent.KindDepthUpdate, marketevent.KindDepthUpdate})
	if got[1].Update.LastUpdateID != 105 || got[2].Update.LastUpdateID != 110 {
		t.Errorf("unexpected forward order: %+v", got)
	}
}

func TestReordered(t *testing.T) {
	got := runDispatcher(t, []marketevent.MarketEvent{
		snap(100), upd(106, 110), upd(101, 105),
	})
	assertSeq(t, got, []marketevent.Kind{marketevent.KindDepthSnapshot, marketevent.KindDepthUpdate, marketevent.KindDepthUpdate})
	if got[1].Update.LastUpdateID != 105 || got[2].Update.LastUpdateID != 110 {
		t.Errorf("expected reordering to resolve to ascending u, got %+v", got)
	}
}

func TestDuplicate(t *testing.T) {
	got := runDispatcher(t, []marketevent.MarketEvent{
		snap(100), upd(101, 105), upd(101, 105),
	})
	assertSeq(t, got, []marketevent.Kind{marketevent.KindDepthSnapshot, marketevent.KindDepthUpdate})
}

func TestStaleUpdate(t *testing.T) {
	got := runDispatcher(t, []marketevent.MarketEvent{
		snap(100), upd(95, 99), upd(101, 105),
	})
	assertSeq(t, got, []marketevent.Kind{marketevent.KindDepthSnapshot, marketevent.KindDepthUpdate})
	if got[1].Update.LastUpdateID != 105 {
		t.Errorf("expected only the valid update forwarded, got %+v", got)
	}
}

func TestUpdatesBeforeSnapshot(t *testing.T) {
	got := runDispatcher(t, []marketevent.MarketEvent{
		upd(95, 99), upd(101, 105), snap(100),
	})
	assertSeq(t, got, []marketevent.Kind{marketevent.KindDepthSnapshot, marketevent.KindDepthUpdate})
	if got[1].Update.LastUpdateID != 105 {
		t.Errorf("expected pre-snapshot updates filtered on drain, got %+v", got)
	}
}

func TestSnapshotResync(t *testing.T) {
	got := runDispatcher(t, []marketevent.MarketEvent{
		snap(100), upd(101, 105), snap(200), upd(201, 205),
	})
	assertSeq(t, got, []marketevent.Kind{
		marketevent.KindDepthSnapshot, marketevent.KindDepthUpdate,
		marketevent.KindDepthSnapshot, marketevent.KindDepthUpdate,
	})
}

func TestStrictBoundaryKeepsUEqualExpectedBuffered(t *testing.T) {
	// lastProcessed=100, expected=101. An update with u==101 exactly is
	// NOT accepted (expected < u must be strict, not <=) and remains
	// buffered rather than being forwarded.
	got := runDispatcher(t, []marketevent.MarketEvent{
		snap(100), upd(100, 101),
	})
	assertSeq(t, got, []marketevent.Kind{marketevent.KindDepthSnapshot})
}
