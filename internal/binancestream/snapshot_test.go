package binancestream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/BullionBear/mdc/internal/marketevent"
)

func TestSnapshotPollerFetchesImmediatelyAndOnTick(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"lastUpdateId":42,"bids":[["100.0","1.0"]],"asks":[["101.0","2.0"]]}`))
	}))
	defer srv.Close()

	out := make(chan marketevent.MarketEvent, 4)
	poller := NewSnapshotPoller(srv.URL+"/", "BTCUSDT", 100, 10*time.Millisecond, out, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	require.GreaterOrEqual(t, hits, 2, "expected the immediate fetch plus at least one ticked fetch")

	ev := <-out
	require.Equal(t, marketevent.KindDepthSnapshot, ev.Kind)
	require.EqualValues(t, 42, ev.Snapshot.LastUpdateID)
}

func TestSnapshotPollerLogsAndContinuesOnFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := make(chan marketevent.MarketEvent, 1)
	poller := NewSnapshotPoller(srv.URL+"/", "BTCUSDT", 100, time.Hour, out, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	select {
	case ev := <-out:
		t.Fatalf("expected no event to be forwarded on fetch error, got %+v", ev)
	default:
	}
}
