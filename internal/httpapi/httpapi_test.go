package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BullionBear/mdc/internal/orderbook"
)

func testState() orderbook.State {
	return orderbook.State{
		Bids: []orderbook.PriceLevel{
			{Price: 100.0, Quantity: 1.0},
			{Price: 99.0, Quantity: 2.0},
			{Price: 98.0, Quantity: 3.0},
		},
		Asks: []orderbook.PriceLevel{
			{Price: 101.0, Quantity: 1.0},
			{Price: 102.0, Quantity: 2.0},
		},
	}
}

func TestHandleOrderbookBeforeReadyReturns503(t *testing.T) {
	srv := NewServer("", &Cache{})
	req := httptest.NewRequest(http.MethodGet, "/v1/orderbook", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleOrderbookReturnsLatestState(t *testing.T) {
	cache := &Cache{}
	cache.Set(testState())
	srv := NewServer("", cache)

	req := httptest.NewRequest(http.MethodGet, "/v1/orderbook", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleOrderbookTruncatesToRequestedDepth(t *testing.T) {
	cache := &Cache{}
	cache.Set(testState())
	srv := NewServer("", cache)

	req := httptest.NewRequest(http.MethodGet, "/v1/orderbook?depth=1", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"price":100`)
	require.NotContains(t, rec.Body.String(), `"price":99`)
}

func TestHandleHealthz(t *testing.T) {
	srv := NewServer("", &Cache{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCacheGetBeforeSetIsNotReady(t *testing.T) {
	cache := &Cache{}
	_, ready := cache.Get()
	require.False(t, ready)
}

func TestTruncate(t *testing.T) {
	state := testState()
	out := truncate(state, 1)
	require.Len(t, out.Bids, 1)
	require.Len(t, out.Asks, 1)
	require.Equal(t, 100.0, out.Bids[0].Price)
}
