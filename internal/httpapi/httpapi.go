// Package httpapi exposes a read-only view of the most recently emitted
// order book over HTTP. It never writes into the pipeline; it only
// observes book_out via the shared event bus.
package httpapi

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/BullionBear/mdc/internal/orderbook"
)

// Cache holds the latest observed book state, updated from an event bus
// subscription and read by HTTP handlers. Readers share a read lock; a
// write waits until reads in progress have finished.
type Cache struct {
	mu    sync.RWMutex
	state orderbook.State
	ready bool
}

func (c *Cache) Set(state orderbook.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.ready = true
}

func (c *Cache) Get() (orderbook.State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.ready
}

// Server is the read-only query API: GET /v1/orderbook and GET /healthz,
// with swagger docs served at /swagger/*any.
type Server struct {
	engine *gin.Engine
	cache  *Cache
	addr   string
}

func NewServer(addr string, cache *Cache) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, cache: cache, addr: addr}
	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/v1/orderbook", s.handleOrderbook)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	return s
}

func (s *Server) ListenAndServe() error {
	return s.engine.Run(s.addr)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleOrderbook godoc
// @Summary      Get the latest order book
// @Description  Returns the most recently emitted order book state for the configured instrument, optionally truncated to a requested depth.
// @Produce      json
// @Param        depth  query  int  false  "maximum number of levels per side"
// @Success      200  {object}  orderbook.State
// @Failure      503  {object}  gin.H
// @Router       /v1/orderbook [get]
func (s *Server) handleOrderbook(c *gin.Context) {
	state, ready := s.cache.Get()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order book not yet initialized"})
		return
	}

	depth := 0
	if v := c.Query("depth"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			depth = n
		}
	}
	if depth > 0 {
		state = truncate(state, depth)
	}
	c.JSON(http.StatusOK, state)
}

func truncate(state orderbook.State, depth int) orderbook.State {
	out := state
	if len(out.Bids) > depth {
		out.Bids = out.Bids[:depth]
	}
	if len(out.Asks) > depth {
		out.Asks = out.Asks[:depth]
	}
	return out
}
