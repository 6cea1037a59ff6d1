// Package binancestream dials Binance's raw WebSocket streams and
// the REST depth snapshot endpoint, and feeds parsed frames into the
// pipeline's market event channels. It never reorders or validates
// sequence numbers — that is the dispatcher's job.
package binancestream

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/BullionBear/mdc/internal/marketevent"
)

const (
	pingInterval = 54 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// Stream is a generic reconnecting WebSocket producer. T is the frame
// payload type (DepthUpdate, TradeEvent, PriceUpdate); parse decodes a
// raw text frame into T, after which IntoMarketEvent lifts it into the
// closed MarketEvent union so the same loop can serve any of Binance's
// raw streams.
type Stream[T marketevent.Lifter] struct {
	url              string
	parse            func([]byte) (T, error)
	out              chan<- marketevent.MarketEvent
	reconnectTimeout time.Duration
	logger           zerolog.Logger
	label            string
}

func NewStream[T marketevent.Lifter](
	url string,
	parse func([]byte) (T, error),
	out chan<- marketevent.MarketEvent,
	reconnectTimeout time.Duration,
	logger zerolog.Logger,
	label string,
) *Stream[T] {
	return &Stream[T]{
		url:              url,
		parse:            parse,
		out:              out,
		reconnectTimeout: reconnectTimeout,
		logger:           logger,
		label:            label,
	}
}

// Run dials, reads, and redials until ctx is cancelled. It never returns
// on its own otherwise: transient network failures only trigger a
// reconnect after reconnectTimeout, per Binance's own guidance not to
// hammer a freshly-dropped connection.
func (s *Stream[T]) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.runOnce(ctx); err != nil {
			s.logger.Warn().Err(err).Str("stream", s.label).Msg("stream connection error, will reconnect")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectTimeout):
		}
	}
}

func (s *Stream[T]) runOnce(ctx context.Context) error {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	connID := uuid.New().String()
	log := s.logger.With().Str("stream", s.label).Str("connId", connID).Logger()
	log.Info().Str("url", s.url).Msg("stream connected")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	go s.pingLoop(ctx, conn, log, done)
	defer close(done)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		payload, err := s.parse(message)
		if err != nil {
			log.Error().Err(err).Msg("failed to parse stream frame, discarding")
			continue
		}

		select {
		case s.out <- payload.IntoMarketEvent():
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Stream[T]) pingLoop(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}
