// Package natssink publishes every emitted order book state to a NATS
// JetStream subject, for consumers outside this process.
package natssink

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/BullionBear/mdc/internal/config"
	"github.com/BullionBear/mdc/internal/orderbook"
)

// Sink publishes book states it is handed to a JetStream subject.
// Publish failures are logged, not fatal: the local book replica remains
// correct even if the downstream sink is unreachable.
type Sink struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  zerolog.Logger
}

// Connect dials the configured NATS URIs and resolves a JetStream context.
func Connect(cfg config.NatsConfig, logger zerolog.Logger) (*Sink, error) {
	conn, err := nats.Connect(joinURIs(cfg.URIs))
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Sink{conn: conn, js: js, subject: cfg.Subject, logger: logger}, nil
}

func joinURIs(uris []string) string {
	out := uris[0]
	for _, u := range uris[1:] {
		out += "," + u
	}
	return out
}

func (s *Sink) Close() {
	s.conn.Close()
}

// Publish marshals state to JSON and sends it to the configured subject.
func (s *Sink) Publish(state orderbook.State) {
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal book state for nats publish")
		return
	}
	if _, err := s.js.Publish(s.subject, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish book state to nats")
	}
}

// Run subscribes to every state handed over the channel until it closes
// or ctx is cancelled.
func (s *Sink) Run(ctx context.Context, states <-chan orderbook.State) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			s.Publish(state)
		}
	}
}
