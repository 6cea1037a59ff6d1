package natssink

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/BullionBear/mdc/internal/config"
)

func TestJoinURIs(t *testing.T) {
	require.Equal(t, "nats://a:4222", joinURIs([]string{"nats://a:4222"}))
	require.Equal(t, "nats://a:4222,nats://b:4222", joinURIs([]string{"nats://a:4222", "nats://b:4222"}))
}

func TestConnectAgainstLiveServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode: requires a reachable nats-server")
	}
	cfg := config.NatsConfig{URIs: []string{"nats://127.0.0.1:4222"}, Subject: "mdc.book"}
	sink, err := Connect(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer sink.Close()
}
