package binancestream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/BullionBear/mdc/internal/marketevent"
)

// SnapshotPoller periodically fetches a full depth snapshot over REST and
// injects it into the pipeline's depth channel, alongside the WebSocket
// update streams.
type SnapshotPoller struct {
	restEndpoint string
	instrument   string
	maxDepth     uint64
	interval     time.Duration
	out          chan<- marketevent.MarketEvent
	client       *http.Client
	logger       zerolog.Logger
}

func NewSnapshotPoller(restEndpoint, instrument string, maxDepth uint64, interval time.Duration, out chan<- marketevent.MarketEvent, logger zerolog.Logger) *SnapshotPoller {
	return &SnapshotPoller{
		restEndpoint: restEndpoint,
		instrument:   instrument,
		maxDepth:     maxDepth,
		interval:     interval,
		out:          out,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// Run fetches on every tick until ctx is cancelled. Fetch/decode failures
// are logged and retried on the next tick; they never propagate, matching
// the disposition for external-source failures.
func (p *SnapshotPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetchAndForward(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndForward(ctx)
		}
	}
}

func (p *SnapshotPoller) fetchAndForward(ctx context.Context) {
	snapshot, err := p.fetch(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to fetch depth snapshot")
		return
	}
	select {
	case p.out <- snapshot.IntoMarketEvent():
	case <-ctx.Done():
	}
}

func (p *SnapshotPoller) fetch(ctx context.Context) (marketevent.DepthSnapshot, error) {
	q := url.Values{}
	q.Set("symbol", p.instrument)
	q.Set("limit", fmt.Sprintf("%d", p.maxDepth))
	fullURL := p.restEndpoint + "depth?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return marketevent.DepthSnapshot{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return marketevent.DepthSnapshot{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return marketevent.DepthSnapshot{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return marketevent.DepthSnapshot{}, fmt.Errorf("depth snapshot request failed: status %d: %s", resp.StatusCode, string(body))
	}

	return marketevent.ParseDepthSnapshot(body)
}
