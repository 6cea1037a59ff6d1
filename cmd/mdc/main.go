// Command mdc captures a consistent, gap-free order book for a single
// Binance instrument by reconciling redundant WebSocket depth streams
// against periodic REST snapshots.
package main

import (
	"context"
	"flag"
	"os"
	"syscall"

	_ "github.com/BullionBear/mdc/docs"
	"github.com/BullionBear/mdc/internal/config"
	"github.com/BullionBear/mdc/internal/pipeline"
	"github.com/BullionBear/mdc/pkg/logger"
	"github.com/BullionBear/mdc/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "mdc.yaml", "path to the YAML configuration file")

	flag.Usage = func() {
		os.Stderr.WriteString(`mdc captures a consistent, gap-free order book for a single Binance
instrument from redundant WebSocket depth streams and periodic REST
snapshots.

Usage:
  mdc -config mdc.yaml
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.InitLogger(cfg.Logger.Level, cfg.Logger.JSON)
	logger.Log.Info().Str("instrument", cfg.Instrument).Uint64("connections", cfg.Connections).Msg("mdc starting")

	sd := shutdown.NewShutdown(logger.Log)
	pipelineCtx, cancelPipeline := context.WithCancel(context.Background())

	p := pipeline.New(*cfg, logger.Log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(pipelineCtx); err != nil {
			logger.Log.Error().Err(err).Msg("pipeline exited with error")
		}
	}()

	sd.HookShutdownCallback("pipeline", func() {
		cancelPipeline()
		<-done
	}, 0)

	sd.WaitForShutdown(syscall.SIGINT, syscall.SIGTERM)
	logger.Log.Info().Msg("mdc stopped")
}
