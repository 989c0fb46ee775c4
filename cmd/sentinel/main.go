// Command sentinel runs the sandwich-detection pipeline end to end:
// mempool subscription, batching, detection, deduplication, validation,
// and publication, fronted by a liveness/readiness/metrics HTTP surface.
// Delegates the actual lifecycle to internal/supervisor instead of one
// flat main() body.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/you/sandwich-sentinel/internal/config"
	"github.com/you/sandwich-sentinel/internal/logging"
	"github.com/you/sandwich-sentinel/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging init error:", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	sup, err := supervisor.New(cfg, log)
	if err != nil {
		log.Sugar().Fatalw("failed to initialize pipeline", "error", err)
	}

	if err := sup.Run(context.Background()); err != nil {
		log.Sugar().Fatalw("pipeline exited with error", "error", err)
	}
}
