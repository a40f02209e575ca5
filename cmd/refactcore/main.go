// Command refactcore is the CLI entrypoint (A5): it loads process
// configuration, constructs the trajectory store/registry/broadcaster, starts
// the trajectory filesystem watcher, and serves the HTTP surface (spec §6)
// until interrupted. The chat/tool-orchestration endpoints themselves are
// intentionally out of scope here (spec.md treats them as "opaque" — only
// their request/response shape is named, not a transport); this entrypoint
// wires the parts spec.md and SPEC_FULL.md do specify. The completion cache
// (A4) and model-client adapters live in their own packages, consumed by
// whatever process serves the completion/chat endpoints.
//
// Grounded on the teacher's cmd/ entrypoints (cmd/demo, cmd/regolden) for the
// "construct components, wire them together, run" shape, generalized from
// their single in-process demo run to a long-running service with signal-
// driven shutdown (grounded on haasonsaas-nexus's cmd/nexus-edge/main.go use
// of signal.NotifyContext).
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goa.design/clue/log"

	"github.com/refact-ai/agentcore/internal/config"
	"github.com/refact-ai/agentcore/internal/httpapi"
	"github.com/refact-ai/agentcore/internal/telemetry"
	"github.com/refact-ai/agentcore/internal/trajectory"
	"github.com/refact-ai/agentcore/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	addr := flag.String("addr", ":8011", "HTTP listen address")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	logCtx := log.Context(context.Background(), log.WithFormat(format))
	if *debug {
		logCtx = log.Context(logCtx, log.WithDebug())
	}
	logger := telemetry.NewClueLogger()

	ctx, stop := signal.NotifyContext(logCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *addr); err != nil {
		logger.Error(ctx, "refactcore: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger telemetry.Logger, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := trajectory.NewStore(cfg.WorkspaceRoot)
	if err != nil {
		return err
	}
	broadcaster := trajectory.NewBroadcaster()
	registry := trajectory.NewRegistry(store)

	w := watcher.New(store.Dir(), store, broadcaster, registry, logger)
	watcherDone := make(chan error, 1)
	go func() { watcherDone <- w.Run(ctx) }()

	server := &httpapi.Server{Store: store, Broadcaster: broadcaster, Logger: logger}
	httpServer := &http.Server{Addr: addr, Handler: server.Router()}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "refactcore: listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "refactcore: http shutdown", "error", err)
	}
	<-watcherDone
	return nil
}
