package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/openbeacn/linkd/external/config"
	pulseimpl "github.com/openbeacn/linkd/external/pulse"
	"github.com/openbeacn/linkd/internal/config"
	"github.com/openbeacn/linkd/internal/link"
	"github.com/samber/do/v2"
)

const operationTimeout = 30 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)
	manager := mustInvokeManager(injector)

	if len(os.Args) > 1 && os.Args[1] == "cleanup" {
		runCleanup(manager)
		return
	}
	runProvision(cfg, manager)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	pulseimpl.RegisterDI(injector)
	link.RegisterDI(injector)

	return injector
}

func mustInvokeManager(injector do.Injector) *link.Manager {
	manager, err := do.Invoke[*link.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve link manager", "error", err)
		os.Exit(1)
	}
	return manager
}

// runCleanup is the standalone teardown entry point. It does not require a
// reachable server probe; a dead server just means there is nothing to unload.
func runCleanup(manager *link.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	attempted := manager.Cleanup(ctx)
	slog.Info("cleanup complete", "modules_attempted", attempted)
}

func runProvision(cfg *config.Config, manager *link.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)

	slog.Info("startup: probing sound server")
	if err := manager.Initialize(ctx); err != nil {
		slog.Error("sound server not available", "error", err)
		cancel()
		os.Exit(1)
	}

	if cfg.CleanupOnStart {
		slog.Info("startup: cleaning up leftover link modules")
		manager.Cleanup(ctx)
	}

	if err := manager.CreateLinkOutputs(ctx); err != nil {
		slog.Error("failed to provision link outputs", "error", err)
		cancel()
		os.Exit(1)
	}

	if _, err := manager.CreateVirtualInput(ctx); err != nil {
		slog.Error("failed to provision virtual input", "error", err)
	}

	if cfg.RouteSource != "" && cfg.RouteSink != "" {
		if _, err := manager.RouteAudio(ctx, cfg.RouteSource, cfg.RouteSink); err != nil {
			slog.Error("failed to provision startup route", "source", cfg.RouteSource, "sink", cfg.RouteSink, "error", err)
		}
	}
	cancel()

	devices := manager.Devices(context.Background())
	slog.Info("startup: provisioning complete", "devices_visible", len(devices))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	if cfg.CleanupOnExit {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), operationTimeout)
		defer shutdownCancel()
		manager.Cleanup(shutdownCtx)
	}
}
