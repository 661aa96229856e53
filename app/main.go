// Command app runs the zodo HTTP API on its own, configured the same way as
// "zodo serve".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"zodo/app/config"
	"zodo/app/server"
	"zodo/app/services"
	"zodo/app/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("ZODO_CONFIG"))
	if err != nil {
		config.NewLogger(config.Default().Log, os.Stderr).Fatal("Failed to load configuration", "err", err)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the persistence slot
	st, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", "backend", cfg.Store.Backend, "err", err)
	}

	// Initialize the service layer
	taskService := services.NewTaskService(st, services.Options{
		Logger:   logger,
		Timeout:  cfg.Store.Timeout,
		RootName: cfg.RootName,
	})
	if err := taskService.Open(ctx); err != nil {
		logger.Fatal("Failed to load task tree", "err", err)
	}
	defer taskService.Close(context.Background())

	if err := server.Run(ctx, cfg.HTTP.Addr, taskService, logger); err != nil {
		logger.Error("Server failed", "err", err)
		os.Exit(1)
	}
}
