package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexus/internal/shared/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	deps, err := NewDependencies(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if deps.Scheduler != nil {
		deps.Scheduler.Start()
		log.Printf("Scheduler started with times: %v, next run at %s",
			cfg.Scheduler.ScheduleTimes, deps.Scheduler.NextRun(time.Now()).Format(time.RFC3339))
	}

	handler := SetupRoutes(deps, cfg)
	servers := StartServers(NewServerConfigFromConfig(handler, deps, cfg))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received %s", sig)
	case err = <-servers.Err():
		log.Printf("Listener failed: %v", err)
	}

	servers.GracefulShutdown(deps.Scheduler, shutdownTimeout)
	return err
}
