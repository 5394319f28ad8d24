package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"nexus/internal/shared/config"
	"nexus/internal/shared/telemetry"
)

func TestNewServerConfigFromConfig(t *testing.T) {
	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: "8080"},
		Telemetry: config.TelemetryConfig{MetricsPort: "9464"},
	}

	t.Run("No telemetry, no metrics listener", func(t *testing.T) {
		scfg := NewServerConfigFromConfig(http.NotFoundHandler(), &Dependencies{}, cfg)
		if scfg.Addr != "127.0.0.1:8080" {
			t.Errorf("Addr = %q, want 127.0.0.1:8080", scfg.Addr)
		}
		if scfg.MetricsAddr != "" || scfg.MetricsHandler != nil {
			t.Errorf("expected no metrics listener, got %q", scfg.MetricsAddr)
		}
	})

	t.Run("Telemetry with metrics port", func(t *testing.T) {
		p, err := telemetry.Init(context.Background(), telemetry.Config{ServiceName: "nexus-test"})
		if err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		defer p.Shutdown(context.Background())

		scfg := NewServerConfigFromConfig(http.NotFoundHandler(), &Dependencies{Telemetry: p}, cfg)
		if scfg.MetricsAddr != ":9464" || scfg.MetricsHandler == nil {
			t.Errorf("MetricsAddr = %q, handler set = %v", scfg.MetricsAddr, scfg.MetricsHandler != nil)
		}
	})
}

func TestStartServers_ReportsListenFailure(t *testing.T) {
	servers := StartServers(ServerConfig{Handler: http.NotFoundHandler(), Addr: "127.0.0.1:-1"})
	defer servers.GracefulShutdown(nil, time.Second)

	select {
	case err := <-servers.Err():
		if err == nil {
			t.Fatal("expected listen error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listen failure was not reported")
	}
}

func TestGracefulShutdown_StopsAllListeners(t *testing.T) {
	servers := StartServers(ServerConfig{
		Handler:        http.NotFoundHandler(),
		Addr:           "127.0.0.1:0",
		MetricsAddr:    "127.0.0.1:0",
		MetricsHandler: http.NotFoundHandler(),
	})
	if servers.Metrics == nil {
		t.Fatal("expected metrics listener")
	}

	servers.GracefulShutdown(nil, time.Second)

	select {
	case err := <-servers.Err():
		t.Errorf("unexpected listener error: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
