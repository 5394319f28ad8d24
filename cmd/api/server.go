package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"nexus/internal/interfaces/scheduler"
	"nexus/internal/shared/config"
	"nexus/internal/shared/middleware"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Handler      http.Handler
	Addr         string
	TLSEnabled   bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
	AllowedHosts []string

	// MetricsAddr starts a separate scrape listener when set
	MetricsAddr    string
	MetricsHandler http.Handler
}

// Servers are the listeners started by StartServers. Redirect and Metrics
// are nil when not configured.
type Servers struct {
	API      *http.Server
	Redirect *http.Server
	Metrics  *http.Server

	errs chan error
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartServers starts every configured listener in the background. A
// listener that stops for any reason other than Shutdown is reported on Err.
func StartServers(scfg ServerConfig) *Servers {
	s := &Servers{
		API:  newServer(scfg.Addr, scfg.Handler),
		errs: make(chan error, 3),
	}

	if scfg.TLSEnabled && scfg.RedirectHTTP {
		s.Redirect = newServer(":80", middleware.RedirectHTTPS(scfg.AllowedHosts))
		s.serve("HTTP redirect", s.Redirect.ListenAndServe)
	}

	if scfg.MetricsAddr != "" && scfg.MetricsHandler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", scfg.MetricsHandler)
		s.Metrics = newServer(scfg.MetricsAddr, mux)
		s.serve("Metrics", s.Metrics.ListenAndServe)
	}

	if scfg.TLSEnabled {
		s.serve("HTTPS", func() error { return s.API.ListenAndServeTLS(scfg.CertPath, scfg.KeyPath) })
	} else {
		s.serve("HTTP", s.API.ListenAndServe)
	}

	return s
}

func (s *Servers) serve(name string, listen func() error) {
	go func() {
		log.Printf("%s server starting", name)
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
}

// Err delivers the first listener failure
func (s *Servers) Err() <-chan error {
	return s.errs
}

// GracefulShutdown stops the scheduler first so no job starts against a
// server that is going away, then drains every listener within timeout.
func (s *Servers) GracefulShutdown(sched *scheduler.Scheduler, timeout time.Duration) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if sched != nil {
		sched.Shutdown(timeout)
	}

	for _, srv := range []*http.Server{s.Redirect, s.Metrics, s.API} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server on %s: %v", srv.Addr, err)
		}
	}

	log.Println("Server stopped")
}

// NewServerConfigFromConfig creates ServerConfig from application config.
func NewServerConfigFromConfig(handler http.Handler, deps *Dependencies, cfg *config.Config) ServerConfig {
	scfg := ServerConfig{
		Handler:      handler,
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		TLSEnabled:   cfg.TLS.Enabled,
		CertPath:     cfg.TLS.CertPath,
		KeyPath:      cfg.TLS.KeyPath,
		RedirectHTTP: cfg.TLS.RedirectHTTP,
		AllowedHosts: cfg.Server.AllowedHosts,
	}
	if deps.Telemetry != nil && cfg.Telemetry.MetricsPort != "" {
		scfg.MetricsAddr = ":" + cfg.Telemetry.MetricsPort
		scfg.MetricsHandler = deps.Telemetry.MetricsHandler()
	}
	return scfg
}
