// poolmon runs a dbpool connection pool against a configured backend and
// exposes its statistics and maintenance operations over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/guileen/dbpool/backend"
	"github.com/guileen/dbpool/logger"
	"github.com/guileen/dbpool/pool"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML pool config file")
		listenAddr = flag.String("listen", ":8080", "HTTP listen address")
		reapEvery  = flag.Duration("reap-interval", 60*time.Second, "how often to reap idle connections (0 disables)")
	)
	flag.Parse()

	cfg := pool.DefaultConfig("postgres", "")
	if *configPath != "" {
		loaded, err := pool.LoadConfigFile(*configPath)
		if err != nil {
			logger.Error("failed to load config file", "path", *configPath, logger.ErrorField(err))
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg = cfg.ApplyEnv()

	p, err := backend.Open(cfg)
	if err != nil {
		logger.Error("failed to create pool", logger.BackendKind(cfg.Kind), logger.ErrorField(err))
		os.Exit(1)
	}
	logger.Info("pool ready", logger.BackendKind(cfg.Kind),
		"min_connections", cfg.MinConnections, "max_connections", cfg.MaxConnections)

	// Caller-triggered reaping: the pool has no internal timers of its own.
	reapDone := make(chan struct{})
	if *reapEvery > 0 {
		go func() {
			ticker := time.NewTicker(*reapEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := p.CloseIdle(); n > 0 {
						logger.Info("reaped idle connections", "count", n)
					}
				case <-reapDone:
					return
				}
			}
		}()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, p.Stats())
	})
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), cfg.ConnectTimeout)
		defer cancel()
		conn, err := p.Acquire(ctx)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		if err := p.Release(conn); err != nil {
			logger.Warn("health check release failed", logger.ErrorField(err))
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/close-idle", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"closed": p.CloseIdle()})
	})

	server := &http.Server{Addr: *listenAddr, Handler: r}
	go func() {
		logger.Info("poolmon listening", "addr", *listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", logger.ErrorField(err))
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	close(reapDone)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown failed", logger.ErrorField(err))
	}
	if err := p.Close(); err != nil {
		logger.Warn("pool close reported errors", logger.ErrorField(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}
