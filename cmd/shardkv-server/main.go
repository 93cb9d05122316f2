// Command shardkv-server boots the sharded RESP store: it parses flags,
// wires up structured logging and Prometheus metrics, constructs the shard
// router, and serves both the RESP TCP listener and an HTTP side-channel for
// /metrics and /debug/shardkv/snapshot. Grounded on examples/basic/main.go's
// bootstrap shape (registry + mux + snapshot endpoint), adapted from an
// embedded-cache demo to a standalone server binary.
//
// © 2025 shardkv authors. MIT License.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arenakv/shardkv/pkg/router"
	"github.com/arenakv/shardkv/pkg/server"
)

func main() {
	addr := flag.String("addr", ":6380", "RESP listen address")
	httpAddr := flag.String("http-addr", ":6060", "metrics/debug HTTP listen address")
	shards := flag.Int("shards", 8, "number of shards (one goroutine each)")
	capMB := flag.Int64("shard-cap-mb", 64, "per-shard arena byte budget, in MiB")
	dev := flag.Bool("dev", false, "use a human-readable development logger instead of JSON")
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()

	r, err := buildRouter(*shards, *capMB<<20, reg, logger)
	if err != nil {
		logger.Fatal("router init", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutdown signal received")
		cancel()
	}()

	go r.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.HandleFunc("/debug/shardkv/snapshot", func(w http.ResponseWriter, req *http.Request) {
		stats, err := r.Stats(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		var entriesTotal, arenaTotal int64
		for _, s := range stats {
			entriesTotal += s.Entries
			arenaTotal += s.ArenaBytes
		}
		snap := map[string]any{
			"shards":      r.NumShards(),
			"per_shard":   stats,
			"entries":     entriesTotal,
			"arena_bytes": arenaTotal,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})
	httpSrv := &http.Server{Addr: *httpAddr, Handler: mux}
	go func() {
		logger.Info("http listening", zap.String("addr", *httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", zap.Error(err))
		}
	}()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
	logger.Info("resp listening", zap.String("addr", *addr), zap.Int("shards", *shards))

	srv := server.New(r, logger)
	if err := srv.Serve(ctx, ln); err != nil {
		logger.Error("serve", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

func buildRouter(shards int, capBytes int64, reg *prometheus.Registry, logger *zap.Logger) (*router.Router, error) {
	opts := []router.Option{
		router.WithShardCapBytes(capBytes),
		router.WithLogger(logger),
		router.WithMetricsRegistry(reg),
	}
	return router.New(shards, opts...)
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
