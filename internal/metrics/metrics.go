// Package metrics exposes replication metrics over HTTP.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/doublecloud/mysql2cass/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.ytsaurus.tech/library/go/core/log"
	"golang.org/x/xerrors"
)

const shutdownTimeout = 5 * time.Second

// NewRegistry returns a registry with the process and go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// Serve blocks until ctx is done or the server fails.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return xerrors.Errorf("unable to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           Handler(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("unable to shutdown metrics server", log.Error(err))
		}
	}()
	logger.Log.Info("serving metrics", log.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
		return xerrors.Errorf("metrics server failed: %w", err)
	}
	return nil
}
