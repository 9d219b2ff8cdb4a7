package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/Kevin-Rudy/pingscope/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// startMetricsServer 在addr上暴露/metrics，ctx结束时关闭
func startMetricsServer(ctx context.Context, addr string, log *slog.Logger) error {
	metrics.BuildInfo.WithLabelValues(AppVersion).Set(1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("Prometheus metrics server listening", "address", listener.Addr().String())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Prometheus metrics server failed", "error", err)
		}
	}()
	context.AfterFunc(ctx, func() {
		_ = srv.Close()
	})
	return nil
}
