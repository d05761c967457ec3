// Package metrics provides Prometheus instrumentation for sedbot: replace command
// outcomes, recorded history and scan latency.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command results used as the "result" label of CommandsTotal.
const (
	ResultReplaced = "replaced"
	ResultNoMatch  = "no_match"
	ResultBlocked  = "blocked"
	ResultEmpty    = "empty"
	ResultError    = "error"
)

var (
	// CommandsTotal counts replace commands by outcome.
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sedbot_commands_total",
		Help: "Total number of replace commands processed",
	}, []string{"result"})

	// MessagesRecorded counts messages written to the history store.
	MessagesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sedbot_messages_recorded_total",
		Help: "Total number of chat messages recorded in history",
	})

	// CleanseErrors counts messages skipped because markdown stripping failed.
	CleanseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sedbot_cleanse_errors_total",
		Help: "Total number of messages that could not be cleansed",
	})

	// ScanDuration records the time spent scanning history for a match.
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sedbot_scan_duration_seconds",
		Help:    "Time spent scanning history for a replace command",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5},
	})
)

func init() {
	prometheus.MustRegister(
		CommandsTotal,
		MessagesRecorded,
		CleanseErrors,
		ScanDuration,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown error", "error", err)
		}
		logger.Info("Metrics server stopped")
		return nil
	}
}
