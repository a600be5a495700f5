// Package health serves the bridge's liveness and metrics endpoints.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report is the /health response body.
type Report struct {
	Status        string        `json:"status"`
	Broker        string        `json:"broker"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Process       *ProcessStats `json:"process,omitempty"`
}

// Options wires the handler to the running service.
type Options struct {
	// BrokerState reports the connection state as text; "connected" means healthy.
	BrokerState func() string
	Gatherer    prometheus.Gatherer
	Stats       *StatsCollector // optional
	Logger      *slog.Logger
	Now         func() time.Time
}

type handler struct {
	opts    Options
	started time.Time
}

// NewHandler returns a router serving GET /health and GET /metrics.
func NewHandler(opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &handler{opts: opts, started: opts.Now()}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	report := Report{
		Status:        "ok",
		Broker:        h.opts.BrokerState(),
		UptimeSeconds: int64(h.opts.Now().Sub(h.started).Seconds()),
	}
	if h.opts.Stats != nil {
		stats := h.opts.Stats.Collect()
		report.Process = &stats
	}

	status := http.StatusOK
	if report.Broker != "connected" {
		report.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.opts.Logger.Error("Failed to write health response", "error", err)
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Health server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "health server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "health server shutdown")
	}
	return nil
}
