// Package observability holds the Prometheus collectors for catalog imports.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the import collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry          *prometheus.Registry
	RecordsExtracted  prometheus.Counter
	RecordsSkipped    *prometheus.CounterVec
	FieldFallbacks    *prometheus.CounterVec
	ReviewParseErrors prometheus.Counter
	ImportRuns        *prometheus.CounterVec
	ImportDuration    prometheus.Histogram
}

// NewMetrics constructs and registers all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	extracted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_records_extracted_total",
		Help: "Catalog records parsed into products.",
	})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_records_skipped_total",
		Help: "Catalog records dropped during extraction, by reason.",
	}, []string{"reason"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_field_fallbacks_total",
		Help: "Optional fields replaced by their default after a decode failure.",
	}, []string{"field"})
	reviewErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_review_parse_errors_total",
		Help: "Reviews values that were not a list.",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_runs_total",
		Help: "Import runs by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_import_duration_seconds",
		Help:    "Wall time of the store write phase, prompt included.",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(extracted, skipped, fallbacks, reviewErrors, runs, duration)

	return &Metrics{
		Registry:          registry,
		RecordsExtracted:  extracted,
		RecordsSkipped:    skipped,
		FieldFallbacks:    fallbacks,
		ReviewParseErrors: reviewErrors,
		ImportRuns:        runs,
		ImportDuration:    duration,
	}
}

func (m *Metrics) RecordExtracted() {
	if m == nil {
		return
	}
	m.RecordsExtracted.Inc()
}

func (m *Metrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) FieldFallback(field string) {
	if m == nil {
		return
	}
	m.FieldFallbacks.WithLabelValues(field).Inc()
}

// ReviewParseError counts the failure and logs it at warn level.
func (m *Metrics) ReviewParseError(err error) {
	slog.Warn("reviews could not be parsed", slog.Any("error", err))
	if m == nil {
		return
	}
	m.ReviewParseErrors.Inc()
}

// ObserveImport records one finished import run.
func (m *Metrics) ObserveImport(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ImportRuns.WithLabelValues(outcome).Inc()
	m.ImportDuration.Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
