// Package http exposes the operational surface: health and readiness
// probes plus Prometheus metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spotloader/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	TracksTotal        *prometheus.CounterVec
	AcquireRetries     prometheus.Counter
	ProcessingDuration *prometheus.HistogramVec
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotloader_requests_total",
				Help: "Total number of link requests handled",
			},
			[]string{"kind", "status"},
		),
		TracksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotloader_tracks_total",
				Help: "Total number of track acquisitions by outcome",
			},
			[]string{"outcome"},
		),
		AcquireRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spotloader_acquire_retries_total",
				Help: "Total number of download retry attempts",
			},
		),
		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spotloader_processing_duration_seconds",
				Help:    "Time spent processing one request",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"kind"},
		),
	}

	prometheus.MustRegister(
		metrics.RequestsTotal,
		metrics.TracksTotal,
		metrics.AcquireRetries,
		metrics.ProcessingDuration,
	)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"spotloader"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"spotloader"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return &Server{
		config:  config,
		logger:  logger,
		server:  server,
		metrics: metrics,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// The methods below satisfy core.Metrics.

func (s *Server) RequestHandled(kind, status string) {
	s.metrics.RequestsTotal.WithLabelValues(kind, status).Inc()
}

func (s *Server) TrackAcquired(outcome string) {
	s.metrics.TracksTotal.WithLabelValues(outcome).Inc()
}

func (s *Server) AcquireRetried() {
	s.metrics.AcquireRetries.Inc()
}

func (s *Server) ObserveProcessing(kind string, seconds float64) {
	s.metrics.ProcessingDuration.WithLabelValues(kind).Observe(seconds)
}
