// Package metrics serves Prometheus metrics on a dedicated listener,
// separate from the API server so that scrapes are unaffected by API
// draining.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer owns the process metrics registry and the HTTP listener
// exposing it under /metrics.
type MetricsServer struct {
	srv      *http.Server
	registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
}

// New creates a metrics server listening on listenAddr. The namespace
// prefixes all service-level metrics.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "API requests by route and response status code.",
	}, []string{"route", "code"})
	registry.MustRegister(requestsTotal)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:    listenAddr,
			Handler: mux,
		},
		registry:      registry,
		requestsTotal: requestsTotal,
	}, nil
}

// RecordRequest counts one API request for the given route and status code.
func (s *MetricsServer) RecordRequest(route string, code int) {
	s.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// ListenAndServe blocks serving the metrics endpoint.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
