// Package metrics defines the Prometheus collectors for conversion runs and
// the alert relay. Collectors are registered on an explicit registry so
// tests and multiple instances never share state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vidnorm"

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// WriteTextfile writes the registry to path for node_exporter's textfile collector.
func WriteTextfile(path string, reg *prometheus.Registry) error {
	return prometheus.WriteToTextfile(path, reg)
}

// Run holds per-run conversion metrics.
type Run struct {
	Files         *prometheus.CounterVec
	Attempts      *prometheus.CounterVec
	EncodeSeconds *prometheus.HistogramVec
	Active        prometheus.Gauge
	LastRun       prometheus.Gauge
}

// NewRun registers conversion metrics on reg.
func NewRun(reg prometheus.Registerer) *Run {
	factory := promauto.With(reg)
	return &Run{
		Files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Files handled by outcome (skipped, compatible, converted, failed)",
			},
			[]string{"outcome"},
		),
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "encode_attempts_total",
				Help:      "Encode attempts by encoder mode and result",
			},
			[]string{"mode", "result"},
		),
		EncodeSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "encode_duration_seconds",
				Help:      "Wall-clock duration of successful encodes",
				Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600, 7200},
			},
			[]string{"mode"},
		),
		Active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_encodes",
			Help:      "Encodes currently running",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Relay holds alert relay metrics.
type Relay struct {
	Alerts              *prometheus.CounterVec
	Translations        *prometheus.CounterVec
	Deliveries          *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

// NewRelay registers relay metrics on reg.
func NewRelay(reg prometheus.Registerer) *Relay {
	factory := promauto.With(reg)
	return &Relay{
		Alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "alerts_total",
				Help:      "Alerts received by status and severity",
			},
			[]string{"status", "severity"},
		),
		Translations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "translations_total",
				Help:      "Alert texts produced by source (generated, fallback)",
			},
			[]string{"source"},
		),
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "deliveries_total",
				Help:      "ntfy deliveries by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
	}
}
