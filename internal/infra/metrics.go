package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency HTTP-запросов консоли
	RequestDuration *prometheus.HistogramVec

	// Latency отдельных источников аналитики
	SourceDuration *prometheus.HistogramVec

	// Ошибки источников по типу
	SourceErrors *prometheus.CounterVec

	// Результаты агрегатора: ok, partial, failed, superseded
	Compositions *prometheus.CounterVec

	CacheLookups *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - ок, 1 - выбило)
	CircuitBreakerState *prometheus.GaugeVec

	// Audit: заполненность буфера (backpressure)
	AuditBufferFill prometheus.Gauge
	AuditDropped    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "Histogram of console API request latencies.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		SourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_analytics_source_duration_seconds",
			Help:    "Latency of analytics source calls.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"source"}),

		SourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "console_analytics_source_errors_total",
			Help: "Total number of analytics source failures by type.",
		}, []string{"source", "type"}), // типы: timeout, breaker_open, error

		Compositions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "console_analytics_compositions_total",
			Help: "Analytics compositions by outcome.",
		}, []string{"outcome"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "console_analytics_cache_lookups_total",
			Help: "Snapshot cache lookups by level and result.",
		}, []string{"level", "result"}),

		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "console_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=open, 2=half-open).",
		}, []string{"source"}),

		AuditBufferFill: f.NewGauge(prometheus.GaugeOpts{
			Name: "console_audit_buffer_utilization",
			Help: "Current number of events in audit buffer.",
		}),

		AuditDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "console_audit_dropped_total",
			Help: "Audit events dropped due to buffer overflow or shutdown.",
		}),
	}
}
