package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the admin API,
// covering HTTP traffic, settlement activity and the risk sweep.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	settlementsTotal    *prometheus.CounterVec
	settledAmount       *prometheus.CounterVec
	ledgerCompensations prometheus.Counter
	riskSweepGauge      *prometheus.GaugeVec

	cacheLatency prometheus.Observer
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	settlementsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_batches_total",
		Help: "Settled payout batches by action",
	}, []string{"action"})

	settledAmount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_amount_paise_total",
		Help: "Net amount moved by settlements, in paise",
	}, []string{"action"})

	ledgerCompensations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_compensations_total",
		Help: "Withholding ledger compensations after a failed settlement phase",
	})

	riskSweepGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "risk_sweep_enrollments",
		Help: "Enrollments per risk category as of the latest sweep",
	}, []string{"category"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, settlementsTotal, settledAmount, ledgerCompensations, riskSweepGauge, cacheLatency, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		settlementsTotal:    settlementsTotal,
		settledAmount:       settledAmount,
		ledgerCompensations: ledgerCompensations,
		riskSweepGauge:      riskSweepGauge,
		cacheLatency:        cacheLatency,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordSettlement records an applied settlement batch.
func (m *MetricsService) RecordSettlement(action string, count int, totalAmount int64) {
	if m == nil {
		return
	}
	m.settlementsTotal.WithLabelValues(action).Add(float64(count))
	m.settledAmount.WithLabelValues(action).Add(float64(totalAmount))
}

// RecordLedgerCompensation counts a compensating ledger delete.
func (m *MetricsService) RecordLedgerCompensation() {
	if m == nil {
		return
	}
	m.ledgerCompensations.Inc()
}

// RecordRiskSweep publishes per-category counts from the latest sweep.
func (m *MetricsService) RecordRiskSweep(category string, count int) {
	if m == nil {
		return
	}
	m.riskSweepGauge.WithLabelValues(category).Set(float64(count))
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
