package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	boardRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkboard_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	boardRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkboard_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	boardTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkboard_transactions_total",
		Help: "Total processed transactions by instruction and result.",
	}, []string{"instruction", "result"})

	boardJournalGapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkboard_journal_gaps_total",
		Help: "Applied transactions whose journal append failed, by instruction.",
	}, []string{"instruction"})

	boardHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkboard_health_checks_total",
		Help: "Total health check probes by dependency and result.",
	}, []string{"dependency", "result"})

	boardDependencyUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linkboard_dependency_up",
		Help: "1 if the dependency is healthy, 0 if degraded.",
	}, []string{"dependency"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		boardRequestsTotal.WithLabelValues(method, path, status).Inc()
		boardRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordTransaction records one processed transaction. Its signature matches
// runtime.ResultRecordFunc.
func RecordTransaction(instruction, result string) {
	boardTransactionsTotal.WithLabelValues(instruction, result).Inc()
}

// RecordJournalGap counts an applied transaction that did not get a journal
// slot. Its signature matches runtime.JournalGapRecordFunc.
func RecordJournalGap(instruction string) {
	boardJournalGapsTotal.WithLabelValues(instruction).Inc()
}

// RecordHealthCheck records a health check probe result.
func RecordHealthCheck(dependency string, success bool) {
	if success {
		boardHealthChecksTotal.WithLabelValues(dependency, "success").Inc()
	} else {
		boardHealthChecksTotal.WithLabelValues(dependency, "failure").Inc()
	}
}

// SetDependencyUp sets the dependency gauge.
func SetDependencyUp(dependency string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	boardDependencyUp.WithLabelValues(dependency).Set(v)
}
