package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
)

// slowCallThreshold is the node round-trip latency above which a warning
// is logged.
const slowCallThreshold = 50 * time.Millisecond

// Metrics contains all Prometheus metrics for the gateway
type Metrics struct {
	// RPC call metrics
	RPCRequests *prometheus.CounterVec
	RPCLatency  *prometheus.HistogramVec

	// WebSocket subscription metrics
	ActiveSubscriptions prometheus.Gauge
	SubscriptionsTotal  prometheus.Counter
	NotificationsSent   prometheus.Counter

	logger log.Logger
}

// NewMetrics initializes and registers Prometheus metrics
func NewMetrics(logger log.Logger) *Metrics {
	return NewMetricsWithRegistry(nil, logger)
}

// NewMetricsWithRegistry initializes and registers Prometheus metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer, logger log.Logger) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		RPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaspa_proxy_rpc_requests_total",
				Help: "The total number of node RPC calls by method and status",
			},
			[]string{"method", "status"},
		),
		RPCLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kaspa_proxy_rpc_latency_seconds",
				Help:    "Node round-trip latency per RPC method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ActiveSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kaspa_proxy_active_subscriptions",
			Help: "The current number of live UTXO change subscriptions",
		}),
		SubscriptionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kaspa_proxy_subscriptions_total",
			Help: "The total number of UTXO change subscriptions made since start",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "kaspa_proxy_notifications_sent_total",
			Help: "The total number of UTXO change notifications pushed to clients",
		}),
		logger: logger.WithName("metrics"),
	}
}

// RecordLatency observes one completed node call. Calls slower than
// slowCallThreshold are logged at warn level.
func (m *Metrics) RecordLatency(op string, elapsed time.Duration) {
	m.RPCLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	if elapsed > slowCallThreshold {
		m.logger.Warn("Slow node call", "op", op, "elapsed", elapsed)
	}
}
