package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry             *prometheus.Registry
	rulesCreated         prometheus.Counter
	subscriptionsCreated prometheus.Counter
	paymentsExecuted     prometheus.Counter
	paymentsRejected     *prometheus.CounterVec
	executionDuration    prometheus.Histogram
	activeRules          prometheus.Gauge
	activeSubscriptions  prometheus.Gauge
	logger               *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		rulesCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "payment_rules_created_total",
			Help: "Total number of payment rules created",
		}),
		subscriptionsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Total number of subscriptions created",
		}),
		paymentsExecuted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "payments_executed_total",
			Help: "Total number of successfully executed payments",
		}),
		paymentsRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "payments_rejected_total",
			Help: "Total number of rejected payment executions",
		}, []string{"reason"}),
		executionDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "payment_execution_duration_seconds",
			Help:    "Time taken to execute a payment attempt",
			Buckets: prometheus.DefBuckets,
		}),
		activeRules: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "payment_rules_active",
			Help: "Current number of active payment rules",
		}),
		activeSubscriptions: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "subscriptions_active",
			Help: "Current number of active subscriptions",
		}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordRuleCreated() {
	m.rulesCreated.Inc()
	m.activeRules.Inc()
}

func (m *MetricsCollector) RecordRuleDisabled() {
	m.activeRules.Dec()
}

func (m *MetricsCollector) RecordSubscriptionCreated() {
	m.subscriptionsCreated.Inc()
	m.activeSubscriptions.Inc()
}

func (m *MetricsCollector) RecordSubscriptionDisabled() {
	m.activeSubscriptions.Dec()
}

func (m *MetricsCollector) RecordExecution(duration time.Duration, rejectReason string) {
	m.executionDuration.Observe(duration.Seconds())

	if rejectReason == "" {
		m.paymentsExecuted.Inc()
	} else {
		m.paymentsRejected.WithLabelValues(rejectReason).Inc()
	}
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
