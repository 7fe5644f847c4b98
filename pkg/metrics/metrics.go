package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts checkout outcomes.
type CheckoutMetrics struct {
	OrdersCommitted    prometheus.Counter
	OversellRejections prometheus.Counter
	TxConflicts        prometheus.Counter
}

// NewCheckoutMetrics registers checkout counters on the default registry.
func NewCheckoutMetrics() *CheckoutMetrics {
	return &CheckoutMetrics{
		OrdersCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_committed_total",
			Help: "Orders successfully committed by the checkout engine.",
		}),
		OversellRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_checkout_oversell_rejections_total",
			Help: "Checkouts aborted because an item exceeded locked stock.",
		}),
		TxConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_checkout_tx_conflicts_total",
			Help: "Checkouts aborted by lock timeouts or serialization failures.",
		}),
	}
}

// CronJobMetrics tracks scheduled job outcomes per job name.
type CronJobMetrics struct {
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCronJobMetrics registers cron collectors on the default registry.
func NewCronJobMetrics() *CronJobMetrics {
	return &CronJobMetrics{
		success: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cron_job_runs_total",
			Help: "Cron job executions that completed without error.",
		}, []string{"job"}),
		failure: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cron_job_failures_total",
			Help: "Cron job executions that returned an error.",
		}, []string{"job"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_cron_job_duration_seconds",
			Help:    "Cron job execution duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

// IncSuccess records a completed run for the job.
func (m *CronJobMetrics) IncSuccess(job string) {
	m.success.WithLabelValues(job).Inc()
}

// IncFailure records a failed run for the job.
func (m *CronJobMetrics) IncFailure(job string) {
	m.failure.WithLabelValues(job).Inc()
}

// ObserveDuration records how long the job took.
func (m *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	m.duration.WithLabelValues(job).Observe(d.Seconds())
}

// Handler exposes the default prometheus registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
