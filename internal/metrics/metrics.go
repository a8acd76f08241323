package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the storefront's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	OrderPolls          prometheus.Counter
	OrderFetchFailures  prometheus.Counter
	OrderStatusChanges  *prometheus.CounterVec
	OrderPollDuration   prometheus.Histogram
	SearchRequests      *prometheus.CounterVec
	CommerceRequestTime *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrderPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "order_polls_total",
			Help:      "Completed order polling batches.",
		}),
		OrderFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "order_fetch_failures_total",
			Help:      "Order fetches that failed inside a polling batch.",
		}),
		OrderStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "order_status_changes_total",
			Help:      "Observed order status transitions, by new status.",
		}, []string{"status"}),
		OrderPollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "order_poll_duration_seconds",
			Help:      "Wall time of one polling batch from fan-out to fan-in.",
			Buckets:   prometheus.DefBuckets,
		}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "search_requests_total",
			Help:      "Catalog search requests, by outcome.",
		}, []string{"outcome"}),
		CommerceRequestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "commerce_request_duration_seconds",
			Help:      "Commerce backend request latency, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.OrderPolls,
			m.OrderFetchFailures,
			m.OrderStatusChanges,
			m.OrderPollDuration,
			m.SearchRequests,
			m.CommerceRequestTime,
		)
	}
	return m
}

func (m *Metrics) ObservePoll(d time.Duration, failures int) {
	if m == nil {
		return
	}
	m.OrderPolls.Inc()
	m.OrderPollDuration.Observe(d.Seconds())
	m.OrderFetchFailures.Add(float64(failures))
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.OrderStatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) Search(outcome string) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCommerceRequest(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommerceRequestTime.WithLabelValues(op).Observe(d.Seconds())
}
