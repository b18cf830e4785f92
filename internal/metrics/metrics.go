// Package metrics defines the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry. It satisfies
// the notify and engagement observer interfaces.
type Metrics struct {
	registry *prometheus.Registry

	Deliveries       *prometheus.CounterVec
	DeliveryDuration *prometheus.HistogramVec
	VisitorsCreated  prometheus.Counter
	AuthRejections   *prometheus.CounterVec
	Broadcasts       *prometheus.CounterVec
	RateLimited      prometheus.Counter
}

// New registers every collector on a fresh registry, alongside the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_deliveries_total",
			Help: "Mail delivery attempts by message kind and outcome",
		}, []string{"kind", "outcome"}),
		DeliveryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_delivery_duration_seconds",
			Help:    "Time spent in the mail transport per delivery attempt",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		VisitorsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_visitors_created_total",
			Help: "Visitors registered for the first time",
		}),
		AuthRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_auth_rejections_total",
			Help: "Refused logins and token verifications by reason",
		}, []string{"reason"}),
		Broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_broadcasts_total",
			Help: "Broadcasts started by kind",
		}, []string{"kind"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_rate_limited_requests_total",
			Help: "Requests refused by the per-client rate limiter",
		}),
	}
}

// Delivery implements notify.Observer.
func (m *Metrics) Delivery(kind string, ok bool, elapsed time.Duration) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.Deliveries.WithLabelValues(kind, outcome).Inc()
	m.DeliveryDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// AuthRejected counts a refused authentication.
func (m *Metrics) AuthRejected(reason string) {
	m.AuthRejections.WithLabelValues(reason).Inc()
}

// VisitorCreated counts a newly registered visitor.
func (m *Metrics) VisitorCreated() {
	m.VisitorsCreated.Inc()
}

// BroadcastStarted counts a newsletter or announcement send.
func (m *Metrics) BroadcastStarted(kind string) {
	m.Broadcasts.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
