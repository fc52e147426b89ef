package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	WebhooksReceived  *prometheus.CounterVec
	WebhooksProcessed *prometheus.CounterVec
	WebhookDuration   *prometheus.HistogramVec
	OAuthCallbacks    *prometheus.CounterVec
	OrdersSynced      prometheus.Counter
}

// New registers the service collectors on the given registry. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry so
// collectors never collide across cases.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WebhooksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "webhooks_received_total",
			Help:      "Webhook deliveries received, by topic and verification outcome.",
		}, []string{"topic", "outcome"}),
		WebhooksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "webhooks_processed_total",
			Help:      "Webhook events dispatched, by topic and status.",
		}, []string{"topic", "status"}),
		WebhookDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orderdesk",
			Name:      "webhook_processing_seconds",
			Help:      "Time spent processing a webhook event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
		OAuthCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "oauth_callbacks_total",
			Help:      "OAuth callback results, by redirect code.",
		}, []string{"result"}),
		OrdersSynced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "orders_synced_total",
			Help:      "Orders upserted through manual sync.",
		}),
	}
}
