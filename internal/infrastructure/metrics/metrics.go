package metrics

import (
	"net/http"

	"shopify-auth-layer/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records shop user and install metrics in Prometheus
type Collector struct {
	shopUsersCreated  prometheus.Counter
	installsCompleted prometheus.Counter
	installsFailed    *prometheus.CounterVec
	webhooksReceived  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		shopUsersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopify_auth_shop_users_created_total",
			Help: "Number of shop users created",
		}),
		installsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopify_auth_installs_completed_total",
			Help: "Number of completed OAuth installs",
		}),
		installsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_auth_installs_failed_total",
			Help: "Number of failed OAuth installs by reason",
		}, []string{"reason"}),
		webhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_auth_webhooks_received_total",
			Help: "Number of verified webhooks by topic",
		}, []string{"topic"}),
	}

	reg.MustRegister(c.shopUsersCreated, c.installsCompleted, c.installsFailed, c.webhooksReceived)
	return c
}

func (c *Collector) RecordShopUserCreated() {
	c.shopUsersCreated.Inc()
}

func (c *Collector) RecordInstallCompleted() {
	c.installsCompleted.Inc()
}

func (c *Collector) RecordInstallFailed(reason string) {
	c.installsFailed.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordWebhookReceived(topic string) {
	c.webhooksReceived.WithLabelValues(topic).Inc()
}

// Handler exposes the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards all metrics
type Nop struct{}

func (Nop) RecordShopUserCreated()       {}
func (Nop) RecordInstallCompleted()      {}
func (Nop) RecordInstallFailed(string)   {}
func (Nop) RecordWebhookReceived(string) {}

var (
	_ ports.MetricsRecorder = (*Collector)(nil)
	_ ports.MetricsRecorder = Nop{}
)
