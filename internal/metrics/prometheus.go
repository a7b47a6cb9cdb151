package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CallsPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calls_placed_total",
			Help: "Total outbound calls placed per tenant",
		},
		[]string{"tenant"},
	)

	LeadsScraped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_scraped_total",
			Help: "Total leads scraped per tenant",
		},
		[]string{"tenant"},
	)

	LoopActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "automation_loop_active",
			Help: "Whether a tenant's automation loop is running (0 or 1)",
		},
		[]string{"tenant"},
	)

	QuotaPauses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_pauses_total",
			Help: "Tenants auto-paused after exhausting their monthly call quota",
		},
	)

	TransfersCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transfers_completed_total",
			Help: "Hot-lead transfers handed to a sales rep",
		},
	)

	HotLeadsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hot_leads_detected_total",
			Help: "Hot leads detected per tenant",
		},
		[]string{"tenant"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "call_queue_depth",
			Help: "Pending outbound calls per tenant queue",
		},
		[]string{"tenant"},
	)

	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Tenants currently in trial or active status",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(CallsPlaced)
	prometheus.MustRegister(LeadsScraped)
	prometheus.MustRegister(LoopActive)
	prometheus.MustRegister(QuotaPauses)
	prometheus.MustRegister(TransfersCompleted)
	prometheus.MustRegister(HotLeadsDetected)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(ActiveTenants)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
