package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ListsCreated        prometheus.Counter
	ItemsCreated        prometheus.Counter
	ListCreationFailed  *prometheus.CounterVec
	ListCreationLatency prometheus.Histogram
	OCRStatusChanges    *prometheus.CounterVec
	LiveSubscriptions   prometheus.Gauge
}

// New creates the metrics and registers them with reg. Passing a fresh
// registry keeps tests independent of the global one.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ListsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "listsnap_lists_created_total",
			Help: "Shopping lists created from recognized text",
		}),
		ItemsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "listsnap_items_created_total",
			Help: "Items inserted while creating lists from recognized text",
		}),
		ListCreationFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listsnap_list_creation_failures_total",
			Help: "List creations that did not commit, by error code",
		}, []string{"code"}),
		ListCreationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "listsnap_list_creation_duration_seconds",
			Help:    "Time to parse text and commit the resulting list",
			Buckets: prometheus.DefBuckets,
		}),
		OCRStatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "listsnap_ocr_status_changes_total",
			Help: "Photo OCR status transitions, by target status",
		}, []string{"status"}),
		LiveSubscriptions: f.NewGauge(prometheus.GaugeOpts{
			Name: "listsnap_live_subscriptions",
			Help: "Open websocket list streams",
		}),
	}
}

// NewNoop returns metrics registered with a private registry.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveListCreated(items int, seconds float64) {
	m.ListsCreated.Inc()
	m.ItemsCreated.Add(float64(items))
	m.ListCreationLatency.Observe(seconds)
}

func (m *Metrics) ObserveListCreationFailed(code string) {
	m.ListCreationFailed.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveOCRStatus(status string) {
	m.OCRStatusChanges.WithLabelValues(status).Inc()
}
