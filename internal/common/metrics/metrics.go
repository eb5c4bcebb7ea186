package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drone_delivery"

type Metrics struct {
	NotificationsEnqueued prometheus.Counter
	EnqueueFailures       prometheus.Counter
	WeatherFallbacks      prometheus.Counter
	DronesForced          prometheus.Counter
	Dispatched            *prometheus.CounterVec // outcome
	ChannelSends          *prometheus.CounterVec // channel, result
	BrokerConnected       prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New регистрирует метрики в reg. В тестах подойдёт prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NotificationsEnqueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_enqueued_total",
			Help: "Notification requests published to the broker.",
		}),
		EnqueueFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "notification_enqueue_failures_total",
			Help: "Notification requests that could not be published.",
		}),
		WeatherFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "weather_fallbacks_total",
			Help: "Weather checks answered by the safe fallback.",
		}),
		DronesForced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "drones_forced_available_total",
			Help: "Drones forced to Available because none was free.",
		}),
		Dispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_dispatched_total",
			Help: "Queued notifications by terminal outcome.",
		}, []string{"outcome"}),
		ChannelSends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notification_channel_sends_total",
			Help: "Per-channel send attempts.",
		}, []string{"channel", "result"}),
		BrokerConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "broker_connected",
			Help: "1 while the consumer holds a broker channel.",
		}),
		gatherer: reg,
	}
}

// NewNop: метрики на отдельном реестре, для тестов и утилит.
func NewNop() *Metrics { return New(prometheus.NewRegistry()) }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
