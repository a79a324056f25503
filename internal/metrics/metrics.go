// Package metrics defines the chat node's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/monitoring"
)

// Metrics holds all Prometheus metrics for the chat node.
type Metrics struct {
	// Session metrics
	Sessions     *prometheus.GaugeVec // {"kind"}: client | peer
	KnownServers prometheus.Gauge
	HangUps      *prometheus.CounterVec // {"reason"}

	// Frame metrics
	FramesTotal *prometheus.CounterVec // {"direction", "purpose"}

	// Routing metrics
	MessagesRouted *prometheus.CounterVec // {"route", "status"}
	AcksPending    prometheus.Gauge

	// Feature metrics
	GroupsActive      prometheus.Gauge
	RemindersQueued   prometheus.Gauge
	TranslateRequests *prometheus.CounterVec   // {"status"}
	TranslateDuration *prometheus.HistogramVec // {"backend"}

	// Event fan-out metrics
	EventsPublished *prometheus.CounterVec // {"type"}
	KafkaMessages   *prometheus.CounterVec // {"topic", "status"}
}

// New registers the node's instruments on the collector.
func New(mc *monitoring.MetricsCollector) *Metrics {
	m := &Metrics{
		Sessions:          mc.NewGauge("sessions_active", "Active TCP sessions by kind", []string{"kind"}),
		HangUps:           mc.NewCounter("hangups_total", "HANGUP frames sent by reason", []string{"reason"}),
		FramesTotal:       mc.NewCounter("frames_total", "Frames processed by direction and purpose", []string{"direction", "purpose"}),
		MessagesRouted:    mc.NewCounter("messages_routed_total", "Chat messages routed by path and outcome", []string{"route", "status"}),
		TranslateRequests: mc.NewCounter("translate_requests_total", "Translation requests by outcome", []string{"status"}),
		TranslateDuration: mc.NewHistogram("translate_duration_seconds", "Translation backend latency", []string{"backend"}, nil),
		EventsPublished:   mc.NewCounter("events_published_total", "Observer events published", []string{"type"}),
		KafkaMessages:     mc.NewCounter("kafka_messages_total", "Kafka events by topic and outcome", []string{"topic", "status"}),
	}

	m.KnownServers = mc.NewPlainGauge("known_servers", "Servers currently in the discovery table")
	m.AcksPending = mc.NewPlainGauge("acks_pending", "Message forwards awaiting MESSAGE_ACK")
	m.GroupsActive = mc.NewPlainGauge("groups_active", "Groups in the local registry")
	m.RemindersQueued = mc.NewPlainGauge("reminders_queued", "Reminders waiting to fire")

	return m
}

// NewNop returns metrics bound to a throwaway collector, for tests that do
// not assert on instrument values.
func NewNop() *Metrics {
	return New(monitoring.NewMetricsCollector("chatserver-test", "dev", "none"))
}
