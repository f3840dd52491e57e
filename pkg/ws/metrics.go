package ws

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Причины отключения для метрики disconnects_total.
const (
	reasonExplicit     = "explicit"
	reasonReadError    = "read_error"
	reasonWriteError   = "write_error"
	reasonServerClosed = "server_closed"
)

// MetricsConfig configures the Prometheus collectors of a Server.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "stnet").
	Namespace string

	// Subsystem is the metrics subsystem (default: "server").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "stnet",
		Subsystem: "server",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics собирает счётчики сервера. Nil *Metrics допустим и ничего не делает.
type Metrics struct {
	activeConnections prometheus.Gauge
	connectionsTotal  prometheus.Counter
	disconnectsTotal  *prometheus.CounterVec
	handshakeFailures prometheus.Counter
	messagesReceived  prometheus.Counter
	messagesSent      prometheus.Counter
	httpResponses     *prometheus.CounterVec
	updateEvents      prometheus.Histogram
}

func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "active_connections",
			Help:        "Number of registered WebSocket connections",
			ConstLabels: cfg.ConstLabels,
		}),

		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "connections_total",
			Help:        "Total number of completed upgrade handshakes",
			ConstLabels: cfg.ConstLabels,
		}),

		disconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "disconnects_total",
			Help:        "Total number of disconnected connections by reason",
			ConstLabels: cfg.ConstLabels,
		}, []string{"reason"}),

		handshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "handshake_failures_total",
			Help:        "Total number of failed upgrade handshakes",
			ConstLabels: cfg.ConstLabels,
		}),

		messagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "messages_received_total",
			Help:        "Total number of frames read from connections",
			ConstLabels: cfg.ConstLabels,
		}),

		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "messages_sent_total",
			Help:        "Total number of frames written to connections",
			ConstLabels: cfg.ConstLabels,
		}),

		httpResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "http_responses_total",
			Help:        "Total number of plain HTTP responses by status code",
			ConstLabels: cfg.ConstLabels,
		}, []string{"code"}),

		updateEvents: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "update_events",
			Help:        "Number of transport completions handled per Update call",
			ConstLabels: cfg.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 50, 100, 500},
		}),
	}
}

func (m *Metrics) connected() {
	if m == nil {
		return
	}

	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

func (m *Metrics) disconnected(reason string) {
	if m == nil {
		return
	}

	m.disconnectsTotal.WithLabelValues(reason).Inc()
	m.activeConnections.Dec()
}

func (m *Metrics) handshakeFailed() {
	if m == nil {
		return
	}

	m.handshakeFailures.Inc()
}

func (m *Metrics) received() {
	if m == nil {
		return
	}

	m.messagesReceived.Inc()
}

func (m *Metrics) sent() {
	if m == nil {
		return
	}

	m.messagesSent.Inc()
}

func (m *Metrics) httpResponse(code int) {
	if m == nil {
		return
	}

	m.httpResponses.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) updated(events int) {
	if m == nil {
		return
	}

	m.updateEvents.Observe(float64(events))
}
