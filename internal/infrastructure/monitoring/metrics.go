package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Wait names used as label values
const (
	WaitDataReady   = "data_ready"
	WaitLiveness    = "liveness"
	WaitMultiplexer = "multiplexer"
)

// Metrics holds all Prometheus metrics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Channel metrics
	ChannelSends      *prometheus.CounterVec
	ChannelOverwrites *prometheus.CounterVec
	ChannelReceives   *prometheus.CounterVec

	// Controller metrics
	WaitTimeouts      *prometheus.CounterVec
	MultiplexerMisses *prometheus.CounterVec
	CycleDuration     *prometheus.HistogramVec
	ControllerActive  *prometheus.GaugeVec
	Failovers         prometheus.Counter

	// Task metrics
	TaskTerminations *prometheus.CounterVec

	// Operator HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	startTime time.Time
}

// NewMetrics creates a new metrics collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		ChannelSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlink_channel_sends_total",
				Help: "Total number of values sent to a channel",
			},
			[]string{"channel"},
		),
		ChannelOverwrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlink_channel_overwrites_total",
				Help: "Total number of unreceived values lost to a newer send",
			},
			[]string{"channel"},
		),
		ChannelReceives: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlink_channel_receives_total",
				Help: "Total number of values drained from a channel",
			},
			[]string{"channel", "controller"},
		),

		WaitTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlink_wait_timeouts_total",
				Help: "Total number of waits that timed out",
			},
			[]string{"controller", "wait"},
		),
		MultiplexerMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlink_multiplexer_misses_total",
				Help: "Data-ready flag observed but no channel could be drained",
			},
			[]string{"controller"},
		),
		CycleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sensorlink_controller_cycle_duration_seconds",
				Help:    "Controller cycle duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .2, .3, .5, .75, 1},
			},
			[]string{"controller", "role"},
		),
		ControllerActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sensorlink_controller_active",
				Help: "1 while a controller is the active consumer",
			},
			[]string{"controller", "role"},
		),
		Failovers: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sensorlink_failovers_total",
				Help: "Total number of reserve takeovers",
			},
		),

		TaskTerminations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlink_task_terminations_total",
				Help: "Total number of tasks removed with terminate",
			},
			[]string{"task"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlink_http_requests_total",
				Help: "Total number of operator HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sensorlink_http_request_duration_seconds",
				Help:    "Operator HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sensorlink_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry every metric is registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSend records a channel send and whether it overwrote a value
func (m *Metrics) RecordSend(channel string, overwrote bool) {
	if m == nil {
		return
	}
	m.ChannelSends.WithLabelValues(channel).Inc()
	if overwrote {
		m.ChannelOverwrites.WithLabelValues(channel).Inc()
	}
}

// RecordReceive records a value drained by a controller
func (m *Metrics) RecordReceive(channel, controller string) {
	if m == nil {
		return
	}
	m.ChannelReceives.WithLabelValues(channel, controller).Inc()
}

// RecordTimeout records a wait that timed out
func (m *Metrics) RecordTimeout(controller, wait string) {
	if m == nil {
		return
	}
	m.WaitTimeouts.WithLabelValues(controller, wait).Inc()
}

// RecordMiss records a data-ready flag that led to nothing to drain
func (m *Metrics) RecordMiss(controller string) {
	if m == nil {
		return
	}
	m.MultiplexerMisses.WithLabelValues(controller).Inc()
}

// RecordCycle records one controller cycle
func (m *Metrics) RecordCycle(controller, role string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CycleDuration.WithLabelValues(controller, role).Observe(duration.Seconds())
}

// SetActive marks a controller as the active consumer or not
func (m *Metrics) SetActive(controller, role string, active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.ControllerActive.WithLabelValues(controller, role).Set(v)
}

// IncFailovers increments the failover counter
func (m *Metrics) IncFailovers() {
	if m == nil {
		return
	}
	m.Failovers.Inc()
}

// RecordTermination records a task removed with terminate
func (m *Metrics) RecordTermination(task string) {
	if m == nil {
		return
	}
	m.TaskTerminations.WithLabelValues(task).Inc()
}

// RecordHTTPRequest records an operator HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
