// Package metrics exposes capture activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/health"
)

const namespace = "monitor_capture"

// Metrics holds the collectors for one capture process. It implements
// capture.Observer.
type Metrics struct {
	registry *prometheus.Registry

	acquireAttempts *prometheus.CounterVec
	framesStale     *prometheus.CounterVec
	targetChanges   prometheus.Counter
	ticks           prometheus.Counter
	state           prometheus.Gauge
	width           prometheus.Gauge
	height          prometheus.Gauge
	renderSeconds   prometheus.Histogram
	previewClients  prometheus.Gauge
	previewFrames   *prometheus.CounterVec
}

var _ capture.Observer = (*Metrics)(nil)

// New creates a Metrics instance with its own registry, including Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		acquireAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquire_attempts_total",
			Help:      "Attempts to create the duplication resource, by result.",
		}, []string{"result"}),
		framesStale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_stale_total",
			Help:      "Duplications torn down after a frame update failed.",
		}, []string{"monitor"}),
		targetChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "target_changes_total",
			Help:      "Foreground window capture target changes.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Frame ticks driven by the host.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Duplication lifecycle state: 0 detached, 1 pending, 2 attached.",
		}),
		width: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "width",
			Help:      "Upright width of the capture in pixels.",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "height",
			Help:      "Upright height of the capture in pixels.",
		}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_seconds",
			Help:      "Time spent rendering one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		previewClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_clients",
			Help:      "Connected preview viewers.",
		}),
		previewFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_frames_total",
			Help:      "Preview frames by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.acquireAttempts,
		m.framesStale,
		m.targetChanges,
		m.ticks,
		m.state,
		m.width,
		m.height,
		m.renderSeconds,
		m.previewClients,
		m.previewFrames,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) AcquireAttempt(_ int, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, capture.ErrMonitorNotFound):
		result = "not_found"
	default:
		result = "failed"
	}
	m.acquireAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) FrameStale(monitor int, _ error) {
	m.framesStale.WithLabelValues(monitorLabel(monitor)).Inc()
}

func (m *Metrics) TargetChanged(capture.Region) { m.targetChanges.Inc() }

func (m *Metrics) StateChanged(s capture.LifecycleState) { m.state.Set(float64(s)) }

// ObserveTick records one tick and the resulting capture size.
func (m *Metrics) ObserveTick(width, height uint32) {
	m.ticks.Inc()
	m.width.Set(float64(width))
	m.height.Set(float64(height))
}

// ObserveRender records the duration of one render pass.
func (m *Metrics) ObserveRender(d time.Duration) {
	m.renderSeconds.Observe(d.Seconds())
}

// SetPreviewClients sets the number of connected preview viewers.
func (m *Metrics) SetPreviewClients(n int) {
	m.previewClients.Set(float64(n))
}

// PreviewFrame counts one preview frame by outcome: sent, unchanged or
// dropped.
func (m *Metrics) PreviewFrame(outcome string) {
	m.previewFrames.WithLabelValues(outcome).Inc()
}

// RegisterProcessStats exports the latest sampler reading as gauges.
func (m *Metrics) RegisterProcessStats(s *health.ProcessSampler) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "CPU usage of the capture process as last sampled.",
		}, func() float64 { return s.Last().CPUPercent }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_threads",
			Help:      "OS threads of the capture process as last sampled.",
		}, func() float64 { return float64(s.Last().Threads) }),
	)
}

func monitorLabel(monitor int) string {
	return strconv.Itoa(monitor)
}
