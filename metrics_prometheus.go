package mqttv3

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics on top of a Prometheus registerer.
// Collectors are created on first use and keyed by metric name; the label
// keys seen on first use become the collector's label names.
type PrometheusMetrics struct {
	registerer prometheus.Registerer
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a Prometheus-backed Metrics.
// A nil registerer means prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusMetrics{
		registerer: registerer,
		buckets:    prometheus.ExponentialBuckets(2, 4, 10),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Counter returns a counter metric.
func (p *PrometheusMetrics) Counter(name string, labels MetricLabels) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name,
			Help: "MQTT client counter " + name + ".",
		}, labelNames(labels))
		vec = register(p.registerer, vec)
		p.counters[name] = vec
	}

	return vec.With(prometheus.Labels(labels))
}

// Gauge returns a gauge metric.
func (p *PrometheusMetrics) Gauge(name string, labels MetricLabels) Gauge {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: "MQTT client gauge " + name + ".",
		}, labelNames(labels))
		vec = register(p.registerer, vec)
		p.gauges[name] = vec
	}

	return vec.With(prometheus.Labels(labels))
}

// Histogram returns a histogram metric.
func (p *PrometheusMetrics) Histogram(name string, labels MetricLabels) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    "MQTT client histogram " + name + ".",
			Buckets: p.buckets,
		}, labelNames(labels))
		vec = register(p.registerer, vec)
		p.histograms[name] = vec
	}

	return vec.With(prometheus.Labels(labels))
}

func labelNames(labels MetricLabels) []string {
	if len(labels) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(labels))
}

// register adds c to r, reusing an identical collector that is already registered.
func register[T prometheus.Collector](r prometheus.Registerer, c T) T {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
