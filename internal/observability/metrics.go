package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NavigationCollector bundles Prometheus metrics for the navigator and the
// propagation driver. It satisfies core.NavigationMetrics and
// core.PropagationMetrics.
type NavigationCollector struct {
	gatherer prometheus.Gatherer

	NavigatorCalls        *prometheus.CounterVec
	KernelInitializations *prometheus.CounterVec
	KernelExhaustions     *prometheus.CounterVec
	VolumeSwitches        prometheus.Counter

	PropagationSteps prometheus.Histogram
	Tracks           *prometheus.CounterVec
	BatchDuration    prometheus.Histogram
	Workers          prometheus.Gauge
}

// NewNavigationCollector registers navigation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewNavigationCollector(reg prometheus.Registerer) (*NavigationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	calls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navigator_calls_total",
		Help: "Navigator entry point calls that did work, labeled by call (status or target).",
	}, []string{"call"}), "navigator_calls_total")
	if err != nil {
		return nil, err
	}

	inits, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navigator_kernel_initializations_total",
		Help: "Full intersect-all passes over a volume's objects, labeled by object kind.",
	}, []string{"kind"}), "navigator_kernel_initializations_total")
	if err != nil {
		return nil, err
	}

	exhaustions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navigator_kernel_exhaustions_total",
		Help: "Incremental updates that ran out of candidates, labeled by object kind.",
	}, []string{"kind"}), "navigator_kernel_exhaustions_total")
	if err != nil {
		return nil, err
	}

	switches, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navigator_volume_switches_total",
		Help: "Portal crossings that moved a track into another volume or out of the world.",
	}), "navigator_volume_switches_total")
	if err != nil {
		return nil, err
	}

	steps, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagation_steps",
		Help:    "Number of stepper steps taken per propagated track.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}), "propagation_steps")
	if err != nil {
		return nil, err
	}

	tracks, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propagation_tracks_total",
		Help: "Propagated tracks, labeled by outcome.",
	}, []string{"outcome"}), "propagation_tracks_total")
	if err != nil {
		return nil, err
	}

	batch, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagation_batch_duration_seconds",
		Help:    "Wall time of a full batch propagation.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "propagation_batch_duration_seconds")
	if err != nil {
		return nil, err
	}

	workers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "propagation_workers",
		Help: "Number of concurrent propagation workers of the current batch.",
	}), "propagation_workers")
	if err != nil {
		return nil, err
	}

	return &NavigationCollector{
		gatherer:              gatherer,
		NavigatorCalls:        calls,
		KernelInitializations: inits,
		KernelExhaustions:     exhaustions,
		VolumeSwitches:        switches,
		PropagationSteps:      steps,
		Tracks:                tracks,
		BatchDuration:         batch,
		Workers:               workers,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *NavigationCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *NavigationCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *NavigationCollector) IncNavigatorCall(call string) {
	if c == nil || c.NavigatorCalls == nil {
		return
	}
	c.NavigatorCalls.WithLabelValues(call).Inc()
}

func (c *NavigationCollector) IncKernelInitialization(kind string) {
	if c == nil || c.KernelInitializations == nil {
		return
	}
	c.KernelInitializations.WithLabelValues(kind).Inc()
}

func (c *NavigationCollector) IncKernelExhaustion(kind string) {
	if c == nil || c.KernelExhaustions == nil {
		return
	}
	c.KernelExhaustions.WithLabelValues(kind).Inc()
}

func (c *NavigationCollector) IncVolumeSwitch() {
	if c == nil || c.VolumeSwitches == nil {
		return
	}
	c.VolumeSwitches.Inc()
}

// ObserveSteps records the step count of one propagated track.
func (c *NavigationCollector) ObserveSteps(steps int) {
	if c == nil || c.PropagationSteps == nil {
		return
	}
	c.PropagationSteps.Observe(float64(steps))
}

// IncTrack counts one propagated track by outcome.
func (c *NavigationCollector) IncTrack(outcome string) {
	if c == nil || c.Tracks == nil {
		return
	}
	c.Tracks.WithLabelValues(outcome).Inc()
}

// ObserveBatch records the wall time of a batch run.
func (c *NavigationCollector) ObserveBatch(d time.Duration) {
	if c == nil || c.BatchDuration == nil {
		return
	}
	c.BatchDuration.Observe(d.Seconds())
}

// SetWorkers updates the worker gauge.
func (c *NavigationCollector) SetWorkers(n int) {
	if c == nil || c.Workers == nil {
		return
	}
	c.Workers.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
