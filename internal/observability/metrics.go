package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/beamscene/core"
)

// SceneCollector bundles Prometheus metrics for scene loading and the HTTP
// surface that serves the vertex buffers.
type SceneCollector struct {
	gatherer prometheus.Gatherer

	Loads         *prometheus.CounterVec
	LoadDurations prometheus.Histogram
	Points        *prometheus.GaugeVec
	Beams         prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
}

// NewSceneCollector registers metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewSceneCollector(reg prometheus.Registerer) (*SceneCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	loads, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beamscene_scene_loads_total",
		Help: "Scene loads, labeled by result (ok, malformed_record, dangling_reference, error).",
	}, []string{"result"}), "beamscene_scene_loads_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "beamscene_scene_load_duration_seconds",
		Help:    "Time to parse and pack a scene.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}), "beamscene_scene_load_duration_seconds")
	if err != nil {
		return nil, err
	}

	points, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "beamscene_scene_points",
		Help: "Points in the current scene, labeled by kind.",
	}, []string{"kind"}), "beamscene_scene_points")
	if err != nil {
		return nil, err
	}

	beams, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beamscene_scene_beams",
		Help: "Beam lines in the current scene.",
	}), "beamscene_scene_beams")
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beamscene_http_requests_total",
		Help: "HTTP requests served, labeled by route and status code.",
	}, []string{"route", "code"}), "beamscene_http_requests_total")
	if err != nil {
		return nil, err
	}

	return &SceneCollector{
		gatherer:      gatherer,
		Loads:         loads,
		LoadDurations: durations,
		Points:        points,
		Beams:         beams,
		HTTPRequests:  requests,
	}, nil
}

// ObserveSceneLoad satisfies core.MetricsRecorder. It counts the attempt
// only; the gauges follow the served scene through ObserveScene.
func (c *SceneCollector) ObserveSceneLoad(_ core.LoadStats, dur time.Duration, err error) {
	if c == nil {
		return
	}
	c.Loads.WithLabelValues(LoadResult(err)).Inc()
	c.LoadDurations.Observe(dur.Seconds())
}

// ObserveScene sets the scene gauges to the counts of the scene now being
// served.
func (c *SceneCollector) ObserveScene(stats core.LoadStats) {
	if c == nil {
		return
	}
	c.Points.WithLabelValues("user").Set(float64(stats.Users))
	c.Points.WithLabelValues("satellite").Set(float64(stats.Satellites))
	c.Points.WithLabelValues("interferer").Set(float64(stats.Interferers))
	c.Beams.Set(float64(stats.Beams))
}

// ObserveHTTP counts one served request.
func (c *SceneCollector) ObserveHTTP(route string, code int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SceneCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// LoadResult maps a LoadScene error to a metric label.
func LoadResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, core.ErrDanglingReference):
		return "dangling_reference"
	default:
		return "error"
	}
}

// register adds c to reg, returning the already-registered collector of
// the same type when present.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
