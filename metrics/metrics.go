// Package metrics records build statistics in a prometheus registry, to be
// written to a node_exporter textfile after a build.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pressroom"

// Recorder holds the build metrics. A nil *Recorder discards everything.
type Recorder struct {
	reg           *prom.Registry
	pages         *prom.CounterVec
	passthrough   prom.Counter
	failures      *prom.CounterVec
	warnings      prom.Counter
	buildDuration prom.Gauge
	lastBuild     prom.Gauge
}

func New() *Recorder {
	r := &Recorder{
		reg: prom.NewRegistry(),
		pages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages processed by result",
		}, []string{"result"}),
		passthrough: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "passthrough_copies_total",
			Help:      "Passthrough paths copied to the output directory",
		}),
		failures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transform_failures_total",
			Help:      "Transform failures by transform and stage",
		}, []string{"transform", "stage"}),
		warnings: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Non-fatal warnings reported by builds",
		}),
		buildDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of the last build",
		}),
		lastBuild: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time the last build finished",
		}),
	}
	r.reg.MustRegister(r.pages, r.passthrough, r.failures, r.warnings, r.buildDuration, r.lastBuild)
	return r
}

// Registry exposes the underlying registry, for serving or gathering.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// IncPage counts a processed page. result is one of "written", "unchanged"
// or "error".
func (r *Recorder) IncPage(result string) {
	if r == nil {
		return
	}
	r.pages.WithLabelValues(result).Inc()
}

func (r *Recorder) IncPassthrough() {
	if r == nil {
		return
	}
	r.passthrough.Inc()
}

func (r *Recorder) IncTransformFailure(transform, stage string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(transform, stage).Inc()
}

func (r *Recorder) AddWarnings(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.warnings.Add(float64(n))
}

func (r *Recorder) ObserveBuild(d time.Duration, finished time.Time) {
	if r == nil {
		return
	}
	r.buildDuration.Set(d.Seconds())
	r.lastBuild.Set(float64(finished.Unix()))
}

// WriteTextfile writes the metrics in the text exposition format to p,
// atomically.
func (r *Recorder) WriteTextfile(p string) error {
	if r == nil {
		return nil
	}
	return prom.WriteToTextfile(p, r.reg)
}
