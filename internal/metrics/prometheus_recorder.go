package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	published      *prom.CounterVec
	publishedBytes *prom.CounterVec
	rewritten      *prom.CounterVec
	skipped        *prom.CounterVec
	pageDuration   prom.Histogram
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		published: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "extassets",
			Name:      "assets_published_total",
			Help:      "Asset files copied into the site, by mapping prefix",
		}, []string{"mapping"}),
		publishedBytes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "extassets",
			Name:      "assets_published_bytes_total",
			Help:      "Bytes copied into the site, by mapping prefix",
		}, []string{"mapping"}),
		rewritten: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "extassets",
			Name:      "references_rewritten_total",
			Help:      "HTML attributes rewritten to a published URL",
		}, []string{"mapping"}),
		skipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "extassets",
			Name:      "references_skipped_total",
			Help:      "References left untouched, by reason",
		}, []string{"reason"}),
		pageDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "extassets",
			Name:      "page_rewrite_duration_seconds",
			Help:      "Time spent rewriting one page",
			Buckets:   prom.DefBuckets,
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "extassets",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "extassets",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.published, pr.publishedBytes, pr.rewritten, pr.skipped, pr.pageDuration, pr.buildDuration, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) IncPublished(mapping string) {
	if p == nil {
		return
	}
	p.published.WithLabelValues(mapping).Inc()
}

func (p *PrometheusRecorder) ObservePublishedBytes(mapping string, n int64) {
	if p == nil {
		return
	}
	p.publishedBytes.WithLabelValues(mapping).Add(float64(n))
}

func (p *PrometheusRecorder) IncRewritten(mapping string) {
	if p == nil {
		return
	}
	p.rewritten.WithLabelValues(mapping).Inc()
}

func (p *PrometheusRecorder) IncSkipped(reason SkipReason) {
	if p == nil {
		return
	}
	p.skipped.WithLabelValues(string(reason)).Inc()
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcome) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}
