package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	stageDuration      *prom.HistogramVec
	buildDuration      prom.Histogram
	buildOutcome       *prom.CounterVec
	summaryResults     *prom.CounterVec
	generationDuration prom.Histogram
	mergeGaps          prom.Counter
	mergedFiles        prom.Counter
	lastBuild          prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "llmdocs",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "llmdocs",
			Name:      "build_duration_seconds",
			Help:      "Total pipeline duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "llmdocs",
			Name:      "build_outcomes_total",
			Help:      "Pipeline outcomes by final status",
		}, []string{"outcome"})
		pr.summaryResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "llmdocs",
			Name:      "summary_results_total",
			Help:      "Docref refresh outcomes per directive occurrence",
		}, []string{"result"})
		pr.generationDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "llmdocs",
			Name:      "generation_duration_seconds",
			Help:      "Duration of individual summary generation calls",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		})
		pr.mergeGaps = prom.NewCounter(prom.CounterOpts{
			Namespace: "llmdocs",
			Name:      "merge_gaps_total",
			Help:      "Primary documents with no markdown counterpart",
		})
		pr.mergedFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: "llmdocs",
			Name:      "merged_files_total",
			Help:      "Markdown mirror files written during merges",
		})
		pr.lastBuild = prom.NewGauge(prom.GaugeOpts{
			Namespace: "llmdocs",
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time of the last completed pipeline run",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.summaryResults, pr.generationDuration, pr.mergeGaps, pr.mergedFiles, pr.lastBuild)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncSummaryResult(result SummaryResult) {
	if p == nil || p.summaryResults == nil {
		return
	}
	p.summaryResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveGenerationDuration(d time.Duration) {
	if p == nil || p.generationDuration == nil {
		return
	}
	p.generationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncMergeGap() {
	if p == nil || p.mergeGaps == nil {
		return
	}
	p.mergeGaps.Inc()
}

func (p *PrometheusRecorder) AddMergedFiles(n int) {
	if p == nil || p.mergedFiles == nil || n <= 0 {
		return
	}
	p.mergedFiles.Add(float64(n))
}

func (p *PrometheusRecorder) SetLastBuildTime(t time.Time) {
	if p == nil || p.lastBuild == nil {
		return
	}
	p.lastBuild.Set(float64(t.Unix()))
}
