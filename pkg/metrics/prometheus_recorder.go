package metrics

import (
	"strconv"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"

	"reqbench/pkg/ledger"
	"reqbench/pkg/report"
)

const namespace = "reqbench"

// PrometheusRecorder implements Recorder using Prometheus metrics.
// Checkpoint labels become the checkpoint label of segment_duration_seconds,
// so hosts must keep them bounded: no IDs or other per-request values.
type PrometheusRecorder struct {
	executionDuration prom.Histogram
	segmentDuration   *prom.HistogramVec
	checkpoints       prom.Histogram
	peakMemory        prom.Gauge
	executions        prom.Counter
	reports           *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.executionDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "execution_duration_seconds",
		Help:      "Total duration of profiled executions",
		Buckets:   prom.DefBuckets,
	})
	pr.segmentDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "segment_duration_seconds",
		Help:      "Duration of the segment ending at each checkpoint",
		Buckets:   prom.DefBuckets,
	}, []string{"checkpoint"})
	pr.checkpoints = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "checkpoints_per_execution",
		Help:      "Number of checkpoints recorded per execution",
		Buckets:   prom.LinearBuckets(2, 4, 10),
	})
	pr.peakMemory = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "peak_memory_bytes",
		Help:      "Peak memory observed by the last finalized execution",
	})
	pr.executions = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "executions_total",
		Help:      "Number of finalized executions",
	})
	pr.reports = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "reports_total",
		Help:      "HTTP report outcomes",
	}, []string{"outcome"})
	reg.MustRegister(pr.executionDuration, pr.segmentDuration, pr.checkpoints, pr.peakMemory, pr.executions, pr.reports)
	return pr
}

func (p *PrometheusRecorder) ObserveExecution(s report.Summary) {
	if p == nil || p.executions == nil {
		return
	}
	p.executions.Inc()
	p.executionDuration.Observe(msToSeconds(s.ExecutionTimeMs))
	p.checkpoints.Observe(float64(s.CheckpointCount))
	p.peakMemory.Set(float64(s.PeakMemory))
	for _, cp := range s.Checkpoints {
		p.segmentDuration.WithLabelValues(segmentLabel(cp.Key)).Observe(msToSeconds(cp.Value))
	}
}

func (p *PrometheusRecorder) IncReport(outcome InjectOutcome) {
	if p == nil || p.reports == nil {
		return
	}
	p.reports.WithLabelValues(string(outcome)).Inc()
}

// segmentLabel strips the "#N" suffix and folds the generated "Check Point N"
// labels into one series
func segmentLabel(key string) string {
	label := report.StripDisambiguator(key)
	if n, ok := strings.CutPrefix(label, ledger.DefaultLabelPrefix); ok {
		if _, err := strconv.Atoi(n); err == nil {
			return strings.TrimSpace(ledger.DefaultLabelPrefix)
		}
	}
	return label
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}
