package benchmark

import (
	"runtime"

	"reqbench/pkg/clock"
	"reqbench/pkg/ledger"
	"reqbench/pkg/memprobe"
	"reqbench/pkg/report"
)

// Labels of the checkpoints every profiler records on creation
const (
	StartLabel = "Start"
	InitLabel  = "Benchmark Init"
)

// selfFile is this source file; checkpoints called from here are internal
var selfFile string

func init() {
	_, selfFile, _, _ = runtime.Caller(0)
}

// Options configures a Profiler
type Options struct {
	Enabled bool
	// Clock defaults to the process clock
	Clock clock.Clock
	// Probe defaults to memprobe.Default()
	Probe memprobe.Probe
	// AssetBase is the URL prefix the HTML widget loads its assets from
	AssetBase string
	// Panel is the widget panel state to render with
	Panel report.PanelState
}

// Point is a checkpoint as seen by the host
type Point struct {
	Label string
	// DurationMs is the segment duration once the profiler is finalized,
	// the absolute instant in ms before that
	DurationMs int64
	Memory     uint64
	File       string
	Line       int
}

// Profiler records the checkpoints of one execution
type Profiler struct {
	enabled   bool
	clock     clock.Clock
	ledger    *ledger.Ledger
	assetBase string
	panel     report.PanelState

	summary  *report.Summary
	html     string
	rendered bool
}

// New creates a profiler. When opts.Enabled is false the profiler is inert and
// allocates nothing beyond itself.
func New(opts Options) *Profiler {
	p := &Profiler{enabled: opts.Enabled}
	if !opts.Enabled {
		return p
	}

	c := opts.Clock
	if c == nil {
		c = clock.Process()
	}
	probe := opts.Probe
	if probe == nil {
		probe = memprobe.Default()
	}

	p.clock = c
	p.ledger = ledger.New(c, probe)
	p.assetBase = opts.AssetBase
	p.panel = opts.Panel
	p.init()
	return p
}

func (p *Profiler) init() {
	// bound to the execution start by the ledger
	p.Checkpoint(StartLabel)
	p.Checkpoint(InitLabel)
}

// Checkpoint marks the end of the current segment. The label is optional;
// unlabeled checkpoints are named "Check Point N".
func (p *Profiler) Checkpoint(label ...string) {
	p.checkpoint(2, label)
}

// checkpoint records a checkpoint attributed to the frame skip levels up
func (p *Profiler) checkpoint(skip int, label []string) {
	if p == nil || !p.enabled {
		return
	}

	tag := ""
	if len(label) > 0 {
		tag = label[0]
	}

	_, file, line, ok := runtime.Caller(skip)
	if !ok || file == selfFile {
		file, line = "", 0
	}

	p.ledger.Record(tag, file, line)
}

// IsEnabled reports whether the profiler records anything
func (p *Profiler) IsEnabled() bool {
	return p != nil && p.enabled
}

// Checkpoints returns the recorded checkpoints in order
func (p *Profiler) Checkpoints() []Point {
	if !p.IsEnabled() {
		return nil
	}

	cps := p.ledger.Checkpoints()
	points := make([]Point, 0, len(cps))
	for _, cp := range cps {
		points = append(points, Point{
			Label:      report.StripDisambiguator(cp.Key),
			DurationMs: cp.Value,
			Memory:     cp.Memory,
			File:       cp.File,
			Line:       cp.Line,
		})
	}
	return points
}

// PeakMemory returns the highest memory reading taken at any checkpoint
func (p *Profiler) PeakMemory() uint64 {
	if !p.IsEnabled() {
		return 0
	}
	return p.ledger.PeakMemory()
}

// ExecutionTimeMs returns the time since the execution started
func (p *Profiler) ExecutionTimeMs() int64 {
	if !p.IsEnabled() {
		return 0
	}
	return clock.ExecutionMs(p.clock)
}

// CheckpointCount returns the number of checkpoints recorded
func (p *Profiler) CheckpointCount() int {
	if !p.IsEnabled() {
		return 0
	}
	return p.ledger.Sequence()
}

// Goroutines returns the number of goroutines currently running in the process
func (p *Profiler) Goroutines() int {
	if !p.IsEnabled() {
		return 0
	}
	return runtime.NumGoroutine()
}

// Finalized reports whether segment durations have been computed
func (p *Profiler) Finalized() bool {
	return p.IsEnabled() && p.summary != nil
}

// Finalize computes segment durations and returns the execution summary.
// Durations are computed on the first call only; later calls return the same summary.
func (p *Profiler) Finalize() report.Summary {
	if !p.IsEnabled() {
		return report.Summary{}
	}
	if p.summary != nil {
		return *p.summary
	}

	final := p.clock.NowMs()
	ledger.ComputeDeltas(p.ledger, final)

	total := final - p.clock.StartMs()
	if total <= 0 {
		total = 1
	}

	p.summary = &report.Summary{
		ExecutionTimeMs: total,
		PeakMemory:      p.ledger.PeakMemory(),
		CheckpointCount: p.ledger.Sequence(),
		Goroutines:      runtime.NumGoroutine(),
		Checkpoints:     p.ledger.Checkpoints(),
		Panel:           p.panel,
		AssetBase:       p.assetBase,
	}
	return *p.summary
}

// FormattedReport finalizes the profiler and returns the HTML report widget.
// It returns "" when the profiler is disabled.
func (p *Profiler) FormattedReport() string {
	if !p.IsEnabled() {
		return ""
	}
	if !p.rendered {
		p.html = report.RenderSummary(p.Finalize())
		p.rendered = true
	}
	return p.html
}

// TextReport finalizes the profiler and returns the report for a terminal
func (p *Profiler) TextReport(opts report.TextOptions) string {
	if !p.IsEnabled() {
		return ""
	}
	return report.RenderText(p.Finalize(), opts)
}
