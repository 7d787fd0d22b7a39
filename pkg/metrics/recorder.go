package metrics

import "reqbench/pkg/report"

// InjectOutcome says what happened to the report of an HTTP execution
type InjectOutcome string

const (
	InjectInjected InjectOutcome = "injected"
	InjectAppended InjectOutcome = "appended"
	InjectSkipped  InjectOutcome = "skipped"
)

// Recorder receives every finalized execution
type Recorder interface {
	ObserveExecution(s report.Summary)
	IncReport(outcome InjectOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveExecution(report.Summary) {}
func (NoopRecorder) IncReport(InjectOutcome)          {}
