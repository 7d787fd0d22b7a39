package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// Execution describes one finalized profiler run for the log
type Execution struct {
	ID          string
	Method      string
	Path        string
	Status      int
	DurationMs  int64
	PeakMemory  uint64
	Checkpoints int
}

// LogExecution logs a finalized execution at debug level
func LogExecution(l Logger, e Execution) {
	fields := map[string]interface{}{
		"execution":   e.ID,
		"duration_ms": e.DurationMs,
		"peak_memory": e.PeakMemory,
		"checkpoints": e.Checkpoints,
	}
	if e.Method != "" {
		fields["method"] = e.Method
		fields["path"] = e.Path
		fields["status"] = e.Status
	}
	l.DebugWithFields("Execution finalized", fields)
}

// LogMemoryWarning logs an execution whose peak memory went over limit
func LogMemoryWarning(l Logger, e Execution, limit uint64) {
	l.WarnWithFields("Execution exceeded memory warning threshold", map[string]interface{}{
		"execution":   e.ID,
		"path":        e.Path,
		"peak_memory": e.PeakMemory,
		"limit":       limit,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)
	if len(config) > 0 {
		logger = logger.WithFields(config)
	}
	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(string)                                  {}
func (n *nopLogger) Info(string)                                   {}
func (n *nopLogger) Warn(string)                                   {}
func (n *nopLogger) Error(string)                                  {}
func (n *nopLogger) WithField(string, interface{}) Logger          { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger      { return n }
func (n *nopLogger) WithError(error) Logger                        { return n }
func (n *nopLogger) WithContext(context.Context) Logger            { return n }
func (n *nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                   { return nil }
