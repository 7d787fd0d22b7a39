package httpbench

import (
	"bytes"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"reqbench/pkg/benchmark"
	"reqbench/pkg/clock"
	"reqbench/pkg/config"
	"reqbench/pkg/logger"
	"reqbench/pkg/memprobe"
	"reqbench/pkg/metrics"
)

// HeaderExecution carries the execution ID of a profiled response
const HeaderExecution = "X-Benchmark-Execution"

// Middleware profiles requests
type Middleware struct {
	cfg       config.BenchmarkConfig
	blocked   map[string]bool
	warnBytes uint64
	probe     memprobe.Probe
	registry  *benchmark.Registry
	recorder  metrics.Recorder
	log       logger.Logger
	now       func() time.Time
}

// Option configures a Middleware
type Option func(*Middleware)

// WithRegistry registers each request's profiler in r under its execution ID
func WithRegistry(r *benchmark.Registry) Option {
	return func(m *Middleware) { m.registry = r }
}

// WithRecorder sends finalized executions to r
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Middleware) { m.recorder = r }
}

// WithLogger sets the logger; the global logger is used otherwise
func WithLogger(l logger.Logger) Option {
	return func(m *Middleware) { m.log = l }
}

// WithProbe overrides the memory probe selected by the config
func WithProbe(p memprobe.Probe) Option {
	return func(m *Middleware) { m.probe = p }
}

// WithNow overrides the source of request arrival times
func WithNow(now func() time.Time) Option {
	return func(m *Middleware) { m.now = now }
}

// New creates the middleware for cfg
func New(cfg config.BenchmarkConfig, opts ...Option) (*Middleware, error) {
	warn, err := cfg.MemoryWarnBytes()
	if err != nil {
		return nil, err
	}

	m := &Middleware{
		cfg:       cfg,
		blocked:   cfg.BlockedExtensionSet(),
		warnBytes: warn,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.probe == nil {
		if m.probe, err = memprobe.ForSource(cfg.MemorySource); err != nil {
			return nil, err
		}
	}
	if m.registry == nil {
		m.registry = benchmark.NewRegistry()
	}
	if m.recorder == nil {
		m.recorder = metrics.NoopRecorder{}
	}
	if m.log == nil {
		m.log = logger.GetLogger()
	}
	m.log = m.log.WithField("component", "httpbench")

	return m, nil
}

// Registry returns the registry profilers are registered in
func (m *Middleware) Registry() *benchmark.Registry {
	return m.registry
}

// Wrap returns next instrumented. When profiling is disabled next is returned as is.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if !m.cfg.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := benchmark.New(benchmark.Options{
			Enabled:   true,
			Clock:     clock.New(m.now()),
			Probe:     m.probe,
			AssetBase: m.cfg.RoutePrefix,
			Panel:     PanelStateFromRequest(r),
		})

		id := uuid.NewString()
		if err := m.registry.Register(id, p); err != nil {
			m.log.WithError(err).Warn("Failed to register profiler")
		} else {
			defer m.registry.Remove(id)
		}
		w.Header().Set(HeaderExecution, id)

		rw := newResponseWriter(w, r.Method != http.MethodHead && !m.blockedPath(r.URL.Path))
		defer func() {
			rec := recover()
			m.finish(rw, r, p, id, rec != nil)
			if rec != nil {
				panic(rec)
			}
		}()

		next.ServeHTTP(rw, r.WithContext(benchmark.NewContext(r.Context(), p)))
	})
}

// finish finalizes p and sends a buffered response, with the report when it is
// HTML. Streamed, hijacked and panicking responses get no report.
func (m *Middleware) finish(rw *responseWriter, r *http.Request, p *benchmark.Profiler, id string, panicked bool) {
	summary := p.Finalize()
	m.recorder.ObserveExecution(summary)

	exec := logger.Execution{
		ID:          id,
		Method:      r.Method,
		Path:        r.URL.Path,
		Status:      rw.status,
		DurationMs:  summary.ExecutionTimeMs,
		PeakMemory:  summary.PeakMemory,
		Checkpoints: summary.CheckpointCount,
	}
	logger.LogExecution(m.log, exec)
	if m.warnBytes > 0 && summary.PeakMemory > m.warnBytes {
		logger.LogMemoryWarning(m.log, exec, m.warnBytes)
	}

	if panicked {
		m.log.WithField("execution", id).Error("Handler panicked, response dropped")
		return
	}
	if rw.mode == modeHijacked {
		m.recorder.IncReport(metrics.InjectSkipped)
		return
	}

	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if !rw.buffered() {
		m.recorder.IncReport(metrics.InjectSkipped)
		return
	}

	body := rw.buf.Bytes()
	outcome := metrics.InjectSkipped
	if isHTML(rw.contentType()) {
		body, outcome = injectReport(body, p.FormattedReport())
	}
	m.recorder.IncReport(outcome)

	if err := rw.commit(body, outcome != metrics.InjectSkipped); err != nil {
		m.log.WithError(err).Debug("Failed to write response")
	}
}

// blockedPath reports whether no report may be added to responses for p:
// paths with a blocked extension and the profiler's own routes.
func (m *Middleware) blockedPath(p string) bool {
	if ext := strings.TrimPrefix(path.Ext(p), "."); ext != "" && m.blocked[strings.ToLower(ext)] {
		return true
	}
	prefix := m.cfg.RoutePrefix + "/"
	return strings.HasPrefix(p, prefix)
}

var bodyClose = []byte("</body>")

// injectReport places report before the last </body>, or at the end when there is none
func injectReport(body []byte, report string) ([]byte, metrics.InjectOutcome) {
	if report == "" {
		return body, metrics.InjectSkipped
	}

	i := bytes.LastIndex(bytes.ToLower(body), bodyClose)
	if i < 0 {
		out := make([]byte, 0, len(body)+len(report))
		out = append(out, body...)
		return append(out, report...), metrics.InjectAppended
	}

	out := make([]byte, 0, len(body)+len(report))
	out = append(out, body[:i]...)
	out = append(out, report...)
	out = append(out, body[i:]...)
	return out, metrics.InjectInjected
}
