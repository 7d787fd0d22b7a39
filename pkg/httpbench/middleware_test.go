package httpbench

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqbench/pkg/benchmark"
	"reqbench/pkg/config"
	"reqbench/pkg/logger"
	"reqbench/pkg/memprobe"
	"reqbench/pkg/metrics"
	"reqbench/pkg/report"
)

type fakeRecorder struct {
	executions []report.Summary
	outcomes   []metrics.InjectOutcome
}

func (f *fakeRecorder) ObserveExecution(s report.Summary)      { f.executions = append(f.executions, s) }
func (f *fakeRecorder) IncReport(outcome metrics.InjectOutcome) { f.outcomes = append(f.outcomes, outcome) }

func newTestMiddleware(t *testing.T, modify func(*config.BenchmarkConfig), opts ...Option) (*Middleware, *fakeRecorder, *logger.TestLogger) {
	t.Helper()
	cfg := config.DefaultConfig().Benchmark
	if modify != nil {
		modify(&cfg)
	}
	rec := &fakeRecorder{}
	tl := logger.NewTestLogger()
	opts = append([]Option{WithRecorder(rec), WithLogger(tl), WithProbe(memprobe.Static(64 << 20))}, opts...)
	m, err := New(cfg, opts...)
	require.NoError(t, err)
	return m, rec, tl
}

func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		benchmark.Checkpoint(r.Context(), "render")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestInjectsBeforeBodyClose(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)

	rr := serve(m.Wrap(htmlHandler("<html><body><h1>hi</h1></body></html>")), http.MethodGet, "/page")

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(body, "<html><body><h1>hi</h1><benchmark-panel>") ||
		strings.HasPrefix(body, "<html><body><h1>hi</h1>\n<benchmark-panel>"), body)
	assert.True(t, strings.HasSuffix(body, "</body></html>"))
	assert.Contains(t, body, "render</span> =>  Time:")
	assert.Contains(t, body, "/benchmark/theme/css/benchmark.css")
	assert.Equal(t, strconv.Itoa(len(body)), rr.Header().Get("Content-Length"))
	assert.NotEmpty(t, rr.Header().Get(HeaderExecution))

	require.Len(t, rec.executions, 1)
	assert.Equal(t, 3, rec.executions[0].CheckpointCount)
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectInjected}, rec.outcomes)
}

func TestAppendsWithoutBodyClose(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)

	rr := serve(m.Wrap(htmlHandler("<p>fragment</p>")), http.MethodGet, "/fragment")

	assert.True(t, strings.HasPrefix(rr.Body.String(), "<p>fragment</p>"))
	assert.Contains(t, rr.Body.String(), "<benchmark-panel>")
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectAppended}, rec.outcomes)
}

func TestSkipsNonHTML(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))

	rr := serve(h, http.MethodGet, "/api")

	assert.Equal(t, `{"ok":true}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectSkipped}, rec.outcomes)
	assert.Len(t, rec.executions, 1)
}

func TestSniffsUndeclaredHTML(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<!DOCTYPE html><html><body>x</body></html>")
	}))

	rr := serve(h, http.MethodGet, "/sniffed")

	assert.Contains(t, rr.Body.String(), "<benchmark-panel>")
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectInjected}, rec.outcomes)
}

func TestSkipsBlockedExtensions(t *testing.T) {
	m, _, _ := newTestMiddleware(t, func(c *config.BenchmarkConfig) {
		c.BlockedExtensions = []string{"CSS", ".js", "html"}
	})
	page := "<html><body></body></html>"

	for _, target := range []string{"/static/site.css", "/app.JS", "/legacy/index.html"} {
		rr := serve(m.Wrap(htmlHandler(page)), http.MethodGet, target)
		assert.Equal(t, page, rr.Body.String(), target)
	}

	rr := serve(m.Wrap(htmlHandler(page)), http.MethodGet, "/index.php")
	assert.Contains(t, rr.Body.String(), "<benchmark-panel>")
}

func TestSkipsOwnRoutes(t *testing.T) {
	m, _, _ := newTestMiddleware(t, nil)
	page := "<html><body></body></html>"

	rr := serve(m.Wrap(htmlHandler(page)), http.MethodPost, "/benchmark/panel-stat/")
	assert.Equal(t, page, rr.Body.String())
}

func TestSkipsHeadAndNoContent(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)

	rr := serve(m.Wrap(htmlHandler("<html><body></body></html>")), http.MethodHead, "/")
	assert.NotContains(t, rr.Body.String(), "benchmark-panel")

	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNoContent)
	}))
	rr = serve(h, http.MethodGet, "/")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Content-Length"))

	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectSkipped, metrics.InjectSkipped}, rec.outcomes)
}

func TestHeadKeepsDeclaredContentLength(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)
	done := make(chan struct{}, 1)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Length", "1234")
	}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() { done <- struct{}{} }()
		h.ServeHTTP(w, r)
	}))
	defer srv.Close()

	resp, err := http.Head(srv.URL + "/download")
	require.NoError(t, err)
	defer resp.Body.Close()
	<-done

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1234), resp.ContentLength)
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectSkipped}, rec.outcomes)
}

func TestBufferedWithoutReportKeepsContentLength(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		_, _ = io.WriteString(w, "plain")
	}))

	rr := serve(h, http.MethodGet, "/notes")

	assert.Equal(t, "plain", rr.Body.String())
	assert.Equal(t, "5", rr.Header().Get("Content-Length"))
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectSkipped}, rec.outcomes)
}

func TestNonHTMLIsNotBuffered(t *testing.T) {
	m, _, _ := newTestMiddleware(t, nil)
	rr := httptest.NewRecorder()
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.WriteString(w, "chunk one")
		assert.Equal(t, "chunk one", rr.Body.String())
		_, _ = io.WriteString(w, ", chunk two")
	}))

	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/archive.bin", nil))
	assert.Equal(t, "chunk one, chunk two", rr.Body.String())
}

func TestFlushStreamsResponse(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)
	rr := httptest.NewRecorder()
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><body>loading")
		require.NoError(t, http.NewResponseController(w).Flush())
		assert.Equal(t, "<html><body>loading", rr.Body.String())
		_, _ = io.WriteString(w, " done</body></html>")
	}))

	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, rr.Flushed)
	assert.Equal(t, "<html><body>loading done</body></html>", rr.Body.String())
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectSkipped}, rec.outcomes)
}

func TestServerSentEvents(t *testing.T) {
	m, _, _ := newTestMiddleware(t, nil)
	release := make(chan struct{})
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: first\n\n")
		_ = http.NewResponseController(w).Flush()
		<-release
	}))
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	close(release)
	require.NoError(t, err)
	assert.Equal(t, "data: first\n", line)
}

func TestHijackPassesThrough(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, nil)
	done := make(chan struct{}, 1)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, brw, err := http.NewResponseController(w).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		_, _ = brw.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 8\r\nConnection: close\r\n\r\nhijacked")
		_ = brw.Flush()
	}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() { done <- struct{}{} }()
		h.ServeHTTP(w, r)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	<-done

	assert.Equal(t, "hijacked", string(body))
	assert.Equal(t, []metrics.InjectOutcome{metrics.InjectSkipped}, rec.outcomes)
}

func TestKeepsStatusCode(t *testing.T) {
	m, _, _ := newTestMiddleware(t, nil)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html><body>missing</body></html>")
	}))

	rr := serve(h, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "<benchmark-panel>")
}

func TestDisabledPassesThrough(t *testing.T) {
	m, rec, _ := newTestMiddleware(t, func(c *config.BenchmarkConfig) { c.Enabled = 0 })
	inner := htmlHandler("<html><body></body></html>")

	h := m.Wrap(inner)
	rr := serve(h, http.MethodGet, "/")

	assert.Equal(t, "<html><body></body></html>", rr.Body.String())
	assert.Empty(t, rr.Header().Get(HeaderExecution))
	assert.Empty(t, rec.executions)
}

func TestFinalizesOnPanic(t *testing.T) {
	m, rec, tl := newTestMiddleware(t, nil)
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		benchmark.Checkpoint(r.Context(), "before panic")
		_, _ = io.WriteString(w, "<html><body>partial")
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	assert.PanicsWithValue(t, "boom", func() {
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	require.Len(t, rec.executions, 1)
	assert.Equal(t, 3, rec.executions[0].CheckpointCount)
	assert.Empty(t, rec.outcomes)
	assert.Empty(t, rr.Body.String())
	assert.True(t, tl.HasMessage("Handler panicked, response dropped"))
	assert.Zero(t, m.Registry().Len())
}

func TestRegistersDuringRequest(t *testing.T) {
	m, _, _ := newTestMiddleware(t, nil)
	var seen *benchmark.Profiler
	var id string

	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = w.Header().Get(HeaderExecution)
		seen, _ = m.Registry().Lookup(id)
		assert.Same(t, benchmark.FromContext(r.Context()), seen)
	}))
	serve(h, http.MethodGet, "/")

	assert.NotNil(t, seen)
	_, ok := m.Registry().Lookup(id)
	assert.False(t, ok)
}

func TestExecutionTimeFromArrival(t *testing.T) {
	arrival := time.Now().Add(-200 * time.Millisecond)
	m, rec, _ := newTestMiddleware(t, nil, WithNow(func() time.Time { return arrival }))

	serve(m.Wrap(htmlHandler("<html><body></body></html>")), http.MethodGet, "/")

	require.Len(t, rec.executions, 1)
	s := rec.executions[0]
	assert.GreaterOrEqual(t, s.ExecutionTimeMs, int64(200))
	// the Start segment covers the time before the request reached the middleware
	assert.GreaterOrEqual(t, s.Checkpoints[0].Value, int64(190))

	var sum int64
	for _, cp := range s.Checkpoints {
		sum += cp.Value
	}
	assert.Equal(t, s.ExecutionTimeMs, sum)
}

func TestMemoryWarning(t *testing.T) {
	m, _, tl := newTestMiddleware(t, func(c *config.BenchmarkConfig) { c.MemoryWarn = "1MB" })
	serve(m.Wrap(htmlHandler("<html></html>")), http.MethodGet, "/")
	assert.True(t, tl.HasMessage("Execution exceeded memory warning threshold"))
	assert.True(t, tl.HasMessage("Execution finalized"))

	m, _, tl = newTestMiddleware(t, func(c *config.BenchmarkConfig) { c.MemoryWarn = "" })
	serve(m.Wrap(htmlHandler("<html></html>")), http.MethodGet, "/")
	assert.False(t, tl.HasMessage("Execution exceeded memory warning threshold"))
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig().Benchmark
	cfg.MemoryWarn = "lots"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = config.DefaultConfig().Benchmark
	cfg.MemorySource = "psutil"
	_, err = New(cfg, WithLogger(logger.NewNopLogger()))
	assert.Error(t, err)
}

func TestInjectReport(t *testing.T) {
	out, outcome := injectReport([]byte("<BODY>x</BODY>"), "<r/>")
	assert.Equal(t, "<BODY>x<r/></BODY>", string(out))
	assert.Equal(t, metrics.InjectInjected, outcome)

	out, outcome = injectReport([]byte("<body></body><body></body>"), "<r/>")
	assert.Equal(t, "<body></body><body><r/></body>", string(out))
	assert.Equal(t, metrics.InjectInjected, outcome)

	out, outcome = injectReport([]byte("x"), "")
	assert.Equal(t, "x", string(out))
	assert.Equal(t, metrics.InjectSkipped, outcome)
}
