package httpbench

import (
	"bufio"
	"bytes"
	"mime"
	"net"
	"net/http"
	"strconv"
)

type writerMode int

const (
	// modePending has seen no status yet
	modePending writerMode = iota
	// modeBuffer holds the body so the report can be added at the end
	modeBuffer
	// modePass writes straight to the client
	modePass
	// modeHijacked handed the connection to the handler
	modeHijacked
)

// responseWriter buffers responses that may receive the report and passes
// everything else through. The choice is made when the status is written.
type responseWriter struct {
	w           http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
	eligible    bool
	mode        writerMode
}

// newResponseWriter wraps w. eligible is false when the request itself rules
// out a report (HEAD, blocked extension, profiler routes).
func newResponseWriter(w http.ResponseWriter, eligible bool) *responseWriter {
	return &responseWriter{w: w, status: http.StatusOK, eligible: eligible}
}

func (rw *responseWriter) Header() http.Header {
	return rw.w.Header()
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader || rw.mode == modeHijacked {
		return
	}
	if code >= 100 && code <= 199 && code != http.StatusSwitchingProtocols {
		rw.w.WriteHeader(code)
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.decide()
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	switch rw.mode {
	case modeBuffer:
		return rw.buf.Write(p)
	case modeHijacked:
		return 0, http.ErrHijacked
	default:
		return rw.w.Write(p)
	}
}

// FlushError sends what is buffered and streams the rest of the response
func (rw *responseWriter) FlushError() error {
	if rw.mode == modeHijacked {
		return http.ErrHijacked
	}
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.mode == modeBuffer {
		if err := rw.pass(); err != nil {
			return err
		}
	}
	return http.NewResponseController(rw.w).Flush()
}

func (rw *responseWriter) Flush() {
	_ = rw.FlushError()
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, brw, err := http.NewResponseController(rw.w).Hijack()
	if err != nil {
		return nil, nil, err
	}
	rw.mode = modeHijacked
	rw.buf.Reset()
	return conn, brw, nil
}

// Unwrap exposes the client writer to http.ResponseController
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.w
}

// buffered reports whether the body is still held back
func (rw *responseWriter) buffered() bool {
	return rw.mode == modeBuffer
}

func (rw *responseWriter) decide() {
	if rw.mode != modePending {
		return
	}
	if rw.eligible && bodyAllowed(rw.status) && rw.Header().Get("Content-Encoding") == "" {
		if ct := rw.Header().Get("Content-Type"); ct == "" || isHTML(ct) {
			rw.mode = modeBuffer
			return
		}
	}
	_ = rw.pass()
}

// pass sends the status and anything buffered, then switches to pass-through
func (rw *responseWriter) pass() error {
	rw.mode = modePass
	rw.w.WriteHeader(rw.status)
	if rw.buf.Len() == 0 {
		return nil
	}
	_, err := rw.w.Write(rw.buf.Bytes())
	rw.buf.Reset()
	return err
}

// contentType returns the declared content type, sniffing the body when there is none
func (rw *responseWriter) contentType() string {
	if ct := rw.Header().Get("Content-Type"); ct != "" {
		return ct
	}
	if rw.buf.Len() == 0 {
		return ""
	}
	ct := http.DetectContentType(rw.buf.Bytes())
	rw.Header().Set("Content-Type", ct)
	return ct
}

// commit sends a buffered response. Content-Length is only rewritten when the
// body differs from what the handler wrote.
func (rw *responseWriter) commit(body []byte, changed bool) error {
	rw.mode = modePass
	if changed {
		rw.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	rw.w.WriteHeader(rw.status)
	if len(body) == 0 {
		return nil
	}
	_, err := rw.w.Write(body)
	return err
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/html"
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
