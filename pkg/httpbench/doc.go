// Package httpbench profiles net/http requests.
//
// Middleware gives every request its own profiler, started at the moment the
// request arrived and reachable through the request context. When the handler
// returns the profiler is finalized, the execution is reported to the metrics
// recorder and the log, and for HTML pages the report widget is injected into
// the response before </body>.
//
//	mw, err := httpbench.New(cfg.Benchmark, httpbench.WithRecorder(rec))
//	if err != nil {
//	    return err
//	}
//	mux := http.NewServeMux()
//	httpbench.Routes(mux, cfg.Benchmark)
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//	    benchmark.Checkpoint(r.Context(), "loaded")
//	    ...
//	})
//	http.ListenAndServe(addr, mw.Wrap(mux))
//
// Responses are buffered until the handler returns, so handlers that stream
// with http.Flusher lose streaming while profiling is on.
package httpbench
