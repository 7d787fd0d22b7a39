// Package metrics exports finalized executions.
//
// Components take a Recorder and default to NoopRecorder, so nothing is
// exported unless a real recorder is injected:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
//
// PrometheusRecorder methods are safe on a nil receiver.
package metrics
