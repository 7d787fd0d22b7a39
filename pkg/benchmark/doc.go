// Package benchmark is the host-facing side of reqbench.
//
// A Profiler is created once per execution, usually one per request, and
// passed to the code that wants to mark checkpoints, either explicitly or
// through the request context:
//
//	p := benchmark.New(benchmark.Options{Enabled: cfg.Benchmark.IsEnabled()})
//	ctx = benchmark.NewContext(ctx, p)
//	...
//	benchmark.Checkpoint(ctx, "users loaded")
//	...
//	html := p.FormattedReport()
//
// A new Profiler records two checkpoints on its own: "Start", bound to the
// execution start so that the first segment covers everything before the
// profiler existed, and "Benchmark Init".
//
// Every method is safe to call on a disabled or nil Profiler and does nothing
// in that case; a disabled Profiler never allocates its ledger. Call sites do
// not need to check whether profiling is on.
//
// Each checkpoint remembers the file and line it was called from. Checkpoints
// the profiler records itself carry no location.
//
// Finalization (FormattedReport, TextReport, Finalize) turns the recorded
// instants into segment durations. It happens once; later calls return the
// same result.
//
// A Profiler belongs to one goroutine. The Registry that makes profilers
// discoverable by name is safe for concurrent use.
package benchmark
