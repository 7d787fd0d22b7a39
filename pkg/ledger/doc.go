// Package ledger records the checkpoints of a single execution.
//
// A Ledger is an append-only, insertion-ordered list of checkpoints. Every
// checkpoint gets an internal key made of its label and a "#N" suffix, where N
// is its 1-based position, so the same label can be recorded any number of
// times without collisions. The ledger also keeps the running peak of the
// memory readings it has seen.
//
// While the execution runs, each checkpoint's Value holds the absolute instant
// (milliseconds since the epoch) at which it was recorded. The very first
// checkpoint is bound to the execution start instead of the current time, so
// the first segment includes everything that happened before instrumentation
// was set up.
//
// When the execution ends, ComputeDeltas rewrites every Value in place into the
// duration of the segment that begins at that checkpoint:
//
//	instants:  Start=1000  Init=1010  Query=1050   finalized at 1100
//	durations: Start=10    Init=40    Query=50     (sum 100 = 1100-1000)
//
// The rewrite happens once. Later calls are ignored, and so are checkpoints
// recorded after it.
//
// A Ledger is owned by one execution and is not safe for concurrent use.
package ledger
