package benchmark

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying p
func NewContext(ctx context.Context, p *Profiler) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the profiler carried by ctx, or nil. The nil profiler is safe to use.
func FromContext(ctx context.Context) *Profiler {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(contextKey{}).(*Profiler)
	return p
}

// Checkpoint records a checkpoint on the profiler carried by ctx, if any
func Checkpoint(ctx context.Context, label ...string) {
	FromContext(ctx).checkpoint(2, label)
}
