package logging

import "context"

// Context keys for logging values. Using private types avoids collisions
// with keys set by other packages.
type contextKey int

const (
	runIDKey contextKey = iota
	componentKey
)

// WithRun adds a run ID to the context. Every subtree add/merge/pull/push/
// split invocation generates one run ID at startup so its log lines can be
// correlated even when several runs interleave (e.g. concurrent CI jobs
// writing to the same .subtree/logs directory).
func WithRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context, identifying the
// subsystem generating a log line (e.g. "engine", "gitservice", "cli").
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// RunIDFromContext extracts the run ID from the context, or "" if unset.
func RunIDFromContext(ctx context.Context) string {
	if v := ctx.Value(runIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ComponentFromContext extracts the component name from the context, or ""
// if unset.
func ComponentFromContext(ctx context.Context) string {
	if v := ctx.Value(componentKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
