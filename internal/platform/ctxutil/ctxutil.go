package ctxutil

import (
	"context"
	"time"
)

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// DefaultCallTimeout bounds external calls (embedding model, vector index,
// graph mirror) whose callers did not set their own deadline.
const DefaultCallTimeout = 10 * time.Second

// Default returns ctx unchanged when it already carries a deadline, otherwise
// a child context bounded by DefaultCallTimeout. The returned cancel must be
// called by the caller.
func Default(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultCallTimeout)
}
