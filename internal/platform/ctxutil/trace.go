package ctxutil

import "context"

type traceDataKey struct{}

// TraceData is attached once per request by the trace middleware. UserID is filled in later by
// whichever handler learns it, so loggers reading the same pointer see it.
type TraceData struct {
	TraceID   string
	RequestID string
	UserID    string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// SetUserID records the submitting user on the request's trace data, if any.
func SetUserID(ctx context.Context, userID string) {
	if td := GetTraceData(ctx); td != nil && userID != "" {
		td.UserID = userID
	}
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
