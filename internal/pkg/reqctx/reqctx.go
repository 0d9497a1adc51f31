// Package reqctx carries per-request values that the logger and the
// transport layer both need.
package reqctx

import "context"

type key int

const (
	requestIDKey key = iota
	callerKey
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns "" when ctx is nil or carries no id.
func RequestID(ctx context.Context) string {
	return str(ctx, requestIDKey)
}

// WithCaller records the subject of the bearer token that authorized the request.
func WithCaller(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, callerKey, subject)
}

func Caller(ctx context.Context) string {
	return str(ctx, callerKey)
}

func str(ctx context.Context, k key) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(k).(string)
	return v
}
