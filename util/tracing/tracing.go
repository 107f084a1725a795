package tracing

import (
	"context"

	"github.com/bwise1/civic_reports/util/values"
	"go.uber.org/zap"
)

// Context carries the identifiers attached to every request.
type Context struct {
	RequestID     string
	RequestSource string
}

// FromContext returns the tracing context stored by the request middleware,
// or a zero Context when none was stored.
func FromContext(ctx context.Context) Context {
	tc, _ := ctx.Value(values.ContextTracingKey).(Context)
	return tc
}

func (c Context) Fields() []zap.Field {
	return []zap.Field{
		zap.String("request_id", c.RequestID),
		zap.String("request_source", c.RequestSource),
	}
}
