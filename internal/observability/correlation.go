package observability

import (
	"context"
	"strings"
)

type correlationKey struct{}

// ContextWithCorrelation returns ctx carrying id. Blank ids leave ctx unchanged
// so an outer id is never cleared.
func ContextWithCorrelation(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the id stored by ContextWithCorrelation, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
