package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouteLabelCollapsesIdentifiers(t *testing.T) {
	require.Equal(t, "/courseworks/:id/assign", RouteLabel("/courseworks/7/assign"))
	require.Equal(t, "/subjects/:id/teachers/:id", RouteLabel("/subjects/3/teachers/12"))
	require.Equal(t, "/courseworks/available", RouteLabel("/courseworks/available?limit=5"))
	require.Equal(t, "/profile", RouteLabel("/profile"))
}

func TestCorrelationContext(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), " corr-1 ")
	require.Equal(t, "corr-1", CorrelationIDFromContext(ctx))

	require.Equal(t, "corr-1", CorrelationIDFromContext(ContextWithCorrelation(ctx, "  ")))
	require.Empty(t, CorrelationIDFromContext(context.Background()))
}
