package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/roguepath/pkg/adapters/memory"
	"github.com/aretw0/roguepath/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	key := generateKey(t)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)

	store := middleware.Chain(memory.NewStore(), middleware.NewTracingMiddleware("memory", tp), enc)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "g1", []byte("doc")))
	got, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []byte("doc"), got)
	_, err = store.Load(ctx, "g2")
	require.Error(t, err)
	_, err = store.List(ctx)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 4)
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name())
		assert.Equal(t, codes.Unset, s.Status().Code, "missing documents are not span errors")
	}
	assert.Equal(t, []string{"store.Save", "store.Load", "store.Load", "store.List"}, names)
}
