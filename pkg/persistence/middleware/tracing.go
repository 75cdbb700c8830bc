package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/roguepath/pkg/persistence"

type tracingMiddleware struct {
	next   ports.GraphStore
	tracer trace.Tracer
	kind   string
}

// NewTracingMiddleware records a span per store call. kind names the backend.
// A nil provider uses the global one. A missing document is not recorded as a
// span error.
func NewTracingMiddleware(kind string, tp trace.TracerProvider) Middleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)
	return func(next ports.GraphStore) ports.GraphStore {
		return &tracingMiddleware{
			next:   next,
			tracer: tracer,
			kind:   kind,
		}
	}
}

func (m *tracingMiddleware) start(ctx context.Context, op, owner string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("store.kind", m.kind)}
	if owner != "" {
		attrs = append(attrs, attribute.String("store.owner", owner))
	}
	return m.tracer.Start(ctx, "store."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domain.ErrGraphNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *tracingMiddleware) Save(ctx context.Context, owner string, doc []byte) error {
	ctx, span := m.start(ctx, "Save", owner)
	span.SetAttributes(attribute.Int("store.bytes", len(doc)))
	err := m.next.Save(ctx, owner, doc)
	finish(span, err)
	return err
}

func (m *tracingMiddleware) Load(ctx context.Context, owner string) ([]byte, error) {
	ctx, span := m.start(ctx, "Load", owner)
	doc, err := m.next.Load(ctx, owner)
	finish(span, err)
	return doc, err
}

func (m *tracingMiddleware) Delete(ctx context.Context, owner string) error {
	ctx, span := m.start(ctx, "Delete", owner)
	err := m.next.Delete(ctx, owner)
	finish(span, err)
	return err
}

func (m *tracingMiddleware) List(ctx context.Context) ([]string, error) {
	ctx, span := m.start(ctx, "List", "")
	owners, err := m.next.List(ctx)
	span.SetAttributes(attribute.Int("store.owners", len(owners)))
	finish(span, err)
	return owners, err
}
