package pathgen

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/internal/random"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Generator builds path graphs. It is safe for concurrent use; generations are serialized
// because they share one random source.
type Generator struct {
	catalog ports.RoomCatalog

	mu  sync.Mutex
	rng Rand

	newRunID func() string
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures the Generator.
type Option func(*Generator)

// WithRand injects the random source.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// WithSeed seeds a deterministic random source.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = random.New(seed)
	}
}

// WithRunIDs overrides the run instance id source.
func WithRunIDs(fn func() string) Option {
	return func(g *Generator) {
		g.newRunID = fn
	}
}

// WithLogger configures a logger for the Generator.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a Generator resolving rooms against catalog.
func New(catalog ports.RoomCatalog, opts ...Option) *Generator {
	g := &Generator{
		catalog:  catalog,
		newRunID: uuid.NewString,
		logger:   logging.NewNop(),
		tracer:   otel.Tracer("github.com/aretw0/roguepath/pkg/pathgen"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		seed, err := random.NewSeed()
		if err != nil {
			seed = uint64(time.Now().UnixNano())
		}
		g.rng = random.New(seed)
	}
	return g
}

// Catalog returns the room catalog the generator resolves against.
func (g *Generator) Catalog() ports.RoomCatalog {
	return g.catalog
}

// Rand returns the generator's random source. Callers must not use it concurrently with Generate.
func (g *Generator) Rand() Rand {
	return g.rng
}

// Generate builds a new graph for pathID. Parameters are validated before any node is created.
func (g *Generator) Generate(ctx context.Context, pathID string, params domain.GenParams) (*domain.PathGraph, error) {
	_, span := g.tracer.Start(ctx, "pathgen.Generate", trace.WithAttributes(
		attribute.String("path_id", pathID),
		attribute.String("kind", params.Kind),
		attribute.Int("node_budget", params.NodeBudget),
	))
	defer span.End()

	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	variant, ok := Lookup(params.Kind)
	if !ok {
		err := &domain.GenerationConstraintError{Field: "kind", Reason: "unknown generator " + params.Kind}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	b := &Build{
		Graph:   domain.NewPathGraph(pathID, g.newRunID(), params),
		Params:  params,
		Rand:    g.rng,
		catalog: g.catalog,
		logger:  g.logger,
	}
	b.newNode(0, false, params.RoomPool)

	front := variant(b)
	if b.Remaining() > 0 && front.Level == params.MaxHeight-1 && len(front.Nodes) > 0 {
		pool := params.BossRoomPool
		if len(pool) == 0 {
			pool = params.RoomPool
		}
		end := b.newNode(front.Level+1, false, pool)
		for _, parent := range front.Nodes {
			_ = b.Graph.Link(parent, end)
		}
	}

	span.SetAttributes(attribute.Int("nodes", b.Graph.Len()))
	g.logger.Debug("Generated path graph",
		"path_id", pathID,
		"run_id", b.Graph.RunID,
		"nodes", b.Graph.Len(),
		"unresolved", len(b.Graph.Unresolved()),
	)
	return b.Graph, nil
}
