package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/internal/random"
	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/aretw0/roguepath/pkg/pathgen"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Codec encodes and decodes path graph documents. Safe for concurrent use.
type Codec struct {
	catalog ports.RoomCatalog

	mu  sync.Mutex // guards rng
	rng pathgen.Rand

	logger *slog.Logger
}

// Option configures the Codec.
type Option func(*Codec)

// WithRand sets the random source used to repair unresolvable room references.
func WithRand(r pathgen.Rand) Option {
	return func(c *Codec) {
		c.rng = r
	}
}

// WithLogger configures a logger for the Codec.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// New creates a Codec. A nil catalog disables room resolution on decode.
func New(catalog ports.RoomCatalog, opts ...Option) *Codec {
	c := &Codec{
		catalog: catalog,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		seed, _ := random.NewSeed()
		c.rng = random.New(seed)
	}
	return c
}

// Encode walks the graph breadth-first from the root and emits every reachable node once.
func (c *Codec) Encode(g *domain.PathGraph) ([]byte, error) {
	if _, ok := g.Root(); !ok {
		return nil, errors.New("encode: graph has no root")
	}

	params := g.Params
	params.Environment = ""
	env := envelope{
		Type:        DocumentType,
		Version:     Version,
		PathID:      g.PathID,
		RunID:       g.RunID,
		Environment: g.Params.Environment,
		Params:      params,
	}
	g.Walk(func(n domain.Node) {
		env.Nodes = append(env.Nodes, nodeRecord{
			ID:        n.ID,
			Level:     n.Level,
			Special:   n.Special,
			Completed: n.Completed,
			RoomID:    n.RoomID,
			ParentIDs: n.Parents,
			ChildIDs:  n.Children,
		})
	})

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// Decode rebuilds a graph from a document.
func (c *Codec) Decode(doc []byte) (*domain.PathGraph, error) {
	fail := func(reason string, err error) error {
		return &domain.GraphIntegrityError{
			Reason:   reason,
			Document: append([]byte(nil), doc...),
			Err:      err,
		}
	}

	raw, err := parse(doc)
	if err != nil {
		return nil, fail("malformed document", err)
	}
	if raw.Type == nil || *raw.Type != DocumentType {
		return nil, fail("missing or unknown document type", nil)
	}
	if raw.Version == nil {
		return nil, fail("missing version", nil)
	}
	if *raw.Version > Version {
		return nil, fail(fmt.Sprintf("unsupported version %d", *raw.Version), nil)
	}
	if len(raw.Nodes) == 0 {
		return nil, fail("document has no nodes", nil)
	}

	params := raw.Params
	params.Environment = raw.Environment
	g := domain.NewPathGraph(raw.PathID, raw.RunID, params)

	// Pass 1: nodes.
	for i, rn := range raw.Nodes {
		if rn.ID == nil || rn.Level == nil {
			return nil, fail(fmt.Sprintf("node record %d: missing id or level", i), nil)
		}
		n := domain.Node{
			ID:        domain.NodeID(*rn.ID),
			Level:     *rn.Level,
			Special:   rn.Special,
			Completed: rn.Completed,
			RoomID:    c.resolveRoom(g, domain.NodeID(*rn.ID), *rn.Level, rn.RoomID),
		}
		if err := g.RestoreNode(n); err != nil {
			return nil, fail("invalid node record", err)
		}
	}

	// Pass 2: edges, rebuilt from parent lists.
	for _, rn := range raw.Nodes {
		child := domain.NodeID(*rn.ID)
		for _, p := range rn.ParentIDs {
			if _, ok := g.Node(domain.NodeID(p)); !ok {
				return nil, fail(fmt.Sprintf("node %d: dangling parent id %d", child, p), nil)
			}
			if err := g.Link(domain.NodeID(p), child); err != nil {
				return nil, fail("invalid edge", err)
			}
		}
	}
	for _, rn := range raw.Nodes {
		order := make([]domain.NodeID, len(rn.ChildIDs))
		for i, id := range rn.ChildIDs {
			order[i] = domain.NodeID(id)
		}
		if err := g.OrderChildren(domain.NodeID(*rn.ID), order); err != nil {
			return nil, fail("child ids disagree with parent ids", err)
		}
	}

	var roots []domain.NodeID
	for _, n := range g.Nodes() {
		if n.IsRoot() {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) != 1 {
		return nil, fail(fmt.Sprintf("expected exactly one root, found %d", len(roots)), nil)
	}
	if err := g.SetRoot(roots[0]); err != nil {
		return nil, fail("invalid root", err)
	}
	if reached := len(g.BreadthFirst()); reached != g.Len() {
		return nil, fail(fmt.Sprintf("%d of %d nodes unreachable from root", g.Len()-reached, g.Len()), nil)
	}
	return g, nil
}

// resolveRoom keeps a known room id and repairs unknown or missing ones with
// the generator's room selection for the node's level.
func (c *Codec) resolveRoom(g *domain.PathGraph, id domain.NodeID, level int, roomID string) string {
	if c.catalog == nil {
		return roomID
	}
	if roomID != "" {
		if _, ok := c.catalog.Room(roomID); ok {
			return roomID
		}
	}
	c.mu.Lock()
	repaired, ok := pathgen.SelectRoom(c.catalog, g.Params.RoomPool, level, c.rng)
	if !ok {
		repaired, ok = pathgen.SelectRoom(c.catalog, g.Params.BossRoomPool, level, c.rng)
	}
	c.mu.Unlock()
	if roomID != "" || ok {
		c.logger.Warn("Repaired room reference",
			"path_id", g.PathID,
			"node_id", id,
			"room_id", roomID,
			"repaired", repaired,
		)
	}
	return repaired
}

func parse(doc []byte) (*rawEnvelope, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after document")
	}

	var raw rawEnvelope
	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &raw,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := md.Decode(tree); err != nil {
		return nil, err
	}
	return &raw, nil
}
