/*
Package roguepath generates branching roguelike paths and runs timed room
encounters along them.

A path is a level-ordered DAG of nodes, generated from parameters and a room
catalog, persisted per group as a versioned JSON document. A group walks the
path one node at a time: selecting a node places the node's room, spawns its
actors on a fixed cadence and counts down its time limit. The run settles into
a score; a positive score clears the node and unlocks its children.

# Usage

The Host ties everything to a single heartbeat loop. Hosts without a world
(tests, simulations) can drive the loop by hand.

	catalog := memory.MustCatalog(rooms...)
	host, err := roguepath.New(catalog, roguepath.WithSeed(42))
	if err != nil {
		log.Fatal(err)
	}
	go host.Run(ctx)

	group, _ := host.CreateGroup(ctx, "alice")
	g, _ := host.GeneratePath(ctx, group, "tutorial", params)
	root, _ := g.Root()
	host.SelectNode(ctx, group, root)

# Architecture

  - pkg/domain: graph arena, room definitions, groups, events and typed errors.
  - pkg/pathgen, pkg/codec: generation and the persisted document format.
  - pkg/room, pkg/spawn: the run state machine and its spawn scheduler.
  - pkg/pathstore, pkg/coordinator: per-group persistence and traversal rules.
  - pkg/adapters: memory, file, redis, sql, catalog and mqtt integrations.
  - pkg/persistence/middleware: encryption at rest and tracing for any store.
  - internal/api, cmd/roguepath: the HTTP server and the CLI that wires it.
*/
package roguepath
