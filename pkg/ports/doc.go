/*
Package ports defines the driven ports (interfaces) of the roguepath engine.

These interfaces decouple the run logic from the host world, the persistence
backend and the room catalog.

# Key Interfaces

  - GraphStore: persists encoded path graph documents per owning group.
  - RoomCatalog: resolves room ids to RoomDefinitions.
  - Heartbeat: the host's logical thread, driving timers and spawn scheduling.
  - StructurePlacer, ActorSpawner, OriginResolver: world side-effects of a room run.
  - Notifier: receives progress events.
  - DistributedLocker: coordinates graph access across instances.
*/
package ports
