/*
Package domain contains the core models of the roguepath engine.

It is kept free of I/O and persistence so every other package can depend on it.

# Key Entities

  - PathGraph: a level-ordered DAG of nodes with a single root, generated per run.
  - Node: one room slot in a graph, carrying its level, special flag and room id.
  - RoomDefinition: an encounter template from the room catalog (time limit, base score, spawn points).
  - Group: a party of actors sharing one path, with exactly one leader.
  - RunStatus and Outcome: the lifecycle and settled result of a room run.
*/
package domain
