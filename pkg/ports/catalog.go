package ports

import "github.com/aretw0/roguepath/pkg/domain"

// RoomCatalog resolves room ids to definitions.
type RoomCatalog interface {
	Room(id string) (domain.RoomDefinition, bool)
}
