package ports

import "context"

// GraphStore persists encoded path graph documents keyed by owner (group id).
// Documents are opaque to the store; the codec owns their format.
type GraphStore interface {
	// Save persists the document for the owner, replacing any previous one.
	Save(ctx context.Context, owner string, doc []byte) error

	// Load retrieves the document for the owner.
	// Returns domain.ErrGraphNotFound if nothing is stored.
	Load(ctx context.Context, owner string) ([]byte, error)

	// Delete removes the document for the owner. Deleting a missing owner is not an error.
	Delete(ctx context.Context, owner string) error

	// List returns all owners with a stored document.
	List(ctx context.Context) ([]string, error)
}
