package actionlist

import "context"

// Store defines the persistence interface for action lists. Abstracted
// for testability; tools depend on this, not on the SQLite concretion.
type Store interface {
	CreateList(ctx context.Context, title, description string) (*List, error)
	GetList(ctx context.Context, listID string) (*List, error)
	ListLists(ctx context.Context, status Status) ([]List, error)
	UpdateList(ctx context.Context, listID string, update ListUpdate) (*List, error)
	ArchiveList(ctx context.Context, listID string) (*List, error)

	AddItem(ctx context.Context, listID, text string) (*Item, error)
	CompleteItem(ctx context.Context, listID, itemID string) (*Item, error)
	RemoveItem(ctx context.Context, listID, itemID string) error
	Items(ctx context.Context, listID string) ([]Item, error)
}
