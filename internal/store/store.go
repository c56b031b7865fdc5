// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/yigityildirimoglu/jenkins-demo/internal/model"
)

// Store errors.
var (
	ErrNotFound = errors.New("item not found")
	ErrNilItem  = errors.New("item cannot be nil")
)

// Store defines the interface for item storage operations.
// Identifiers are assigned by the store and never reused.
type Store interface {
	// List returns all items in insertion order.
	List(ctx context.Context) ([]model.Item, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id int) (*model.Item, error)

	// Create assigns the next ID to the item and appends it to the store.
	Create(ctx context.Context, item *model.Item) (*model.Item, error)

	// Update replaces the item with the given ID, keeping its position and ID.
	Update(ctx context.Context, id int, item *model.Item) (*model.Item, error)

	// Delete removes an item from the store by its ID.
	Delete(ctx context.Context, id int) error

	// Len returns the number of stored items.
	Len(ctx context.Context) (int, error)
}
