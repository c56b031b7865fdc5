package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/yigityildirimoglu/jenkins-demo/internal/model"
)

// MemoryStore implements Store with an ordered in-memory slice.
// A single lock guards both the slice and the ID counter.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []model.Item
	nextID int
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make([]model.Item, 0),
		nextID: 1,
	}
}

// List returns all items from the store.
func (s *MemoryStore) List(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item.Clone())
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	item := s.items[idx].Clone()
	return &item, nil
}

// Create adds a new item to the store and returns it with its assigned ID.
func (s *MemoryStore) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newItem := item.Clone()
	newItem.ID = s.nextID
	s.nextID++

	s.items = append(s.items, newItem)

	created := newItem.Clone()
	return &created, nil
}

// Update replaces an existing item in place.
func (s *MemoryStore) Update(ctx context.Context, id int, item *model.Item) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	if item == nil {
		return nil, fmt.Errorf("update item: %w", ErrNilItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	updatedItem := item.Clone()
	updatedItem.ID = id
	s.items[idx] = updatedItem

	updated := updatedItem.Clone()
	return &updated, nil
}

// Delete removes an item from the store by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id int) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)

	return nil
}

// Len returns the number of items currently stored.
func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("count items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items), nil
}

// indexOf returns the position of the first item with the given ID, or -1.
// Callers must hold s.mu.
func (s *MemoryStore) indexOf(id int) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
