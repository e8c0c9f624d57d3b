package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps links in a map. Insert holds the write lock across the
// existence check, so two concurrent inserts of one slug cannot both succeed.
type MemoryStorage struct {
	mu    sync.RWMutex
	links map[string]string
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		links: make(map[string]string),
	}, nil
}

func (m *MemoryStorage) Insert(_ context.Context, slug, destination string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[slug]; exists {
		return ErrSlugTaken
	}

	m.links[slug] = destination
	return nil
}

func (m *MemoryStorage) FindBySlug(_ context.Context, slug string) (*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	destination, exists := m.links[slug]
	if !exists {
		return nil, ErrNotFound
	}

	return &Link{Slug: slug, Destination: destination}, nil
}

func (m *MemoryStorage) remove(slug string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, slug)
}

// Len reports how many links are stored.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.links)
}

func (m *MemoryStorage) PingContext(_ context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
