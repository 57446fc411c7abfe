package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryRepository is a menu store for tests and local fixtures
type InMemoryRepository struct {
	mu          sync.RWMutex
	concessions map[int64]Concession
	categories  map[int64]Category
	items       map[int64]MenuItem
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		concessions: make(map[int64]Concession),
		categories:  make(map[int64]Category),
		items:       make(map[int64]MenuItem),
	}
}

func (r *InMemoryRepository) SaveConcession(c Concession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.concessions[c.ID] = c
}

func (r *InMemoryRepository) SaveCategory(c Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
}

func (r *InMemoryRepository) SaveMenuItem(m MenuItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.ID] = m
}

func (r *InMemoryRepository) DeleteCategory(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.categories, id)
}

func (r *InMemoryRepository) DeleteMenuItem(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func (r *InMemoryRepository) FetchMenuItem(ctx context.Context, id int64) (*MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	return &item, nil
}

func (r *InMemoryRepository) FetchCategoryItems(ctx context.Context, categoryIDs ...int64) ([]CategoryItems, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CategoryItems
	for _, cid := range uniqueIDs(categoryIDs) {
		cat, ok := r.categories[cid]
		if !ok {
			continue
		}

		entry := CategoryItems{Category: cat}
		for _, item := range r.items {
			if containsID(item.CategoryIDs, cid) {
				entry.Items = append(entry.Items, item)
			}
		}
		sort.Slice(entry.Items, func(i, j int) bool {
			return entry.Items[i].ID < entry.Items[j].ID
		})

		out = append(out, entry)
	}

	return out, nil
}

func (r *InMemoryRepository) FetchConcession(ctx context.Context, id int64) (*Concession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.concessions[id]
	if !ok {
		return nil, fmt.Errorf("concession %d: %w", id, ErrNotFound)
	}
	return &c, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// uniqueIDs drops repeated ids and keeps first-seen order
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
