package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"canteen/internal/core"

	"github.com/google/uuid"
)

// InMemoryRepository numbers orders under one lock, the same guarantee
// the advisory lock gives in Postgres.
type InMemoryRepository struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]Order
	numbers map[string]int

	archived map[uuid.UUID]string
	claimed  map[uuid.UUID]time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		orders:   make(map[uuid.UUID]Order),
		numbers:  make(map[string]int),
		archived: make(map[uuid.UUID]string),
		claimed:  make(map[uuid.UUID]time.Time),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return fmt.Errorf("%w: duplicate order id %s", core.ErrOrderNotPersisted, o.ID)
	}

	key := fmt.Sprintf("%d:%s", o.ConcessionID, o.OrderDate)
	number := r.numbers[key] + 1

	o.OrderNumber = number
	o.CreatedAt = time.Now()

	stored := *o
	stored.Items = append([]Item(nil), o.Items...)

	r.numbers[key] = number
	r.orders[o.ID] = stored
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	return &o, nil
}

func (r *InMemoryRepository) ClaimUnarchived(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var pending []Order
	for id, o := range r.orders {
		if _, done := r.archived[id]; done {
			continue
		}
		if !o.CreatedAt.Before(createdBefore) {
			continue
		}
		if at, ok := r.claimed[id]; ok && now.Sub(at) < claimTTL {
			continue
		}
		pending = append(pending, o)
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}

	ids := make([]uuid.UUID, 0, len(pending))
	for _, o := range pending {
		r.claimed[o.ID] = now
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (r *InMemoryRepository) MarkArchived(ctx context.Context, id uuid.UUID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	r.archived[id] = key
	delete(r.claimed, id)
	return nil
}

// ArchivedKey reports where the receipt of id was stored, if anywhere
func (r *InMemoryRepository) ArchivedKey(id uuid.UUID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.archived[id]
	return key, ok
}
