package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create assigns the next order number for the concession's day and
	// stores the header with every item, or nothing at all.
	Create(ctx context.Context, o *Order) error

	Get(ctx context.Context, id uuid.UUID) (*Order, error)

	// ClaimUnarchived hands out up to limit orders created before the
	// cutoff that have no archived receipt. A claimed order is not handed
	// out again until claimTTL has passed.
	ClaimUnarchived(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)

	MarkArchived(ctx context.Context, id uuid.UUID, key string) error
}

// claimTTL bounds how long a crashed archiver holds an order
const claimTTL = 5 * time.Minute
