package core

import (
	"context"

	"canteen/internal/catalog"
)

// MenuReader is the read side of the vendor menu.
// Resolution, pricing and scheduling depend ONLY on this interface.
type MenuReader interface {
	// FetchMenuItem returns the item with its groups, options and addons.
	// Deleted or unknown items return ErrNotFound.
	FetchMenuItem(ctx context.Context, id int64) (*catalog.MenuItem, error)

	// FetchCategoryItems returns the requested categories in argument
	// order. Deleted categories are omitted, not reported as errors.
	FetchCategoryItems(ctx context.Context, categoryIDs ...int64) ([]catalog.CategoryItems, error)
}

type ConcessionReader interface {
	FetchConcession(ctx context.Context, id int64) (*catalog.Concession, error)
}
