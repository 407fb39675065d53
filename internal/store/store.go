package store

import (
	"context"

	"kitchen-service/internal/domain"
)

// Orders is the single point of mutable truth shared by the ingestion worker
// and the control surface. Every mutation is atomic with respect to
// concurrent callers.
type Orders interface {
	// Create persists a new kitchen order. Returns domain.ErrDuplicateID
	// if the id already exists; existing records are never overwritten.
	Create(ctx context.Context, order domain.KitchenOrder) error

	// GetAll returns every current record in a stable order.
	GetAll(ctx context.Context) ([]domain.KitchenOrder, error)

	// GetByID returns the record or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (domain.KitchenOrder, error)

	// UpdateStatus atomically sets the status field. The boolean reports
	// whether a record existed; a missing id is not an error.
	UpdateStatus(ctx context.Context, id string, status domain.Status) (bool, error)

	// Replace atomically swaps the editable fields (customerName, table,
	// items) of an existing record, preserving id and status. There is no
	// observable window where the record is absent.
	Replace(ctx context.Context, order domain.OrderMessage) (bool, error)

	// Remove deletes the record, reporting whether it existed.
	Remove(ctx context.Context, id string) (bool, error)
}
