package bed

import (
	"context"

	"github.com/google/uuid"
)

// Repository state transitions are single conditional updates: each returns
// the bed on success, ErrNotFound when the bed does not exist, or the
// conflict error matching the bed's current status.
type Repository interface {
	Create(ctx context.Context, b *Bed) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Assign(ctx context.Context, id, patientID uuid.UUID) (*Bed, error)
	Release(ctx context.Context, id uuid.UUID) (*Bed, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*Bed, error)
}
