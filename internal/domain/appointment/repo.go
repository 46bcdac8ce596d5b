package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments and per-day queue counters. NextToken and
// Create are meant to run inside one transaction (see Service.Book).
type Repository interface {
	// NextToken increments and returns the last issued token of the
	// doctor's queue for date, creating the queue at 1.
	NextToken(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error)
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// Complete marks the appointment completed. completed_at keeps the
	// first completion time.
	Complete(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// SetCurrentToken sets the served token, or advances it by one when
	// token is nil.
	SetCurrentToken(ctx context.Context, doctorID uuid.UUID, date time.Time, token *int) (*QueueDay, error)
	Queue(ctx context.Context, doctorID uuid.UUID, date time.Time) (*QueueDay, error)
	Contacts(ctx context.Context, id uuid.UUID) (*Contacts, error)
}
