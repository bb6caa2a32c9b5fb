package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// HasConflict reports whether any non-cancelled, non-ended booking on the
	// property (and room, when given) overlaps [start, end). exclude omits one
	// booking from the check, for modifications.
	HasConflict(ctx context.Context, propertyID uuid.UUID, roomID *uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error)

	// CreateIfAvailable atomically re-checks the conflict test and inserts the
	// booking in one transaction. Returns ErrDateRangeConflict when another
	// reservation won the range.
	CreateIfAvailable(ctx context.Context, b *Booking) error

	// UpdateIfAvailable atomically re-checks the conflict test (excluding the
	// booking itself) and persists changed dates in one transaction.
	UpdateIfAvailable(ctx context.Context, b *Booking) error

	// Update persists changes with optimistic locking on the version column.
	Update(ctx context.Context, b *Booking) error

	// ListAll retrieves bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by lifecycle status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// ListConfirmedCheckedOutBefore returns confirmed bookings whose check-out
	// date has passed, for the end-of-stay sweep.
	ListConfirmedCheckedOutBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Booking, error)

	// CommissionOwedByHost sums commission per host over paid bookings in
	// status confirmed or ended with unpaid commission, created in [from, to).
	CommissionOwedByHost(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error)
}
