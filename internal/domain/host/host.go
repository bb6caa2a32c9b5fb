package host

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/stayloop/service-booking/internal/domain"
)

// Account holds the access flags of a host. States: active (no flags),
// limited-access (blocked but dashboard unlocked), blocked.
type Account struct {
	hostID        uuid.UUID
	isBlocked     bool
	blockedAt     *time.Time
	blockReason   string
	blockedUntil  *time.Time
	limitedAccess bool
	updatedAt     time.Time
}

// NewAccount creates an active account for a host.
func NewAccount(hostID uuid.UUID) *Account {
	return &Account{hostID: hostID, updatedAt: time.Now().UTC()}
}

// ReconstituteAccount rebuilds an Account from persisted data.
func ReconstituteAccount(hostID uuid.UUID, isBlocked bool, blockedAt *time.Time, blockReason string, blockedUntil *time.Time, limitedAccess bool, updatedAt time.Time) *Account {
	return &Account{
		hostID:        hostID,
		isBlocked:     isBlocked,
		blockedAt:     blockedAt,
		blockReason:   blockReason,
		blockedUntil:  blockedUntil,
		limitedAccess: limitedAccess,
		updatedAt:     updatedAt,
	}
}

func (a *Account) HostID() uuid.UUID        { return a.hostID }
func (a *Account) IsBlocked() bool          { return a.isBlocked }
func (a *Account) BlockedAt() *time.Time    { return a.blockedAt }
func (a *Account) BlockReason() string      { return a.blockReason }
func (a *Account) BlockedUntil() *time.Time { return a.blockedUntil }
func (a *Account) LimitedAccess() bool      { return a.limitedAccess }
func (a *Account) UpdatedAt() time.Time     { return a.updatedAt }

// Block marks the account blocked. Already-blocked accounts are left as-is so
// the original block timestamp and reason survive repeated enforcement.
func (a *Account) Block(reason string, until *time.Time) {
	if a.isBlocked {
		return
	}
	now := time.Now().UTC()
	a.isBlocked = true
	a.blockedAt = &now
	a.blockReason = reason
	a.blockedUntil = until
	a.limitedAccess = false
	a.updatedAt = now
}

// Unblock clears every access restriction.
func (a *Account) Unblock() {
	a.isBlocked = false
	a.blockedAt = nil
	a.blockReason = ""
	a.blockedUntil = nil
	a.limitedAccess = false
	a.updatedAt = time.Now().UTC()
}

// GrantLimitedAccess unlocks the host dashboard while listings stay hidden.
func (a *Account) GrantLimitedAccess() {
	a.limitedAccess = true
	a.updatedAt = time.Now().UTC()
}

// AutoUnblockIfExpired lifts the block when its expiry has elapsed. Returns
// true when the account was unblocked.
func (a *Account) AutoUnblockIfExpired(now time.Time) bool {
	if !a.isBlocked || a.blockedUntil == nil || now.Before(*a.blockedUntil) {
		return false
	}
	a.Unblock()
	return true
}

// FineItem is one ad hoc obligation on a host. The penaltyApplied and
// enforcementApplied flags keep the overdue sweep idempotent.
type FineItem struct {
	id                 uuid.UUID
	hostID             uuid.UUID
	reason             string
	amount             int64
	dueDate            *time.Time
	paid               bool
	paidAt             *time.Time
	penaltyApplied     bool
	enforcementApplied bool
	createdAt          time.Time
	updatedAt          time.Time
}

// NewFineItem creates an unpaid fine against a host.
func NewFineItem(hostID uuid.UUID, reason string, amount int64, dueDate *time.Time) (*FineItem, error) {
	if amount <= 0 {
		return nil, domain.NewInvalidAmountError("fine amount must be positive")
	}
	now := time.Now().UTC()
	return &FineItem{
		id:        uuid.New(),
		hostID:    hostID,
		reason:    reason,
		amount:    amount,
		dueDate:   dueDate,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstituteFine rebuilds a FineItem from persisted data.
func ReconstituteFine(id, hostID uuid.UUID, reason string, amount int64, dueDate *time.Time, paid bool, paidAt *time.Time, penaltyApplied, enforcementApplied bool, createdAt, updatedAt time.Time) *FineItem {
	return &FineItem{
		id:                 id,
		hostID:             hostID,
		reason:             reason,
		amount:             amount,
		dueDate:            dueDate,
		paid:               paid,
		paidAt:             paidAt,
		penaltyApplied:     penaltyApplied,
		enforcementApplied: enforcementApplied,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (f *FineItem) ID() uuid.UUID            { return f.id }
func (f *FineItem) HostID() uuid.UUID        { return f.hostID }
func (f *FineItem) Reason() string           { return f.reason }
func (f *FineItem) Amount() int64            { return f.amount }
func (f *FineItem) DueDate() *time.Time      { return f.dueDate }
func (f *FineItem) Paid() bool               { return f.paid }
func (f *FineItem) PaidAt() *time.Time       { return f.paidAt }
func (f *FineItem) PenaltyApplied() bool     { return f.penaltyApplied }
func (f *FineItem) EnforcementApplied() bool { return f.enforcementApplied }
func (f *FineItem) CreatedAt() time.Time     { return f.createdAt }
func (f *FineItem) UpdatedAt() time.Time     { return f.updatedAt }

// Overdue reports whether an unpaid fine's due date has passed.
func (f *FineItem) Overdue(now time.Time) bool {
	return !f.paid && f.dueDate != nil && now.After(*f.dueDate)
}

// ApplyLatePenalty adds the one-time late penalty, guarded by the
// penaltyApplied flag. Returns the penalty amount added, zero when already
// applied.
func (f *FineItem) ApplyLatePenalty(percent int) int64 {
	if f.penaltyApplied {
		return 0
	}
	penalty := int64(math.Round(float64(f.amount) * float64(percent) / 100.0))
	f.amount += penalty
	f.penaltyApplied = true
	f.updatedAt = time.Now().UTC()
	return penalty
}

// MarkEnforced records that blocking enforcement ran for this item.
func (f *FineItem) MarkEnforced() bool {
	if f.enforcementApplied {
		return false
	}
	f.enforcementApplied = true
	f.updatedAt = time.Now().UTC()
	return true
}

// MarkPaid settles the fine in full. Settlement never pays a fine partially.
func (f *FineItem) MarkPaid(at time.Time) {
	f.paid = true
	f.paidAt = &at
	f.updatedAt = time.Now().UTC()
}

// Repository defines persistence for host accounts and their fine items.
type Repository interface {
	// FindAccount retrieves a host account, creating an active one on first
	// reference.
	FindAccount(ctx context.Context, hostID uuid.UUID) (*Account, error)

	// UpdateAccount persists access-flag changes.
	UpdateAccount(ctx context.Context, a *Account) error

	// AddFine persists a new fine item.
	AddFine(ctx context.Context, f *FineItem) error

	// ListUnpaidFines returns a host's unpaid fines in creation order.
	ListUnpaidFines(ctx context.Context, hostID uuid.UUID) ([]*FineItem, error)

	// UpdateFine persists fine flag and amount changes.
	UpdateFine(ctx context.Context, f *FineItem) error

	// ListHostsWithOverdueFines returns hosts holding unpaid fines whose due
	// date has passed, for the enforcement sweep.
	ListHostsWithOverdueFines(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
