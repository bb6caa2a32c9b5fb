package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stayloop/service-booking/internal/domain"
)

// Kind distinguishes aggregated commission entries from ad hoc fines.
type Kind string

const (
	KindCommission Kind = "commission"
	KindFine       Kind = "fine"
)

// FinePeriod keys the single rolling fine entry each host carries. Fines are
// not billed per calendar month; the entry always holds the current unpaid
// fine total.
const FinePeriod = "rolling"

// EntryStatus is the payment state of a ledger entry.
type EntryStatus string

const (
	EntryUnpaid  EntryStatus = "unpaid"
	EntryPartial EntryStatus = "partial"
	EntryPaid    EntryStatus = "paid"
)

// Entry is one per-host, per-period obligation row. Entries are created by the
// monthly aggregation or an administrative fine, mutated only by settlement
// and reminder sweeps, and never deleted.
type Entry struct {
	id             uuid.UUID
	hostID         uuid.UUID
	kind           Kind
	period         string // YYYY-MM for commission entries, FinePeriod for fines
	amount         int64
	currency       string
	status         EntryStatus
	dueDate        time.Time
	graceEndDate   time.Time
	reminderStage  int
	lastReminderAt *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewCommissionEntry creates a monthly aggregated commission obligation.
func NewCommissionEntry(hostID uuid.UUID, period string, amount int64, currency string, dueDate time.Time, graceDays int) (*Entry, error) {
	if amount <= 0 {
		return nil, domain.NewInvalidAmountError("commission amount must be positive")
	}
	now := time.Now().UTC()
	return &Entry{
		id:           uuid.New(),
		hostID:       hostID,
		kind:         KindCommission,
		period:       period,
		amount:       amount,
		currency:     currency,
		status:       EntryUnpaid,
		dueDate:      dueDate,
		graceEndDate: dueDate.AddDate(0, 0, graceDays),
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// NewFineEntry creates an administrative fine obligation.
func NewFineEntry(hostID uuid.UUID, amount int64, currency string, dueDate time.Time, graceDays int) (*Entry, error) {
	if amount <= 0 {
		return nil, domain.NewInvalidAmountError("fine amount must be positive")
	}
	now := time.Now().UTC()
	return &Entry{
		id:           uuid.New(),
		hostID:       hostID,
		kind:         KindFine,
		period:       FinePeriod,
		amount:       amount,
		currency:     currency,
		status:       EntryUnpaid,
		dueDate:      dueDate,
		graceEndDate: dueDate.AddDate(0, 0, graceDays),
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstitute rebuilds an Entry from persisted data.
func Reconstitute(id, hostID uuid.UUID, kind Kind, period string, amount int64, currency string, status EntryStatus, dueDate, graceEndDate time.Time, reminderStage int, lastReminderAt *time.Time, createdAt, updatedAt time.Time) *Entry {
	return &Entry{
		id:             id,
		hostID:         hostID,
		kind:           kind,
		period:         period,
		amount:         amount,
		currency:       currency,
		status:         status,
		dueDate:        dueDate,
		graceEndDate:   graceEndDate,
		reminderStage:  reminderStage,
		lastReminderAt: lastReminderAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (e *Entry) ID() uuid.UUID              { return e.id }
func (e *Entry) HostID() uuid.UUID          { return e.hostID }
func (e *Entry) Kind() Kind                 { return e.kind }
func (e *Entry) Period() string             { return e.period }
func (e *Entry) Amount() int64              { return e.amount }
func (e *Entry) Currency() string           { return e.currency }
func (e *Entry) Status() EntryStatus        { return e.status }
func (e *Entry) DueDate() time.Time         { return e.dueDate }
func (e *Entry) GraceEndDate() time.Time    { return e.graceEndDate }
func (e *Entry) ReminderStage() int         { return e.reminderStage }
func (e *Entry) LastReminderAt() *time.Time { return e.lastReminderAt }
func (e *Entry) CreatedAt() time.Time       { return e.createdAt }
func (e *Entry) UpdatedAt() time.Time       { return e.updatedAt }

// MarkPaid settles the entry in full.
func (e *Entry) MarkPaid() {
	e.status = EntryPaid
	e.updatedAt = time.Now().UTC()
}

// MarkPartial records that a partial payment reduced the host's total due.
func (e *Entry) MarkPartial() {
	if e.status == EntryPaid {
		return
	}
	e.status = EntryPartial
	e.updatedAt = time.Now().UTC()
}

// ShouldRemind reports whether a reminder is due: the entry is open, past due,
// still within grace, and no reminder has gone out today.
func (e *Entry) ShouldRemind(now time.Time) bool {
	if e.status == EntryPaid {
		return false
	}
	if !now.After(e.dueDate) || now.After(e.graceEndDate) {
		return false
	}
	if e.lastReminderAt == nil {
		return true
	}
	ly, lm, ld := e.lastReminderAt.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ly != ny || lm != nm || ld != nd
}

// RecordReminder advances the reminder stage and stamps today.
func (e *Entry) RecordReminder(now time.Time) {
	e.reminderStage++
	now = now.UTC()
	e.lastReminderAt = &now
	e.updatedAt = now
}

// Repository defines persistence for dues ledger entries.
type Repository interface {
	// UpsertEntry inserts the entry, or replaces the amount of an existing
	// open entry for the same host, kind and period. Idempotent per
	// host/period so aggregation can safely re-run.
	UpsertEntry(ctx context.Context, e *Entry) error

	// ListOpenByHost returns a host's unpaid and partial entries in creation
	// order.
	ListOpenByHost(ctx context.Context, hostID uuid.UUID) ([]*Entry, error)

	// ListDueForReminder returns open entries past due and inside grace.
	ListDueForReminder(ctx context.Context, now time.Time) ([]*Entry, error)

	// ListPastGrace returns open entries whose grace window has elapsed, for
	// the enforcement sweep.
	ListPastGrace(ctx context.Context, now time.Time) ([]*Entry, error)

	// Update persists status and reminder changes.
	Update(ctx context.Context, e *Entry) error
}
