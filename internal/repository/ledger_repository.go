package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ledgerDomain "github.com/stayloop/service-booking/internal/domain/ledger"
)

// DuesEntryModel is the GORM persistence model for the dues ledger.
type DuesEntryModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	HostID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_dues_host_kind_period"`
	Kind           string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_dues_host_kind_period"`
	Period         string     `gorm:"type:varchar(7);not null;uniqueIndex:idx_dues_host_kind_period"`
	Amount         int64      `gorm:"not null"`
	Currency       string     `gorm:"type:varchar(3);not null"`
	Status         string     `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	DueDate        time.Time  `gorm:"type:timestamptz;not null;index"`
	GraceEndDate   time.Time  `gorm:"type:timestamptz;not null"`
	ReminderStage  int        `gorm:"not null;default:0"`
	LastReminderAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt      time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (DuesEntryModel) TableName() string {
	return "dues_entries"
}

// LedgerRepositoryImpl is the GORM-based implementation of the dues ledger
// repository.
type LedgerRepositoryImpl struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new GORM-based ledger repository.
func NewLedgerRepository(db *gorm.DB) *LedgerRepositoryImpl {
	return &LedgerRepositoryImpl{db: db}
}

// UpsertEntry inserts the entry, or refreshes the amount of an existing open
// entry for the same host, kind and period. A paid entry is left untouched so
// re-running aggregation cannot reopen it.
func (r *LedgerRepositoryImpl) UpsertEntry(ctx context.Context, e *ledgerDomain.Entry) error {
	model := toDuesEntryModel(e)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "host_id"}, {Name: "kind"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":         model.Amount,
			"due_date":       model.DueDate,
			"grace_end_date": model.GraceEndDate,
			"updated_at":     model.UpdatedAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "dues_entries", Name: "status"}, Value: string(ledgerDomain.EntryPaid)},
		}},
	}).Create(model).Error
}

// ListOpenByHost returns a host's unpaid and partial entries in creation order.
func (r *LedgerRepositoryImpl) ListOpenByHost(ctx context.Context, hostID uuid.UUID) ([]*ledgerDomain.Entry, error) {
	var models []DuesEntryModel
	if err := r.db.WithContext(ctx).
		Where("host_id = ? AND status <> ?", hostID, string(ledgerDomain.EntryPaid)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDuesEntryDomainList(models), nil
}

// ListDueForReminder returns open entries past due and inside grace.
func (r *LedgerRepositoryImpl) ListDueForReminder(ctx context.Context, now time.Time) ([]*ledgerDomain.Entry, error) {
	var models []DuesEntryModel
	if err := r.db.WithContext(ctx).
		Where("status <> ? AND due_date < ? AND grace_end_date >= ?", string(ledgerDomain.EntryPaid), now, now).
		Order("due_date ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDuesEntryDomainList(models), nil
}

// ListPastGrace returns open entries whose grace window has elapsed.
func (r *LedgerRepositoryImpl) ListPastGrace(ctx context.Context, now time.Time) ([]*ledgerDomain.Entry, error) {
	var models []DuesEntryModel
	if err := r.db.WithContext(ctx).
		Where("status <> ? AND grace_end_date < ?", string(ledgerDomain.EntryPaid), now).
		Order("grace_end_date ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDuesEntryDomainList(models), nil
}

// Update persists status and reminder changes.
func (r *LedgerRepositoryImpl) Update(ctx context.Context, e *ledgerDomain.Entry) error {
	return r.db.WithContext(ctx).Model(&DuesEntryModel{}).
		Where("id = ?", e.ID()).
		Select("*").
		Omit("id", "created_at").
		Updates(toDuesEntryModel(e)).Error
}

func toDuesEntryDomainList(models []DuesEntryModel) []*ledgerDomain.Entry {
	entries := make([]*ledgerDomain.Entry, len(models))
	for i := range models {
		entries[i] = toDuesEntryDomain(&models[i])
	}
	return entries
}

func toDuesEntryDomain(model *DuesEntryModel) *ledgerDomain.Entry {
	return ledgerDomain.Reconstitute(
		model.ID,
		model.HostID,
		ledgerDomain.Kind(model.Kind),
		model.Period,
		model.Amount,
		model.Currency,
		ledgerDomain.EntryStatus(model.Status),
		model.DueDate,
		model.GraceEndDate,
		model.ReminderStage,
		model.LastReminderAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func toDuesEntryModel(e *ledgerDomain.Entry) *DuesEntryModel {
	return &DuesEntryModel{
		ID:             e.ID(),
		HostID:         e.HostID(),
		Kind:           string(e.Kind()),
		Period:         e.Period(),
		Amount:         e.Amount(),
		Currency:       e.Currency(),
		Status:         string(e.Status()),
		DueDate:        e.DueDate(),
		GraceEndDate:   e.GraceEndDate(),
		ReminderStage:  e.ReminderStage(),
		LastReminderAt: e.LastReminderAt(),
		CreatedAt:      e.CreatedAt(),
		UpdatedAt:      e.UpdatedAt(),
	}
}
