package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	hostDomain "github.com/stayloop/service-booking/internal/domain/host"
)

// HostAccountModel is the GORM persistence model for host access flags.
type HostAccountModel struct {
	HostID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	IsBlocked     bool       `gorm:"not null;default:false;index"`
	BlockedAt     *time.Time `gorm:"type:timestamptz"`
	BlockReason   string     `gorm:"type:varchar(255)"`
	BlockedUntil  *time.Time `gorm:"type:timestamptz"`
	LimitedAccess bool       `gorm:"not null;default:false"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (HostAccountModel) TableName() string {
	return "host_accounts"
}

// FineItemModel is the GORM persistence model for ad hoc fines.
type FineItemModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	HostID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	Reason             string     `gorm:"type:varchar(255);not null"`
	Amount             int64      `gorm:"not null"`
	DueDate            *time.Time `gorm:"type:timestamptz;index"`
	Paid               bool       `gorm:"not null;default:false;index"`
	PaidAt             *time.Time `gorm:"type:timestamptz"`
	PenaltyApplied     bool       `gorm:"not null;default:false"`
	EnforcementApplied bool       `gorm:"not null;default:false"`
	CreatedAt          time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt          time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (FineItemModel) TableName() string {
	return "fine_items"
}

// HostRepositoryImpl is the GORM-based implementation of the host repository.
type HostRepositoryImpl struct {
	db *gorm.DB
}

// NewHostRepository creates a new GORM-based host repository.
func NewHostRepository(db *gorm.DB) *HostRepositoryImpl {
	return &HostRepositoryImpl{db: db}
}

// FindAccount retrieves a host account, creating an active one on first
// reference. The insert uses ON CONFLICT DO NOTHING so concurrent first
// references converge on one row.
func (r *HostRepositoryImpl) FindAccount(ctx context.Context, hostID uuid.UUID) (*hostDomain.Account, error) {
	var model HostAccountModel
	err := r.db.WithContext(ctx).Where("host_id = ?", hostID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := hostDomain.NewAccount(hostID)
		seed := toHostAccountModel(fresh)
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
			return nil, err
		}
		if err := r.db.WithContext(ctx).Where("host_id = ?", hostID).First(&model).Error; err != nil {
			return nil, err
		}
		return toHostAccountDomain(&model), nil
	}
	if err != nil {
		return nil, err
	}
	return toHostAccountDomain(&model), nil
}

// UpdateAccount persists access-flag changes.
func (r *HostRepositoryImpl) UpdateAccount(ctx context.Context, a *hostDomain.Account) error {
	return r.db.WithContext(ctx).Model(&HostAccountModel{}).
		Where("host_id = ?", a.HostID()).
		Select("*").
		Omit("host_id").
		Updates(toHostAccountModel(a)).Error
}

// AddFine persists a new fine item.
func (r *HostRepositoryImpl) AddFine(ctx context.Context, f *hostDomain.FineItem) error {
	return r.db.WithContext(ctx).Create(toFineItemModel(f)).Error
}

// ListUnpaidFines returns a host's unpaid fines in creation order.
func (r *HostRepositoryImpl) ListUnpaidFines(ctx context.Context, hostID uuid.UUID) ([]*hostDomain.FineItem, error) {
	var models []FineItemModel
	if err := r.db.WithContext(ctx).
		Where("host_id = ? AND paid = false", hostID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	fines := make([]*hostDomain.FineItem, len(models))
	for i := range models {
		fines[i] = toFineItemDomain(&models[i])
	}
	return fines, nil
}

// UpdateFine persists fine flag and amount changes.
func (r *HostRepositoryImpl) UpdateFine(ctx context.Context, f *hostDomain.FineItem) error {
	return r.db.WithContext(ctx).Model(&FineItemModel{}).
		Where("id = ?", f.ID()).
		Select("*").
		Omit("id", "created_at").
		Updates(toFineItemModel(f)).Error
}

// ListHostsWithOverdueFines returns hosts holding unpaid fines whose due date
// has passed.
func (r *HostRepositoryImpl) ListHostsWithOverdueFines(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var hostIDs []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&FineItemModel{}).
		Distinct("host_id").
		Where("paid = false AND due_date IS NOT NULL AND due_date < ?", now).
		Pluck("host_id", &hostIDs).Error; err != nil {
		return nil, err
	}
	return hostIDs, nil
}

func toHostAccountDomain(model *HostAccountModel) *hostDomain.Account {
	return hostDomain.ReconstituteAccount(
		model.HostID,
		model.IsBlocked,
		model.BlockedAt,
		model.BlockReason,
		model.BlockedUntil,
		model.LimitedAccess,
		model.UpdatedAt,
	)
}

func toHostAccountModel(a *hostDomain.Account) *HostAccountModel {
	return &HostAccountModel{
		HostID:        a.HostID(),
		IsBlocked:     a.IsBlocked(),
		BlockedAt:     a.BlockedAt(),
		BlockReason:   a.BlockReason(),
		BlockedUntil:  a.BlockedUntil(),
		LimitedAccess: a.LimitedAccess(),
		UpdatedAt:     a.UpdatedAt(),
	}
}

func toFineItemDomain(model *FineItemModel) *hostDomain.FineItem {
	return hostDomain.ReconstituteFine(
		model.ID,
		model.HostID,
		model.Reason,
		model.Amount,
		model.DueDate,
		model.Paid,
		model.PaidAt,
		model.PenaltyApplied,
		model.EnforcementApplied,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func toFineItemModel(f *hostDomain.FineItem) *FineItemModel {
	return &FineItemModel{
		ID:                 f.ID(),
		HostID:             f.HostID(),
		Reason:             f.Reason(),
		Amount:             f.Amount(),
		DueDate:            f.DueDate(),
		Paid:               f.Paid(),
		PaidAt:             f.PaidAt(),
		PenaltyApplied:     f.PenaltyApplied(),
		EnforcementApplied: f.EnforcementApplied(),
		CreatedAt:          f.CreatedAt(),
		UpdatedAt:          f.UpdatedAt(),
	}
}
