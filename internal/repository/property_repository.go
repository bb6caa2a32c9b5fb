package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayloop/service-booking/internal/domain"
	propertyDomain "github.com/stayloop/service-booking/internal/domain/property"
)

// PropertyModel is the GORM persistence model for the properties table. The
// booking engine reads these rows; listing management writes them elsewhere.
type PropertyModel struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	HostID               uuid.UUID        `gorm:"type:uuid;not null;index"`
	NightlyRate          int64            `gorm:"not null"`
	MaxGuests            int              `gorm:"not null"`
	CommissionPercent    int              `gorm:"not null;default:0"`
	GroupDiscountEnabled bool             `gorm:"not null;default:false"`
	GroupDiscountPercent int              `gorm:"not null;default:0"`
	Promotions           []PromotionModel `gorm:"foreignKey:PropertyID"`
	CreatedAt            time.Time        `gorm:"type:timestamptz;not null"`
	UpdatedAt            time.Time        `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (PropertyModel) TableName() string {
	return "properties"
}

// PromotionModel is the GORM persistence model for property promotions.
type PromotionModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PropertyID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind            string     `gorm:"type:varchar(20);not null"`
	DiscountPercent int        `gorm:"not null"`
	CouponCode      string     `gorm:"type:varchar(50)"`
	ValidFrom       *time.Time `gorm:"type:timestamptz"`
	ValidUntil      *time.Time `gorm:"type:timestamptz"`
	DayThreshold    int        `gorm:"not null;default:0"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (PromotionModel) TableName() string {
	return "promotions"
}

// RoomModel is the GORM persistence model for bookable rooms.
type RoomModel struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey"`
	PropertyID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	NightlyRate   int64              `gorm:"not null"`
	MaxAdults     int                `gorm:"not null"`
	MaxChildren   int                `gorm:"not null;default:0"`
	MaxInfants    int                `gorm:"not null;default:0"`
	ChildPercent  int                `gorm:"not null;default:100"`
	InfantPercent int                `gorm:"not null;default:0"`
	ClosedRanges  []ClosedRangeModel `gorm:"foreignKey:RoomID"`
	CreatedAt     time.Time          `gorm:"type:timestamptz;not null"`
	UpdatedAt     time.Time          `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (RoomModel) TableName() string {
	return "rooms"
}

// ClosedRangeModel is the GORM persistence model for host-declared closed
// date ranges on a room.
type ClosedRangeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate time.Time `gorm:"type:timestamptz;not null"`
	EndDate   time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (ClosedRangeModel) TableName() string {
	return "room_closed_ranges"
}

// PropertyRepositoryImpl is the GORM-based read-only property repository.
type PropertyRepositoryImpl struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new GORM-based property repository.
func NewPropertyRepository(db *gorm.DB) *PropertyRepositoryImpl {
	return &PropertyRepositoryImpl{db: db}
}

// FindProperty retrieves a property with its promotions.
func (r *PropertyRepositoryImpl) FindProperty(ctx context.Context, id uuid.UUID) (*propertyDomain.Property, error) {
	var model PropertyModel
	if err := r.db.WithContext(ctx).Preload("Promotions").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Property", id.String())
		}
		return nil, err
	}

	promos := make([]propertyDomain.Promotion, len(model.Promotions))
	for i, p := range model.Promotions {
		promos[i] = propertyDomain.Promotion{
			ID:              p.ID,
			Kind:            propertyDomain.PromoKind(p.Kind),
			DiscountPercent: p.DiscountPercent,
			CouponCode:      p.CouponCode,
			ValidFrom:       p.ValidFrom,
			ValidUntil:      p.ValidUntil,
			DayThreshold:    p.DayThreshold,
		}
	}

	return &propertyDomain.Property{
		ID:                   model.ID,
		HostID:               model.HostID,
		NightlyRate:          model.NightlyRate,
		MaxGuests:            model.MaxGuests,
		CommissionPercent:    model.CommissionPercent,
		GroupDiscountEnabled: model.GroupDiscountEnabled,
		GroupDiscountPercent: model.GroupDiscountPercent,
		Promotions:           promos,
	}, nil
}

// FindRoom retrieves a room with its closed ranges.
func (r *PropertyRepositoryImpl) FindRoom(ctx context.Context, id uuid.UUID) (*propertyDomain.Room, error) {
	var model RoomModel
	if err := r.db.WithContext(ctx).Preload("ClosedRanges").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", id.String())
		}
		return nil, err
	}

	closed := make([]propertyDomain.DateRange, len(model.ClosedRanges))
	for i, cr := range model.ClosedRanges {
		closed[i] = propertyDomain.DateRange{Start: cr.StartDate, End: cr.EndDate}
	}

	return &propertyDomain.Room{
		ID:            model.ID,
		PropertyID:    model.PropertyID,
		NightlyRate:   model.NightlyRate,
		MaxAdults:     model.MaxAdults,
		MaxChildren:   model.MaxChildren,
		MaxInfants:    model.MaxInfants,
		ChildPercent:  model.ChildPercent,
		InfantPercent: model.InfantPercent,
		ClosedRanges:  closed,
	}, nil
}
