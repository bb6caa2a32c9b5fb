package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
)

// BookingModel is the GORM persistence model for the bookings table.
type BookingModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ConfirmationCode string     `gorm:"type:varchar(16);uniqueIndex;not null"`
	PropertyID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_bookings_property_dates"`
	RoomID           *uuid.UUID `gorm:"type:uuid;index"`
	HostID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	GuestID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	CheckIn          time.Time  `gorm:"type:timestamptz;not null;index:idx_bookings_property_dates"`
	CheckOut         time.Time  `gorm:"type:timestamptz;not null"`
	Adults           int        `gorm:"not null"`
	Children         int        `gorm:"not null;default:0"`
	Infants          int        `gorm:"not null;default:0"`
	AmountBeforeTax  int64      `gorm:"not null"`
	TaxAmount        int64      `gorm:"not null"`
	TaxRate          int        `gorm:"not null"`
	TotalAmount      int64      `gorm:"not null"`
	CommissionAmount int64      `gorm:"not null"`
	CommissionPaid   bool       `gorm:"not null;default:false;index"`
	CommissionPaidAt *time.Time `gorm:"type:timestamptz"`
	PaymentStatus    string     `gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaymentMethod    string     `gorm:"type:varchar(50)"`
	Direct           bool       `gorm:"not null;default:false"`
	GroupSize        int        `gorm:"not null;default:0"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Currency         string     `gorm:"type:varchar(3);not null"`
	Version          int64      `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string {
	return "bookings"
}

// BookingRepositoryImpl is the GORM-based implementation of the booking
// repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// FindByID retrieves a booking by its unique ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// conflictQuery builds the strict half-open overlap test against live
// bookings. A roomless booking occupies the whole property, so it conflicts
// with everything; a roomed candidate also conflicts with roomless stays.
func conflictQuery(db *gorm.DB, propertyID uuid.UUID, roomID *uuid.UUID, start, end time.Time, exclude *uuid.UUID) *gorm.DB {
	q := db.Model(&BookingModel{}).
		Where("property_id = ?", propertyID).
		Where("status NOT IN ?", []string{string(bookingDomain.StatusCancelled), string(bookingDomain.StatusEnded)}).
		Where("check_in < ? AND check_out > ?", end, start)

	if roomID != nil {
		q = q.Where("room_id = ? OR room_id IS NULL", *roomID)
	}
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	return q
}

// HasConflict reports whether any live booking overlaps the candidate range.
func (r *BookingRepositoryImpl) HasConflict(ctx context.Context, propertyID uuid.UUID, roomID *uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	var count int64
	if err := conflictQuery(r.db.WithContext(ctx), propertyID, roomID, start, end, exclude).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// lockProperty serializes writers on one property within the transaction, so
// the conflict re-check and insert below act as a single atomic unit. Without
// it two concurrent requests could both pass the check before either persists.
func lockProperty(tx *gorm.DB, propertyID uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", propertyID.String()).Error
}

// CreateIfAvailable atomically re-checks availability and inserts the booking.
func (r *BookingRepositoryImpl) CreateIfAvailable(ctx context.Context, b *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProperty(tx, b.PropertyID()); err != nil {
			return err
		}

		var count int64
		if err := conflictQuery(tx, b.PropertyID(), b.RoomID(), b.CheckIn(), b.CheckOut(), nil).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.NewDateRangeConflictError("requested dates are no longer available")
		}

		return tx.Create(toBookingModel(b)).Error
	})
}

// UpdateIfAvailable atomically re-checks availability (excluding the booking
// itself) and persists the modified booking with optimistic locking.
func (r *BookingRepositoryImpl) UpdateIfAvailable(ctx context.Context, b *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProperty(tx, b.PropertyID()); err != nil {
			return err
		}

		id := b.ID()
		var count int64
		if err := conflictQuery(tx, b.PropertyID(), b.RoomID(), b.CheckIn(), b.CheckOut(), &id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.NewDateRangeConflictError("requested dates are no longer available")
		}

		return updateWithVersion(tx, b)
	})
}

// Update persists changes with optimistic locking on the version column.
func (r *BookingRepositoryImpl) Update(ctx context.Context, b *bookingDomain.Booking) error {
	return updateWithVersion(r.db.WithContext(ctx), b)
}

func updateWithVersion(db *gorm.DB, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	previousVersion := b.Version() - 1

	result := db.Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// ListAll retrieves bookings with pagination (admin).
func (r *BookingRepositoryImpl) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total)

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by lifecycle status (admin).
func (r *BookingRepositoryImpl) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// ListConfirmedCheckedOutBefore returns confirmed bookings whose check-out has
// passed, oldest first.
func (r *BookingRepositoryImpl) ListConfirmedCheckedOutBefore(ctx context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND check_out < ?", string(bookingDomain.StatusConfirmed), cutoff).
		Order("check_out ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, nil
}

// CommissionOwedByHost sums unpaid commission per host over paid bookings in
// status confirmed or ended, created in [from, to).
func (r *BookingRepositoryImpl) CommissionOwedByHost(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error) {
	type hostSum struct {
		HostID uuid.UUID
		Total  int64
	}
	var results []hostSum
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("host_id, COALESCE(SUM(commission_amount), 0) as total").
		Where("payment_status = ?", string(bookingDomain.PaymentPaid)).
		Where("status IN ?", []string{string(bookingDomain.StatusConfirmed), string(bookingDomain.StatusEnded)}).
		Where("commission_paid = false AND commission_amount > 0").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("host_id").
		Find(&results).Error; err != nil {
		return nil, err
	}

	owed := make(map[uuid.UUID]int64, len(results))
	for _, hs := range results {
		owed[hs.HostID] = hs.Total
	}
	return owed, nil
}

// toBookingDomain maps a BookingModel to the domain Booking aggregate.
func toBookingDomain(model *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstitute(
		model.ID,
		model.ConfirmationCode,
		model.PropertyID,
		model.RoomID,
		model.HostID,
		model.GuestID,
		model.CheckIn,
		model.CheckOut,
		bookingDomain.GuestCount{Adults: model.Adults, Children: model.Children, Infants: model.Infants},
		model.AmountBeforeTax,
		model.TaxAmount,
		model.TaxRate,
		model.TotalAmount,
		model.CommissionAmount,
		model.CommissionPaid,
		model.CommissionPaidAt,
		bookingDomain.PaymentStatus(model.PaymentStatus),
		model.PaymentMethod,
		model.Direct,
		model.GroupSize,
		bookingDomain.Status(model.Status),
		model.Currency,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// toBookingModel maps a domain Booking aggregate to a BookingModel.
func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:               b.ID(),
		ConfirmationCode: b.ConfirmationCode(),
		PropertyID:       b.PropertyID(),
		RoomID:           b.RoomID(),
		HostID:           b.HostID(),
		GuestID:          b.GuestID(),
		CheckIn:          b.CheckIn(),
		CheckOut:         b.CheckOut(),
		Adults:           b.Guests().Adults,
		Children:         b.Guests().Children,
		Infants:          b.Guests().Infants,
		AmountBeforeTax:  b.AmountBeforeTax(),
		TaxAmount:        b.TaxAmount(),
		TaxRate:          b.TaxRate(),
		TotalAmount:      b.TotalAmount(),
		CommissionAmount: b.CommissionAmount(),
		CommissionPaid:   b.CommissionPaid(),
		CommissionPaidAt: b.CommissionPaidAt(),
		PaymentStatus:    string(b.PaymentStatus()),
		PaymentMethod:    b.PaymentMethod(),
		Direct:           b.Direct(),
		GroupSize:        b.GroupSize(),
		Status:           string(b.Status()),
		Currency:         b.Currency(),
		Version:          b.Version(),
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
	}
}
