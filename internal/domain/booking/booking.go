package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"

	"github.com/stayloop/service-booking/internal/domain"
)

// Status represents the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAwaiting  Status = "awaiting"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusEnded     Status = "ended"
)

// Terminal reports whether no further transition is permitted out of s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusEnded
}

// PaymentStatus represents whether the stay has been paid for.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// GuestCount is the guest composition of a stay.
type GuestCount struct {
	Adults   int
	Children int
	Infants  int
}

// Total returns the head count across all guest types.
func (g GuestCount) Total() int { return g.Adults + g.Children + g.Infants }

// Charges is the computed monetary breakdown attached to a booking at creation.
type Charges struct {
	AmountBeforeTax  int64
	TaxAmount        int64
	TotalAmount      int64
	CommissionAmount int64
	TaxRate          int
}

// NormalizeStayDate truncates a stay boundary to day granularity at a fixed
// UTC noon, so timezone offsets cannot shift it across a date boundary.
func NormalizeStayDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// NewConfirmationCode generates the short human-presentable code assigned to a
// booking at creation.
func NewConfirmationCode() string {
	return "BK-" + strings.ToUpper(shortuuid.New()[:8])
}

// Booking is the aggregate root for one reservation. It is never deleted, only
// status-transitioned to cancelled or ended.
type Booking struct {
	id               uuid.UUID
	confirmationCode string
	propertyID       uuid.UUID
	roomID           *uuid.UUID
	hostID           uuid.UUID
	guestID          uuid.UUID
	checkIn          time.Time
	checkOut         time.Time
	guests           GuestCount
	amountBeforeTax  int64
	taxAmount        int64
	taxRate          int
	totalAmount      int64
	commissionAmount int64
	commissionPaid   bool
	commissionPaidAt *time.Time
	paymentStatus    PaymentStatus
	paymentMethod    string
	direct           bool
	groupSize        int
	status           Status
	currency         string
	version          int64
	createdAt        time.Time
	updatedAt        time.Time
}

// NewBooking creates a pending booking with normalized stay dates and a fresh
// confirmation code.
func NewBooking(
	propertyID uuid.UUID,
	roomID *uuid.UUID,
	hostID, guestID uuid.UUID,
	checkIn, checkOut time.Time,
	guests GuestCount,
	charges Charges,
	currency string,
	direct bool,
	groupSize int,
) (*Booking, error) {
	checkIn = NormalizeStayDate(checkIn)
	checkOut = NormalizeStayDate(checkOut)
	if !checkOut.After(checkIn) {
		return nil, domain.NewInvalidDateRangeError("check-out must be after check-in")
	}
	if guests.Adults < 1 {
		return nil, domain.NewValidationError("at least one adult is required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:               uuid.New(),
		confirmationCode: NewConfirmationCode(),
		propertyID:       propertyID,
		roomID:           roomID,
		hostID:           hostID,
		guestID:          guestID,
		checkIn:          checkIn,
		checkOut:         checkOut,
		guests:           guests,
		amountBeforeTax:  charges.AmountBeforeTax,
		taxAmount:        charges.TaxAmount,
		taxRate:          charges.TaxRate,
		totalAmount:      charges.TotalAmount,
		commissionAmount: charges.CommissionAmount,
		paymentStatus:    PaymentUnpaid,
		direct:           direct,
		groupSize:        groupSize,
		status:           StatusPending,
		currency:         currency,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) ConfirmationCode() string    { return b.confirmationCode }
func (b *Booking) PropertyID() uuid.UUID       { return b.propertyID }
func (b *Booking) RoomID() *uuid.UUID          { return b.roomID }
func (b *Booking) HostID() uuid.UUID           { return b.hostID }
func (b *Booking) GuestID() uuid.UUID          { return b.guestID }
func (b *Booking) CheckIn() time.Time          { return b.checkIn }
func (b *Booking) CheckOut() time.Time         { return b.checkOut }
func (b *Booking) Guests() GuestCount          { return b.guests }
func (b *Booking) AmountBeforeTax() int64      { return b.amountBeforeTax }
func (b *Booking) TaxAmount() int64            { return b.taxAmount }
func (b *Booking) TaxRate() int                { return b.taxRate }
func (b *Booking) TotalAmount() int64          { return b.totalAmount }
func (b *Booking) CommissionAmount() int64     { return b.commissionAmount }
func (b *Booking) CommissionPaid() bool        { return b.commissionPaid }
func (b *Booking) CommissionPaidAt() *time.Time { return b.commissionPaidAt }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentMethod() string       { return b.paymentMethod }
func (b *Booking) Direct() bool                { return b.direct }
func (b *Booking) GroupSize() int              { return b.groupSize }
func (b *Booking) Status() Status              { return b.status }
func (b *Booking) Currency() string            { return b.currency }
func (b *Booking) Version() int64              { return b.version }
func (b *Booking) CreatedAt() time.Time        { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time        { return b.updatedAt }

// Nights returns the stay length in nights.
func (b *Booking) Nights() int {
	return int(b.checkOut.Sub(b.checkIn).Hours() / 24)
}

// --- State transitions ---

// MarkPaid records an authoritative payment confirmation. A pending booking
// moves to awaiting; a confirmed booking keeps its status.
func (b *Booking) MarkPaid(method string) error {
	if b.status.Terminal() {
		return domain.NewInvalidStateError(string(b.status), string(StatusAwaiting))
	}
	b.paymentStatus = PaymentPaid
	b.paymentMethod = method
	if b.status == StatusPending {
		b.status = StatusAwaiting
	}
	b.updatedAt = time.Now().UTC()
	return nil
}

// Confirm moves a pending or awaiting booking to confirmed.
func (b *Booking) Confirm() error {
	if b.status != StatusPending && b.status != StatusAwaiting {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel moves a non-terminal booking to cancelled. Non-admin callers cannot
// cancel once the check-in date has passed.
func (b *Booking) Cancel(byAdmin bool, now time.Time) error {
	if b.status.Terminal() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	if !byAdmin && now.After(b.checkIn) {
		return domain.NewUnauthorizedError("stay has already started; only an administrator can cancel")
	}
	b.status = StatusCancelled
	b.updatedAt = time.Now().UTC()
	return nil
}

// End moves a confirmed booking past its check-out date to ended.
func (b *Booking) End() error {
	if b.status != StatusConfirmed {
		return domain.NewInvalidStateError(string(b.status), string(StatusEnded))
	}
	b.status = StatusEnded
	b.updatedAt = time.Now().UTC()
	return nil
}

// Reschedule replaces the stay dates, guest composition and charges of a
// non-terminal booking. Availability must have been re-verified by the caller.
func (b *Booking) Reschedule(checkIn, checkOut time.Time, guests GuestCount, charges Charges) error {
	if b.status.Terminal() {
		return domain.NewInvalidStateError(string(b.status), "modified")
	}
	checkIn = NormalizeStayDate(checkIn)
	checkOut = NormalizeStayDate(checkOut)
	if !checkOut.After(checkIn) {
		return domain.NewInvalidDateRangeError("check-out must be after check-in")
	}
	if guests.Adults < 1 {
		return domain.NewValidationError("at least one adult is required")
	}
	b.checkIn = checkIn
	b.checkOut = checkOut
	b.guests = guests
	b.amountBeforeTax = charges.AmountBeforeTax
	b.taxAmount = charges.TaxAmount
	b.taxRate = charges.TaxRate
	b.totalAmount = charges.TotalAmount
	b.commissionAmount = charges.CommissionAmount
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkCommissionPaid records that the platform commission for this booking has
// been fully settled. Settlement never marks a booking partially paid.
func (b *Booking) MarkCommissionPaid(at time.Time) {
	b.commissionPaid = true
	b.commissionPaidAt = &at
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id uuid.UUID,
	confirmationCode string,
	propertyID uuid.UUID,
	roomID *uuid.UUID,
	hostID, guestID uuid.UUID,
	checkIn, checkOut time.Time,
	guests GuestCount,
	amountBeforeTax, taxAmount int64,
	taxRate int,
	totalAmount, commissionAmount int64,
	commissionPaid bool,
	commissionPaidAt *time.Time,
	paymentStatus PaymentStatus,
	paymentMethod string,
	direct bool,
	groupSize int,
	status Status,
	currency string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		confirmationCode: confirmationCode,
		propertyID:       propertyID,
		roomID:           roomID,
		hostID:           hostID,
		guestID:          guestID,
		checkIn:          checkIn,
		checkOut:         checkOut,
		guests:           guests,
		amountBeforeTax:  amountBeforeTax,
		taxAmount:        taxAmount,
		taxRate:          taxRate,
		totalAmount:      totalAmount,
		commissionAmount: commissionAmount,
		commissionPaid:   commissionPaid,
		commissionPaidAt: commissionPaidAt,
		paymentStatus:    paymentStatus,
		paymentMethod:    paymentMethod,
		direct:           direct,
		groupSize:        groupSize,
		status:           status,
		currency:         currency,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}
