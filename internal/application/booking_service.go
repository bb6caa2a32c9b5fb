package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/config"
	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	hostDomain "github.com/stayloop/service-booking/internal/domain/host"
	propertyDomain "github.com/stayloop/service-booking/internal/domain/property"
	"github.com/stayloop/service-booking/internal/events"
	"github.com/stayloop/service-booking/internal/platform/auth"
	"github.com/stayloop/service-booking/internal/pricing"
)

// CreateBookingRequest is the DTO for admitting a new booking.
type CreateBookingRequest struct {
	PropertyID uuid.UUID  `json:"property_id" binding:"required"`
	RoomID     *uuid.UUID `json:"room_id,omitempty"`
	CheckIn    time.Time  `json:"check_in" binding:"required"`
	CheckOut   time.Time  `json:"check_out" binding:"required"`
	Adults     int        `json:"adults" binding:"required,gt=0"`
	Children   int        `json:"children"`
	Infants    int        `json:"infants"`
	CouponCode string     `json:"coupon_code,omitempty"`

	GroupBooking bool `json:"group_booking"`
	GroupSize    int  `json:"group_size"`

	// Direct-booking fields, host-entered reservations only.
	Direct          bool       `json:"direct"`
	GuestID         *uuid.UUID `json:"guest_id,omitempty"`
	NegotiatedTotal int64      `json:"negotiated_total,omitempty"`
	AddOns          []int64    `json:"add_ons,omitempty"`
	PaidInCash      bool       `json:"paid_in_cash"`
}

// ModifyBookingRequest is the DTO for rescheduling an existing booking.
type ModifyBookingRequest struct {
	CheckIn    time.Time `json:"check_in" binding:"required"`
	CheckOut   time.Time `json:"check_out" binding:"required"`
	Adults     int       `json:"adults" binding:"required,gt=0"`
	Children   int       `json:"children"`
	Infants    int       `json:"infants"`
	CouponCode string    `json:"coupon_code,omitempty"`
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID               uuid.UUID  `json:"id"`
	ConfirmationCode string     `json:"confirmation_code"`
	PropertyID       uuid.UUID  `json:"property_id"`
	RoomID           *uuid.UUID `json:"room_id,omitempty"`
	HostID           uuid.UUID  `json:"host_id"`
	GuestID          uuid.UUID  `json:"guest_id"`
	CheckIn          time.Time  `json:"check_in"`
	CheckOut         time.Time  `json:"check_out"`
	Nights           int        `json:"nights"`
	Adults           int        `json:"adults"`
	Children         int        `json:"children"`
	Infants          int        `json:"infants"`
	AmountBeforeTax  int64      `json:"amount_before_tax"`
	TaxAmount        int64      `json:"tax_amount"`
	TaxRate          int        `json:"tax_rate"`
	TotalAmount      int64      `json:"total_amount"`
	CommissionAmount int64      `json:"commission_amount"`
	CommissionPaid   bool       `json:"commission_paid"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	Direct           bool       `json:"direct"`
	Status           string     `json:"status"`
	Currency         string     `json:"currency"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AvailabilityDTO is the API response for an availability probe.
type AvailabilityDTO struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// BookingService is the application service that orchestrates booking
// admission and lifecycle use cases.
type BookingService struct {
	bookings   bookingDomain.Repository
	properties propertyDomain.Repository
	hosts      hostDomain.Repository
	notifier   events.Notifier
	cfg        *config.ServiceConfig
	logger     *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	properties propertyDomain.Repository,
	hosts hostDomain.Repository,
	notifier events.Notifier,
	cfg *config.ServiceConfig,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:   bookings,
		properties: properties,
		hosts:      hosts,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// CheckAvailability probes whether [checkIn, checkOut) is free for the
// property (and room, when given) without reserving anything.
func (s *BookingService) CheckAvailability(ctx context.Context, propertyID uuid.UUID, roomID *uuid.UUID, checkIn, checkOut time.Time) (*AvailabilityDTO, error) {
	checkIn = bookingDomain.NormalizeStayDate(checkIn)
	checkOut = bookingDomain.NormalizeStayDate(checkOut)
	if !checkOut.After(checkIn) {
		return nil, domain.NewInvalidDateRangeError("check-out must be after check-in")
	}

	if roomID != nil {
		room, err := s.properties.FindRoom(ctx, *roomID)
		if err != nil {
			return nil, err
		}
		for _, closed := range room.ClosedRanges {
			if closed.Overlaps(checkIn, checkOut) {
				return &AvailabilityDTO{Available: false, Reason: "room is closed for part of the requested dates"}, nil
			}
		}
	}

	conflict, err := s.bookings.HasConflict(ctx, propertyID, roomID, checkIn, checkOut, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return &AvailabilityDTO{Available: false, Reason: "dates overlap an existing reservation"}, nil
	}
	return &AvailabilityDTO{Available: true}, nil
}

// CreateBooking admits a new reservation: ownership and block checks, capacity
// validation, pricing, and the atomic availability-checked insert.
func (s *BookingService) CreateBooking(ctx context.Context, actor auth.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	s.logger.Info("creating booking",
		zap.String("property_id", req.PropertyID.String()),
		zap.String("actor_id", actor.ID.String()),
		zap.Bool("direct", req.Direct),
	)

	prop, err := s.properties.FindProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	guestID := actor.ID
	if req.Direct {
		if !actor.IsAdmin() && actor.ID != prop.HostID {
			return nil, domain.NewUnauthorizedError("only the property owner can enter a direct booking")
		}
		if req.GuestID != nil {
			guestID = *req.GuestID
		}
	} else {
		if actor.ID == prop.HostID {
			return nil, domain.NewUnauthorizedError("hosts cannot book their own property as guests")
		}
		if req.NegotiatedTotal > 0 || len(req.AddOns) > 0 || req.PaidInCash {
			return nil, domain.NewValidationError("negotiated totals, add-ons and cash payment are direct-booking fields")
		}
	}

	if err := s.ensureHostAcceptsBookings(ctx, prop.HostID); err != nil {
		return nil, err
	}

	var room *propertyDomain.Room
	if req.RoomID != nil {
		room, err = s.properties.FindRoom(ctx, *req.RoomID)
		if err != nil {
			return nil, err
		}
		if room.PropertyID != prop.ID {
			return nil, domain.NewValidationError("room does not belong to the property")
		}
	}

	if err := pricing.ValidateCapacity(prop, room, req.Adults, req.Children, req.Infants); err != nil {
		return nil, err
	}

	checkIn := bookingDomain.NormalizeStayDate(req.CheckIn)
	checkOut := bookingDomain.NormalizeStayDate(req.CheckOut)
	if room != nil {
		for _, closed := range room.ClosedRanges {
			if closed.Overlaps(checkIn, checkOut) {
				return nil, domain.NewDateRangeConflictError("room is closed for part of the requested dates")
			}
		}
	}

	quote, err := pricing.Compute(s.quoteInput(prop, room, checkIn, checkOut, req))
	if err != nil {
		return nil, err
	}

	groupSize := 0
	if req.GroupBooking {
		groupSize = req.GroupSize
	}
	b, err := bookingDomain.NewBooking(
		prop.ID, req.RoomID, prop.HostID, guestID,
		checkIn, checkOut,
		bookingDomain.GuestCount{Adults: req.Adults, Children: req.Children, Infants: req.Infants},
		bookingDomain.Charges{
			AmountBeforeTax:  quote.AmountBeforeTax,
			TaxAmount:        quote.TaxAmount,
			TaxRate:          quote.TaxRate,
			TotalAmount:      quote.TotalAmount,
			CommissionAmount: quote.CommissionAmount,
		},
		s.cfg.Currency,
		req.Direct,
		groupSize,
	)
	if err != nil {
		return nil, err
	}

	// A direct booking paid in cash at the desk skips the payment collaborator
	// and lands confirmed immediately.
	if req.Direct && req.PaidInCash {
		if err := b.MarkPaid("cash"); err != nil {
			return nil, err
		}
		if err := b.Confirm(); err != nil {
			return nil, err
		}
	}

	if err := s.bookings.CreateIfAvailable(ctx, b); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.NotifyBookingCreated, b.HostID(), map[string]interface{}{
		"booking_id":        b.ID().String(),
		"confirmation_code": b.ConfirmationCode(),
		"check_in":          b.CheckIn(),
		"check_out":         b.CheckOut(),
	})
	if b.Status() == bookingDomain.StatusConfirmed {
		s.notifier.Notify(ctx, events.NotifyBookingConfirmed, b.GuestID(), map[string]interface{}{
			"booking_id":        b.ID().String(),
			"confirmation_code": b.ConfirmationCode(),
		})
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// ConfirmBooking moves a booking to confirmed on behalf of the host.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && actor.ID != b.HostID() && !actor.HasPrivilege(auth.PrivilegeManageBookings) {
		return nil, domain.NewUnauthorizedError("only the host or an administrator can confirm a booking")
	}

	if err := b.Confirm(); err != nil {
		return nil, err
	}
	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, events.NotifyBookingConfirmed, b.GuestID(), map[string]interface{}{
		"booking_id":        b.ID().String(),
		"confirmation_code": b.ConfirmationCode(),
	})
	if b.CommissionAmount() > 0 {
		s.notifier.Notify(ctx, events.NotifyCommissionDue, b.HostID(), map[string]interface{}{
			"booking_id":        b.ID().String(),
			"commission_amount": b.CommissionAmount(),
			"currency":          b.Currency(),
		})
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// ModifyBooking reschedules a booking: capacity and availability are
// re-verified excluding the booking itself, and the stay is repriced.
func (s *BookingService) ModifyBooking(ctx context.Context, actor auth.Actor, bookingID uuid.UUID, req ModifyBookingRequest) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, b); err != nil {
		return nil, err
	}
	if b.Direct() {
		// A direct booking's charges were negotiated at the desk and cannot be
		// mechanically repriced. The host cancels and re-enters instead.
		return nil, domain.NewValidationError("direct bookings cannot be modified")
	}

	prop, err := s.properties.FindProperty(ctx, b.PropertyID())
	if err != nil {
		return nil, err
	}
	var room *propertyDomain.Room
	if b.RoomID() != nil {
		room, err = s.properties.FindRoom(ctx, *b.RoomID())
		if err != nil {
			return nil, err
		}
	}

	if err := pricing.ValidateCapacity(prop, room, req.Adults, req.Children, req.Infants); err != nil {
		return nil, err
	}

	checkIn := bookingDomain.NormalizeStayDate(req.CheckIn)
	checkOut := bookingDomain.NormalizeStayDate(req.CheckOut)
	if room != nil {
		for _, closed := range room.ClosedRanges {
			if closed.Overlaps(checkIn, checkOut) {
				return nil, domain.NewDateRangeConflictError("room is closed for part of the requested dates")
			}
		}
	}

	quote, err := pricing.Compute(s.quoteInput(prop, room, checkIn, checkOut, CreateBookingRequest{
		Adults:       req.Adults,
		Children:     req.Children,
		Infants:      req.Infants,
		CouponCode:   req.CouponCode,
		GroupBooking: b.GroupSize() > 0,
		GroupSize:    b.GroupSize(),
	}))
	if err != nil {
		return nil, err
	}

	err = b.Reschedule(checkIn, checkOut,
		bookingDomain.GuestCount{Adults: req.Adults, Children: req.Children, Infants: req.Infants},
		bookingDomain.Charges{
			AmountBeforeTax:  quote.AmountBeforeTax,
			TaxAmount:        quote.TaxAmount,
			TaxRate:          quote.TaxRate,
			TotalAmount:      quote.TotalAmount,
			CommissionAmount: quote.CommissionAmount,
		},
	)
	if err != nil {
		return nil, err
	}
	b.IncrementVersion()
	if err := s.bookings.UpdateIfAvailable(ctx, b); err != nil {
		return nil, err
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// CancelBooking moves a booking to cancelled. Guests and hosts can cancel up
// to check-in; administrators can cancel any live booking.
func (s *BookingService) CancelBooking(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, b); err != nil {
		return nil, err
	}

	if err := b.Cancel(actor.IsAdmin(), time.Now().UTC()); err != nil {
		return nil, err
	}
	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"booking_id":        b.ID().String(),
		"confirmation_code": b.ConfirmationCode(),
	}
	s.notifier.Notify(ctx, events.NotifyBookingCancelled, b.GuestID(), payload)
	s.notifier.Notify(ctx, events.NotifyBookingCancelled, b.HostID(), payload)

	dto := toBookingDTO(b)
	return &dto, nil
}

// GetBooking retrieves a booking visible to its guest, its host or an
// administrator.
func (s *BookingService) GetBooking(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, b); err != nil {
		return nil, err
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// HandlePaymentConfirmed reacts to the payment collaborator's confirmation:
// the booking is marked paid and moves pending to awaiting host confirmation.
func (s *BookingService) HandlePaymentConfirmed(ctx context.Context, event events.PaymentConfirmedEvent) error {
	s.logger.Info("handling payment confirmed event",
		zap.String("booking_id", event.BookingID.String()),
		zap.Int64("amount_paid", event.AmountPaid),
	)

	b, err := s.bookings.FindByID(ctx, event.BookingID)
	if err != nil {
		if domErr, ok := err.(*domain.DomainError); ok && domErr.Err == domain.ErrNotFound {
			s.logger.Warn("no booking found for payment, skipping",
				zap.String("booking_id", event.BookingID.String()),
			)
			return nil
		}
		return err
	}

	if b.PaymentStatus() == bookingDomain.PaymentPaid {
		return nil
	}

	if err := b.MarkPaid(event.Method); err != nil {
		return err
	}
	b.IncrementVersion()
	return s.bookings.Update(ctx, b)
}

// EndElapsedStays moves confirmed bookings past their check-out to ended and
// queues a review reminder for the guest. Returns the number ended.
func (s *BookingService) EndElapsedStays(ctx context.Context, now time.Time, batchSize int) (int, error) {
	elapsed, err := s.bookings.ListConfirmedCheckedOutBefore(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	ended := 0
	for _, b := range elapsed {
		if err := b.End(); err != nil {
			s.logger.Warn("could not end booking",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		b.IncrementVersion()
		if err := s.bookings.Update(ctx, b); err != nil {
			s.logger.Error("failed to persist ended booking",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		ended++

		s.notifier.Notify(ctx, events.NotifyReviewReminder, b.GuestID(), map[string]interface{}{
			"booking_id":        b.ID().String(),
			"confirmation_code": b.ConfirmationCode(),
			"property_id":       b.PropertyID().String(),
		})
	}
	return ended, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// ensureHostAcceptsBookings rejects admission against a blocked host. An
// expired temporary block is lifted on the way through.
func (s *BookingService) ensureHostAcceptsBookings(ctx context.Context, hostID uuid.UUID) error {
	account, err := s.hosts.FindAccount(ctx, hostID)
	if err != nil {
		return err
	}
	if account.AutoUnblockIfExpired(time.Now().UTC()) {
		if err := s.hosts.UpdateAccount(ctx, account); err != nil {
			return err
		}
	}
	if account.IsBlocked() {
		return domain.NewHostBlockedError("host is not accepting bookings")
	}
	return nil
}

// authorizeParticipant permits the booking's guest, its host, administrators
// and delegates holding the booking-management privilege.
func (s *BookingService) authorizeParticipant(actor auth.Actor, b *bookingDomain.Booking) error {
	if actor.IsAdmin() || actor.HasPrivilege(auth.PrivilegeManageBookings) {
		return nil
	}
	if actor.ID == b.GuestID() || actor.ID == b.HostID() {
		return nil
	}
	return domain.NewUnauthorizedError("not a participant of this booking")
}

func (s *BookingService) quoteInput(prop *propertyDomain.Property, room *propertyDomain.Room, checkIn, checkOut time.Time, req CreateBookingRequest) pricing.QuoteInput {
	in := pricing.QuoteInput{
		NightlyRate: prop.NightlyRate,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Now:         time.Now().UTC(),

		Adults:   req.Adults,
		Children: req.Children,
		Infants:  req.Infants,

		// Whole-property stays have no per-room guest pricing; children count
		// as full guests and infants stay free.
		ChildPercent:  100,
		InfantPercent: 0,

		Promotions: prop.Promotions,
		CouponCode: req.CouponCode,

		GroupBooking:         req.GroupBooking,
		GroupSize:            req.GroupSize,
		GroupDiscountEnabled: prop.GroupDiscountEnabled,
		GroupDiscountPercent: prop.GroupDiscountPercent,

		NegotiatedTotal: req.NegotiatedTotal,
		AddOns:          req.AddOns,

		TaxRatePercent: s.cfg.TaxRatePercent,

		PropertyCommissionPercent: prop.CommissionPercent,
		CommissionMin:             s.cfg.CommissionMin,
		CommissionMax:             s.cfg.CommissionMax,
		CommissionTiers:           commissionTiers(s.cfg.CommissionTiers),
	}
	if room != nil {
		in.NightlyRate = room.NightlyRate
		in.ChildPercent = room.ChildPercent
		in.InfantPercent = room.InfantPercent
	}
	return in
}

func commissionTiers(tiers []config.CommissionTier) []pricing.CommissionTier {
	out := make([]pricing.CommissionTier, len(tiers))
	for i, t := range tiers {
		out[i] = pricing.CommissionTier{UpTo: t.UpTo, Percent: t.Percent}
	}
	return out
}

// toBookingDTO maps a domain Booking to a BookingDTO.
func toBookingDTO(b *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:               b.ID(),
		ConfirmationCode: b.ConfirmationCode(),
		PropertyID:       b.PropertyID(),
		RoomID:           b.RoomID(),
		HostID:           b.HostID(),
		GuestID:          b.GuestID(),
		CheckIn:          b.CheckIn(),
		CheckOut:         b.CheckOut(),
		Nights:           b.Nights(),
		Adults:           b.Guests().Adults,
		Children:         b.Guests().Children,
		Infants:          b.Guests().Infants,
		AmountBeforeTax:  b.AmountBeforeTax(),
		TaxAmount:        b.TaxAmount(),
		TaxRate:          b.TaxRate(),
		TotalAmount:      b.TotalAmount(),
		CommissionAmount: b.CommissionAmount(),
		CommissionPaid:   b.CommissionPaid(),
		PaymentStatus:    string(b.PaymentStatus()),
		PaymentMethod:    b.PaymentMethod(),
		Direct:           b.Direct(),
		Status:           string(b.Status()),
		Currency:         b.Currency(),
		Version:          b.Version(),
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
	}
}
