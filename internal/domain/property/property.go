package property

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PromoKind distinguishes the three promotion types a property may carry.
type PromoKind string

const (
	PromoCoupon          PromoKind = "coupon"
	PromoLastMinute      PromoKind = "last_minute"
	PromoAdvancePurchase PromoKind = "advance_purchase"
)

// Promotion is one discount configured on a property. Eligibility depends on
// the kind: coupons need an exact code match, last-minute and advance-purchase
// promotions gate on days until check-in.
type Promotion struct {
	ID              uuid.UUID
	Kind            PromoKind
	DiscountPercent int
	CouponCode      string
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	DayThreshold    int
}

// DateRange is a half-open [Start, End) interval at day granularity.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports strict half-open interval overlap with [start, end).
func (r DateRange) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && r.End.After(start)
}

// Room is a bookable unit within a property. Read-only from the booking
// engine's perspective.
type Room struct {
	ID            uuid.UUID
	PropertyID    uuid.UUID
	NightlyRate   int64
	MaxAdults     int
	MaxChildren   int
	MaxInfants    int
	ChildPercent  int
	InfantPercent int
	ClosedRanges  []DateRange
}

// Property is the listing a host owns. The booking engine only reads it.
type Property struct {
	ID                   uuid.UUID
	HostID               uuid.UUID
	NightlyRate          int64
	MaxGuests            int
	CommissionPercent    int
	GroupDiscountEnabled bool
	GroupDiscountPercent int
	Promotions           []Promotion
}

// Repository is the read-only contract to the property store. Listing CRUD
// lives outside this service.
type Repository interface {
	FindProperty(ctx context.Context, id uuid.UUID) (*Property, error)
	FindRoom(ctx context.Context, id uuid.UUID) (*Room, error)
}
