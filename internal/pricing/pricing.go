// Package pricing computes the monetary breakdown of a stay: guest-composition
// surcharges, promotion selection, group discounts, embedded tax extraction,
// direct-booking overrides and platform commission.
package pricing

import (
	"math"
	"strings"
	"time"

	"github.com/stayloop/service-booking/internal/domain"
	"github.com/stayloop/service-booking/internal/domain/property"
)

// CommissionTier is one step of the tiered default commission schedule.
type CommissionTier struct {
	UpTo    int64 // pre-tax amount threshold, 0 = no upper bound
	Percent int
}

// QuoteInput carries everything needed to price one stay.
type QuoteInput struct {
	NightlyRate int64
	CheckIn     time.Time
	CheckOut    time.Time
	Now         time.Time

	Adults   int
	Children int
	Infants  int

	ChildPercent  int
	InfantPercent int

	Promotions []property.Promotion
	CouponCode string

	GroupBooking         bool
	GroupSize            int
	GroupDiscountEnabled bool
	GroupDiscountPercent int

	// NegotiatedTotal, when positive, is a host-entered direct booking's final
	// amount; computed pricing and discounts are discarded in its favor.
	NegotiatedTotal int64
	// AddOns are flat direct-booking line items added to the total only.
	AddOns []int64

	TaxRatePercent int

	PropertyCommissionPercent int
	CommissionMin             int
	CommissionMax             int
	CommissionTiers           []CommissionTier
}

// Quote is the computed breakdown. AmountBeforeTax + TaxAmount always equals
// TotalAmount minus add-ons; commission is charged on the pre-tax amount.
type Quote struct {
	BasePrice        int64
	DiscountPercent  int
	AmountBeforeTax  int64
	TaxAmount        int64
	TaxRate          int
	TotalAmount      int64
	CommissionAmount int64
	CommissionRate   int
}

func round(x float64) int64 {
	return int64(math.Round(x))
}

// Nights returns the stay length at day granularity.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Round(checkOut.Sub(checkIn).Hours() / 24))
}

func daysUntil(now, checkIn time.Time) int {
	ny, nm, nd := now.UTC().Date()
	cy, cm, cd := checkIn.UTC().Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	day := time.Date(cy, cm, cd, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

// GuestFactor computes the per-night multiplier for a guest composition,
// floored at 1 so an empty or child-only stay still pays a full night.
func GuestFactor(adults, children, infants, childPercent, infantPercent int) float64 {
	factor := float64(adults) +
		float64(children)*float64(childPercent)/100.0 +
		float64(infants)*float64(infantPercent)/100.0
	if factor < 1 {
		factor = 1
	}
	return factor
}

// BestDiscount evaluates every promotion's eligibility and returns the single
// highest applicable discount percentage clamped to [1, 90], or 0 when none
// apply. Promotions are never stacked.
func BestDiscount(promos []property.Promotion, couponCode string, now, checkIn time.Time) int {
	days := daysUntil(now, checkIn)
	best := 0
	for _, p := range promos {
		if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
			continue
		}
		if p.ValidUntil != nil && now.After(*p.ValidUntil) {
			continue
		}
		switch p.Kind {
		case property.PromoCoupon:
			if p.CouponCode == "" || !strings.EqualFold(p.CouponCode, couponCode) {
				continue
			}
		case property.PromoLastMinute:
			if days > p.DayThreshold {
				continue
			}
		case property.PromoAdvancePurchase:
			if days < p.DayThreshold {
				continue
			}
		default:
			continue
		}

		pct := p.DiscountPercent
		if pct < 1 {
			continue
		}
		if pct > 90 {
			pct = 90
		}
		if pct > best {
			best = pct
		}
	}
	return best
}

// ValidateCapacity checks the guest composition against the room limits, or
// the property's overall guest limit when no room was chosen.
func ValidateCapacity(prop *property.Property, room *property.Room, adults, children, infants int) error {
	if room != nil {
		if adults > room.MaxAdults || children > room.MaxChildren || infants > room.MaxInfants {
			return domain.NewCapacityExceededError("guest composition exceeds room limits")
		}
		return nil
	}
	if prop.MaxGuests > 0 && adults+children+infants > prop.MaxGuests {
		return domain.NewCapacityExceededError("guest composition exceeds property limits")
	}
	return nil
}

// Compute produces the full monetary breakdown for a stay.
func Compute(in QuoteInput) (Quote, error) {
	nights := Nights(in.CheckIn, in.CheckOut)
	if nights <= 0 {
		return Quote{}, domain.NewInvalidDateRangeError("check-out must be after check-in")
	}

	factor := GuestFactor(in.Adults, in.Children, in.Infants, in.ChildPercent, in.InfantPercent)
	perNight := round(float64(in.NightlyRate) * factor)
	basePrice := perNight * int64(nights)

	discount := BestDiscount(in.Promotions, in.CouponCode, in.Now, in.CheckIn)
	price := basePrice
	if discount > 0 {
		price = round(float64(basePrice) * float64(100-discount) / 100.0)
	}

	if in.GroupBooking && in.GroupSize >= 4 && in.GroupDiscountEnabled && in.GroupDiscountPercent > 0 {
		price -= round(float64(price) * float64(in.GroupDiscountPercent) / 100.0)
	}

	r := in.TaxRatePercent
	q := Quote{BasePrice: basePrice, DiscountPercent: discount, TaxRate: r}

	if in.NegotiatedTotal > 0 {
		// Direct-booking override: the negotiated total is authoritative and
		// computed discounts are voided. Tax stays embedded, back-derived.
		q.DiscountPercent = 0
		q.AmountBeforeTax = round(float64(in.NegotiatedTotal) * 100.0 / float64(100+r))
		q.TaxAmount = in.NegotiatedTotal - q.AmountBeforeTax
		q.TotalAmount = in.NegotiatedTotal
	} else {
		// Tax is extracted from the displayed total, never added on top.
		q.TaxAmount = round(float64(price) * float64(r) / float64(100+r))
		q.AmountBeforeTax = price - q.TaxAmount
		q.TotalAmount = price
	}

	for _, addOn := range in.AddOns {
		if addOn > 0 {
			q.TotalAmount += addOn
		}
	}

	q.CommissionRate = commissionRate(in, q.AmountBeforeTax)
	q.CommissionAmount = round(float64(q.AmountBeforeTax) * float64(q.CommissionRate) / 100.0)
	return q, nil
}

// commissionRate picks the property's configured rate when it falls inside the
// administrator-defined band, otherwise the tiered system default.
func commissionRate(in QuoteInput, amountBeforeTax int64) int {
	if in.PropertyCommissionPercent >= in.CommissionMin && in.PropertyCommissionPercent <= in.CommissionMax {
		return in.PropertyCommissionPercent
	}
	for _, tier := range in.CommissionTiers {
		if tier.UpTo == 0 || amountBeforeTax <= tier.UpTo {
			return tier.Percent
		}
	}
	return 0
}
