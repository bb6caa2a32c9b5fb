package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/service-booking/internal/domain"
	"github.com/stayloop/service-booking/internal/domain/property"
)

func baseInput() QuoteInput {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return QuoteInput{
		NightlyRate:    20_000,
		CheckIn:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC),
		Now:            now,
		Adults:         1,
		TaxRatePercent: 3,

		PropertyCommissionPercent: 10,
		CommissionMin:             5,
		CommissionMax:             25,
	}
}

func TestCompute_GuestFactorAndTaxExtraction(t *testing.T) {
	in := baseInput()
	in.Children = 1
	in.ChildPercent = 50

	q, err := Compute(in)
	require.NoError(t, err)

	// 20,000 x 1.5 guest factor x 3 nights.
	assert.Equal(t, int64(90_000), q.BasePrice)
	assert.Equal(t, int64(90_000), q.TotalAmount)
	// Tax is extracted from the total, not added on top.
	assert.Equal(t, int64(2_621), q.TaxAmount)
	assert.Equal(t, int64(87_379), q.AmountBeforeTax)
	assert.Equal(t, q.TotalAmount, q.AmountBeforeTax+q.TaxAmount)
}

func TestGuestFactor_FlooredAtOne(t *testing.T) {
	assert.Equal(t, 1.0, GuestFactor(0, 1, 0, 50, 0))
	assert.Equal(t, 1.0, GuestFactor(0, 0, 0, 50, 0))
	assert.Equal(t, 2.5, GuestFactor(2, 1, 0, 50, 0))
	assert.Equal(t, 2.1, GuestFactor(2, 0, 1, 50, 10))
}

func TestCompute_InvalidRange(t *testing.T) {
	in := baseInput()
	in.CheckOut = in.CheckIn

	_, err := Compute(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestBestDiscount_PicksHighestNeverStacks(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	checkIn := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	promos := []property.Promotion{
		{ID: uuid.New(), Kind: property.PromoLastMinute, DiscountPercent: 15, DayThreshold: 3},
		{ID: uuid.New(), Kind: property.PromoCoupon, DiscountPercent: 20, CouponCode: "SPRING"},
	}

	// Both eligible: highest wins, they are never summed.
	assert.Equal(t, 20, BestDiscount(promos, "spring", now, checkIn))
	// Without the coupon code only last-minute applies.
	assert.Equal(t, 15, BestDiscount(promos, "", now, checkIn))
}

func TestBestDiscount_EligibilityWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	farCheckIn := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	expired := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	promos := []property.Promotion{
		// Last-minute needs check-in within threshold days.
		{ID: uuid.New(), Kind: property.PromoLastMinute, DiscountPercent: 15, DayThreshold: 3},
		// Advance-purchase needs check-in at least threshold days out.
		{ID: uuid.New(), Kind: property.PromoAdvancePurchase, DiscountPercent: 10, DayThreshold: 30},
		// Expired coupon.
		{ID: uuid.New(), Kind: property.PromoCoupon, DiscountPercent: 25, CouponCode: "OLD", ValidUntil: &expired},
	}

	assert.Equal(t, 10, BestDiscount(promos, "OLD", now, farCheckIn))
}

func TestBestDiscount_ClampsToNinety(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	checkIn := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	promos := []property.Promotion{
		{ID: uuid.New(), Kind: property.PromoLastMinute, DiscountPercent: 99, DayThreshold: 5},
	}
	assert.Equal(t, 90, BestDiscount(promos, "", now, checkIn))
}

func TestCompute_PromotionApplied(t *testing.T) {
	in := baseInput()
	in.Promotions = []property.Promotion{
		{ID: uuid.New(), Kind: property.PromoCoupon, DiscountPercent: 20, CouponCode: "SAVE20"},
	}
	in.CouponCode = "SAVE20"

	q, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, 20, q.DiscountPercent)
	assert.Equal(t, int64(60_000), q.BasePrice)
	assert.Equal(t, int64(48_000), q.TotalAmount)
	assert.Equal(t, q.TotalAmount, q.AmountBeforeTax+q.TaxAmount)
}

func TestCompute_GroupDiscount(t *testing.T) {
	in := baseInput()
	in.Adults = 4
	in.GroupBooking = true
	in.GroupSize = 4
	in.GroupDiscountEnabled = true
	in.GroupDiscountPercent = 10

	q, err := Compute(in)
	require.NoError(t, err)

	// 20,000 x 4 adults x 3 nights = 240,000, minus 10% group discount.
	assert.Equal(t, int64(240_000), q.BasePrice)
	assert.Equal(t, int64(216_000), q.TotalAmount)
}

func TestCompute_GroupDiscountNeedsMinimumSize(t *testing.T) {
	in := baseInput()
	in.Adults = 3
	in.GroupBooking = true
	in.GroupSize = 3
	in.GroupDiscountEnabled = true
	in.GroupDiscountPercent = 10

	q, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, q.BasePrice, q.TotalAmount)
}

func TestCompute_NegotiatedTotalVoidsDiscounts(t *testing.T) {
	in := baseInput()
	in.Promotions = []property.Promotion{
		{ID: uuid.New(), Kind: property.PromoCoupon, DiscountPercent: 20, CouponCode: "SAVE20"},
	}
	in.CouponCode = "SAVE20"
	in.NegotiatedTotal = 50_000

	q, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, 0, q.DiscountPercent)
	assert.Equal(t, int64(50_000), q.TotalAmount)
	// Tax back-derived from the negotiated amount.
	assert.Equal(t, int64(48_544), q.AmountBeforeTax)
	assert.Equal(t, int64(1_456), q.TaxAmount)
}

func TestCompute_AddOnsOnTotalOnly(t *testing.T) {
	in := baseInput()
	in.NegotiatedTotal = 50_000
	in.AddOns = []int64{5_000, 2_500, -100}

	q, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, int64(57_500), q.TotalAmount)
	// Pre-tax amount and tax unaffected by add-ons.
	assert.Equal(t, int64(48_544), q.AmountBeforeTax)
	assert.Equal(t, int64(1_456), q.TaxAmount)
}

func TestCompute_CommissionFromPropertyRate(t *testing.T) {
	in := baseInput()
	in.PropertyCommissionPercent = 12

	q, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, 12, q.CommissionRate)
	// 20,000 x 3 nights = 60,000 total, 58,252 pre-tax, 12% of that.
	assert.Equal(t, int64(6_990), q.CommissionAmount)
}

func TestCompute_CommissionFallsBackToTiers(t *testing.T) {
	in := baseInput()
	in.PropertyCommissionPercent = 40 // outside [5, 25]
	in.CommissionTiers = []CommissionTier{
		{UpTo: 100_000, Percent: 10},
		{UpTo: 500_000, Percent: 12},
		{UpTo: 0, Percent: 15},
	}

	q, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 10, q.CommissionRate)

	in.NightlyRate = 50_000 // pushes pre-tax past the first tier
	q, err = Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 12, q.CommissionRate)

	in.NightlyRate = 200_000 // past the second tier, lands on the default
	q, err = Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 15, q.CommissionRate)
}

func TestValidateCapacity(t *testing.T) {
	prop := &property.Property{MaxGuests: 4}
	room := &property.Room{MaxAdults: 2, MaxChildren: 1, MaxInfants: 1}

	assert.NoError(t, ValidateCapacity(prop, room, 2, 1, 1))
	assert.ErrorIs(t, ValidateCapacity(prop, room, 3, 0, 0), domain.ErrCapacityExceeded)
	assert.ErrorIs(t, ValidateCapacity(prop, room, 2, 2, 0), domain.ErrCapacityExceeded)

	// No room selected: property limit governs.
	assert.NoError(t, ValidateCapacity(prop, nil, 2, 2, 0))
	assert.ErrorIs(t, ValidateCapacity(prop, nil, 3, 2, 0), domain.ErrCapacityExceeded)
}

func TestNights(t *testing.T) {
	checkIn := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, Nights(checkIn, checkIn.AddDate(0, 0, 1)))
	assert.Equal(t, 7, Nights(checkIn, checkIn.AddDate(0, 0, 7)))
}
