//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/service-booking/internal/events"
	"github.com/stayloop/service-booking/internal/repository"
)

// TestPaymentConfirmed_MovesBookingToAwaiting verifies that when a
// PaymentConfirmedEvent is published to payment.events, the booking service
// picks it up and moves the pending booking to awaiting with the payment
// recorded.
func TestPaymentConfirmed_MovesBookingToAwaiting(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	hostID := uuid.New()
	guestID := uuid.New()
	propertyID := seedProperty(t, infra.DB, hostID)
	checkIn := time.Date(2026, 10, 10, 12, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 10, 13, 12, 0, 0, 0, time.UTC)
	bookingID := seedBookingInState(t, infra.DB, propertyID, hostID, guestID, "pending", "unpaid", checkIn, checkOut)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := events.PaymentConfirmedEvent{
		BookingID:  bookingID,
		AmountPaid: 120_000,
		Method:     "mobile_money",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents,
		"service-payment", events.PaymentConfirmed, evt)

	// Assert: DB transitions to "awaiting" with the payment recorded.
	model := waitForBookingStatus(t, infra.DB, bookingID, "awaiting", 15*time.Second)
	assert.Equal(t, "paid", model.PaymentStatus)
	assert.Equal(t, "mobile_money", model.PaymentMethod)
	assert.Equal(t, int64(2), model.Version, "version should bump on the transition")
}

// TestHostPayment_SettlesDuesAndUnblocks verifies that a host payment covering
// the full outstanding commission marks it paid, clears the dues ledger,
// unblocks the host account, and fans out the clearance notifications.
func TestHostPayment_SettlesDuesAndUnblocks(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	hostID := uuid.New()
	guestID := uuid.New()
	propertyID := seedProperty(t, infra.DB, hostID)

	// A paid, confirmed booking whose commission is still owed.
	checkIn := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 8, 4, 12, 0, 0, 0, time.UTC)
	bookingID := seedBookingInState(t, infra.DB, propertyID, hostID, guestID, "confirmed", "paid", checkIn, checkOut)

	// The host was blocked for it, with a matching unpaid ledger entry.
	now := time.Now().UTC()
	blockedAt := now.Add(-48 * time.Hour)
	require.NoError(t, infra.DB.Create(&repository.HostAccountModel{
		HostID:      hostID,
		IsBlocked:   true,
		BlockedAt:   &blockedAt,
		BlockReason: "outstanding dues past grace period",
		UpdatedAt:   now,
	}).Error)
	require.NoError(t, infra.DB.Create(&repository.DuesEntryModel{
		ID:           uuid.New(),
		HostID:       hostID,
		Kind:         "commission",
		Period:       "2026-08",
		Amount:       11_651,
		Currency:     "TZS",
		Status:       "unpaid",
		DueDate:      now.Add(-20 * 24 * time.Hour),
		GraceEndDate: now.Add(-5 * 24 * time.Hour),
		CreatedAt:    now.Add(-30 * 24 * time.Hour),
		UpdatedAt:    now.Add(-30 * 24 * time.Hour),
	}).Error)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	evt := events.HostPaymentReceivedEvent{
		HostID:     hostID,
		Amount:     11_651,
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents,
		"service-payment", events.HostPaymentReceived, evt)

	// Assert: commission settled on the booking.
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := infra.DB.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		return model.CommissionPaid
	}, 15*time.Second, 200*time.Millisecond, "commission should be marked paid")

	// Assert: host account unblocked and ledger entry paid.
	var account repository.HostAccountModel
	require.NoError(t, infra.DB.Where("host_id = ?", hostID).First(&account).Error)
	assert.False(t, account.IsBlocked, "host should be unblocked after full clearance")
	assert.False(t, account.LimitedAccess)

	var entry repository.DuesEntryModel
	require.NoError(t, infra.DB.Where("host_id = ?", hostID).First(&entry).Error)
	assert.Equal(t, "paid", entry.Status)

	// Assert: clearance notifications on notification.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicNotificationEvents,
		events.NotifyDuesCleared, 15*time.Second)
	var note events.NotificationEvent
	require.NoError(t, ce.ParseData(&note))
	assert.Equal(t, hostID, note.Recipient)

	consumeOneEvent(t, infra.KafkaBrokers, events.TopicNotificationEvents,
		events.NotifyAccountReactivated, 15*time.Second)
}

// TestPaymentConfirmed_UnknownBooking_Skips verifies that a payment event for
// a booking this service never saw is skipped without errors.
func TestPaymentConfirmed_UnknownBooking_Skips(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	bookingID := uuid.New()
	evt := events.PaymentConfirmedEvent{
		BookingID:  bookingID,
		AmountPaid: 50_000,
		Method:     "card",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents,
		"service-payment", events.PaymentConfirmed, evt)

	// Give consumer time to process. No crash expected.
	time.Sleep(5 * time.Second)

	var count int64
	infra.DB.Model(&repository.BookingModel{}).Where("id = ?", bookingID).Count(&count)
	assert.Equal(t, int64(0), count, "no booking should be created")
}

// TestAvailability_SeesConfirmedBookings verifies the overlap check against a
// real database: a confirmed stay blocks its dates and nothing else.
func TestAvailability_SeesConfirmedBookings(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	hostID := uuid.New()
	propertyID := seedProperty(t, infra.DB, hostID)
	checkIn := time.Date(2026, 11, 10, 12, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 11, 15, 12, 0, 0, 0, time.UTC)
	seedBookingInState(t, infra.DB, propertyID, hostID, uuid.New(), "confirmed", "paid", checkIn, checkOut)

	ctx := context.Background()

	// Overlapping probe is busy.
	dto, err := stack.Bookings.CheckAvailability(ctx, propertyID, nil,
		time.Date(2026, 11, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, dto.Available)

	// Back-to-back on the check-out day is free: ranges are half-open.
	dto, err = stack.Bookings.CheckAvailability(ctx, propertyID, nil,
		time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 11, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, dto.Available)
}
