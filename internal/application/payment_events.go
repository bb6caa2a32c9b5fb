package application

import (
	"context"

	"github.com/stayloop/service-booking/internal/events"
)

// PaymentEvents routes inbound payment events to the owning service: booking
// confirmations to the booking service, host dues payments to settlement.
type PaymentEvents struct {
	bookings    *BookingService
	settlements *SettlementService
}

// NewPaymentEvents creates the payment event router.
func NewPaymentEvents(bookings *BookingService, settlements *SettlementService) *PaymentEvents {
	return &PaymentEvents{bookings: bookings, settlements: settlements}
}

// HandlePaymentConfirmed marks the paid booking awaiting host confirmation.
func (h *PaymentEvents) HandlePaymentConfirmed(ctx context.Context, event events.PaymentConfirmedEvent) error {
	return h.bookings.HandlePaymentConfirmed(ctx, event)
}

// HandleHostPayment settles the payment against the host's outstanding dues.
func (h *PaymentEvents) HandleHostPayment(ctx context.Context, event events.HostPaymentReceivedEvent) error {
	return h.settlements.HandleHostPayment(ctx, event)
}
