package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics this service touches.
const (
	TopicPaymentEvents      = "payment.events"
	TopicNotificationEvents = "notification.events"
)

// Inbound event types, consumed from the payment collaborator.
const (
	PaymentConfirmed    = "payment.confirmed"
	HostPaymentReceived = "payment.host_payment_received"
)

// Notification kinds fanned out to the notification sink.
const (
	NotifyBookingCreated     = "booking.created"
	NotifyBookingConfirmed   = "booking.confirmed"
	NotifyBookingCancelled   = "booking.cancelled"
	NotifyCommissionDue      = "dues.commission_due"
	NotifyDuesCleared        = "dues.cleared"
	NotifyDuesPartial        = "dues.partial"
	NotifyReviewReminder     = "review.reminder"
	NotifyAccountBlocked     = "account.blocked"
	NotifyAccountReactivated = "account.reactivated"
)

// PaymentConfirmedEvent is the authoritative proof that a booking was paid.
type PaymentConfirmedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	AmountPaid int64     `json:"amount_paid"`
	Method     string    `json:"method"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HostPaymentReceivedEvent carries a host's payment toward outstanding dues.
type HostPaymentReceivedEvent struct {
	HostID     uuid.UUID `json:"host_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NotificationEvent is the payload published for every notification kind.
type NotificationEvent struct {
	Kind       string                 `json:"kind"`
	Recipient  uuid.UUID              `json:"recipient"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
