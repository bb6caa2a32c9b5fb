package events

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/platform/kafka"
)

// PaymentHandler is implemented by the application layer to react to inbound
// payment confirmations.
type PaymentHandler interface {
	HandlePaymentConfirmed(ctx context.Context, event PaymentConfirmedEvent) error
	HandleHostPayment(ctx context.Context, event HostPaymentReceivedEvent) error
}

// PaymentEventConsumer listens to the payment topic and drives booking payment
// transitions and dues settlement.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	handler  PaymentHandler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a consumer for payment events.
func NewPaymentEventConsumer(brokers []string, groupID string, handler PaymentHandler, logger *zap.Logger) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming payment events. It blocks until the context is
// cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	c.logger.Info("received payment event",
		zap.String("type", ce.Type),
		zap.String("id", ce.ID),
	)

	switch {
	case strings.EqualFold(ce.Type, PaymentConfirmed):
		var event PaymentConfirmedEvent
		if err := ce.ParseData(&event); err != nil {
			c.logger.Error("failed to parse PaymentConfirmedEvent data", zap.Error(err))
			return err
		}
		return c.handler.HandlePaymentConfirmed(ctx, event)

	case strings.EqualFold(ce.Type, HostPaymentReceived):
		var event HostPaymentReceivedEvent
		if err := ce.ParseData(&event); err != nil {
			c.logger.Error("failed to parse HostPaymentReceivedEvent data", zap.Error(err))
			return err
		}
		return c.handler.HandleHostPayment(ctx, event)

	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", ce.Type),
		)
		return nil
	}
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}
