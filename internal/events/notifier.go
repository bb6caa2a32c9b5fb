package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/platform/kafka"
)

// Notifier is the fire-and-forget notification sink. Implementations must
// never surface delivery failures to the caller; a failed notification must
// not roll back the state transition that produced it.
type Notifier interface {
	Notify(ctx context.Context, kind string, recipient uuid.UUID, payload map[string]interface{})
}

// KafkaNotifier publishes NotificationEvents to the notification topic.
type KafkaNotifier struct {
	producer *kafka.Producer
	source   string
	logger   *zap.Logger
}

// NewKafkaNotifier creates a notifier publishing on behalf of this service.
func NewKafkaNotifier(producer *kafka.Producer, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, source: "service-booking", logger: logger}
}

// Notify publishes one notification. Failures are logged and swallowed.
func (n *KafkaNotifier) Notify(ctx context.Context, kind string, recipient uuid.UUID, payload map[string]interface{}) {
	event := NotificationEvent{
		Kind:       kind,
		Recipient:  recipient,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}

	ce, err := kafka.NewCloudEvent(n.source, kind, event)
	if err != nil {
		n.logger.Error("failed to build notification event",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return
	}

	if err := n.producer.PublishEvent(ctx, TopicNotificationEvents, ce); err != nil {
		n.logger.Error("failed to publish notification",
			zap.String("kind", kind),
			zap.String("recipient", recipient.String()),
			zap.Error(err),
		)
	}
}
