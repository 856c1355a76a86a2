package notifications

import (
	"context"
	"time"

	"kosbook/pkg/kafka"
	"kosbook/pkg/logger"
	"kosbook/pkg/model"
)

// Notifier announces reservation transitions. Delivery is fire-and-forget: a
// failed publish is logged and never fails the transition that triggered it.
type Notifier interface {
	ReservationConfirmed(reservation *model.Reservation, ownerID string)
	ReservationCancelled(reservation *model.Reservation, ownerID string)
}

const publishTimeout = 5 * time.Second

type KafkaNotifier struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, source string, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (n *KafkaNotifier) ReservationConfirmed(reservation *model.Reservation, ownerID string) {
	n.publish(newEvent(EventReservationConfirmed, reservation, ownerID))
}

func (n *KafkaNotifier) ReservationCancelled(reservation *model.Reservation, ownerID string) {
	n.publish(newEvent(EventReservationCancelled, reservation, ownerID))
}

func (n *KafkaNotifier) publish(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		msg := kafka.NewMessage().
			WithKey(event.ReservationID).
			WithValue(event).
			WithEventType(event.Type).
			WithSource(n.source).
			Build()

		if err := n.producer.Publish(ctx, msg); err != nil {
			n.log.Error("Failed to publish reservation event",
				"event_type", event.Type,
				"reservation_id", event.ReservationID,
				"error", err,
			)
		}
	}()
}

// NoopNotifier discards all events, for tests and for running without a broker.
type NoopNotifier struct{}

func (NoopNotifier) ReservationConfirmed(*model.Reservation, string) {}

func (NoopNotifier) ReservationCancelled(*model.Reservation, string) {}
