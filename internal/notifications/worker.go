package notifications

import (
	"context"
	"fmt"

	"kosbook/pkg/kafka"
	"kosbook/pkg/logger"
)

// Worker drains the reservation-events topic and hands each event to a
// Dispatcher. Undecodable payloads are permanent failures and go straight to
// the DLQ.
type Worker struct {
	dispatcher Dispatcher
	log        *logger.Logger
}

// Dispatcher delivers one decoded event to its audience (push, email, in-app).
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

func NewWorker(dispatcher Dispatcher, log *logger.Logger) *Worker {
	return &Worker{
		dispatcher: dispatcher,
		log:        log,
	}
}

// Handle implements the consumer's MessageHandler.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var event Event
	if err := msg.DecodeValue(&event); err != nil {
		w.log.Warn("Undecodable reservation event", "event_id", msg.GetEventID(), "error", err)
		return fmt.Errorf("invalid message: %w", err)
	}

	if err := w.dispatcher.Dispatch(ctx, event); err != nil {
		return fmt.Errorf("dispatch failed for %s: %w", event.ReservationID, err)
	}

	return nil
}

// LogDispatcher writes each event to the service log. It stands in until a real
// delivery channel (push/WhatsApp) is wired up.
type LogDispatcher struct {
	log *logger.Logger
}

func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(_ context.Context, event Event) error {
	d.log.Info("Reservation notification",
		"event_type", event.Type,
		"reservation_id", event.ReservationID,
		"unit_id", event.UnitID,
		"requester_id", event.RequesterID,
		"owner_id", event.OwnerID,
		"start_date", event.StartDate,
		"end_date", event.EndDate,
	)
	return nil
}
