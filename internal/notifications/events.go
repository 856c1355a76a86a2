package notifications

import (
	"time"

	"kosbook/pkg/model"
)

const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
)

// Event is the payload published on a reservation transition. It carries enough
// for downstream display without another lookup.
type Event struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	UnitID        string    `json:"unit_id"`
	RequesterID   string    `json:"requester_id"`
	OwnerID       string    `json:"owner_id"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func newEvent(eventType string, reservation *model.Reservation, ownerID string) Event {
	return Event{
		Type:          eventType,
		ReservationID: reservation.ID,
		UnitID:        reservation.UnitID,
		RequesterID:   reservation.RequesterID,
		OwnerID:       ownerID,
		StartDate:     reservation.StartDate.Format(model.DateLayout),
		EndDate:       reservation.EndDate.Format(model.DateLayout),
		OccurredAt:    time.Now().UTC(),
	}
}
