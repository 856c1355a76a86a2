package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ActiveStatuses are the statuses that make a reservation occupy its date range.
// Per unit, active reservations must be pairwise non-overlapping on the closed
// interval [StartDate, EndDate].
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Reservation is a request to occupy a unit for an inclusive range of calendar
// days. StartDate and EndDate are stored as UTC midnight.
type Reservation struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	UnitID      string    `json:"unit_id" bson:"unit_id" validate:"required,uuid4"`
	RequesterID string    `json:"requester_id" bson:"requester_id" validate:"required,min=1,max=64"`
	StartDate   time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" bson:"end_date" validate:"required"`
	Status      string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// IsActive reports whether the reservation blocks its date range.
func (r *Reservation) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// IsTerminal reports whether no further status transition is allowed.
func (r *Reservation) IsTerminal() bool {
	return r.Status == StatusCancelled || r.Status == StatusCompleted
}

// Covers reports whether day falls inside the reservation's closed interval.
func (r *Reservation) Covers(day time.Time) bool {
	return DaysOverlap(r.StartDate, r.EndDate, day, day)
}

// CanTransitionTo encodes the reservation state machine:
// pending -> confirmed | cancelled, confirmed -> cancelled | completed.
func (r *Reservation) CanTransitionTo(status string) bool {
	switch r.Status {
	case StatusPending:
		return status == StatusConfirmed || status == StatusCancelled
	case StatusConfirmed:
		return status == StatusCancelled || status == StatusCompleted
	default:
		return false
	}
}
