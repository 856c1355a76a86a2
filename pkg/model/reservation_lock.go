package model

import "time"

// ReservationLock is an advisory lock held while a unit's reservations are
// checked and written. The unique _id plus a TTL index on expires_at form the
// store-level backstop against two concurrent check-then-insert sequences.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
