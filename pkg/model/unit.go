package model

import "time"

const (
	GenderAny    = "any"
	GenderMale   = "male"
	GenderFemale = "female"
)

// Unit is a rentable boarding-house room listing. Created by its owner, readable
// by everyone, mutated only by the owner.
type Unit struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	OwnerID       string    `json:"owner_id" bson:"owner_id" validate:"required,min=1,max=64"`
	Name          string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Address       string    `json:"address" bson:"address" validate:"required,min=5,max=200"`
	City          string    `json:"city" bson:"city" validate:"required,min=2,max=60"`
	PricePerMonth int64     `json:"price_per_month" bson:"price_per_month" validate:"required,min=1"`
	GenderPolicy  string    `json:"gender_policy" bson:"gender_policy" validate:"required,oneof=any male female"`
	RoomCount     int       `json:"room_count" bson:"room_count" validate:"required,min=1,max=500"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type UnitUpdate struct {
	Name          string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Address       string `json:"address,omitempty" validate:"omitempty,min=5,max=200"`
	City          string `json:"city,omitempty" validate:"omitempty,min=2,max=60"`
	PricePerMonth *int64 `json:"price_per_month,omitempty" validate:"omitempty,min=1"`
	GenderPolicy  string `json:"gender_policy,omitempty" validate:"omitempty,oneof=any male female"`
	RoomCount     *int   `json:"room_count,omitempty" validate:"omitempty,min=1,max=500"`
}

// UnitFilter narrows marketplace browse queries.
type UnitFilter struct {
	City         string
	GenderPolicy string
	MaxPrice     int64
}
