package models

import (
	"time"

	"github.com/VanitasCaesar1/hospital/schedule"
)

type Department struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Doctor is a bookable provider in the directory. SlotInterval of zero means
// the clinic-wide default applies.
type Doctor struct {
	ID             string                        `json:"id" bson:"_id"`
	Name           string                        `json:"name" bson:"name"`
	Slug           string                        `json:"slug" bson:"slug"`
	Department     string                        `json:"department" bson:"department"`
	Specialization string                        `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Qualification  string                        `json:"qualification,omitempty" bson:"qualification,omitempty"`
	Bio            string                        `json:"bio,omitempty" bson:"bio,omitempty"`
	Fee            int                           `json:"fee" bson:"fee"`
	SlotInterval   int                           `json:"slot_interval,omitempty" bson:"slot_interval,omitempty"`
	Telehealth     bool                          `json:"telehealth" bson:"telehealth"`
	Availability   []schedule.AvailabilityWindow `json:"availability" bson:"availability"`
	IsActive       bool                          `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time                     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at" bson:"updated_at"`
}

// Interval returns the doctor's slot length, falling back to def.
func (d *Doctor) Interval(def int) int {
	if d.SlotInterval > 0 {
		return d.SlotInterval
	}
	return def
}
