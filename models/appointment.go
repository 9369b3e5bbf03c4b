package models

import "time"

const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment reserves one slot of a doctor on a date. Active is false only
// for cancelled appointments; the unique slot index covers active ones.
type Appointment struct {
	ID           string    `json:"id" bson:"_id"`
	Reference    string    `json:"reference" bson:"reference"`
	DoctorID     string    `json:"doctor_id" bson:"doctor_id"`
	DoctorSlug   string    `json:"doctor_slug" bson:"doctor_slug"`
	DoctorName   string    `json:"doctor_name" bson:"doctor_name"`
	PatientName  string    `json:"patient_name" bson:"patient_name"`
	PatientEmail string    `json:"patient_email" bson:"patient_email"`
	PatientPhone string    `json:"patient_phone" bson:"patient_phone"`
	Date         string    `json:"date" bson:"date"`
	Slot         string    `json:"slot" bson:"slot"`
	Minute       int       `json:"minute" bson:"minute"`
	Telehealth   bool      `json:"telehealth" bson:"telehealth"`
	Notes        string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Status       string    `json:"status" bson:"status"`
	Active       bool      `json:"-" bson:"active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// AppointmentFilter narrows admin listings. Empty fields match everything.
type AppointmentFilter struct {
	DoctorID string
	Date     string
	Status   string
	Limit    int64
	Offset   int64
}

// ValidAppointmentTransition reports whether status may move from -> to.
func ValidAppointmentTransition(from, to string) bool {
	switch from {
	case AppointmentPending:
		return to == AppointmentConfirmed || to == AppointmentCancelled
	case AppointmentConfirmed:
		return to == AppointmentCompleted || to == AppointmentCancelled
	default:
		return false
	}
}
