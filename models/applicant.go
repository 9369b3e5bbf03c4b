package models

import "time"

const (
	ApplicantPending     = "pending"
	ApplicantShortlisted = "shortlisted"
	ApplicantRejected    = "rejected"
	ApplicantHired       = "hired"
)

// Applicant is a job application submitted from the careers page. ResumeURL is
// an opaque reference to a CV held elsewhere; this service never stores files.
type Applicant struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone" bson:"phone"`
	Position  string    `json:"position" bson:"position"`
	CoverNote string    `json:"cover_note,omitempty" bson:"cover_note,omitempty"`
	ResumeURL string    `json:"resume_url,omitempty" bson:"resume_url,omitempty"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func ValidApplicantTransition(from, to string) bool {
	switch from {
	case ApplicantPending:
		return to == ApplicantShortlisted || to == ApplicantRejected
	case ApplicantShortlisted:
		return to == ApplicantHired || to == ApplicantRejected
	default:
		return false
	}
}
