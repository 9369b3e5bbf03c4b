package models

import "time"

// Product is a pharmacy item that can be ordered.
type Product struct {
	ID                   string    `json:"id" bson:"_id"`
	Name                 string    `json:"name" bson:"name"`
	Slug                 string    `json:"slug" bson:"slug"`
	Category             string    `json:"category,omitempty" bson:"category,omitempty"`
	Description          string    `json:"description,omitempty" bson:"description,omitempty"`
	Price                int       `json:"price" bson:"price"`
	Stock                int       `json:"stock" bson:"stock"`
	RequiresPrescription bool      `json:"requires_prescription" bson:"requires_prescription"`
	IsActive             bool      `json:"is_active" bson:"is_active"`
	CreatedAt            time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" bson:"updated_at"`
}

// Service is a clinic service listed on the public site (lab tests, scans, ...).
type Service struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       int       `json:"price" bson:"price"`
	IsActive    bool      `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
