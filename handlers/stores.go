package handlers

import (
	"context"

	"github.com/VanitasCaesar1/hospital/models"
	"github.com/VanitasCaesar1/hospital/store"
)

// The interfaces below are satisfied by the store repositories.

type DoctorStore interface {
	List(ctx context.Context, q store.DoctorQuery) ([]models.Doctor, error)
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetBySlug(ctx context.Context, slug string) (*models.Doctor, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, doctor *models.Doctor) error
	Update(ctx context.Context, doctor *models.Doctor) error
	Delete(ctx context.Context, id string) error
}

type DepartmentStore interface {
	List(ctx context.Context) ([]models.Department, error)
	GetByID(ctx context.Context, id string) (*models.Department, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, dept *models.Department) error
	Update(ctx context.Context, dept *models.Department) error
	Delete(ctx context.Context, id string) error
}

type AppointmentStore interface {
	BookedSlots(ctx context.Context, doctorID, date string) ([]string, error)
	Create(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByReference(ctx context.Context, reference string) (*models.Appointment, error)
	List(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, id, from, to string) (*models.Appointment, error)
	Delete(ctx context.Context, id string) error
}

type ProductStore interface {
	List(ctx context.Context, category string, activeOnly bool) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	Reserve(ctx context.Context, slug string, qty int) error
	Release(ctx context.Context, slug string, qty int) error
}

type ServiceStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.Service, error)
	GetByID(ctx context.Context, id string) (*models.Service, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, service *models.Service) error
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, id string) error
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, status string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, from, to string) error
}

type ApplicantStore interface {
	Create(ctx context.Context, applicant *models.Applicant) error
	GetByID(ctx context.Context, id string) (*models.Applicant, error)
	List(ctx context.Context, status, position string) ([]models.Applicant, error)
	UpdateStatus(ctx context.Context, id, from, to string) error
	Delete(ctx context.Context, id string) error
}

// Cache is the subset of cache.Cache the handlers use.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}
