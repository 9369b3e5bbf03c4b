package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VanitasCaesar1/hospital/models"
	"github.com/VanitasCaesar1/hospital/schedule"
	"github.com/VanitasCaesar1/hospital/store"
	"github.com/VanitasCaesar1/hospital/utils"
)

type DoctorHandler struct {
	doctors         DoctorStore
	departments     DepartmentStore
	appointments    AppointmentStore
	directory       *DoctorDirectory
	slugs           *utils.SlugGenerator
	validator       *validator.Validate
	logger          *zap.Logger
	defaultInterval int
}

// DoctorRequest is the admin payload for creating or replacing a doctor.
type DoctorRequest struct {
	Name           string                        `json:"name" validate:"required,min=2,max=100"`
	Department     string                        `json:"department" validate:"required"`
	Specialization string                        `json:"specialization" validate:"max=100"`
	Qualification  string                        `json:"qualification" validate:"max=200"`
	Bio            string                        `json:"bio" validate:"max=2000"`
	Fee            int                           `json:"fee" validate:"min=0"`
	SlotInterval   int                           `json:"slot_interval" validate:"omitempty,min=5,max=240"`
	Telehealth     bool                          `json:"telehealth"`
	Availability   []schedule.AvailabilityWindow `json:"availability" validate:"dive"`
	IsActive       *bool                         `json:"is_active"`
}

func NewDoctorHandler(doctors DoctorStore, departments DepartmentStore, appointments AppointmentStore,
	directory *DoctorDirectory, slugs *utils.SlugGenerator, v *validator.Validate, logger *zap.Logger, defaultInterval int) *DoctorHandler {
	return &DoctorHandler{
		doctors:         doctors,
		departments:     departments,
		appointments:    appointments,
		directory:       directory,
		slugs:           slugs,
		validator:       v,
		logger:          logger,
		defaultInterval: defaultInterval,
	}
}

// ListDoctors returns active doctors, optionally narrowed to one department.
func (h *DoctorHandler) ListDoctors(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	department := c.Query("department")
	doctors, err := h.doctors.List(ctx, store.DoctorQuery{Department: department, ActiveOnly: true})
	if err != nil {
		h.logger.Error("failed to list doctors", zap.String("department", department), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch doctors"})
	}
	return c.JSON(fiber.Map{"doctors": doctors})
}

func (h *DoctorHandler) GetDoctor(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	doctor, err := h.activeDoctor(ctx, c.Params("slug"))
	if err != nil {
		return h.doctorLookupFailed(c, err)
	}
	return c.JSON(doctor)
}

// GetAvailability lists the free slots of a doctor on ?date=YYYY-MM-DD. A
// missing or malformed date yields an empty list rather than an error.
func (h *DoctorHandler) GetAvailability(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	slug := c.Params("slug")
	date := c.Query("date")

	doctor, err := h.activeDoctor(ctx, slug)
	if err != nil {
		return h.doctorLookupFailed(c, err)
	}

	interval := doctor.Interval(h.defaultInterval)
	slots := schedule.PlanSlotsForDate(doctor.Availability, date, interval)
	if len(slots) > 0 {
		booked, err := h.appointments.BookedSlots(ctx, doctor.ID, date)
		if err != nil {
			h.logger.Error("failed to fetch booked slots",
				zap.String("doctorID", doctor.ID),
				zap.String("date", date),
				zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch availability"})
		}
		slots = schedule.WithoutBooked(slots, booked)
	}

	h.logger.Debug("availability computed",
		zap.String("doctor", slug),
		zap.String("date", date),
		zap.Int("interval", interval),
		zap.Int("free", len(slots)))

	return c.JSON(fiber.Map{
		"doctor":   doctor.Slug,
		"date":     date,
		"interval": interval,
		"slots":    slots,
	})
}

func (h *DoctorHandler) activeDoctor(ctx context.Context, slug string) (*models.Doctor, error) {
	doctor, err := h.directory.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !doctor.IsActive {
		return nil, store.ErrNotFound
	}
	return doctor, nil
}

func (h *DoctorHandler) doctorLookupFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Doctor not found"})
	}
	h.logger.Error("failed to load doctor", zap.String("slug", c.Params("slug")), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch doctor"})
}

// AdminListDoctors returns every doctor including inactive ones.
func (h *DoctorHandler) AdminListDoctors(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	doctors, err := h.doctors.List(ctx, store.DoctorQuery{Department: c.Query("department")})
	if err != nil {
		h.logger.Error("failed to list doctors", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch doctors"})
	}
	return c.JSON(fiber.Map{"doctors": doctors})
}

func (h *DoctorHandler) parseDoctorRequest(c *fiber.Ctx) (*DoctorRequest, error) {
	var req DoctorRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Error("failed to parse doctor request", zap.Error(err))
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		h.logger.Warn("doctor validation failed", zap.Error(err))
		return nil, validationFailed(c, err)
	}

	known, err := h.departments.SlugExists(c.Context(), req.Department)
	if err != nil {
		h.logger.Error("failed to check department", zap.String("department", req.Department), zap.Error(err))
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify department"})
	}
	if !known {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown department"})
	}
	return &req, nil
}

func (req *DoctorRequest) apply(doctor *models.Doctor) {
	doctor.Name = req.Name
	doctor.Department = req.Department
	doctor.Specialization = req.Specialization
	doctor.Qualification = req.Qualification
	doctor.Bio = req.Bio
	doctor.Fee = req.Fee
	doctor.SlotInterval = req.SlotInterval
	doctor.Telehealth = req.Telehealth
	doctor.Availability = req.Availability
	if doctor.Availability == nil {
		doctor.Availability = []schedule.AvailabilityWindow{}
	}
	if req.IsActive != nil {
		doctor.IsActive = *req.IsActive
	}
}

func (h *DoctorHandler) CreateDoctor(c *fiber.Ctx) error {
	req, err := h.parseDoctorRequest(c)
	if req == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	slug, err := h.slugs.Unique(ctx, req.Name, h.doctors.SlugExists)
	if err != nil {
		return slugFailed(c, h.logger, err)
	}

	now := time.Now()
	doctor := &models.Doctor{
		ID:        uuid.New().String(),
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(doctor)

	if err := h.doctors.Create(ctx, doctor); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A doctor with this slug already exists"})
		}
		h.logger.Error("failed to create doctor", zap.String("name", req.Name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create doctor"})
	}

	h.logger.Info("doctor created", zap.String("doctorID", doctor.ID), zap.String("slug", doctor.Slug))
	return c.Status(fiber.StatusCreated).JSON(doctor)
}

// UpdateDoctor replaces a doctor's profile. Renaming assigns a fresh slug.
func (h *DoctorHandler) UpdateDoctor(c *fiber.Ctx) error {
	req, err := h.parseDoctorRequest(c)
	if req == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	doctor, err := h.doctors.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Doctor not found"})
		}
		h.logger.Error("failed to load doctor", zap.String("doctorID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update doctor"})
	}

	oldSlug := doctor.Slug
	if renamed(doctor.Slug, doctor.Name, req.Name) {
		slug, err := h.slugs.Unique(ctx, req.Name, h.doctors.SlugExists)
		if err != nil {
			return slugFailed(c, h.logger, err)
		}
		doctor.Slug = slug
	}
	req.apply(doctor)
	doctor.UpdatedAt = time.Now()

	if err := h.doctors.Update(ctx, doctor); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Doctor not found"})
		case errors.Is(err, store.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A doctor with this slug already exists"})
		}
		h.logger.Error("failed to update doctor", zap.String("doctorID", doctor.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update doctor"})
	}
	h.directory.Invalidate(ctx, oldSlug, doctor.Slug)

	h.logger.Info("doctor updated", zap.String("doctorID", doctor.ID), zap.String("slug", doctor.Slug))
	return c.JSON(doctor)
}

func (h *DoctorHandler) DeleteDoctor(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	id := c.Params("id")
	doctor, err := h.doctors.GetByID(ctx, id)
	if err == nil {
		err = h.doctors.Delete(ctx, id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Doctor not found"})
		}
		h.logger.Error("failed to delete doctor", zap.String("doctorID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete doctor"})
	}
	h.directory.Invalidate(ctx, doctor.Slug)

	h.logger.Info("doctor deleted", zap.String("doctorID", id))
	return c.SendStatus(fiber.StatusNoContent)
}

func slugFailed(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if errors.Is(err, utils.ErrEmptySlug) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name must contain letters or digits"})
	}
	logger.Error("failed to generate slug", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate slug"})
}

// renamed reports whether a name change needs a new slug.
func renamed(slug, oldName, newName string) bool {
	return oldName != newName && utils.Slugify(newName) != slug
}
