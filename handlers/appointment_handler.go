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

type AppointmentHandler struct {
	appointments    AppointmentStore
	directory       *DoctorDirectory
	ids             *utils.IDGenerator
	validator       *validator.Validate
	logger          *zap.Logger
	defaultInterval int
}

// BookingRequest is the public booking payload. Slot is a label exactly as
// returned by the availability endpoint, e.g. "9:30 AM".
type BookingRequest struct {
	Doctor       string `json:"doctor" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Slot         string `json:"slot" validate:"required"`
	PatientName  string `json:"patient_name" validate:"required,min=2,max=100"`
	PatientEmail string `json:"patient_email" validate:"required,email"`
	PatientPhone string `json:"patient_phone" validate:"required,min=7,max=20"`
	Telehealth   bool   `json:"telehealth"`
	Notes        string `json:"notes" validate:"max=500"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func NewAppointmentHandler(appointments AppointmentStore, directory *DoctorDirectory, ids *utils.IDGenerator,
	v *validator.Validate, logger *zap.Logger, defaultInterval int) *AppointmentHandler {
	return &AppointmentHandler{
		appointments:    appointments,
		directory:       directory,
		ids:             ids,
		validator:       v,
		logger:          logger,
		defaultInterval: defaultInterval,
	}
}

// BookAppointment reserves a planned, unbooked slot. The unique index on
// active appointments settles races between concurrent bookings.
func (h *AppointmentHandler) BookAppointment(c *fiber.Ctx) error {
	var req BookingRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Error("failed to parse booking request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		h.logger.Warn("booking validation failed", zap.Error(err))
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	doctor, err := h.directory.BySlug(ctx, req.Doctor)
	if err == nil && !doctor.IsActive {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Doctor not found"})
		}
		h.logger.Error("failed to load doctor", zap.String("slug", req.Doctor), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to book appointment"})
	}

	minute, planned := plannedMinute(doctor, req.Date, req.Slot, doctor.Interval(h.defaultInterval))
	if !planned {
		h.logger.Info("requested slot is not offered",
			zap.String("doctor", doctor.Slug),
			zap.String("date", req.Date),
			zap.String("slot", req.Slot))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Selected slot is not available"})
	}

	booked, err := h.appointments.BookedSlots(ctx, doctor.ID, req.Date)
	if err != nil {
		h.logger.Error("failed to fetch booked slots", zap.String("doctorID", doctor.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to book appointment"})
	}
	if schedule.Contains(booked, req.Slot) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Selected slot is already booked"})
	}

	reference, err := h.ids.GenerateID()
	if err != nil {
		h.logger.Error("failed to generate booking reference", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to book appointment"})
	}

	now := time.Now()
	appt := &models.Appointment{
		ID:           uuid.New().String(),
		Reference:    reference,
		DoctorID:     doctor.ID,
		DoctorSlug:   doctor.Slug,
		DoctorName:   doctor.Name,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		PatientPhone: req.PatientPhone,
		Date:         req.Date,
		Slot:         req.Slot,
		Minute:       minute,
		Telehealth:   req.Telehealth,
		Notes:        req.Notes,
		Status:       models.AppointmentPending,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.appointments.Create(ctx, appt); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.logger.Warn("slot taken by a concurrent booking",
				zap.String("doctorID", doctor.ID),
				zap.String("date", req.Date),
				zap.String("slot", req.Slot))
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Selected slot is already booked"})
		}
		h.logger.Error("failed to create appointment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to book appointment"})
	}

	h.logger.Info("appointment booked",
		zap.String("reference", appt.Reference),
		zap.String("doctorID", doctor.ID),
		zap.String("date", appt.Date),
		zap.String("slot", appt.Slot))
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// plannedMinute finds the minute of day behind a slot label in the doctor's
// plan for date.
func plannedMinute(doctor *models.Doctor, date, label string, interval int) (int, bool) {
	for _, m := range schedule.PlanMinutesForDate(doctor.Availability, date, interval) {
		if schedule.FormatMinuteOfDay12(m) == label {
			return m, true
		}
	}
	return 0, false
}

func (h *AppointmentHandler) GetAppointment(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	reference := c.Params("reference")
	appt, err := h.appointments.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		}
		h.logger.Error("failed to load appointment", zap.String("reference", reference), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch appointment"})
	}
	return c.JSON(appt)
}

// AdminListAppointments supports ?doctor=<slug>&date=&status=&limit=&offset=.
func (h *AppointmentHandler) AdminListAppointments(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	filter := models.AppointmentFilter{
		Date:   c.Query("date"),
		Status: c.Query("status"),
		Limit:  int64(limit),
		Offset: int64(offset),
	}

	if slug := c.Query("doctor"); slug != "" {
		doctor, err := h.directory.BySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(fiber.Map{"appointments": []models.Appointment{}})
			}
			h.logger.Error("failed to load doctor", zap.String("slug", slug), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch appointments"})
		}
		filter.DoctorID = doctor.ID
	}

	appointments, err := h.appointments.List(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list appointments", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch appointments"})
	}
	return c.JSON(fiber.Map{"appointments": appointments})
}

// UpdateAppointmentStatus walks the pending -> confirmed -> completed
// workflow. Cancelling frees the slot.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	id := c.Params("id")
	appt, err := h.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		}
		h.logger.Error("failed to load appointment", zap.String("appointmentID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update appointment"})
	}
	if !models.ValidAppointmentTransition(appt.Status, req.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot change status from " + appt.Status + " to " + req.Status,
		})
	}

	updated, err := h.appointments.UpdateStatus(ctx, id, appt.Status, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrStatusChanged) {
			h.logger.Warn("appointment status changed by another request", zap.String("appointmentID", id))
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Appointment status was changed by another request"})
		}
		h.logger.Error("failed to update appointment status", zap.String("appointmentID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update appointment"})
	}

	h.logger.Info("appointment status changed",
		zap.String("reference", updated.Reference),
		zap.String("from", appt.Status),
		zap.String("to", updated.Status))
	return c.JSON(updated)
}

func (h *AppointmentHandler) DeleteAppointment(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	id := c.Params("id")
	if err := h.appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
		}
		h.logger.Error("failed to delete appointment", zap.String("appointmentID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete appointment"})
	}
	h.logger.Info("appointment deleted", zap.String("appointmentID", id))
	return c.SendStatus(fiber.StatusNoContent)
}
