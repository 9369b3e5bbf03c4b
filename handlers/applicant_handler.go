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
	"github.com/VanitasCaesar1/hospital/store"
)

type ApplicantHandler struct {
	applicants ApplicantStore
	validator  *validator.Validate
	logger     *zap.Logger
}

// ApplicationRequest is the public careers form. ResumeURL points at a CV the
// applicant hosts elsewhere.
type ApplicationRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=20"`
	Position  string `json:"position" validate:"required,min=2,max=100"`
	CoverNote string `json:"cover_note" validate:"max=2000"`
	ResumeURL string `json:"resume_url" validate:"omitempty,url,max=500"`
}

func NewApplicantHandler(applicants ApplicantStore, v *validator.Validate, logger *zap.Logger) *ApplicantHandler {
	return &ApplicantHandler{
		applicants: applicants,
		validator:  v,
		logger:     logger,
	}
}

func (h *ApplicantHandler) Apply(c *fiber.Ctx) error {
	var req ApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Error("failed to parse application", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		h.logger.Warn("application validation failed", zap.Error(err))
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	now := time.Now()
	applicant := &models.Applicant{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Position:  req.Position,
		CoverNote: req.CoverNote,
		ResumeURL: req.ResumeURL,
		Status:    models.ApplicantPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.applicants.Create(ctx, applicant); err != nil {
		h.logger.Error("failed to save application", zap.String("position", req.Position), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit application"})
	}

	h.logger.Info("application received",
		zap.String("applicantID", applicant.ID),
		zap.String("position", applicant.Position))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     applicant.ID,
		"status": applicant.Status,
	})
}

// AdminListApplicants supports ?status= and ?position=.
func (h *ApplicantHandler) AdminListApplicants(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	applicants, err := h.applicants.List(ctx, c.Query("status"), c.Query("position"))
	if err != nil {
		h.logger.Error("failed to list applicants", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch applicants"})
	}
	return c.JSON(fiber.Map{"applicants": applicants})
}

func (h *ApplicantHandler) UpdateApplicantStatus(c *fiber.Ctx) error {
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
	applicant, err := h.applicants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Applicant not found"})
		}
		h.logger.Error("failed to load applicant", zap.String("applicantID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update applicant"})
	}
	if !models.ValidApplicantTransition(applicant.Status, req.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot change status from " + applicant.Status + " to " + req.Status,
		})
	}

	if err := h.applicants.UpdateStatus(ctx, id, applicant.Status, req.Status); err != nil {
		if errors.Is(err, store.ErrStatusChanged) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Applicant status was changed by another request"})
		}
		h.logger.Error("failed to update applicant status", zap.String("applicantID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update applicant"})
	}

	h.logger.Info("applicant status changed",
		zap.String("applicantID", id),
		zap.String("from", applicant.Status),
		zap.String("to", req.Status))

	applicant.Status = req.Status
	return c.JSON(applicant)
}

func (h *ApplicantHandler) DeleteApplicant(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if err := h.applicants.Delete(ctx, c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Applicant not found"})
		}
		h.logger.Error("failed to delete applicant", zap.String("applicantID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete applicant"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
