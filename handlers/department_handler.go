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
	"github.com/VanitasCaesar1/hospital/utils"
)

type DepartmentHandler struct {
	departments DepartmentStore
	slugs       *utils.SlugGenerator
	validator   *validator.Validate
	logger      *zap.Logger
}

type DepartmentRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

func NewDepartmentHandler(departments DepartmentStore, slugs *utils.SlugGenerator, v *validator.Validate, logger *zap.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		departments: departments,
		slugs:       slugs,
		validator:   v,
		logger:      logger,
	}
}

func (h *DepartmentHandler) ListDepartments(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	departments, err := h.departments.List(ctx)
	if err != nil {
		h.logger.Error("failed to list departments", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch departments"})
	}
	return c.JSON(fiber.Map{"departments": departments})
}

func (h *DepartmentHandler) parse(c *fiber.Ctx) (*DepartmentRequest, error) {
	var req DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return nil, validationFailed(c, err)
	}
	return &req, nil
}

func (h *DepartmentHandler) CreateDepartment(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if req == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	slug, err := h.slugs.Unique(ctx, req.Name, h.departments.SlugExists)
	if err != nil {
		return slugFailed(c, h.logger, err)
	}

	now := time.Now()
	dept := &models.Department{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.departments.Create(ctx, dept); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A department with this slug already exists"})
		}
		h.logger.Error("failed to create department", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create department"})
	}

	h.logger.Info("department created", zap.String("slug", dept.Slug))
	return c.Status(fiber.StatusCreated).JSON(dept)
}

// UpdateDepartment renames a department. Doctors keep the department slug
// they were saved with, so the slug is left alone on rename.
func (h *DepartmentHandler) UpdateDepartment(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if req == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dept, err := h.departments.GetByID(ctx, c.Params("id"))
	if err == nil {
		dept.Name = req.Name
		dept.Description = req.Description
		dept.UpdatedAt = time.Now()
		err = h.departments.Update(ctx, dept)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
		}
		h.logger.Error("failed to update department", zap.String("departmentID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update department"})
	}
	return c.JSON(dept)
}

func (h *DepartmentHandler) DeleteDepartment(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if err := h.departments.Delete(ctx, c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
		}
		h.logger.Error("failed to delete department", zap.String("departmentID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete department"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
