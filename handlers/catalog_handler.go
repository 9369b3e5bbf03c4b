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

// CatalogHandler serves the pharmacy products and the clinic services.
type CatalogHandler struct {
	products  ProductStore
	services  ServiceStore
	slugs     *utils.SlugGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

type ProductRequest struct {
	Name                 string `json:"name" validate:"required,min=2,max=150"`
	Category             string `json:"category" validate:"max=100"`
	Description          string `json:"description" validate:"max=2000"`
	Price                int    `json:"price" validate:"min=0"`
	Stock                int    `json:"stock" validate:"min=0"`
	RequiresPrescription bool   `json:"requires_prescription"`
	IsActive             *bool  `json:"is_active"`
}

type ServiceRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=150"`
	Description string `json:"description" validate:"max=2000"`
	Price       int    `json:"price" validate:"min=0"`
	IsActive    *bool  `json:"is_active"`
}

func NewCatalogHandler(products ProductStore, services ServiceStore, slugs *utils.SlugGenerator, v *validator.Validate, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		products:  products,
		services:  services,
		slugs:     slugs,
		validator: v,
		logger:    logger,
	}
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	return h.listProducts(c, true)
}

func (h *CatalogHandler) AdminListProducts(c *fiber.Ctx) error {
	return h.listProducts(c, false)
}

func (h *CatalogHandler) listProducts(c *fiber.Ctx, activeOnly bool) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	category := c.Query("category")
	products, err := h.products.List(ctx, category, activeOnly)
	if err != nil {
		h.logger.Error("failed to list products", zap.String("category", category), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch products"})
	}
	return c.JSON(fiber.Map{"products": products})
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	product, err := h.products.GetBySlug(ctx, c.Params("slug"))
	if err == nil && !product.IsActive {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		h.logger.Error("failed to load product", zap.String("slug", c.Params("slug")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch product"})
	}
	return c.JSON(product)
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	slug, err := h.slugs.Unique(ctx, req.Name, h.products.SlugExists)
	if err != nil {
		return slugFailed(c, h.logger, err)
	}

	now := time.Now()
	product := &models.Product{
		ID:        uuid.New().String(),
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(product)

	if err := h.products.Create(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A product with this slug already exists"})
		}
		h.logger.Error("failed to create product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create product"})
	}

	h.logger.Info("product created", zap.String("slug", product.Slug))
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (req *ProductRequest) apply(p *models.Product) {
	p.Name = req.Name
	p.Category = req.Category
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	p.RequiresPrescription = req.RequiresPrescription
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	product, err := h.products.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		h.logger.Error("failed to load product", zap.String("productID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update product"})
	}

	if renamed(product.Slug, product.Name, req.Name) {
		slug, err := h.slugs.Unique(ctx, req.Name, h.products.SlugExists)
		if err != nil {
			return slugFailed(c, h.logger, err)
		}
		product.Slug = slug
	}
	req.apply(product)
	product.UpdatedAt = time.Now()

	if err := h.products.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		case errors.Is(err, store.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A product with this slug already exists"})
		}
		h.logger.Error("failed to update product", zap.String("productID", product.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update product"})
	}
	return c.JSON(product)
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if err := h.products.Delete(ctx, c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		h.logger.Error("failed to delete product", zap.String("productID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete product"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	return h.listServices(c, true)
}

func (h *CatalogHandler) AdminListServices(c *fiber.Ctx) error {
	return h.listServices(c, false)
}

func (h *CatalogHandler) listServices(c *fiber.Ctx, activeOnly bool) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	services, err := h.services.List(ctx, activeOnly)
	if err != nil {
		h.logger.Error("failed to list services", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch services"})
	}
	return c.JSON(fiber.Map{"services": services})
}

func (h *CatalogHandler) CreateService(c *fiber.Ctx) error {
	var req ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	slug, err := h.slugs.Unique(ctx, req.Name, h.services.SlugExists)
	if err != nil {
		return slugFailed(c, h.logger, err)
	}

	now := time.Now()
	service := &models.Service{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.services.Create(ctx, service); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A service with this slug already exists"})
		}
		h.logger.Error("failed to create service", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create service"})
	}
	return c.Status(fiber.StatusCreated).JSON(service)
}

func (h *CatalogHandler) UpdateService(c *fiber.Ctx) error {
	var req ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	service, err := h.services.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		h.logger.Error("failed to load service", zap.String("serviceID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update service"})
	}

	if renamed(service.Slug, service.Name, req.Name) {
		slug, err := h.slugs.Unique(ctx, req.Name, h.services.SlugExists)
		if err != nil {
			return slugFailed(c, h.logger, err)
		}
		service.Slug = slug
	}
	service.Name = req.Name
	service.Description = req.Description
	service.Price = req.Price
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	service.UpdatedAt = time.Now()

	if err := h.services.Update(ctx, service); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		case errors.Is(err, store.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A service with this slug already exists"})
		}
		h.logger.Error("failed to update service", zap.String("serviceID", service.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update service"})
	}
	return c.JSON(service)
}

func (h *CatalogHandler) DeleteService(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if err := h.services.Delete(ctx, c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		h.logger.Error("failed to delete service", zap.String("serviceID", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete service"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
