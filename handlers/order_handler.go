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

type OrderHandler struct {
	products  ProductStore
	orders    OrderStore
	ids       *utils.IDGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

type OrderItemRequest struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=100"`
}

type OrderRequest struct {
	CustomerName  string             `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone string             `json:"customer_phone" validate:"required,min=7,max=20"`
	CustomerEmail string             `json:"customer_email" validate:"omitempty,email"`
	Address       string             `json:"address" validate:"required,min=5,max=300"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,max=20,dive"`
}

func NewOrderHandler(products ProductStore, orders OrderStore, ids *utils.IDGenerator, v *validator.Validate, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		products:  products,
		orders:    orders,
		ids:       ids,
		validator: v,
		logger:    logger,
	}
}

// CreateOrder prices the items from the catalogue and reserves stock item by
// item. If any reservation fails the earlier ones are released.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req OrderRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Error("failed to parse order request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		h.logger.Warn("order validation failed", zap.Error(err))
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	items, err := h.priceItems(ctx, mergeItems(req.Items))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.Error("failed to price order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to place order"})
	}

	var reserved []models.OrderItem
	for _, item := range items {
		if err := h.products.Reserve(ctx, item.ProductSlug, item.Quantity); err != nil {
			h.release(ctx, reserved)
			if errors.Is(err, store.ErrInsufficientStock) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Insufficient stock for " + item.Name})
			}
			h.logger.Error("failed to reserve stock", zap.String("product", item.ProductSlug), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to place order"})
		}
		reserved = append(reserved, item)
	}

	reference, err := h.ids.GenerateID()
	if err != nil {
		h.release(ctx, reserved)
		h.logger.Error("failed to generate order reference", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to place order"})
	}

	now := time.Now()
	order := &models.Order{
		ID:            uuid.New().String(),
		Reference:     reference,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Address:       req.Address,
		Items:         items,
		Status:        models.OrderPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range items {
		order.Total += item.UnitPrice * item.Quantity
	}

	if err := h.orders.Create(ctx, order); err != nil {
		h.release(ctx, reserved)
		h.logger.Error("failed to create order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to place order"})
	}

	h.logger.Info("order placed",
		zap.String("reference", order.Reference),
		zap.Int("items", len(order.Items)),
		zap.Int("total", order.Total))
	return c.Status(fiber.StatusCreated).JSON(order)
}

// mergeItems folds repeated products into one line, keeping first-seen order.
func mergeItems(items []OrderItemRequest) []OrderItemRequest {
	index := make(map[string]int, len(items))
	merged := make([]OrderItemRequest, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.Product]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.Product] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func (h *OrderHandler) priceItems(ctx context.Context, requested []OrderItemRequest) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(requested))
	for _, r := range requested {
		product, err := h.products.GetBySlug(ctx, r.Product)
		if err == nil && !product.IsActive {
			err = store.ErrNotFound
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, unknownProductError{slug: r.Product}
			}
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductSlug: product.Slug,
			Name:        product.Name,
			Quantity:    r.Quantity,
			UnitPrice:   product.Price,
		})
	}
	return items, nil
}

type unknownProductError struct {
	slug string
}

func (e unknownProductError) Error() string {
	return "Unknown product: " + e.slug
}

func (e unknownProductError) Unwrap() error {
	return store.ErrNotFound
}

func (h *OrderHandler) release(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := h.products.Release(ctx, item.ProductSlug, item.Quantity); err != nil {
			h.logger.Error("failed to release reserved stock",
				zap.String("product", item.ProductSlug),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (h *OrderHandler) AdminListOrders(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.orders.List(ctx, c.Query("status"))
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch orders"})
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// UpdateOrderStatus advances an order. Cancelling puts its items back on the
// shelf, and only the request whose conditional write wins does the restock.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	id := c.Params("id")
	order, err := h.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		h.logger.Error("failed to load order", zap.String("orderID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
	}
	if !models.ValidOrderTransition(order.Status, req.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot change status from " + order.Status + " to " + req.Status,
		})
	}

	if err := h.orders.UpdateStatus(ctx, id, order.Status, req.Status); err != nil {
		if errors.Is(err, store.ErrStatusChanged) {
			h.logger.Warn("order status changed by another request", zap.String("orderID", id))
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Order status was changed by another request"})
		}
		h.logger.Error("failed to update order status", zap.String("orderID", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
	}
	if req.Status == models.OrderCancelled {
		h.release(ctx, order.Items)
	}

	h.logger.Info("order status changed",
		zap.String("reference", order.Reference),
		zap.String("from", order.Status),
		zap.String("to", req.Status))

	order.Status = req.Status
	return c.JSON(order)
}
