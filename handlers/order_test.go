package handlers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VanitasCaesar1/hospital/models"
	"github.com/VanitasCaesar1/hospital/utils"
)

func newShopApp(t *testing.T) (*fiber.App, *fakeProducts, *fakeOrders) {
	t.Helper()
	products := newFakeProducts(
		models.Product{ID: "p1", Name: "Paracetamol 500mg", Slug: "paracetamol-500mg", Category: "pain", Price: 20, Stock: 10, IsActive: true},
		models.Product{ID: "p2", Name: "Bandage Roll", Slug: "bandage-roll", Category: "first-aid", Price: 50, Stock: 1, IsActive: true},
		models.Product{ID: "p3", Name: "Old Syrup", Slug: "old-syrup", Price: 90, Stock: 5, IsActive: false},
	)
	orders := newFakeOrders()
	logger := zap.NewNop()
	ids := utils.NewIDGenerator()
	v := NewValidator()

	catalog := NewCatalogHandler(products, nil, utils.NewSlugGenerator(ids), v, logger)
	orderHandler := NewOrderHandler(products, orders, ids, v, logger)

	app := fiber.New()
	app.Get("/api/products", catalog.ListProducts)
	app.Get("/api/products/:slug", catalog.GetProduct)
	app.Post("/api/orders", orderHandler.CreateOrder)
	app.Get("/api/admin/orders", orderHandler.AdminListOrders)
	app.Patch("/api/admin/orders/:id/status", orderHandler.UpdateOrderStatus)
	app.Post("/api/admin/products", catalog.CreateProduct)
	return app, products, orders
}

func orderRequest(items ...OrderItemRequest) OrderRequest {
	return OrderRequest{
		CustomerName:  "Jane Doe",
		CustomerPhone: "+15550001111",
		Address:       "12 High Street",
		Items:         items,
	}
}

func TestListProducts(t *testing.T) {
	app, _, _ := newShopApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/products", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Products []models.Product `json:"products"`
	}
	decodeBody(t, resp, &out)
	assert.Len(t, out.Products, 2)

	resp = doJSON(t, app, http.MethodGet, "/api/products?category=pain", nil)
	decodeBody(t, resp, &out)
	require.Len(t, out.Products, 1)
	assert.Equal(t, "paracetamol-500mg", out.Products[0].Slug)

	resp = doJSON(t, app, http.MethodGet, "/api/products/old-syrup", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateOrder(t *testing.T) {
	app, products, _ := newShopApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/orders", orderRequest(
		OrderItemRequest{Product: "paracetamol-500mg", Quantity: 2},
		OrderItemRequest{Product: "bandage-roll", Quantity: 1},
		OrderItemRequest{Product: "paracetamol-500mg", Quantity: 1},
	))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var order models.Order
	decodeBody(t, resp, &order)
	assert.Len(t, order.Reference, 8)
	assert.Equal(t, 3*20+50, order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, models.OrderPending, order.Status)

	assert.Equal(t, 7, products.stock("paracetamol-500mg"))
	assert.Equal(t, 0, products.stock("bandage-roll"))
}

func TestCreateOrder_RollsBackOnShortage(t *testing.T) {
	app, products, orders := newShopApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/orders", orderRequest(
		OrderItemRequest{Product: "paracetamol-500mg", Quantity: 4},
		OrderItemRequest{Product: "bandage-roll", Quantity: 2},
	))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, 10, products.stock("paracetamol-500mg"))
	assert.Equal(t, 1, products.stock("bandage-roll"))
	assert.Empty(t, orders.byID)
}

func TestCreateOrder_Rejects(t *testing.T) {
	app, _, _ := newShopApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/orders", orderRequest(OrderItemRequest{Product: "old-syrup", Quantity: 1}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/orders", orderRequest(OrderItemRequest{Product: "nothing", Quantity: 1}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/orders", orderRequest())
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/orders", orderRequest(OrderItemRequest{Product: "bandage-roll", Quantity: 0}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCancelOrderRestocks(t *testing.T) {
	app, products, _ := newShopApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/orders", orderRequest(OrderItemRequest{Product: "paracetamol-500mg", Quantity: 5}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	require.Equal(t, 5, products.stock("paracetamol-500mg"))

	resp = doJSON(t, app, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", StatusRequest{Status: models.OrderDelivered})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", StatusRequest{Status: models.OrderCancelled})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, products.stock("paracetamol-500mg"))

	resp = doJSON(t, app, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", StatusRequest{Status: models.OrderProcessing})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateProduct(t *testing.T) {
	app, products, _ := newShopApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/admin/products", ProductRequest{Name: "Bandage Roll", Price: 60, Stock: 3})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var product models.Product
	decodeBody(t, resp, &product)
	assert.Equal(t, "bandage-roll-2", product.Slug)
	assert.Equal(t, 3, products.stock("bandage-roll-2"))

	resp = doJSON(t, app, http.MethodPost, "/api/admin/products", ProductRequest{Name: "Bad", Price: -1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCancelOrder_OnlyOneRestock(t *testing.T) {
	app, products, orders := newShopApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/orders", orderRequest(OrderItemRequest{Product: "paracetamol-500mg", Quantity: 4}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	require.Equal(t, 6, products.stock("paracetamol-500mg"))

	// Both cancellations read the order while it was still pending.
	orders.staleReads = true

	resp = doJSON(t, app, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", StatusRequest{Status: models.OrderCancelled})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, products.stock("paracetamol-500mg"))

	resp = doJSON(t, app, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", StatusRequest{Status: models.OrderCancelled})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, 10, products.stock("paracetamol-500mg"))
}
