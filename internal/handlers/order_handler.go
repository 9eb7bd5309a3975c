package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/pricing"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// CheckoutItem is one cart line as submitted by the checkout UI. Name and
// price are advisory only; the server re-resolves both from the catalog.
type CheckoutItem struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Quantity int      `json:"quantity" validate:"required,gt=0"`
	Options  []string `json:"options" validate:"omitempty,dive,required"`
}

// CheckoutCustomer is the customer contact block of a checkout request.
type CheckoutCustomer struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
}

// CheckoutRequest is the order creation payload. The submitted total and
// status are advisory; the authoritative total and initial status are
// computed server-side.
type CheckoutRequest struct {
	Customer       CheckoutCustomer `json:"customer" validate:"required"`
	Items          []CheckoutItem   `json:"items" validate:"required,min=1,dive"`
	Total          float64          `json:"total"`
	PaymentMethod  string           `json:"paymentMethod" validate:"required"`
	PaymentDetails struct {
		PaymentID string `json:"payment_id"`
	} `json:"paymentDetails"`
	Status       string `json:"status"`
	DiscountCode string `json:"discountCode"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
		})
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order from a checkout request.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	input := services.CreateOrderInput{
		CustomerName:    req.Customer.Name,
		CustomerEmail:   req.Customer.Email,
		CustomerAddress: req.Customer.Address,
		CustomerCity:    req.Customer.City,
		PaymentMethod:   req.PaymentMethod,
		PaymentID:       req.PaymentDetails.PaymentID,
		DiscountCode:    req.DiscountCode,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, services.CreateOrderItem{
			ProductID:       item.ID,
			Quantity:        item.Quantity,
			SelectedOptions: item.Options,
		})
	}

	order, err := h.service.CreateOrder(c.UserContext(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDiscountInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Discount code is invalid, expired, or exhausted",
			})
		case errors.Is(err, services.ErrInsufficientStock):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Insufficient stock for one or more items",
			})
		case errors.Is(err, pricing.ErrUnknownOption), errors.Is(err, pricing.ErrInvalidQuantity),
			errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid cart",
				"error":   err.Error(),
			})
		}
		log.Printf("Error creating order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}
