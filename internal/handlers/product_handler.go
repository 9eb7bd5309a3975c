package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductHandler exposes read-only catalog snapshots: the price and
// availability data the checkout UI renders. Catalog administration is a
// separate system.
type ProductHandler struct {
	products repositories.ProductRepository
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products repositories.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

type productView struct {
	models.Product
	Available          int `json:"available"`
	DiscountPercentage int `json:"discount_percentage"`
}

func snapshot(p models.Product) productView {
	return productView{
		Product:            p,
		Available:          p.Available(),
		DiscountPercentage: p.DiscountPercentage(time.Now()),
	}
}

// HandleGetProducts retrieves all products with clamped availability.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.products.GetAll()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, snapshot(p))
	}
	return c.JSON(views)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.products.GetByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		log.Printf("Error getting product by ID %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
		})
	}
	return c.JSON(snapshot(*product))
}
