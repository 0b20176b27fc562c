package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	catalog  *services.CatalogService
	ratings  *services.RatingService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog *services.CatalogService, ratings *services.RatingService) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		ratings:  ratings,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the catalog routes with the Fiber app. Catalog
// mutations require the admin middleware; rating requires authentication
// only. "/products/total" must be registered before "/products/:count".
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	router.Post("/product", auth, admin, h.HandleCreateProduct)
	router.Get("/products/total", h.HandleCountProducts)
	router.Get("/products/:count", h.HandleListProducts)
	router.Get("/product/related/:productId", h.HandleRelatedProducts)
	router.Get("/product/:slug", h.HandleGetProduct)
	router.Put("/product/star/:productId", auth, h.HandleRateProduct)
	router.Put("/product/:slug", auth, admin, h.HandleUpdateProduct)
	router.Delete("/product/:slug", auth, admin, h.HandleDeleteProduct)
	router.Post("/products", h.HandleListPaged)
	router.Post("/products/sub-category", h.HandleListBySubCategory)
	router.Post("/search/filters", h.HandleSearchFilters)
}

// HandleCreateProduct creates a new product; the slug is derived from the title.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing create product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product validation failed",
			"error":   err.Error(),
		})
	}

	if err := h.catalog.CreateProduct(&product); err != nil {
		return h.respondError(c, "create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleGetProduct retrieves a single product by its slug.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.GetProductBySlug(c.Params("slug"))
	if err != nil {
		return h.respondError(c, "get product", err)
	}
	return c.JSON(product)
}

// HandleUpdateProduct replaces a product's fields, re-deriving the slug.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing update product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product validation failed",
			"error":   err.Error(),
		})
	}

	updated, err := h.catalog.UpdateProductBySlug(c.Params("slug"), &product)
	if err != nil {
		return h.respondError(c, "update product", err)
	}
	return c.JSON(updated)
}

// HandleDeleteProduct removes a product by its slug and echoes the deleted record.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	deleted, err := h.catalog.DeleteProductBySlug(c.Params("slug"))
	if err != nil {
		return h.respondError(c, "delete product", err)
	}
	return c.JSON(deleted)
}

// HandleListProducts retrieves up to :count products, newest first.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	count, err := c.ParamsInt("count")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "count must be an integer",
		})
	}

	products, err := h.catalog.ListProducts(count)
	if err != nil {
		return h.respondError(c, "list products", err)
	}
	return c.JSON(products)
}

// HandleListPaged retrieves one sorted page of products.
func (h *ProductHandler) HandleListPaged(c *fiber.Ctx) error {
	var req struct {
		Sort  string `json:"sort"`
		Order string `json:"order"`
		Page  int    `json:"page"`
		Limit int    `json:"limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing paged listing body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	products, err := h.catalog.ListPaged(req.Sort, req.Order, req.Page, req.Limit)
	if err != nil {
		return h.respondError(c, "list products page", err)
	}
	return c.JSON(products)
}

// HandleListBySubCategory retrieves one page of products in a sub-category.
func (h *ProductHandler) HandleListBySubCategory(c *fiber.Ctx) error {
	var req struct {
		SubCategory string `json:"sub_category"`
		Page        int    `json:"page"`
		Limit       int    `json:"limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing sub-category listing body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	products, err := h.catalog.ListBySubCategory(req.SubCategory, req.Page, req.Limit)
	if err != nil {
		return h.respondError(c, "list products by sub-category", err)
	}
	return c.JSON(products)
}

// HandleCountProducts returns the total product count.
func (h *ProductHandler) HandleCountProducts(c *fiber.Ctx) error {
	count, err := h.catalog.CountProducts()
	if err != nil {
		return h.respondError(c, "count products", err)
	}
	return c.JSON(count)
}

// HandleSearchFilters resolves a bag of optional filter predicates into one
// result set.
func (h *ProductHandler) HandleSearchFilters(c *fiber.Ctx) error {
	var criteria models.SearchCriteria
	if err := c.BodyParser(&criteria); err != nil {
		log.Printf("Error parsing search filters body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid filter payload",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(criteria); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Filter validation failed",
			"error":   err.Error(),
		})
	}

	products, err := h.catalog.Search(criteria)
	if err != nil {
		return h.respondError(c, "search products", err)
	}
	return c.JSON(products)
}

// HandleRelatedProducts returns up to 3 products sharing a sub-category.
func (h *ProductHandler) HandleRelatedProducts(c *fiber.Ctx) error {
	products, err := h.catalog.Related(c.Params("productId"))
	if err != nil {
		return h.respondError(c, "related products", err)
	}
	return c.JSON(products)
}

// HandleRateProduct records the caller's star rating for a product,
// inserting on the first call and updating the existing entry after that.
func (h *ProductHandler) HandleRateProduct(c *fiber.Ctx) error {
	var req struct {
		Star int `json:"star"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing rating body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	email, _ := c.Locals("email").(string)
	if email == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Could not resolve caller identity",
		})
	}

	product, err := h.ratings.Rate(c.Params("productId"), email, req.Star)
	if err != nil {
		return h.respondError(c, "rate product", err)
	}
	return c.JSON(product)
}

// respondError maps service errors onto the HTTP error taxonomy: missing
// records are 404, rejected input is 400, anything else is a generic 500
// with the detail kept in the server log.
func (h *ProductHandler) respondError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	default:
		log.Printf("Error during %s: %v", op, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}
