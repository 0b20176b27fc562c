package services

import (
	"errors"
	"fmt"

	"github.com/gosimple/slug"

	"katalog/internal/models"
	"katalog/internal/repositories"
)

// ErrInvalidInput marks a request rejected before any store round-trip.
// Handlers map it to a client error; wrap it with the specific reason.
var ErrInvalidInput = errors.New("invalid input")

// relatedLimit caps how many related products a lookup returns.
const relatedLimit = 3

// defaultPageLimit is the page size used when a listing request doesn't
// specify one.
const defaultPageLimit = 3

// sortColumns whitelists the columns a paged listing may be ordered by.
var sortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"price":      true,
	"sold":       true,
	"title":      true,
}

// CatalogService handles business logic for the product catalog: CRUD by
// slug, listings, the multi-predicate search and the related-products lookup.
type CatalogService struct {
	repo repositories.ProductRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ProductRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// CreateProduct derives the slug from the title and persists the product.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	if !models.ValidBrand(product.Brand) {
		return fmt.Errorf("%w: unknown brand %q", ErrInvalidInput, product.Brand)
	}
	product.Slug = slug.Make(product.Title)
	return s.repo.Create(product)
}

// GetProductBySlug retrieves a single product, references populated.
func (s *CatalogService) GetProductBySlug(productSlug string) (*models.Product, error) {
	return s.repo.GetBySlug(productSlug)
}

// UpdateProductBySlug applies the incoming fields to the product currently
// stored under the slug. A changed title re-derives the slug.
func (s *CatalogService) UpdateProductBySlug(productSlug string, input *models.Product) (*models.Product, error) {
	if !models.ValidBrand(input.Brand) {
		return nil, fmt.Errorf("%w: unknown brand %q", ErrInvalidInput, input.Brand)
	}
	existing, err := s.repo.GetBySlug(productSlug)
	if err != nil {
		return nil, err
	}

	input.ID = existing.ID
	input.CreatedAt = existing.CreatedAt
	input.Slug = slug.Make(input.Title)
	if err := s.repo.Update(input); err != nil {
		return nil, err
	}
	return s.repo.GetByID(existing.ID)
}

// DeleteProductBySlug removes the product and returns the deleted record.
func (s *CatalogService) DeleteProductBySlug(productSlug string) (*models.Product, error) {
	return s.repo.DeleteBySlug(productSlug)
}

// ListProducts returns up to count products, newest first.
func (s *CatalogService) ListProducts(count int) ([]models.Product, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidInput)
	}
	return s.repo.List(count)
}

// ListPaged returns one page of products with client-chosen sorting.
// Unknown sort columns and orders are rejected rather than interpolated
// into the query.
func (s *CatalogService) ListPaged(sortBy, order string, page, limit int) ([]models.Product, error) {
	if sortBy == "" {
		sortBy = "created_at"
	}
	if order == "" {
		order = "desc"
	}
	if !sortColumns[sortBy] {
		return nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalidInput, sortBy)
	}
	if order != "asc" && order != "desc" {
		return nil, fmt.Errorf("%w: order must be asc or desc", ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	return s.repo.ListPaged(sortBy, order, page, limit)
}

// ListBySubCategory returns one page of products in the sub-category.
func (s *CatalogService) ListBySubCategory(subID string, page, limit int) ([]models.Product, error) {
	if subID == "" {
		return nil, fmt.Errorf("%w: sub-category is required", ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	return s.repo.ListBySub(subID, page, limit)
}

// CountProducts returns the total number of products.
func (s *CatalogService) CountProducts() (int64, error) {
	return s.repo.Count()
}

// Search validates the filter criteria once, then resolves every present
// predicate through a single conjunctive store query. This deliberately
// replaces the upstream behavior where each filter key produced its own
// independent result set and only the last one reached the caller.
func (s *CatalogService) Search(criteria models.SearchCriteria) ([]models.Product, error) {
	if err := validateCriteria(criteria); err != nil {
		return nil, err
	}
	return s.repo.Search(criteria)
}

// Related returns up to 3 products sharing a sub-category with the product.
func (s *CatalogService) Related(productID string) ([]models.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	return s.repo.Related(productID, relatedLimit)
}

func validateCriteria(c models.SearchCriteria) error {
	if c.Price != nil {
		if len(c.Price) != 2 {
			return fmt.Errorf("%w: price must be a [min, max] pair", ErrInvalidInput)
		}
		if c.Price[0] > c.Price[1] {
			return fmt.Errorf("%w: price minimum exceeds maximum", ErrInvalidInput)
		}
	}
	if c.Stars != nil && (*c.Stars < 1 || *c.Stars > 5) {
		return fmt.Errorf("%w: stars must be between 1 and 5", ErrInvalidInput)
	}
	if c.Shipping != nil && *c.Shipping != models.ShippingYes && *c.Shipping != models.ShippingNo {
		return fmt.Errorf("%w: shipping must be Yes or No", ErrInvalidInput)
	}
	if c.Brand != nil && (*c.Brand == "" || !models.ValidBrand(*c.Brand)) {
		return fmt.Errorf("%w: unknown brand %q", ErrInvalidInput, *c.Brand)
	}
	return nil
}
