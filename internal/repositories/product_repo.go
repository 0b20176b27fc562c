package repositories

import (
	"katalog/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id string) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	Update(product *models.Product) error
	DeleteBySlug(slug string) (*models.Product, error)

	// List returns the newest products first, capped at limit.
	List(limit int) ([]models.Product, error)
	// ListPaged returns one page sorted by a column the service has
	// already whitelisted.
	ListPaged(sortBy, order string, page, limit int) ([]models.Product, error)
	// ListBySub returns one page of products belonging to the given
	// sub-category.
	ListBySub(subID string, page, limit int) ([]models.Product, error)
	Count() (int64, error)

	// Search resolves every predicate present in the criteria into a
	// single conjunctive query.
	Search(criteria models.SearchCriteria) ([]models.Product, error)
	// Related returns up to limit products sharing at least one
	// sub-category with the given product, excluding the product itself.
	Related(productID string, limit int) ([]models.Product, error)
	// UpsertRating atomically inserts the user's rating or, if one
	// already exists for (productID, userID), updates its star value.
	// It returns the refreshed product.
	UpsertRating(productID, userID string, star int) (*models.Product, error)
}
