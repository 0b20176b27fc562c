package repositories

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"katalog/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// populated returns a query with the display references a catalog response
// carries: the owning category, the sub-category list and the ratings.
func (r *GORMProductRepository) populated() *gorm.DB {
	return r.db.Preload("Category").Preload("Subs").Preload("Ratings")
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID, with references populated.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.populated().First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetBySlug retrieves a single product by its slug, with references populated.
func (r *GORMProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	if err := r.populated().First(&product, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with slug %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Omit("Ratings").Save(product) // ratings change only via UpsertRating
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save doesn't return ErrRecordNotFound when the row is missing,
		// so we check RowsAffected.
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	if product.Subs != nil {
		if err := r.db.Model(product).Association("Subs").Replace(product.Subs); err != nil {
			return fmt.Errorf("failed to update product sub-categories: %w", err)
		}
	}
	return nil
}

// DeleteBySlug deletes a product by its slug and returns the deleted record.
func (r *GORMProductRepository) DeleteBySlug(slug string) (*models.Product, error) {
	product, err := r.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if err := r.db.Where("product_id = ?", product.ID).Delete(&models.Rating{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete ratings for product %s: %w", product.ID, err)
	}
	if err := r.db.Model(product).Association("Subs").Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear sub-categories for product %s: %w", product.ID, err)
	}
	if err := r.db.Delete(&models.Product{}, "id = ?", product.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to delete product %s: %w", product.ID, err)
	}
	return product, nil
}

// List retrieves up to limit products, newest first.
func (r *GORMProductRepository) List(limit int) ([]models.Product, error) {
	var products []models.Product
	if err := r.populated().Order("created_at desc").Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListPaged retrieves one page of products ordered by the given column.
// The caller is responsible for whitelisting sortBy and order.
func (r *GORMProductRepository) ListPaged(sortBy, order string, page, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.populated().
		Order(fmt.Sprintf("%s %s", sortBy, order)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products page %d: %w", page, err)
	}
	return products, nil
}

// ListBySub retrieves one page of products that belong to the sub-category.
func (r *GORMProductRepository) ListBySub(subID string, page, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.populated().
		Where("products.id IN (?)", r.subMembers(subID)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products for sub-category %s: %w", subID, err)
	}
	return products, nil
}

// Count returns the total number of products.
func (r *GORMProductRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// Search composes every present predicate into one conjunctive query.
func (r *GORMProductRepository) Search(c models.SearchCriteria) ([]models.Product, error) {
	q := r.populated().Model(&models.Product{})

	if c.Query != nil {
		q = q.Where("LOWER(products.title) LIKE ?", "%"+strings.ToLower(*c.Query)+"%")
	}
	if c.Price != nil {
		// both bounds inclusive
		q = q.Where("products.price >= ? AND products.price <= ?", c.Price[0], c.Price[1])
	}
	if c.Category != nil {
		q = q.Where("products.category_id = ?", *c.Category)
	}
	if c.Sub != nil {
		q = q.Where("products.id IN (?)", r.subMembers(*c.Sub))
	}
	if c.Shipping != nil {
		q = q.Where("products.shipping = ?", *c.Shipping)
	}
	if c.Brand != nil {
		q = q.Where("products.brand = ?", *c.Brand)
	}
	if c.Color != nil {
		q = q.Where("products.color = ?", *c.Color)
	}
	if c.Gender != nil {
		q = q.Where("products.gender = ?", *c.Gender)
	}
	if c.Stars != nil {
		// floor(avg(star)) == n  <=>  n <= avg(star) < n+1. Products with
		// no ratings never appear in the grouped set, so they can't match
		// any bucket.
		buckets := r.db.Table("ratings").
			Select("product_id").
			Group("product_id").
			Having("AVG(star) >= ? AND AVG(star) < ?", float64(*c.Stars), float64(*c.Stars+1))
		q = q.Where("products.id IN (?)", buckets)
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Related returns up to limit other products sharing at least one
// sub-category with the given product.
func (r *GORMProductRepository) Related(productID string, limit int) ([]models.Product, error) {
	current, err := r.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if len(current.Subs) == 0 {
		return []models.Product{}, nil
	}

	subIDs := make([]string, 0, len(current.Subs))
	for _, sub := range current.Subs {
		subIDs = append(subIDs, sub.ID)
	}

	var products []models.Product
	err = r.populated().
		Where("products.id <> ?", productID).
		Where("products.id IN (?)", r.db.Table("product_subs").
			Select("product_id").
			Where("sub_category_id IN ?", subIDs)).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products related to %s: %w", productID, err)
	}
	return products, nil
}

// UpsertRating inserts the user's rating or updates the star value of the
// existing one in a single statement, so two concurrent calls for the same
// (product, user) pair can never produce duplicate entries.
func (r *GORMProductRepository) UpsertRating(productID, userID string, star int) (*models.Product, error) {
	var exists models.Product
	if err := r.db.Select("id").First(&exists, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to check product %s: %w", productID, err)
	}

	rating := models.Rating{ProductID: productID, PostedBy: userID, Star: star}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "posted_by"}},
		DoUpdates: clause.AssignmentColumns([]string{"star", "updated_at"}),
	}).Create(&rating).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rating for product %s: %w", productID, err)
	}
	return r.GetByID(productID)
}

// subMembers builds the membership subquery for a sub-category.
func (r *GORMProductRepository) subMembers(subID string) *gorm.DB {
	return r.db.Table("product_subs").
		Select("product_id").
		Where("sub_category_id = ?", subID)
}
