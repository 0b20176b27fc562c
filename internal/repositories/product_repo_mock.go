package repositories

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"katalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// Filter predicates, the star-bucket aggregation and the rating upsert are
// evaluated in-process over the stored products.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

// GetBySlug returns a product by its slug.
func (r *MockProductRepository) GetBySlug(slug string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product with slug %s: %w", slug, ErrNotFound)
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	product.Ratings = existing.Ratings // ratings change only via UpsertRating
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// DeleteBySlug removes a product by its slug and returns the removed record.
func (r *MockProductRepository) DeleteBySlug(slug string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.products {
		if p.Slug == slug {
			delete(r.products, id)
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product with slug %s: %w", slug, ErrNotFound)
}

// List returns up to limit products, newest first.
func (r *MockProductRepository) List(limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := r.snapshot()
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	return products, nil
}

// ListPaged returns one page of products ordered by the given column.
func (r *MockProductRepository) ListPaged(sortBy, order string, page, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := r.snapshot()
	less := func(i, j int) bool { return products[i].CreatedAt.Before(products[j].CreatedAt) }
	switch sortBy {
	case "updated_at":
		less = func(i, j int) bool { return products[i].UpdatedAt.Before(products[j].UpdatedAt) }
	case "price":
		less = func(i, j int) bool { return products[i].Price < products[j].Price }
	case "sold":
		less = func(i, j int) bool { return products[i].Sold < products[j].Sold }
	}
	sort.Slice(products, less)
	if order == "desc" {
		for i, j := 0, len(products)-1; i < j; i, j = i+1, j-1 {
			products[i], products[j] = products[j], products[i]
		}
	}
	return paginate(products, page, limit), nil
}

// ListBySub returns one page of products belonging to the sub-category.
func (r *MockProductRepository) ListBySub(subID string, page, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []models.Product
	for _, p := range r.snapshot() {
		if hasSub(p, subID) {
			products = append(products, p)
		}
	}
	return paginate(products, page, limit), nil
}

// Count returns the total number of products.
func (r *MockProductRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// Search evaluates every present predicate against each stored product.
func (r *MockProductRepository) Search(c models.SearchCriteria) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := []models.Product{}
	for _, p := range r.snapshot() {
		if matches(p, c) {
			products = append(products, p)
		}
	}
	return products, nil
}

// Related returns up to limit other products sharing a sub-category.
func (r *MockProductRepository) Related(productID string, limit int) ([]models.Product, error) {
	current, err := r.GetByID(productID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := []models.Product{}
	for _, p := range r.snapshot() {
		if p.ID == productID {
			continue
		}
		for _, sub := range current.Subs {
			if hasSub(p, sub.ID) {
				products = append(products, p)
				break
			}
		}
		if len(products) == limit {
			break
		}
	}
	return products, nil
}

// UpsertRating replaces the user's existing rating entry or appends a new one.
func (r *MockProductRepository) UpsertRating(productID, userID string, star int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
	}

	updated := false
	for i := range product.Ratings {
		if product.Ratings[i].PostedBy == userID {
			product.Ratings[i].Star = star
			product.Ratings[i].UpdatedAt = time.Now()
			updated = true
			break
		}
	}
	if !updated {
		now := time.Now()
		product.Ratings = append(product.Ratings, models.Rating{
			ProductID: productID,
			PostedBy:  userID,
			Star:      star,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	r.products[productID] = product
	return &product, nil
}

// snapshot copies the stored products into a slice. Callers must hold at
// least the read lock.
func (r *MockProductRepository) snapshot() []models.Product {
	products := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	return products
}

func paginate(products []models.Product, page, limit int) []models.Product {
	start := (page - 1) * limit
	if start >= len(products) {
		return []models.Product{}
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func hasSub(p models.Product, subID string) bool {
	for _, sub := range p.Subs {
		if sub.ID == subID {
			return true
		}
	}
	return false
}

func matches(p models.Product, c models.SearchCriteria) bool {
	if c.Query != nil && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(*c.Query)) {
		return false
	}
	if c.Price != nil && (p.Price < c.Price[0] || p.Price > c.Price[1]) {
		return false
	}
	if c.Category != nil && p.CategoryID != *c.Category {
		return false
	}
	if c.Sub != nil && !hasSub(p, *c.Sub) {
		return false
	}
	if c.Shipping != nil && p.Shipping != *c.Shipping {
		return false
	}
	if c.Brand != nil && p.Brand != *c.Brand {
		return false
	}
	if c.Color != nil && p.Color != *c.Color {
		return false
	}
	if c.Gender != nil && p.Gender != *c.Gender {
		return false
	}
	if c.Stars != nil {
		bucket, ok := starBucket(p)
		if !ok || bucket != *c.Stars {
			return false
		}
	}
	return true
}

// starBucket computes floor(mean(star values)). A product with no ratings
// has no bucket and never matches a stars predicate.
func starBucket(p models.Product) (int, bool) {
	if len(p.Ratings) == 0 {
		return 0, false
	}
	total := 0
	for _, rating := range p.Ratings {
		total += rating.Star
	}
	avg := float64(total) / float64(len(p.Ratings))
	return int(math.Floor(avg)), true
}
