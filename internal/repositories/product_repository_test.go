package repositories_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"katalog/internal/models"
	"katalog/internal/repositories"
)

// newGormRepo opens a per-test in-memory SQLite database and migrates the
// catalog schema into it.
func newGormRepo(t *testing.T) repositories.ProductRepository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.SubCategory{},
		&models.Product{},
		&models.Rating{},
		&models.User{},
	))
	return repositories.NewGORMProductRepository(db)
}

// forEachRepo runs the same semantic checks against the SQL-backed and the
// in-memory repository, which must agree on filter and rating behavior.
func forEachRepo(t *testing.T, fn func(t *testing.T, repo repositories.ProductRepository)) {
	t.Run("gorm", func(t *testing.T) {
		fn(t, newGormRepo(t))
	})
	t.Run("inmemory", func(t *testing.T) {
		fn(t, repositories.NewMockProductRepository())
	})
}

var (
	catFootwear = models.Category{ID: "cat-1", Name: "Footwear", Slug: "footwear"}
	catApparel  = models.Category{ID: "cat-2", Name: "Apparel", Slug: "apparel"}
	subSneakers = models.SubCategory{ID: "sub-1", Name: "Sneakers", Slug: "sneakers"}
	subSandals  = models.SubCategory{ID: "sub-2", Name: "Sandals", Slug: "sandals"}
)

// seedCatalog inserts three products:
//
//	p-a "Running Shoes"   50.00  Footwear/Sneakers  Nike  Black  Yes  Women
//	p-b "Walking Shoes"  100.00  Footwear/Sneakers  Zara  Blue   No   Men
//	p-c "Leather Sandals" 25.50  Apparel/Sandals          Brown
func seedCatalog(t *testing.T, repo repositories.ProductRepository) {
	t.Helper()
	products := []models.Product{
		{
			ID: "p-a", Title: "Running Shoes", Slug: "running-shoes",
			Description: "Light running shoes", Price: 50,
			Shipping: models.ShippingYes, Color: "Black", Brand: "Nike", Gender: "Women",
			CategoryID: catFootwear.ID, Category: &catFootwear,
			Subs: []models.SubCategory{subSneakers},
		},
		{
			ID: "p-b", Title: "Walking Shoes", Slug: "walking-shoes",
			Description: "Comfortable walking shoes", Price: 100,
			Shipping: models.ShippingNo, Color: "Blue", Brand: "Zara", Gender: "Men",
			CategoryID: catFootwear.ID, Category: &catFootwear,
			Subs: []models.SubCategory{subSneakers},
		},
		{
			ID: "p-c", Title: "Leather Sandals", Slug: "leather-sandals",
			Description: "Handmade leather sandals", Price: 25.50,
			Color: "Brown",
			CategoryID: catApparel.ID, Category: &catApparel,
			Subs: []models.SubCategory{subSandals},
		},
	}
	for i := range products {
		require.NoError(t, repo.Create(&products[i]))
	}
}

func ids(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestProductRepository_PriceBoundsInclusive(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		// Both bounds are inclusive: p-a sits exactly at min, p-b at max.
		products, err := repo.Search(models.SearchCriteria{Price: []float64{50, 100}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-a", "p-b"}, ids(products))

		// Nudging min past the boundary drops the product priced at it.
		products, err = repo.Search(models.SearchCriteria{Price: []float64{50.01, 100}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-b"}, ids(products))

		// Nudging max below the boundary drops the product priced at it.
		products, err = repo.Search(models.SearchCriteria{Price: []float64{50, 99.99}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-a"}, ids(products))
	})
}

func TestProductRepository_TitleQueryCaseInsensitiveSubstring(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		for _, q := range []string{"shoe", "SHOE", "ing sho"} {
			products, err := repo.Search(models.SearchCriteria{Query: strPtr(q)})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"p-a", "p-b"}, ids(products), "query %q", q)
		}

		products, err := repo.Search(models.SearchCriteria{Query: strPtr("sandal")})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-c"}, ids(products))

		products, err = repo.Search(models.SearchCriteria{Query: strPtr("boot")})
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestProductRepository_StarsBucketIsFlooredAverage(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		// p-a: [4,5] -> avg 4.5 -> bucket 4
		_, err := repo.UpsertRating("p-a", "u-1", 4)
		require.NoError(t, err)
		_, err = repo.UpsertRating("p-a", "u-2", 5)
		require.NoError(t, err)

		// p-b: [3,3,4] -> avg 3.33 -> bucket 3
		for i, star := range []int{3, 3, 4} {
			_, err = repo.UpsertRating("p-b", fmt.Sprintf("u-%d", i+10), star)
			require.NoError(t, err)
		}

		// p-c stays unrated.
		products, err := repo.Search(models.SearchCriteria{Stars: intPtr(4)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-a"}, ids(products))

		products, err = repo.Search(models.SearchCriteria{Stars: intPtr(3)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-b"}, ids(products))

		products, err = repo.Search(models.SearchCriteria{Stars: intPtr(5)})
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestProductRepository_UnratedProductsMatchNoBucket(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		// No product has a rating yet; every bucket must come back empty.
		for stars := 1; stars <= 5; stars++ {
			products, err := repo.Search(models.SearchCriteria{Stars: intPtr(stars)})
			require.NoError(t, err)
			assert.Empty(t, products, "bucket %d", stars)
		}
	})
}

func TestProductRepository_ScalarAndMembershipFilters(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		cases := []struct {
			name     string
			criteria models.SearchCriteria
			want     []string
		}{
			{"category", models.SearchCriteria{Category: strPtr("cat-1")}, []string{"p-a", "p-b"}},
			{"sub membership", models.SearchCriteria{Sub: strPtr("sub-2")}, []string{"p-c"}},
			{"shipping", models.SearchCriteria{Shipping: strPtr(models.ShippingYes)}, []string{"p-a"}},
			{"brand", models.SearchCriteria{Brand: strPtr("Nike")}, []string{"p-a"}},
			{"color", models.SearchCriteria{Color: strPtr("Blue")}, []string{"p-b"}},
			{"gender", models.SearchCriteria{Gender: strPtr("Men")}, []string{"p-b"}},
		}
		for _, tc := range cases {
			products, err := repo.Search(tc.criteria)
			require.NoError(t, err, tc.name)
			assert.ElementsMatch(t, tc.want, ids(products), tc.name)
		}
	})
}

func TestProductRepository_SearchCombinesPredicates(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		// Every present predicate narrows the single result set.
		products, err := repo.Search(models.SearchCriteria{
			Query:    strPtr("shoe"),
			Price:    []float64{40, 120},
			Category: strPtr("cat-1"),
			Gender:   strPtr("Women"),
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-a"}, ids(products))

		// A single non-matching predicate empties the result even when all
		// others match.
		products, err = repo.Search(models.SearchCriteria{
			Query: strPtr("shoe"),
			Color: strPtr("Brown"),
		})
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestProductRepository_SearchPopulatesReferences(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		products, err := repo.Search(models.SearchCriteria{Query: strPtr("running")})
		require.NoError(t, err)
		require.Len(t, products, 1)

		require.NotNil(t, products[0].Category)
		assert.Equal(t, "cat-1", products[0].Category.ID)
		assert.Equal(t, "Footwear", products[0].Category.Name)
		require.Len(t, products[0].Subs, 1)
		assert.Equal(t, "sub-1", products[0].Subs[0].ID)
		assert.Equal(t, "Sneakers", products[0].Subs[0].Name)
	})
}

func TestProductRepository_UpsertRating(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		// First call for a (product, user) pair appends exactly one entry.
		product, err := repo.UpsertRating("p-a", "u-1", 5)
		require.NoError(t, err)
		require.Len(t, product.Ratings, 1)
		assert.Equal(t, 5, product.Ratings[0].Star)
		assert.Equal(t, "u-1", product.Ratings[0].PostedBy)

		// Second call by the same user updates in place; the entry count
		// stays at one and the star takes the second call's value.
		product, err = repo.UpsertRating("p-a", "u-1", 2)
		require.NoError(t, err)
		require.Len(t, product.Ratings, 1)
		assert.Equal(t, 2, product.Ratings[0].Star)
		assert.Equal(t, "u-1", product.Ratings[0].PostedBy)

		// A different user gets their own entry.
		product, err = repo.UpsertRating("p-a", "u-2", 4)
		require.NoError(t, err)
		assert.Len(t, product.Ratings, 2)

		// Rating a missing product fails with not-found.
		_, err = repo.UpsertRating("p-missing", "u-1", 3)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProductRepository_Related(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		// p-a and p-b share Sneakers; p-c does not. Related lookup on p-a
		// returns p-b only and never the product itself.
		products, err := repo.Related("p-a", 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-b"}, ids(products))

		products, err = repo.Related("p-c", 3)
		require.NoError(t, err)
		assert.Empty(t, products)

		_, err = repo.Related("p-missing", 3)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProductRepository_RelatedCapped(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		// Six products all sharing one sub-category: a lookup on any of
		// them sees five candidates but returns at most three.
		for i := 0; i < 6; i++ {
			p := models.Product{
				ID:    fmt.Sprintf("p-%d", i),
				Title: fmt.Sprintf("Sneaker %d", i), Slug: fmt.Sprintf("sneaker-%d", i),
				Description: "d", Price: 10,
				CategoryID: catFootwear.ID, Category: &catFootwear,
				Subs: []models.SubCategory{subSneakers},
			}
			require.NoError(t, repo.Create(&p))
		}

		products, err := repo.Related("p-0", 3)
		require.NoError(t, err)
		assert.Len(t, products, 3)
		assert.NotContains(t, ids(products), "p-0")
	})
}

func TestProductRepository_CRUDBySlug(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		product, err := repo.GetBySlug("running-shoes")
		require.NoError(t, err)
		assert.Equal(t, "p-a", product.ID)
		require.NotNil(t, product.Category)
		assert.Equal(t, "Footwear", product.Category.Name)

		_, err = repo.GetBySlug("no-such-slug")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		product.Title = "Racing Shoes"
		product.Slug = "racing-shoes"
		require.NoError(t, repo.Update(product))
		updated, err := repo.GetBySlug("racing-shoes")
		require.NoError(t, err)
		assert.Equal(t, "Racing Shoes", updated.Title)

		deleted, err := repo.DeleteBySlug("racing-shoes")
		require.NoError(t, err)
		assert.Equal(t, "p-a", deleted.ID)

		_, err = repo.GetByID("p-a")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		count, err := repo.Count()
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestProductRepository_Listings(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		seedCatalog(t, repo)

		products, err := repo.List(2)
		require.NoError(t, err)
		assert.Len(t, products, 2)

		// Cheapest first when sorting by price ascending.
		products, err = repo.ListPaged("price", "asc", 1, 10)
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "p-c", products[0].ID)
		assert.Equal(t, "p-b", products[2].ID)

		// Page past the data is empty, not an error.
		products, err = repo.ListPaged("price", "asc", 5, 10)
		require.NoError(t, err)
		assert.Empty(t, products)

		products, err = repo.ListBySub("sub-1", 1, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p-a", "p-b"}, ids(products))

		products, err = repo.ListBySub("sub-1", 1, 1)
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})
}
