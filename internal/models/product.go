package models

import (
	"time"

	"gorm.io/datatypes"
)

// Shipping flag values accepted on a product.
const (
	ShippingYes = "Yes"
	ShippingNo  = "No"
)

// Category is a top-level product grouping.
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=2,max=100"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(120)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubCategory is a second-level grouping; a product may belong to many.
type SubCategory struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=2,max=100"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(120)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating is a single user's star score for a product. The composite primary
// key (ProductID, PostedBy) makes "one rating per user per product" hold by
// construction, so the upsert path can never produce duplicates.
type Rating struct {
	ProductID string    `json:"-" gorm:"primaryKey;type:varchar(36)"`
	PostedBy  string    `json:"posted_by" gorm:"primaryKey;type:varchar(36)"`
	Star      int       `json:"star" validate:"required,min=1,max=5"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is the central catalog entity.
type Product struct {
	ID          string                      `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title       string                      `json:"title" gorm:"type:varchar(32);not null" validate:"required,max=32"`
	Slug        string                      `json:"slug" gorm:"uniqueIndex;type:varchar(64)"`
	Description string                      `json:"description" gorm:"type:varchar(200);not null" validate:"required,max=200"`
	Price       float64                     `json:"price" gorm:"not null" validate:"required,gt=0"`
	Quantity    int                         `json:"quantity" validate:"gte=0"`
	Sold        int                         `json:"sold" gorm:"default:0"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	Shipping    string                      `json:"shipping" gorm:"type:varchar(3)" validate:"omitempty,oneof=Yes No"`
	Color       string                      `json:"color" gorm:"type:varchar(20)" validate:"omitempty,oneof=Black Blue Grey Brown White"`
	Brand       string                      `json:"brand" gorm:"type:varchar(30)"`
	Gender      string                      `json:"gender" gorm:"type:varchar(20)"`
	PSizes      datatypes.JSONSlice[string] `json:"p_sizes"`
	SSizes      datatypes.JSONSlice[string] `json:"s_sizes"`
	CategoryID  string                      `json:"category_id" gorm:"type:varchar(36);index"`
	Category    *Category                   `json:"category,omitempty"`
	Subs        []SubCategory               `json:"subs,omitempty" gorm:"many2many:product_subs;"`
	Ratings     []Rating                    `json:"ratings" gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// Brands is the closed set of brand names a product may carry.
var Brands = []string{
	"Nike", "Louis Vuitton", "Hermes", "H&M", "Zara", "Levi’s",
	"The North Face", "Under Armour", "Old Navy", "Calvin Klein",
	"Aldo", "Desigual",
}

// ValidBrand reports whether name is one of the recognized brands.
// The empty string is allowed; brand is an optional attribute.
func ValidBrand(name string) bool {
	if name == "" {
		return true
	}
	for _, b := range Brands {
		if b == name {
			return true
		}
	}
	return false
}

// SearchCriteria is the set of optional filter predicates a search request
// may carry. Pointer and slice fields distinguish "absent" from zero values;
// every present predicate is ANDed into a single store query.
type SearchCriteria struct {
	Query    *string   `json:"query"`
	Price    []float64 `json:"price"` // [min, max], both bounds inclusive
	Category *string   `json:"category"`
	Stars    *int      `json:"stars" validate:"omitempty,min=1,max=5"`
	Sub      *string   `json:"sub"`
	Shipping *string   `json:"shipping" validate:"omitempty,oneof=Yes No"`
	Brand    *string   `json:"brand"`
	Color    *string   `json:"color" validate:"omitempty,oneof=Black Blue Grey Brown White"`
	Gender   *string   `json:"gender"`
}

// Empty reports whether no predicate at all was supplied.
func (c SearchCriteria) Empty() bool {
	return c.Query == nil && c.Price == nil && c.Category == nil &&
		c.Stars == nil && c.Sub == nil && c.Shipping == nil &&
		c.Brand == nil && c.Color == nil && c.Gender == nil
}
