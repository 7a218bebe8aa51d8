package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType is the tag that tells product variants apart.
type ProductType string

const (
	ProductTypeDress ProductType = "dress"
	ProductTypeSkirt ProductType = "skirt"
)

var productTypes = []ProductType{ProductTypeDress, ProductTypeSkirt}

// ProductTypes returns every known tag in display order.
func ProductTypes() []ProductType {
	out := make([]ProductType, len(productTypes))
	copy(out, productTypes)
	return out
}

func ParseProductType(s string) (ProductType, bool) {
	t := ProductType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range productTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// categoryFamilies binds the seeded category slugs to the product family they
// list. Any other category holds no products.
var categoryFamilies = map[string]ProductType{
	"dress": ProductTypeDress,
	"skirt": ProductTypeSkirt,
}

// ProductTypeForCategory maps a category slug to the family it holds.
func ProductTypeForCategory(slug string) (ProductType, bool) {
	t, ok := categoryFamilies[strings.ToLower(strings.TrimSpace(slug))]
	return t, ok
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Slug      string    `gorm:"size:140;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryCount is a sidebar entry.
type CategoryCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	URL   string `json:"url"`
	Count int64  `json:"count"`
}

// Product is implemented by every concrete catalog variant.
type Product interface {
	Type() ProductType
	Base() *ProductBase
	Specs() []Spec
}

// Spec is one row of a product's characteristics table.
type Spec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ProductBase struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"category_id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Slug        string          `gorm:"size:140;uniqueIndex;not null" json:"slug"`
	Image       string          `gorm:"size:255" json:"image"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *ProductBase) Base() *ProductBase { return p }

type Dress struct {
	ProductBase
	Style      string `gorm:"size:255" json:"style"`
	Structure  string `gorm:"size:255" json:"structure"`
	Cut        string `gorm:"size:255" json:"cut"`
	Silhouette string `gorm:"size:255" json:"silhouette"`
	Color      string `gorm:"size:255" json:"color"`
	Length     string `gorm:"size:255" json:"length"`
}

func (*Dress) Type() ProductType { return ProductTypeDress }

func (d *Dress) Specs() []Spec {
	return []Spec{
		{Name: "Style", Value: d.Style},
		{Name: "Structure", Value: d.Structure},
		{Name: "Cut", Value: d.Cut},
		{Name: "Silhouette", Value: d.Silhouette},
		{Name: "Color", Value: d.Color},
		{Name: "Length", Value: d.Length},
	}
}

type Skirt struct {
	ProductBase
	Style      string `gorm:"size:255" json:"style"`
	Structure  string `gorm:"size:255" json:"structure"`
	Cut        string `gorm:"size:255" json:"cut"`
	Silhouette string `gorm:"size:255" json:"silhouette"`
	Landing    string `gorm:"size:255" json:"landing"`
	Length     string `gorm:"size:255" json:"length"`
}

func (*Skirt) Type() ProductType { return ProductTypeSkirt }

func (s *Skirt) Specs() []Spec {
	return []Spec{
		{Name: "Style", Value: s.Style},
		{Name: "Structure", Value: s.Structure},
		{Name: "Cut", Value: s.Cut},
		{Name: "Silhouette", Value: s.Silhouette},
		{Name: "Landing", Value: s.Landing},
		{Name: "Length", Value: s.Length},
	}
}

// ProductRef points at a product of any variant.
type ProductRef struct {
	Type ProductType
	ID   uuid.UUID
}

func RefOf(p Product) ProductRef {
	return ProductRef{Type: p.Type(), ID: p.Base().ID}
}

// ProductURL is the storefront path of a product.
func ProductURL(p Product) string {
	return "/products/" + string(p.Type()) + "/" + p.Base().Slug
}

// ValidateProduct holds the checks shared by every variant before it is saved.
func ValidateProduct(p Product) error {
	b := p.Base()
	verr := &ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(b.Title) == "" {
		verr.Fields["title"] = "required"
	}
	if strings.TrimSpace(b.Slug) == "" {
		verr.Fields["slug"] = "required"
	}
	if b.CategoryID == uuid.Nil {
		verr.Fields["category"] = "required"
	}
	if b.Price.IsNegative() {
		verr.Fields["price"] = "must be >= 0"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
