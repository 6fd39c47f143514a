package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

// CreateProductInput is the admin payload for a new listing.
type CreateProductInput struct {
	Name        string           `json:"name" validate:"required,min=2,max=200"`
	Slug        string           `json:"slug" validate:"required,min=2,max=200"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price" validate:"required"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Stock       int              `json:"stock" validate:"gte=0"`
	IsActive    *bool            `json:"is_active,omitempty"`
	CategoryID  uuid.UUID        `json:"category_id" validate:"required"`
	Brand       *string          `json:"brand,omitempty"`
	Scale       *string          `json:"scale,omitempty"`
	Type        *string          `json:"type,omitempty"`
	MotorType   *string          `json:"motor_type,omitempty"`
	BatteryType *string          `json:"battery_type,omitempty"`
	Terrain     *string          `json:"terrain,omitempty"`
}

// UpdateProductInput applies partial edits; nil fields are untouched.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Slug        *string          `json:"slug,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	ClearSale   bool             `json:"clear_sale,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"is_active,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Brand       *string          `json:"brand,omitempty"`
	Scale       *string          `json:"scale,omitempty"`
	Type        *string          `json:"type,omitempty"`
	MotorType   *string          `json:"motor_type,omitempty"`
	BatteryType *string          `json:"battery_type,omitempty"`
	Terrain     *string          `json:"terrain,omitempty"`
}

// ImageDTO is the API shape of a product image.
type ImageDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text"`
	SortOrder int       `json:"sort_order"`
}

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    *string          `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Stock          int              `json:"stock"`
	IsActive       bool             `json:"is_active"`
	CategoryID     uuid.UUID        `json:"category_id"`
	Brand          *string          `json:"brand,omitempty"`
	Scale          *string          `json:"scale,omitempty"`
	Type           *string          `json:"type,omitempty"`
	MotorType      *string          `json:"motor_type,omitempty"`
	BatteryType    *string          `json:"battery_type,omitempty"`
	Terrain        *string          `json:"terrain,omitempty"`
	Images         []ImageDTO       `json:"images"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ProductListDTO is one page of products plus paging metadata.
type ProductListDTO struct {
	Products []ProductDTO `json:"products"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

func toDTO(p *models.Product) ProductDTO {
	images := make([]ImageDTO, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageDTO{
			ID:        img.ID,
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
		})
	}
	return ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(),
		Stock:          p.Stock,
		IsActive:       p.IsActive,
		CategoryID:     p.CategoryID,
		Brand:          p.Brand,
		Scale:          p.Scale,
		Type:           p.Type,
		MotorType:      p.MotorType,
		BatteryType:    p.BatteryType,
		Terrain:        p.Terrain,
		Images:         images,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// Sort options accepted by the public listing.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// ListProductsInput carries the public listing query as parsed from the URL.
type ListProductsInput struct {
	CategorySlug string
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Brand        *string
	Scale        *string
	Type         *string
	InStock      bool
	Sort         string
	Page         int
	Limit        int
}

func toListDTO(rows []models.Product, total int64, page, limit int) ProductListDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return ProductListDTO{Products: out, Total: total, Page: page, Limit: limit}
}

// ListFilter narrows the public product listing.
type ListFilter struct {
	CategoryIDs []uuid.UUID
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Brand       *string
	Scale       *string
	Type        *string
	InStockOnly bool
	Sort        string
	// LastSlugs pushes products from the named category slugs to the end of
	// default-sorted listings.
	LastSlugs []string
	Offset    int
	Limit     int
}
