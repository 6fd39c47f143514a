package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

// AddItemInput adds a product to the caller's cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=100"`
}

// UpdateQuantityInput replaces the quantity of one cart line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=100"`
}

// CartItemDTO is one cart line joined with its product for display.
// Available is false when the product has been removed or deactivated since
// the line was added; such lines block checkout but are never dropped
// silently.
type CartItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ImageURL  *string         `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
}

// CartDTO is the caller's full cart with totals computed from snapshots.
type CartDTO struct {
	Items       []CartItemDTO   `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

func toItemDTO(item *models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		UnitPrice: item.UnitPriceSnapshot,
		Quantity:  item.Quantity,
		LineTotal: item.LineTotal(),
	}
	if product := item.Product; product != nil {
		dto.Name = product.Name
		dto.Slug = product.Slug
		dto.Stock = product.Stock
		dto.Available = product.IsActive
		if len(product.Images) > 0 {
			url := product.Images[0].URL
			dto.ImageURL = &url
		}
	}
	return dto
}
