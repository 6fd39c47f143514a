package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem holds one (user, product) line with the price captured at
// add-time. UnitPriceSnapshot is deliberately not re-read from the product
// on later views; it only changes when the product is re-added.
type CartItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	Quantity          int             `gorm:"column:quantity;not null"`
	UnitPriceSnapshot decimal.Decimal `gorm:"column:unit_price_snapshot;type:numeric(10,2);not null"`
	Product           *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotal returns snapshot price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
