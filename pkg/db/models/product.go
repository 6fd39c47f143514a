package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing with RC-specific attributes.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Description *string          `gorm:"column:description"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice   *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	Stock       int              `gorm:"column:stock;not null;default:0"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CategoryID  uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Brand       *string          `gorm:"column:brand"`
	Scale       *string          `gorm:"column:scale"`
	Type        *string          `gorm:"column:type"`
	MotorType   *string          `gorm:"column:motor_type"`
	BatteryType *string          `gorm:"column:battery_type"`
	Terrain     *string          `gorm:"column:terrain"`
	Images      []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns the sale price when set, otherwise the list price.
// Every cart and order computation uses this value.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
