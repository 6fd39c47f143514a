package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/speedsterx/storefront-backend/pkg/enums"
)

// Order aggregates a snapshot of cart contents at checkout time. Totals and
// item rows are immutable once written; later catalog changes never touch them.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'UNPAID'"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	ShippingFee   decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(10,2);not null"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	ShipFullName  string              `gorm:"column:ship_full_name;not null;default:''"`
	ShipPhone     string              `gorm:"column:ship_phone;not null;default:''"`
	ShipLine1     string              `gorm:"column:ship_line1;not null;default:''"`
	ShipLine2     *string             `gorm:"column:ship_line2"`
	ShipCity      string              `gorm:"column:ship_city;not null;default:''"`
	ShipState     string              `gorm:"column:ship_state;not null;default:''"`
	ShipPostal    string              `gorm:"column:ship_postal;not null;default:''"`
	ShipCountry   string              `gorm:"column:ship_country;not null;default:''"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
