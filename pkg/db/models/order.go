package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodcart-backend/pkg/enums"
)

// Order is a placed cart with the totals quoted at checkout.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SessionID        string                `gorm:"column:session_id;not null"`
	Status           enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'placed'"`
	Fulfillment      enums.FulfillmentType `gorm:"column:fulfillment;type:text;not null"`
	Currency         enums.Currency        `gorm:"column:currency;type:text;not null;default:'USD'"`
	SubtotalCents    int64                 `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents int64                 `gorm:"column:delivery_fee_cents;not null;default:0"`
	TaxCents         int64                 `gorm:"column:tax_cents;not null;default:0"`
	TotalCents       int64                 `gorm:"column:total_cents;not null"`
	ItemCount        int                   `gorm:"column:item_count;not null"`
	CustomerName     string                `gorm:"column:customer_name;not null"`
	CustomerEmail    string                `gorm:"column:customer_email;not null"`
	CustomerPhone    *string               `gorm:"column:customer_phone"`
	Notes            *string               `gorm:"column:notes"`
	Lines            []OrderLine           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
