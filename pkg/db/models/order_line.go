package models

import "github.com/google/uuid"

// OrderLine snapshots one cart line at the moment the order was placed.
type OrderLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	Position       int       `gorm:"column:position;not null"`
	ItemID         string    `gorm:"column:item_id;not null"`
	Name           string    `gorm:"column:name;not null"`
	Tag            *string   `gorm:"column:tag"`
	ImageRef       *string   `gorm:"column:image_ref"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
}

func (OrderLine) TableName() string { return "order_lines" }
