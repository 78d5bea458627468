package orders

import (
	"time"

	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/money"
)

// PlaceOrderRequest is the checkout form. Field rules are enforced by the
// checkout service so the error details name the offending fields.
type PlaceOrderRequest struct {
	Fulfillment   string `json:"fulfillment"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type OrderResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	Fulfillment      string              `json:"fulfillment"`
	Currency         string              `json:"currency"`
	ItemCount        int                 `json:"item_count"`
	Subtotal         string              `json:"subtotal"`
	SubtotalCents    int64               `json:"subtotal_cents"`
	DeliveryFee      string              `json:"delivery_fee"`
	DeliveryFeeCents int64               `json:"delivery_fee_cents"`
	Tax              string              `json:"tax"`
	TaxCents         int64               `json:"tax_cents"`
	Total            string              `json:"total"`
	TotalCents       int64               `json:"total_cents"`
	Customer         CustomerResponse    `json:"customer"`
	Notes            *string             `json:"notes,omitempty"`
	Lines            []OrderLineResponse `json:"lines,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

type CustomerResponse struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

type OrderLineResponse struct {
	ItemID         string  `json:"item_id"`
	Name           string  `json:"name"`
	Tag            *string `json:"tag,omitempty"`
	ImageRef       *string `json:"image_ref,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPrice      string  `json:"unit_price"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	LineTotal      string  `json:"line_total"`
	LineTotalCents int64   `json:"line_total_cents"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

func newOrderResponse(o *models.Order) OrderResponse {
	out := OrderResponse{
		ID:               o.ID.String(),
		Status:           o.Status.String(),
		Fulfillment:      o.Fulfillment.String(),
		Currency:         o.Currency.String(),
		ItemCount:        o.ItemCount,
		Subtotal:         money.Cents(o.SubtotalCents).String(),
		SubtotalCents:    o.SubtotalCents,
		DeliveryFee:      money.Cents(o.DeliveryFeeCents).String(),
		DeliveryFeeCents: o.DeliveryFeeCents,
		Tax:              money.Cents(o.TaxCents).String(),
		TaxCents:         o.TaxCents,
		Total:            money.Cents(o.TotalCents).String(),
		TotalCents:       o.TotalCents,
		Customer: CustomerResponse{
			Name:  o.CustomerName,
			Email: o.CustomerEmail,
			Phone: o.CustomerPhone,
		},
		Notes:     o.Notes,
		CreatedAt: o.CreatedAt,
	}
	for _, line := range o.Lines {
		out.Lines = append(out.Lines, OrderLineResponse{
			ItemID:         line.ItemID,
			Name:           line.Name,
			Tag:            line.Tag,
			ImageRef:       line.ImageRef,
			Quantity:       line.Quantity,
			UnitPrice:      money.Cents(line.UnitPriceCents).String(),
			UnitPriceCents: line.UnitPriceCents,
			LineTotal:      money.Cents(line.LineTotalCents).String(),
			LineTotalCents: line.LineTotalCents,
		})
	}
	return out
}
