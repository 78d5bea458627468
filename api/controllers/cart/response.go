package cart

import (
	cartdto "github.com/angelmondragon/foodcart-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
)

func newCart(sessionID string, q checkout.Quote) cartdto.Cart {
	items := make([]cartdto.LineItem, 0, len(q.Items))
	for _, li := range q.Items {
		total := li.LineTotal()
		items = append(items, cartdto.LineItem{
			ID:             li.ID,
			Name:           li.Name,
			Tag:            li.Tag,
			ImageRef:       li.ImageRef,
			Quantity:       li.Quantity,
			UnitPrice:      li.UnitPrice.String(),
			UnitPriceCents: int64(li.UnitPrice),
			LineTotal:      total.String(),
			LineTotalCents: int64(total),
		})
	}
	return cartdto.Cart{
		SessionID: sessionID,
		Currency:  q.Currency.String(),
		Items:     items,
		LineCount: len(items),
		Summary:   newSummary(q),
	}
}

func newSummary(q checkout.Quote) cartdto.Summary {
	s := q.Summary
	return cartdto.Summary{
		Fulfillment:                s.Fulfillment.String(),
		Currency:                   q.Currency.String(),
		ItemCount:                  q.ItemCount,
		Subtotal:                   s.Subtotal.String(),
		SubtotalCents:              int64(s.Subtotal),
		DeliveryFee:                s.DeliveryFee.String(),
		DeliveryFeeCents:           int64(s.DeliveryFee),
		Tax:                        s.Tax.String(),
		TaxCents:                   int64(s.Tax),
		Total:                      s.Total.String(),
		TotalCents:                 int64(s.Total),
		FreeDelivery:               s.QualifiesForFreeDelivery(),
		FreeDeliveryRemaining:      s.FreeDeliveryRemaining.String(),
		FreeDeliveryRemainingCents: int64(s.FreeDeliveryRemaining),
	}
}
