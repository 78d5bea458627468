package pricing

import (
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	"github.com/angelmondragon/foodcart-backend/pkg/money"
)

// OrderSummary is the monetary breakdown shown at checkout. It is derived on
// every request and never stored.
type OrderSummary struct {
	Subtotal    money.Cents
	DeliveryFee money.Cents
	Tax         money.Cents
	Total       money.Cents

	// FreeDeliveryRemaining is how much more the customer needs to spend to
	// reach free delivery; zero once reached or when no fee applies.
	FreeDeliveryRemaining money.Cents
	Fulfillment           enums.FulfillmentType
}

// ComputeTotals derives delivery fee, tax and total for a delivery order.
// Callers guarantee subtotal >= 0; the ledger never produces a negative one.
func ComputeTotals(subtotal money.Cents, itemCount int, rules Rules) OrderSummary {
	return Quote(subtotal, itemCount, enums.FulfillmentDelivery, rules)
}

// Quote is ComputeTotals with an explicit fulfillment type. Pickup orders never
// pay a delivery fee.
func Quote(subtotal money.Cents, itemCount int, fulfillment enums.FulfillmentType, rules Rules) OrderSummary {
	if !fulfillment.IsValid() {
		fulfillment = enums.FulfillmentDelivery
	}
	// an empty order has nothing to deliver or tax.
	if itemCount <= 0 {
		return OrderSummary{Fulfillment: fulfillment}
	}

	summary := OrderSummary{
		Subtotal:    subtotal,
		Tax:         subtotal.MulRate(rules.TaxRate),
		Fulfillment: fulfillment,
	}
	if fulfillment == enums.FulfillmentDelivery && subtotal < rules.FreeDeliveryThreshold {
		summary.DeliveryFee = rules.BaseDeliveryFee
		summary.FreeDeliveryRemaining = rules.FreeDeliveryThreshold - subtotal
	}
	summary.Total = summary.Subtotal + summary.DeliveryFee + summary.Tax
	return summary
}

// QualifiesForFreeDelivery reports whether a delivery order pays no fee.
func (s OrderSummary) QualifiesForFreeDelivery() bool {
	return s.Fulfillment == enums.FulfillmentDelivery && s.Subtotal > 0 && s.DeliveryFee == 0
}
