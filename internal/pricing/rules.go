package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodcart-backend/pkg/config"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	"github.com/angelmondragon/foodcart-backend/pkg/money"
)

// Rules is the checkout policy consumed by ComputeTotals.
type Rules struct {
	FreeDeliveryThreshold money.Cents
	BaseDeliveryFee       money.Cents
	TaxRate               decimal.Decimal
	Currency              enums.Currency
}

// DefaultRules returns the storefront's standing policy: free delivery from
// 25.00, a 3.99 fee below that, and 8.875% tax.
func DefaultRules() Rules {
	return Rules{
		FreeDeliveryThreshold: 2500,
		BaseDeliveryFee:       399,
		TaxRate:               decimal.RequireFromString("0.08875"),
		Currency:              enums.CurrencyUSD,
	}
}

// RulesFromConfig converts the string-typed pricing config into Rules.
func RulesFromConfig(cfg config.PricingConfig) (Rules, error) {
	if err := cfg.Validate(); err != nil {
		return Rules{}, err
	}
	threshold, err := money.Parse(cfg.FreeDeliveryThreshold)
	if err != nil {
		return Rules{}, err
	}
	fee, err := money.Parse(cfg.BaseDeliveryFee)
	if err != nil {
		return Rules{}, err
	}
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Rules{}, fmt.Errorf("tax rate: %w", err)
	}
	currency, err := enums.ParseCurrency(cfg.Currency)
	if err != nil {
		return Rules{}, err
	}
	return Rules{
		FreeDeliveryThreshold: threshold,
		BaseDeliveryFee:       fee,
		TaxRate:               rate,
		Currency:              currency,
	}, nil
}
