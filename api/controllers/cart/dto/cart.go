package cartdto

// AddItemRequest is a catalog record plus how many units to add.
type AddItemRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Tag       string  `json:"tag,omitempty"`
	ImageRef  string  `json:"image_ref,omitempty"`
	Available *bool   `json:"available,omitempty"`
	Quantity  int     `json:"quantity" validate:"gte=0,lte=99"`
}

// SetQuantityRequest replaces a line's quantity. Zero or less removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// Cart is the session cart with its delivery-priced summary.
type Cart struct {
	SessionID string     `json:"session_id"`
	Currency  string     `json:"currency"`
	Items     []LineItem `json:"items"`
	LineCount int        `json:"line_count"`
	Summary   Summary    `json:"summary"`
}

// LineItem amounts are sent as fixed two-decimal strings alongside exact cents.
type LineItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Tag            string `json:"tag,omitempty"`
	ImageRef       string `json:"image_ref,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotal      string `json:"line_total"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Summary struct {
	Fulfillment                string `json:"fulfillment"`
	Currency                   string `json:"currency"`
	ItemCount                  int    `json:"item_count"`
	Subtotal                   string `json:"subtotal"`
	SubtotalCents              int64  `json:"subtotal_cents"`
	DeliveryFee                string `json:"delivery_fee"`
	DeliveryFeeCents           int64  `json:"delivery_fee_cents"`
	Tax                        string `json:"tax"`
	TaxCents                   int64  `json:"tax_cents"`
	Total                      string `json:"total"`
	TotalCents                 int64  `json:"total_cents"`
	FreeDelivery               bool   `json:"free_delivery"`
	FreeDeliveryRemaining      string `json:"free_delivery_remaining"`
	FreeDeliveryRemainingCents int64  `json:"free_delivery_remaining_cents"`
}
