package checkout

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/internal/pricing"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
	"github.com/angelmondragon/foodcart-backend/pkg/money"
)

// Carts resolves the ledger owned by a session.
type Carts interface {
	Cart(ctx context.Context, sessionID string) (*cart.Ledger, error)
	Save(ctx context.Context, sessionID string) error
}

// OrderStore persists placed orders.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByIDAndSession(ctx context.Context, id uuid.UUID, sessionID string) (*models.Order, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Order, error)
}

type ServiceParams struct {
	Carts   Carts
	Orders  OrderStore
	Rules   pricing.Rules
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

// Service is the checkout boundary around the cart ledger and the total calculator.
type Service struct {
	carts   Carts
	orders  OrderStore
	rules   pricing.Rules
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !params.Rules.Currency.IsValid() {
		return nil, fmt.Errorf("pricing rules currency %q invalid", params.Rules.Currency)
	}
	return &Service{
		carts:   params.Carts,
		orders:  params.Orders,
		rules:   params.Rules,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Rules exposes the pricing rules the service quotes with.
func (s *Service) Rules() pricing.Rules {
	return s.rules
}

// Quote is a point-in-time view of a cart and its totals.
type Quote struct {
	Items     []cart.LineItem
	ItemCount int
	Summary   pricing.OrderSummary
	Currency  enums.Currency
}

// Quote prices the session's cart for the requested fulfillment type.
func (s *Service) Quote(ctx context.Context, sessionID string, fulfillment enums.FulfillmentType) (Quote, error) {
	if !fulfillment.IsValid() {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment type")
	}
	ledger, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return Quote{}, err
	}
	return s.quote(ledger.Items(), fulfillment), nil
}

// quote derives totals from one consistent copy of the lines.
func (s *Service) quote(items []cart.LineItem, fulfillment enums.FulfillmentType) Quote {
	subtotal, count := totalsOf(items)
	return Quote{
		Items:     items,
		ItemCount: count,
		Summary:   pricing.Quote(subtotal, count, fulfillment, s.rules),
		Currency:  s.rules.Currency,
	}
}

// PlaceOrderInput carries the customer contact captured at checkout.
type PlaceOrderInput struct {
	Fulfillment   enums.FulfillmentType `json:"fulfillment"`
	CustomerName  string                `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string                `json:"customer_email" validate:"required,email,max=254"`
	CustomerPhone string                `json:"customer_phone" validate:"omitempty,max=32"`
	Notes         string                `json:"notes" validate:"omitempty,max=500"`
}

func (in PlaceOrderInput) normalized() PlaceOrderInput {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Fulfillment == "" {
		in.Fulfillment = enums.FulfillmentDelivery
	}
	return in
}

// PlaceOrder records the session's cart as an order, then removes the ordered
// units from the cart. One checkout per cart runs at a time.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, input PlaceOrderInput) (*models.Order, error) {
	input = input.normalized()
	if !input.Fulfillment.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment type")
	}
	if err := inputValidator.Struct(input); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout details").WithDetails(fieldErrors(err))
	}

	ledger, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	release, ok := ledger.TryBeginCheckout()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	defer release()

	q := s.quote(ledger.Items(), input.Fulfillment)
	if q.ItemCount == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	order := buildOrder(sessionID, input, q)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	ctx = s.logg.WithSessionID(s.logg.WithOrderID(ctx, order.ID.String()), sessionID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"fulfillment": string(order.Fulfillment),
		"total_cents": order.TotalCents,
		"item_count":  order.ItemCount,
	})
	s.logg.Info(ctx, "order placed")
	s.metrics.ObserveOrder(string(order.Fulfillment), q.Summary.Total.Float64())

	// only the ordered units leave the cart; anything added meanwhile stays.
	ledger.Deduct(q.Items)
	s.metrics.IncMutation("checkout")
	s.persist(ctx, sessionID)
	return order, nil
}

// GetOrder returns one of the session's orders.
func (s *Service) GetOrder(ctx context.Context, sessionID, orderID string) (*models.Order, error) {
	id, err := uuid.Parse(strings.TrimSpace(orderID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.orders.FindByIDAndSession(ctx, id, sessionID)
}

// ListOrders returns the session's most recent orders.
func (s *Service) ListOrders(ctx context.Context, sessionID string, limit int) ([]models.Order, error) {
	return s.orders.ListBySession(ctx, sessionID, limit)
}

// persist saves the session snapshot. A failed save leaves the cart dirty so the
// next mutation or the idle sweep retries it.
func (s *Service) persist(ctx context.Context, sessionID string) {
	if err := s.carts.Save(ctx, sessionID); err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "cart snapshot save failed", err)
	}
}

func buildOrder(sessionID string, in PlaceOrderInput, q Quote) *models.Order {
	order := &models.Order{
		ID:               uuid.New(),
		SessionID:        sessionID,
		Status:           enums.OrderStatusPlaced,
		Fulfillment:      q.Summary.Fulfillment,
		Currency:         q.Currency,
		SubtotalCents:    int64(q.Summary.Subtotal),
		DeliveryFeeCents: int64(q.Summary.DeliveryFee),
		TaxCents:         int64(q.Summary.Tax),
		TotalCents:       int64(q.Summary.Total),
		ItemCount:        q.ItemCount,
		CustomerName:     in.CustomerName,
		CustomerEmail:    in.CustomerEmail,
		CustomerPhone:    optional(in.CustomerPhone),
		Notes:            optional(in.Notes),
		CreatedAt:        time.Now().UTC(),
		Lines:            make([]models.OrderLine, 0, len(q.Items)),
	}
	for i, li := range q.Items {
		order.Lines = append(order.Lines, models.OrderLine{
			ID:             uuid.New(),
			OrderID:        order.ID,
			Position:       i,
			ItemID:         li.ID,
			Name:           li.Name,
			Tag:            optional(li.Tag),
			ImageRef:       optional(li.ImageRef),
			UnitPriceCents: int64(li.UnitPrice),
			Quantity:       li.Quantity,
			LineTotalCents: int64(li.LineTotal()),
		})
	}
	return order
}

func totalsOf(items []cart.LineItem) (subtotal money.Cents, count int) {
	for _, li := range items {
		subtotal += li.LineTotal()
		count += li.Quantity
	}
	return subtotal, count
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

var inputValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
