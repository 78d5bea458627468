package checkout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodcart-backend/internal/catalog"
	"github.com/angelmondragon/foodcart-backend/internal/pricing"
	"github.com/angelmondragon/foodcart-backend/internal/sessions"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

type stubOrderStore struct {
	mu        sync.Mutex
	created   []*models.Order
	createErr error
	// runs before the insert, while the checkout is still in flight.
	onCreate func(ctx context.Context)
}

func (s *stubOrderStore) Create(ctx context.Context, order *models.Order) error {
	if s.onCreate != nil {
		s.onCreate(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, order)
	return nil
}

func (s *stubOrderStore) FindByIDAndSession(_ context.Context, id uuid.UUID, sessionID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.created {
		if o.ID == id && o.SessionID == sessionID {
			return o, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrderStore) ListBySession(_ context.Context, sessionID string, _ int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.created {
		if o.SessionID == sessionID {
			out = append(out, *o)
		}
	}
	return out, nil
}

type failingSaveCarts struct {
	*sessions.Registry
}

func (failingSaveCarts) Save(context.Context, string) error {
	return errors.New("redis unavailable")
}

func newTestService(t *testing.T) (*Service, *stubOrderStore, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	store := &stubOrderStore{}
	svc, err := NewService(ServiceParams{
		Carts:  sessions.NewRegistry(sessions.Params{}),
		Orders: store,
		Rules:  pricing.DefaultRules(),
		Logger: logger.New(logger.Options{ServiceName: "test", Output: &buf}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store, &buf
}

var (
	margherita = catalog.Record{ID: "margherita", Name: "Margherita Pizza", UnitPrice: 16.99, Tag: "pizza"}
	caesar     = catalog.Record{ID: "caesar", Name: "Caesar Salad", UnitPrice: 12.99, Tag: "salads"}
)

func validInput() PlaceOrderInput {
	return PlaceOrderInput{
		Fulfillment:   enums.FulfillmentDelivery,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: " Ada@Example.com ",
	}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	logg := logger.New(logger.Options{Output: &bytes.Buffer{}})
	reg := sessions.NewRegistry(sessions.Params{})
	cases := []ServiceParams{
		{Orders: &stubOrderStore{}, Logger: logg, Rules: pricing.DefaultRules()},
		{Carts: reg, Logger: logg, Rules: pricing.DefaultRules()},
		{Carts: reg, Orders: &stubOrderStore{}, Rules: pricing.DefaultRules()},
		{Carts: reg, Orders: &stubOrderStore{}, Logger: logg},
	}
	for i, params := range cases {
		if _, err := NewService(params); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestAddItemAndQuoteEndToEnd(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", margherita, 1); err != nil {
		t.Fatalf("add margherita: %v", err)
	}
	q, err := svc.AddItem(ctx, "s1", caesar, 2)
	if err != nil {
		t.Fatalf("add caesar: %v", err)
	}
	if q.ItemCount != 3 || len(q.Items) != 2 {
		t.Fatalf("unexpected cart: count=%d lines=%d", q.ItemCount, len(q.Items))
	}

	q, err = svc.Quote(ctx, "s1", enums.FulfillmentDelivery)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	s := q.Summary
	if s.Subtotal != 4297 || s.DeliveryFee != 0 || s.Tax != 381 || s.Total != 4678 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if q.Currency != enums.CurrencyUSD {
		t.Fatalf("expected USD, got %s", q.Currency)
	}
}

func TestQuotePickupAndInvalidFulfillment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "s1", catalog.Record{ID: "soup", Name: "Soup", UnitPrice: 10}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	q, err := svc.Quote(ctx, "s1", enums.FulfillmentPickup)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Summary.DeliveryFee != 0 || q.Summary.Total != 1089 {
		t.Fatalf("unexpected pickup summary: %+v", q.Summary)
	}

	if _, err := svc.Quote(ctx, "s1", enums.FulfillmentType("drone")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", catalog.Record{ID: "x", Name: "Bad", UnitPrice: -1}, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidItem) {
		t.Fatalf("expected invalid item, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "s1", margherita, -2); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "s1", margherita, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for large quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "", margherita, 1); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing session, got %v", err)
	}

	q, err := svc.View(ctx, "s1")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if q.ItemCount != 0 {
		t.Fatalf("rejected items must not reach the cart, got %d", q.ItemCount)
	}
}

func TestSetQuantityRemoveAndClear(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", margherita, 1)
	_, _ = svc.AddItem(ctx, "s1", caesar, 1)

	q, err := svc.SetQuantity(ctx, "s1", "caesar", 4)
	if err != nil || q.ItemCount != 5 {
		t.Fatalf("set quantity: count=%d err=%v", q.ItemCount, err)
	}
	q, _ = svc.SetQuantity(ctx, "s1", "caesar", 0)
	if q.ItemCount != 1 || len(q.Items) != 1 {
		t.Fatalf("zero quantity should remove the line, got %+v", q.Items)
	}
	q, _ = svc.SetQuantity(ctx, "s1", "missing", 3)
	if q.ItemCount != 1 {
		t.Fatalf("missing id must not be created, got count %d", q.ItemCount)
	}
	if _, err := svc.SetQuantity(ctx, "s1", "margherita", 150); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	q, _ = svc.RemoveItem(ctx, "s1", "margherita")
	if q.ItemCount != 0 {
		t.Fatalf("expected empty cart after remove, got %d", q.ItemCount)
	}

	_, _ = svc.AddItem(ctx, "s1", margherita, 3)
	q, err = svc.ClearCart(ctx, "s1")
	if err != nil || q.ItemCount != 0 || q.Summary.Total != 0 {
		t.Fatalf("clear: %+v err=%v", q, err)
	}
}

func TestPlaceOrderRecordsAndClears(t *testing.T) {
	svc, store, buf := newTestService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", margherita, 1)
	_, _ = svc.AddItem(ctx, "s1", caesar, 2)

	order, err := svc.PlaceOrder(ctx, "s1", validInput())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.TotalCents != 4678 || order.TaxCents != 381 || order.DeliveryFeeCents != 0 || order.SubtotalCents != 4297 {
		t.Fatalf("unexpected totals: %+v", order)
	}
	if order.CustomerEmail != "ada@example.com" {
		t.Fatalf("email not normalized: %q", order.CustomerEmail)
	}
	if len(order.Lines) != 2 || order.Lines[1].LineTotalCents != 2598 || order.Lines[1].Position != 1 {
		t.Fatalf("unexpected lines: %+v", order.Lines)
	}
	if order.CustomerPhone != nil || order.Notes != nil {
		t.Fatal("blank optional fields should be nil")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one stored order, got %d", len(store.created))
	}

	q, _ := svc.View(ctx, "s1")
	if q.ItemCount != 0 {
		t.Fatalf("cart should be cleared after checkout, got %d", q.ItemCount)
	}
	if !strings.Contains(buf.String(), `"order_id":"`+order.ID.String()+`"`) {
		t.Fatalf("expected order id in logs, got %s", buf.String())
	}

	got, err := svc.GetOrder(ctx, "s1", order.ID.String())
	if err != nil || got.ID != order.ID {
		t.Fatalf("get order: %v", err)
	}
	if _, err := svc.GetOrder(ctx, "s2", order.ID.String()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("other sessions must not see the order, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, "s1", "not-a-uuid"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
	list, err := svc.ListOrders(ctx, "s1", 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list orders: %d err=%v", len(list), err)
	}
}

func TestPlaceOrderPickupWaivesFee(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", catalog.Record{ID: "soup", Name: "Soup", UnitPrice: 10}, 1)

	in := validInput()
	in.Fulfillment = enums.FulfillmentPickup
	order, err := svc.PlaceOrder(ctx, "s1", in)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.DeliveryFeeCents != 0 || order.TotalCents != 1089 || order.Fulfillment != enums.FulfillmentPickup {
		t.Fatalf("unexpected pickup order: %+v", order)
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, err := svc.PlaceOrder(context.Background(), "s1", validInput())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatal("no order should be stored")
	}
}

func TestPlaceOrderValidatesContact(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", margherita, 1)

	in := validInput()
	in.CustomerEmail = "not-an-email"
	in.CustomerName = "  "
	_, err := svc.PlaceOrder(ctx, "s1", in)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok || details["customer_email"] != "email" || details["customer_name"] != "required" {
		t.Fatalf("unexpected details: %#v", pkgerrors.As(err).Details())
	}

	in = validInput()
	in.Fulfillment = "drone"
	if _, err := svc.PlaceOrder(ctx, "s1", in); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for fulfillment, got %v", err)
	}

	q, _ := svc.View(ctx, "s1")
	if q.ItemCount != 1 {
		t.Fatal("failed checkout must leave the cart intact")
	}
}

func TestPlaceOrderStoreFailureKeepsCart(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", margherita, 1)
	store.createErr = pkgerrors.New(pkgerrors.CodeDependency, "db down")

	if _, err := svc.PlaceOrder(ctx, "s1", validInput()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	q, _ := svc.View(ctx, "s1")
	if q.ItemCount != 1 {
		t.Fatal("cart must survive a failed order insert")
	}
}

func TestSnapshotSaveFailureIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	svc, err := NewService(ServiceParams{
		Carts:  failingSaveCarts{sessions.NewRegistry(sessions.Params{})},
		Orders: &stubOrderStore{},
		Rules:  pricing.DefaultRules(),
		Logger: logger.New(logger.Options{Output: &buf}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	q, err := svc.AddItem(context.Background(), "s1", margherita, 1)
	if err != nil || q.ItemCount != 1 {
		t.Fatalf("add should succeed, count=%d err=%v", q.ItemCount, err)
	}
	if !strings.Contains(buf.String(), "cart snapshot save failed") {
		t.Fatalf("expected save failure log, got %s", buf.String())
	}
}

func TestPlaceOrderKeepsItemsAddedDuringInsert(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", margherita, 2)

	late := catalog.Record{ID: "late", Name: "Garlic Bread", UnitPrice: 4.5}
	store.onCreate = func(ctx context.Context) {
		if _, err := svc.AddItem(ctx, "s1", late, 1); err != nil {
			t.Errorf("add during checkout: %v", err)
		}
		if _, err := svc.AddItem(ctx, "s1", margherita, 1); err != nil {
			t.Errorf("add during checkout: %v", err)
		}
	}

	order, err := svc.PlaceOrder(ctx, "s1", validInput())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if len(order.Lines) != 1 || order.Lines[0].Quantity != 2 {
		t.Fatalf("order should hold only the lines read at checkout: %+v", order.Lines)
	}

	q, _ := svc.View(ctx, "s1")
	if q.ItemCount != 2 || len(q.Items) != 2 {
		t.Fatalf("expected the late units to stay in the cart, got %+v", q.Items)
	}
	if q.Items[0].ID != "margherita" || q.Items[0].Quantity != 1 || q.Items[1].ID != "late" {
		t.Fatalf("unexpected remaining lines: %+v", q.Items)
	}
}

func TestPlaceOrderRejectsOverlappingCheckout(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", margherita, 1)

	var nestedErr error
	store.onCreate = func(ctx context.Context) {
		store.onCreate = nil
		_, nestedErr = svc.PlaceOrder(ctx, "s1", validInput())
	}

	if _, err := svc.PlaceOrder(ctx, "s1", validInput()); err != nil {
		t.Fatalf("place order: %v", err)
	}
	if !pkgerrors.IsCode(nestedErr, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for overlapping checkout, got %v", nestedErr)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one stored order, got %d", len(store.created))
	}

	// the claim is released once the first checkout returns.
	_, _ = svc.AddItem(ctx, "s1", caesar, 1)
	if _, err := svc.PlaceOrder(ctx, "s1", validInput()); err != nil {
		t.Fatalf("second checkout after release: %v", err)
	}
}
