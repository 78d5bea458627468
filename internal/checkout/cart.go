package checkout

import (
	"context"

	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/internal/catalog"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
)

const maxLineQuantity = 99

// View returns the session's cart priced for delivery.
func (s *Service) View(ctx context.Context, sessionID string) (Quote, error) {
	return s.Quote(ctx, sessionID, enums.FulfillmentDelivery)
}

// AddItem validates the catalog record and adds qty units of it to the cart.
func (s *Service) AddItem(ctx context.Context, sessionID string, rec catalog.Record, qty int) (Quote, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 || qty > maxLineQuantity {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 99")
	}
	item, err := catalog.Parse(rec)
	if err != nil {
		return Quote{}, err
	}
	return s.mutate(ctx, sessionID, "add", func(l *cart.Ledger) {
		l.AddItemQuantity(item, qty)
	})
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, sessionID, itemID string, qty int) (Quote, error) {
	if qty > maxLineQuantity {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not exceed 99")
	}
	return s.mutate(ctx, sessionID, "set_quantity", func(l *cart.Ledger) {
		l.SetQuantity(itemID, qty)
	})
}

// RemoveItem drops a line; unknown ids are ignored.
func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) (Quote, error) {
	return s.mutate(ctx, sessionID, "remove", func(l *cart.Ledger) {
		l.RemoveItem(itemID)
	})
}

// ClearCart empties the session's cart.
func (s *Service) ClearCart(ctx context.Context, sessionID string) (Quote, error) {
	return s.mutate(ctx, sessionID, "clear", func(l *cart.Ledger) {
		l.Clear()
	})
}

func (s *Service) mutate(ctx context.Context, sessionID, op string, fn func(*cart.Ledger)) (Quote, error) {
	ledger, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return Quote{}, err
	}
	before := ledger.Revision()
	fn(ledger)
	if ledger.Revision() != before {
		s.metrics.IncMutation(op)
		s.persist(ctx, sessionID)
	}
	return s.quote(ledger.Items(), enums.FulfillmentDelivery), nil
}
