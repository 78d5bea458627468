package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	cartdto "github.com/angelmondragon/foodcart-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/foodcart-backend/api/middleware"
	"github.com/angelmondragon/foodcart-backend/api/responses"
	"github.com/angelmondragon/foodcart-backend/api/validators"
	"github.com/angelmondragon/foodcart-backend/internal/catalog"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

// Service is the cart surface of the checkout service.
type Service interface {
	View(ctx context.Context, sessionID string) (checkout.Quote, error)
	Quote(ctx context.Context, sessionID string, fulfillment enums.FulfillmentType) (checkout.Quote, error)
	AddItem(ctx context.Context, sessionID string, rec catalog.Record, qty int) (checkout.Quote, error)
	SetQuantity(ctx context.Context, sessionID, itemID string, qty int) (checkout.Quote, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (checkout.Quote, error)
	ClearCart(ctx context.Context, sessionID string) (checkout.Quote, error)
}

// CartFetch returns the session cart priced for delivery.
func CartFetch(svc Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		q, err := svc.View(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(sessionID, q))
	})
}

// CartClear empties the session cart.
func CartClear(svc Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		q, err := svc.ClearCart(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(sessionID, q))
	})
}

// CartAddItem adds a catalog item to the cart. Quantity defaults to 1.
func CartAddItem(svc Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec := catalog.Record{
			ID:        payload.ID,
			Name:      payload.Name,
			UnitPrice: payload.UnitPrice,
			Tag:       payload.Tag,
			ImageRef:  payload.ImageRef,
			Available: payload.Available,
		}
		q, err := svc.AddItem(r.Context(), sessionID, rec, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(sessionID, q))
	})
}

// CartUpdateItem sets the quantity of an existing line.
func CartUpdateItem(svc Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartdto.SetQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q, err := svc.SetQuantity(r.Context(), sessionID, itemID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(sessionID, q))
	})
}

// CartRemoveItem deletes a line; unknown ids succeed with the unchanged cart.
func CartRemoveItem(svc Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := svc.RemoveItem(r.Context(), sessionID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(sessionID, q))
	})
}

// CartSummary prices the cart for ?fulfillment=delivery|pickup (delivery when omitted).
func CartSummary(svc Service, logg *logger.Logger) http.HandlerFunc {
	return withSession(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		fulfillment, err := validators.QueryFulfillment(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := svc.Quote(r.Context(), sessionID, fulfillment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSummary(q))
	})
}

func withSession(svc Service, logg *logger.Logger, next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}
		next(w, r, sessionID)
	}
}

func itemIDParam(r *http.Request) (string, error) {
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return itemID, nil
}
