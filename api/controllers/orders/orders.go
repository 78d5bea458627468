package orders

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/foodcart-backend/api/middleware"
	"github.com/angelmondragon/foodcart-backend/api/responses"
	"github.com/angelmondragon/foodcart-backend/api/validators"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service is the order surface of the checkout service.
type Service interface {
	PlaceOrder(ctx context.Context, sessionID string, input checkout.PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, sessionID, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, sessionID string, limit int) ([]models.Order, error)
}

// PlaceOrder turns the session cart into an order and empties the cart.
func PlaceOrder(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r, svc, logg)
		if !ok {
			return
		}

		var payload PlaceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fulfillment, err := enums.ParseFulfillmentType(payload.Fulfillment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment type").
				WithDetails(map[string]string{"fulfillment": "must be delivery or pickup"}))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), sessionID, checkout.PlaceOrderInput{
			Fulfillment:   fulfillment,
			CustomerName:  payload.CustomerName,
			CustomerEmail: payload.CustomerEmail,
			CustomerPhone: payload.CustomerPhone,
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// Get returns one order placed by the session.
func Get(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r, svc, logg)
		if !ok {
			return
		}
		order, err := svc.GetOrder(r.Context(), sessionID, chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// List returns the session's recent orders, newest first, without lines.
func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r, svc, logg)
		if !ok {
			return
		}
		limit, err := validators.QueryInt(r, "limit", validators.IntRange{Default: defaultListLimit, Min: 1, Max: maxListLimit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListOrders(r.Context(), sessionID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := OrderListResponse{Orders: make([]OrderResponse, 0, len(orders))}
		for i := range orders {
			out.Orders = append(out.Orders, newOrderResponse(&orders[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func requireSession(w http.ResponseWriter, r *http.Request, svc Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
		return "", false
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
		return "", false
	}
	return sessionID, true
}
