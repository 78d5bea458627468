package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodcart-backend/api/responses"
	"github.com/angelmondragon/foodcart-backend/internal/sessions"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

// SessionHeader carries the anonymous cart session between storefront and API.
const SessionHeader = "X-Session-Id"

// Session resolves the cart session from X-Session-Id, minting a new id when the
// header is absent. The id is echoed back so the storefront can keep it.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(SessionHeader)
			if sessionID == "" {
				sessionID = uuid.NewString()
			} else if err := sessions.ValidateSessionID(sessionID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			w.Header().Set(SessionHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
