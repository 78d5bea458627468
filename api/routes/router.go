package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/foodcart-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/foodcart-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/foodcart-backend/api/controllers/orders"
	"github.com/angelmondragon/foodcart-backend/api/middleware"
	"github.com/angelmondragon/foodcart-backend/pkg/config"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/redis"
)

const idempotencyTTL = 24 * time.Hour

// CheckoutService is satisfied by *checkout.Service.
type CheckoutService interface {
	cartcontrollers.Service
	ordercontrollers.Service
}

// NewRouter wires the public storefront API. redisClient may be nil, in which
// case rate limiting and idempotent replays are disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	checkoutService CheckoutService,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	if cfg.App.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
	)

	var (
		limiter middleware.RateLimiterStore
		replays middleware.IdempotencyStore
	)
	if redisClient != nil {
		limiter = redisClient
		replays = redisClient
	}
	cartPolicy := middleware.RateLimitPolicy{
		Name:   "cart",
		Limit:  cfg.RateLimit.CartMutations,
		Window: cfg.RateLimit.Window,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(checkoutService, logg))
			r.Get("/summary", cartcontrollers.CartSummary(checkoutService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cartPolicy, limiter, logg))
				r.Delete("/", cartcontrollers.CartClear(checkoutService, logg))
				r.Post("/items", cartcontrollers.CartAddItem(checkoutService, logg))
				r.Put("/items/{itemID}", cartcontrollers.CartUpdateItem(checkoutService, logg))
				r.Delete("/items/{itemID}", cartcontrollers.CartRemoveItem(checkoutService, logg))
			})
		})

		r.With(middleware.Idempotency(replays, idempotencyTTL, logg)).
			Post("/checkout/orders", ordercontrollers.PlaceOrder(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(checkoutService, logg))
			r.Get("/{orderID}", ordercontrollers.Get(checkoutService, logg))
		})
	})

	return r
}
