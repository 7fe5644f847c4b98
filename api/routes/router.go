package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickshop/storefront-backend/api/controllers"
	"github.com/quickshop/storefront-backend/api/middleware"
	cartsvc "github.com/quickshop/storefront-backend/internal/cart"
	checkoutsvc "github.com/quickshop/storefront-backend/internal/checkout"
	ordersvc "github.com/quickshop/storefront-backend/internal/orders"
	"github.com/quickshop/storefront-backend/pkg/config"
	"github.com/quickshop/storefront-backend/pkg/logger"
	"github.com/quickshop/storefront-backend/pkg/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     controllers.Pinger
	CartSvc   cartsvc.Service
	Checkout  checkoutsvc.Service
	OrdersSvc ordersvc.Service
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, deps.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartSvc, deps.Logger))
			r.Post("/items", controllers.CartAddItem(deps.CartSvc, deps.Logger))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.CartSvc, deps.Logger))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.CartSvc, deps.Logger))
			r.Post("/checkout", controllers.Checkout(deps.Checkout, deps.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.OrdersSvc, deps.Logger))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersSvc, deps.Logger))
		})
	})

	return r
}
