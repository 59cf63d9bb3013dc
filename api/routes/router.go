package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/primefit/storefront/api/controllers"
	"github.com/primefit/storefront/api/middleware"
	"github.com/primefit/storefront/internal/catalog"
	"github.com/primefit/storefront/internal/checkout"
	"github.com/primefit/storefront/internal/media"
	"github.com/primefit/storefront/internal/orderrequests"
	"github.com/primefit/storefront/pkg/config"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/redis"
)

const maxUploadFiles = 10

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
	adminCounter redis.Counter,
	sessions controllers.CartSessions,
	cartOps controllers.CartOperationRecorder,
	catalogService catalog.Service,
	checkoutService checkout.Service,
	mediaService media.Service,
	orderRequestService orderrequests.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(catalogService, logg))
		r.Get("/products/{productId}", controllers.ProductGet(catalogService, logg))
		r.Get("/categories", controllers.CategoryList(catalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(cfg.Cart, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(sessions, logg))
				r.Delete("/", controllers.CartClear(sessions, cartOps, logg))
				r.Get("/events", controllers.CartEvents(sessions, logg))
				r.Post("/items", controllers.CartAddItem(sessions, catalogService, cartOps, logg))
				r.Put("/items/{productId}", controllers.CartSetQuantity(sessions, cartOps, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(sessions, cartOps, logg))
			})

			r.Get("/checkout", controllers.CheckoutSummary(sessions, checkoutService, logg))
			r.Post("/checkout", controllers.CheckoutRequest(sessions, checkoutService, cartOps, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminGate(cfg.Admin, adminCounter, logg))

		r.Get("/products", controllers.AdminProductList(catalogService, logg))
		r.Post("/products", controllers.AdminProductCreate(catalogService, logg))
		r.Put("/products/{productId}", controllers.AdminProductUpdate(catalogService, logg))
		r.Delete("/products/{productId}", controllers.AdminProductDelete(catalogService, logg))

		r.Post("/categories", controllers.AdminCategoryCreate(catalogService, logg))
		r.Delete("/categories/{categoryId}", controllers.AdminCategoryDelete(catalogService, logg))

		maxBytes := int64(cfg.GCS.MaxUploadMB) << 20
		r.Post("/uploads", controllers.AdminUpload(mediaService, maxBytes, maxUploadFiles, logg))

		r.Get("/order-requests", controllers.AdminOrderRequestList(orderRequestService, logg))
		r.Get("/order-requests/{orderRequestId}", controllers.AdminOrderRequestGet(orderRequestService, logg))
	})

	return r
}
