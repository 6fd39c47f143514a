package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/speedsterx/storefront-backend/api/controllers"
	"github.com/speedsterx/storefront-backend/api/middleware"
	addrsvc "github.com/speedsterx/storefront-backend/internal/addresses"
	"github.com/speedsterx/storefront-backend/internal/auth"
	cartsvc "github.com/speedsterx/storefront-backend/internal/cart"
	"github.com/speedsterx/storefront-backend/internal/categories"
	checkoutsvc "github.com/speedsterx/storefront-backend/internal/checkout"
	ordersvc "github.com/speedsterx/storefront-backend/internal/orders"
	pagesvc "github.com/speedsterx/storefront-backend/internal/pages"
	productsvc "github.com/speedsterx/storefront-backend/internal/products"
	usersvc "github.com/speedsterx/storefront-backend/internal/users"
	"github.com/speedsterx/storefront-backend/pkg/auth/session"
	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db"
	"github.com/speedsterx/storefront-backend/pkg/logger"
	"github.com/speedsterx/storefront-backend/pkg/metrics"
	"github.com/speedsterx/storefront-backend/pkg/redis"
)

// Services bundles every domain service the router mounts.
type Services struct {
	Auth       auth.Service
	Users      usersvc.Service
	Categories categories.Service
	Products   productsvc.Service
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Addresses  addrsvc.Service
	Orders     ordersvc.Service
	Pages      pagesvc.Service
}

// NewRouter assembles the full HTTP surface: public storefront reads, the
// session-gated account area and the staff console.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, redisClient, logg))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// Locally stored product images are served straight off disk.
	r.Handle(cfg.Uploads.PublicPath+"/*", http.StripPrefix(
		cfg.Uploads.PublicPath+"/",
		http.FileServer(http.Dir(cfg.Uploads.Dir)),
	))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.CatalogListProducts(svcs.Products, logg))
		r.Get("/products/{slug}", controllers.CatalogGetProduct(svcs.Products, logg))
		r.Get("/categories", controllers.CatalogCategoryTree(svcs.Categories, logg))
	})

	r.Get("/api/v1/pages/{slug}", controllers.PageGet(svcs.Pages, logg))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", controllers.PaymentWebhook(svcs.Orders, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Post("/api/v1/auth/change-password", controllers.AuthChangePassword(svcs.Auth, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(svcs.Cart, logg))
			r.Post("/", controllers.CartAdd(svcs.Cart, logg))
			r.Patch("/{itemID}", controllers.CartUpdateQuantity(svcs.Cart, logg))
			r.Delete("/{itemID}", controllers.CartRemove(svcs.Cart, logg))
		})

		r.Post("/api/v1/checkout", controllers.CheckoutPlaceOrder(svcs.Checkout, logg))

		r.Route("/api/v1/account", func(r chi.Router) {
			r.Get("/profile", controllers.ProfileGet(svcs.Users, logg))
			r.Patch("/profile", controllers.ProfileUpdate(svcs.Users, logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svcs.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svcs.Addresses, logg))
				r.Patch("/{addressID}", controllers.AddressUpdate(svcs.Addresses, logg))
				r.Delete("/{addressID}", controllers.AddressDelete(svcs.Addresses, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MyOrdersList(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.MyOrderGet(svcs.Orders, logg))
			})
		})

		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff(svcs.Users, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(svcs.Products, logg))
				r.Post("/", controllers.AdminCreateProduct(svcs.Products, logg))
				r.Get("/{productID}", controllers.AdminGetProduct(svcs.Products, logg))
				r.Patch("/{productID}", controllers.AdminUpdateProduct(svcs.Products, logg))
				r.Delete("/{productID}", controllers.AdminDeleteProduct(svcs.Products, logg))

				r.Post("/{productID}/images", controllers.AdminAddProductImage(svcs.Products, logg))
				r.Patch("/{productID}/images", controllers.AdminReorderProductImages(svcs.Products, logg))
				r.Delete("/{productID}/images/{imageID}", controllers.AdminDeleteProductImage(svcs.Products, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminListCategories(svcs.Categories, logg))
				r.Post("/", controllers.AdminCreateCategory(svcs.Categories, logg))
				r.Get("/{categoryID}", controllers.AdminGetCategory(svcs.Categories, logg))
				r.Patch("/{categoryID}", controllers.AdminUpdateCategory(svcs.Categories, logg))
				r.Delete("/{categoryID}", controllers.AdminDeleteCategory(svcs.Categories, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.AdminGetOrder(svcs.Orders, logg))
				r.Patch("/{orderID}/status", controllers.AdminUpdateOrderStatus(svcs.Orders, logg))
			})

			r.Route("/pages", func(r chi.Router) {
				r.Get("/", controllers.AdminListPages(svcs.Pages, logg))
				r.Post("/", controllers.AdminCreatePage(svcs.Pages, logg))
				r.Get("/{pageID}", controllers.AdminGetPage(svcs.Pages, logg))
				r.Patch("/{pageID}", controllers.AdminUpdatePage(svcs.Pages, logg))
				r.Delete("/{pageID}", controllers.AdminDeletePage(svcs.Pages, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(svcs.Users, logg))
				r.Get("/", controllers.AdminListUsers(svcs.Users, logg))
				r.Get("/{userID}", controllers.AdminGetUser(svcs.Users, logg))
				r.Patch("/{userID}/role", controllers.AdminChangeUserRole(svcs.Users, logg))
				r.Delete("/{userID}", controllers.AdminDeleteUser(svcs.Users, logg))
			})
		})
	})

	return r
}
