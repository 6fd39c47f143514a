package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/api/routes"
	"github.com/speedsterx/storefront-backend/internal/addresses"
	"github.com/speedsterx/storefront-backend/internal/auth"
	"github.com/speedsterx/storefront-backend/internal/cart"
	"github.com/speedsterx/storefront-backend/internal/categories"
	"github.com/speedsterx/storefront-backend/internal/checkout"
	"github.com/speedsterx/storefront-backend/internal/orders"
	"github.com/speedsterx/storefront-backend/internal/pages"
	"github.com/speedsterx/storefront-backend/internal/products"
	"github.com/speedsterx/storefront-backend/internal/users"
	"github.com/speedsterx/storefront-backend/pkg/auth/session"
	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db"
	"github.com/speedsterx/storefront-backend/pkg/logger"
	"github.com/speedsterx/storefront-backend/pkg/metrics"
	"github.com/speedsterx/storefront-backend/pkg/migrate"
	"github.com/speedsterx/storefront-backend/pkg/redis"
	"github.com/speedsterx/storefront-backend/pkg/storage/local"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	fileStore, err := local.NewStore(cfg.Uploads)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare upload storage", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	categoryRepo := categories.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	addressRepo := addresses.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	pageRepo := pages.NewRepository(dbClient.DB())

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager, fileStore, serviceRepos{
		users:      userRepo,
		categories: categoryRepo,
		products:   productRepo,
		cart:       cartRepo,
		addresses:  addressRepo,
		orders:     orderRepo,
		pages:      pageRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs, httpMetrics, metricsHandler),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(redisClient.Close(), dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error closing resources", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

type serviceRepos struct {
	users      *users.Repository
	categories *categories.Repository
	products   *products.Repository
	cart       *cart.Repository
	addresses  *addresses.Repository
	orders     *orders.Repository
	pages      *pages.Repository
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	sessionManager *session.Manager,
	fileStore *local.Store,
	repos serviceRepos,
) (routes.Services, error) {
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       repos.users,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	userService, err := users.NewService(users.ServiceParams{Repo: repos.users})
	if err != nil {
		return routes.Services{}, err
	}

	categoryService, err := categories.NewService(categories.ServiceParams{
		Repo:    repos.categories,
		Catalog: cfg.Catalog,
	})
	if err != nil {
		return routes.Services{}, err
	}

	productService, err := products.NewService(products.ServiceParams{
		Repo:       repos.products,
		Categories: repos.categories,
		Files:      fileStore,
		Catalog:    cfg.Catalog,
		Log:        logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:     repos.cart,
		Products: repos.products,
		Checkout: cfg.Checkout,
	})
	if err != nil {
		return routes.Services{}, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx: dbClient,
		Stores: func(tx *gorm.DB) checkout.TxStores {
			return checkout.TxStores{
				Carts:    repos.cart.WithTx(tx),
				Products: repos.products.WithTx(tx),
				Orders:   repos.orders.WithTx(tx),
			}
		},
		Addresses: repos.addresses,
		Checkout:  cfg.Checkout,
	})
	if err != nil {
		return routes.Services{}, err
	}

	addressService, err := addresses.NewService(addresses.ServiceParams{Repo: repos.addresses})
	if err != nil {
		return routes.Services{}, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{Repo: repos.orders})
	if err != nil {
		return routes.Services{}, err
	}

	pageService, err := pages.NewService(pages.ServiceParams{Repo: repos.pages})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:       authService,
		Users:      userService,
		Categories: categoryService,
		Products:   productService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Addresses:  addressService,
		Orders:     orderService,
		Pages:      pageService,
	}, nil
}
