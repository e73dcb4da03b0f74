package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"storefront/internal/admin"
	"storefront/internal/backend"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	deploysvc "storefront/internal/service/deploy"
	productsvc "storefront/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbpool, err := db.ConnectOptional(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	if dbpool != nil {
		defer dbpool.Close()
	} else {
		logger.Printf("DB_DSN not set; catalog import and deploy are disabled")
	}

	cartRepo, err := openCartRepo(cfg, dbpool)
	if err != nil {
		logger.Fatalf("cart store: %v", err)
	}

	var cartCache cache.CartCache = cache.NopCache{}
	var redisCache *cache.RedisCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		defer client.Close()
		redisCache = cache.NewRedisCache(client, cfg.CartCacheTTL)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Printf("redis ping failed, cart reads fall through to the store: %v", err)
		}
		cartCache = redisCache
	}

	cartService, err := cartsvc.New(cartRepo, cartCache, logger)
	if err != nil {
		logger.Fatalf("cart service: %v", err)
	}

	backendClient := backend.New(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout))
	dashboard := admin.NewDashboard(backendClient, admin.DashboardConfig{
		InventoryEvery: cfg.InventoryPoll,
		JobStatsEvery:  cfg.JobStatsPoll,
		JobCheckEvery:  cfg.JobCheck,
	}, logger)
	dashboardDone := make(chan struct{})
	go func() {
		defer close(dashboardDone)
		dashboard.Run(ctx)
	}()

	deps := httpserver.Deps{
		Carts:       cartService,
		Backend:     backendClient,
		Dashboard:   dashboard,
		CORSOrigins: cfg.CORSOrigins,
		Ready: func(ctx context.Context) error {
			if dbpool != nil {
				if err := db.Ping(ctx, dbpool); err != nil {
					return fmt.Errorf("db not reachable: %w", err)
				}
			}
			if cfg.CartStore != "postgres" {
				if _, err := os.Stat(cfg.CartDataDir); err != nil {
					return fmt.Errorf("cart data dir: %w", err)
				}
			}
			if redisCache != nil {
				if err := redisCache.Ping(ctx); err != nil {
					return fmt.Errorf("redis not reachable: %w", err)
				}
			}
			return nil
		},
	}
	if dbpool != nil {
		productRepo := productrepo.NewPostgres(dbpool, logger)
		deps.Catalog = productsvc.New(productRepo)
		deps.Categories = categorysvc.New(categoryrepo.NewPostgres(dbpool))
		deps.Products = productRepo
		deps.Deployer = deploysvc.New(productRepo, backendClient, logger)
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, deps)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (cart store: %s)", cfg.HTTPAddr, cfg.CartStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	stop()
	<-dashboardDone
}

func openCartRepo(cfg config.Config, pool *pgxpool.Pool) (cartrepo.Repository, error) {
	switch cfg.CartStore {
	case "postgres":
		if pool == nil {
			return nil, errors.New("CART_STORE=postgres requires DB_DSN")
		}
		return cartrepo.NewPostgres(pool), nil
	case "file", "":
		return cartrepo.NewFile(cfg.CartDataDir)
	default:
		return nil, fmt.Errorf("unknown CART_STORE %q", cfg.CartStore)
	}
}
