package httpserver

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/admin"
	"storefront/internal/backend"
	"storefront/internal/domain"
	"storefront/internal/importer"
	"storefront/internal/service/deploy"
)

type CartService interface {
	Decode(body []byte) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Delete(ctx context.Context, id string) error
}

// Backend is the external catalog service the proxy routes pass through to.
type Backend interface {
	Products(ctx context.Context, filters domain.ProductFilters) (*domain.ProductsResponse, error)
	Inventory(ctx context.Context) (*domain.InventoryResponse, error)
	JobStats(ctx context.Context) (*domain.JobStatsResponse, error)
}

type Catalog interface {
	List(ctx context.Context, filters domain.ProductFilters) (*domain.ProductsResponse, error)
}

type Categories interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type Deployer interface {
	Deploy(ctx context.Context, req deploy.Request) (*backend.DeployResult, error)
}

// Deps are the collaborators behind the routes. Catalog, Categories, Products
// and Deployer need the local database; when nil their routes answer 503.
type Deps struct {
	Carts      CartService
	Backend    Backend
	Dashboard  *admin.Dashboard
	Catalog    Catalog
	Categories Categories
	Products   importer.ProductWriter
	Deployer   Deployer
	Ready      func(ctx context.Context) error

	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) *gin.Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))

	api := router.Group("/api")

	carts := &cartHandler{carts: deps.Carts, logger: logger}
	api.GET("/cart", carts.get)
	api.POST("/cart", carts.save)
	api.DELETE("/cart", carts.remove)
	api.GET("/cart/summary", carts.summary)

	if deps.Backend != nil {
		proxy := &proxyHandler{backend: deps.Backend, logger: logger}
		api.GET("/products", proxy.products)
		api.GET("/inventory", proxy.inventory)
		api.GET("/jobs/stats", proxy.jobStats)
	}

	adm := &adminHandler{
		dashboard:  deps.Dashboard,
		catalog:    deps.Catalog,
		categories: deps.Categories,
		products:   deps.Products,
		deployer:   deps.Deployer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	ag := api.Group("/admin")
	ag.GET("/inventory", adm.inventory)
	ag.POST("/inventory/refresh", adm.refreshInventory)
	ag.GET("/jobs", adm.jobs)
	ag.POST("/jobs/:queue/run", adm.runJob)
	ag.GET("/catalog", adm.catalogList)
	ag.GET("/categories", adm.categoryList)
	ag.POST("/import", adm.importCSV)
	ag.POST("/deploy", adm.deploy)

	return router
}
