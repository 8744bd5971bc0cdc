// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brigade/internal/domain/ingredient"
	"brigade/internal/domain/kitchen"
	"brigade/internal/domain/ledger"
	"brigade/internal/domain/orders"
	"brigade/internal/domain/recipe"
	"brigade/internal/domain/reports"
	"brigade/internal/infrastructure/http/v1/handlers"
	"brigade/internal/infrastructure/http/v1/middleware"
	"brigade/internal/infrastructure/ws"
	"brigade/pkg/logger"
)

// RouterConfig wires the services into the HTTP surface.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator *middleware.JWTValidator

	Ingredients *ingredient.Service
	Recipes     recipe.Repository
	Orders      *orders.Service
	Kitchen     *kitchen.Service
	Allocator   *ledger.Allocator
	Reports     *reports.Service

	// Hub serves the kitchen display WebSocket feed. Optional.
	Hub *ws.Hub

	// Pool feeds the readiness probe. Nil when running on memory stores.
	Pool *pgxpool.Pool

	// Prometheus exposes /metrics when set.
	Prometheus prometheus.Gatherer

	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then tracing so the logger and
	// error handler see the request id.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.Prometheus != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Prometheus, promhttp.HandlerOpts{})))
	}

	if cfg.Hub != nil {
		router.GET("/ws/kitchen", cfg.Hub.Handle)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))

	base := handlers.NewBaseHandler()

	catalogHandler := handlers.NewCatalogHandler(base, cfg.Ingredients, cfg.Recipes)
	catalog := api.Group("/catalog")
	{
		catalog.POST("/ingredients", middleware.RequireRole("manager"), catalogHandler.CreateIngredient)
		catalog.GET("/ingredients", catalogHandler.ListIngredients)
		catalog.GET("/ingredients/:id", catalogHandler.GetIngredient)
		catalog.PUT("/ingredients/:id", middleware.RequireRole("manager"), catalogHandler.UpdateIngredient)

		catalog.POST("/recipes", middleware.RequireRole("manager", "chef"), catalogHandler.CreateRecipe)
		catalog.GET("/recipes", catalogHandler.ListRecipes)
		catalog.GET("/recipes/:id", catalogHandler.GetRecipe)
	}

	ordersHandler := handlers.NewOrdersHandler(base, cfg.Orders)
	ordersGroup := api.Group("/orders")
	{
		ordersGroup.POST("", ordersHandler.Create)
		ordersGroup.GET("", ordersHandler.List)
		ordersGroup.GET("/:id", ordersHandler.Get)
		ordersGroup.POST("/items/:id/transition", ordersHandler.TransitionItem)
	}

	reportsHandler := handlers.NewReportsHandler(base, cfg.Reports)

	kitchenHandler := handlers.NewKitchenHandler(base, cfg.Kitchen)
	kitchenGroup := api.Group("/kitchen/tickets")
	{
		kitchenGroup.POST("", kitchenHandler.Create)
		kitchenGroup.GET("", kitchenHandler.List)
		kitchenGroup.GET("/:id", kitchenHandler.Get)
		kitchenGroup.POST("/:id/start", kitchenHandler.Start)
		kitchenGroup.POST("/:id/pause", kitchenHandler.Pause)
		kitchenGroup.POST("/:id/resume", kitchenHandler.Resume)
		kitchenGroup.POST("/:id/complete", kitchenHandler.Complete)
		kitchenGroup.POST("/:id/serve", kitchenHandler.Serve)
		kitchenGroup.POST("/:id/cancel", kitchenHandler.Cancel)
		kitchenGroup.POST("/:id/fail", kitchenHandler.Fail)
		kitchenGroup.GET("/:id/cost", middleware.RequireRole("manager", "chef"), reportsHandler.TicketCost)
	}

	stockHandler := handlers.NewStockHandler(base, cfg.Allocator)
	stock := api.Group("/stock")
	{
		stock.POST("/batches", middleware.RequireRole("manager", "chef"), stockHandler.ReceiveBatch)
		stock.GET("/batches/:id", stockHandler.GetBatch)
		stock.POST("/batches/:id/write-off", middleware.RequireRole("manager", "chef"), stockHandler.WriteOff)
		stock.POST("/batches/:id/lock", middleware.RequireRole("manager"), stockHandler.Lock)
		stock.POST("/batches/:id/unlock", middleware.RequireRole("manager"), stockHandler.Unlock)
		stock.POST("/batches/:id/reconcile", middleware.RequireRole("manager"), stockHandler.Reconcile)
		stock.GET("/ingredients/:id/batches", stockHandler.ListBatches)
		stock.GET("/movements", stockHandler.Movements)
		stock.GET("/movements/export", middleware.RequireRole("manager"), stockHandler.ExportMovements)
		stock.GET("/reports/turnover", middleware.RequireRole("manager"), reportsHandler.Turnover)
	}

	return router
}
