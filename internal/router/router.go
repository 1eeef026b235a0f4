package router

import (
	"bookpos/internal/config"
	"bookpos/internal/handler"
	"bookpos/internal/infra"
	"bookpos/internal/middleware"
	"bookpos/internal/repository"
	"bookpos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb and dispatcher may be nil: the price cache and receipt jobs are then off.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher service.ReceiptDispatcher) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	var cache service.PriceCache
	if rdb != nil {
		cache = infra.NewPriceCache(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	bookRepo := repository.NewBookRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	priceHistoryRepo := repository.NewPriceHistoryRepository(db)
	reportRepo := repository.NewReportRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(cfg, nil)
	settingsSvc := service.NewSettingsService(settingsRepo)
	ledger := service.NewLedger(movementRepo, bookRepo, nil)
	catalogSvc := service.NewCatalogService(bookRepo, saleRepo, movementRepo, priceHistoryRepo, ledger, settingsSvc, cache, nil)
	saleSvc := service.NewSaleService(saleRepo, bookRepo, ledger, cache, dispatcher, nil)
	reportSvc := service.NewReportService(reportRepo, bookRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	booksH := handler.NewBooksHandler(catalogSvc, ledger)
	salesH := handler.NewSalesHandler(saleSvc)
	inventoryH := handler.NewInventoryHandler(ledger, reportSvc)
	reportsH := handler.NewReportsHandler(reportSvc, nil)
	settingsH := handler.NewSettingsHandler(settingsSvc)
	priceH := handler.NewPriceHandler(catalogSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.POST("/v1/auth/login", middleware.LoginRateLimiter(), authH.Login)
	r.GET("/v1/price/:isbn", priceH.Check)

	// Protected routes: the single operator
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret, service.OperatorSubject))
	{
		v1.GET("/auth/session", authH.Session)

		books := v1.Group("/books")
		{
			books.GET("", booksH.List)
			books.POST("", booksH.Create)
			books.GET("/:id", booksH.Get)
			books.PUT("/:id", booksH.Update)
			books.DELETE("/:id", booksH.Delete)
			books.PATCH("/:id/stock", booksH.AdjustStock)
			books.GET("/:id/movements", booksH.Movements)
			books.GET("/:id/reconcile", booksH.Reconcile)
			books.GET("/:id/price-history", booksH.PriceHistory)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("/quote", salesH.Quote)
			sales.POST("", salesH.Create)
			sales.GET("", salesH.List)
			sales.GET("/:id", salesH.Get)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("/movements", inventoryH.Movements)
			inv.GET("/low-stock", inventoryH.LowStock)
		}

		rep := v1.Group("/reports")
		{
			rep.GET("/summary", reportsH.Summary)
			rep.GET("/top-sellers", reportsH.TopSellers)
			rep.GET("/distribution", reportsH.Distribution)
			rep.GET("/compare", reportsH.Compare)
			rep.GET("/inventory", reportsH.Inventory)
			rep.GET("/payments", reportsH.Payments)
			rep.GET("/daily", reportsH.Daily)
			rep.GET("/profit", reportsH.Profit)
			rep.GET("/most-valuable", reportsH.MostValuable)
		}

		settings := v1.Group("/settings")
		{
			settings.GET("", settingsH.List)
			settings.GET("/:key", settingsH.Get)
			settings.PUT("/:key", settingsH.Set)
		}
	}

	// Swagger UI outside production only
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
