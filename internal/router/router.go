package router

import (
	"net/http"
	"time"

	"perfumeria/internal/config"
	"perfumeria/internal/event"
	"perfumeria/internal/handler"
	"perfumeria/internal/infra"
	"perfumeria/internal/middleware"
	"perfumeria/internal/repository"
	"perfumeria/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-level collaborators the HTTP layer is built on.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Events    event.Publisher
	Documents *infra.DocumentClient
	Metrics   http.Handler
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler(!cfg.IsProduction()))
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))
	r.Use(middleware.UserID())

	// ── Repositories ─────────────────────────────────────────────────────────
	tx := repository.NewTransactor(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	movementRepo := repository.NewStockMovementRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	cashRepo := repository.NewCashRepository(d.DB)
	purchaseRepo := repository.NewPurchaseRepository(d.DB)
	saleRepo := repository.NewSaleRepository(d.DB)
	partnerRepo := repository.NewPartnerRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	stockSvc := service.NewStockService(tx, productRepo, movementRepo, d.Events)
	partnerSvc := service.NewPartnerService(partnerRepo)
	cashSvc := service.NewCashService(tx, cashRepo, d.Events)
	orderSvc := service.NewOrderService(tx, orderRepo, productRepo, stockSvc, partnerSvc, d.Events)
	purchaseSvc := service.NewPurchaseService(tx, purchaseRepo, stockSvc, cashSvc, d.Events)
	saleSvc := service.NewSaleService(tx, saleRepo, productRepo, stockSvc, cashSvc, d.Events)
	documentSvc := service.NewDocumentService(d.Documents, infra.ErrDocumentNotFound)

	// ── Handlers ─────────────────────────────────────────────────────────────
	ordersH := handler.NewOrdersHandler(orderSvc)
	cashH := handler.NewCashHandler(cashSvc)
	inventoryH := handler.NewInventoryHandler(stockSvc)
	commerceH := handler.NewCommerceHandler(purchaseSvc, saleSvc)
	documentsH := handler.NewDocumentsHandler(documentSvc)
	partnersH := handler.NewPartnersHandler(partnerSvc)

	// ── Ambient ──────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(map[string]handler.Check{
		"db":    handler.DBCheck(d.DB),
		"redis": handler.RedisCheck(d.Redis),
	}))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ── Orders ───────────────────────────────────────────────────────────────
	orders := r.Group("/orders")
	{
		orders.POST("", ordersH.Create)
		orders.GET("", ordersH.List)
		orders.GET("/:id", ordersH.Get)
		orders.PUT("/:id", ordersH.Update)
		orders.DELETE("/:id", ordersH.Cancel)
		orders.POST("/:id/confirm-payment", ordersH.ConfirmPayment)
	}

	// ── Cash registers ───────────────────────────────────────────────────────
	cash := r.Group("/cash-registers")
	{
		cash.POST("", cashH.CreateRegister)
		cash.GET("", cashH.ListRegisters)
		cash.GET("/mine", cashH.SellerRegister)
		cash.GET("/:id", cashH.GetRegister)
		cash.PUT("/:id", cashH.UpdateRegister)
		cash.DELETE("/:id", cashH.DeactivateRegister)
		cash.GET("/:id/current-session", cashH.CurrentSession)
		cash.GET("/:id/sessions", cashH.ListSessions)
		cash.GET("/sessions/mine", cashH.SellerSessions)
		cash.POST("/sessions/open", cashH.OpenSession)
		cash.PUT("/sessions/:id/close", cashH.CloseSession)
		cash.PATCH("/sessions/:id/notes", cashH.AppendNotes)
		cash.GET("/sessions/:id/movements", cashH.ListMovements)
		cash.POST("/movements", cashH.AddMovement)
	}

	// ── Inventory ────────────────────────────────────────────────────────────
	r.POST("/inventory-movements", inventoryH.RegisterMovement)
	r.GET("/inventory-movements", inventoryH.ListMovements)
	r.GET("/products/:id", inventoryH.GetProduct)

	// ── Purchases / sales ────────────────────────────────────────────────────
	r.POST("/purchases", commerceH.RegisterPurchase)
	r.DELETE("/purchases/:id", commerceH.CancelPurchase)
	r.POST("/sales", commerceH.RegisterSale)
	r.DELETE("/sales/:id", commerceH.CancelSale)

	r.GET("/seller-customers", partnersH.ListSellerCustomers)

	// ── Documents ────────────────────────────────────────────────────────────
	docs := r.Group("/documents")
	{
		docs.GET("/dni/:dni", documentsH.LookupDNI)
		docs.GET("/ruc/:ruc", documentsH.LookupRUC)
	}

	return r
}
