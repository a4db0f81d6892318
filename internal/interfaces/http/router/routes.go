package router

import (
	"github.com/gin-gonic/gin"
	"github.com/goodsdist/backend/internal/infrastructure/config"
	"github.com/goodsdist/backend/internal/infrastructure/logger"
	"github.com/goodsdist/backend/internal/infrastructure/telemetry"
	"github.com/goodsdist/backend/internal/interfaces/http/handler"
	"github.com/goodsdist/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers served by the API
type Handlers struct {
	Packaging *handler.PackagingHandler
	Supplier  *handler.SupplierItemHandler
	System    *handler.SystemHandler
}

// EngineOptions holds what NewEngine needs besides the handlers
type EngineOptions struct {
	HTTP          config.HTTPConfig
	Logger        *zap.Logger
	MeterProvider *telemetry.MeterProvider
	Tenant        middleware.TenantConfig
}

// NewPackagingGroup declares the packaging routes
func NewPackagingGroup(h *handler.PackagingHandler) *DomainGroup {
	return NewDomainGroup("packaging", "/packaging").
		POST("", h.Create).
		GET("", h.List).
		POST("/preview", h.Preview).
		GET("/:id", h.GetByID).
		DELETE("/:id", h.Delete).
		PUT("/:id/name", h.Rename).
		PUT("/:id/layers", h.ReplaceLayers).
		PUT("/:id/layers/:index/price", h.SetLayerPrice).
		PUT("/:id/layers/:index/stock", h.SetLayerStock).
		PUT("/:id/buying-price", h.SetBuyingPrice).
		PUT("/:id/auto-calculate", h.SetAutoCalculate).
		POST("/:id/replenish", h.Replenish).
		GET("/:id/pricing", h.GetPricing).
		GET("/:id/payload", h.GetSavePayload)
}

// NewSupplierGroup declares the supplier-item routes
func NewSupplierGroup(h *handler.SupplierItemHandler) *DomainGroup {
	return NewDomainGroup("supplier-items", "/supplier-items").
		POST("/parse", h.Parse)
}

// NewSystemGroup declares the versioned system routes
func NewSystemGroup(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping)
}

// NewEngine builds the gin engine with the middleware chain and every route.
// Middleware order matters: the request ID must exist before the request
// logger reads it, and the tenant must be resolved before metrics label it.
func NewEngine(h Handlers, opts EngineOptions) *gin.Engine {
	middleware.SetupValidator()

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(opts.HTTP)),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
		middleware.TenantWithConfig(opts.Tenant),
		middleware.HTTPMetrics(opts.MeterProvider),
	)

	engine.GET("/health", h.System.Health)

	NewRouter(engine).
		Register(NewSystemGroup(h.System)).
		Register(NewPackagingGroup(h.Packaging)).
		Register(NewSupplierGroup(h.Supplier)).
		Setup()

	return engine
}
