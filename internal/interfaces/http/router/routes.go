package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Auth        *handler.AuthHandler
	Company     *handler.CompanyHandler
	User        *handler.UserHandler
	Product     *handler.ProductHandler
	Customer    *handler.CustomerHandler
	Sale        *handler.SaleHandler
	Installment *handler.InstallmentHandler
	Report      *handler.ReportHandler
	System      *handler.SystemHandler
}

// EngineConfig carries the cross-cutting dependencies of the HTTP stack
type EngineConfig struct {
	Config        *config.Config
	Logger        *zap.Logger
	JWTService    *auth.JWTService
	Blacklist     auth.TokenBlacklist
	TenantChecker middleware.TenantStatusChecker
	// Meter is optional; nil disables HTTP metrics
	Meter metric.Meter
}

func perm(p identity.Permission) gin.HandlerFunc {
	return middleware.RequirePermission(string(p))
}

// NewEngine builds the gin engine with the middleware stack and every route
func NewEngine(ec EngineConfig, h Handlers) *gin.Engine {
	cfg := ec.Config
	log := ec.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID must exist before logging, tracing
	// must wrap everything that records span attributes.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(ec.Meter, log))
	engine.Use(middleware.Secure(cfg.HTTP.HSTSMaxAge))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtConfig := middleware.DefaultJWTConfig(ec.JWTService, ec.Blacklist)
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths, "/api/v1/system/info")
	jwtConfig.SkipPathPrefixes = append(jwtConfig.SkipPathPrefixes, "/api/v1/platform")
	jwtConfig.Logger = log

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.RequireActiveTenant(ec.TenantChecker, log),
		middleware.TracingAttributeInjector(),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
	)

	r.Register(systemRoutes(h)).
		Register(authRoutes(h)).
		Register(companyRoutes(h)).
		Register(platformRoutes(h, cfg.App.PlatformAPIKey)).
		Register(userRoutes(h)).
		Register(productRoutes(h)).
		Register(customerRoutes(h)).
		Register(saleRoutes(h)).
		Register(installmentRoutes(h)).
		Register(paymentRoutes(h)).
		Register(reportRoutes(h))
	r.Setup()

	return engine
}

func systemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("system", "")
	g.GET("/health", h.System.Health)
	g.GET("/system/info", h.System.GetSystemInfo)
	return g
}

func authRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.GET("/me", h.Auth.Me)
	g.POST("/logout", h.Auth.Logout)
	g.PUT("/password", h.Auth.ChangePassword)
	return g
}

func companyRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("company", "/company")
	g.GET("", h.Company.Get)
	g.PUT("", perm(identity.PermCompanyManage), h.Company.Update)
	return g
}

// platformRoutes are authenticated by the platform key instead of a user token
func platformRoutes(h Handlers, key string) *DomainGroup {
	g := NewDomainGroup("platform", "/platform")
	g.Use(middleware.RequirePlatformKey(key))
	g.GET("/companies", h.Company.List)
	g.POST("/companies/:id/deactivate", h.Company.Deactivate)
	return g
}

func userRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("users", "/users")
	g.Use(perm(identity.PermUserManage))
	g.GET("", h.User.List)
	g.POST("", h.User.Create)
	g.PUT("/:id/role", h.User.ChangeRole)
	g.POST("/:id/deactivate", h.User.Deactivate)
	return g
}

func productRoutes(h Handlers) *DomainGroup {
	read, write := perm(identity.PermProductRead), perm(identity.PermProductWrite)
	g := NewDomainGroup("products", "/products")
	g.GET("", read, h.Product.List)
	g.POST("", write, h.Product.Create)
	g.GET("/low-stock", read, h.Product.ListLowStock)
	g.GET("/barcode/:barcode", read, h.Product.GetByBarcode)
	g.GET("/:id", read, h.Product.GetByID)
	g.PUT("/:id", write, h.Product.Update)
	g.DELETE("/:id", write, h.Product.Delete)
	g.PUT("/:id/prices", write, h.Product.UpdatePrices)
	g.POST("/:id/stock", write, h.Product.AdjustStock)
	return g
}

func customerRoutes(h Handlers) *DomainGroup {
	read, write := perm(identity.PermCustomerRead), perm(identity.PermCustomerWrite)
	g := NewDomainGroup("customers", "/customers")
	g.GET("", read, h.Customer.List)
	g.POST("", write, h.Customer.Create)
	g.GET("/:id", read, h.Customer.GetByID)
	g.PUT("/:id", write, h.Customer.Update)
	g.DELETE("/:id", write, h.Customer.Delete)
	g.GET("/:id/debt", perm(identity.PermInstallmentRead), h.Customer.GetDebt)
	g.POST("/:id/payments", perm(identity.PermPaymentCreate), h.Customer.PayDebt)
	return g
}

func saleRoutes(h Handlers) *DomainGroup {
	read := perm(identity.PermSaleRead)
	g := NewDomainGroup("sales", "/sales")
	g.GET("", read, h.Sale.List)
	g.POST("", perm(identity.PermSaleCreate), h.Sale.Create)
	g.GET("/number/:number", read, h.Sale.GetByNumber)
	g.GET("/:id", read, h.Sale.GetByID)
	g.POST("/:id/cancel", perm(identity.PermSaleCancel), h.Sale.Cancel)
	g.GET("/:id/installments", perm(identity.PermInstallmentRead), h.Sale.GetInstallments)
	g.GET("/:id/carne", read, h.Sale.Carne)
	g.GET("/:id/receipt", read, h.Sale.Receipt)
	return g
}

func installmentRoutes(h Handlers) *DomainGroup {
	read := perm(identity.PermInstallmentRead)
	g := NewDomainGroup("installments", "/installments")
	g.GET("", read, h.Installment.List)
	g.GET("/:id", read, h.Installment.GetByID)
	g.POST("/:id/payments", perm(identity.PermPaymentCreate), h.Installment.RegisterPayment)
	g.POST("/:id/pix", read, h.Installment.GeneratePix)
	return g
}

func paymentRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("payments", "/payments")
	g.DELETE("/:id", perm(identity.PermPaymentDelete), h.Installment.DeletePayment)
	return g
}

func reportRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("reports", "/reports")
	g.Use(perm(identity.PermReportRead))
	g.GET("/overdue", h.Report.Overdue)
	g.GET("/customer-debts", h.Report.CustomerDebts)
	g.GET("/sales-summary", h.Report.SalesSummary)
	g.GET("/profit", h.Report.Profit)
	g.GET("/receivables", h.Report.Receivables)
	g.GET("/dashboard", h.Report.Dashboard)
	g.GET("/snapshots/:kind", h.Report.Snapshot)
	return g
}
