package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appbilling "github.com/retailpos/backend/internal/application/billing"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	identityapp "github.com/retailpos/backend/internal/application/identity"
	"github.com/retailpos/backend/internal/application/jobs"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	printingapp "github.com/retailpos/backend/internal/application/printing"
	reportapp "github.com/retailpos/backend/internal/application/report"
	salesapp "github.com/retailpos/backend/internal/application/sales"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/event"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/pix"
	"github.com/retailpos/backend/internal/infrastructure/printing"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/retailpos/backend/internal/interfaces/http/router"
	"github.com/retailpos/backend/tests/testutil"
)

const platformKey = "integration-platform-key"

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// testServer is the full HTTP stack over a migrated PostgreSQL, wired the
// way cmd/server wires it without Redis, object storage or Chrome
type testServer struct {
	db          *TestDB
	engine      http.Handler
	maintenance *jobs.MaintenanceExecutor
}

// session is a registered company and its admin
type session struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Token    string
	Refresh  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := NewSharedTestDB(t)
	log := zap.NewNop()

	cfg := &config.Config{
		App:  config.AppConfig{Name: "retailpos", Env: "test", PlatformAPIKey: platformKey},
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20},
		JWT: config.JWTConfig{
			Secret:                 "integration-secret-0123456789abcdef",
			Issuer:                 "retailpos-integration",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
		},
	}

	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	cacheFactory := cache.NewFactory(nil, cache.WithLogger(log))
	reportCache := cacheFactory.ReportCache()

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(reportapp.NewCacheInvalidationHandler(reportCache, log))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewInMemoryTokenBlacklist()

	authService := identityapp.NewAuthService(companyRepo, userRepo, persistence.NewGormRegistrationScope(db.DB), jwtService, blacklist, log)
	companyService := identityapp.NewCompanyService(companyRepo, log)
	userService := identityapp.NewUserService(userRepo, jwtService, blacklist, log)
	productService := catalogapp.NewProductService(productRepo, log)
	locations := appshared.NewCompanyLocations(companyRepo)
	customerService := partnerapp.NewCustomerService(customerRepo, installmentRepo, log)
	customerService.SetLocations(locations)

	saleService := salesapp.NewSaleService(saleRepo, installmentRepo, txScope, log)
	saleService.SetEventPublisher(bus)
	saleService.SetLocations(locations)
	installmentService := appbilling.NewInstallmentService(installmentRepo, customerRepo, txScope, log)
	installmentService.SetEventPublisher(bus)
	installmentService.SetIdempotencyStore(cacheFactory.IdempotencyStore(), time.Hour)
	installmentService.SetLocations(locations)

	reportService := reportapp.NewReportService(
		persistence.NewGormReportRepository(db.DB),
		persistence.NewGormSnapshotRepository(db.DB),
		companyRepo, reportCache, log)

	generator, err := pix.NewGenerator(1, 256)
	require.NoError(t, err)
	pixService := appbilling.NewPixChargeService(installmentRepo, companyRepo, generator, nil, log)
	documentService := printingapp.NewDocumentService(saleRepo, installmentRepo, customerRepo, companyRepo,
		printing.NewTemplateEngine(), nil, nil, log)

	middleware.SetupValidator()
	engine := router.NewEngine(router.EngineConfig{
		Config:        cfg,
		Logger:        log,
		JWTService:    jwtService,
		Blacklist:     blacklist,
		TenantChecker: companyService,
	}, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Company:     handler.NewCompanyHandler(companyService),
		User:        handler.NewUserHandler(userService),
		Product:     handler.NewProductHandler(productService),
		Customer:    handler.NewCustomerHandler(customerService, installmentService),
		Sale:        handler.NewSaleHandler(saleService, documentService),
		Installment: handler.NewInstallmentHandler(installmentService, pixService),
		Report:      handler.NewReportHandler(reportService),
		System: handler.NewSystemHandler(cfg.App.Name, "test", map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error { return db.SqlDB.PingContext(ctx) },
		}),
	})

	return &testServer{
		db:          db,
		engine:      engine,
		maintenance: jobs.NewMaintenanceExecutor(installmentService, reportService, log),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Do(t, s.engine, testutil.Request{Method: method, Path: path, Token: token, Body: body})
}

// ok performs the request, requires the status and decodes data into dst
func (s *testServer) ok(t *testing.T, method, path, token string, body any, status int, dst any) {
	t.Helper()
	rec := s.do(t, method, path, token, body)
	testutil.RequireStatus(t, rec, status)
	if dst != nil {
		testutil.Decode(t, rec, dst)
	}
}

// register creates a company with a unique username and document-free registration
func (s *testServer) register(t *testing.T, companyName string) session {
	t.Helper()
	var resp identityapp.TokenResponse
	s.ok(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"company_name": companyName,
		"username":     "admin-" + uuid.NewString()[:8],
		"password":     "admin12345",
		"name":         "Admin",
	}, http.StatusCreated, &resp)
	require.NotNil(t, resp.User)
	return session{
		TenantID: resp.User.TenantID,
		UserID:   resp.User.ID,
		Token:    resp.AccessToken,
		Refresh:  resp.RefreshToken,
	}
}
